// Package artifactverify is responsible for pairing the artifacts of a
// baseline directory with those of a trial directory.
package artifactverify

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/tblbase"
	"github.com/rawspec-testing/tblverify/verify/inconsistency"
)

// Artifact is an artifact file found in a baseline or trial directory.
type Artifact struct {
	inconsistency.ArtifactID
	Path string
	// Canonical is set if Path is a canonical table file, rather than a raw
	// artifact which must be canonicalized before comparison.
	Canonical bool
}

type Result struct {
	Verified [][2]Artifact

	Skipped    []inconsistency.SkippedArtifact
	Extraneous []inconsistency.ExtraneousArtifact
}

type artifactIterator struct {
	artifacts []Artifact
	currIdx   int
}

func (c *artifactIterator) done() bool {
	return c.currIdx >= len(c.artifacts)
}

func (c *artifactIterator) next() {
	c.currIdx++
}

func (c *artifactIterator) curr() Artifact {
	return c.artifacts[c.currIdx]
}

// Enumerate pairs the artifacts of a kind in the baseline directory with
// their counterparts in the trial directory.
func Enumerate(
	baselineDir, trialDir string, kind tblbase.ArtifactKind, includeRaw bool,
) (Result, error) {
	var iterators [2]artifactIterator
	for i, dir := range []string{baselineDir, trialDir} {
		artifacts, err := List(dir, kind, includeRaw)
		if err != nil {
			return Result{}, err
		}
		iterators[i] = artifactIterator{artifacts: artifacts}
	}
	return compare(iterators), nil
}

// List lists the artifacts of a kind in dir sorted by stem. If includeRaw is
// set, raw artifacts without a canonical table of the same stem are listed
// too.
func List(dir string, kind tblbase.ArtifactKind, includeRaw bool) ([]Artifact, error) {
	byStem := make(map[string]Artifact)
	exts := []string{kind.Extension()}
	if includeRaw {
		exts = append(exts, kind.RawExtension())
	}
	fsys := os.DirFS(dir)
	for i, ext := range exts {
		matches, err := doublestar.Glob(fsys, "*"+ext)
		if err != nil {
			return nil, errors.Wrapf(err, "error listing %s", dir)
		}
		for _, m := range matches {
			stem := strings.TrimSuffix(m, ext)
			if _, ok := byStem[stem]; ok || stem == "" {
				continue
			}
			if fi, err := os.Stat(filepath.Join(dir, m)); err != nil || fi.IsDir() {
				continue
			}
			byStem[stem] = Artifact{
				ArtifactID: inconsistency.ArtifactID{Kind: kind, Stem: stem},
				Path:       filepath.Join(dir, m),
				Canonical:  i == 0,
			}
		}
	}
	ret := make([]Artifact, 0, len(byStem))
	for _, a := range byStem {
		ret = append(ret, a)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Stem < ret[j].Stem
	})
	return ret, nil
}

// compare compares two lists of artifacts.
// It assumes artifacts are sorted by stem in each iterator.
func compare(iterators [2]artifactIterator) Result {
	ret := Result{}
	baselineIterator := &iterators[0]
	trialIterator := &iterators[1]
	for !baselineIterator.done() {
		// If the trial iterator is done, every remaining baseline artifact
		// is skipped.
		compareVal := 1
		if !trialIterator.done() {
			compareVal = strings.Compare(trialIterator.curr().Stem, baselineIterator.curr().Stem)
		}
		switch compareVal {
		case -1:
			ret.Extraneous = append(ret.Extraneous, extraneous(trialIterator.curr()))
			trialIterator.next()
		case 0:
			ret.Verified = append(ret.Verified, [2]Artifact{baselineIterator.curr(), trialIterator.curr()})
			trialIterator.next()
			baselineIterator.next()
		case 1:
			ret.Skipped = append(ret.Skipped, skipped(baselineIterator.curr()))
			baselineIterator.next()
		}
	}

	for !trialIterator.done() {
		ret.Extraneous = append(ret.Extraneous, extraneous(trialIterator.curr()))
		trialIterator.next()
	}
	return ret
}

func skipped(a Artifact) inconsistency.SkippedArtifact {
	return inconsistency.SkippedArtifact{ArtifactID: a.ArtifactID, BaselinePath: a.Path}
}

func extraneous(a Artifact) inconsistency.ExtraneousArtifact {
	return inconsistency.ExtraneousArtifact{ArtifactID: a.ArtifactID, TrialPath: a.Path}
}
