package artifactverify

import (
	"path/filepath"
	"testing"

	"github.com/rawspec-testing/tblverify/tblbase"
	"github.com/rawspec-testing/tblverify/testutils"
	"github.com/rawspec-testing/tblverify/verify/inconsistency"
	"github.com/stretchr/testify/require"
)

func artifact(dir string, kind tblbase.ArtifactKind, stem string, canonical bool) Artifact {
	ext := kind.Extension()
	if !canonical {
		ext = kind.RawExtension()
	}
	return Artifact{
		ArtifactID: inconsistency.ArtifactID{Kind: kind, Stem: stem},
		Path:       filepath.Join(dir, stem+ext),
		Canonical:  canonical,
	}
}

func TestArtifactCompare(t *testing.T) {
	a := artifact("b", tblbase.Header, "a", true)
	b := artifact("b", tblbase.Header, "b", true)
	c := artifact("b", tblbase.Header, "c", true)
	ta := artifact("t", tblbase.Header, "a", true)
	tb := artifact("t", tblbase.Header, "b", true)
	tc3 := artifact("t", tblbase.Header, "c", true)
	for _, tc := range []struct {
		desc     string
		its      [2]artifactIterator
		expected Result
	}{
		{
			desc: "exactly the same",
			its: [2]artifactIterator{
				{artifacts: []Artifact{a, b, c}},
				{artifacts: []Artifact{ta, tb, tc3}},
			},
			expected: Result{
				Verified: [][2]Artifact{{a, ta}, {b, tb}, {c, tc3}},
			},
		},
		{
			desc: "trial missing artifacts",
			its: [2]artifactIterator{
				{artifacts: []Artifact{a, b, c}},
				{artifacts: []Artifact{tb}},
			},
			expected: Result{
				Verified: [][2]Artifact{{b, tb}},
				Skipped:  []inconsistency.SkippedArtifact{skipped(a), skipped(c)},
			},
		},
		{
			desc: "trial has extra artifacts",
			its: [2]artifactIterator{
				{artifacts: []Artifact{b}},
				{artifacts: []Artifact{ta, tb, tc3}},
			},
			expected: Result{
				Verified:   [][2]Artifact{{b, tb}},
				Extraneous: []inconsistency.ExtraneousArtifact{extraneous(ta), extraneous(tc3)},
			},
		},
		{
			desc: "empty trial",
			its: [2]artifactIterator{
				{artifacts: []Artifact{a}},
				{},
			},
			expected: Result{
				Skipped: []inconsistency.SkippedArtifact{skipped(a)},
			},
		},
		{
			desc:     "both empty",
			expected: Result{},
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.expected, compare(tc.its))
		})
	}
}

func TestEnumerate(t *testing.T) {
	baselineDir := t.TempDir()
	trialDir := t.TempDir()
	for _, name := range []string{
		"b.tblhdr",
		"a.tblhdr",
		"a.fil",
		"c.fil",
		"d.tblhdr",
		"x.tbldsel",
		"notes.txt",
	} {
		testutils.WriteFile(t, baselineDir, name, []byte("x"))
	}
	for _, name := range []string{
		"a.tblhdr",
		"b.fil",
		"c.fil",
		"e.tblhdr",
	} {
		testutils.WriteFile(t, trialDir, name, []byte("x"))
	}

	t.Run("canonical only", func(t *testing.T) {
		res, err := Enumerate(baselineDir, trialDir, tblbase.Header, false)
		require.NoError(t, err)
		require.Equal(t, Result{
			Verified: [][2]Artifact{
				{artifact(baselineDir, tblbase.Header, "a", true), artifact(trialDir, tblbase.Header, "a", true)},
			},
			Skipped: []inconsistency.SkippedArtifact{
				skipped(artifact(baselineDir, tblbase.Header, "b", true)),
				skipped(artifact(baselineDir, tblbase.Header, "d", true)),
			},
			Extraneous: []inconsistency.ExtraneousArtifact{
				extraneous(artifact(trialDir, tblbase.Header, "e", true)),
			},
		}, res)
	})

	t.Run("with raw artifacts", func(t *testing.T) {
		res, err := Enumerate(baselineDir, trialDir, tblbase.Header, true)
		require.NoError(t, err)
		require.Equal(t, Result{
			Verified: [][2]Artifact{
				{artifact(baselineDir, tblbase.Header, "a", true), artifact(trialDir, tblbase.Header, "a", true)},
				{artifact(baselineDir, tblbase.Header, "b", true), artifact(trialDir, tblbase.Header, "b", false)},
				{artifact(baselineDir, tblbase.Header, "c", false), artifact(trialDir, tblbase.Header, "c", false)},
			},
			Skipped: []inconsistency.SkippedArtifact{
				skipped(artifact(baselineDir, tblbase.Header, "d", true)),
			},
			Extraneous: []inconsistency.ExtraneousArtifact{
				extraneous(artifact(trialDir, tblbase.Header, "e", true)),
			},
		}, res)
	})
}
