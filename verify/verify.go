package verify

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rawspec-testing/tblverify/canonicalize"
	"github.com/rawspec-testing/tblverify/retry"
	"github.com/rawspec-testing/tblverify/tblbase"
	"github.com/rawspec-testing/tblverify/tblfile"
	"github.com/rawspec-testing/tblverify/verify/artifactverify"
	"github.com/rawspec-testing/tblverify/verify/inconsistency"
	"github.com/rawspec-testing/tblverify/verify/rowverify"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 1

// ErrStructural marks errors which prevent a run from starting, such as a
// missing baseline or trial directory.
var ErrStructural = errors.New("structural error")

type VerifyOpt func(*verifyOpts)

type verifyOpts struct {
	concurrency  int
	kinds        map[tblbase.ArtifactKind]bool
	tolerances   map[tblbase.ArtifactKind]map[string]tblbase.Tolerance
	filter       artifactverify.FilterConfig
	rawArtifacts bool
	required     map[inconsistency.ArtifactID]struct{}
	readRetry    retry.Settings
}

// WithConcurrency sets how many artifacts are compared at once. Zero
// defaults to the number of CPUs.
func WithConcurrency(c int) VerifyOpt {
	return func(o *verifyOpts) {
		o.concurrency = c
	}
}

// WithKinds enables or disables artifact kinds. Kinds absent from the map
// keep their default, which is enabled.
func WithKinds(kinds map[tblbase.ArtifactKind]bool) VerifyOpt {
	return func(o *verifyOpts) {
		for k, enabled := range kinds {
			o.kinds[k] = enabled
		}
	}
}

// WithTolerances overrides the default column tolerances of each kind.
func WithTolerances(tols map[tblbase.ArtifactKind]map[string]tblbase.Tolerance) VerifyOpt {
	return func(o *verifyOpts) {
		o.tolerances = tols
	}
}

func WithStemFilter(filter artifactverify.FilterConfig) VerifyOpt {
	return func(o *verifyOpts) {
		o.filter = filter
	}
}

// WithRawArtifacts compares raw artifacts, canonicalizing them on the fly,
// where no canonical table exists.
func WithRawArtifacts(b bool) VerifyOpt {
	return func(o *verifyOpts) {
		o.rawArtifacts = b
	}
}

// WithRequiredArtifacts marks artifacts which the trial must contain. A
// required baseline artifact without a trial counterpart is an error rather
// than a skip.
func WithRequiredArtifacts(ids ...inconsistency.ArtifactID) VerifyOpt {
	return func(o *verifyOpts) {
		for _, id := range ids {
			o.required[id] = struct{}{}
		}
	}
}

// WithReadRetry sets how reads of artifacts are retried on transient
// errors. Malformed and missing artifacts are never retried.
func WithReadRetry(s retry.Settings) VerifyOpt {
	return func(o *verifyOpts) {
		o.readRetry = s
	}
}

var (
	artifactsCompared = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tblverify",
		Subsystem: "verify",
		Name:      "artifacts_compared",
		Help:      "Number of artifacts that have been compared.",
	}, []string{"kind"})
	artifactsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tblverify",
		Subsystem: "verify",
		Name:      "artifacts_skipped",
		Help:      "Number of baseline artifacts without a trial counterpart.",
	}, []string{"kind"})
	discrepancies = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tblverify",
		Subsystem: "verify",
		Name:      "discrepancies",
		Help:      "Number of discrepancies found.",
	}, []string{"kind", "rule"})
)

// Run is the outcome of a verification run.
type Run struct {
	ID          uuid.UUID
	BaselineDir string
	TrialDir    string

	// Results holds one result per compared artifact, ordered by kind and
	// then by stem.
	Results    []inconsistency.Result
	Skipped    []inconsistency.SkippedArtifact
	Extraneous []inconsistency.ExtraneousArtifact

	TotalErrors int
}

func (r Run) Success() bool {
	return r.TotalErrors == 0
}

// ExitCode is the process exit status of the run: the total number of
// errors, capped at the largest exit status.
func (r Run) ExitCode() int {
	if r.TotalErrors > 255 {
		return 255
	}
	return r.TotalErrors
}

// Verdict is the final line printed for the run.
func (r Run) Verdict() string {
	if r.Success() {
		return "*SUCCESS* - No errors reported."
	}
	return fmt.Sprintf("*FAILURE* - Number of errors reported = %d", r.TotalErrors)
}

// Verify compares every trial artifact against its baseline counterpart and
// returns the tally of the run. Discrepancies do not fail the call; only
// errors which stop the run from happening at all are returned.
func Verify(
	ctx context.Context,
	baselineDir, trialDir string,
	logger zerolog.Logger,
	reporter inconsistency.Reporter,
	inOpts ...VerifyOpt,
) (Run, error) {
	opts := verifyOpts{
		concurrency: DefaultConcurrency,
		kinds:       make(map[tblbase.ArtifactKind]bool, len(tblbase.AllKinds)),
		filter:      artifactverify.DefaultFilterConfig(),
		required:    make(map[inconsistency.ArtifactID]struct{}),
		readRetry:   retry.DefaultSettings(),
	}
	for _, k := range tblbase.AllKinds {
		opts.kinds[k] = true
	}
	for _, applyOpt := range inOpts {
		applyOpt(&opts)
	}
	if err := opts.readRetry.Verify(); err != nil {
		return Run{}, errors.Wrap(err, "invalid read retry settings")
	}

	run := Run{
		ID:          uuid.New(),
		BaselineDir: baselineDir,
		TrialDir:    trialDir,
	}
	for _, dir := range []struct {
		name string
		path string
	}{
		{name: "baseline", path: baselineDir},
		{name: "trial", path: trialDir},
	} {
		if err := checkDir(dir.path); err != nil {
			return run, errors.Mark(errors.Wrapf(err, "%s directory", dir.name), ErrStructural)
		}
	}

	numGoroutines := opts.concurrency
	if numGoroutines <= 0 {
		numGoroutines = runtime.NumCPU()
		logger.Debug().Int("concurrency", numGoroutines).
			Msgf("no concurrency set; defaulting to number of CPUs")
	}

	logger.Info().
		Str("run_id", run.ID.String()).
		Str("baseline_dir", baselineDir).
		Str("trial_dir", trialDir).
		Msgf("starting verification")

	for _, kind := range tblbase.AllKinds {
		if !opts.kinds[kind] {
			reporter.Report(inconsistency.DisabledKind{Kind: kind})
			continue
		}
		artifacts, err := artifactverify.Enumerate(baselineDir, trialDir, kind, opts.rawArtifacts)
		if err != nil {
			return run, errors.Wrapf(err, "error enumerating %s artifacts", kind)
		}
		if artifacts, err = artifactverify.FilterResult(opts.filter, artifacts); err != nil {
			return run, err
		}
		var missing []inconsistency.Result
		for _, s := range artifacts.Skipped {
			if _, ok := opts.required[s.ArtifactID]; ok {
				missing = append(missing, inconsistency.Failure(
					s.ArtifactID,
					inconsistency.RuleMissingArtifact,
					fmt.Sprintf("%s not found in %s", s.ArtifactID, trialDir),
				))
				continue
			}
			artifactsSkipped.WithLabelValues(kind.String()).Inc()
			reporter.Report(s)
			run.Skipped = append(run.Skipped, s)
		}
		for _, e := range artifacts.Extraneous {
			reporter.Report(e)
		}
		run.Extraneous = append(run.Extraneous, artifacts.Extraneous...)

		results, err := compareArtifacts(
			ctx,
			artifacts.Verified,
			rowverify.RulesFor(kind, opts.tolerances[kind]),
			opts.readRetry,
			numGoroutines,
			logger,
		)
		if err != nil {
			return run, err
		}
		results = mergeByStem(results, missing)
		// Results are reported in stem order, however many were compared at
		// once.
		for _, res := range results {
			artifactsCompared.WithLabelValues(kind.String()).Inc()
			for _, d := range res.Discrepancies {
				discrepancies.WithLabelValues(kind.String(), string(d.Rule)).Inc()
			}
			reporter.Report(res)
			run.TotalErrors += res.ErrorCount()
		}
		run.Results = append(run.Results, results...)
	}
	return run, nil
}

// mergeByStem merges two lists of results sorted by stem.
func mergeByStem(a, b []inconsistency.Result) []inconsistency.Result {
	if len(b) == 0 {
		return a
	}
	ret := make([]inconsistency.Result, 0, len(a)+len(b))
	for len(a) > 0 && len(b) > 0 {
		if a[0].Stem <= b[0].Stem {
			ret, a = append(ret, a[0]), a[1:]
		} else {
			ret, b = append(ret, b[0]), b[1:]
		}
	}
	ret = append(ret, a...)
	return append(ret, b...)
}

func checkDir(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Newf("%s does not exist", path)
		}
		return err
	}
	if !fi.IsDir() {
		return errors.Newf("%s is not a directory", path)
	}
	return nil
}

func compareArtifacts(
	ctx context.Context,
	pairs [][2]artifactverify.Artifact,
	rules rowverify.Rules,
	readRetry retry.Settings,
	numGoroutines int,
	logger zerolog.Logger,
) ([]inconsistency.Result, error) {
	results := make([]inconsistency.Result, len(pairs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(numGoroutines)
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = compareArtifact(ctx, pair, rules, readRetry, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func compareArtifact(
	ctx context.Context,
	pair [2]artifactverify.Artifact,
	rules rowverify.Rules,
	readRetry retry.Settings,
	logger zerolog.Logger,
) inconsistency.Result {
	id := pair[0].ArtifactID
	logger.Debug().
		Str("baseline", pair[0].Path).
		Str("trial", pair[1].Path).
		Msgf("comparing %s", id)
	var tables [2]*tblbase.Table
	for i, a := range pair {
		var tbl *tblbase.Table
		err := retry.Do(ctx, readRetry, isTransient, func() (err error) {
			tbl, err = load(a)
			return err
		})
		if err != nil {
			if !tblbase.IsParseError(err) {
				logger.Err(err).Str("path", a.Path).Msgf("error reading artifact")
			}
			return inconsistency.Failure(id, inconsistency.RuleParseError, err.Error())
		}
		tables[i] = tbl
	}
	return rowverify.Compare(id, tables[0], tables[1], rules)
}

func isTransient(err error) bool {
	return !tblbase.IsParseError(err) && !errors.Is(err, fs.ErrNotExist)
}

func load(a artifactverify.Artifact) (*tblbase.Table, error) {
	if a.Canonical {
		return tblfile.ReadFile(a.Path, a.Kind)
	}
	return canonicalize.File(a.Kind, a.Path)
}
