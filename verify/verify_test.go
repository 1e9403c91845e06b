package verify

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/retry"
	"github.com/rawspec-testing/tblverify/tblbase"
	"github.com/rawspec-testing/tblverify/tblfile"
	"github.com/rawspec-testing/tblverify/testutils"
	"github.com/rawspec-testing/tblverify/verify/artifactverify"
	"github.com/rawspec-testing/tblverify/verify/inconsistency"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	objs []inconsistency.ReportableObject
}

func (r *recordingReporter) Report(obj inconsistency.ReportableObject) {
	r.objs = append(r.objs, obj)
}

func (r *recordingReporter) Close() {}

func hits(snr float64) string {
	return testutils.DatFile([][]string{
		testutils.Hit(1, -0.392226, 30.612333, 8419.319368, 739933),
		testutils.Hit(2, 0, snr, 8419.297028, 747929),
	})
}

// makeBaseline writes detection artifacts a, b and c into a new directory.
func makeBaseline(t *testing.T) string {
	dir := t.TempDir()
	for _, stem := range []string{"a", "b", "c"} {
		testutils.WriteFile(t, dir, stem+".dat", []byte(hits(245.7073)))
	}
	return dir
}

func copyBaseline(t *testing.T, baselineDir string) string {
	dir := t.TempDir()
	testutils.CopyDir(t, baselineDir, dir)
	return dir
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		desc   string
		mutate func(t *testing.T, trialDir string)
		opts   []VerifyOpt

		expectedErrors  int
		expectedResults int
		expectedSkipped int
		expectedVerdict string
	}{
		{
			desc:            "identical",
			expectedResults: 3,
			expectedVerdict: "*SUCCESS* - No errors reported.",
		},
		{
			desc: "one changed snr",
			mutate: func(t *testing.T, trialDir string) {
				testutils.WriteFile(t, trialDir, "b.dat", []byte(hits(368.56095)))
			},
			expectedErrors:  1,
			expectedResults: 3,
			expectedVerdict: "*FAILURE* - Number of errors reported = 1",
		},
		{
			desc: "changed snr within a relaxed tolerance",
			mutate: func(t *testing.T, trialDir string) {
				testutils.WriteFile(t, trialDir, "b.dat", []byte(hits(368.56095)))
			},
			opts: []VerifyOpt{
				WithTolerances(map[tblbase.ArtifactKind]map[string]tblbase.Tolerance{
					tblbase.DetectionTable: {"snr": {Rel: 0.6}},
				}),
			},
			expectedResults: 3,
			expectedVerdict: "*SUCCESS* - No errors reported.",
		},
		{
			desc: "missing trial artifact is skipped",
			mutate: func(t *testing.T, trialDir string) {
				require.NoError(t, os.Remove(filepath.Join(trialDir, "c.dat")))
			},
			expectedResults: 2,
			expectedSkipped: 1,
			expectedVerdict: "*SUCCESS* - No errors reported.",
		},
		{
			desc: "unparseable trial artifact",
			mutate: func(t *testing.T, trialDir string) {
				testutils.WriteFile(t, trialDir, "a.dat", []byte("not a turboSETI file\n"))
			},
			expectedErrors:  1,
			expectedResults: 3,
			expectedVerdict: "*FAILURE* - Number of errors reported = 1",
		},
		{
			desc: "errors across artifacts add up",
			mutate: func(t *testing.T, trialDir string) {
				testutils.WriteFile(t, trialDir, "a.dat", []byte("not a turboSETI file\n"))
				testutils.WriteFile(t, trialDir, "c.dat", []byte(hits(368.56095)))
			},
			expectedErrors:  2,
			expectedResults: 3,
			expectedVerdict: "*FAILURE* - Number of errors reported = 2",
		},
		{
			desc: "stem filter",
			mutate: func(t *testing.T, trialDir string) {
				testutils.WriteFile(t, trialDir, "b.dat", []byte(hits(368.56095)))
			},
			opts: []VerifyOpt{
				WithStemFilter(artifactverify.FilterConfig{StemFilter: "^[ac]$"}),
			},
			expectedResults: 2,
			expectedVerdict: "*SUCCESS* - No errors reported.",
		},
		{
			desc: "disabled kind",
			mutate: func(t *testing.T, trialDir string) {
				testutils.WriteFile(t, trialDir, "b.dat", []byte(hits(368.56095)))
			},
			opts: []VerifyOpt{
				WithKinds(map[tblbase.ArtifactKind]bool{tblbase.DetectionTable: false}),
			},
			expectedVerdict: "*SUCCESS* - No errors reported.",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			baselineDir := makeBaseline(t)
			trialDir := copyBaseline(t, baselineDir)
			if tc.mutate != nil {
				tc.mutate(t, trialDir)
			}
			reporter := &recordingReporter{}
			opts := append([]VerifyOpt{WithRawArtifacts(true)}, tc.opts...)
			run, err := Verify(ctx, baselineDir, trialDir, zerolog.Nop(), reporter, opts...)
			require.NoError(t, err)
			require.Equal(t, tc.expectedErrors, run.TotalErrors)
			require.Equal(t, tc.expectedErrors, run.ExitCode())
			require.Equal(t, tc.expectedErrors == 0, run.Success())
			require.Len(t, run.Results, tc.expectedResults)
			require.Len(t, run.Skipped, tc.expectedSkipped)
			require.Equal(t, tc.expectedVerdict, run.Verdict())

			var reported int
			for _, obj := range reporter.objs {
				if _, ok := obj.(inconsistency.Result); ok {
					reported++
				}
			}
			require.Equal(t, tc.expectedResults, reported)
		})
	}
}

func TestVerifyRawArtifactsRequireOption(t *testing.T) {
	baselineDir := makeBaseline(t)
	trialDir := copyBaseline(t, baselineDir)
	run, err := Verify(context.Background(), baselineDir, trialDir, zerolog.Nop(), &recordingReporter{})
	require.NoError(t, err)
	require.Empty(t, run.Results)
}

func TestVerifyCanonicalTables(t *testing.T) {
	baselineDir := t.TempDir()
	trialDir := t.TempDir()
	schema := tblbase.SchemaFor(tblbase.ChannelSummary)
	row := func(invocation int64, mode string) tblbase.Row {
		return tblbase.Row{
			tblbase.DInt(invocation), tblbase.DInt(8), tblbase.DInt(2), tblbase.DInt(64),
			tblbase.DInt(8192), tblbase.DInt(1), tblbase.DEnum(mode),
		}
	}
	baseline, err := schema.NewTable([]tblbase.Row{row(1, tblbase.ModeStokesI), row(2, tblbase.ModeStokesI)})
	require.NoError(t, err)
	trial, err := schema.NewTable([]tblbase.Row{row(1, tblbase.ModeFullStokes)})
	require.NoError(t, err)
	require.NoError(t, tblfile.WriteFile(filepath.Join(baselineDir, "rawspectest.tblnpols"), baseline))
	require.NoError(t, tblfile.WriteFile(filepath.Join(trialDir, "rawspectest.tblnpols"), trial))

	reporter := &recordingReporter{}
	run, err := Verify(context.Background(), baselineDir, trialDir, zerolog.Nop(), reporter)
	require.NoError(t, err)
	// One mismatched field and one missing row.
	require.Equal(t, 2, run.TotalErrors)
	require.Len(t, run.Results, 1)
	require.Equal(t, "rawspectest.tblnpols", run.Results[0].ArtifactID.String())
}

func TestVerifyConcurrency(t *testing.T) {
	baselineDir := t.TempDir()
	for _, stem := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		testutils.WriteFile(t, baselineDir, stem+".dat", []byte(hits(245.7073)))
	}
	trialDir := copyBaseline(t, baselineDir)
	testutils.WriteFile(t, trialDir, "c.dat", []byte(hits(368.56095)))
	testutils.WriteFile(t, trialDir, "f.dat", []byte(hits(368.56095)))

	var runs []Run
	for _, concurrency := range []int{1, 4} {
		run, err := Verify(
			context.Background(),
			baselineDir,
			trialDir,
			zerolog.Nop(),
			&recordingReporter{},
			WithRawArtifacts(true),
			WithConcurrency(concurrency),
		)
		require.NoError(t, err)
		runs = append(runs, run)
	}
	require.Equal(t, 2, runs[0].TotalErrors)
	require.Equal(t, runs[0].TotalErrors, runs[1].TotalErrors)
	require.Equal(t, runs[0].Results, runs[1].Results)
}

func TestVerifyStructuralErrors(t *testing.T) {
	existing := t.TempDir()
	file := testutils.WriteFile(t, existing, "file.tblhdr", []byte("x"))
	missing := filepath.Join(existing, "does-not-exist")
	for _, tc := range []struct {
		desc        string
		baseline    string
		trial       string
		expectedErr string
	}{
		{
			desc:        "missing baseline",
			baseline:    missing,
			trial:       existing,
			expectedErr: "baseline directory: " + missing + " does not exist",
		},
		{
			desc:        "missing trial",
			baseline:    existing,
			trial:       missing,
			expectedErr: "trial directory: " + missing + " does not exist",
		},
		{
			desc:        "baseline is a file",
			baseline:    file,
			trial:       existing,
			expectedErr: "baseline directory: " + file + " is not a directory",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			reporter := &recordingReporter{}
			_, err := Verify(context.Background(), tc.baseline, tc.trial, zerolog.Nop(), reporter)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrStructural))
			require.Equal(t, tc.expectedErr, err.Error())
			require.Empty(t, reporter.objs)
		})
	}
}

func TestRunVerdict(t *testing.T) {
	for _, tc := range []struct {
		errors           int
		expectedExitCode int
		expectedVerdict  string
	}{
		{errors: 0, expectedExitCode: 0, expectedVerdict: "*SUCCESS* - No errors reported."},
		{errors: 3, expectedExitCode: 3, expectedVerdict: "*FAILURE* - Number of errors reported = 3"},
		{errors: 300, expectedExitCode: 255, expectedVerdict: "*FAILURE* - Number of errors reported = 300"},
	} {
		t.Run(strings.ReplaceAll(tc.expectedVerdict, " ", "_"), func(t *testing.T) {
			run := Run{TotalErrors: tc.errors}
			require.Equal(t, tc.expectedExitCode, run.ExitCode())
			require.Equal(t, tc.expectedVerdict, run.Verdict())
		})
	}
}

func TestVerifyRequiredArtifacts(t *testing.T) {
	baselineDir := makeBaseline(t)
	trialDir := copyBaseline(t, baselineDir)
	require.NoError(t, os.Remove(filepath.Join(trialDir, "b.dat")))
	require.NoError(t, os.Remove(filepath.Join(trialDir, "c.dat")))

	run, err := Verify(
		context.Background(),
		baselineDir,
		trialDir,
		zerolog.Nop(),
		&recordingReporter{},
		WithRawArtifacts(true),
		WithRequiredArtifacts(inconsistency.ArtifactID{Kind: tblbase.DetectionTable, Stem: "b"}),
	)
	require.NoError(t, err)
	require.Equal(t, 1, run.TotalErrors)
	require.Len(t, run.Skipped, 1)
	require.Equal(t, "c", run.Skipped[0].Stem)
	require.Len(t, run.Results, 2)
	require.Equal(t, "a", run.Results[0].Stem)
	require.Equal(t, "b", run.Results[1].Stem)
	require.Equal(t, inconsistency.RuleMissingArtifact, run.Results[1].Discrepancies[0].Rule)
}

func TestVerifyInvalidReadRetry(t *testing.T) {
	baselineDir := makeBaseline(t)
	_, err := Verify(
		context.Background(),
		baselineDir,
		baselineDir,
		zerolog.Nop(),
		&recordingReporter{},
		WithReadRetry(retry.Settings{MaxAttempts: -1}),
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid read retry settings")
}

func TestVerifyHostileFilterbankHeader(t *testing.T) {
	baselineDir := makeBaseline(t)
	for _, stem := range []string{"a", "b", "c"} {
		testutils.WriteFile(t, baselineDir, stem+".fil", testutils.Filterbank(testutils.DefaultKeywords(), 3*4*4))
	}
	trialDir := copyBaseline(t, baselineDir)

	var kws []testutils.Keyword
	for _, kw := range testutils.DefaultKeywords() {
		switch kw.Name {
		case "nchans", "nifs":
			kw.Value = 1 << 30
		case "nbits":
			kw.Value = 16
		}
		kws = append(kws, kw)
	}
	testutils.WriteFile(t, trialDir, "b.fil", testutils.Filterbank(kws, 3*4*4))

	run, err := Verify(
		context.Background(),
		baselineDir,
		trialDir,
		zerolog.Nop(),
		&recordingReporter{},
		WithRawArtifacts(true),
		WithKinds(map[tblbase.ArtifactKind]bool{tblbase.Header: false}),
	)
	require.NoError(t, err)
	require.Equal(t, 1, run.TotalErrors)
	// Three detection tables and three data selections.
	require.Len(t, run.Results, 6)

	var parseErrors []inconsistency.ArtifactID
	for _, res := range run.Results {
		for _, d := range res.Discrepancies {
			if d.Rule == inconsistency.RuleParseError {
				parseErrors = append(parseErrors, res.ArtifactID)
			}
		}
	}
	require.Equal(t, []inconsistency.ArtifactID{{Kind: tblbase.DataSelection, Stem: "b"}}, parseErrors)
}
