package review

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/cmd/internal/cmdutil"
	"github.com/rawspec-testing/tblverify/retry"
	"github.com/rawspec-testing/tblverify/tblbase"
	"github.com/rawspec-testing/tblverify/verify"
	"github.com/rawspec-testing/tblverify/verify/inconsistency"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var (
		reviewBaselineDir string
		reviewTrialDir    string
		reviewKinds       []string
		reviewRaw         bool
		reviewConcurrency int
		reviewReportXLSX  string
		reviewReadRetry   = retry.DefaultSettings()
	)

	cmd := &cobra.Command{
		Use:   "review [baseline-dir] [trial-dir]",
		Short: "Compare trial artifacts against the baseline.",
		Long: `Review compares every trial artifact against its counterpart in the baseline tree, reports each
discrepancy and exits with the number of errors found (capped at 255).`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cmdutil.Logger()
			if err != nil {
				return err
			}
			cfg, err := cmdutil.SiteConfig()
			if err != nil {
				return err
			}
			cmdutil.RunMetricsServer(logger)
			logHostInfo(logger)

			baselineDir, trialDir := cfg.Baseline(), cfg.Trial()
			if cmd.Flags().Changed("baseline-dir") {
				baselineDir = reviewBaselineDir
			}
			if cmd.Flags().Changed("trial-dir") {
				trialDir = reviewTrialDir
			}
			if len(args) > 0 {
				baselineDir = args[0]
			}
			if len(args) > 1 {
				trialDir = args[1]
			}

			kinds, err := cfg.KindSet()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("kinds") {
				if kinds, err = parseKinds(reviewKinds); err != nil {
					return err
				}
			}
			tolerances, err := cfg.KindTolerances()
			if err != nil {
				return err
			}
			raw := cfg.RawArtifacts
			if cmd.Flags().Changed("raw") {
				raw = reviewRaw
			}
			opts := []verify.VerifyOpt{
				verify.WithKinds(kinds),
				verify.WithTolerances(tolerances),
				verify.WithStemFilter(cmdutil.StemFilter(cmd, cfg.StemFilter)),
				verify.WithRawArtifacts(raw),
				verify.WithConcurrency(reviewConcurrency),
				verify.WithReadRetry(reviewReadRetry),
			}
			if stem := cfg.ChannelSummaryStem(); stem != "" {
				opts = append(opts, verify.WithRequiredArtifacts(
					inconsistency.ArtifactID{Kind: tblbase.ChannelSummary, Stem: stem},
				))
			}

			reporter := inconsistency.CombinedReporter{}
			reporter.Reporters = append(reporter.Reporters, &inconsistency.LogReporter{Logger: logger})
			if reviewReportXLSX != "" {
				reporter.Reporters = append(reporter.Reporters, inconsistency.NewXLSXReporter(reviewReportXLSX, logger))
			}
			defer reporter.Close()

			cmd.SilenceUsage = true
			run, err := verify.Verify(context.Background(), baselineDir, trialDir, logger, reporter, opts...)
			if err != nil {
				return errors.Wrapf(err, "error reviewing")
			}
			logger.Info().
				Str("run_id", run.ID.String()).
				Int("artifacts", len(run.Results)).
				Int("skipped", len(run.Skipped)).
				Int("errors", run.TotalErrors).
				Msgf("review complete")
			fmt.Fprintln(cmd.OutOrStdout(), run.Verdict())
			if code := run.ExitCode(); code != 0 {
				cmd.SilenceErrors = true
				return cmdutil.ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(
		&reviewBaselineDir,
		"baseline-dir",
		"",
		"baseline directory (defaults to the site config)",
	)
	cmd.PersistentFlags().StringVar(
		&reviewTrialDir,
		"trial-dir",
		"",
		"trial directory (defaults to the site config)",
	)
	cmd.PersistentFlags().StringSliceVar(
		&reviewKinds,
		"kinds",
		nil,
		"artifact kinds to compare, replacing the kinds enabled by the site config",
	)
	cmd.PersistentFlags().BoolVar(
		&reviewRaw,
		"raw",
		false,
		"canonicalize raw artifacts which have no canonical table",
	)
	cmd.PersistentFlags().IntVar(
		&reviewConcurrency,
		"concurrency",
		verify.DefaultConcurrency,
		"number of artifacts to compare at a time (0 defaults to number of CPUs)",
	)
	cmd.PersistentFlags().StringVar(
		&reviewReportXLSX,
		"report-xlsx",
		"",
		"if set, writes a workbook of every discrepancy to this path",
	)
	cmd.PersistentFlags().IntVar(
		&reviewReadRetry.MaxAttempts,
		"read-attempts",
		reviewReadRetry.MaxAttempts,
		"maximum number of attempts to read an artifact which fails with a transient error",
	)
	cmdutil.RegisterLoggerFlags(cmd)
	cmdutil.RegisterMetricsFlags(cmd)
	cmdutil.RegisterSiteConfigFlags(cmd)
	cmdutil.RegisterStemFilterFlags(cmd)
	return cmd
}

func parseKinds(names []string) (map[tblbase.ArtifactKind]bool, error) {
	ret := make(map[tblbase.ArtifactKind]bool, len(tblbase.AllKinds))
	for _, k := range tblbase.AllKinds {
		ret[k] = false
	}
	for _, n := range names {
		k, err := tblbase.ParseArtifactKind(n)
		if err != nil {
			return nil, err
		}
		ret[k] = true
	}
	return ret, nil
}

func logHostInfo(logger zerolog.Logger) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	logger.Info().
		Str("os", runtime.GOOS).
		Str("arch", runtime.GOARCH).
		Str("node", hostname).
		Str("home", os.Getenv("HOME")).
		Msgf("host information")
}
