package canonicalize

import (
	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/canonicalize"
	"github.com/rawspec-testing/tblverify/cmd/internal/cmdutil"
	"github.com/rawspec-testing/tblverify/tblbase"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var canonicalizeKind string

	cmd := &cobra.Command{
		Use:   "canonicalize --kind <kind> <input> <output>",
		Short: "Convert a raw artifact into a canonical table.",
		Long: `Canonicalize converts a raw pipeline artifact into its canonical table file. Use - as the input
to read from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cmdutil.Logger()
			if err != nil {
				return err
			}
			kind, err := tblbase.ParseArtifactKind(canonicalizeKind)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			tbl, err := canonicalize.ToFile(kind, args[0], args[1])
			if err != nil {
				return errors.Wrapf(err, "error canonicalizing %s", args[0])
			}
			logger.Info().
				Str("kind", kind.String()).
				Str("output", args[1]).
				Int("rows", len(tbl.Rows)).
				Msgf("canonicalized %s", args[0])
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(
		&canonicalizeKind,
		"kind",
		"",
		"artifact kind: detection-table, header, data-selection or channel-summary",
	)
	if err := cmd.MarkPersistentFlagRequired("kind"); err != nil {
		panic(err)
	}
	cmdutil.RegisterLoggerFlags(cmd)
	return cmd
}
