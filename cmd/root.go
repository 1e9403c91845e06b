package cmd

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/cmd/canonicalize"
	"github.com/rawspec-testing/tblverify/cmd/internal/cmdutil"
	"github.com/rawspec-testing/tblverify/cmd/review"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.4.0"

var rootCmd = &cobra.Command{
	Use:     "tblverify",
	Short:   "Regression review of rawspec pipeline outputs",
	Long:    `tblverify compares the tables produced by a trial run of the rawspec pipeline against a known-good baseline.`,
	Version: Version,
	// Execute prints errors itself.
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr cmdutil.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("tblverify: {{.Version}}\n")
	rootCmd.AddCommand(review.Command())
	rootCmd.AddCommand(canonicalize.Command())
}
