package cmdutil

import (
	"github.com/rawspec-testing/tblverify/verify/artifactverify"
	"github.com/spf13/cobra"
)

var stemFilter = artifactverify.DefaultFilterConfig()

func RegisterStemFilterFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&stemFilter.StemFilter,
		"stem-filter",
		stemFilter.StemFilter,
		"POSIX regexp filter for artifact stems to compare (overrides the site config)",
	)
}

// StemFilter returns the stem filter flag, or the fallback if the flag was
// not set.
func StemFilter(cmd *cobra.Command, fallback string) artifactverify.FilterConfig {
	if cmd.Flags().Changed("stem-filter") || fallback == "" {
		return stemFilter
	}
	return artifactverify.FilterConfig{StemFilter: fallback}
}
