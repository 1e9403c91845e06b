package cmdutil

import (
	"github.com/rawspec-testing/tblverify/siteconfig"
	"github.com/spf13/cobra"
)

var siteConfigPath string

func RegisterSiteConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&siteConfigPath,
		"site-config",
		"",
		"path to a YAML site config; the Berkeley data centre defaults apply if unset",
	)
}

// SiteConfig loads the site config flag, or the defaults if it is unset.
func SiteConfig() (siteconfig.Config, error) {
	if siteConfigPath == "" {
		return siteconfig.Default(), nil
	}
	return siteconfig.Load(siteConfigPath)
}
