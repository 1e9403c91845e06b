// Package siteconfig loads the site policy of a testing node: where the
// baseline and trial trees live and how artifacts are compared.
package siteconfig

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/tblbase"
	"gopkg.in/yaml.v3"
)

// Selection is a recording and the rawspec options it is channelized with.
type Selection struct {
	Stem        string `yaml:"stem"`
	RawspecOpts string `yaml:"rawspec_opts"`
}

type Config struct {
	// TestingNode names the node the site policy applies to, or "any".
	TestingNode string `yaml:"testing_node"`
	TestingDir  string `yaml:"testing_dir"`
	// BaselineDir and TrialDir default to directories under TestingDir.
	BaselineDir string `yaml:"baseline_dir"`
	TrialDir    string `yaml:"trial_dir"`

	// ChannelSummaryTable is the channel summary table every trial must
	// contain.
	ChannelSummaryTable string `yaml:"channel_summary_table"`

	Kinds        map[string]bool                         `yaml:"kinds"`
	StemFilter   string                                  `yaml:"stem_filter"`
	RawArtifacts bool                                    `yaml:"raw_artifacts"`
	Tolerances   map[string]map[string]tblbase.Tolerance `yaml:"tolerances"`

	Selected []Selection `yaml:"selected"`
}

// Default is the site policy of the UC Berkeley data centre compute nodes.
func Default() Config {
	return Config{
		TestingNode:         "any",
		TestingDir:          "/mnt_blpd20/scratch/rawspec_testing/",
		ChannelSummaryTable: "rawspectest.tblnpols",
		Kinds: map[string]bool{
			// turboSETI is not run at this site.
			tblbase.DetectionTable.String(): false,
			tblbase.Header.String():         true,
			tblbase.DataSelection.String():  true,
			tblbase.ChannelSummary.String(): true,
		},
		StemFilter: ".*",
		Selected: []Selection{
			{Stem: "blc13_guppi_57991_49836_DIAG_FRB121102_0010", RawspecOpts: "-f 1048576  -t 51"},
			{Stem: "blc17_guppi_57991_49318_DIAG_PSR_J0332+5434_0008", RawspecOpts: "-f 1048576,8,1024 -t 51,128,3072"},
			{Stem: "ATA_guppi_59229_47368_006379_40blocks", RawspecOpts: "-f 8192 -t 2 -i '1.0'"},
			{Stem: "ATA_guppi_59229_47368_006379_40blocks", RawspecOpts: "-f 8192 -t 2 -S"},
			{Stem: "ATA_guppi_59811_38723_118314086_AzEl_0001-beam0001", RawspecOpts: "-f 1 -t 32"},
		},
	}
}

// Load reads the site policy at path over the defaults.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "error opening site config")
	}
	defer func() { _ = f.Close() }()
	cfg, err := Parse(f)
	if err != nil {
		return Config{}, errors.Wrapf(err, "error loading site config %s", path)
	}
	return cfg, nil
}

// Parse reads a site policy over the defaults. Kinds and tolerances are
// merged per entry; every other key replaces its default.
func Parse(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	var overrides Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&overrides); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "error decoding YAML")
	}
	// Re-decode over the defaults so that only keys present in the file
	// replace them.
	kinds, tolerances := cfg.Kinds, cfg.Tolerances
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "error decoding YAML")
	}
	for k, v := range overrides.Kinds {
		kinds[k] = v
	}
	cfg.Kinds = kinds
	for k, v := range overrides.Tolerances {
		if tolerances == nil {
			tolerances = make(map[string]map[string]tblbase.Tolerance)
		}
		tolerances[k] = v
	}
	cfg.Tolerances = tolerances
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks kind names, tolerances, the stem filter and the channel
// summary table name.
func (c Config) Validate() error {
	var errs []string
	for _, k := range sortedKeys(c.Kinds) {
		if _, err := tblbase.ParseArtifactKind(k); err != nil {
			errs = append(errs, err.Error())
		}
	}
	for _, k := range sortedKeys(c.Tolerances) {
		kind, err := tblbase.ParseArtifactKind(k)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		schema := tblbase.SchemaFor(kind)
		cols := c.Tolerances[k]
		for _, col := range sortedKeys(cols) {
			idx := -1
			for i, sc := range schema.Columns {
				if sc.Name == col {
					idx = i
				}
			}
			switch {
			case idx < 0:
				errs = append(errs, "tolerance for unknown column "+k+"."+col)
			case schema.Columns[idx].Type != tblbase.ColumnTypeFloat:
				errs = append(errs, "tolerance for non-float column "+k+"."+col)
			case cols[col].Abs < 0 || cols[col].Rel < 0:
				errs = append(errs, "negative tolerance for "+k+"."+col)
			}
		}
	}
	if c.StemFilter != "" {
		if _, err := regexp.CompilePOSIX(c.StemFilter); err != nil {
			errs = append(errs, "invalid stem_filter: "+err.Error())
		}
	}
	if c.ChannelSummaryTable != "" &&
		(filepath.Base(c.ChannelSummaryTable) != c.ChannelSummaryTable ||
			!strings.HasSuffix(c.ChannelSummaryTable, tblbase.ChannelSummary.Extension())) {
		errs = append(errs, "channel_summary_table must be a file name ending in "+tblbase.ChannelSummary.Extension())
	}
	if len(errs) > 0 {
		return errors.Newf("invalid site config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c Config) Baseline() string {
	if c.BaselineDir != "" {
		return c.BaselineDir
	}
	return filepath.Join(c.TestingDir, "baseline")
}

func (c Config) Trial() string {
	if c.TrialDir != "" {
		return c.TrialDir
	}
	return filepath.Join(c.TestingDir, "trial")
}

// KindSet returns which kinds are enabled.
func (c Config) KindSet() (map[tblbase.ArtifactKind]bool, error) {
	ret := make(map[tblbase.ArtifactKind]bool, len(c.Kinds))
	for k, enabled := range c.Kinds {
		kind, err := tblbase.ParseArtifactKind(k)
		if err != nil {
			return nil, err
		}
		ret[kind] = enabled
	}
	return ret, nil
}

// KindTolerances returns the tolerance overrides of each kind.
func (c Config) KindTolerances() (map[tblbase.ArtifactKind]map[string]tblbase.Tolerance, error) {
	ret := make(map[tblbase.ArtifactKind]map[string]tblbase.Tolerance, len(c.Tolerances))
	for k, tols := range c.Tolerances {
		kind, err := tblbase.ParseArtifactKind(k)
		if err != nil {
			return nil, err
		}
		ret[kind] = tols
	}
	return ret, nil
}

// ChannelSummaryStem is the stem of the channel summary table, or "" if
// none is configured.
func (c Config) ChannelSummaryStem() string {
	return strings.TrimSuffix(c.ChannelSummaryTable, tblbase.ChannelSummary.Extension())
}

func sortedKeys[V any](m map[string]V) []string {
	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
