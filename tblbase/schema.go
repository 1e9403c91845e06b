package tblbase

// KeyColumn is a column used to match rows of tables whose row order is not
// stable. Float key values are rounded to Decimals decimal places.
type KeyColumn struct {
	Name     string
	Decimals int32
}

// Schema is the fixed, versioned layout of the canonical table of a kind,
// together with the rules its rows are compared by.
type Schema struct {
	Kind    ArtifactKind
	Version int
	Columns []Column
	// KeyColumns are used to match rows. A schema without key columns is
	// compared positionally.
	KeyColumns []KeyColumn
	// Ignore lists columns which are not compared field by field.
	Ignore []string
	// Tolerances are the default per-column float tolerances.
	Tolerances map[string]Tolerance
}

// Positional returns whether rows are compared by position.
func (s Schema) Positional() bool {
	return len(s.KeyColumns) == 0
}

// NewTable builds a table of the schema's layout.
func (s Schema) NewTable(rows []Row) (*Table, error) {
	return NewTable(s.Kind, s.Version, s.Columns, rows)
}

var (
	freqTolerance = Tolerance{Abs: 1e-6}
	timeTolerance = Tolerance{Abs: 1e-9}
)

var schemas = map[ArtifactKind]Schema{
	DetectionTable: {
		Kind:    DetectionTable,
		Version: 1,
		Columns: []Column{
			{Name: "top_hit", Type: ColumnTypeInt},
			{Name: "drift_rate", Type: ColumnTypeFloat},
			{Name: "snr", Type: ColumnTypeFloat},
			{Name: "freq_uncorr", Type: ColumnTypeFloat},
			{Name: "freq_corr", Type: ColumnTypeFloat},
			{Name: "chan_index", Type: ColumnTypeInt},
			{Name: "freq_start", Type: ColumnTypeFloat},
			{Name: "freq_end", Type: ColumnTypeFloat},
			{Name: "sefd", Type: ColumnTypeFloat},
			{Name: "sefd_freq", Type: ColumnTypeFloat},
			{Name: "coarse_chan", Type: ColumnTypeInt},
			{Name: "full_num_hits", Type: ColumnTypeInt},
		},
		KeyColumns: []KeyColumn{
			{Name: "freq_corr", Decimals: 6},
			{Name: "drift_rate", Decimals: 4},
		},
		// Hit numbers follow output order, which is not stable.
		Ignore: []string{"top_hit"},
		Tolerances: map[string]Tolerance{
			"drift_rate":  {Abs: 1e-6, Rel: 1e-6},
			"snr":         {Abs: 1e-4, Rel: 1e-3},
			"freq_uncorr": freqTolerance,
			"freq_corr":   freqTolerance,
			"freq_start":  freqTolerance,
			"freq_end":    freqTolerance,
			"sefd_freq":   freqTolerance,
		},
	},
	Header: {
		Kind:    Header,
		Version: 1,
		Columns: []Column{
			{Name: "source_name", Type: ColumnTypeString, Nullable: true},
			{Name: "rawdatafile", Type: ColumnTypeString, Nullable: true},
			{Name: "telescope_id", Type: ColumnTypeInt, Nullable: true},
			{Name: "machine_id", Type: ColumnTypeInt, Nullable: true},
			{Name: "data_type", Type: ColumnTypeInt, Nullable: true},
			{Name: "barycentric", Type: ColumnTypeInt, Nullable: true},
			{Name: "pulsarcentric", Type: ColumnTypeInt, Nullable: true},
			{Name: "src_raj", Type: ColumnTypeFloat, Nullable: true},
			{Name: "src_dej", Type: ColumnTypeFloat, Nullable: true},
			{Name: "az_start", Type: ColumnTypeFloat, Nullable: true},
			{Name: "za_start", Type: ColumnTypeFloat, Nullable: true},
			{Name: "fch1", Type: ColumnTypeFloat, Nullable: true},
			{Name: "foff", Type: ColumnTypeFloat, Nullable: true},
			{Name: "nchans", Type: ColumnTypeInt, Nullable: true},
			{Name: "nbeams", Type: ColumnTypeInt, Nullable: true},
			{Name: "ibeam", Type: ColumnTypeInt, Nullable: true},
			{Name: "nbits", Type: ColumnTypeInt, Nullable: true},
			{Name: "tstart", Type: ColumnTypeFloat, Nullable: true},
			{Name: "tsamp", Type: ColumnTypeFloat, Nullable: true},
			{Name: "nifs", Type: ColumnTypeInt, Nullable: true},
			{Name: "refdm", Type: ColumnTypeFloat, Nullable: true},
			{Name: "period", Type: ColumnTypeFloat, Nullable: true},
		},
		Tolerances: map[string]Tolerance{
			"fch1":   freqTolerance,
			"foff":   {Rel: 1e-9},
			"tstart": timeTolerance,
			"tsamp":  {Rel: 1e-9},
		},
	},
	DataSelection: {
		Kind:    DataSelection,
		Version: 1,
		Columns: []Column{
			{Name: "window", Type: ColumnTypeInt},
			{Name: "if_index", Type: ColumnTypeInt},
			{Name: "f_start", Type: ColumnTypeFloat},
			{Name: "f_stop", Type: ColumnTypeFloat},
			{Name: "t_start", Type: ColumnTypeFloat},
			{Name: "t_stop", Type: ColumnTypeFloat},
			{Name: "n_ints", Type: ColumnTypeInt},
			{Name: "n_chans", Type: ColumnTypeInt},
			{Name: "nbits", Type: ColumnTypeInt},
			{Name: "coverage", Type: ColumnTypeEnum, Values: []string{CoverageFull, CoveragePartial}},
		},
		Tolerances: map[string]Tolerance{
			"f_start": freqTolerance,
			"f_stop":  freqTolerance,
			"t_start": timeTolerance,
			"t_stop":  timeTolerance,
		},
	},
	ChannelSummary: {
		Kind:    ChannelSummary,
		Version: 1,
		Columns: []Column{
			{Name: "invocation", Type: ColumnTypeInt},
			{Name: "nbits", Type: ColumnTypeInt},
			{Name: "npols", Type: ColumnTypeInt},
			{Name: "nchan", Type: ColumnTypeInt},
			{Name: "nfft", Type: ColumnTypeInt},
			{Name: "nint", Type: ColumnTypeInt},
			{Name: "mode", Type: ColumnTypeEnum, Values: []string{ModeStokesI, ModeFullPol, ModeFullStokes}},
		},
	},
}

// Coverage values of a data selection window.
const (
	CoverageFull    = "full"
	CoveragePartial = "partial"
)

// Polarization product modes of a channelizer invocation.
const (
	ModeStokesI    = "stokes-i"
	ModeFullPol    = "full-pol"
	ModeFullStokes = "full-stokes"
)

// SchemaFor returns the current schema of the kind.
func SchemaFor(kind ArtifactKind) Schema {
	return schemas[kind]
}
