package inconsistency

import (
	"fmt"
	"strings"

	"github.com/rawspec-testing/tblverify/tblbase"
)

// Rule is the comparison rule which flagged a discrepancy.
type Rule string

const (
	RuleExactMismatch  Rule = "exact-mismatch"
	RuleOutOfTolerance Rule = "out-of-tolerance"
	RuleMissingRow     Rule = "missing-row"
	RuleExtraRow       Rule = "extra-row"
	RuleSchemaMismatch Rule = "schema-mismatch"
	RuleParseError     Rule = "parse-error"

	// RuleMissingArtifact flags a required artifact absent from the trial.
	RuleMissingArtifact Rule = "missing-artifact"
)

// ArtifactID identifies a compared artifact.
type ArtifactID struct {
	Kind tblbase.ArtifactKind
	Stem string
}

func (a ArtifactID) String() string {
	return a.Stem + a.Kind.Extension()
}

// NullDisplay is how null datums are displayed in discrepancies.
const NullDisplay = "NULL"

// Discrepancy is a single difference between the trial and the baseline.
type Discrepancy struct {
	ArtifactID

	// Row is the baseline row index, or the trial row index of an extra row.
	// It is -1 for discrepancies covering the whole artifact.
	Row int
	// Key is the matching key of the row for tables matched by key.
	Key    string
	Column string

	Baseline string
	Trial    string

	Rule Rule
	Info string
}

// IsField returns whether the discrepancy is a single field mismatch.
func (d Discrepancy) IsField() bool {
	return d.Rule == RuleExactMismatch || d.Rule == RuleOutOfTolerance
}

func (d Discrepancy) String() string {
	var sb strings.Builder
	sb.WriteString(string(d.Rule))
	if d.Row >= 0 {
		fmt.Fprintf(&sb, " row=%d", d.Row)
	}
	if d.Key != "" {
		fmt.Fprintf(&sb, " key=%s", d.Key)
	}
	if d.Column != "" {
		fmt.Fprintf(&sb, " column=%s", d.Column)
	}
	if d.Baseline != "" {
		fmt.Fprintf(&sb, " baseline=%s", d.Baseline)
	}
	if d.Trial != "" {
		fmt.Fprintf(&sb, " trial=%s", d.Trial)
	}
	if d.Info != "" {
		fmt.Fprintf(&sb, ": %s", d.Info)
	}
	return sb.String()
}

// ColumnDeviation summarizes the absolute deviation of a float column over
// all aligned rows.
type ColumnDeviation struct {
	Column string
	Max    float64
	Mean   float64
}

// Result is the outcome of comparing one trial artifact against its
// baseline.
type Result struct {
	ArtifactID

	MismatchedRows   int
	MismatchedFields int
	MissingRows      int
	ExtraRows        int
	// AmbiguousKeys is the number of matching keys shared by more than one
	// row on either side.
	AmbiguousKeys int

	Discrepancies []Discrepancy
	Deviations    []ColumnDeviation
}

// ErrorCount is the number of errors the result contributes to a run.
func (r Result) ErrorCount() int {
	n := r.MismatchedFields + r.MissingRows + r.ExtraRows
	for _, d := range r.Discrepancies {
		switch d.Rule {
		case RuleSchemaMismatch, RuleParseError, RuleMissingArtifact:
			n++
		}
	}
	return n
}

func (r Result) String() string {
	return fmt.Sprintf(
		"%s: errors: %d, mismatched rows: %d, mismatched fields: %d, missing rows: %d, extra rows: %d",
		r.ArtifactID,
		r.ErrorCount(),
		r.MismatchedRows,
		r.MismatchedFields,
		r.MissingRows,
		r.ExtraRows,
	)
}

// Failure builds the result of an artifact which could not be compared at
// all, such as one which failed to parse.
func Failure(id ArtifactID, rule Rule, info string) Result {
	return Result{
		ArtifactID: id,
		Discrepancies: []Discrepancy{
			{ArtifactID: id, Row: -1, Rule: rule, Info: info},
		},
	}
}
