// Package tableverify checks that two canonical tables share a column
// layout.
package tableverify

import (
	"fmt"

	"github.com/rawspec-testing/tblverify/tblbase"
)

// VerifyColumns compares the layout of the trial table against the baseline
// table: artifact kind, schema version, and the name, type, nullability and
// order of every column. It returns a description of each mismatch found,
// or nothing if the layouts are identical.
func VerifyColumns(baseline, trial *tblbase.Table) []string {
	var ret []string
	if baseline.Kind != trial.Kind {
		ret = append(ret, fmt.Sprintf("kind mismatch: baseline=%s trial=%s", baseline.Kind, trial.Kind))
	}
	if baseline.Version != trial.Version {
		ret = append(ret, fmt.Sprintf("schema version mismatch: baseline=v%d trial=v%d", baseline.Version, trial.Version))
	}

	baselineCols := make(map[string]tblbase.Column, len(baseline.Columns))
	for _, c := range baseline.Columns {
		baselineCols[c.Name] = c
	}
	trialCols := make(map[string]struct{}, len(trial.Columns))
	for _, tc := range trial.Columns {
		trialCols[tc.Name] = struct{}{}
		bc, ok := baselineCols[tc.Name]
		if !ok {
			ret = append(ret, fmt.Sprintf("extraneous column %s", tc.Name))
			continue
		}
		if !bc.Equal(tc) {
			ret = append(ret, fmt.Sprintf(
				"column %s definition mismatch: baseline=%s trial=%s",
				tc.Name,
				bc.TypeString(),
				tc.TypeString(),
			))
		}
	}
	for _, bc := range baseline.Columns {
		if _, ok := trialCols[bc.Name]; !ok {
			ret = append(ret, fmt.Sprintf("missing column %s", bc.Name))
		}
	}
	if len(ret) > 0 {
		return ret
	}

	// Same column set; check the order.
	for i := range baseline.Columns {
		if baseline.Columns[i].Name != trial.Columns[i].Name {
			ret = append(ret, fmt.Sprintf(
				"column order mismatch at position %d: baseline=%s trial=%s",
				i,
				baseline.Columns[i].Name,
				trial.Columns[i].Name,
			))
			break
		}
	}
	return ret
}
