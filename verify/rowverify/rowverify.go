// Package rowverify compares the rows of two canonical tables.
package rowverify

import (
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/rawspec-testing/tblverify/tblbase"
	"github.com/rawspec-testing/tblverify/verify/inconsistency"
	"github.com/rawspec-testing/tblverify/verify/tableverify"
)

// Compare compares the trial table against the baseline table. Tables whose
// layouts differ yield a single schema mismatch; otherwise rows are aligned
// (by position, or by key if the rules have key columns) and every field of
// every aligned row is compared. All discrepancies are collected.
func Compare(
	id inconsistency.ArtifactID, baseline, trial *tblbase.Table, rules Rules,
) inconsistency.Result {
	if infos := tableverify.VerifyColumns(baseline, trial); len(infos) > 0 {
		return inconsistency.Failure(id, inconsistency.RuleSchemaMismatch, strings.Join(infos, "; "))
	}

	var a alignment
	if len(rules.KeyColumns) == 0 {
		a = alignPositional(baseline, trial)
	} else {
		var err error
		if a, err = alignByKey(baseline, trial, rules); err != nil {
			return inconsistency.Failure(id, inconsistency.RuleSchemaMismatch, err.Error())
		}
	}

	evl := &resultListener{res: inconsistency.Result{ArtifactID: id, AmbiguousKeys: a.ambiguous}}
	deviations := make(map[int][]float64)
	for _, p := range a.pairs {
		var fields []inconsistency.Discrepancy
		bRow, tRow := baseline.Rows[p.baseline], trial.Rows[p.trial]
		for c, col := range baseline.Columns {
			if rules.ignored(col.Name) {
				continue
			}
			b, t := bRow[c], tRow[c]
			if dev, ok := absDeviation(b, t); ok {
				deviations[c] = append(deviations[c], dev)
			}
			rule, ok := compareField(col, rules.tolerance(col.Name), b, t)
			if ok {
				continue
			}
			fields = append(fields, inconsistency.Discrepancy{
				ArtifactID: id,
				Row:        p.baseline,
				Key:        p.key,
				Column:     col.Name,
				Baseline:   display(b),
				Trial:      display(t),
				Rule:       rule,
			})
		}
		if len(fields) > 0 {
			evl.OnMismatchingRow(fields)
		} else {
			evl.OnMatch()
		}
	}
	for _, m := range a.missing {
		evl.OnMissingRow(inconsistency.Discrepancy{
			ArtifactID: id,
			Row:        m.idx,
			Key:        m.key,
			Baseline:   baseline.Rows[m.idx].String(),
			Rule:       inconsistency.RuleMissingRow,
		})
	}
	for _, e := range a.extra {
		evl.OnExtraRow(inconsistency.Discrepancy{
			ArtifactID: id,
			Row:        e.idx,
			Key:        e.key,
			Trial:      trial.Rows[e.idx].String(),
			Rule:       inconsistency.RuleExtraRow,
		})
	}

	for c, col := range baseline.Columns {
		devs, ok := deviations[c]
		if !ok {
			continue
		}
		// Both only fail on empty input.
		maxDev, _ := stats.Max(devs)
		meanDev, _ := stats.Mean(devs)
		evl.res.Deviations = append(evl.res.Deviations, inconsistency.ColumnDeviation{
			Column: col.Name,
			Max:    maxDev,
			Mean:   meanDev,
		})
	}
	return evl.res
}

// compareField compares a baseline and trial datum of a column. Nulls only
// match nulls, floats must be within tolerance and everything else must be
// identical.
func compareField(
	col tblbase.Column, tol tblbase.Tolerance, b, t tblbase.Datum,
) (inconsistency.Rule, bool) {
	bNull, tNull := tblbase.IsNull(b), tblbase.IsNull(t)
	if bNull || tNull {
		return inconsistency.RuleExactMismatch, bNull && tNull
	}
	if col.Type == tblbase.ColumnTypeFloat {
		return inconsistency.RuleOutOfTolerance, tol.Within(float64(b.(tblbase.DFloat)), float64(t.(tblbase.DFloat)))
	}
	return inconsistency.RuleExactMismatch, b.String() == t.String()
}

func absDeviation(b, t tblbase.Datum) (float64, bool) {
	bf, ok := b.(tblbase.DFloat)
	if !ok {
		return 0, false
	}
	tf, ok := t.(tblbase.DFloat)
	if !ok {
		return 0, false
	}
	dev := math.Abs(float64(tf) - float64(bf))
	if math.IsNaN(dev) || math.IsInf(dev, 0) {
		return 0, false
	}
	return dev, true
}

func display(d tblbase.Datum) string {
	if tblbase.IsNull(d) {
		return inconsistency.NullDisplay
	}
	if s := d.String(); s != "" {
		return s
	}
	return `""`
}
