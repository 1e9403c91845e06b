package rowverify

import (
	"math"
	"sort"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/tblbase"
)

// rowRef refers to a row of the baseline or trial table.
type rowRef struct {
	idx int
	key string
}

type rowPair struct {
	baseline int
	trial    int
	key      string
}

type alignment struct {
	pairs   []rowPair
	missing []rowRef
	extra   []rowRef
	// ambiguous counts keys shared by several rows of either table.
	ambiguous int
}

func alignPositional(baseline, trial *tblbase.Table) alignment {
	var a alignment
	n := len(baseline.Rows)
	if len(trial.Rows) < n {
		n = len(trial.Rows)
	}
	for i := 0; i < n; i++ {
		a.pairs = append(a.pairs, rowPair{baseline: i, trial: i})
	}
	for i := n; i < len(baseline.Rows); i++ {
		a.missing = append(a.missing, rowRef{idx: i})
	}
	for i := n; i < len(trial.Rows); i++ {
		a.extra = append(a.extra, rowRef{idx: i})
	}
	return a
}

// keyContext rounds key values half-even in decimal, so the rounding of a
// key does not depend on the binary representation of the float.
var keyContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(100)
	c.Rounding = apd.RoundHalfEven
	return c
}()

func roundedKeyValue(d tblbase.Datum, decimals int32) (string, error) {
	f, ok := d.(tblbase.DFloat)
	if !ok {
		return d.String(), nil
	}
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return f.String(), nil
	}
	var dec apd.Decimal
	if _, err := dec.SetFloat64(float64(f)); err != nil {
		return "", err
	}
	if _, err := keyContext.Quantize(&dec, &dec, -decimals); err != nil {
		return "", errors.Wrapf(err, "error rounding %s", f)
	}
	if dec.IsZero() {
		dec.Negative = false
	}
	return dec.Text('f'), nil
}

type keyColumn struct {
	tblbase.KeyColumn
	idx int
}

func resolveKeyColumns(t *tblbase.Table, keys []tblbase.KeyColumn) ([]keyColumn, error) {
	ret := make([]keyColumn, len(keys))
	for i, k := range keys {
		idx := t.ColumnIndex(k.Name)
		if idx < 0 {
			return nil, errors.Newf("key column %s not found", k.Name)
		}
		ret[i] = keyColumn{KeyColumn: k, idx: idx}
	}
	return ret, nil
}

func rowKey(r tblbase.Row, keys []keyColumn) (string, error) {
	parts := make([]string, len(keys))
	for i, k := range keys {
		v, err := roundedKeyValue(r[k.idx], k.Decimals)
		if err != nil {
			return "", err
		}
		parts[i] = k.Name + "=" + v
	}
	return strings.Join(parts, ","), nil
}

func groupByKey(t *tblbase.Table, keys []keyColumn) (map[string][]int, error) {
	ret := make(map[string][]int)
	for i, r := range t.Rows {
		k, err := rowKey(r, keys)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		ret[k] = append(ret[k], i)
	}
	return ret, nil
}

// alignByKey matches rows by their rounded key. Keys are visited in sorted
// order. If several rows on either side share a key, the rows of each side
// are sorted by their compared values and paired by position. Rows left over
// are then paired if their keys are within tolerance.
func alignByKey(baseline, trial *tblbase.Table, rules Rules) (alignment, error) {
	var a alignment
	keys, err := resolveKeyColumns(baseline, rules.KeyColumns)
	if err != nil {
		return a, err
	}
	baselineGroups, err := groupByKey(baseline, keys)
	if err != nil {
		return a, errors.Wrap(err, "baseline")
	}
	trialGroups, err := groupByKey(trial, keys)
	if err != nil {
		return a, errors.Wrap(err, "trial")
	}

	allKeys := make([]string, 0, len(baselineGroups)+len(trialGroups))
	for k := range baselineGroups {
		allKeys = append(allKeys, k)
	}
	for k := range trialGroups {
		if _, ok := baselineGroups[k]; !ok {
			allKeys = append(allKeys, k)
		}
	}
	sort.Strings(allKeys)

	for _, k := range allKeys {
		b, t := baselineGroups[k], trialGroups[k]
		if len(b) > 1 || len(t) > 1 {
			a.ambiguous++
			sortByComparedValues(baseline, b, rules)
			sortByComparedValues(trial, t, rules)
		}
		n := len(b)
		if len(t) < n {
			n = len(t)
		}
		for i := 0; i < n; i++ {
			a.pairs = append(a.pairs, rowPair{baseline: b[i], trial: t[i], key: k})
		}
		for _, idx := range b[n:] {
			a.missing = append(a.missing, rowRef{idx: idx, key: k})
		}
		for _, idx := range t[n:] {
			a.extra = append(a.extra, rowRef{idx: idx, key: k})
		}
	}
	pairWithinTolerance(&a, baseline, trial, keys, rules)
	return a, nil
}

// pairWithinTolerance pairs rows left unmatched by their rounded keys whose
// key values are within tolerance of each other, as happens when close values
// round to either side of a boundary. Each missing row takes the nearest
// unclaimed extra row.
func pairWithinTolerance(a *alignment, baseline, trial *tblbase.Table, keys []keyColumn, rules Rules) {
	if len(a.missing) == 0 || len(a.extra) == 0 {
		return
	}
	claimed := make([]bool, len(a.extra))
	var missing []rowRef
	for _, m := range a.missing {
		best, bestDist := -1, math.Inf(1)
		for i, e := range a.extra {
			if claimed[i] {
				continue
			}
			dist, ok := keyDistance(baseline.Rows[m.idx], trial.Rows[e.idx], keys, rules)
			if ok && dist < bestDist {
				best, bestDist = i, dist
			}
		}
		if best < 0 {
			missing = append(missing, m)
			continue
		}
		claimed[best] = true
		a.pairs = append(a.pairs, rowPair{baseline: m.idx, trial: a.extra[best].idx, key: m.key})
	}
	var extra []rowRef
	for i, e := range a.extra {
		if !claimed[i] {
			extra = append(extra, e)
		}
	}
	a.missing, a.extra = missing, extra
}

// keyDistance returns how far apart the key values of two rows are, as the
// sum of each float deviation relative to its column's permitted deviation.
// ok is false unless every key value is within tolerance.
func keyDistance(b, t tblbase.Row, keys []keyColumn, rules Rules) (dist float64, ok bool) {
	for _, k := range keys {
		bf, bFloat := b[k.idx].(tblbase.DFloat)
		tf, tFloat := t[k.idx].(tblbase.DFloat)
		if !bFloat || !tFloat {
			if b[k.idx].String() != t[k.idx].String() {
				return 0, false
			}
			continue
		}
		tol := rules.tolerance(k.Name)
		if !tol.Within(float64(bf), float64(tf)) {
			return 0, false
		}
		dev := math.Abs(float64(tf) - float64(bf))
		if math.IsNaN(dev) {
			continue
		}
		if allowed := math.Max(tol.Abs, tol.Rel*math.Abs(float64(bf))); allowed > 0 {
			dist += dev / allowed
		}
	}
	return dist, true
}

func sortByComparedValues(t *tblbase.Table, idxs []int, rules Rules) {
	text := make(map[int]string, len(idxs))
	for _, idx := range idxs {
		var parts []string
		for c, d := range t.Rows[idx] {
			if !rules.ignored(t.Columns[c].Name) {
				parts = append(parts, d.String())
			}
		}
		text[idx] = strings.Join(parts, ",")
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return text[idxs[i]] < text[idxs[j]]
	})
}
