package tblbase

import (
	"fmt"
	"math"
)

// Tolerance is the permitted deviation of a trial float from its baseline.
// A value is within tolerance if |trial - baseline| <= max(Abs, Rel*|baseline|).
type Tolerance struct {
	Abs float64 `yaml:"abs"`
	Rel float64 `yaml:"rel"`
}

// DefaultTolerance applies to float columns without a specific tolerance.
var DefaultTolerance = Tolerance{Abs: 1e-9, Rel: 1e-9}

// Within returns whether trial is within tolerance of baseline. NaN only
// matches NaN and an infinity only matches the same infinity.
func (t Tolerance) Within(baseline, trial float64) bool {
	bNaN, tNaN := math.IsNaN(baseline), math.IsNaN(trial)
	if bNaN || tNaN {
		return bNaN && tNaN
	}
	if math.IsInf(baseline, 0) || math.IsInf(trial, 0) {
		return baseline == trial
	}
	return math.Abs(trial-baseline) <= math.Max(t.Abs, t.Rel*math.Abs(baseline))
}

func (t Tolerance) String() string {
	return fmt.Sprintf("abs=%g,rel=%g", t.Abs, t.Rel)
}
