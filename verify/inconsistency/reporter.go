package inconsistency

import (
	"fmt"

	"github.com/rs/zerolog"
)

type Reporter interface {
	Report(obj ReportableObject)
	Close()
}

type CombinedReporter struct {
	Reporters []Reporter
}

func (c CombinedReporter) Report(obj ReportableObject) {
	for _, r := range c.Reporters {
		r.Report(obj)
	}
}

func (c CombinedReporter) Close() {
	for _, r := range c.Reporters {
		r.Close()
	}
}

// LogReporter reports to `zerolog`.
type LogReporter struct {
	zerolog.Logger
}

func (l LogReporter) Report(obj ReportableObject) {
	switch obj := obj.(type) {
	case StatusReport:
		l.Info().Msg(obj.Info)
	case DisabledKind:
		l.Info().
			Str("kind", obj.Kind.String()).
			Msgf("artifact kind disabled by site policy, skipping")
	case SkippedArtifact:
		l.Info().
			Str("artifact", obj.ArtifactID.String()).
			Str("baseline_path", obj.BaselinePath).
			Msgf("no trial counterpart, skipping")
	case ExtraneousArtifact:
		l.Info().
			Str("artifact", obj.ArtifactID.String()).
			Str("trial_path", obj.TrialPath).
			Msgf("trial artifact has no baseline counterpart")
	case Result:
		for _, d := range obj.Discrepancies {
			l.reportDiscrepancy(d)
		}
		if obj.AmbiguousKeys > 0 {
			l.Warn().
				Str("artifact", obj.ArtifactID.String()).
				Int("ambiguous_keys", obj.AmbiguousKeys).
				Msgf("rows sharing a matching key were paired in sorted order")
		}
		for _, dev := range obj.Deviations {
			l.Debug().
				Str("artifact", obj.ArtifactID.String()).
				Str("column", dev.Column).
				Float64("max_abs_deviation", dev.Max).
				Float64("mean_abs_deviation", dev.Mean).
				Msgf("column deviation")
		}
		evt := l.Info()
		if obj.ErrorCount() > 0 {
			evt = l.Warn()
		}
		evt.Str("artifact", obj.ArtifactID.String()).
			Int("errors", obj.ErrorCount()).
			Msgf("finished comparing %s", obj.String())
	default:
		l.Error().
			Str("type", fmt.Sprintf("%T", obj)).
			Msgf("unknown object type")
	}
}

func (l LogReporter) reportDiscrepancy(d Discrepancy) {
	evt := l.Warn().
		Str("artifact", d.ArtifactID.String()).
		Str("rule", string(d.Rule))
	if d.Row >= 0 {
		evt = evt.Int("row", d.Row)
	}
	if d.Key != "" {
		evt = evt.Str("key", d.Key)
	}
	switch d.Rule {
	case RuleExactMismatch, RuleOutOfTolerance:
		evt.Str("column", d.Column).
			Str("baseline_value", d.Baseline).
			Str("trial_value", d.Trial).
			Msgf("mismatching field value")
	case RuleMissingRow:
		evt.Str("baseline_values", d.Baseline).Msgf("missing row")
	case RuleExtraRow:
		evt.Str("trial_values", d.Trial).Msgf("extra row")
	case RuleSchemaMismatch:
		evt.Str("mismatch_info", d.Info).Msgf("mismatching table schema")
	case RuleParseError:
		evt.Str("error", d.Info).Msgf("unable to read artifact")
	case RuleMissingArtifact:
		evt.Msgf("required artifact missing from trial")
	default:
		evt.Msgf("discrepancy")
	}
}

func (l LogReporter) Close() {
}
