package rowverify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rawspec-testing/tblverify/verify/inconsistency"
)

type RowEventListener interface {
	OnExtraRow(d inconsistency.Discrepancy)
	OnMissingRow(d inconsistency.Discrepancy)
	OnMismatchingRow(fields []inconsistency.Discrepancy)
	OnMatch()
}

var rowStatusMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "tblverify",
	Subsystem: "verify",
	Name:      "row_verification_status",
	Help:      "Status of rows that have been compared.",
}, []string{"status"})

func init() {
	// Initialise each metric by default.
	for _, s := range []string{"extra", "missing", "mismatching", "success"} {
		rowStatusMetric.WithLabelValues(s)
	}
}

// resultListener accumulates row events into a Result.
type resultListener struct {
	res inconsistency.Result
}

func (n *resultListener) OnExtraRow(d inconsistency.Discrepancy) {
	n.res.ExtraRows++
	n.res.Discrepancies = append(n.res.Discrepancies, d)
	rowStatusMetric.WithLabelValues("extra").Inc()
}

func (n *resultListener) OnMissingRow(d inconsistency.Discrepancy) {
	n.res.MissingRows++
	n.res.Discrepancies = append(n.res.Discrepancies, d)
	rowStatusMetric.WithLabelValues("missing").Inc()
}

func (n *resultListener) OnMismatchingRow(fields []inconsistency.Discrepancy) {
	n.res.MismatchedRows++
	n.res.MismatchedFields += len(fields)
	n.res.Discrepancies = append(n.res.Discrepancies, fields...)
	rowStatusMetric.WithLabelValues("mismatching").Inc()
}

func (n *resultListener) OnMatch() {
	rowStatusMetric.WithLabelValues("success").Inc()
}
