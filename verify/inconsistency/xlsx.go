package inconsistency

import (
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	discrepancySheet = "discrepancies"
	summarySheet     = "summary"
)

var (
	discrepancyHeader = []interface{}{"artifact", "kind", "rule", "row", "key", "column", "baseline", "trial", "info"}
	summaryHeader     = []interface{}{"artifact", "kind", "status", "errors", "mismatched_rows", "mismatched_fields", "missing_rows", "extra_rows"}
)

// XLSXReporter collects discrepancies and per-artifact summaries into a
// workbook which is written to Path on Close.
type XLSXReporter struct {
	Path   string
	Logger zerolog.Logger

	f              *excelize.File
	discrepancyRow int
	summaryRow     int
	err            error
}

func NewXLSXReporter(path string, logger zerolog.Logger) *XLSXReporter {
	r := &XLSXReporter{Path: path, Logger: logger, f: excelize.NewFile()}
	if err := r.f.SetSheetName("Sheet1", discrepancySheet); err != nil {
		r.err = err
		return r
	}
	if _, err := r.f.NewSheet(summarySheet); err != nil {
		r.err = err
		return r
	}
	r.appendRow(discrepancySheet, &r.discrepancyRow, discrepancyHeader)
	r.appendRow(summarySheet, &r.summaryRow, summaryHeader)
	return r
}

func (r *XLSXReporter) appendRow(sheet string, row *int, vals []interface{}) {
	if r.err != nil {
		return
	}
	*row++
	cell, err := excelize.CoordinatesToCellName(1, *row)
	if err != nil {
		r.err = err
		return
	}
	r.err = r.f.SetSheetRow(sheet, cell, &vals)
}

func (r *XLSXReporter) Report(obj ReportableObject) {
	switch obj := obj.(type) {
	case SkippedArtifact:
		r.appendRow(summarySheet, &r.summaryRow, []interface{}{
			obj.ArtifactID.String(), obj.Kind.String(), "skipped", 0, 0, 0, 0, 0,
		})
	case Result:
		for _, d := range obj.Discrepancies {
			var row interface{}
			if d.Row >= 0 {
				row = d.Row
			}
			r.appendRow(discrepancySheet, &r.discrepancyRow, []interface{}{
				d.ArtifactID.String(), d.Kind.String(), string(d.Rule), row, d.Key, d.Column, d.Baseline, d.Trial, d.Info,
			})
		}
		status := "success"
		if obj.ErrorCount() > 0 {
			status = "failure"
		}
		r.appendRow(summarySheet, &r.summaryRow, []interface{}{
			obj.ArtifactID.String(),
			obj.Kind.String(),
			status,
			obj.ErrorCount(),
			obj.MismatchedRows,
			obj.MismatchedFields,
			obj.MissingRows,
			obj.ExtraRows,
		})
	}
}

func (r *XLSXReporter) Close() {
	if r.err == nil {
		r.err = r.f.SaveAs(r.Path)
	}
	if r.err != nil {
		r.Logger.Err(r.err).Str("path", r.Path).Msgf("error writing xlsx report")
	} else {
		r.Logger.Info().Str("path", r.Path).Msgf("wrote xlsx report")
	}
	if err := r.f.Close(); err != nil {
		r.Logger.Err(err).Msgf("error closing xlsx report")
	}
}
