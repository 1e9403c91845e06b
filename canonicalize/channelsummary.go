package canonicalize

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/tblbase"
)

// summaryPrefix starts the lines of rawspectest output which describe the
// parameters applied by one channelizer invocation, e.g.
//
//	SUMMARY nbits=8 npols=2 nchan=64 nfft=1048576 nint=51 mode=stokes-i
//
// All other output lines are progress chatter.
const summaryPrefix = "SUMMARY"

type channelSummaryCanonicalizer struct{}

func (channelSummaryCanonicalizer) Kind() tblbase.ArtifactKind {
	return tblbase.ChannelSummary
}

func (c channelSummaryCanonicalizer) Canonicalize(r io.Reader, name string) (*tblbase.Table, error) {
	schema := tblbase.SchemaFor(tblbase.ChannelSummary)
	// The first column is the invocation number, assigned here.
	fieldCols := schema.Columns[1:]

	sc := bufio.NewScanner(r)
	var rows []tblbase.Row
	lineNum := 0
	for sc.Scan() {
		lineNum++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != summaryPrefix {
			continue
		}
		row, err := parseSummary(fieldCols, fields[1:])
		if err != nil {
			return nil, tblbase.NewParseError(c.Kind(), name, lineNum, err)
		}
		rows = append(rows, append(tblbase.Row{tblbase.DInt(len(rows) + 1)}, row...))
	}
	if err := sc.Err(); err != nil {
		return nil, tblbase.NewParseError(c.Kind(), name, lineNum+1, err)
	}
	if len(rows) == 0 {
		return nil, tblbase.ParseErrorf(c.Kind(), name, 0, "no %s lines found", summaryPrefix)
	}
	tbl, err := schema.NewTable(rows)
	if err != nil {
		return nil, tblbase.NewParseError(c.Kind(), name, 0, err)
	}
	return tbl, nil
}

func parseSummary(cols []tblbase.Column, tokens []string) (tblbase.Row, error) {
	vals := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		k, v, ok := strings.Cut(tok, "=")
		if !ok || k == "" {
			return nil, errors.Newf("malformed token %q", tok)
		}
		if _, dup := vals[k]; dup {
			return nil, errors.Newf("duplicate key %s", k)
		}
		vals[k] = v
	}
	row := make(tblbase.Row, len(cols))
	for i, col := range cols {
		v, ok := vals[col.Name]
		if !ok {
			return nil, errors.Newf("missing key %s", col.Name)
		}
		delete(vals, col.Name)
		d, err := parseTypedField(col, v)
		if err != nil {
			return nil, err
		}
		if col.Type == tblbase.ColumnTypeEnum && !contains(col.Values, v) {
			return nil, errors.Newf("%s=%s is not one of %s", col.Name, v, strings.Join(col.Values, ", "))
		}
		row[i] = d
	}
	if len(vals) > 0 {
		unknown := make([]string, 0, len(vals))
		for k := range vals {
			unknown = append(unknown, k)
		}
		sort.Strings(unknown)
		return nil, errors.Newf("unknown keys %s", strings.Join(unknown, ", "))
	}
	return row, nil
}

func contains(vals []string, v string) bool {
	for _, o := range vals {
		if o == v {
			return true
		}
	}
	return false
}
