package canonicalize

import (
	"bufio"
	"io"
	"strings"

	"github.com/rawspec-testing/tblverify/tblbase"
)

// topHitHeader starts the column header comment of a turboSETI .dat file.
const topHitHeader = "Top_Hit_#"

// detectionCanonicalizer reads turboSETI .dat files: comment lines start with
// '#' and one of them is the column header; every other non-blank line is a
// hit of twelve whitespace separated fields. turboSETI terminates every line
// with a separator, so trailing whitespace is dropped.
type detectionCanonicalizer struct{}

func (detectionCanonicalizer) Kind() tblbase.ArtifactKind {
	return tblbase.DetectionTable
}

func (c detectionCanonicalizer) Canonicalize(r io.Reader, name string) (*tblbase.Table, error) {
	schema := tblbase.SchemaFor(tblbase.DetectionTable)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var rows []tblbase.Row
	sawHeader := false
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(line, "#")), topHitHeader) {
				sawHeader = true
			}
			continue
		}
		if !sawHeader {
			return nil, tblbase.ParseErrorf(c.Kind(), name, lineNum, "hit found before %s header", topHitHeader)
		}
		fields := strings.Fields(line)
		if len(fields) != len(schema.Columns) {
			return nil, tblbase.ParseErrorf(c.Kind(), name, lineNum, "expected %d fields, found %d", len(schema.Columns), len(fields))
		}
		row := make(tblbase.Row, len(fields))
		for i, f := range fields {
			d, err := parseTypedField(schema.Columns[i], f)
			if err != nil {
				return nil, tblbase.NewParseError(c.Kind(), name, lineNum, err)
			}
			row[i] = d
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, tblbase.NewParseError(c.Kind(), name, lineNum+1, err)
	}
	if !sawHeader {
		return nil, tblbase.ParseErrorf(c.Kind(), name, 0, "missing %s header", topHitHeader)
	}
	tbl, err := schema.NewTable(rows)
	if err != nil {
		return nil, tblbase.NewParseError(c.Kind(), name, 0, err)
	}
	return tbl, nil
}
