// Package tblfile reads and writes canonical table files.
//
// A canonical table file starts with a preamble line naming the artifact kind
// and schema version, followed by a CSV header of `name:type` cells and one
// CSV record per row:
//
//	# data-selection v1
//	window:int,if_index:int,...,coverage:enum(full|partial)
//	0,0,1420.5,1421.5,...,full
//
// Nullable columns carry a `?` type suffix and encode nulls as empty cells.
package tblfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/tblbase"
)

// Write writes t to w. The output only depends on the table's contents.
func Write(w io.Writer, t *tblbase.Table) error {
	if _, err := fmt.Fprintf(w, "# %s v%d\n", t.Kind, t.Version); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.String()
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, d := range r {
			rec[i] = d.String()
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes t to the file at path, replacing it if it exists.
func WriteFile(path string, t *tblbase.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := Write(bw, t); err != nil {
		return errors.CombineErrors(err, f.Close())
	}
	if err := bw.Flush(); err != nil {
		return errors.CombineErrors(err, f.Close())
	}
	return f.Close()
}

// Read reads a canonical table of the given kind. Structural problems are
// returned as a *tblbase.ParseError.
func Read(r io.Reader, kind tblbase.ArtifactKind, path string) (*tblbase.Table, error) {
	br := bufio.NewReader(r)
	preamble, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || preamble == "") {
		if err == io.EOF {
			return nil, tblbase.ParseErrorf(kind, path, 1, "empty table file")
		}
		return nil, err
	}
	declared, version, err := parsePreamble(strings.TrimRight(preamble, "\r\n"))
	if err != nil {
		return nil, tblbase.NewParseError(kind, path, 1, err)
	}
	if declared != kind {
		return nil, tblbase.ParseErrorf(kind, path, 1, "file declares kind %s", declared)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, tblbase.ParseErrorf(kind, path, 2, "missing column header")
		}
		return nil, tblbase.NewParseError(kind, path, 2, err)
	}
	cols := make([]tblbase.Column, len(header))
	for i, h := range header {
		if cols[i], err = parseColumn(h); err != nil {
			return nil, tblbase.NewParseError(kind, path, 2, err)
		}
	}

	var rows []tblbase.Row
	for {
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, tblbase.NewParseError(kind, path, pe.Line+1, pe.Err)
			}
			return nil, err
		}
		recLine, _ := cr.FieldPos(0)
		line := recLine + 1
		if len(rec) != len(cols) {
			return nil, tblbase.ParseErrorf(kind, path, line, "expected %d fields, found %d", len(cols), len(rec))
		}
		row := make(tblbase.Row, len(rec))
		for i, s := range rec {
			if row[i], err = tblbase.ParseDatum(cols[i], s); err != nil {
				return nil, tblbase.NewParseError(kind, path, line, errors.Wrapf(err, "column %s", cols[i].Name))
			}
		}
		rows = append(rows, row)
	}
	t, err := tblbase.NewTable(kind, version, cols, rows)
	if err != nil {
		return nil, tblbase.NewParseError(kind, path, 0, err)
	}
	return t, nil
}

// ReadFile reads the canonical table file at path.
func ReadFile(path string, kind tblbase.ArtifactKind) (*tblbase.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f, kind, path)
}

func parsePreamble(s string) (tblbase.ArtifactKind, int, error) {
	fields := strings.Fields(strings.TrimPrefix(s, "#"))
	if !strings.HasPrefix(s, "#") || len(fields) != 2 || !strings.HasPrefix(fields[1], "v") {
		return 0, 0, errors.Newf("malformed preamble %q", s)
	}
	kind, err := tblbase.ParseArtifactKind(fields[0])
	if err != nil {
		return 0, 0, err
	}
	version, err := strconv.Atoi(fields[1][1:])
	if err != nil || version < 1 {
		return 0, 0, errors.Newf("malformed schema version %q", fields[1])
	}
	return kind, version, nil
}

func parseColumn(s string) (tblbase.Column, error) {
	// Enum value lists cannot contain ':', so the last one separates the type.
	idx := strings.LastIndexByte(s, ':')
	if idx <= 0 {
		return tblbase.Column{}, errors.Newf("malformed column %q", s)
	}
	col := tblbase.Column{Name: s[:idx]}
	typ := s[idx+1:]
	if strings.HasSuffix(typ, "?") {
		col.Nullable = true
		typ = strings.TrimSuffix(typ, "?")
	}
	switch {
	case typ == "float":
		col.Type = tblbase.ColumnTypeFloat
	case typ == "int":
		col.Type = tblbase.ColumnTypeInt
	case typ == "string":
		col.Type = tblbase.ColumnTypeString
	case strings.HasPrefix(typ, "enum(") && strings.HasSuffix(typ, ")"):
		col.Type = tblbase.ColumnTypeEnum
		vals := strings.TrimSuffix(strings.TrimPrefix(typ, "enum("), ")")
		if vals == "" {
			return tblbase.Column{}, errors.Newf("enum column %s has no values", col.Name)
		}
		col.Values = strings.Split(vals, "|")
	default:
		return tblbase.Column{}, errors.Newf("column %s: unknown type %q", col.Name, typ)
	}
	return col, nil
}
