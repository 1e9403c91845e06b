package tblbase

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

type ColumnType int

const (
	ColumnTypeFloat ColumnType = iota
	ColumnTypeInt
	ColumnTypeString
	ColumnTypeEnum
	// ColumnTypeNull is only ever the type of a DNull.
	ColumnTypeNull
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeFloat:
		return "float"
	case ColumnTypeInt:
		return "int"
	case ColumnTypeString:
		return "string"
	case ColumnTypeEnum:
		return "enum"
	case ColumnTypeNull:
		return "null"
	}
	return "unknown"
}

// Column is a named, typed column of a canonical table.
type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
	// Values is the set of permitted values of an enum column.
	Values []string
}

// TypeString is the type annotation written in canonical table headers,
// e.g. `float?` or `enum(full|partial)`.
func (c Column) TypeString() string {
	s := c.Type.String()
	if c.Type == ColumnTypeEnum {
		s += "(" + strings.Join(c.Values, "|") + ")"
	}
	if c.Nullable {
		s += "?"
	}
	return s
}

func (c Column) String() string {
	return c.Name + ":" + c.TypeString()
}

// Equal returns whether the two column definitions are identical.
func (c Column) Equal(o Column) bool {
	if c.Name != o.Name || c.Type != o.Type || c.Nullable != o.Nullable {
		return false
	}
	if len(c.Values) != len(o.Values) {
		return false
	}
	for i := range c.Values {
		if c.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

func (c Column) allows(v string) bool {
	for _, a := range c.Values {
		if a == v {
			return true
		}
	}
	return false
}

// Row is a single row of datums, aligned to the columns of its table.
type Row []Datum

func (r Row) String() string {
	parts := make([]string, len(r))
	for i, d := range r {
		parts[i] = d.String()
	}
	return strings.Join(parts, ",")
}

// Table is the canonical tabular form of one artifact. Tables are not
// mutated once built.
type Table struct {
	Kind    ArtifactKind
	Version int
	Columns []Column
	Rows    []Row
}

// NewTable builds a table, checking that column names are unique and that
// every row matches the column definitions.
func NewTable(kind ArtifactKind, version int, cols []Column, rows []Row) (*Table, error) {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if c.Name == "" {
			return nil, errors.Newf("empty column name")
		}
		if _, ok := seen[c.Name]; ok {
			return nil, errors.Newf("duplicate column %s", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	for i, r := range rows {
		if err := checkRow(cols, r); err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
	}
	return &Table{Kind: kind, Version: version, Columns: cols, Rows: rows}, nil
}

func checkRow(cols []Column, r Row) error {
	if len(r) != len(cols) {
		return errors.Newf("expected %d values, found %d", len(cols), len(r))
	}
	for i, d := range r {
		col := cols[i]
		if d == nil {
			return errors.Newf("column %s: missing datum", col.Name)
		}
		if IsNull(d) {
			if !col.Nullable {
				return errors.Newf("column %s: null in non-nullable column", col.Name)
			}
			continue
		}
		if d.Type() != col.Type {
			return errors.Newf("column %s: expected %s, found %s", col.Name, col.Type, d.Type())
		}
		if col.Type == ColumnTypeEnum && !col.allows(d.String()) {
			return errors.Newf("column %s: %q is not one of %s", col.Name, d.String(), strings.Join(col.Values, ", "))
		}
	}
	return nil
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (t *Table) String() string {
	return fmt.Sprintf("%s v%d (%d columns, %d rows)", t.Kind, t.Version, len(t.Columns), len(t.Rows))
}
