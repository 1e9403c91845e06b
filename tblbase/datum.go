package tblbase

import (
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
)

// Datum is a single typed value of a canonical table.
type Datum interface {
	// String returns the canonical text form of the datum.
	String() string
	Type() ColumnType
}

type DFloat float64
type DInt int64
type DString string
type DEnum string

// DNull is the value of an absent field in a nullable column.
type DNull struct{}

func (d DFloat) String() string {
	f := float64(d)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func (d DInt) String() string    { return strconv.FormatInt(int64(d), 10) }
func (d DString) String() string { return string(d) }
func (d DEnum) String() string   { return string(d) }
func (DNull) String() string     { return "" }

func (DFloat) Type() ColumnType  { return ColumnTypeFloat }
func (DInt) Type() ColumnType    { return ColumnTypeInt }
func (DString) Type() ColumnType { return ColumnTypeString }
func (DEnum) Type() ColumnType   { return ColumnTypeEnum }
func (DNull) Type() ColumnType   { return ColumnTypeNull }

// IsNull returns whether d is a DNull.
func IsNull(d Datum) bool {
	_, ok := d.(DNull)
	return ok
}

// ParseDatum parses the canonical text form of a datum of the given column.
// An empty string is a null in a nullable column.
func ParseDatum(col Column, s string) (Datum, error) {
	if s == "" && col.Nullable {
		return DNull{}, nil
	}
	switch col.Type {
	case ColumnTypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		return DFloat(f), nil
	case ColumnTypeInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return DInt(i), nil
	case ColumnTypeString:
		return DString(s), nil
	case ColumnTypeEnum:
		return DEnum(s), nil
	}
	return nil, errors.Newf("unknown column type %s", col.Type)
}
