package tblbase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	cols := []Column{
		{Name: "a", Type: ColumnTypeInt},
		{Name: "b", Type: ColumnTypeFloat, Nullable: true},
		{Name: "c", Type: ColumnTypeEnum, Values: []string{"x", "y"}},
	}
	for _, tc := range []struct {
		desc        string
		cols        []Column
		rows        []Row
		expectedErr string
	}{
		{
			desc: "valid",
			cols: cols,
			rows: []Row{
				{DInt(1), DFloat(2.5), DEnum("x")},
				{DInt(2), DNull{}, DEnum("y")},
			},
		},
		{
			desc:        "duplicate column",
			cols:        []Column{{Name: "a", Type: ColumnTypeInt}, {Name: "a", Type: ColumnTypeFloat}},
			expectedErr: "duplicate column a",
		},
		{
			desc:        "short row",
			cols:        cols,
			rows:        []Row{{DInt(1), DFloat(2)}},
			expectedErr: "row 0: expected 3 values, found 2",
		},
		{
			desc:        "wrong type",
			cols:        cols,
			rows:        []Row{{DFloat(1), DFloat(2), DEnum("x")}},
			expectedErr: "row 0: column a: expected int, found float",
		},
		{
			desc:        "null in non-nullable column",
			cols:        cols,
			rows:        []Row{{DNull{}, DFloat(2), DEnum("x")}},
			expectedErr: "row 0: column a: null in non-nullable column",
		},
		{
			desc:        "bad enum value",
			cols:        cols,
			rows:        []Row{{DInt(1), DFloat(2), DEnum("z")}},
			expectedErr: `row 0: column c: "z" is not one of x, y`,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			tbl, err := NewTable(Header, 1, tc.cols, tc.rows)
			if tc.expectedErr != "" {
				require.EqualError(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, tbl.Rows, len(tc.rows))
		})
	}
}

func TestDatumString(t *testing.T) {
	require.Equal(t, "8419.319368", DFloat(8419.319368).String())
	require.Equal(t, "1e-09", DFloat(1e-9).String())
	require.Equal(t, "NaN", DFloat(math.NaN()).String())
	require.Equal(t, "-Inf", DFloat(math.Inf(-1)).String())
	require.Equal(t, "42", DInt(42).String())
	require.Equal(t, "", DNull{}.String())
}

func TestParseDatumRoundTrip(t *testing.T) {
	col := Column{Name: "f", Type: ColumnTypeFloat, Nullable: true}
	for _, s := range []string{"8419.319368", "-0.392226", "NaN", "+Inf", "1e-09", ""} {
		d, err := ParseDatum(col, s)
		require.NoError(t, err)
		require.Equal(t, s, d.String())
	}
	_, err := ParseDatum(Column{Name: "i", Type: ColumnTypeInt}, "1.5")
	require.Error(t, err)
}

func TestSchemas(t *testing.T) {
	for _, k := range AllKinds {
		s := SchemaFor(k)
		require.Equal(t, k, s.Kind)
		require.NotEmpty(t, s.Columns)
		_, err := s.NewTable(nil)
		require.NoError(t, err)
		tbl := &Table{Columns: s.Columns}
		for _, kc := range s.KeyColumns {
			require.GreaterOrEqual(t, tbl.ColumnIndex(kc.Name), 0)
		}
		for _, c := range s.Ignore {
			require.GreaterOrEqual(t, tbl.ColumnIndex(c), 0)
		}
		kind, err := ParseArtifactKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, kind)
		byExt, ok := KindForExtension(k.Extension())
		require.True(t, ok)
		require.Equal(t, k, byExt)
	}
	require.True(t, SchemaFor(Header).Positional())
	require.False(t, SchemaFor(DetectionTable).Positional())
}
