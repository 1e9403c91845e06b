package rowverify

import "github.com/rawspec-testing/tblverify/tblbase"

// Rules are the rules rows of one artifact kind are compared by.
type Rules struct {
	// KeyColumns match rows whose order is not stable. Rows are compared by
	// position if there are none.
	KeyColumns []tblbase.KeyColumn
	Ignore     map[string]struct{}
	Tolerances map[string]tblbase.Tolerance
}

// RulesFor builds the rules of a kind from its schema, with overrides
// replacing the schema's default column tolerances.
func RulesFor(kind tblbase.ArtifactKind, overrides map[string]tblbase.Tolerance) Rules {
	schema := tblbase.SchemaFor(kind)
	r := Rules{
		KeyColumns: schema.KeyColumns,
		Ignore:     make(map[string]struct{}, len(schema.Ignore)),
		Tolerances: make(map[string]tblbase.Tolerance, len(schema.Tolerances)+len(overrides)),
	}
	for _, c := range schema.Ignore {
		r.Ignore[c] = struct{}{}
	}
	for c, tol := range schema.Tolerances {
		r.Tolerances[c] = tol
	}
	for c, tol := range overrides {
		r.Tolerances[c] = tol
	}
	return r
}

func (r Rules) tolerance(col string) tblbase.Tolerance {
	if tol, ok := r.Tolerances[col]; ok {
		return tol
	}
	return tblbase.DefaultTolerance
}

func (r Rules) ignored(col string) bool {
	_, ok := r.Ignore[col]
	return ok
}
