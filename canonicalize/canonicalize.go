// Package canonicalize converts the artifacts produced by the channelizer and
// the detector into canonical tables.
package canonicalize

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/tblbase"
	"github.com/rawspec-testing/tblverify/tblfile"
)

// Canonicalizer converts one pipeline artifact into a canonical table. The
// same input always yields the same table; structural problems with the input
// are returned as a *tblbase.ParseError.
type Canonicalizer interface {
	Kind() tblbase.ArtifactKind
	// Canonicalize reads the artifact from r. name identifies the artifact in
	// errors.
	Canonicalize(r io.Reader, name string) (*tblbase.Table, error)
}

// For returns the Canonicalizer of the given kind.
func For(kind tblbase.ArtifactKind) (Canonicalizer, error) {
	switch kind {
	case tblbase.DetectionTable:
		return detectionCanonicalizer{}, nil
	case tblbase.Header:
		return headerCanonicalizer{}, nil
	case tblbase.DataSelection:
		return dataSelectionCanonicalizer{}, nil
	case tblbase.ChannelSummary:
		return channelSummaryCanonicalizer{}, nil
	}
	return nil, errors.AssertionFailedf("no canonicalizer for kind %d", kind)
}

// File canonicalizes the artifact at path.
func File(kind tblbase.ArtifactKind, path string) (*tblbase.Table, error) {
	c, err := For(kind)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return c.Canonicalize(f, path)
}

// ToFile canonicalizes the artifact at in and writes the canonical table file
// to out. An input of "-" reads from stdin.
func ToFile(kind tblbase.ArtifactKind, in string, out string) (*tblbase.Table, error) {
	var tbl *tblbase.Table
	if in == "-" {
		c, err := For(kind)
		if err != nil {
			return nil, err
		}
		if tbl, err = c.Canonicalize(os.Stdin, "<stdin>"); err != nil {
			return nil, err
		}
	} else {
		var err error
		if tbl, err = File(kind, in); err != nil {
			return nil, err
		}
	}
	if err := tblfile.WriteFile(out, tbl); err != nil {
		return nil, errors.Wrapf(err, "error writing %s", out)
	}
	return tbl, nil
}

func parseTypedField(col tblbase.Column, s string) (tblbase.Datum, error) {
	d, err := tblbase.ParseDatum(col, s)
	if err != nil {
		return nil, errors.Wrapf(err, "field %s", col.Name)
	}
	return d, nil
}
