package canonicalize

import (
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/tblbase"
)

const secondsPerDay = 86400

var validNBits = map[int64]struct{}{1: {}, 2: {}, 4: {}, 8: {}, 16: {}, 32: {}}

// maxIFs bounds the number of IFs (and so rows) a header may declare.
const maxIFs = 16

// dataSelectionCanonicalizer describes the data window covered by a
// filterbank file: one row per IF, giving the band edges (channel centres,
// ascending), the time window in MJD and the number of integrations.
//
// A payload which ends in a partial integration is truncated to whole
// integrations and the window is flagged as partial.
type dataSelectionCanonicalizer struct{}

func (dataSelectionCanonicalizer) Kind() tblbase.ArtifactKind {
	return tblbase.DataSelection
}

func (c dataSelectionCanonicalizer) Canonicalize(r io.Reader, name string) (*tblbase.Table, error) {
	h, data, err := readFilterbankHeader(r)
	if err != nil {
		return nil, tblbase.NewParseError(c.Kind(), name, 0, err)
	}
	payload, err := io.Copy(io.Discard, data)
	if err != nil {
		return nil, err
	}
	rows, err := selectionWindows(h, payload)
	if err != nil {
		return nil, tblbase.NewParseError(c.Kind(), name, 0, err)
	}
	tbl, err := tblbase.SchemaFor(tblbase.DataSelection).NewTable(rows)
	if err != nil {
		return nil, tblbase.NewParseError(c.Kind(), name, 0, err)
	}
	return tbl, nil
}

func selectionWindows(h filterbankHeader, payload int64) ([]tblbase.Row, error) {
	for _, kw := range []string{"nchans", "nifs", "nbits"} {
		if _, ok := h.ints[kw]; !ok {
			return nil, errors.Newf("header is missing %s", kw)
		}
	}
	for _, kw := range []string{"fch1", "foff", "tstart", "tsamp"} {
		if _, ok := h.doubles[kw]; !ok {
			return nil, errors.Newf("header is missing %s", kw)
		}
	}
	nchans, nifs, nbits := h.ints["nchans"], h.ints["nifs"], h.ints["nbits"]
	if nchans <= 0 || nifs <= 0 {
		return nil, errors.Newf("invalid dimensions nchans=%d nifs=%d", nchans, nifs)
	}
	if nifs > maxIFs {
		return nil, errors.Newf("nifs=%d exceeds %d", nifs, maxIFs)
	}
	if _, ok := validNBits[nbits]; !ok {
		return nil, errors.Newf("unsupported nbits=%d", nbits)
	}
	if nchans > math.MaxInt64/(nifs*nbits) {
		return nil, errors.Newf("integration of nchans=%d nifs=%d nbits=%d overflows", nchans, nifs, nbits)
	}
	bitsPerInt := nchans * nifs * nbits
	if bitsPerInt%8 != 0 {
		return nil, errors.Newf("integration of %d bits is not byte aligned", bitsPerInt)
	}
	bytesPerInt := bitsPerInt / 8
	nInts := payload / bytesPerInt
	coverage := tblbase.CoverageFull
	if payload%bytesPerInt != 0 {
		coverage = tblbase.CoveragePartial
	}

	fch1, foff := h.doubles["fch1"], h.doubles["foff"]
	lastChan := fch1 + foff*float64(nchans-1)
	fStart, fStop := math.Min(fch1, lastChan), math.Max(fch1, lastChan)
	tStart := h.doubles["tstart"]
	tStop := tStart + float64(nInts)*h.doubles["tsamp"]/secondsPerDay

	rows := make([]tblbase.Row, nifs)
	for i := range rows {
		rows[i] = tblbase.Row{
			tblbase.DInt(0),
			tblbase.DInt(i),
			tblbase.DFloat(fStart),
			tblbase.DFloat(fStop),
			tblbase.DFloat(tStart),
			tblbase.DFloat(tStop),
			tblbase.DInt(nInts),
			tblbase.DInt(nchans),
			tblbase.DInt(nbits),
			tblbase.DEnum(coverage),
		}
	}
	return rows, nil
}
