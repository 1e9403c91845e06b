package canonicalize

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/rawspec-testing/tblverify/tblbase"
)

// SIGPROC filterbank headers are a sequence of length-prefixed keywords, each
// followed by a little-endian value whose type depends on the keyword,
// bracketed by HEADER_START and HEADER_END.
const (
	headerStart = "HEADER_START"
	headerEnd   = "HEADER_END"

	maxHeaderStringLen = 4096
)

type keywordType int

const (
	keywordInt keywordType = iota
	keywordDouble
	keywordString
	keywordByte
)

var filterbankKeywords = map[string]keywordType{
	"telescope_id":  keywordInt,
	"machine_id":    keywordInt,
	"data_type":     keywordInt,
	"barycentric":   keywordInt,
	"pulsarcentric": keywordInt,
	"nbits":         keywordInt,
	"nsamples":      keywordInt,
	"nchans":        keywordInt,
	"nifs":          keywordInt,
	"nbeams":        keywordInt,
	"ibeam":         keywordInt,
	"tstart":        keywordDouble,
	"tsamp":         keywordDouble,
	"fch1":          keywordDouble,
	"foff":          keywordDouble,
	"refdm":         keywordDouble,
	"az_start":      keywordDouble,
	"za_start":      keywordDouble,
	"src_raj":       keywordDouble,
	"src_dej":       keywordDouble,
	"period":        keywordDouble,
	"source_name":   keywordString,
	"rawdatafile":   keywordString,
	"signed":        keywordByte,
}

// filterbankHeader holds the decoded keywords of a filterbank header.
type filterbankHeader struct {
	ints    map[string]int64
	doubles map[string]float64
	strings map[string]string
}

func (h filterbankHeader) datum(col tblbase.Column) tblbase.Datum {
	switch col.Type {
	case tblbase.ColumnTypeInt:
		if v, ok := h.ints[col.Name]; ok {
			return tblbase.DInt(v)
		}
	case tblbase.ColumnTypeFloat:
		if v, ok := h.doubles[col.Name]; ok {
			return tblbase.DFloat(v)
		}
	case tblbase.ColumnTypeString:
		if v, ok := h.strings[col.Name]; ok {
			return tblbase.DString(v)
		}
	}
	return tblbase.DNull{}
}

// headerReader decodes a filterbank header, counting the bytes it consumes.
type headerReader struct {
	r *bufio.Reader
	n int64
}

func (hr *headerReader) read(buf []byte) error {
	n, err := io.ReadFull(hr.r, buf)
	hr.n += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Newf("truncated header at byte %d", hr.n)
	}
	return err
}

func (hr *headerReader) readInt32() (int32, error) {
	var buf [4]byte
	if err := hr.read(buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func (hr *headerReader) readString() (string, error) {
	offset := hr.n
	l, err := hr.readInt32()
	if err != nil {
		return "", err
	}
	if l <= 0 || l > maxHeaderStringLen {
		return "", errors.Newf("invalid string length %d at byte %d", l, offset)
	}
	buf := make([]byte, l)
	if err := hr.read(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// readFilterbankHeader decodes the header at the start of r. The returned
// reader is positioned at the first data byte.
func readFilterbankHeader(r io.Reader) (filterbankHeader, *bufio.Reader, error) {
	hr := &headerReader{r: bufio.NewReader(r)}
	h := filterbankHeader{
		ints:    make(map[string]int64),
		doubles: make(map[string]float64),
		strings: make(map[string]string),
	}
	magic, err := hr.readString()
	if err != nil {
		return h, nil, errors.Wrap(err, "error reading magic")
	}
	if magic != headerStart {
		return h, nil, errors.Newf("bad magic %q", magic)
	}
	seen := make(map[string]struct{})
	for {
		kw, err := hr.readString()
		if err != nil {
			return h, nil, err
		}
		if kw == headerEnd {
			return h, hr.r, nil
		}
		typ, ok := filterbankKeywords[kw]
		if !ok {
			return h, nil, errors.Newf("unknown keyword %q", kw)
		}
		if _, ok := seen[kw]; ok {
			return h, nil, errors.Newf("duplicate keyword %q", kw)
		}
		seen[kw] = struct{}{}
		switch typ {
		case keywordInt:
			v, err := hr.readInt32()
			if err != nil {
				return h, nil, err
			}
			h.ints[kw] = int64(v)
		case keywordDouble:
			var buf [8]byte
			if err := hr.read(buf[:]); err != nil {
				return h, nil, err
			}
			h.doubles[kw] = math.Float64frombits(binary.LittleEndian.Uint64(buf[:]))
		case keywordString:
			v, err := hr.readString()
			if err != nil {
				return h, nil, err
			}
			h.strings[kw] = v
		case keywordByte:
			var buf [1]byte
			if err := hr.read(buf[:]); err != nil {
				return h, nil, err
			}
			h.ints[kw] = int64(buf[0])
		}
	}
}

// headerCanonicalizer produces a single row holding the header keywords of a
// filterbank file. Keywords absent from the header are null.
type headerCanonicalizer struct{}

func (headerCanonicalizer) Kind() tblbase.ArtifactKind {
	return tblbase.Header
}

func (c headerCanonicalizer) Canonicalize(r io.Reader, name string) (*tblbase.Table, error) {
	h, _, err := readFilterbankHeader(r)
	if err != nil {
		return nil, tblbase.NewParseError(c.Kind(), name, 0, err)
	}
	schema := tblbase.SchemaFor(tblbase.Header)
	row := make(tblbase.Row, len(schema.Columns))
	for i, col := range schema.Columns {
		row[i] = h.datum(col)
	}
	tbl, err := schema.NewTable([]tblbase.Row{row})
	if err != nil {
		return nil, tblbase.NewParseError(c.Kind(), name, 0, err)
	}
	return tbl, nil
}
