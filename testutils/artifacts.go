// Package testutils builds pipeline artifacts and canonical table trees for
// tests.
package testutils

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Keyword is a filterbank header keyword. Value must be an int (written as
// int32), a float64, a string or a byte.
type Keyword struct {
	Name  string
	Value interface{}
}

// DefaultKeywords is a typical rawspec filterbank header.
func DefaultKeywords() []Keyword {
	return []Keyword{
		{"telescope_id", 6},
		{"machine_id", 20},
		{"data_type", 1},
		{"rawdatafile", "blc13_guppi_57991_49836_DIAG_FRB121102_0010.0000.raw"},
		{"source_name", "FRB121102"},
		{"src_raj", 53150.56},
		{"src_dej", 330515.1},
		{"az_start", 0.0},
		{"za_start", 0.0},
		{"fch1", 8421.38671875},
		{"foff", -0.5},
		{"nchans", 4},
		{"nbeams", 1},
		{"ibeam", 1},
		{"nbits", 32},
		{"tstart", 57991.57680555555},
		{"tsamp", 18.253611008},
		{"nifs", 1},
	}
}

func writeString(buf *bytes.Buffer, s string) {
	_ = binary.Write(buf, binary.LittleEndian, int32(len(s)))
	buf.WriteString(s)
}

// Filterbank encodes a SIGPROC filterbank file with the given header
// keywords and a payload of payloadBytes zero bytes.
func Filterbank(kws []Keyword, payloadBytes int) []byte {
	var buf bytes.Buffer
	writeString(&buf, "HEADER_START")
	for _, kw := range kws {
		writeString(&buf, kw.Name)
		switch v := kw.Value.(type) {
		case int:
			_ = binary.Write(&buf, binary.LittleEndian, int32(v))
		case float64:
			_ = binary.Write(&buf, binary.LittleEndian, math.Float64bits(v))
		case string:
			writeString(&buf, v)
		case byte:
			buf.WriteByte(v)
		default:
			panic(fmt.Sprintf("unsupported keyword value %T", v))
		}
	}
	writeString(&buf, "HEADER_END")
	buf.Write(make([]byte, payloadBytes))
	return buf.Bytes()
}

// DatFile renders hits as a turboSETI .dat file. Each hit holds the twelve
// column values in order.
func DatFile(hits [][]string) string {
	var sb strings.Builder
	sb.WriteString("# -------------------------- o --------------------------\n")
	sb.WriteString("# File ID: blc13_guppi_57991_49836_DIAG_FRB121102_0010.rawspec.0000.h5 \n")
	sb.WriteString("# -------------------------- o --------------------------\n")
	sb.WriteString("# Source:FRB121102\n")
	sb.WriteString("# MJD: 57991.576805555550\tRA: 14h45m50.56s\tDEC: 33d05m15.1s\n")
	sb.WriteString("# DELTAT:  18.253611\tDELTAF(Hz):  -2.793968\tmax_drift_rate:   4.000000\tobs_length: 292.057776\n")
	sb.WriteString("# --------------------------\n")
	sb.WriteString("# Top_Hit_# \tDrift_Rate \tSNR \tUncorrected_Frequency \tCorrected_Frequency \tIndex \tfreq_start \tfreq_end \tSEFD \tSEFD_freq \tCoarse_Channel_Number \tFull_number_of_hits \t\n")
	sb.WriteString("# --------------------------\n")
	for _, hit := range hits {
		sb.WriteString(strings.Join(hit, "\t"))
		sb.WriteString("\t\n")
	}
	return sb.String()
}

// Hit builds the .dat fields of one hit.
func Hit(num int, drift, snr, freq float64, index int) []string {
	return []string{
		fmt.Sprintf("%03d", num),
		fmt.Sprintf("%f", drift),
		fmt.Sprintf("%f", snr),
		fmt.Sprintf("%f", freq),
		fmt.Sprintf("%f", freq),
		fmt.Sprintf("%d", index),
		fmt.Sprintf("%f", freq+0.0016),
		fmt.Sprintf("%f", freq-0.0016),
		"0.0",
		"0.000000",
		"1",
		"858",
	}
}

// WriteFile writes contents to name under dir, creating parent directories.
func WriteFile(t *testing.T, dir, name string, contents []byte) string {
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, contents, 0o644))
	return p
}

// CopyDir copies the regular files of src into dst.
func CopyDir(t *testing.T, src, dst string) {
	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dst, 0o755))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(src, e.Name()))
		require.NoError(t, err)
		WriteFile(t, dst, e.Name(), b)
	}
}
