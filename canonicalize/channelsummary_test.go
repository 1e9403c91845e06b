package canonicalize

import (
	"strings"
	"testing"

	"github.com/rawspec-testing/tblverify/tblbase"
	"github.com/stretchr/testify/require"
)

func TestChannelSummaryCanonicalizer(t *testing.T) {
	const output = `rawspectest: using GPU 0
SUMMARY nbits=8 npols=2 nchan=64 nfft=1048576 nint=51 mode=stokes-i
copying block 0 of 128

SUMMARY mode=full-pol nint=2 nfft=8192 nchan=64 npols=4 nbits=16
rawspectest: done
`
	tbl, err := channelSummaryCanonicalizer{}.Canonicalize(strings.NewReader(output), "rawspectest.npols")
	require.NoError(t, err)
	require.Equal(t, []tblbase.Row{
		{tblbase.DInt(1), tblbase.DInt(8), tblbase.DInt(2), tblbase.DInt(64), tblbase.DInt(1048576), tblbase.DInt(51), tblbase.DEnum("stokes-i")},
		{tblbase.DInt(2), tblbase.DInt(16), tblbase.DInt(4), tblbase.DInt(64), tblbase.DInt(8192), tblbase.DInt(2), tblbase.DEnum("full-pol")},
	}, tbl.Rows)
}

func TestChannelSummaryCanonicalizerErrors(t *testing.T) {
	for _, tc := range []struct {
		desc         string
		output       string
		expectedLine int
		expectedErr  string
	}{
		{
			desc:         "no summaries",
			output:       "rawspectest: using GPU 0\n",
			expectedLine: 0,
			expectedErr:  "no SUMMARY lines found",
		},
		{
			desc:         "missing key",
			output:       "chatter\nSUMMARY nbits=8 npols=2 nchan=64 nfft=1048576 mode=stokes-i\n",
			expectedLine: 2,
			expectedErr:  "missing key nint",
		},
		{
			desc:         "unknown keys",
			output:       "SUMMARY nbits=8 npols=2 nchan=64 nfft=1048576 nint=51 mode=stokes-i zz=1 gpu=0\n",
			expectedLine: 1,
			expectedErr:  "unknown keys gpu, zz",
		},
		{
			desc:         "duplicate key",
			output:       "SUMMARY nbits=8 nbits=8\n",
			expectedLine: 1,
			expectedErr:  "duplicate key nbits",
		},
		{
			desc:         "malformed token",
			output:       "SUMMARY nbits\n",
			expectedLine: 1,
			expectedErr:  `malformed token "nbits"`,
		},
		{
			desc:         "bad mode",
			output:       "SUMMARY nbits=8 npols=2 nchan=64 nfft=1048576 nint=51 mode=IQUV\n",
			expectedLine: 1,
			expectedErr:  "mode=IQUV is not one of stokes-i, full-pol, full-stokes",
		},
		{
			desc:         "bad integer",
			output:       "SUMMARY nbits=8 npols=two nchan=64 nfft=1048576 nint=51 mode=stokes-i\n",
			expectedLine: 1,
			expectedErr:  `field npols: strconv.ParseInt: parsing "two": invalid syntax`,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := channelSummaryCanonicalizer{}.Canonicalize(strings.NewReader(tc.output), "rawspectest.npols")
			var pe *tblbase.ParseError
			require.ErrorAs(t, err, &pe)
			require.Equal(t, tc.expectedLine, pe.Line)
			require.EqualError(t, pe.Err, tc.expectedErr)
		})
	}
}
