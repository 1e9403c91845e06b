package tblbase

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ArtifactKind is a kind of pipeline output which can be canonicalized and
// compared.
type ArtifactKind int

const (
	DetectionTable ArtifactKind = iota
	Header
	DataSelection
	ChannelSummary
)

// AllKinds is every kind, in the order the driver processes them.
var AllKinds = []ArtifactKind{DetectionTable, Header, DataSelection, ChannelSummary}

var kindNames = map[ArtifactKind]string{
	DetectionTable: "detection-table",
	Header:         "header",
	DataSelection:  "data-selection",
	ChannelSummary: "channel-summary",
}

func (k ArtifactKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Extension is the suffix of the canonical table file for the kind.
func (k ArtifactKind) Extension() string {
	switch k {
	case DetectionTable:
		return ".tbldat"
	case Header:
		return ".tblhdr"
	case DataSelection:
		return ".tbldsel"
	case ChannelSummary:
		return ".tblnpols"
	}
	return ""
}

// RawExtension is the suffix of the pipeline artifact the kind is derived
// from. Header and data selection tables both come from filterbank files.
func (k ArtifactKind) RawExtension() string {
	switch k {
	case DetectionTable:
		return ".dat"
	case Header, DataSelection:
		return ".fil"
	case ChannelSummary:
		return ".npols"
	}
	return ""
}

func ParseArtifactKind(s string) (ArtifactKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, errors.Newf("unknown artifact kind %q", s)
}

// KindForExtension returns the kind whose canonical extension is ext.
func KindForExtension(ext string) (ArtifactKind, bool) {
	for _, k := range AllKinds {
		if k.Extension() == ext {
			return k, true
		}
	}
	return 0, false
}
