package inconsistency

import "github.com/rawspec-testing/tblverify/tblbase"

// ReportableObject is anything a Reporter can report.
type ReportableObject interface{}

// StatusReport is a progress message.
type StatusReport struct {
	Info string
}

// SkippedArtifact is a baseline artifact without a trial counterpart. Sites
// exclude test cases from a run this way, so it is not an error.
type SkippedArtifact struct {
	ArtifactID
	BaselinePath string
}

// ExtraneousArtifact is a trial artifact without a baseline counterpart.
type ExtraneousArtifact struct {
	ArtifactID
	TrialPath string
}

// DisabledKind is an artifact kind disabled by site policy.
type DisabledKind struct {
	Kind tblbase.ArtifactKind
}
