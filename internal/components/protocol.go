package components

import (
	"errors"

	"github.com/lguibr/switchboard/internal/scan"
)

// Dependency identifiers the Reporter expects.
const (
	CodeServiceID    = "code"
	WritingServiceID = "writing"
)

// Message identifiers of the scan protocol.
const (
	IdentScanCode       = "scan-code"
	IdentCodeAnalysis   = "code-analysis"
	IdentCollectSamples = "collect-samples"
	IdentWritingSamples = "writing-samples"
)

var (
	// ErrReportComplete ends a run once the Reporter has every result. It is
	// the normal way a report run finishes.
	ErrReportComplete    = errors.New("report complete")
	ErrMissingDependency = errors.New("missing dependency")
)

// ScanCodeRequest is the payload of IdentScanCode.
type ScanCodeRequest struct {
	Root string `json:"root"`
}

// CodeAnalysis is the payload of IdentCodeAnalysis.
type CodeAnalysis struct {
	Root      string          `json:"root"`
	Languages []scan.Language `json:"languages"`
}

// CollectSamplesRequest is the payload of IdentCollectSamples.
type CollectSamplesRequest struct {
	Dir string `json:"dir"`
}

// WritingSamples is the payload of IdentWritingSamples.
type WritingSamples struct {
	Dir     string        `json:"dir"`
	Samples []scan.Sample `json:"samples"`
}
