package models

// Severity of a reported issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// ScanStrategy is the unit of content sent for a file.
type ScanStrategy string

const (
	// StrategyDeep sends full (possibly compressed) content.
	StrategyDeep ScanStrategy = "deep"
	// StrategyFingerprint sends the compact fingerprint only.
	StrategyFingerprint ScanStrategy = "fingerprint"
)

// Satisfies reports whether results produced with s can answer a request
// for want. Deep results answer both strategies; fingerprint results answer
// fingerprint requests only.
func (s ScanStrategy) Satisfies(want ScanStrategy) bool {
	switch s {
	case StrategyDeep:
		return want == StrategyDeep || want == StrategyFingerprint
	case StrategyFingerprint:
		return want == StrategyFingerprint
	default:
		return false
	}
}

// Issue is a single finding reported by the model.
type Issue struct {
	Type        string   `json:"type" yaml:"type"`
	Severity    Severity `json:"severity" yaml:"severity"`
	File        string   `json:"file" yaml:"file"`
	Line        int      `json:"line" yaml:"line"`
	Description string   `json:"description" yaml:"description"`
}
