package contracts

import "github.com/meysamhadeli/codaiscan/code_analyzer/models"

// ICodeAnalyzer prepares the content of a scan: chunks of (possibly
// compressed) files for deep scans, packed fingerprints for wide ones.
type ICodeAnalyzer interface {
	PrepareChunks(filePaths []string, model string) []models.Chunk
	RebuildChunk(files []models.FileRecord, budget int, manifest string) []models.Chunk
	GenerateFingerprints(filePaths []string, priorLocalIssues []models.Issue) []models.Fingerprint
	PackFingerprints(fps []models.Fingerprint, model string) []models.FingerprintChunk
	RebuildFingerprintChunk(fps []models.Fingerprint, budget int) models.FingerprintChunk
}
