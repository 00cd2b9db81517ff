package code_analyzer

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"

	"github.com/meysamhadeli/codaiscan/code_analyzer/contracts"
	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/token_management"
)

// CodeAnalyzer turns project files into chunks and fingerprints for one
// working directory.
type CodeAnalyzer struct {
	Cwd    string
	logger *pterm.Logger
}

// NewCodeAnalyzer initializes a new CodeAnalyzer. A nil logger disables logging.
func NewCodeAnalyzer(cwd string, logger *pterm.Logger) contracts.ICodeAnalyzer {
	if logger == nil {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}
	return &CodeAnalyzer{Cwd: cwd, logger: logger}
}

func (analyzer *CodeAnalyzer) PrepareChunks(filePaths []string, model string) []models.Chunk {
	records := analyzer.analyzeFiles(filePaths)
	graph := BuildDependencyGraph(records, analyzer.Cwd)
	chunks := AssembleChunks(records, graph, token_management.CodeBudgetChars(model))
	analyzer.logger.Debug("assembled chunks", analyzer.logger.Args(
		"files", len(records), "chunks", len(chunks), "budget", token_management.CodeBudgetChars(model)))
	return chunks
}

func (analyzer *CodeAnalyzer) RebuildChunk(files []models.FileRecord, budget int, manifest string) []models.Chunk {
	return RebuildChunk(files, budget, manifest)
}

func (analyzer *CodeAnalyzer) GenerateFingerprints(filePaths []string, priorLocalIssues []models.Issue) []models.Fingerprint {
	fps := make([]models.Fingerprint, 0, len(filePaths))
	for _, p := range filePaths {
		fp := GenerateFingerprint(p, analyzer.Cwd, priorLocalIssues)
		if fp == nil {
			analyzer.logger.Debug("skipping unreadable file", analyzer.logger.Args("file", p))
			continue
		}
		fps = append(fps, *fp)
	}
	return fps
}

func (analyzer *CodeAnalyzer) PackFingerprints(fps []models.Fingerprint, model string) []models.FingerprintChunk {
	return PackFingerprints(fps, model)
}

func (analyzer *CodeAnalyzer) RebuildFingerprintChunk(fps []models.Fingerprint, budget int) models.FingerprintChunk {
	return RebuildFingerprintChunk(fps, budget)
}

func (analyzer *CodeAnalyzer) analyzeFiles(filePaths []string) []models.FileRecord {
	records := make([]models.FileRecord, 0, len(filePaths))
	for _, p := range filePaths {
		rec, ok := AnalyzeFile(p, analyzer.Cwd)
		if !ok {
			analyzer.logger.Debug("skipping unreadable file", analyzer.logger.Args("file", p))
			continue
		}
		records = append(records, rec)
	}
	return records
}

// AnalyzeFile reads one file and derives its record. The second result is
// false when the file cannot be read.
func AnalyzeFile(filePath, cwd string) (models.FileRecord, bool) {
	rel, abs := resolvePath(filePath, cwd)
	content, err := os.ReadFile(abs)
	if err != nil {
		return models.FileRecord{}, false
	}

	text := string(content)
	language := DetectLanguage(rel)
	return models.FileRecord{
		RelativePath: rel,
		AbsolutePath: abs,
		Content:      text,
		OriginalSize: len(text),
		Tokens:       token_management.EstimateTokens(text),
		Imports:      ExtractImports(text, language),
		Dir:          path.Dir(rel),
		Language:     language,
	}, true
}

// AnalyzeFiles analyzes paths in order, silently dropping unreadable files.
func AnalyzeFiles(filePaths []string, cwd string) []models.FileRecord {
	analyzer := &CodeAnalyzer{Cwd: cwd, logger: pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)}
	return analyzer.analyzeFiles(filePaths)
}

// resolvePath returns the slash-separated path relative to cwd and the
// absolute path of filePath, which may be given in either form.
func resolvePath(filePath, cwd string) (string, string) {
	abs := filePath
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(cwd, filePath)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(cwd, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filePath
	}
	return NormalizePath(rel), abs
}

// NormalizePath converts a path to the forward-slash form used as a key by
// the graph, the cache and reported issues.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	return strings.TrimPrefix(p, "./")
}

// PrepareChunks analyzes filePaths, links them by their imports and packs
// them into chunks sized for model.
func PrepareChunks(filePaths []string, cwd, model string) []models.Chunk {
	return NewCodeAnalyzer(cwd, nil).PrepareChunks(filePaths, model)
}
