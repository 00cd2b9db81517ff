package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"

	"github.com/meysamhadeli/codaiscan/budget_router"
	"github.com/meysamhadeli/codaiscan/code_analyzer"
	analyzer_contracts "github.com/meysamhadeli/codaiscan/code_analyzer/contracts"
	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/providers/contracts"
)

const (
	DefaultBatchSize            = 3
	DefaultStagger              = 500 * time.Millisecond
	DefaultMaxSplitDepth        = 2
	DefaultFingerprintThreshold = 40
)

// Options tune one scanner. Strategy forces a scan strategy; empty means
// the scanner decides.
type Options struct {
	Model                string
	BatchSize            int
	Stagger              time.Duration
	MaxSplitDepth        int
	FingerprintThreshold int
	CacheEnabled         bool
	Strategy             models.ScanStrategy
}

// DefaultOptions returns the options used when configuration sets nothing.
func DefaultOptions(model string) Options {
	return Options{
		Model:                model,
		BatchSize:            DefaultBatchSize,
		Stagger:              DefaultStagger,
		MaxSplitDepth:        DefaultMaxSplitDepth,
		FingerprintThreshold: DefaultFingerprintThreshold,
		CacheEnabled:         true,
	}
}

// UnitFailure describes a request whose files got no results.
type UnitFailure struct {
	Chunk int      `json:"chunk" yaml:"chunk"`
	Files []string `json:"files" yaml:"files"`
	Model string   `json:"model,omitempty" yaml:"model,omitempty"`
	Error string   `json:"error" yaml:"error"`
}

// Result summarizes one scan run.
type Result struct {
	RunID        string                  `json:"runId" yaml:"runId"`
	Strategy     models.ScanStrategy     `json:"strategy" yaml:"strategy"`
	ScanLevel    budget_router.ScanLevel `json:"scanLevel" yaml:"scanLevel"`
	Issues       []models.Issue          `json:"issues" yaml:"issues"`
	FilesTotal   int                     `json:"filesTotal" yaml:"filesTotal"`
	FilesScanned int                     `json:"filesScanned" yaml:"filesScanned"`
	CacheHits    int                     `json:"cacheHits" yaml:"cacheHits"`
	Chunks       int                     `json:"chunks" yaml:"chunks"`
	Requests     int                     `json:"requests" yaml:"requests"`
	ModelsUsed   map[string]int          `json:"modelsUsed" yaml:"modelsUsed"`
	TokensUsed   int                     `json:"tokensUsed" yaml:"tokensUsed"`
	Failed       []UnitFailure           `json:"failed,omitempty" yaml:"failed,omitempty"`
	Duration     time.Duration           `json:"duration" yaml:"duration"`
}

// Scanner runs budget-aware scans for one project directory.
type Scanner struct {
	cwd      string
	options  Options
	provider contracts.IChatAIProvider
	analyzer analyzer_contracts.ICodeAnalyzer
	router   *budget_router.Router
	logger   *pterm.Logger
	sleep    func(ctx context.Context, d time.Duration) error
	progress func(done, total int)
}

// NewScanner wires a scanner. Zero option values fall back to defaults; a
// nil logger disables logging.
func NewScanner(cwd string, provider contracts.IChatAIProvider, router *budget_router.Router, options Options, logger *pterm.Logger) *Scanner {
	if logger == nil {
		logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled)
	}
	if options.BatchSize <= 0 {
		options.BatchSize = DefaultBatchSize
	}
	if options.Stagger < 0 {
		options.Stagger = 0
	}
	if options.MaxSplitDepth < 0 {
		options.MaxSplitDepth = 0
	}
	if options.FingerprintThreshold <= 0 {
		options.FingerprintThreshold = DefaultFingerprintThreshold
	}
	return &Scanner{
		cwd:      cwd,
		options:  options,
		provider: provider,
		analyzer: code_analyzer.NewCodeAnalyzer(cwd, logger),
		router:   router,
		logger:   logger,
		sleep:    sleepWithCtx,
	}
}

// OnProgress registers a callback invoked after every batch with the number
// of finished and total chunks.
func (s *Scanner) OnProgress(fn func(done, total int)) {
	s.progress = fn
}

// chooseStrategy picks deep for small scans and fingerprint for wide ones.
// A critical budget level always means fingerprint.
func (s *Scanner) chooseStrategy(uncached int, level budget_router.ScanLevel) models.ScanStrategy {
	if s.options.Strategy != "" {
		return s.options.Strategy
	}
	if level == budget_router.ScanLevelCritical {
		return models.StrategyFingerprint
	}
	if uncached <= s.options.FingerprintThreshold {
		return models.StrategyDeep
	}
	return models.StrategyFingerprint
}

// planFromCache partitions filePaths against cache and picks the strategy
// for the rest. Deep results answer both strategies, so a fingerprint scan
// looks up again only the files deep results missed. A nil cache leaves
// every file uncached.
func (s *Scanner) planFromCache(cache *code_analyzer.ScanCache, filePaths []string, level budget_router.ScanLevel) (models.ScanStrategy, code_analyzer.CachePartition) {
	if cache == nil {
		return s.chooseStrategy(len(filePaths), level), code_analyzer.CachePartition{UncachedFiles: filePaths}
	}
	part := cache.Partition(filePaths, models.StrategyDeep)
	strategy := s.chooseStrategy(len(part.UncachedFiles), level)
	if strategy == models.StrategyFingerprint && len(part.UncachedFiles) > 0 {
		more := cache.Partition(part.UncachedFiles, models.StrategyFingerprint)
		part.UncachedFiles = more.UncachedFiles
		part.CachedIssues = append(part.CachedIssues, more.CachedIssues...)
		part.CacheHits += more.CacheHits
	}
	return strategy, part
}

// Scan reviews filePaths (relative to the scanner's directory or absolute).
// Cached results answer unchanged files; the rest are chunked or
// fingerprinted, sent in paced batches and written back to the cache.
// Failed requests are reported in the result and do not fail the scan; the
// error is non-nil only when ctx ends the scan early.
func (s *Scanner) Scan(ctx context.Context, filePaths []string) (*Result, error) {
	started := time.Now()
	result := &Result{
		RunID:      uuid.NewString(),
		ScanLevel:  s.router.ScanLevel(s.options.Model),
		FilesTotal: len(filePaths),
		ModelsUsed: make(map[string]int),
		Issues:     []models.Issue{},
	}

	var cache *code_analyzer.ScanCache
	if s.options.CacheEnabled {
		cache = code_analyzer.LoadScanCache(s.cwd, s.options.Model)
	}
	strategy, part := s.planFromCache(cache, filePaths, result.ScanLevel)
	uncached := part.UncachedFiles
	result.Strategy = strategy
	result.CacheHits = part.CacheHits
	result.Issues = append(result.Issues, part.CachedIssues...)

	s.logger.Info("scan planned", s.logger.Args(
		"run", result.RunID, "files", len(filePaths), "cached", part.CacheHits,
		"strategy", string(result.Strategy), "level", string(result.ScanLevel)))

	if len(uncached) == 0 {
		sortIssues(result.Issues)
		result.Duration = time.Since(started)
		return result, nil
	}

	planModel := s.router.SelectModel(s.options.Model, result.Strategy)
	var units []workUnit
	if result.Strategy == models.StrategyFingerprint {
		var prior []models.Issue
		if cache != nil {
			prior = cache.PriorIssues(uncached)
		}
		fps := s.analyzer.GenerateFingerprints(uncached, prior)
		units = fingerprintUnits(s.analyzer.PackFingerprints(fps, planModel))
	} else {
		units = deepUnits(s.analyzer.PrepareChunks(uncached, planModel))
	}
	result.Chunks = len(units)

	outcomes := s.dispatch(ctx, units)

	var (
		newIssues []models.Issue
		scanned   []string
		seen      = make(map[string]bool)
	)
	for _, o := range outcomes {
		result.Requests += o.requests
		result.TokensUsed += o.tokens
		if o.model != "" {
			result.ModelsUsed[o.model] += o.requests
		}
		if o.err != nil {
			result.Failed = append(result.Failed, UnitFailure{
				Chunk: o.unit.index + 1,
				Files: o.unit.files(),
				Model: o.model,
				Error: o.err.Error(),
			})
			continue
		}
		newIssues = append(newIssues, o.issues...)
		if !o.cacheable {
			continue
		}
		for _, f := range o.unit.files() {
			if !seen[f] {
				seen[f] = true
				scanned = append(scanned, f)
			}
		}
	}
	sort.Strings(scanned)
	result.FilesScanned = len(scanned)
	result.Issues = append(result.Issues, newIssues...)
	sortIssues(result.Issues)

	if cache != nil && len(scanned) > 0 {
		code_analyzer.UpdateCacheEntries(cache, newIssues, scanned, s.cwd, result.Strategy)
		if err := code_analyzer.SaveCache(cache); err != nil {
			s.logger.Warn("failed to save scan cache", s.logger.Args("error", err.Error()))
		}
	}
	if cache != nil {
		s.logger.Debug("scan cache lookups", s.logger.ArgsFromMap(cache.GetPerformanceStats()))
	}
	if err := s.router.Save(); err != nil {
		s.logger.Warn("failed to save request budget", s.logger.Args("error", err.Error()))
	}

	result.Duration = time.Since(started)
	s.logger.Info("scan finished", s.logger.Args(
		"run", result.RunID, "issues", len(result.Issues), "requests", result.Requests,
		"failed", len(result.Failed), "tokens", result.TokensUsed))

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("scan interrupted: %w", err)
	}
	return result, nil
}
