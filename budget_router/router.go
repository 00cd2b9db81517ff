package budget_router

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/token_management"
	"github.com/meysamhadeli/codaiscan/utils"
)

const (
	BudgetDirName  = ".codai-scan"
	BudgetFileName = "budget.json"
	dateLayout     = "2006-01-02"
)

// ScanLevel is a coarse band of remaining request capacity.
type ScanLevel string

const (
	ScanLevelCritical ScanLevel = "critical"
	ScanLevelNormal   ScanLevel = "normal"
	ScanLevelFlush    ScanLevel = "flush"
)

const (
	criticalRatio = 0.15
	normalRatio   = 0.5

	// DefaultProvider is assumed when no provider is configured.
	DefaultProvider = "openai"
)

// ModelBudgetEntry counts the requests a model served on one calendar day.
type ModelBudgetEntry struct {
	Model         string    `json:"model"`
	Date          string    `json:"date"`
	RequestsUsed  int       `json:"requestsUsed"`
	LastRequestAt time.Time `json:"lastRequestAt"`
}

type budgetFile struct {
	Entries []ModelBudgetEntry `json:"entries"`
}

// ModelStatus is one row of the budget report.
type ModelStatus struct {
	Model     string `json:"model" yaml:"model"`
	Tier      string `json:"tier" yaml:"tier"`
	DailyCap  int    `json:"dailyCap" yaml:"dailyCap"`
	Used      int    `json:"used" yaml:"used"`
	Remaining int    `json:"remaining" yaml:"remaining"`
	PerMinute int    `json:"perMinute" yaml:"perMinute"`
	Primary   bool   `json:"primary" yaml:"primary"`
}

// Router tracks per-model request usage for the current day and picks the
// model that serves each request. It is safe for concurrent use.
type Router struct {
	path        string
	provider    string
	tiers       map[string]Tier
	configured  map[string]bool
	defaultTier Tier
	entries     map[string]*ModelBudgetEntry
	now         func() time.Time
	logger      *pterm.Logger
	mu          sync.Mutex
}

// Option configures a Router.
type Option func(*Router)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// WithProvider restricts routing to the models the named provider serves:
// the primary, configured models and table models of that provider. Models
// unknown to a local provider ("ollama") are local instead of premium.
func WithProvider(name string) Option {
	return func(r *Router) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			name = DefaultProvider
		}
		r.provider = name
		if name == "ollama" {
			r.defaultTier = TierLocal
		}
	}
}

// WithModelTiers assigns models to tiers by name, on top of DefaultModelTiers.
// Assigned models are routing candidates whatever their provider. Unknown
// tier names are ignored.
func WithModelTiers(assignments map[string]string) Option {
	return func(r *Router) {
		for model, name := range assignments {
			if tier, ok := TierByName(name); ok {
				r.tiers[normalize(model)] = tier
				r.configured[normalize(model)] = true
			} else {
				r.logger.Warn("ignoring unknown model tier", r.logger.Args("model", model, "tier", name))
			}
		}
	}
}

// WithLogger sets the logger; nil keeps logging disabled.
func WithLogger(logger *pterm.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// BudgetPath returns the budget file location for a project root.
func BudgetPath(cwd string) string {
	return filepath.Join(cwd, BudgetDirName, BudgetFileName)
}

// NewRouter loads today's usage for cwd. Entries from earlier days are
// dropped; a missing or corrupt file starts fresh.
func NewRouter(cwd string, opts ...Option) *Router {
	r := &Router{
		path:        BudgetPath(cwd),
		provider:    DefaultProvider,
		tiers:       make(map[string]Tier, len(DefaultModelTiers)),
		configured:  make(map[string]bool),
		defaultTier: TierPremium,
		entries:     make(map[string]*ModelBudgetEntry),
		now:         time.Now,
		logger:      pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled),
	}
	for model, name := range DefaultModelTiers {
		tier, _ := TierByName(name)
		r.tiers[model] = tier
	}
	for _, opt := range opts {
		opt(r)
	}
	r.load()
	return r
}

func normalize(model string) string {
	return token_management.NormalizeModel(model)
}

func (r *Router) today() string {
	return r.now().Format(dateLayout)
}

func (r *Router) load() {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return
	}
	var stored budgetFile
	if err := json.Unmarshal(data, &stored); err != nil {
		r.logger.Debug("discarding unreadable budget file", r.logger.Args("path", r.path, "error", err))
		return
	}
	today := r.today()
	for i := range stored.Entries {
		e := stored.Entries[i]
		if e.Date != today || e.Model == "" {
			continue
		}
		e.Model = normalize(e.Model)
		r.entries[e.Model] = &e
	}
}

// TierOf returns the tier of model. Unknown models get the most
// restrictive tier, or local under a local provider.
func (r *Router) TierOf(model string) Tier {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tierOf(normalize(model))
}

func (r *Router) tierOf(model string) Tier {
	if tier, ok := r.tiers[model]; ok {
		return tier
	}
	return r.defaultTier
}

// entry returns today's counter for model, resetting it across a day change.
func (r *Router) entry(model string) *ModelBudgetEntry {
	today := r.today()
	e, ok := r.entries[model]
	if !ok || e.Date != today {
		e = &ModelBudgetEntry{Model: model, Date: today}
		r.entries[model] = e
	}
	return e
}

// RecordRequest counts one request against model.
func (r *Router) RecordRequest(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entry(normalize(model))
	e.RequestsUsed++
	e.LastRequestAt = r.now()
}

// Remaining returns the requests model may still make today. Models without
// a daily cap report Unlimited.
func (r *Router) Remaining(model string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining(normalize(model))
}

func (r *Router) remaining(model string) int {
	tier := r.tierOf(model)
	if tier.IsUnlimited() {
		return Unlimited
	}
	left := tier.RequestsPerDay - r.entry(model).RequestsUsed
	if left < 0 {
		return 0
	}
	return left
}

// PerMinuteLimit returns the per-minute quota of model, 0 when unlimited.
func (r *Router) PerMinuteLimit(model string) int {
	return r.TierOf(model).RequestsPerMinute
}

// available reports whether the configured provider can serve model.
func (r *Router) available(model string) bool {
	return r.configured[model] || DefaultModelProviders[model] == r.provider
}

// knownModels lists the models the provider serves plus primary, sorted.
func (r *Router) knownModels(primary string) []string {
	seen := make(map[string]bool, len(r.tiers)+1)
	var out []string
	for m := range r.tiers {
		if !r.available(m) {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	if primary != "" && !seen[primary] {
		out = append(out, primary)
	}
	sort.Strings(out)
	return out
}

// bestLowerTier picks, among models ranked below primary that still have
// budget, the one in the highest such tier, then with the most remaining
// requests, then by name.
func (r *Router) bestLowerTier(primary string) (string, bool) {
	primaryRank := r.tierOf(primary).rank
	best := ""
	bestRank, bestLeft := 0, 0
	for _, m := range r.knownModels(primary) {
		rank := r.tierOf(m).rank
		if m == primary || rank >= primaryRank {
			continue
		}
		left := r.remaining(m)
		if left <= 0 {
			continue
		}
		if best == "" || rank > bestRank || (rank == bestRank && left > bestLeft) {
			best, bestRank, bestLeft = m, rank, left
		}
	}
	return best, best != ""
}

// SelectModel chooses the model for the next request of the given scan type.
// Deep scans stay on primary while it has budget; fingerprint scans move to
// a cheaper tier first to keep primary's budget for deep work. When nothing
// has budget left primary is returned anyway.
func (r *Router) SelectModel(primary string, scanType models.ScanStrategy) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	primary = normalize(primary)

	if scanType == models.StrategyFingerprint {
		if m, ok := r.bestLowerTier(primary); ok {
			return m
		}
		return primary
	}

	if r.remaining(primary) > 0 {
		return primary
	}
	if m, ok := r.bestLowerTier(primary); ok {
		r.logger.Info("primary model out of daily budget, routing to lower tier",
			r.logger.Args("primary", primary, "model", m))
		return m
	}
	return primary
}

// ScanLevel classifies the remaining capacity of all known models. Any
// known model without a daily cap makes the level flush.
func (r *Router) ScanLevel(primary string) ScanLevel {
	r.mu.Lock()
	defer r.mu.Unlock()

	capacity, left := 0, 0
	for _, m := range r.knownModels(normalize(primary)) {
		tier := r.tierOf(m)
		if tier.IsUnlimited() {
			return ScanLevelFlush
		}
		capacity += tier.RequestsPerDay
		left += r.remaining(m)
	}
	if capacity == 0 {
		return ScanLevelFlush
	}

	ratio := float64(left) / float64(capacity)
	switch {
	case ratio < criticalRatio:
		return ScanLevelCritical
	case ratio < normalRatio:
		return ScanLevelNormal
	default:
		return ScanLevelFlush
	}
}

// BatchPause is the wait between two batches of batchSize requests so that
// the tightest per-minute quota among models is respected.
func (r *Router) BatchPause(models []string, batchSize int) time.Duration {
	if batchSize <= 0 {
		return 0
	}
	tightest := 0
	for _, m := range models {
		rpm := r.PerMinuteLimit(m)
		if rpm > 0 && (tightest == 0 || rpm < tightest) {
			tightest = rpm
		}
	}
	if tightest == 0 {
		return 0
	}
	return time.Duration(batchSize) * time.Minute / time.Duration(tightest)
}

// Status reports every known model with today's usage.
func (r *Router) Status(primary string) []ModelStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	primary = normalize(primary)

	var rows []ModelStatus
	for _, m := range r.knownModels(primary) {
		tier := r.tierOf(m)
		rows = append(rows, ModelStatus{
			Model:     m,
			Tier:      tier.Name,
			DailyCap:  tier.RequestsPerDay,
			Used:      r.entry(m).RequestsUsed,
			Remaining: r.remaining(m),
			PerMinute: tier.RequestsPerMinute,
			Primary:   m == primary,
		})
	}
	return rows
}

// Save writes today's non-zero counters to the budget file.
func (r *Router) Save() error {
	r.mu.Lock()
	today := r.today()
	stored := budgetFile{Entries: []ModelBudgetEntry{}}
	for _, e := range r.entries {
		if e.Date == today && e.RequestsUsed > 0 {
			stored.Entries = append(stored.Entries, *e)
		}
	}
	r.mu.Unlock()

	sort.Slice(stored.Entries, func(i, j int) bool { return stored.Entries[i].Model < stored.Entries[j].Model })
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode budget: %w", err)
	}
	return utils.WriteFileAtomic(r.path, data)
}
