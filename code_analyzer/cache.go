package code_analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/utils"
)

const (
	// CacheVersion is bumped whenever the stored issue format changes.
	CacheVersion  = 1
	CacheDirName  = ".codai-scan"
	CacheFileName = "cache.json"
)

// CacheEntry holds the issues found for one file at one content hash.
type CacheEntry struct {
	Hash      string              `json:"hash"`
	Issues    []models.Issue      `json:"issues"`
	Strategy  models.ScanStrategy `json:"strategy"`
	ScannedAt time.Time           `json:"scannedAt"`
}

type cacheFile struct {
	Version int                   `json:"version"`
	Model   string                `json:"model"`
	Entries map[string]CacheEntry `json:"entries"`
}

// ScanCache is the per-project store of earlier results, keyed by relative
// path. It is loaded once per scan, updated in memory and saved explicitly.
type ScanCache struct {
	cwd     string
	path    string
	model   string
	entries map[string]CacheEntry
	stats   *CacheStats
	now     func() time.Time
	mutex   sync.RWMutex
}

// CachePartition splits a file list into results answered from the cache
// and files that still need a model call.
type CachePartition struct {
	CachedIssues  []models.Issue
	UncachedFiles []string
	CacheHits     int
	Cache         *ScanCache
}

// CachePath returns the cache file location for a project root.
func CachePath(cwd string) string {
	return filepath.Join(cwd, CacheDirName, CacheFileName)
}

// HashContent returns the hex xxh3 digest used to detect changed files.
func HashContent(content []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(content))
}

// LoadScanCache reads the cache for cwd. A missing or unreadable file, or
// one written by another version or for another model, yields an empty
// cache.
func LoadScanCache(cwd, model string) *ScanCache {
	cache := &ScanCache{
		cwd:     cwd,
		path:    CachePath(cwd),
		model:   model,
		entries: make(map[string]CacheEntry),
		stats:   &CacheStats{LastResetTime: time.Now()},
		now:     time.Now,
	}

	data, err := os.ReadFile(cache.path)
	if err != nil {
		return cache
	}
	var stored cacheFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return cache
	}
	if stored.Version != CacheVersion || stored.Model != model || stored.Entries == nil {
		return cache
	}
	cache.entries = stored.Entries
	return cache
}

// Model is the model the cached results were produced with.
func (c *ScanCache) Model() string {
	return c.model
}

// Len returns the number of cached files.
func (c *ScanCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Lookup returns the entry for rel when its hash matches and its strategy
// can answer a request for want.
func (c *ScanCache) Lookup(rel, hash string, want models.ScanStrategy) (CacheEntry, bool) {
	c.mutex.RLock()
	entry, ok := c.entries[rel]
	c.mutex.RUnlock()

	if !ok || entry.Hash != hash || !entry.Strategy.Satisfies(want) {
		c.recordCacheMiss()
		return CacheEntry{}, false
	}
	c.recordCacheHit()
	return entry, true
}

// Set stores an entry for rel.
func (c *ScanCache) Set(rel string, entry CacheEntry) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[NormalizePath(rel)] = entry
}

// PriorIssues returns the stored issues of filePaths whether or not their
// entries are still fresh. Fingerprints use them as hints.
func (c *ScanCache) PriorIssues(filePaths []string) []models.Issue {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	var issues []models.Issue
	for _, p := range filePaths {
		rel, _ := resolvePath(p, c.cwd)
		if entry, ok := c.entries[rel]; ok {
			issues = append(issues, entry.Issues...)
		}
	}
	return issues
}

// Partition answers what it can of filePaths from the cache. Unreadable
// files are reported as uncached so the scan decides what to do with them.
func (c *ScanCache) Partition(filePaths []string, strategy models.ScanStrategy) CachePartition {
	part := CachePartition{Cache: c}
	for _, p := range filePaths {
		rel, abs := resolvePath(p, c.cwd)
		content, err := os.ReadFile(abs)
		if err != nil {
			part.UncachedFiles = append(part.UncachedFiles, rel)
			continue
		}
		entry, ok := c.Lookup(rel, HashContent(content), strategy)
		if !ok {
			part.UncachedFiles = append(part.UncachedFiles, rel)
			continue
		}
		part.CacheHits++
		part.CachedIssues = append(part.CachedIssues, entry.Issues...)
	}
	return part
}

// PartitionByCache loads the cache for cwd and model and partitions filePaths.
func PartitionByCache(filePaths []string, cwd, model string, strategy models.ScanStrategy) CachePartition {
	return LoadScanCache(cwd, model).Partition(filePaths, strategy)
}

// UpdateCacheEntries records issues for every scanned file, including files
// for which the model reported nothing. Files that cannot be read are left
// untouched.
func UpdateCacheEntries(cache *ScanCache, issues []models.Issue, filePaths []string, cwd string, strategy models.ScanStrategy) {
	if cache == nil {
		return
	}
	byFile := make(map[string][]models.Issue)
	for _, issue := range issues {
		rel, _ := resolvePath(issue.File, cwd)
		byFile[rel] = append(byFile[rel], issue)
	}

	now := cache.now()
	for _, p := range filePaths {
		rel, abs := resolvePath(p, cwd)
		content, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		fileIssues := byFile[rel]
		if fileIssues == nil {
			fileIssues = []models.Issue{}
		}
		cache.Set(rel, CacheEntry{
			Hash:      HashContent(content),
			Issues:    fileIssues,
			Strategy:  strategy,
			ScannedAt: now,
		})
	}
}

// SaveCache drops entries for files that no longer exist and writes the
// cache atomically.
func SaveCache(cache *ScanCache) error {
	if cache == nil {
		return nil
	}
	cache.mutex.Lock()
	for rel := range cache.entries {
		if _, err := os.Stat(filepath.Join(cache.cwd, filepath.FromSlash(rel))); os.IsNotExist(err) {
			delete(cache.entries, rel)
		}
	}
	data, err := json.MarshalIndent(cacheFile{
		Version: CacheVersion,
		Model:   cache.model,
		Entries: cache.entries,
	}, "", "  ")
	cache.mutex.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode scan cache: %w", err)
	}
	return utils.WriteFileAtomic(cache.path, data)
}

// ClearCache removes the cache file and empties the in-memory entries.
func (c *ScanCache) ClearCache() error {
	c.mutex.Lock()
	c.entries = make(map[string]CacheEntry)
	c.mutex.Unlock()
	c.ResetPerformanceStats()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}
