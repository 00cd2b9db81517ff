package code_analyzer

import (
	"os"
	"sync"
	"time"
)

// CacheStats tracks cache lookups since load or the last reset.
type CacheStats struct {
	TotalRequests int64
	CacheHits     int64
	CacheMisses   int64
	LastResetTime time.Time
	mutex         sync.RWMutex
}

// recordCacheHit increments cache hit counter
func (c *ScanCache) recordCacheHit() {
	if c.stats == nil {
		return
	}
	c.stats.mutex.Lock()
	defer c.stats.mutex.Unlock()
	c.stats.TotalRequests++
	c.stats.CacheHits++
}

// recordCacheMiss increments cache miss counter
func (c *ScanCache) recordCacheMiss() {
	if c.stats == nil {
		return
	}
	c.stats.mutex.Lock()
	defer c.stats.mutex.Unlock()
	c.stats.TotalRequests++
	c.stats.CacheMisses++
}

// GetPerformanceStats returns lookup counters and rates.
func (c *ScanCache) GetPerformanceStats() map[string]interface{} {
	if c.stats == nil {
		return map[string]interface{}{
			"total_requests":    int64(0),
			"cache_hits":        int64(0),
			"cache_misses":      int64(0),
			"hit_rate_percent":  0.0,
			"miss_rate_percent": 0.0,
			"uptime_human":      "0s",
		}
	}

	c.stats.mutex.RLock()
	defer c.stats.mutex.RUnlock()

	hitRate := 0.0
	missRate := 0.0
	if c.stats.TotalRequests > 0 {
		hitRate = float64(c.stats.CacheHits) / float64(c.stats.TotalRequests) * 100
		missRate = float64(c.stats.CacheMisses) / float64(c.stats.TotalRequests) * 100
	}
	uptime := time.Since(c.stats.LastResetTime)

	return map[string]interface{}{
		"total_requests":    c.stats.TotalRequests,
		"cache_hits":        c.stats.CacheHits,
		"cache_misses":      c.stats.CacheMisses,
		"hit_rate_percent":  hitRate,
		"miss_rate_percent": missRate,
		"uptime_human":      uptime.Round(time.Millisecond).String(),
		"last_reset":        c.stats.LastResetTime.Format(time.RFC3339),
	}
}

// ResetPerformanceStats resets all performance counters
func (c *ScanCache) ResetPerformanceStats() {
	if c.stats == nil {
		return
	}
	c.stats.mutex.Lock()
	defer c.stats.mutex.Unlock()

	c.stats.TotalRequests = 0
	c.stats.CacheHits = 0
	c.stats.CacheMisses = 0
	c.stats.LastResetTime = time.Now()
}

// GetCacheStats describes the stored cache: location, size on disk and the
// number of files and issues it holds.
func (c *ScanCache) GetCacheStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	stats["cache_file"] = c.path
	stats["model"] = c.model

	var totalSize int64
	info, err := os.Stat(c.path)
	switch {
	case err == nil:
		totalSize = info.Size()
		stats["last_written"] = info.ModTime().Format(time.RFC3339)
	case !os.IsNotExist(err):
		return nil, err
	}
	stats["total_size"] = totalSize

	c.mutex.RLock()
	issues := 0
	for _, entry := range c.entries {
		issues += len(entry.Issues)
	}
	stats["cached_files"] = len(c.entries)
	stats["cached_issues"] = issues
	c.mutex.RUnlock()

	return stats, nil
}
