package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/meysamhadeli/codaiscan/budget_router"
	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/config"
	"github.com/meysamhadeli/codaiscan/scanner"
)

func sampleResult() *scanner.Result {
	return &scanner.Result{
		RunID:     "run-1",
		Strategy:  models.StrategyDeep,
		ScanLevel: budget_router.ScanLevelFlush,
		Issues: []models.Issue{
			{Type: "bug", Severity: models.SeverityHigh, File: "main.go", Line: 3, Description: "ignored error"},
			{Type: "style", Severity: models.SeverityLow, File: "main.go", Line: 0, Description: "file too long"},
		},
		FilesTotal:   2,
		FilesScanned: 1,
		CacheHits:    1,
		Chunks:       1,
		Requests:     1,
		ModelsUsed:   map[string]int{"gpt-4o": 1},
		TokensUsed:   420,
		Failed:       []scanner.UnitFailure{{Chunk: 2, Files: []string{"big.go"}, Model: "gpt-4o", Error: "rate limited"}},
		Duration:     1500 * time.Millisecond,
	}
}

func TestWriteResult_Text(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n\nfunc main() { os.Remove(\"x\") }\n"), 0644))

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, dir, sampleResult(), "text", "dracula"))
	out := buf.String()

	assert.Contains(t, out, "main.go")
	assert.Contains(t, out, "ignored error")
	assert.Contains(t, out, "L3")
	assert.Contains(t, out, "file too long")
	assert.Contains(t, out, "chunk 2 failed (big.go): rate limited")
	assert.Contains(t, out, "gpt-4o×1")
	assert.Contains(t, out, "Issues: 2")
	assert.Contains(t, out, "Run run-1 in 1.5s")
}

func TestWriteResult_JSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, t.TempDir(), sampleResult(), "json", ""))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Len(t, decoded["issues"], 2)

	buf.Reset()
	require.NoError(t, writeResult(&buf, t.TempDir(), sampleResult(), "yaml", ""))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, "deep", fromYAML["strategy"])
	assert.Equal(t, 420, fromYAML["tokensUsed"])
}

func TestScannerOptions(t *testing.T) {
	cfg := config.DefaultConfig
	cfg.Model = "gpt-4.1"
	cfg.Scan.BatchSize = 4
	cfg.Scan.StaggerMs = 0
	cfg.Scan.Strategy = "Fingerprint"
	cfg.Scan.EnableCache = false

	opts := scannerOptions(&cfg)
	assert.Equal(t, "gpt-4.1", opts.Model)
	assert.Equal(t, 4, opts.BatchSize)
	assert.Zero(t, opts.Stagger)
	assert.Equal(t, 2, opts.MaxSplitDepth)
	assert.Equal(t, models.StrategyFingerprint, opts.Strategy)
	assert.False(t, opts.CacheEnabled)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, "unlimited", limit(0, budget_router.Unlimited))
	assert.Equal(t, "0", limit(50, 0))
	assert.Equal(t, "45", limit(50, 45))
}
