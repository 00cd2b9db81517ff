package scanner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
)

func TestBuildRequest_Deep(t *testing.T) {
	u := workUnit{strategy: models.StrategyDeep, chunk: models.Chunk{
		Manifest: "Chunk 1/2 (2 files)",
		Files: []models.FileRecord{
			{RelativePath: "a.go", Language: "go", Content: "package a"},
			{RelativePath: "b.py", Language: "python", Content: "x = 1", Compressed: true},
		},
	}}
	req := buildRequest(u, "gpt-4o")

	assert.Equal(t, "gpt-4o", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "### File:")
	user := req.Messages[1].Content
	assert.Contains(t, user, "## Chunk manifest\nChunk 1/2 (2 files)")
	assert.Contains(t, user, "### File: a.go\n```go\npackage a\n```")
	assert.Contains(t, user, "### File: b.py (compressed)\n```python\nx = 1\n```")
	assert.True(t, json.Valid(req.Schema))
}

func TestBuildRequest_Fingerprint(t *testing.T) {
	u := workUnit{strategy: models.StrategyFingerprint, fingerprints: models.FingerprintChunk{Text: "## a.go (3 lines, .go)"}}
	req := buildRequest(u, "gpt-4o-mini")

	assert.Contains(t, req.Messages[0].Content, "fingerprint")
	assert.Equal(t, "## File fingerprints\n\n## a.go (3 lines, .go)\n", req.Messages[1].Content)
}
