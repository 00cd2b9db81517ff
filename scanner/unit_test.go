package scanner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/codaiscan/code_analyzer"
	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
)

func fileRecord(p string, size int) models.FileRecord {
	content := strings.Repeat("x := compute()\n", size/15+1)[:size]
	return models.FileRecord{RelativePath: p, Content: content, OriginalSize: size, Dir: "pkg", Language: "go"}
}

func TestSplit_ManyFilesStayWithinHalfBudget(t *testing.T) {
	var files []models.FileRecord
	for i := 0; i < 30; i++ {
		files = append(files, fileRecord(fmt.Sprintf("pkg/f%02d.go", i), 100))
	}
	parent := workUnit{
		index:    2,
		strategy: models.StrategyDeep,
		chunk:    models.Chunk{Index: 2, Budget: 3000, Files: files, Manifest: "Chunk 3/5 (30 files)"},
	}

	children := parent.split(code_analyzer.NewCodeAnalyzer(t.TempDir(), nil))

	require.Greater(t, len(children), 2, "halves that do not fit are packed into several units")
	seen := make(map[string]int)
	for _, c := range children {
		assert.Equal(t, 2, c.index)
		assert.Equal(t, 1, c.depth)
		assert.Equal(t, 1500, c.chunk.Budget)
		assert.LessOrEqual(t, c.chunk.Cost, c.chunk.Budget-code_analyzer.ManifestReserve(c.chunk.Budget))
		assert.True(t, c.complete())
		for _, f := range c.chunk.Files {
			assert.NotEmpty(t, f.Content)
			seen[f.RelativePath]++
		}
	}
	assert.Len(t, seen, len(files))
	for p, n := range seen {
		assert.Equal(t, 1, n, p)
	}
}

func TestUnitComplete(t *testing.T) {
	emptied := fileRecord("pkg/a.go", 400)
	emptied.Content = ""

	assert.False(t, workUnit{strategy: models.StrategyDeep, chunk: models.Chunk{Files: []models.FileRecord{fileRecord("pkg/b.go", 100), emptied}}}.complete())
	assert.True(t, workUnit{strategy: models.StrategyDeep, chunk: models.Chunk{Files: []models.FileRecord{fileRecord("pkg/b.go", 100), {RelativePath: "pkg/empty.go"}}}}.complete())
	assert.True(t, workUnit{strategy: models.StrategyFingerprint}.complete())
}
