package code_analyzer

import (
	"fmt"
	"math/rand"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/token_management"
)

func record(p string, size int) models.FileRecord {
	line := "let value = compute(input);\n"
	content := strings.Repeat(line, size/len(line)+1)[:size]
	return models.FileRecord{
		RelativePath: p,
		Content:      content,
		OriginalSize: size,
		Tokens:       token_management.EstimateTokens(content),
		Dir:          path.Dir(p),
		Language:     "javascript",
	}
}

func assertChunkInvariants(t *testing.T, chunks []models.Chunk, records []models.FileRecord) {
	t.Helper()
	seen := make(map[string]int)
	for _, c := range chunks {
		cost := 0
		for _, f := range c.Files {
			cost += len(f.Content) + FileHeaderOverhead
			seen[f.RelativePath]++
		}
		assert.Equal(t, cost, c.Cost, "chunk %d cost", c.Index)
		assert.LessOrEqual(t, c.Cost, c.Budget-ManifestReserve(c.Budget), "chunk %d over capacity", c.Index)
		assert.LessOrEqual(t, c.Cost+len(c.Manifest), c.Budget, "chunk %d over budget", c.Index)
	}
	require.Len(t, seen, len(records), "every file lands in a chunk")
	for p, n := range seen {
		assert.Equal(t, 1, n, "%s assigned %d times", p, n)
	}
}

func TestPrepareChunks_ImportPairSharesChunk(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/a.js": "import { helper } from './b'\n\nexport const run = () => helper(1)\n",
		"src/b.js": "export function helper(x) {\n  return x + 1\n}\n",
	})

	chunks := PrepareChunks([]string{"src/a.js", "src/b.js"}, dir, "gpt-4o")

	require.Len(t, chunks, 1)
	assert.ElementsMatch(t, []string{"src/a.js", "src/b.js"}, chunks[0].Paths())
	assert.Equal(t, token_management.CodeBudgetChars("gpt-4o"), chunks[0].Budget)
	assert.Contains(t, chunks[0].Manifest, "Chunk 1/1")
}

func TestPrepareChunks_OversizedFileIsCompressed(t *testing.T) {
	content := longGoFunction(8000)
	dir := writeProject(t, map[string]string{"main.go": content})
	require.Greater(t, len(content), token_management.CodeBudgetChars("gpt-4o"))

	chunks := PrepareChunks([]string{"main.go"}, dir, "gpt-4o")

	require.Len(t, chunks, 1)
	require.Len(t, chunks[0].Files, 1)
	f := chunks[0].Files[0]
	assert.True(t, f.Compressed)
	assert.GreaterOrEqual(t, f.CompressionLevel, LevelComments)
	assert.Equal(t, token_management.EstimateTokens(f.Content), f.Tokens)
	assert.Equal(t, len(content), f.OriginalSize)
	assert.LessOrEqual(t, chunks[0].Cost, chunks[0].Budget)
}

func TestAssembleChunks_KeepsNeighborsTogether(t *testing.T) {
	records := []models.FileRecord{
		record("y/d.js", 1000),
		record("x/b.js", 1000),
		record("y/c.js", 1000),
		record("x/a.js", 1000),
	}
	g := NewDependencyGraph()
	for _, r := range records {
		g.AddNode(r.RelativePath)
	}
	g.AddEdge("x/a.js", "x/b.js")
	g.AddEdge("x/a.js", "y/c.js")
	g.AddEdge("y/c.js", "y/d.js")

	// Room for two files per chunk, not three.
	chunks := AssembleChunks(records, g, 2500)

	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"x/a.js", "x/b.js"}, chunks[0].Paths())
	assert.Equal(t, []string{"y/c.js", "y/d.js"}, chunks[1].Paths())
	assertChunkInvariants(t, chunks, records)

	assert.Contains(t, chunks[0].Manifest, "Chunk 1/2")
	assert.Contains(t, chunks[0].Manifest, "x (2)")
	assert.Contains(t, chunks[0].Manifest, "Related files in other chunks:")
	assert.Contains(t, chunks[0].Manifest, "y/c.js (chunk 2) <-> x/a.js")
	assert.Contains(t, chunks[1].Manifest, "x/a.js (chunk 1) <-> y/c.js")
}

func TestAssembleChunks_FillsWithSiblingsThenSmallFiles(t *testing.T) {
	records := []models.FileRecord{
		record("api/big.js", 3000),
		record("api/small.js", 200),
		record("db/tiny.js", 100),
		record("db/huge.js", 4000),
	}
	chunks := AssembleChunks(records, NewDependencyGraph(), 6000)

	assertChunkInvariants(t, chunks, records)
	require.Len(t, chunks, 2)
	// Anchor api/big.js pulls its directory sibling, then the smallest leftover.
	assert.Equal(t, []string{"api/big.js", "api/small.js", "db/tiny.js"}, chunks[0].Paths())
	assert.Equal(t, []string{"db/huge.js"}, chunks[1].Paths())
}

func TestAssembleChunks_Invariants(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	dirs := []string{"api", "core", "db", "ui", "util"}
	var records []models.FileRecord
	for i := 0; i < 60; i++ {
		records = append(records, record(fmt.Sprintf("%s/f%02d.js", dirs[i%len(dirs)], i), 100+r.Intn(9000)))
	}
	g := NewDependencyGraph()
	for _, rec := range records {
		g.AddNode(rec.RelativePath)
	}
	for i := 0; i < 80; i++ {
		g.AddEdge(records[r.Intn(len(records))].RelativePath, records[r.Intn(len(records))].RelativePath)
	}

	for _, budget := range []int{3000, 8000, 19500, 60000} {
		chunks := AssembleChunks(records, g, budget)
		assertChunkInvariants(t, chunks, records)
		for i, c := range chunks {
			assert.Equal(t, i, c.Index)
			assert.Equal(t, budget, c.Budget)
		}
	}
}

func TestAssembleChunks_Empty(t *testing.T) {
	assert.Empty(t, AssembleChunks(nil, NewDependencyGraph(), 10000))
}

func TestRebuildChunk_FitsHalfBudget(t *testing.T) {
	files := []models.FileRecord{
		record("a.js", 3000),
		record("b.js", 3000),
		record("c.js", 3000),
		record("d.js", 120),
	}
	chunks := RebuildChunk(files, 6000, "Chunk 1/1 (4 files)\nDirectories: . (4)")

	require.Len(t, chunks, 1)
	chunk := chunks[0]
	require.Len(t, chunk.Files, 4)
	assert.LessOrEqual(t, chunk.Cost, 6000-ManifestReserve(6000))
	assert.Equal(t, files[3].Content, chunk.Files[3].Content, "small files keep their content")
	assert.True(t, chunk.Files[0].Compressed)

	cost := 0
	for _, f := range chunk.Files {
		cost += len(f.Content) + FileHeaderOverhead
	}
	assert.Equal(t, cost, chunk.Cost)
	assert.Equal(t, "Chunk 1/1 (4 files)\nDirectories: . (4)", chunk.Manifest)
}

func TestRebuildChunk_ManyFilesStayWithinBudget(t *testing.T) {
	cases := []struct {
		name   string
		count  int
		size   int
		budget int
	}{
		{"many small files", 30, 100, 1500},
		{"many medium files", 20, 400, 2000},
		{"fair share", 6, 2000, 3000},
		{"below minimum budget", 5, 300, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var files []models.FileRecord
			for i := 0; i < tc.count; i++ {
				files = append(files, record(fmt.Sprintf("src/f%02d.js", i), tc.size))
			}

			chunks := RebuildChunk(files, tc.budget, "Chunk 2/4 (60 files)")

			require.NotEmpty(t, chunks)
			assertChunkInvariants(t, chunks, files)
			for _, c := range chunks {
				for _, f := range c.Files {
					assert.NotEmpty(t, f.Content, "%s lost its content", f.RelativePath)
				}
			}
		})
	}
}

func TestRebuildChunk_Empty(t *testing.T) {
	assert.Empty(t, RebuildChunk(nil, 6000, "Chunk 1/1"))
}

func TestTruncateManifest(t *testing.T) {
	manifest := "Chunk 1/3 (40 files)\nDirectories: a (10), b (30)\nRelated files in other chunks:\n" +
		strings.Repeat("- some/other/file.go (chunk 2) <-> local/file.go\n", 40)

	out := truncateManifest(manifest, 300)
	assert.LessOrEqual(t, len(out), 300)
	assert.True(t, strings.HasSuffix(out, "... [manifest truncated]"))
	assert.True(t, strings.HasPrefix(out, "Chunk 1/3"))

	assert.Equal(t, "short", truncateManifest("short", 300))
	assert.LessOrEqual(t, len(truncateManifest(manifest, 10)), 10)
}
