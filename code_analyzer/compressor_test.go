package code_analyzer

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/token_management"
)

func longGoFunction(lines int) string {
	var b strings.Builder
	b.WriteString("package main\n\nimport \"fmt\"\n\nfunc main() {\n")
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&b, "\tfmt.Println(\"line %d\")\n", i)
	}
	b.WriteString("}\n")
	return b.String()
}

func TestCompressFile_Unchanged(t *testing.T) {
	content := "package main\n\n// hello\nfunc main() {}\n"
	res := CompressFile(content, "go", len(content))

	assert.Equal(t, LevelNone, res.Level)
	assert.Equal(t, content, res.Content)
	assert.Equal(t, len(content), res.OriginalChars)
}

func TestCompressFile_StripsComments(t *testing.T) {
	content := "package main\n\n// Package comment that is fairly long and says nothing.\n" +
		"/* block\n   comment */\nfunc main() {\n\tx := 1 // trailing\n\t_ = x\n}\n\n\n\n\n"
	res := CompressFile(content, "go", len(content)-20)

	require.Equal(t, LevelComments, res.Level)
	assert.NotContains(t, res.Content, "Package comment")
	assert.NotContains(t, res.Content, "block")
	assert.NotContains(t, res.Content, "trailing")
	assert.Contains(t, res.Content, "func main() {")
	assert.Contains(t, res.Content, "x := 1")
	assert.NotContains(t, res.Content, "\n\n\n")
}

func TestCompressFile_KeepsPreprocessorDirectives(t *testing.T) {
	content := "#include <stdio.h>\n#include \"util.h\"\n/* a long explanatory comment about the includes above */\nint main(void) {\n    return 0;\n}\n"
	res := CompressFile(content, "c", len(content)-10)

	require.Equal(t, LevelComments, res.Level)
	assert.Contains(t, res.Content, "#include <stdio.h>")
	assert.Contains(t, res.Content, "#include \"util.h\"")
	assert.NotContains(t, res.Content, "explanatory")
}

func TestCompressFile_FallbackStripping(t *testing.T) {
	content := "// header comment line\ncode one\n/* multi\nline */\ncode two\n# hash comment\n#include kept\n"
	res := CompressFile(content, "", len(content)-5)

	require.Equal(t, LevelComments, res.Level)
	assert.NotContains(t, res.Content, "header comment")
	assert.NotContains(t, res.Content, "multi")
	assert.NotContains(t, res.Content, "hash comment")
	assert.Contains(t, res.Content, "code one")
	assert.Contains(t, res.Content, "code two")
	assert.Contains(t, res.Content, "#include kept")
}

func TestCompressFile_CollapsesBodies(t *testing.T) {
	content := longGoFunction(50)
	res := CompressFile(content, "go", 300)

	require.Equal(t, LevelBodies, res.Level)
	assert.LessOrEqual(t, len(res.Content), 300)
	assert.Contains(t, res.Content, "func main() {")
	assert.Contains(t, res.Content, "fmt.Println(\"line 0\")")
	assert.Contains(t, res.Content, "fmt.Println(\"line 2\")")
	assert.NotContains(t, res.Content, "fmt.Println(\"line 3\")")
	assert.Contains(t, res.Content, "\t... [47 lines collapsed]")
	assert.True(t, strings.HasSuffix(res.Content, "}"))
}

func TestCompressFile_CollapsesMethodsInsideClasses(t *testing.T) {
	var b strings.Builder
	b.WriteString("class Service:\n    def run(self, x):\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "        step_%d = x + %d\n", i, i)
	}
	b.WriteString("\n    def stop(self):\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "        halt_%d = %d\n", i, i)
	}
	content := b.String()

	res := CompressFile(content, "python", len(content)/2)

	require.Equal(t, LevelBodies, res.Level)
	assert.Contains(t, res.Content, "class Service:")
	assert.Contains(t, res.Content, "def run(self, x):")
	assert.Contains(t, res.Content, "def stop(self):")
	assert.Contains(t, res.Content, "        ... [17 lines collapsed]")
	assert.Equal(t, 2, strings.Count(res.Content, "lines collapsed"))
}

func TestCompressFile_Truncates(t *testing.T) {
	content := strings.Repeat("x", 5000)
	res := CompressFile(content, "", 1000)

	require.Equal(t, LevelTruncate, res.Level)
	assert.LessOrEqual(t, len(res.Content), 1000)
	assert.True(t, strings.HasSuffix(res.Content, "\n... [truncated, original 5000 chars]"))
}

func TestCompressFile_TinyLimits(t *testing.T) {
	content := longGoFunction(10)

	for _, limit := range []int{1, 5, 12, 20, 39} {
		res := CompressFile(content, "go", limit)
		assert.Equal(t, LevelTruncate, res.Level)
		assert.LessOrEqual(t, len(res.Content), limit, "limit %d", limit)
	}

	for _, limit := range []int{0, -5} {
		res := CompressFile(content, "go", limit)
		assert.Equal(t, LevelTruncate, res.Level)
		assert.Empty(t, res.Content)
	}
}

func TestCompressFile_NeverSplitsRunes(t *testing.T) {
	content := strings.Repeat("héllo wörld ✓ ", 400)
	for limit := 60; limit < 120; limit++ {
		res := CompressFile(content, "", limit)
		assert.True(t, utf8.ValidString(res.Content), "limit %d", limit)
		assert.LessOrEqual(t, len(res.Content), limit)
	}
}

func TestCompressFile_AlwaysWithinLimit(t *testing.T) {
	inputs := map[string]string{
		"go":         longGoFunction(200),
		"python":     strings.Repeat("def f(a):\n    # note\n    return a\n\n\n\n", 100),
		"javascript": strings.Repeat("function g(x) {\n  // c\n  return x * 2;\n}\n", 150),
		"":           strings.Repeat("plain text line\n", 300),
	}
	for lang, content := range inputs {
		for _, limit := range []int{10, 100, 500, 1000, 2500, len(content)} {
			res := CompressFile(content, lang, limit)
			assert.LessOrEqual(t, len(res.Content), limit, "%q at %d", lang, limit)
		}
	}
}

func TestCompressRecord(t *testing.T) {
	content := longGoFunction(100)
	rec := models.FileRecord{
		RelativePath: "main.go",
		Content:      content,
		OriginalSize: len(content),
		Tokens:       token_management.EstimateTokens(content),
		Language:     "go",
	}

	small := CompressRecord(rec, 400)

	assert.True(t, small.Compressed)
	assert.Equal(t, LevelBodies, small.CompressionLevel)
	assert.Equal(t, token_management.EstimateTokens(small.Content), small.Tokens)
	assert.Less(t, small.Tokens, rec.Tokens)
	assert.Equal(t, len(content), small.OriginalSize)

	// The input record is a value and stays untouched.
	assert.Equal(t, content, rec.Content)
	assert.False(t, rec.Compressed)
}

func TestCompressRecord_MarkerReportsOriginalSize(t *testing.T) {
	// A record already reduced once keeps the size of the file on disk.
	content := strings.Repeat("x", 3000)
	rec := models.FileRecord{
		RelativePath: "data.txt",
		Content:      content,
		OriginalSize: 50000,
		Tokens:       token_management.EstimateTokens(content),
		Compressed:   true,
	}

	out := CompressRecord(rec, 500)

	assert.LessOrEqual(t, len(out.Content), 500)
	assert.Contains(t, out.Content, "original 50000 chars")
	assert.NotContains(t, out.Content, "original 3000 chars")
	assert.Equal(t, 50000, out.OriginalSize)

	// Plain content falls back to its own length.
	res := CompressFile(content, "", 500)
	assert.Contains(t, res.Content, "original 3000 chars")
}
