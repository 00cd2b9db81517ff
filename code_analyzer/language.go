package code_analyzer

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// extToLanguage maps file extensions to the language hints used by the
// import, signature and compression matchers.
var extToLanguage = map[string]string{
	".go":    "go",
	".py":    "python",
	".pyi":   "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".mts":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".rs":    "rust",
	".zig":   "zig",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".rb":    "ruby",
	".php":   "php",
	".swift": "swift",
}

// chromaNames maps chroma lexer names onto the same hints.
var chromaNames = map[string]string{
	"go":         "go",
	"python":     "python",
	"python 2":   "python",
	"javascript": "javascript",
	"typescript": "typescript",
	"tsx":        "typescript",
	"java":       "java",
	"kotlin":     "kotlin",
	"rust":       "rust",
	"zig":        "zig",
	"c":          "c",
	"c++":        "cpp",
	"c#":         "csharp",
	"ruby":       "ruby",
	"php":        "php",
	"swift":      "swift",
}

// DetectLanguage returns the language hint for a path, or "" when unknown.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extToLanguage[ext]; ok {
		return lang
	}
	lexer := lexers.Match(filepath.Base(path))
	if lexer == nil {
		return ""
	}
	name := strings.ToLower(lexer.Config().Name)
	if lang, ok := chromaNames[name]; ok {
		return lang
	}
	return name
}

// lexerFor returns the chroma lexer for a language hint, nil when chroma has none.
func lexerFor(language string) chroma.Lexer {
	if language == "" {
		return nil
	}
	switch language {
	case "cpp":
		return lexers.Get("c++")
	case "csharp":
		return lexers.Get("c#")
	}
	return lexers.Get(language)
}
