package utils

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// HighlightCode renders code with terminal colors for language. On any
// highlighting error the code is returned unchanged.
func HighlightCode(code string, language string, theme string) string {
	if language == "" {
		language = "plaintext"
	}
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, code, language, "terminal256", theme); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// SourceLine returns line n (1-based) of content, trimmed, or "" when it does
// not exist.
func SourceLine(content string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if n > len(lines) {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(lines[n-1], "\r"))
}
