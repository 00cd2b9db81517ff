package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, pterm.LogLevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, pterm.LogLevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, pterm.LogLevelDisabled, ParseLogLevel("off"))
	assert.Equal(t, pterm.LogLevelInfo, ParseLogLevel("chatty"))
}

func TestNewLogger_JSONWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", "", &buf)

	logger.Debug("hidden")
	logger.Info("scan finished", logger.Args("issues", 3))

	out := strings.TrimSpace(buf.String())
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "hidden")

	assert.True(t, json.Valid([]byte(out)), out)
	assert.Contains(t, out, "scan finished")
	assert.False(t, IsTerminal(&buf))
}

func TestHighlightCodeAndSourceLine(t *testing.T) {
	content := "package main\n\nfunc main() {\r\n\tpanic(1)\n}\n"

	assert.Equal(t, "panic(1)", SourceLine(content, 4))
	assert.Equal(t, "func main() {", SourceLine(content, 3))
	assert.Empty(t, SourceLine(content, 0))
	assert.Empty(t, SourceLine(content, 99))

	out := HighlightCode("panic(1)", "go", "monokai")
	assert.Contains(t, out, "panic")
}
