package utils

import (
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// ParseLogLevel maps a config value to a pterm level. Unknown values mean info.
func ParseLogLevel(level string) pterm.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	case "off", "none", "disabled":
		return pterm.LogLevelDisabled
	default:
		return pterm.LogLevelInfo
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewLogger builds the logger shared by all packages. format is "json",
// "text" or empty to choose by terminal: colorful on a TTY, JSON otherwise.
func NewLogger(level, format string, writer io.Writer) *pterm.Logger {
	if writer == nil {
		writer = os.Stderr
	}
	formatter := pterm.LogFormatterColorful
	switch strings.ToLower(format) {
	case "json":
		formatter = pterm.LogFormatterJSON
	case "text":
	default:
		if !IsTerminal(writer) {
			formatter = pterm.LogFormatterJSON
		}
	}
	return pterm.DefaultLogger.
		WithLevel(ParseLogLevel(level)).
		WithWriter(writer).
		WithFormatter(formatter)
}
