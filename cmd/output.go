package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meysamhadeli/codaiscan/code_analyzer"
	"github.com/meysamhadeli/codaiscan/constants/lipgloss"
	"github.com/meysamhadeli/codaiscan/scanner"
	"github.com/meysamhadeli/codaiscan/utils"
)

// writeResult prints result as text, json or yaml.
func writeResult(w io.Writer, cwd string, result *scanner.Result, format, theme string) error {
	switch format {
	case "json":
		return writeJSON(w, result)
	case "yaml":
		return writeYAML(w, result)
	default:
		writeText(w, cwd, result, theme)
		return nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeText(w io.Writer, cwd string, result *scanner.Result, theme string) {
	// Issues arrive sorted by file, so one header per run of the same file.
	var (
		current string
		content string
	)
	for _, issue := range result.Issues {
		if issue.File != current {
			current = issue.File
			content = readSource(cwd, current)
			fmt.Fprintln(w)
			fmt.Fprintln(w, lipgloss.Info.Render(current))
		}
		severity := lipgloss.SeverityStyle(string(issue.Severity)).Render(fmt.Sprintf("%-8s", issue.Severity))
		location := "     "
		if issue.Line > 0 {
			location = fmt.Sprintf("L%-4d", issue.Line)
		}
		fmt.Fprintf(w, "  %s %s %s %s\n", lipgloss.Gray.Render(location), severity, issue.Type, issue.Description)
		if line := utils.SourceLine(content, issue.Line); line != "" {
			fmt.Fprintf(w, "        %s\n", utils.HighlightCode(line, code_analyzer.DetectLanguage(current), theme))
		}
	}
	if len(result.Issues) > 0 {
		fmt.Fprintln(w)
	}

	for _, f := range result.Failed {
		fmt.Fprintln(w, lipgloss.Red.Render(fmt.Sprintf("chunk %d failed (%s): %s", f.Chunk, strings.Join(f.Files, ", "), f.Error)))
	}

	fmt.Fprintln(w, lipgloss.BoxStyle.Render(summary(result)))
}

func summary(result *scanner.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Issues: %d   Files: %d (scanned %d, cached %d)\n",
		len(result.Issues), result.FilesTotal, result.FilesScanned, result.CacheHits)
	fmt.Fprintf(&b, "Strategy: %s   Budget: %s   Chunks: %d   Requests: %d   Tokens: %d\n",
		result.Strategy, result.ScanLevel, result.Chunks, result.Requests, result.TokensUsed)

	if len(result.ModelsUsed) > 0 {
		names := make([]string, 0, len(result.ModelsUsed))
		for m := range result.ModelsUsed {
			names = append(names, m)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, m := range names {
			parts = append(parts, fmt.Sprintf("%s×%d", m, result.ModelsUsed[m]))
		}
		fmt.Fprintf(&b, "Models: %s\n", strings.Join(parts, ", "))
	}
	if len(result.Failed) > 0 {
		b.WriteString(lipgloss.Red.Render(fmt.Sprintf("Failed chunks: %d", len(result.Failed))) + "\n")
	}
	fmt.Fprintf(&b, "Run %s in %s", result.RunID, result.Duration.Round(time.Millisecond))
	return b.String()
}

func readSource(cwd, rel string) string {
	data, err := os.ReadFile(filepath.Join(cwd, filepath.FromSlash(rel)))
	if err != nil {
		return ""
	}
	return string(data)
}
