package scanner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/meysamhadeli/codaiscan/code_analyzer"
	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	provider_models "github.com/meysamhadeli/codaiscan/providers/models"
)

var codeFence = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")

// flexInt accepts 12, 12.0 and "12".
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexInt(f)
	return nil
}

type rawIssue struct {
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	File        string  `json:"file"`
	Line        flexInt `json:"line"`
	Description string  `json:"description"`
}

type issueEnvelope struct {
	Issues *[]rawIssue `json:"issues"`
}

var severities = map[string]models.Severity{
	"critical": models.SeverityCritical,
	"high":     models.SeverityHigh,
	"medium":   models.SeverityMedium,
	"low":      models.SeverityLow,
	"info":     models.SeverityInfo,
	"warning":  models.SeverityMedium,
	"error":    models.SeverityHigh,
}

// parseIssues decodes a model answer. It accepts {"issues": [...]} or a bare
// array, optionally inside a code fence or surrounded by prose. Issues
// without a file are given unitFiles[0] when the unit holds a single file.
func parseIssues(content string, unitFiles []string) ([]models.Issue, error) {
	raw, ok := decodeIssues(content)
	if !ok {
		return nil, fmt.Errorf("no issue list in model answer: %w", provider_models.ErrResponseInvalid)
	}

	issues := make([]models.Issue, 0, len(raw))
	for _, r := range raw {
		description := strings.TrimSpace(r.Description)
		if description == "" {
			continue
		}
		file := strings.TrimSpace(r.File)
		if file == "" && len(unitFiles) == 1 {
			file = unitFiles[0]
		}
		if file != "" {
			file = code_analyzer.NormalizePath(file)
		}
		line := int(r.Line)
		if line < 0 {
			line = 0
		}
		issueType := strings.ToLower(strings.TrimSpace(r.Type))
		if issueType == "" {
			issueType = "quality"
		}
		issues = append(issues, models.Issue{
			Type:        issueType,
			Severity:    normalizeSeverity(r.Severity),
			File:        file,
			Line:        line,
			Description: description,
		})
	}
	return issues, nil
}

func normalizeSeverity(s string) models.Severity {
	if sev, ok := severities[strings.ToLower(strings.TrimSpace(s))]; ok {
		return sev
	}
	return models.SeverityMedium
}

func decodeIssues(content string) ([]rawIssue, bool) {
	candidates := []string{strings.TrimSpace(content)}
	for _, m := range codeFence.FindAllStringSubmatch(content, -1) {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	for _, c := range candidates {
		if raw, ok := decodeCandidate(c); ok {
			return raw, true
		}
	}
	// Prose around the JSON: try the widest object, then the widest array.
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start, end := strings.Index(content, pair[0]), strings.LastIndex(content, pair[1])
		if start >= 0 && end > start {
			if raw, ok := decodeCandidate(content[start : end+1]); ok {
				return raw, true
			}
		}
	}
	return nil, false
}

func decodeCandidate(s string) ([]rawIssue, bool) {
	if s == "" {
		return nil, false
	}
	var envelope issueEnvelope
	if err := json.Unmarshal([]byte(s), &envelope); err == nil && envelope.Issues != nil {
		return *envelope.Issues, true
	}
	var list []rawIssue
	if err := json.Unmarshal([]byte(s), &list); err == nil {
		return list, true
	}
	return nil, false
}

var severityRank = map[models.Severity]int{
	models.SeverityCritical: 0,
	models.SeverityHigh:     1,
	models.SeverityMedium:   2,
	models.SeverityLow:      3,
	models.SeverityInfo:     4,
}

// sortIssues orders issues by file, line, then severity.
func sortIssues(issues []models.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return severityRank[a.Severity] < severityRank[b.Severity]
	})
}
