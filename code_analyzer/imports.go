package code_analyzer

import (
	"regexp"
	"strings"
)

var (
	jsImportFromRegex    = regexp.MustCompile(`(?m)^\s*(?:import|export)\s[^'";]*?\sfrom\s+['"]([^'"]+)['"]`)
	jsSideEffectRegex    = regexp.MustCompile(`(?m)^\s*import\s+['"]([^'"]+)['"]`)
	jsRequireRegex       = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
	jsDynamicImportRegex = regexp.MustCompile(`\bimport\(\s*['"]([^'"]+)['"]\s*\)`)

	pyFromImportRegex = regexp.MustCompile(`(?m)^\s*from\s+(\.*[\w.]*)\s+import\s+([\w*., ()]+)`)
	pyImportRegex     = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)

	goSingleImportRegex = regexp.MustCompile(`(?m)^\s*import\s+(?:[\w.]+\s+)?"([^"]+)"`)
	goImportBlockRegex  = regexp.MustCompile(`(?s)import\s*\((.*?)\)`)
	goImportSpecRegex   = regexp.MustCompile(`(?m)^\s*(?:[\w.]+\s+)?"([^"]+)"`)

	javaImportRegex = regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.]+)(?:\.\*)?\s*;?\s*$`)

	rustUseRegex = regexp.MustCompile(`(?m)^\s*(?:pub\s+)?use\s+((?:crate|super|self)(?:::\w+)+)`)
	rustModRegex = regexp.MustCompile(`(?m)^\s*(?:pub\s+)?mod\s+(\w+)\s*;`)

	cIncludeRegex = regexp.MustCompile(`(?m)^\s*#\s*include\s+"([^"]+)"`)

	rubyRequireRelativeRegex = regexp.MustCompile(`(?m)^\s*require_relative\s+['"]([^'"]+)['"]`)
)

// ExtractImports returns the raw import references found in content, deduped
// in first-seen order. Unknown languages run every pattern.
func ExtractImports(content string, language string) []string {
	var found []string
	switch language {
	case "javascript", "typescript":
		found = extractJSImports(content)
	case "python":
		found = extractPythonImports(content)
	case "go":
		found = extractGoImports(content)
	case "java", "kotlin":
		found = submatches(javaImportRegex, content)
	case "rust":
		found = extractRustImports(content)
	case "c", "cpp":
		found = submatches(cIncludeRegex, content)
	case "ruby":
		found = submatches(rubyRequireRelativeRegex, content)
	default:
		found = append(found, extractJSImports(content)...)
		found = append(found, extractPythonImports(content)...)
		found = append(found, submatches(cIncludeRegex, content)...)
		found = append(found, submatches(rubyRequireRelativeRegex, content)...)
	}
	return dedupe(found)
}

func extractJSImports(content string) []string {
	var out []string
	out = append(out, submatches(jsImportFromRegex, content)...)
	out = append(out, submatches(jsSideEffectRegex, content)...)
	out = append(out, submatches(jsRequireRegex, content)...)
	out = append(out, submatches(jsDynamicImportRegex, content)...)
	return out
}

func extractPythonImports(content string) []string {
	var out []string
	for _, m := range pyFromImportRegex.FindAllStringSubmatch(content, -1) {
		module := m[1]
		// "from . import a, b" names sibling modules.
		if strings.Trim(module, ".") == "" {
			for _, name := range splitNames(m[2]) {
				out = append(out, module+name)
			}
			continue
		}
		out = append(out, module)
	}
	for _, m := range pyImportRegex.FindAllStringSubmatch(content, -1) {
		out = append(out, splitNames(m[1])...)
	}
	return out
}

func extractGoImports(content string) []string {
	out := submatches(goSingleImportRegex, content)
	for _, block := range goImportBlockRegex.FindAllStringSubmatch(content, -1) {
		out = append(out, submatches(goImportSpecRegex, block[1])...)
	}
	return out
}

func extractRustImports(content string) []string {
	out := submatches(rustUseRegex, content)
	for _, m := range rustModRegex.FindAllStringSubmatch(content, -1) {
		out = append(out, "self::"+m[1])
	}
	return out
}

func submatches(re *regexp.Regexp, content string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		if len(m) > 1 && m[1] != "" {
			out = append(out, m[1])
		}
	}
	return out
}

func splitNames(list string) []string {
	list = strings.Trim(strings.TrimSpace(list), "()")
	var out []string
	for _, part := range strings.Split(list, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 || fields[0] == "*" {
			continue
		}
		out = append(out, fields[0])
	}
	return out
}

func dedupe(s []string) []string {
	seen := make(map[string]bool, len(s))
	var out []string
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
