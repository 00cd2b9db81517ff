package code_analyzer

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
)

// SignatureExtractor returns the declarations found in a file's content.
type SignatureExtractor func(content string) []models.Signature

// signaturePattern describes one declaration form. Submatch indices of 0
// mean the part is not captured by this pattern.
type signaturePattern struct {
	kind         string
	indentedKind string
	re           *regexp.Regexp
	name         int
	params       int
	ret          int
}

var notDeclarationNames = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "else": true, "new": true, "sizeof": true, "function": true,
	"elif": true, "do": true, "try": true, "with": true,
}

// patternExtractor scans content line by line; the first pattern matching a
// line wins.
func patternExtractor(patterns ...signaturePattern) SignatureExtractor {
	return func(content string) []models.Signature {
		var out []models.Signature
		for i, line := range strings.Split(content, "\n") {
			for _, p := range patterns {
				m := p.re.FindStringSubmatch(line)
				if m == nil {
					continue
				}
				name := group(m, p.name)
				if notDeclarationNames[name] {
					continue
				}
				kind := p.kind
				if p.indentedKind != "" && line != strings.TrimLeft(line, " \t") {
					kind = p.indentedKind
				}
				out = append(out, models.Signature{
					Kind:       kind,
					Name:       name,
					Line:       i + 1,
					Params:     strings.TrimSpace(group(m, p.params)),
					ReturnType: cleanReturnType(group(m, p.ret)),
				})
				break
			}
		}
		return out
	}
}

func group(m []string, i int) string {
	if i <= 0 || i >= len(m) {
		return ""
	}
	return m[i]
}

func cleanReturnType(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "{")
	s = strings.TrimSuffix(s, ":")
	return strings.TrimSpace(s)
}

var (
	goExtractor = patternExtractor(
		signaturePattern{kind: "method", re: regexp.MustCompile(`^func\s+\(([^)]*)\)\s*(\w+)\s*(?:\[[^\]]*\])?\(([^)]*)\)\s*(.*)$`), name: 2, params: 3, ret: 4},
		signaturePattern{kind: "function", re: regexp.MustCompile(`^func\s+(\w+)\s*(?:\[[^\]]*\])?\(([^)]*)\)\s*(.*)$`), name: 1, params: 2, ret: 3},
		signaturePattern{kind: "struct", re: regexp.MustCompile(`^type\s+(\w+)(?:\[[^\]]*\])?\s+struct\b`), name: 1},
		signaturePattern{kind: "interface", re: regexp.MustCompile(`^type\s+(\w+)(?:\[[^\]]*\])?\s+interface\b`), name: 1},
		signaturePattern{kind: "type", re: regexp.MustCompile(`^type\s+(\w+)\s+\S`), name: 1},
	)

	pythonExtractor = patternExtractor(
		signaturePattern{kind: "function", indentedKind: "method", re: regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(([^)]*)\)?\s*(?:->\s*([^:]+))?`), name: 1, params: 2, ret: 3},
		signaturePattern{kind: "class", re: regexp.MustCompile(`^\s*class\s+(\w+)`), name: 1},
	)

	scriptExtractor = patternExtractor(
		signaturePattern{kind: "function", re: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*(?:<[^>]*>)?\s*\(([^)]*)\)?\s*(?::\s*([^{]+))?`), name: 1, params: 2, ret: 3},
		signaturePattern{kind: "function", re: regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:\(([^)]*)\)|\w+)\s*(?::\s*([^=]+?))?\s*=>`), name: 1, params: 2, ret: 3},
		signaturePattern{kind: "class", re: regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`), name: 1},
		signaturePattern{kind: "interface", re: regexp.MustCompile(`^\s*(?:export\s+)?interface\s+(\w+)`), name: 1},
		signaturePattern{kind: "type", re: regexp.MustCompile(`^\s*(?:export\s+)?type\s+(\w+)\s*(?:<[^>]*>)?\s*=`), name: 1},
		signaturePattern{kind: "method", re: regexp.MustCompile(`^\s+(?:(?:public|private|protected|static|async|readonly|override|get|set)\s+)*(\w+)\s*\(([^)]*)\)\s*(?::\s*([^{]+))?\{\s*$`), name: 1, params: 2, ret: 3},
	)

	jvmExtractor = patternExtractor(
		signaturePattern{kind: "class", re: regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|final|abstract|sealed|partial|data|open|enum|annotation)\s+)*(?:class|record|object)\s+(\w+)`), name: 1},
		signaturePattern{kind: "interface", re: regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|sealed|fun)\s+)*interface\s+(\w+)`), name: 1},
		signaturePattern{kind: "enum", re: regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static)\s+)*enum\s+(\w+)`), name: 1},
		signaturePattern{kind: "function", indentedKind: "method", re: regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|override|suspend|inline|open|abstract|operator)\s+)*fun\s+(?:<[^>]*>\s*)?(?:[\w.]+\.)?(\w+)\s*\(([^)]*)\)?\s*(?::\s*([\w<>?,.\[\] ]+))?`), name: 1, params: 2, ret: 3},
		signaturePattern{kind: "method", re: regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|final|abstract|synchronized|override|virtual|async|native|sealed|extern|unsafe|new)\s+)+([\w<>\[\],.?]+(?:\s*<[^>]*>)?)\s+(\w+)\s*(?:<[^>]*>)?\s*\(([^)]*)\)?`), name: 2, params: 3, ret: 1},
	)

	rustExtractor = patternExtractor(
		signaturePattern{kind: "function", indentedKind: "method", re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+(\w+)\s*(?:<[^>]*>)?\s*\(([^)]*)\)?\s*(?:->\s*([^{;]+))?`), name: 1, params: 2, ret: 3},
		signaturePattern{kind: "struct", re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+(\w+)`), name: 1},
		signaturePattern{kind: "enum", re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+(\w+)`), name: 1},
		signaturePattern{kind: "trait", re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:unsafe\s+)?trait\s+(\w+)`), name: 1},
		signaturePattern{kind: "impl", re: regexp.MustCompile(`^\s*impl(?:\s*<[^>]*>)?\s+(?:[\w:]+(?:<[^>]*>)?\s+for\s+)?(\w+)`), name: 1},
		signaturePattern{kind: "module", re: regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?mod\s+(\w+)\s*\{`), name: 1},
	)

	zigExtractor = patternExtractor(
		signaturePattern{kind: "test", re: regexp.MustCompile(`^\s*test\s+"([^"]+)"`), name: 1},
		signaturePattern{kind: "struct", re: regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)\s*=\s*(?:packed\s+|extern\s+)?struct`), name: 1},
		signaturePattern{kind: "enum", re: regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)\s*=\s*enum`), name: 1},
		signaturePattern{kind: "union", re: regexp.MustCompile(`^\s*(?:pub\s+)?const\s+(\w+)\s*=\s*(?:packed\s+|extern\s+)?union`), name: 1},
		signaturePattern{kind: "function", re: regexp.MustCompile(`^\s*(?:pub\s+)?(?:export\s+|inline\s+)?fn\s+(\w+)\s*\(([^)]*)\)?\s*([^{]*)`), name: 1, params: 2, ret: 3},
	)

	cExtractor = patternExtractor(
		signaturePattern{kind: "struct", re: regexp.MustCompile(`^(?:typedef\s+)?(?:struct|class|union)\s+(\w+)\s*(?:[:{]|$)`), name: 1},
		signaturePattern{kind: "function", re: regexp.MustCompile(`^(?:(?:static|inline|extern|const|unsigned|signed|virtual)\s+)*([\w:<>]+(?:\s*[*&]+)?)\s+[*&]*([\w:~]+)\s*\(([^;]*?)\)?\s*(?:const\s*)?\{?\s*$`), name: 2, params: 3, ret: 1},
	)

	rubyExtractor = patternExtractor(
		signaturePattern{kind: "function", indentedKind: "method", re: regexp.MustCompile(`^\s*def\s+(?:self\.)?(\w+[?!=]?)\s*(?:\(([^)]*)\)?)?`), name: 1, params: 2},
		signaturePattern{kind: "class", re: regexp.MustCompile(`^\s*class\s+([\w:]+)`), name: 1},
		signaturePattern{kind: "module", re: regexp.MustCompile(`^\s*module\s+([\w:]+)`), name: 1},
	)

	genericExtractor = patternExtractor(
		signaturePattern{kind: "function", re: regexp.MustCompile(`^\s*(?:export\s+)?(?:pub\s+)?(?:public\s+|private\s+|static\s+)*(?:async\s+)?(?:func|def|function|fn|fun|sub|proc)\s+(\w+)\s*\(([^)]*)\)?`), name: 1, params: 2},
		signaturePattern{kind: "class", re: regexp.MustCompile(`^\s*(?:export\s+)?(?:public\s+)?(?:abstract\s+)?(?:class|struct|interface|trait|module)\s+(\w+)`), name: 1},
	)
)

var (
	extractorsMu        sync.RWMutex
	signatureExtractors = map[string]SignatureExtractor{
		"go":         goExtractor,
		"python":     pythonExtractor,
		"javascript": scriptExtractor,
		"typescript": scriptExtractor,
		"java":       jvmExtractor,
		"kotlin":     jvmExtractor,
		"csharp":     jvmExtractor,
		"rust":       rustExtractor,
		"zig":        zigExtractor,
		"c":          cExtractor,
		"cpp":        cExtractor,
		"ruby":       rubyExtractor,
	}
)

// RegisterSignatureExtractor installs fn for language, replacing any
// built-in extractor.
func RegisterSignatureExtractor(language string, fn SignatureExtractor) {
	extractorsMu.Lock()
	defer extractorsMu.Unlock()
	signatureExtractors[strings.ToLower(language)] = fn
}

// ExtractSignatures runs the extractor registered for languageHint, or the
// generic one, and returns declarations ordered by line.
func ExtractSignatures(content string, languageHint string) []models.Signature {
	extractorsMu.RLock()
	fn, ok := signatureExtractors[strings.ToLower(languageHint)]
	extractorsMu.RUnlock()
	if !ok {
		fn = genericExtractor
	}

	sigs := fn(content)
	sort.SliceStable(sigs, func(i, j int) bool { return sigs[i].Line < sigs[j].Line })
	return sigs
}

// isCallableKind reports whether a declaration has a body worth collapsing.
func isCallableKind(kind string) bool {
	switch kind {
	case "function", "method", "test":
		return true
	}
	return false
}
