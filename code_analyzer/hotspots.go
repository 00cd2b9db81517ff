package code_analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
)

const (
	// MaxHotspots caps the hotspots kept per fingerprint.
	MaxHotspots = 15
	// MaxSnippetChars caps the source excerpt shown for a hotspot.
	MaxSnippetChars = 80
)

const (
	HotspotSecurity      = "security"
	HotspotErrorHandling = "error-handling"
	HotspotSecret        = "secret"
	HotspotStub          = "stub"
	HotspotDebug         = "debug"
)

type hotspotRule struct {
	label string
	re    *regexp.Regexp
}

var hotspotRules = []hotspotRule{
	{HotspotSecurity, regexp.MustCompile(`\beval\s*\(|\bexec\s*\(|\.innerHTML\s*=|dangerouslySetInnerHTML|\bos\.system\s*\(|shell\s*=\s*True|InsecureSkipVerify:\s*true|Runtime\.getRuntime\(\)\.exec|\bpickle\.loads?\(|\byaml\.load\(|(?i:\b(?:md5|sha1)\.(?:new|sum)\b)|(?i:["'\x60]\s*(?:select|insert|update|delete)\s[^"'\x60]*["'\x60]\s*\+)`)},
	{HotspotErrorHandling, regexp.MustCompile(`catch\s*(?:\([^)]*\))?\s*\{\s*\}|except\s*(?:[\w.]+(?:\s+as\s+\w+)?)?\s*:\s*pass\b|^\s*except\s*:\s*$|\b_\s*=\s*err\b|\.catch\(\s*\(\s*\)\s*=>\s*\{\s*\}\s*\)|\brescue\s*(?:=>\s*\w+)?\s*;?\s*nil\b|\bunwrap\(\)`)},
	{HotspotSecret, regexp.MustCompile(`(?i:\b(?:api[_-]?key|secret|passw(?:or)?d|access[_-]?token|auth[_-]?token|private[_-]?key)\b\s*[:=]+\s*["'][^"'\s]{8,}["'])|AKIA[0-9A-Z]{16}|-----BEGIN [A-Z ]*PRIVATE KEY-----`)},
	{HotspotStub, regexp.MustCompile(`\b(?:TODO|FIXME|XXX|HACK)\b|NotImplemented|(?i:not implemented)|\bunimplemented!\(|\btodo!\(`)},
	{HotspotDebug, regexp.MustCompile(`\bconsole\.(?:log|debug|trace)\(|\bdebugger\b|\bpdb\.set_trace\(|\bbreakpoint\(\)|\bSystem\.(?:out|err)\.print|\bvar_dump\(|\bdbg!\(|\bprintStackTrace\(\)`)},
}

// ExtractHotspots returns the lines matching a risk pattern, deduplicated by
// (line, label), ordered by line and capped at MaxHotspots.
func ExtractHotspots(content string) []models.Hotspot {
	var out []models.Hotspot
	for i, line := range strings.Split(content, "\n") {
		for _, rule := range hotspotRules {
			if rule.re.MatchString(line) {
				out = append(out, models.Hotspot{Line: i + 1, Label: rule.label, Snippet: snippet(line)})
			}
		}
	}
	return normalizeHotspots(out)
}

// normalizeHotspots dedupes by (line, label), sorts by line and applies the cap.
func normalizeHotspots(hotspots []models.Hotspot) []models.Hotspot {
	type key struct {
		line  int
		label string
	}
	seen := make(map[key]bool, len(hotspots))
	out := make([]models.Hotspot, 0, len(hotspots))
	for _, h := range hotspots {
		k := key{h.Line, h.Label}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	if len(out) > MaxHotspots {
		out = out[:MaxHotspots]
	}
	return out
}

func snippet(line string) string {
	s := strings.Join(strings.Fields(line), " ")
	if len(s) <= MaxSnippetChars {
		return s
	}
	return cutAtRune(s, MaxSnippetChars-3) + "..."
}
