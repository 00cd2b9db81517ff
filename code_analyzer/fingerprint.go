package code_analyzer

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/token_management"
)

const (
	// MaxImports is the number of imports listed before "(+k more)".
	MaxImports = 10
	// MaxSignatures is the number of declarations listed per fingerprint.
	MaxSignatures = 60
	// MaxParamChars caps the parameter text of a rendered signature.
	MaxParamChars = 60

	fingerprintSeparator = "\n\n"
	noReturnType         = "(no return type)"
)

// GenerateFingerprint builds the compact stand-in for one file. Issues found
// earlier by local checks for the same file become "local:<type>" hotspots.
// It returns nil when the file cannot be read.
func GenerateFingerprint(filePath, cwd string, priorLocalIssues []models.Issue) *models.Fingerprint {
	rel, abs := resolvePath(filePath, cwd)
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil
	}
	content := string(raw)
	language := DetectLanguage(rel)

	hotspots := ExtractHotspots(content)
	for _, issue := range priorLocalIssues {
		if NormalizePath(issue.File) != rel || issue.Line <= 0 {
			continue
		}
		hotspots = append(hotspots, models.Hotspot{
			Line:    issue.Line,
			Label:   "local:" + issue.Type,
			Snippet: snippet(issue.Description),
		})
	}

	fp := &models.Fingerprint{
		Path:       rel,
		Lines:      countLines(content),
		Extension:  path.Ext(rel),
		Imports:    ExtractImports(content, language),
		Signatures: ExtractSignatures(content, language),
		Hotspots:   normalizeHotspots(hotspots),
	}
	fp.Text = renderFingerprint(fp)
	fp.Tokens = token_management.EstimateTokens(fp.Text)
	return fp
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}

func renderFingerprint(fp *models.Fingerprint) string {
	var b strings.Builder
	ext := fp.Extension
	if ext == "" {
		ext = "no extension"
	}
	fmt.Fprintf(&b, "## %s (%d lines, %s)\n", fp.Path, fp.Lines, ext)

	if len(fp.Imports) > 0 {
		shown := fp.Imports
		if len(shown) > MaxImports {
			shown = shown[:MaxImports]
		}
		b.WriteString("imports: " + strings.Join(shown, ", "))
		if extra := len(fp.Imports) - len(shown); extra > 0 {
			fmt.Fprintf(&b, " (+%d more)", extra)
		}
		b.WriteString("\n")
	}

	for i, sig := range fp.Signatures {
		if i == MaxSignatures {
			fmt.Fprintf(&b, "(+%d more declarations)\n", len(fp.Signatures)-MaxSignatures)
			break
		}
		b.WriteString(renderSignature(sig))
		b.WriteString("\n")
	}

	for _, h := range fp.Hotspots {
		fmt.Fprintf(&b, "! L%d [%s] %s\n", h.Line, h.Label, h.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderSignature(sig models.Signature) string {
	if !isCallableKind(sig.Kind) {
		return fmt.Sprintf("%s %s", sig.Kind, sig.Name)
	}
	params := strings.Join(strings.Fields(sig.Params), " ")
	if len(params) > MaxParamChars {
		params = cutAtRune(params, MaxParamChars-3) + "..."
	}
	ret := sig.ReturnType
	if ret == "" {
		ret = noReturnType
	}
	return fmt.Sprintf("%s %s(%s) -> %s", sig.Kind, sig.Name, params, ret)
}

// PackFingerprints groups fingerprints into chunks of at most
// CodeBudgetTokens(model) tokens. Files with the most hotspots go first so
// the riskiest code lands in the earliest requests.
func PackFingerprints(fps []models.Fingerprint, model string) []models.FingerprintChunk {
	if len(fps) == 0 {
		return nil
	}
	budget := token_management.CodeBudgetTokens(model)
	maxChars := budget * token_management.CharsPerToken

	ordered := make([]models.Fingerprint, len(fps))
	copy(ordered, fps)
	sort.SliceStable(ordered, func(i, j int) bool {
		if len(ordered[i].Hotspots) != len(ordered[j].Hotspots) {
			return len(ordered[i].Hotspots) > len(ordered[j].Hotspots)
		}
		return ordered[i].Path < ordered[j].Path
	})

	var (
		chunks  []models.FingerprintChunk
		current []models.Fingerprint
		texts   []string
		length  int
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(texts, fingerprintSeparator)
		chunks = append(chunks, models.FingerprintChunk{
			Index:        len(chunks),
			Fingerprints: current,
			Text:         text,
			Tokens:       token_management.EstimateTokens(text),
			Budget:       budget,
		})
		current, texts, length = nil, nil, 0
	}

	for _, fp := range ordered {
		if len(fp.Text) > maxChars {
			flush()
			fp.Text = truncateWithMarker(fp.Text, maxChars, len(fp.Text))
			fp.Tokens = token_management.EstimateTokens(fp.Text)
			current, texts, length = []models.Fingerprint{fp}, []string{fp.Text}, len(fp.Text)
			flush()
			continue
		}

		next := length + len(fp.Text)
		if len(current) > 0 {
			next += len(fingerprintSeparator)
		}
		if next > maxChars {
			flush()
			next = len(fp.Text)
		}
		current = append(current, fp)
		texts = append(texts, fp.Text)
		length = next
	}
	flush()
	return chunks
}

// RebuildFingerprintChunk packs fps, in order, into one chunk of at most
// budget tokens. When they do not fit every fingerprint is cut to an equal
// share of the budget.
func RebuildFingerprintChunk(fps []models.Fingerprint, budget int) models.FingerprintChunk {
	if budget < 1 {
		budget = 1
	}
	maxChars := budget * token_management.CharsPerToken
	chunk := models.FingerprintChunk{Budget: budget}
	if len(fps) == 0 {
		return chunk
	}

	rebuilt := make([]models.Fingerprint, len(fps))
	copy(rebuilt, fps)
	texts := make([]string, len(rebuilt))
	total := len(fingerprintSeparator) * (len(rebuilt) - 1)
	for i, fp := range rebuilt {
		texts[i] = fp.Text
		total += len(fp.Text)
	}

	if total > maxChars {
		share := (maxChars - len(fingerprintSeparator)*(len(rebuilt)-1)) / len(rebuilt)
		for i := range rebuilt {
			if len(rebuilt[i].Text) > share {
				rebuilt[i].Text = truncateWithMarker(rebuilt[i].Text, share, len(rebuilt[i].Text))
				rebuilt[i].Tokens = token_management.EstimateTokens(rebuilt[i].Text)
			}
			texts[i] = rebuilt[i].Text
		}
	}

	chunk.Fingerprints = rebuilt
	chunk.Text = strings.Join(texts, fingerprintSeparator)
	chunk.Tokens = token_management.EstimateTokens(chunk.Text)
	return chunk
}
