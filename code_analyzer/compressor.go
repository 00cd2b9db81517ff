package code_analyzer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/token_management"
)

// BodyLinesKept is the number of body lines left under a collapsed signature.
const BodyLinesKept = 3

const (
	LevelNone     = 0
	LevelComments = 1
	LevelBodies   = 2
	LevelTruncate = 3
)

// CompressResult is the outcome of CompressFile.
type CompressResult struct {
	Content       string
	Level         int
	OriginalChars int
}

var (
	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRegex  = regexp.MustCompile(`^\s*(?://|#[^!\w]|#$|--\s)`)
)

// CompressFile shrinks content to at most maxChars, trying each level in
// order and returning the first one that fits.
func CompressFile(content, language string, maxChars int) CompressResult {
	return compress(content, language, maxChars, len(content))
}

// compress is CompressFile for content that may already be a reduced form
// of a file of originalChars characters.
func compress(content, language string, maxChars, originalChars int) CompressResult {
	res := CompressResult{Content: content, Level: LevelNone, OriginalChars: originalChars}
	if maxChars <= 0 {
		res.Content = ""
		res.Level = LevelTruncate
		return res
	}
	if len(content) <= maxChars {
		return res
	}

	stripped := collapseBlankLines(stripComments(content, language))
	if len(stripped) <= maxChars {
		res.Content = stripped
		res.Level = LevelComments
		return res
	}

	collapsed := collapseBodies(stripped, language)
	if len(collapsed) <= maxChars {
		res.Content = collapsed
		res.Level = LevelBodies
		return res
	}

	res.Content = truncateWithMarker(collapsed, maxChars, originalChars)
	res.Level = LevelTruncate
	return res
}

// CompressRecord returns a copy of rec whose content fits maxChars.
func CompressRecord(rec models.FileRecord, maxChars int) models.FileRecord {
	original := rec.OriginalSize
	if original < len(rec.Content) {
		original = len(rec.Content)
	}
	res := compress(rec.Content, rec.Language, maxChars, original)
	out := rec
	out.Content = res.Content
	out.Tokens = token_management.EstimateTokens(res.Content)
	if res.Level > rec.CompressionLevel {
		out.CompressionLevel = res.Level
	}
	out.Compressed = out.CompressionLevel > LevelNone
	return out
}

// stripComments removes comment tokens but keeps preprocessor directives and
// the line breaks a comment spanned.
func stripComments(content, language string) string {
	lexer := lexerFor(language)
	if lexer == nil {
		return stripCommentsFallback(content)
	}
	iter, err := lexer.Tokenise(nil, content)
	if err != nil {
		return stripCommentsFallback(content)
	}

	var b strings.Builder
	b.Grow(len(content))
	for _, tok := range iter.Tokens() {
		if tok.Type.InCategory(chroma.Comment) && !tok.Type.InSubCategory(chroma.CommentPreproc) {
			b.WriteString(strings.Repeat("\n", strings.Count(tok.Value, "\n")))
			continue
		}
		b.WriteString(tok.Value)
	}
	out := b.String()
	// Some lexers append a newline the input did not have.
	if !strings.HasSuffix(content, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}

func stripCommentsFallback(content string) string {
	content = blockCommentRegex.ReplaceAllStringFunc(content, func(m string) string {
		return strings.Repeat("\n", strings.Count(m, "\n"))
	})
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lineCommentRegex.MatchString(line) && !strings.HasPrefix(strings.TrimSpace(line), "#include") {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// collapseBlankLines trims trailing whitespace and folds runs of three or
// more blank lines into one.
func collapseBlankLines(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	flush := func() {
		if blank >= 3 {
			blank = 1
		}
		for ; blank > 0; blank-- {
			out = append(out, "")
		}
	}
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			blank++
			continue
		}
		flush()
		out = append(out, line)
	}
	flush()
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

// collapseBodies keeps each callable declaration plus BodyLinesKept lines of
// its body; the rest of the body becomes a single marker line. Containers
// such as classes are kept open so their methods are collapsed one by one.
func collapseBodies(content, language string) string {
	lines := strings.Split(content, "\n")
	starts := make(map[int]bool)
	for _, sig := range ExtractSignatures(content, language) {
		if isCallableKind(sig.Kind) {
			starts[sig.Line-1] = true
		}
	}
	if len(starts) == 0 {
		return content
	}

	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		out = append(out, line)
		if !starts[i] {
			continue
		}

		indent := indentWidth(line)
		end := i + 1
		for end < len(lines) && (strings.TrimSpace(lines[end]) == "" || indentWidth(lines[end]) > indent) {
			end++
		}
		for end > i+1 && strings.TrimSpace(lines[end-1]) == "" {
			end--
		}

		body := lines[i+1 : end]
		if len(body) <= BodyLinesKept+1 {
			continue
		}
		out = append(out, body[:BodyLinesKept]...)
		omitted := body[BodyLinesKept:]
		prefix := leadingWhitespace(omitted[0])
		if prefix == "" {
			prefix = leadingWhitespace(line) + "    "
		}
		out = append(out, fmt.Sprintf("%s... [%d lines collapsed]", prefix, len(omitted)))
		i = end - 1
	}
	return strings.Join(out, "\n")
}

func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// truncateWithMarker cuts content so that content plus the truncation marker
// fits maxChars. When the marker alone is too long it is cut instead.
func truncateWithMarker(content string, maxChars, originalChars int) string {
	if len(content) <= maxChars {
		return content
	}
	marker := fmt.Sprintf("\n... [truncated, original %d chars]", originalChars)
	if len(marker) >= maxChars {
		return cutAtRune(marker, maxChars)
	}
	return cutAtRune(content, maxChars-len(marker)) + marker
}

// cutAtRune returns the longest prefix of s not longer than n bytes that
// does not split a UTF-8 sequence.
func cutAtRune(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
