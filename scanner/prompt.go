package scanner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/embed_data"
	provider_models "github.com/meysamhadeli/codaiscan/providers/models"
)

// issuesSchema constrains model answers to {"issues": [...]}.
var issuesSchema = json.RawMessage(embed_data.IssuesSchema)

func systemPrompt(strategy models.ScanStrategy) string {
	if strategy == models.StrategyFingerprint {
		return string(embed_data.ScanFingerprintPrompt)
	}
	return string(embed_data.ScanDeepPrompt)
}

// deepUserMessage renders a chunk as its manifest followed by one fenced
// block per file.
func deepUserMessage(chunk models.Chunk) string {
	var b strings.Builder
	if chunk.Manifest != "" {
		b.WriteString("## Chunk manifest\n")
		b.WriteString(chunk.Manifest)
		b.WriteString("\n\n")
	}
	for _, f := range chunk.Files {
		header := f.RelativePath
		if f.Compressed {
			header += " (compressed)"
		}
		fmt.Fprintf(&b, "### File: %s\n```%s\n%s\n```\n\n", header, f.Language, f.Content)
	}
	return b.String()
}

func fingerprintUserMessage(chunk models.FingerprintChunk) string {
	return "## File fingerprints\n\n" + chunk.Text + "\n"
}

func buildRequest(u workUnit, model string) provider_models.ChatRequest {
	user := ""
	if u.strategy == models.StrategyFingerprint {
		user = fingerprintUserMessage(u.fingerprints)
	} else {
		user = deepUserMessage(u.chunk)
	}
	return provider_models.ChatRequest{
		Model: model,
		Messages: []provider_models.Message{
			{Role: "system", Content: systemPrompt(u.strategy)},
			{Role: "user", Content: user},
		},
		Schema: issuesSchema,
	}
}
