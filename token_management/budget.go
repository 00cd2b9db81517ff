package token_management

import (
	"strings"
	"sync"
)

const (
	// CharsPerToken is deliberately low so estimates run high: an oversized
	// estimate costs an extra split, an undersized one costs a rejected request.
	CharsPerToken = 3

	// FixedOverheadTokens covers the system prompt, response schema, manifest
	// framing and the reserve left for the model's answer.
	FixedOverheadTokens = 1500

	// MinCodeBudgetTokens is the floor applied when a model limit is degenerate.
	MinCodeBudgetTokens = 1000

	// DefaultInputTokenLimit is used for models missing from the limits table.
	DefaultInputTokenLimit = 8000
)

var (
	limitsMu sync.RWMutex

	// inputTokenLimits holds the documented input ceiling per model id.
	inputTokenLimits = defaultInputTokenLimits()
)

// NormalizeModel lower-cases a model id and drops a "provider/" prefix.
// Every per-model table is keyed by its result.
func NormalizeModel(model string) string {
	model = strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	return model
}

// SetInputTokenLimit registers or overrides the input ceiling of a model.
// Non-positive values are ignored.
func SetInputTokenLimit(model string, tokens int) {
	if tokens <= 0 {
		return
	}
	limitsMu.Lock()
	defer limitsMu.Unlock()
	inputTokenLimits[NormalizeModel(model)] = tokens
}

// InputTokenLimit returns the input-token ceiling for model, falling back to
// DefaultInputTokenLimit for unknown models.
func InputTokenLimit(model string) int {
	limitsMu.RLock()
	defer limitsMu.RUnlock()
	if limit, ok := inputTokenLimits[NormalizeModel(model)]; ok {
		return limit
	}
	return DefaultInputTokenLimit
}

// CodeBudgetTokens is the part of a request left for code once the fixed
// overhead is paid, never below MinCodeBudgetTokens.
func CodeBudgetTokens(model string) int {
	budget := InputTokenLimit(model) - FixedOverheadTokens
	if budget < MinCodeBudgetTokens {
		budget = MinCodeBudgetTokens
	}
	return budget
}

// CodeBudgetChars converts CodeBudgetTokens into characters of code.
func CodeBudgetChars(model string) int {
	return CodeBudgetTokens(model) * CharsPerToken
}

// EstimateTokens approximates tokens as ceil(len(text)/CharsPerToken).
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return (n + CharsPerToken - 1) / CharsPerToken
}
