package models

import "encoding/json"

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a single non-streaming completion. Model overrides the
// provider's configured model when set; Schema, when set, asks the provider
// to constrain the answer to that JSON schema.
type ChatRequest struct {
	Model    string
	Messages []Message
	Schema   json.RawMessage
}

// ChatResponse carries the model's answer and the tokens it cost.
type ChatResponse struct {
	Model        string
	Content      string
	InputTokens  int
	OutputTokens int
}

// TokensUsed is the sum of input and output tokens.
func (r ChatResponse) TokensUsed() int {
	return r.InputTokens + r.OutputTokens
}

// AIError is the error body returned by OpenAI-compatible endpoints.
type AIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// ErrorMessage extracts a readable message from an error body. It accepts
// the OpenAI shape, Ollama's {"error": "..."} and falls back to the raw text.
func ErrorMessage(body []byte) string {
	var aiErr AIError
	if err := json.Unmarshal(body, &aiErr); err == nil && aiErr.Error.Message != "" {
		return aiErr.Error.Message
	}
	var plain struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &plain); err == nil && plain.Error != "" {
		return plain.Error
	}
	return string(body)
}
