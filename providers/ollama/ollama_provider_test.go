package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/codaiscan/providers/models"
	ollama_models "github.com/meysamhadeli/codaiscan/providers/ollama/models"
	"github.com/meysamhadeli/codaiscan/token_management"
)

func TestChatCompletionRequest_Success(t *testing.T) {
	var got ollama_models.OllamaChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(ollama_models.OllamaChatCompletionResponse{
			Model:           got.Model,
			Message:         ollama_models.Message{Role: "assistant", Content: `{"issues":[]}`},
			Done:            true,
			PromptEvalCount: 120,
			EvalCount:       8,
		})
	}))
	defer server.Close()

	tm := token_management.NewTokenManager()
	provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: server.URL + "/api/", Model: "llama3.1", TokenManagement: tm})

	resp, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{
		Messages: []models.Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "code"}},
		Schema:   json.RawMessage(`{"type":"object"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "llama3.1", got.Model)
	assert.False(t, got.Stream)
	assert.JSONEq(t, `{"type":"object"}`, string(got.Format))
	require.Len(t, got.Messages, 2)

	assert.Equal(t, `{"issues":[]}`, resp.Content)
	assert.Equal(t, 128, resp.TokensUsed())
	total, input, output := tm.GetCurrentTokenUsage()
	assert.Equal(t, []int{128, 120, 8}, []int{total, input, output})
}

func TestChatCompletionRequest_ModelOverride(t *testing.T) {
	var got ollama_models.OllamaChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"[]"},"done":true}`))
	}))
	defer server.Close()

	provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: server.URL + "/api", Model: "llama3.1"})
	_, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{Model: "qwen2.5-coder"})

	require.NoError(t, err)
	assert.Equal(t, "qwen2.5-coder", got.Model)
}

func TestChatCompletionRequest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"too large", http.StatusRequestEntityTooLarge, `{"error":"payload too big"}`, models.ErrCapacityExceeded},
		{"context length text", http.StatusBadRequest, `{"error":"input exceeds context length of 8192"}`, models.ErrCapacityExceeded},
		{"rate limited", http.StatusTooManyRequests, `{"error":"slow down"}`, models.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: server.URL + "/api", Model: "llama3.1"})
			_, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChatCompletionRequest_ServerErrorIsNotClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model crashed"}`))
	}))
	defer server.Close()

	provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: server.URL + "/api"})
	_, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")
	assert.NotErrorIs(t, err, models.ErrCapacityExceeded)
	assert.NotErrorIs(t, err, models.ErrRateLimited)
}

func TestChatCompletionRequest_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer server.Close()

	provider := NewOllamaChatProvider(&OllamaConfig{BaseURL: server.URL + "/api"})
	_, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{})

	assert.ErrorIs(t, err, models.ErrResponseInvalid)
}
