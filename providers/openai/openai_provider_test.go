package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/codaiscan/providers/models"
	openai_models "github.com/meysamhadeli/codaiscan/providers/openai/models"
	"github.com/meysamhadeli/codaiscan/token_management"
)

func TestChatCompletionRequest_Success(t *testing.T) {
	var got openai_models.OpenAIChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"{\"issues\":[]}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":900,"completion_tokens":30,"total_tokens":930}}`))
	}))
	defer server.Close()

	tm := token_management.NewTokenManager()
	provider := NewOpenAIChatProvider(&OpenAIConfig{BaseURL: server.URL + "/v1", Model: "gpt-4o", ApiKey: "secret", TokenManagement: tm})

	resp, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []models.Message{{Role: "user", Content: "hi"}},
		Schema:   json.RawMessage(`{"type":"object"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	assert.JSONEq(t, `{"type":"object"}`, string(got.ResponseFormat.JSONSchema.Schema))

	assert.Equal(t, `{"issues":[]}`, resp.Content)
	assert.Equal(t, 930, resp.TokensUsed())
	total, _, _ := tm.GetCurrentTokenUsage()
	assert.Equal(t, 930, total)
}

func TestChatCompletionRequest_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"context length", http.StatusBadRequest, `{"error":{"message":"This model's maximum context length is 8192 tokens","code":"context_length_exceeded"}}`, models.ErrCapacityExceeded},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached"}}`, models.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := NewOpenAIChatProvider(&OpenAIConfig{BaseURL: server.URL})
			_, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestChatCompletionRequest_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	provider := NewOpenAIChatProvider(&OpenAIConfig{BaseURL: server.URL})
	_, err := provider.ChatCompletionRequest(context.Background(), models.ChatRequest{})

	assert.ErrorIs(t, err, models.ErrResponseInvalid)
}
