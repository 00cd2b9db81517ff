package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meysamhadeli/codaiscan/providers/contracts"
	"github.com/meysamhadeli/codaiscan/providers/models"
	ollama_models "github.com/meysamhadeli/codaiscan/providers/ollama/models"
	contracts2 "github.com/meysamhadeli/codaiscan/token_management/contracts"
)

// OllamaConfig implements IChatAIProvider for Ollama's chat API.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float32
	MaxTokens       int
	Timeout         time.Duration
	TokenManagement contracts2.ITokenManagement
	client          *http.Client
}

const (
	defaultBaseURL = "http://localhost:11434/api"
	defaultTimeout = 120 * time.Second
	maxErrorBody   = 4 << 10
)

// NewOllamaChatProvider initializes a provider, filling in the default base
// URL and timeout.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OllamaConfig{
		BaseURL:         baseURL,
		Model:           config.Model,
		Temperature:     config.Temperature,
		MaxTokens:       config.MaxTokens,
		Timeout:         timeout,
		TokenManagement: config.TokenManagement,
		client:          &http.Client{Timeout: timeout},
	}
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) (*models.ChatResponse, error) {
	model := request.Model
	if model == "" {
		model = ollamaProvider.Model
	}

	reqBody := ollama_models.OllamaChatCompletionRequest{
		Model:  model,
		Stream: false,
		Format: request.Schema,
	}
	for _, m := range request.Messages {
		reqBody.Messages = append(reqBody.Messages, ollama_models.Message{Role: m.Role, Content: m.Content})
	}
	if ollamaProvider.Temperature != nil || ollamaProvider.MaxTokens > 0 {
		reqBody.Options = &ollama_models.Options{Temperature: ollamaProvider.Temperature, NumPredict: ollamaProvider.MaxTokens}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat", ollamaProvider.BaseURL), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ollamaProvider.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("request canceled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, models.StatusError("ollama", resp.StatusCode, models.ErrorMessage(body))
	}

	var response ollama_models.OllamaChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("error decoding response: %v: %w", err, models.ErrResponseInvalid)
	}

	if ollamaProvider.TokenManagement != nil && (response.PromptEvalCount > 0 || response.EvalCount > 0) {
		ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
	}

	return &models.ChatResponse{
		Model:        model,
		Content:      response.Message.Content,
		InputTokens:  response.PromptEvalCount,
		OutputTokens: response.EvalCount,
	}, nil
}
