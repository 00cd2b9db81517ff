package openai

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
	openai_models "github.com/meysamhadeli/codaiscan/providers/openai/models"
	contracts2 "github.com/meysamhadeli/codaiscan/token_management/contracts"
)

// OpenAIConfig implements IChatAIProvider for OpenAI-compatible endpoints.
type OpenAIConfig struct {
	BaseURL         string
	Model           string
	ApiKey          string
	Temperature     *float32
	MaxTokens       int
	Timeout         time.Duration
	TokenManagement contracts2.ITokenManagement
	client          *http.Client
}

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
	maxErrorBody   = 4 << 10
	schemaName     = "scan_issues"
)

// NewOpenAIChatProvider initializes a provider, filling in the default base
// URL and timeout.
func NewOpenAIChatProvider(config *OpenAIConfig) contracts.IChatAIProvider {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OpenAIConfig{
		BaseURL:         baseURL,
		Model:           config.Model,
		ApiKey:          config.ApiKey,
		Temperature:     config.Temperature,
		MaxTokens:       config.MaxTokens,
		Timeout:         timeout,
		TokenManagement: config.TokenManagement,
		client:          &http.Client{Timeout: timeout},
	}
}

func (openAIProvider *OpenAIConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) (*models.ChatResponse, error) {
	model := request.Model
	if model == "" {
		model = openAIProvider.Model
	}

	reqBody := openai_models.OpenAIChatCompletionRequest{
		Model:       model,
		Stream:      false,
		Temperature: openAIProvider.Temperature,
		MaxTokens:   openAIProvider.MaxTokens,
	}
	for _, m := range request.Messages {
		reqBody.Messages = append(reqBody.Messages, openai_models.Message{Role: m.Role, Content: m.Content})
	}
	if len(request.Schema) > 0 {
		reqBody.ResponseFormat = &openai_models.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: &openai_models.JSONSchema{Name: schemaName, Schema: request.Schema},
		}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/chat/completions", openAIProvider.BaseURL), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if openAIProvider.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+openAIProvider.ApiKey)
	}

	resp, err := openAIProvider.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("request canceled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, models.StatusError("openai", resp.StatusCode, models.ErrorMessage(body))
	}

	var response openai_models.OpenAIChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("error decoding response: %v: %w", err, models.ErrResponseInvalid)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response: %w", models.ErrResponseInvalid)
	}
	if response.Choices[0].FinishReason == "length" && response.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("model stopped before answering: %w", models.ErrCapacityExceeded)
	}

	result := &models.ChatResponse{Model: model, Content: response.Choices[0].Message.Content}
	if response.Usage != nil {
		result.InputTokens = response.Usage.PromptTokens
		result.OutputTokens = response.Usage.CompletionTokens
		if openAIProvider.TokenManagement != nil {
			openAIProvider.TokenManagement.UsedTokens(result.InputTokens, result.OutputTokens)
		}
	}
	return result, nil
}
