package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/meysamhadeli/codaiscan/providers/contracts"
	"github.com/meysamhadeli/codaiscan/providers/ollama"
	"github.com/meysamhadeli/codaiscan/providers/openai"
	contracts2 "github.com/meysamhadeli/codaiscan/token_management/contracts"
)

type AIProviderConfig struct {
	Provider        string
	BaseURL         string
	Model           string
	ApiKey          string
	Temperature     *float32
	MaxTokens       int
	Timeout         time.Duration
	TokenManagement contracts2.ITokenManagement
}

// ChatProviderFactory creates the chat provider named by config.Provider.
func ChatProviderFactory(config *AIProviderConfig) (contracts.IChatAIProvider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "":
		return openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			ApiKey:          config.ApiKey,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			Timeout:         config.Timeout,
			TokenManagement: config.TokenManagement,
		}), nil
	case "ollama":
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			MaxTokens:       config.MaxTokens,
			Timeout:         config.Timeout,
			TokenManagement: config.TokenManagement,
		}), nil
	default:
		return nil, fmt.Errorf("provider '%s' is not supported", config.Provider)
	}
}
