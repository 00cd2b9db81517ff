package contracts

import (
	"context"

	"github.com/meysamhadeli/codaiscan/providers/models"
)

type IChatAIProvider interface {
	ChatCompletionRequest(ctx context.Context, request models.ChatRequest) (*models.ChatResponse, error)
}
