//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package rest

import (
	"context"

	"chatrelay/internal/client/llm"
	"chatrelay/internal/model"
)

type LLMProvider interface {
	Generate(ctx context.Context, prompt string) (llm.GenerateResult, error)
	Stream(ctx context.Context, prompt string, onEvent llm.EventFunc) error
}

type Validator interface {
	ValidateChatRequest(req *model.ChatRequest) error
}
