package llm

import (
	"context"
	"fmt"

	"chatrelay/internal/model"
)

// GenerateResult is the parsed body of a single-shot completion.
type GenerateResult struct {
	Text string `json:"text"`
}

// EventFunc receives one upstream stream event. Returning a non-nil error
// stops the read loop; the error is propagated to the Stream caller.
type EventFunc func(ev model.StreamEvent) error

type Provider interface {
	Generate(ctx context.Context, prompt string) (GenerateResult, error)
	Stream(ctx context.Context, prompt string, onEvent EventFunc) error
}

// UpstreamError reports a provider call that failed before or outside the
// per-line parse loop: non-2xx status, missing body or a dead connection.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("upstream: %s", e.Message)
}
