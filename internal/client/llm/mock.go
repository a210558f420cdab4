package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatrelay/internal/model"
)

// MockClient produces a canned word-by-word stream for local development,
// selected with LLM_PROVIDER=mock.
type MockClient struct {
	delay time.Duration
}

func NewMock() *MockClient {
	return &MockClient{delay: 50 * time.Millisecond}
}

func (c *MockClient) response(prompt string) string {
	return fmt.Sprintf("Mock response to: %q. This is a test response with streaming functionality.", prompt)
}

func (c *MockClient) Generate(_ context.Context, prompt string) (GenerateResult, error) {
	return GenerateResult{Text: c.response(prompt)}, nil
}

func (c *MockClient) Stream(ctx context.Context, prompt string, onEvent EventFunc) error {
	events := []model.StreamEvent{
		{Type: model.EventStart},
		{Type: model.EventTextStart},
	}
	words := strings.SplitAfter(c.response(prompt), " ")
	for _, word := range words {
		events = append(events, model.StreamEvent{Type: model.EventTextDelta, Content: word})
	}
	events = append(events,
		model.StreamEvent{Type: model.EventTextEnd},
		model.StreamEvent{Type: model.EventFinish},
	)

	for _, ev := range events {
		if c.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.delay):
			}
		}
		if err := onEvent(ev); err != nil {
			return err
		}
	}

	return nil
}
