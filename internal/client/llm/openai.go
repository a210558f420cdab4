package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"chatrelay/internal/model"
)

// OpenAIClient adapts any OpenAI-compatible chat completion API to the
// provider contract, translating delta chunks into the stream vocabulary.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, baseURL, modelName string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  modelName,
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (GenerateResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return GenerateResult{}, &UpstreamError{Message: fmt.Sprintf("chat completion failed: %v", err)}
	}

	if len(resp.Choices) == 0 {
		return GenerateResult{}, &UpstreamError{Message: "chat completion returned no choices"}
	}

	return GenerateResult{Text: resp.Choices[0].Message.Content}, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, prompt string, onEvent EventFunc) error {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return &UpstreamError{Message: fmt.Sprintf("failed to open completion stream: %v", err)}
	}
	defer stream.Close() //nolint:errcheck // .

	if err := onEvent(model.StreamEvent{Type: model.EventStart}); err != nil {
		return err
	}

	var textOpen, reasoningOpen bool
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &UpstreamError{Message: fmt.Sprintf("completion stream failed: %v", err)}
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta

		if delta.ReasoningContent != "" {
			if !reasoningOpen {
				reasoningOpen = true
				if err := onEvent(model.StreamEvent{Type: model.EventReasoningStart}); err != nil {
					return err
				}
			}
			if err := onEvent(model.StreamEvent{Type: model.EventReasoningDelta, Content: delta.ReasoningContent}); err != nil {
				return err
			}
		}

		if delta.Content != "" {
			if reasoningOpen {
				reasoningOpen = false
				if err := onEvent(model.StreamEvent{Type: model.EventReasoningEnd}); err != nil {
					return err
				}
			}
			if !textOpen {
				textOpen = true
				if err := onEvent(model.StreamEvent{Type: model.EventTextStart}); err != nil {
					return err
				}
			}
			if err := onEvent(model.StreamEvent{Type: model.EventTextDelta, Content: delta.Content}); err != nil {
				return err
			}
		}
	}

	if reasoningOpen {
		if err := onEvent(model.StreamEvent{Type: model.EventReasoningEnd}); err != nil {
			return err
		}
	}
	if textOpen {
		if err := onEvent(model.StreamEvent{Type: model.EventTextEnd}); err != nil {
			return err
		}
	}

	return onEvent(model.StreamEvent{Type: model.EventFinish})
}
