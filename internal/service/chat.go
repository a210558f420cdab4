package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chatrelay/internal/conversation"
	"chatrelay/internal/model"
	"chatrelay/internal/sse"
)

// StreamConsumer delivers the server's event stream for one chat turn.
type StreamConsumer interface {
	Consume(ctx context.Context, message string, cb sse.Callbacks) error
}

// Chat ties the stream consumer to the conversation store: it records the
// user's message, then applies every stream callback as a store mutation.
type Chat struct {
	consumer StreamConsumer
	store    *conversation.Store
	log      *logrus.Logger

	// Observer receives the same callbacks the store does, after the store
	// has applied them. Used by the CLI to render deltas as they arrive.
	Observer sse.Callbacks
}

func New(consumer StreamConsumer, store *conversation.Store, log *logrus.Logger) *Chat {
	return &Chat{
		consumer: consumer,
		store:    store,
		log:      log,
	}
}

func (c *Chat) Store() *conversation.Store {
	return c.store
}

// Send records text as a user message and streams the assistant's reply into
// the store. It blocks until the stream terminates.
func (c *Chat) Send(ctx context.Context, text string) error {
	c.store.AddMessage(model.Message{
		ID:        uuid.NewString(),
		Content:   text,
		Sender:    model.SenderUser,
		Timestamp: time.Now().UnixMilli(),
		Status:    model.StatusComplete,
	})

	// The assistant message id arrives in the stream's message frame; error
	// callbacks carry no id, so remember the last one seen.
	var assistantID string

	cb := sse.Callbacks{
		OnMessage: func(msg model.Message) {
			assistantID = msg.ID
			c.store.AddMessage(msg)
			if c.Observer.OnMessage != nil {
				c.Observer.OnMessage(msg)
			}
		},
		OnStart: func(messageID string) {
			if c.Observer.OnStart != nil {
				c.Observer.OnStart(messageID)
			}
		},
		OnTextStart: func(messageID string) {
			if c.Observer.OnTextStart != nil {
				c.Observer.OnTextStart(messageID)
			}
		},
		OnTextDelta: func(messageID, delta string) {
			c.store.AppendContent(messageID, delta)
			if c.Observer.OnTextDelta != nil {
				c.Observer.OnTextDelta(messageID, delta)
			}
		},
		OnTextEnd: func(messageID string) {
			if c.Observer.OnTextEnd != nil {
				c.Observer.OnTextEnd(messageID)
			}
		},
		OnReasoningStart: func(messageID string) {
			if c.Observer.OnReasoningStart != nil {
				c.Observer.OnReasoningStart(messageID)
			}
		},
		OnReasoningDelta: func(messageID, delta string) {
			c.store.AppendReasoning(messageID, delta)
			if c.Observer.OnReasoningDelta != nil {
				c.Observer.OnReasoningDelta(messageID, delta)
			}
		},
		OnReasoningEnd: func(messageID string) {
			c.store.CloseReasoning(messageID)
			if c.Observer.OnReasoningEnd != nil {
				c.Observer.OnReasoningEnd(messageID)
			}
		},
		OnFinish: func(messageID string) {
			complete := model.StatusComplete
			c.store.UpdateMessage(messageID, conversation.Update{Status: &complete})
			if c.Observer.OnFinish != nil {
				c.Observer.OnFinish(messageID)
			}
		},
		OnError: func(err error) {
			if assistantID != "" {
				failed := model.StatusError
				c.store.UpdateMessage(assistantID, conversation.Update{Status: &failed})
			}
			if c.Observer.OnError != nil {
				c.Observer.OnError(err)
			}
		},
	}

	if err := c.consumer.Consume(ctx, text, cb); err != nil {
		c.log.WithError(err).Error("stream failed")
		return err
	}
	return nil
}

// Clear drops the whole conversation.
func (c *Chat) Clear() {
	c.store.Clear()
}
