package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"chatrelay/internal/model"
)

// Callbacks maps wire event tags to handlers. Any callback may be nil, in
// which case that event type is silently dropped.
type Callbacks struct {
	OnMessage        func(msg model.Message)
	OnStart          func(messageID string)
	OnTextStart      func(messageID string)
	OnTextDelta      func(messageID, content string)
	OnTextEnd        func(messageID string)
	OnReasoningStart func(messageID string)
	OnReasoningDelta func(messageID, content string)
	OnReasoningEnd   func(messageID string)
	OnFinish         func(messageID string)
	OnError          func(err error)
}

// Client consumes the relay's SSE feed and dispatches typed callbacks in
// frame arrival order.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

func New(baseURL string, log *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No client timeout: a stream stays open for as long as the relay
		// keeps producing. Cancellation happens through the context.
		httpClient: &http.Client{},
		log:        log,
	}
}

// Consume opens a streaming chat request and reads frames until a terminal
// frame arrives or the transport fails. A server-reported error frame is a
// delivered outcome: OnError fires and Consume returns nil. Transport and
// handshake failures fire OnError and are also returned.
func (c *Client) Consume(ctx context.Context, message string, cb Callbacks) error {
	jsonData, err := json.Marshal(model.ChatRequest{Message: message})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/stream", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(cb, fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.StatusCode != http.StatusOK {
		return c.fail(cb, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	buf := make([]byte, 4096)
	var pending string

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			pending += string(buf[:n])

			frames := strings.Split(pending, "\n\n")
			pending = frames[len(frames)-1]

			for _, raw := range frames[:len(frames)-1] {
				if c.dispatch(raw, cb) {
					return nil
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return c.fail(cb, fmt.Errorf("failed to read stream: %w", readErr))
		}
	}
}

// dispatch parses one SSE frame and fires the matching callback. It reports
// whether the frame was terminal. Malformed frames are logged and skipped.
func (c *Client) dispatch(raw string, cb Callbacks) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}

	eventName := "message"
	dataLine := ""
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "event:") {
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		}
		if strings.HasPrefix(line, "data:") {
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
	if dataLine == "" {
		return false
	}

	switch eventName {
	case "message":
		var msg model.Message
		if err := json.Unmarshal([]byte(dataLine), &msg); err != nil {
			c.log.WithError(err).Warn("skipping malformed message frame")
			return false
		}
		if cb.OnMessage != nil {
			cb.OnMessage(msg)
		}
		return false
	case string(model.EventError):
		var errorResp model.ErrorResponse
		if err := json.Unmarshal([]byte(dataLine), &errorResp); err != nil {
			c.log.WithError(err).Warn("skipping malformed error frame")
			return false
		}
		if cb.OnError != nil {
			cb.OnError(fmt.Errorf("stream error: %s", errorResp.Error))
		}
		return true
	default:
		var ev model.StreamEvent
		if err := json.Unmarshal([]byte(dataLine), &ev); err != nil {
			c.log.WithError(err).Warn("skipping malformed event frame")
			return false
		}
		return c.fire(ev, cb)
	}
}

func (c *Client) fire(ev model.StreamEvent, cb Callbacks) bool {
	switch ev.Type {
	case model.EventStart:
		if cb.OnStart != nil {
			cb.OnStart(ev.MessageID)
		}
	case model.EventTextStart:
		if cb.OnTextStart != nil {
			cb.OnTextStart(ev.MessageID)
		}
	case model.EventTextDelta:
		if cb.OnTextDelta != nil {
			cb.OnTextDelta(ev.MessageID, ev.Content)
		}
	case model.EventTextEnd:
		if cb.OnTextEnd != nil {
			cb.OnTextEnd(ev.MessageID)
		}
	case model.EventReasoningStart:
		if cb.OnReasoningStart != nil {
			cb.OnReasoningStart(ev.MessageID)
		}
	case model.EventReasoningDelta:
		if cb.OnReasoningDelta != nil {
			cb.OnReasoningDelta(ev.MessageID, ev.Content)
		}
	case model.EventReasoningEnd:
		if cb.OnReasoningEnd != nil {
			cb.OnReasoningEnd(ev.MessageID)
		}
	case model.EventFinish:
		if cb.OnFinish != nil {
			cb.OnFinish(ev.MessageID)
		}
		return true
	default:
		c.log.WithField("type", ev.Type).Warn("dropping unknown event type")
	}
	return false
}

func (c *Client) fail(cb Callbacks, err error) error {
	if cb.OnError != nil {
		cb.OnError(err)
	}
	return err
}
