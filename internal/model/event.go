package model

type EventType string

const (
	EventStart          EventType = "start"
	EventTextStart      EventType = "text-start"
	EventTextDelta      EventType = "text-delta"
	EventTextEnd        EventType = "text-end"
	EventReasoningStart EventType = "reasoning-start"
	EventReasoningDelta EventType = "reasoning-delta"
	EventReasoningEnd   EventType = "reasoning-end"
	EventFinish         EventType = "finish"
	EventError          EventType = "error"
)

// StreamEvent is the unit of the streaming wire protocol, both on the
// upstream NDJSON feed and on the SSE feed the relay emits. Content is only
// present for the two delta variants, Error only for the error variant.
type StreamEvent struct {
	Type      EventType `json:"type"`
	Content   string    `json:"content,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func (t EventType) Valid() bool {
	switch t {
	case EventStart, EventTextStart, EventTextDelta, EventTextEnd,
		EventReasoningStart, EventReasoningDelta, EventReasoningEnd,
		EventFinish, EventError:
		return true
	}
	return false
}

func (t EventType) Terminal() bool {
	return t == EventFinish || t == EventError
}
