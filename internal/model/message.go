package model

type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusStreaming MessageStatus = "streaming"
	StatusComplete  MessageStatus = "complete"
	StatusError     MessageStatus = "error"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

type MessageList []Message

type Message struct {
	ID        string          `json:"id"`
	Content   string          `json:"content"`
	Sender    Sender          `json:"sender"`
	Timestamp int64           `json:"timestamp"`
	Status    MessageStatus   `json:"status"`
	Reasoning *ReasoningBlock `json:"reasoning,omitempty"`
}

// ReasoningBlock carries the model's "thinking" text separately from the
// answer. StartTime and EndTime are epoch milliseconds and are set once.
type ReasoningBlock struct {
	Content    string `json:"content"`
	IsExpanded bool   `json:"isExpanded"`
	StartTime  int64  `json:"startTime,omitempty"`
	EndTime    int64  `json:"endTime,omitempty"`
}
