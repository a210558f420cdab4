package conversation

import (
	"sync"
	"time"

	"chatrelay/internal/model"
)

// Update is a partial message update; nil fields are left untouched.
type Update struct {
	Content *string
	Status  *model.MessageStatus
}

// Store keeps the conversation's messages in insertion order. Every mutator
// treats an unknown id as a silent no-op: a late stream callback may race a
// clear, and that must not blow up the caller.
type Store struct {
	mu       sync.Mutex
	messages []*model.Message
	index    map[string]*model.Message
}

func NewStore() *Store {
	return &Store{
		index: make(map[string]*model.Message),
	}
}

// AddMessage appends a message. IDs are expected to be unique; the store
// does not defend against duplicates.
func (s *Store) AddMessage(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := msg
	s.messages = append(s.messages, &stored)
	s.index[stored.ID] = &stored
}

func (s *Store) UpdateMessage(id string, upd Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.index[id]
	if !ok {
		return
	}
	if upd.Content != nil {
		msg.Content = *upd.Content
	}
	if upd.Status != nil {
		msg.Status = *upd.Status
	}
}

func (s *Store) AppendContent(id, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg, ok := s.index[id]; ok {
		msg.Content += content
	}
}

// AppendReasoning concatenates onto the message's reasoning block, creating
// it on first call. The block re-expands on every delta so a collapsed block
// pops open when new thinking arrives.
func (s *Store) AppendReasoning(id, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.index[id]
	if !ok {
		return
	}
	if msg.Reasoning == nil {
		msg.Reasoning = &model.ReasoningBlock{
			Content:    content,
			IsExpanded: true,
			StartTime:  time.Now().UnixMilli(),
		}
		return
	}
	msg.Reasoning.Content += content
	msg.Reasoning.IsExpanded = true
}

func (s *Store) CloseReasoning(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.index[id]
	if !ok || msg.Reasoning == nil {
		return
	}
	if msg.Reasoning.EndTime == 0 {
		msg.Reasoning.EndTime = time.Now().UnixMilli()
	}
}

func (s *Store) ToggleReasoning(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.index[id]
	if !ok || msg.Reasoning == nil {
		return
	}
	msg.Reasoning.IsExpanded = !msg.Reasoning.IsExpanded
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
	s.index = make(map[string]*model.Message)
}

// Messages returns an ordered snapshot. Reasoning blocks are copied so the
// caller never aliases live store state.
func (s *Store) Messages() model.MessageList {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(model.MessageList, 0, len(s.messages))
	for _, msg := range s.messages {
		copied := *msg
		if msg.Reasoning != nil {
			block := *msg.Reasoning
			copied.Reasoning = &block
		}
		out = append(out, copied)
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.messages)
}
