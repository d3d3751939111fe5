package server

import (
	"errors"
	"sync"

	"github.com/chasedut/anonchat/internal/api/messages"
)

var ErrClosed = errors.New("store is closed")

// Store keeps the chat history. Ids are assigned by the store, starting at 1.
type Store interface {
	Append(userID, content string) (messages.Message, error)
	List(from int) ([]messages.Message, error)
	Close() error
}

type MemoryStore struct {
	mu       sync.RWMutex
	messages []messages.Message
	closed   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make([]messages.Message, 0)}
}

func (s *MemoryStore) Append(userID, content string) (messages.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return messages.Message{}, ErrClosed
	}
	msg := messages.Message{ID: len(s.messages) + 1, UserID: userID, Content: content}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *MemoryStore) List(from int) ([]messages.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]messages.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.ID >= from {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
