// Package identity resolves the anonymous user id that marks a user's own
// messages across runs.
package identity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Key is the storage key the identity lives under.
const Key = "userId"

// Store is a persistent string key-value store.
// Get returns "" with a nil error when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Resolve returns the stored identity, creating and persisting one on first
// use. It never fails: when the store is unavailable a fresh identity is
// returned so the client still works, just without continuity. A stored
// identity is never overwritten; nothing is written unless the read
// succeeded and found the key absent.
func Resolve(ctx context.Context, store Store) string {
	if store == nil {
		slog.Warn("No identity store available, using a temporary identity")
		return uuid.NewString()
	}

	id, err := store.Get(ctx, Key)
	if err != nil {
		slog.Warn("Failed to read identity, using a temporary one", "error", err)
		return uuid.NewString()
	}
	if id != "" {
		return id
	}

	id = uuid.NewString()
	if err := store.Set(ctx, Key, id); err != nil {
		slog.Warn("Failed to persist identity", "error", err)
	} else {
		slog.Info("Created new identity", "id", id)
	}
	return id
}

// MemoryStore keeps values for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
