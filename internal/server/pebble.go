package server

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble/v2"

	"github.com/chasedut/anonchat/internal/api/messages"
)

// PebbleStore persists messages in a Pebble database. Keys are 8-byte
// big-endian message ids, so iteration order is id order.
type PebbleStore struct {
	db   *pebble.DB
	mu   sync.Mutex
	next uint64
}

func OpenPebbleStore(dir string) (*PebbleStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble: %w", err)
	}
	s := &PebbleStore{db: db, next: 1}

	it, err := db.NewIter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}
	if it.Last() && len(it.Key()) == 8 {
		s.next = binary.BigEndian.Uint64(it.Key()) + 1
	}
	if err := it.Close(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}
	return s, nil
}

func encodeKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func (s *PebbleStore) Append(userID, content string) (messages.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := messages.Message{ID: int(s.next), UserID: userID, Content: content}
	val, err := json.Marshal(msg)
	if err != nil {
		return messages.Message{}, err
	}
	if err := s.db.Set(encodeKey(s.next), val, pebble.Sync); err != nil {
		return messages.Message{}, fmt.Errorf("failed to write message: %w", err)
	}
	s.next++
	return msg, nil
}

func (s *PebbleStore) List(from int) ([]messages.Message, error) {
	opts := &pebble.IterOptions{}
	if from > 0 {
		opts.LowerBound = encodeKey(uint64(from))
	}
	it, err := s.db.NewIter(opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = it.Close() }()

	out := make([]messages.Message, 0, 64)
	for it.First(); it.Valid(); it.Next() {
		var m messages.Message
		if err := json.Unmarshal(it.Value(), &m); err != nil {
			return nil, fmt.Errorf("corrupt message at key %x: %w", it.Key(), err)
		}
		out = append(out, m)
	}
	return out, it.Error()
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}
