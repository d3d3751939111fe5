package identity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chasedut/anonchat/internal/db"
)

// SettingsStore persists values in the settings table of the local database.
type SettingsStore struct {
	q *db.Queries
}

func NewSettingsStore(q *db.Queries) *SettingsStore {
	return &SettingsStore{q: q}
}

func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.q.GetSetting(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	return s.q.SetSetting(ctx, db.SetSettingParams{Key: key, Value: value})
}
