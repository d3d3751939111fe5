package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/chasedut/anonchat/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct {
	sets int
}

func (b *brokenStore) Get(context.Context, string) (string, error) {
	return "", errors.New("storage unavailable")
}

func (b *brokenStore) Set(context.Context, string, string) error {
	b.sets++
	return errors.New("storage unavailable")
}

// flakyStore fails the first n reads and otherwise delegates to a
// MemoryStore.
type flakyStore struct {
	*MemoryStore
	failures int
	sets     int
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, error) {
	if f.failures > 0 {
		f.failures--
		return "", errors.New("database is locked")
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.sets++
	return f.MemoryStore.Set(ctx, key, value)
}

func TestResolveKeepsStoredIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, Key, "U"))

	assert.Equal(t, "U", Resolve(ctx, store))
	assert.Equal(t, "U", Resolve(ctx, store))

	stored, err := store.Get(ctx, Key)
	require.NoError(t, err)
	assert.Equal(t, "U", stored)
}

func TestResolveCreatesAndPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemoryStore()
	first := Resolve(ctx, store)
	require.NotEmpty(t, first)

	stored, err := store.Get(ctx, Key)
	require.NoError(t, err)
	assert.Equal(t, first, stored)
	assert.Equal(t, first, Resolve(ctx, store))
}

func TestResolveTreatsEmptyAsAbsent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, Key, ""))

	id := Resolve(ctx, store)
	assert.NotEmpty(t, id)
}

func TestResolveWithoutStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	broken := &brokenStore{}
	first := Resolve(ctx, broken)
	second := Resolve(ctx, broken)
	assert.NotEmpty(t, first)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)
	assert.Zero(t, broken.sets)

	assert.NotEmpty(t, Resolve(ctx, nil))
}

func TestResolveReadFailureKeepsStoredIdentity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := &flakyStore{MemoryStore: NewMemoryStore(), failures: 1}
	require.NoError(t, store.MemoryStore.Set(ctx, Key, "U"))

	temporary := Resolve(ctx, store)
	assert.NotEmpty(t, temporary)
	assert.NotEqual(t, "U", temporary)
	assert.Zero(t, store.sets)

	assert.Equal(t, "U", Resolve(ctx, store))
	stored, err := store.MemoryStore.Get(ctx, Key)
	require.NoError(t, err)
	assert.Equal(t, "U", stored)
}

func TestResolveWithSettingsStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	conn, err := db.Connect(ctx, dir)
	require.NoError(t, err)
	first := Resolve(ctx, NewSettingsStore(db.New(conn)))
	require.NotEmpty(t, first)
	require.NoError(t, conn.Close())

	conn, err = db.Connect(ctx, dir)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, first, Resolve(ctx, NewSettingsStore(db.New(conn))))
}
