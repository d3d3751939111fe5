package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	conn, err := Connect(context.Background(), dir)
	require.NoError(t, err)
	defer conn.Close()

	_, err = os.Stat(filepath.Join(dir, Filename))
	assert.NoError(t, err)
}

func TestConnectRequiresDataDir(t *testing.T) {
	_, err := Connect(context.Background(), "")
	assert.Error(t, err)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	conn, err := Connect(ctx, dir)
	require.NoError(t, err)
	q := New(conn)

	_, err = q.GetSetting(ctx, "userId")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, q.SetSetting(ctx, SetSettingParams{Key: "userId", Value: "first"}))
	value, err := q.GetSetting(ctx, "userId")
	require.NoError(t, err)
	assert.Equal(t, "first", value)

	require.NoError(t, q.SetSetting(ctx, SetSettingParams{Key: "userId", Value: "second"}))
	value, err = q.GetSetting(ctx, "userId")
	require.NoError(t, err)
	assert.Equal(t, "second", value)
	require.NoError(t, conn.Close())

	// Reopening runs migrations again and keeps the data.
	conn, err = Connect(ctx, dir)
	require.NoError(t, err)
	defer conn.Close()
	value, err = New(conn).GetSetting(ctx, "userId")
	require.NoError(t, err)
	assert.Equal(t, "second", value)
}
