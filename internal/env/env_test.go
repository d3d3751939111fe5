package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapEnv(t *testing.T) {
	t.Parallel()

	e := NewFromMap(map[string]string{"A": "1", "B": "x=y"})
	assert.Equal(t, "1", e.Get("A"))
	assert.Empty(t, e.Get("missing"))
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y"}, Map(e))
	assert.Nil(t, NewFromMap(nil).Env())
}

func TestLoadDotEnvKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ANONCHAT_TEST_NEW=from-file\nANONCHAT_TEST_SET=from-file\n"), 0o600))

	t.Setenv("ANONCHAT_TEST_SET", "from-env")
	t.Setenv("ANONCHAT_TEST_NEW", "")
	require.NoError(t, os.Unsetenv("ANONCHAT_TEST_NEW"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("ANONCHAT_TEST_NEW"))
	assert.Equal(t, "from-env", os.Getenv("ANONCHAT_TEST_SET"))
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	t.Parallel()

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}
