package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore(t *testing.T) {
	t.Run("creates directory with correct permissions", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "prefs")

		store, err := NewStore(dir)
		require.NoError(t, err)
		assert.NotNil(t, store)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
	})
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := store.Get("contacerta:org:nobody")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set("contacerta:org:abc", `{"orgId":"1"}`))

		value, ok, err := store.Get("contacerta:org:abc")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"orgId":"1"}`, value)

		info, err := os.Stat(filepath.Join(dir, "contacerta_3aorg_3aabc"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		_, err = os.Stat(filepath.Join(dir, "contacerta_3aorg_3aabc.tmp"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set("k", "one"))
		require.NoError(t, store.Set("k", "two"))
		value, _, err := store.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "two", value)
	})

	t.Run("survives reopen", func(t *testing.T) {
		require.NoError(t, store.Set("durable", "yes"))

		reopened, err := NewStore(dir)
		require.NoError(t, err)
		value, ok, err := reopened.Get("durable")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "yes", value)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Set("gone", "x"))
		require.NoError(t, store.Delete("gone"))
		require.NoError(t, store.Delete("gone"))

		_, ok, err := store.Get("gone")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid keys", func(t *testing.T) {
		for _, key := range []string{"", "  ", ".", ".."} {
			require.ErrorIs(t, store.Set(key, "x"), ErrInvalidKey)
			_, _, err := store.Get(key)
			require.ErrorIs(t, err, ErrInvalidKey)
		}
	})

	t.Run("path separators stay inside the directory", func(t *testing.T) {
		require.NoError(t, store.Set("../escape", "x"))
		_, err := os.Stat(filepath.Join(dir, ".._2fescape"))
		require.NoError(t, err)
	})

	t.Run("keys differing only in separators stay distinct", func(t *testing.T) {
		require.NoError(t, store.Set("a:b", "colon"))
		require.NoError(t, store.Set("a_b", "underscore"))
		require.NoError(t, store.Set("a/b", "slash"))

		for key, want := range map[string]string{"a:b": "colon", "a_b": "underscore", "a/b": "slash"} {
			value, ok, err := store.Get(key)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, want, value, key)
		}
	})
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Set("a", "1"))
	v, ok, err := m.Get("a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, m.Delete("a"))
	_, ok, _ = m.Get("a")
	assert.False(t, ok)
}
