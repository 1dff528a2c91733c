package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSessionStore(t *testing.T) {
	t.Parallel()

	t.Run("round-trips the marker", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "session.json")
		store, err := NewFileSessionStore(path)
		require.NoError(t, err)

		saved := SessionMarker{
			UserID:  "user-1",
			Email:   "an@hcmut.edu.vn",
			Role:    "student",
			SavedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		}
		require.NoError(t, store.Save(saved))

		loaded, err := store.Load()
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, saved, *loaded)
	})

	t.Run("a missing file is not an error", func(t *testing.T) {
		t.Parallel()

		store, err := NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))
		require.NoError(t, err)

		marker, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, marker)
	})

	t.Run("clear removes the file and is idempotent", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "session.json")
		store, err := NewFileSessionStore(path)
		require.NoError(t, err)
		require.NoError(t, store.Save(SessionMarker{UserID: "user-1"}))

		require.NoError(t, store.Clear())
		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))

		require.NoError(t, store.Clear())
	})

	t.Run("rejects an empty path", func(t *testing.T) {
		t.Parallel()

		_, err := NewFileSessionStore("")
		require.Error(t, err)
	})

	t.Run("corrupt marker files surface a decode error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "session.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

		store, err := NewFileSessionStore(path)
		require.NoError(t, err)

		_, err = store.Load()
		require.Error(t, err)
	})
}
