package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevintanjc/bleep/storage"
	"github.com/kevintanjc/bleep/storage/storagetest"
)

func TestSQLiteStorage(t *testing.T) {
	s, err := NewRepositoryFromFile(t.Context(), filepath.Join(t.TempDir(), "bleep.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	storagetest.Run(t, s)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleep.sqlite")
	s, err := NewRepositoryFromFile(t.Context(), path)
	require.NoError(t, err)

	env := &storage.Envelope{Ver: 1, Scheme: "aes256gcm", Nonce: make([]byte, 12), Ciphertext: []byte("session")}
	require.NoError(t, s.Put("bleep", "ITEM", "auth_session_v1", env))
	require.NoError(t, s.Close())

	reopened, err := NewRepositoryFromFile(t.Context(), path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("bleep", "ITEM", "auth_session_v1")
	require.NoError(t, err)
	assert.Equal(t, "session", string(got.Ciphertext))
	assert.Equal(t, 12, len(got.Nonce))
}
