// Package storagetest provides a conformance suite shared by every
// storage.Repository backend.
package storagetest

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevintanjc/bleep/storage"
)

func envelope(ciphertext string) *storage.Envelope {
	return &storage.Envelope{
		Ver:        1,
		Scheme:     "aes256gcm",
		Nonce:      []byte("nonce1234567"),
		Ciphertext: []byte(ciphertext),
	}
}

// Run exercises repo against the storage.Repository contract. The
// repository must be empty when Run is called.
func Run(t *testing.T, repo storage.Repository) {
	t.Helper()
	const ns = "bleep"

	t.Run("PutGet", func(t *testing.T) {
		env := envelope("session")
		require.NoError(t, repo.Put(ns, "ITEM", "auth_session_v1", env))

		got, err := repo.Get(ns, "ITEM", "auth_session_v1")
		require.NoError(t, err)
		assert.Equal(t, env.Ver, got.Ver)
		assert.Equal(t, env.Scheme, got.Scheme)
		assert.True(t, bytes.Equal(env.Nonce, got.Nonce))
		assert.True(t, bytes.Equal(env.Ciphertext, got.Ciphertext))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, repo.Put(ns, "ITEM", "auth_pin_v1", envelope("first")))
		require.NoError(t, repo.Put(ns, "ITEM", "auth_pin_v1", envelope("second")))

		got, err := repo.Get(ns, "ITEM", "auth_pin_v1")
		require.NoError(t, err)
		assert.Equal(t, "second", string(got.Ciphertext))
	})

	t.Run("Isolation", func(t *testing.T) {
		env := envelope("isolated")
		require.NoError(t, repo.Put(ns, "ITEM", "iso", env))
		env.Ciphertext[0] = 'X'

		got, err := repo.Get(ns, "ITEM", "iso")
		require.NoError(t, err)
		assert.Equal(t, "isolated", string(got.Ciphertext))

		got.Ciphertext[0] = 'Y'
		again, err := repo.Get(ns, "ITEM", "iso")
		require.NoError(t, err)
		assert.Equal(t, "isolated", string(again.Ciphertext))
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := repo.Get("never-written", "ITEM", "x")
		require.Error(t, err)
		assert.True(t, storage.IsNotFound(err), "got %v", err)

		_, err = repo.Get(ns, "ITEM", "missing")
		require.Error(t, err)
		assert.True(t, storage.IsNotFound(err), "got %v", err)
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, repo.Put(ns, "LIST", "a", envelope("a")))
		require.NoError(t, repo.Put(ns, "LIST", "b", envelope("b")))
		require.NoError(t, repo.Put(ns, "OTHER", "c", envelope("c")))

		ids, err := repo.List(ns, "LIST")
		require.NoError(t, err)
		sort.Strings(ids)
		assert.Equal(t, []string{"a", "b"}, ids)

		ids, err = repo.List("never-written", "LIST")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Put(ns, "ITEM", "to-delete", envelope("gone")))
		require.NoError(t, repo.Delete(ns, "ITEM", "to-delete"))

		_, err := repo.Get(ns, "ITEM", "to-delete")
		assert.True(t, storage.IsNotFound(err), "got %v", err)

		err = repo.Delete(ns, "ITEM", "to-delete")
		require.Error(t, err)
		assert.True(t, storage.IsNotFound(err), "got %v", err)
	})
}
