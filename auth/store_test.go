package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevintanjc/bleep/storage"
)

func TestValidatePIN(t *testing.T) {
	for _, pin := range []string{"1234", "0000", "12345", "12345678"} {
		assert.NoError(t, ValidatePIN(pin), pin)
	}
	for _, pin := range []string{"", "abcd", "123", "123456789", "12a4", " 1234", "1234\n", "１２３４", "-123"} {
		err := ValidatePIN(pin)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "%q should be rejected", pin)
		assert.Equal(t, "pin", verr.Field)
	}
}

func TestCredentialStore(t *testing.T) {
	store := newMapStore()
	creds := NewCredentialStore(store, testKDF)
	ctx := t.Context()

	assert.False(t, creds.Has(ctx))
	_, err := creds.Get(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, creds.Set(ctx, "86420135"))
	assert.True(t, creds.Has(ctx))
	raw, err := store.GetItem(ctx, PinItemKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "86420135")

	cred, err := creds.Get(ctx)
	require.NoError(t, err)
	assert.True(t, cred.Matches("86420135"))
	assert.False(t, cred.Matches("86420136"))
	assert.False(t, cred.Matches(""))

	// Overwrite replaces unconditionally.
	require.NoError(t, creds.Set(ctx, "1111"))
	cred, err = creds.Get(ctx)
	require.NoError(t, err)
	assert.True(t, cred.Matches("1111"))
	assert.False(t, cred.Matches("86420135"))
}

func TestCredentialStore_InvalidPINLeavesStoreAlone(t *testing.T) {
	store := newMapStore()
	creds := NewCredentialStore(store, testKDF)
	require.NoError(t, creds.Set(t.Context(), "4321"))

	var verr *ValidationError
	require.ErrorAs(t, creds.Set(t.Context(), "12"), &verr)

	cred, err := creds.Get(t.Context())
	require.NoError(t, err)
	assert.True(t, cred.Matches("4321"))
}

func TestCredentialStore_WriteFailure(t *testing.T) {
	store := newMapStore()
	store.failSet[PinItemKey] = true
	m := newTestManager(t, store, newFakeClock())

	err := m.SetPIN(t.Context(), "1234")
	assert.ErrorIs(t, err, errInjected)
	assert.False(t, m.HasPIN(t.Context()))
}

func TestCredentialStore_CorruptRecord(t *testing.T) {
	store := newMapStore()
	require.NoError(t, store.SetItem(t.Context(), PinItemKey, []byte("1234")))
	creds := NewCredentialStore(store, testKDF)

	_, err := creds.Get(t.Context())
	assert.Error(t, err)
	assert.False(t, creds.Has(t.Context()))
}

func TestPinCredential_NilNeverMatches(t *testing.T) {
	var cred *PinCredential
	assert.False(t, cred.Matches("1234"))
}

func TestSessionRecordFormat(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_123)
	data, err := marshalSession(Session{Authenticated: true, Method: MethodBiometric, LastAuthAt: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"isAuthenticated":true,"method":"biometric","lastAuthAt":1700000000123}`, string(data))

	data, err = marshalSession(Session{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"isAuthenticated":false,"method":null,"lastAuthAt":null}`, string(data))

	s, err := unmarshalSession([]byte(`{"isAuthenticated":true,"method":"pin","lastAuthAt":1700000000123}`))
	require.NoError(t, err)
	assert.Equal(t, Session{Authenticated: true, Method: MethodPin, LastAuthAt: at}, s)
}

func TestSessionStore_Restore(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	ttl := DefaultTTL

	cases := []struct {
		name   string
		record string
		ok     bool
	}{
		{"fresh", `{"isAuthenticated":true,"method":"pin","lastAuthAt":1699999999999}`, true},
		{"exactlyTTL", `{"isAuthenticated":true,"method":"pin","lastAuthAt":1699999700000}`, false},
		{"stale", `{"isAuthenticated":true,"method":"pin","lastAuthAt":1699999699999}`, false},
		{"notAuthenticated", `{"isAuthenticated":false,"method":null,"lastAuthAt":1699999999999}`, false},
		{"nullTimestamp", `{"isAuthenticated":true,"method":"pin","lastAuthAt":null}`, false},
		{"unknownMethod", `{"isAuthenticated":true,"method":"password","lastAuthAt":1699999999999}`, false},
		{"nullMethod", `{"isAuthenticated":true,"method":null,"lastAuthAt":1699999999999}`, false},
		{"slightSkew", `{"isAuthenticated":true,"method":"biometric","lastAuthAt":1700000000500}`, true},
		{"future", `{"isAuthenticated":true,"method":"biometric","lastAuthAt":1700000005000}`, false},
		{"garbage", `not json`, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMapStore()
			require.NoError(t, store.SetItem(t.Context(), SessionItemKey, []byte(tc.record)))
			_, ok := NewSessionStore(store).Restore(t.Context(), now, ttl)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestSessionStore_PersistAndClear(t *testing.T) {
	store := newMapStore()
	sessions := NewSessionStore(store)
	now := time.UnixMilli(1_700_000_000_000)

	sessions.Persist(t.Context(), Session{Authenticated: true, Method: MethodPin, LastAuthAt: now})
	got, ok := sessions.Restore(t.Context(), now.Add(time.Second), DefaultTTL)
	require.True(t, ok)
	assert.Equal(t, MethodPin, got.Method)

	sessions.Clear(t.Context())
	assert.False(t, store.has(SessionItemKey))
	sessions.Clear(t.Context())

	store.failSet[SessionItemKey] = true
	sessions.Persist(t.Context(), Session{Authenticated: true, Method: MethodPin, LastAuthAt: now})
	assert.False(t, store.has(SessionItemKey))
}
