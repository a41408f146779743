package auth

import (
	"context"
	"errors"

	"github.com/kevintanjc/bleep/storage"
)

// Secure-store item keys.
const (
	PinItemKey     = "auth_pin_v1"
	SessionItemKey = "auth_session_v1"
)

// KeyValueStore is the secure at-rest storage the auth subsystem persists
// into. GetItem must return an error wrapping storage.ErrNotFound for a
// missing key; DeleteItem of a missing key is not an error.
type KeyValueStore interface {
	SetItem(ctx context.Context, key string, value []byte) error
	GetItem(ctx context.Context, key string) ([]byte, error)
	DeleteItem(ctx context.Context, key string) error
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
