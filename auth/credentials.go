package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/kevintanjc/bleep/internal/util"
)

const (
	pinVerifierVer = 1
	pinSaltSize    = 16
)

var pinPattern = regexp.MustCompile(`^[0-9]{4,8}$`)

// ValidatePIN returns a *ValidationError unless pin is 4 to 8 ASCII digits.
func ValidatePIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return validationErrorf("pin", "must be 4 to 8 digits")
	}
	return nil
}

// PinCredential is the stored PIN verifier. The digits themselves are never
// persisted.
type PinCredential struct {
	Ver  int                 `json:"ver"`
	KDF  util.Argon2idParams `json:"kdf"`
	Salt []byte              `json:"salt"`
	Hash []byte              `json:"hash"`
}

// Matches reports whether candidate is the PIN this credential was made from.
func (c *PinCredential) Matches(candidate string) bool {
	if c == nil || ValidatePIN(candidate) != nil {
		return false
	}
	ok, err := util.CompareArgon2idKey(candidate, c.Salt, c.KDF, c.Hash)
	if err != nil {
		slog.Warn("PIN comparison failed", slog.String("error", err.Error()))
		return false
	}
	return ok
}

// CredentialStore persists the PIN verifier under PinItemKey.
type CredentialStore struct {
	kv     KeyValueStore
	params util.Argon2idParams
}

func NewCredentialStore(kv KeyValueStore, params util.Argon2idParams) *CredentialStore {
	return &CredentialStore{kv: kv, params: params}
}

// Set replaces the stored PIN unconditionally. An invalid pin is rejected
// with a *ValidationError before the store is touched.
func (c *CredentialStore) Set(ctx context.Context, pin string) error {
	if err := ValidatePIN(pin); err != nil {
		return err
	}
	salt, err := util.RandomBytes(pinSaltSize)
	if err != nil {
		return fmt.Errorf("generating PIN salt: %w", err)
	}
	hash, err := util.DeriveArgon2idKey(pin, salt, c.params)
	if err != nil {
		return fmt.Errorf("deriving PIN verifier: %w", err)
	}
	data, err := json.Marshal(PinCredential{
		Ver:  pinVerifierVer,
		KDF:  c.params,
		Salt: salt,
		Hash: hash,
	})
	if err != nil {
		return fmt.Errorf("encoding PIN verifier: %w", err)
	}
	if err := c.kv.SetItem(ctx, PinItemKey, data); err != nil {
		return fmt.Errorf("storing PIN: %w", err)
	}
	return nil
}

// Get loads the stored verifier. A missing PIN yields an error wrapping
// storage.ErrNotFound.
func (c *CredentialStore) Get(ctx context.Context) (*PinCredential, error) {
	data, err := c.kv.GetItem(ctx, PinItemKey)
	if err != nil {
		return nil, fmt.Errorf("loading PIN: %w", err)
	}
	var cred PinCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("decoding PIN verifier: %w", err)
	}
	if cred.Ver != pinVerifierVer {
		return nil, fmt.Errorf("unsupported PIN verifier version %d", cred.Ver)
	}
	return &cred, nil
}

// Has reports whether a usable PIN is stored. Storage errors count as no PIN.
func (c *CredentialStore) Has(ctx context.Context) bool {
	_, err := c.Get(ctx)
	if err != nil && !isNotFound(err) {
		slog.Warn("PIN credential unreadable", slog.String("error", err.Error()))
	}
	return err == nil
}
