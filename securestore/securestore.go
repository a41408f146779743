// Package securestore provides the secure at-rest key-value store that holds
// the PIN credential and the persisted session record.
//
// Items are sealed with AES-256-GCM under per-item keys derived (HKDF) from a
// random master key. The master key is itself sealed with an externally
// provided wrapping key before being written to the repository, so a copy of
// the repository alone cannot recover any item. In memory the master key is
// kept in a memguard Enclave.
package securestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/awnumar/memguard"

	icrypto "github.com/kevintanjc/bleep/internal/crypto"
	"github.com/kevintanjc/bleep/internal/util"
	"github.com/kevintanjc/bleep/storage"
)

const (
	// DefaultNamespace is the repository namespace used by New.
	DefaultNamespace = "__bleep_securestore"

	itemRecordType = "ITEM"
	keyRecordType  = "MASTER_KEY"
	keyRecordID    = "current"
	formatVer      = 1

	// WrappingKeySize is the required wrapping key length in bytes.
	WrappingKeySize = 32
)

var (
	// ErrInvalidWrappingKey is returned when the wrapping key has the wrong
	// length or cannot unseal the stored master key.
	ErrInvalidWrappingKey = errors.New("invalid wrapping key")
	// ErrClosed is returned by operations on a closed Store.
	ErrClosed = errors.New("secure store closed")
)

// Store is a sealed key-value store over a storage.Repository.
type Store struct {
	repo      storage.Repository
	namespace string

	mu     sync.RWMutex
	master *memguard.Enclave
}

// Option configures a Store.
type Option func(*Store)

// WithNamespace stores items under the given repository namespace instead of
// DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(s *Store) {
		s.namespace = namespace
	}
}

// New opens the secure store in repo. If no master key exists yet, one is
// generated, sealed with wrappingKey, and persisted. If a master key exists
// but wrappingKey cannot unseal it, New fails with ErrInvalidWrappingKey
// rather than silently replacing it: replacing it would orphan the stored PIN.
//
// wrappingKey is not retained.
func New(repo storage.Repository, wrappingKey []byte, opts ...Option) (*Store, error) {
	if len(wrappingKey) != WrappingKeySize {
		return nil, fmt.Errorf("%w: must be exactly %d bytes, got %d", ErrInvalidWrappingKey, WrappingKeySize, len(wrappingKey))
	}
	s := &Store{repo: repo, namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(s)
	}

	master, err := s.loadOrCreateMasterKey(wrappingKey)
	if err != nil {
		return nil, err
	}
	// NewEnclave wipes master after copying it.
	s.master = memguard.NewEnclave(master)
	return s, nil
}

// Close drops the master key. Subsequent operations return ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	s.master = nil
	s.mu.Unlock()
}

func (s *Store) loadOrCreateMasterKey(wrappingKey []byte) ([]byte, error) {
	aad := icrypto.AADMasterKeyWrap(s.namespace, formatVer)

	env, err := s.repo.Get(s.namespace, keyRecordType, keyRecordID)
	switch {
	case err == nil:
		key, err := storage.OpenRecord(wrappingKey, env, aad)
		if err != nil {
			return nil, fmt.Errorf("%w: unsealing master key: %v", ErrInvalidWrappingKey, err)
		}
		if len(key) != util.AESKeySize {
			util.WipeBytes(key)
			return nil, fmt.Errorf("stored master key has invalid length %d", len(key))
		}
		return key, nil
	case !storage.IsNotFound(err):
		return nil, fmt.Errorf("loading master key: %w", err)
	}

	key, err := util.NewAESKey()
	if err != nil {
		return nil, err
	}
	sealed, err := storage.SealRecord(wrappingKey, key, aad)
	if err != nil {
		util.WipeBytes(key)
		return nil, fmt.Errorf("sealing new master key: %w", err)
	}
	if err := s.repo.Put(s.namespace, keyRecordType, keyRecordID, sealed); err != nil {
		util.WipeBytes(key)
		return nil, fmt.Errorf("persisting master key: %w", err)
	}
	slog.Info("secure store initialised", slog.String("namespace", s.namespace))
	return key, nil
}

// itemKey derives the encryption key for the item stored under key.
func (s *Store) itemKey(key string) ([]byte, error) {
	s.mu.RLock()
	enclave := s.master
	s.mu.RUnlock()
	if enclave == nil {
		return nil, ErrClosed
	}
	buf, err := enclave.Open()
	if err != nil {
		return nil, fmt.Errorf("opening master key enclave: %w", err)
	}
	defer buf.Destroy()
	return icrypto.DeriveItemKey(buf.Bytes(), s.namespace, key)
}

// SetItem seals value and stores it under key, replacing any prior value.
func (s *Store) SetItem(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	k, err := s.itemKey(key)
	if err != nil {
		return err
	}
	defer util.WipeBytes(k)

	env, err := storage.SealRecord(k, value, icrypto.AADItem(s.namespace, key, formatVer))
	if err != nil {
		return fmt.Errorf("sealing %s: %w", key, err)
	}
	if err := s.repo.Put(s.namespace, itemRecordType, key, env); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// GetItem returns the value stored under key. A missing item yields an error
// wrapping storage.ErrNotFound.
func (s *Store) GetItem(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}
	env, err := s.repo.Get(s.namespace, itemRecordType, key)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, fmt.Errorf("%s: %w", key, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	k, err := s.itemKey(key)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(k)

	value, err := storage.OpenRecord(k, env, icrypto.AADItem(s.namespace, key, formatVer))
	if err != nil {
		return nil, fmt.Errorf("unsealing %s: %w", key, err)
	}
	return value, nil
}

// DeleteItem removes key. Deleting an absent item is not an error.
func (s *Store) DeleteItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	if err := s.repo.Delete(s.namespace, itemRecordType, key); err != nil && !storage.IsNotFound(err) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("secure store key must not be empty")
	}
	for _, r := range key {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '.') {
			return fmt.Errorf("secure store key %q contains forbidden character %q", key, r)
		}
	}
	return nil
}
