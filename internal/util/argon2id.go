package util

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2idParams configures Argon2id derivation of PIN verifiers.
type Argon2idParams struct {
	Time        uint32 `json:"time"`
	MemoryKiB   uint32 `json:"memory"`
	Parallelism uint8  `json:"parallelism"`
	KeyLen      uint32 `json:"key_len"`
}

func DefaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      32,
	}
}

// Validate rejects parameter sets that would produce a weak or unusable key.
func (p Argon2idParams) Validate() error {
	switch {
	case p.KeyLen != 32:
		return fmt.Errorf("argon2id key length must be 32 bytes")
	case p.Time == 0:
		return fmt.Errorf("argon2id time must be at least 1")
	case p.Parallelism == 0:
		return fmt.Errorf("argon2id parallelism must be at least 1")
	case p.MemoryKiB < 8*uint32(p.Parallelism):
		return fmt.Errorf("argon2id memory must be at least 8 KiB per lane")
	}
	return nil
}

func DeriveArgon2idKey(secret string, salt []byte, params Argon2idParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return argon2.IDKey([]byte(secret), salt, params.Time, params.MemoryKiB, params.Parallelism, params.KeyLen), nil
}

// CompareArgon2idKey derives a key from secret and compares it with
// expectedKey in constant time.
func CompareArgon2idKey(secret string, salt []byte, params Argon2idParams, expectedKey []byte) (bool, error) {
	key, err := DeriveArgon2idKey(secret, salt, params)
	if err != nil {
		return false, err
	}
	defer WipeBytes(key)
	return subtle.ConstantTimeCompare(key, expectedKey) == 1, nil
}
