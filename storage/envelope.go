package storage

import (
	"fmt"

	"github.com/kevintanjc/bleep/internal/util"
)

const (
	envelopeVer    = 1
	envelopeScheme = "aes256gcm"
)

// Envelope is a sealed record containing AES-256-GCM encrypted data.
type Envelope struct {
	Ver        int    `json:"ver"`
	Scheme     string `json:"scheme"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Clone returns a deep copy of env.
func (env *Envelope) Clone() *Envelope {
	if env == nil {
		return nil
	}
	return &Envelope{
		Ver:        env.Ver,
		Scheme:     env.Scheme,
		Nonce:      util.CopyBytes(env.Nonce),
		Ciphertext: util.CopyBytes(env.Ciphertext),
	}
}

// SealRecord encrypts plaintext into an Envelope using the given record key and AAD.
func SealRecord(recordKey, plaintext, aad []byte) (*Envelope, error) {
	sealed, err := util.EncryptAESWithAAD(plaintext, recordKey, aad)
	if err != nil {
		return nil, err
	}

	// util.EncryptAESWithAAD returns nonce || ciphertext.
	return &Envelope{
		Ver:        envelopeVer,
		Scheme:     envelopeScheme,
		Nonce:      sealed[:12],
		Ciphertext: sealed[12:],
	}, nil
}

// OpenRecord decrypts an Envelope using the given record key and AAD.
func OpenRecord(recordKey []byte, envelope *Envelope, aad []byte) ([]byte, error) {
	if envelope.Ver != envelopeVer {
		return nil, fmt.Errorf("unsupported envelope version: %d", envelope.Ver)
	}
	if envelope.Scheme != envelopeScheme {
		return nil, fmt.Errorf("unsupported envelope scheme: %s", envelope.Scheme)
	}

	// Reconstruct nonce || ciphertext without mutating envelope fields.
	full := make([]byte, len(envelope.Nonce)+len(envelope.Ciphertext))
	copy(full, envelope.Nonce)
	copy(full[len(envelope.Nonce):], envelope.Ciphertext)

	return util.DecryptAESWithAAD(full, recordKey, aad)
}
