package util

import (
	"bytes"
	"strings"
	"testing"
)

func TestAES(t *testing.T) {
	key, err := NewAESKey()
	if err != nil {
		t.Fatalf("NewAESKey failed: %v", err)
	}
	plainText := []byte("auth_session_v1")
	aad := []byte("item:auth_session_v1")

	t.Run("EncryptDecryptWithAAD", func(t *testing.T) {
		cipherText, err := EncryptAESWithAAD(plainText, key, aad)
		if err != nil {
			t.Fatalf("EncryptAESWithAAD failed: %v", err)
		}
		decrypted, err := DecryptAESWithAAD(cipherText, key, aad)
		if err != nil {
			t.Fatalf("DecryptAESWithAAD failed: %v", err)
		}
		if !bytes.Equal(plainText, decrypted) {
			t.Errorf("expected %s, got %s", plainText, decrypted)
		}
	})

	t.Run("TamperAAD", func(t *testing.T) {
		cipherText, _ := EncryptAESWithAAD(plainText, key, aad)
		_, err := DecryptAESWithAAD(cipherText, key, []byte("item:auth_pin_v1"))
		if err == nil {
			t.Error("expected error with wrong AAD, got nil")
		}
	})

	t.Run("TamperCipherText", func(t *testing.T) {
		cipherText, _ := EncryptAESWithAAD(plainText, key, aad)
		cipherText[len(cipherText)-1] ^= 0xFF
		_, err := DecryptAESWithAAD(cipherText, key, aad)
		if err == nil {
			t.Error("expected error with tampered ciphertext, got nil")
		}
	})

	t.Run("ShortCipherText", func(t *testing.T) {
		_, err := DecryptAESWithAAD([]byte{1, 2, 3}, key, aad)
		if err == nil {
			t.Error("expected error for truncated ciphertext, got nil")
		}
	})

	t.Run("RejectBadKeySize", func(t *testing.T) {
		_, err := EncryptAESWithAAD(plainText, []byte("too short"), aad)
		if err == nil {
			t.Error("expected error with wrong key size, got nil")
		}
	})
}

func TestArgon2id(t *testing.T) {
	params := Argon2idParams{Time: 1, MemoryKiB: 64, Parallelism: 1, KeyLen: 32}
	salt := []byte("0123456789abcdef")

	key, err := DeriveArgon2idKey("1234", salt, params)
	if err != nil {
		t.Fatalf("DeriveArgon2idKey failed: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("expected key length 32, got %d", len(key))
	}

	match, err := CompareArgon2idKey("1234", salt, params, key)
	if err != nil {
		t.Fatalf("CompareArgon2idKey failed: %v", err)
	}
	if !match {
		t.Error("expected CompareArgon2idKey to return true")
	}

	match, _ = CompareArgon2idKey("9999", salt, params, key)
	if match {
		t.Error("expected CompareArgon2idKey to return false for wrong PIN")
	}

	t.Run("Validate", func(t *testing.T) {
		if err := DefaultArgon2idParams().Validate(); err != nil {
			t.Errorf("default params should validate: %v", err)
		}
		bad := []Argon2idParams{
			{Time: 1, MemoryKiB: 64, Parallelism: 1, KeyLen: 16},
			{Time: 0, MemoryKiB: 64, Parallelism: 1, KeyLen: 32},
			{Time: 1, MemoryKiB: 64, Parallelism: 0, KeyLen: 32},
			{Time: 1, MemoryKiB: 4, Parallelism: 1, KeyLen: 32},
		}
		for _, p := range bad {
			if _, err := DeriveArgon2idKey("1234", salt, p); err == nil {
				t.Errorf("expected error for params %+v", p)
			}
		}
	})
}

func TestHKDF(t *testing.T) {
	seed := []byte("seed")
	key1, err := HKDF(seed, nil, []byte("bleep:item:auth_pin_v1"))
	if err != nil {
		t.Fatalf("HKDF failed: %v", err)
	}
	if len(key1) != 32 {
		t.Errorf("expected key length 32, got %d", len(key1))
	}
	key2, _ := HKDF(seed, nil, []byte("bleep:item:auth_pin_v1"))
	if !bytes.Equal(key1, key2) {
		t.Error("HKDF should be deterministic")
	}
	key3, _ := HKDF(seed, nil, []byte("bleep:item:auth_session_v1"))
	if bytes.Equal(key1, key3) {
		t.Error("HKDF should produce different output with different info")
	}
}

func TestBytes(t *testing.T) {
	a := []byte{0x01, 0x02, 0x03}
	copied := CopyBytes(a)
	if !bytes.Equal(copied, a) {
		t.Error("CopyBytes failed")
	}
	copied[0] = 0xFF
	if a[0] == 0xFF {
		t.Error("CopyBytes should return a new slice")
	}

	WipeBytes(copied)
	if !bytes.Equal(copied, []byte{0, 0, 0}) {
		t.Errorf("WipeBytes left %v", copied)
	}
}

func TestDecodeKeyHex(t *testing.T) {
	raw, _ := RandomBytes(32)
	enc := HexEncode(raw)

	got, err := DecodeKeyHex(enc+"\n", 32)
	if err != nil {
		t.Fatalf("DecodeKeyHex failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("DecodeKeyHex round trip mismatch")
	}

	if _, err := DecodeKeyHex(enc[:10], 32); err == nil {
		t.Error("expected error for short key")
	}
	if _, err := DecodeKeyHex(strings.Repeat("zz", 32), 32); err == nil {
		t.Error("expected error for non-hex input")
	}
}

func TestRandomBytes(t *testing.T) {
	b1, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("RandomBytes failed: %v", err)
	}
	b2, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("RandomBytes failed: %v", err)
	}
	if len(b1) != 32 {
		t.Errorf("expected 32 bytes, got %d", len(b1))
	}
	if bytes.Equal(b1, b2) {
		t.Error("RandomBytes should produce different outputs")
	}
}
