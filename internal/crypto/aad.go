// Package icrypto holds the key-derivation and associated-data layout used
// to seal secure-store items.
package icrypto

import (
	"encoding/binary"
)

const (
	aadItem      = "ITEM"
	aadMasterKey = "MASTERKEY"
)

// AADItem binds a sealed item to its namespace, key and format version so a
// ciphertext cannot be replayed under another key.
func AADItem(namespace, key string, ver int) []byte {
	return buildAAD(aadItem, namespace, key, ver)
}

// AADMasterKeyWrap binds the wrapped master key to its namespace.
func AADMasterKeyWrap(namespace string, ver int) []byte {
	return buildAAD(aadMasterKey, namespace, ver)
}

func buildAAD(parts ...any) []byte {
	var res []byte
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			res = appendLenPrefix(res, []byte(v))
		case []byte:
			res = appendLenPrefix(res, v)
		case int:
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, uint32(v))
			res = append(res, b...)
		}
	}
	return res
}

func appendLenPrefix(b, data []byte) []byte {
	l := make([]byte, 4)
	binary.BigEndian.PutUint32(l, uint32(len(data)))
	b = append(b, l...)
	b = append(b, data...)
	return b
}
