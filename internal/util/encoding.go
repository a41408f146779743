package util

import (
	"encoding/hex"
	"fmt"
	"strings"
)

func HexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeKeyHex parses a hex encoded key of exactly size bytes. Surrounding
// whitespace (e.g. a trailing newline in a key file) is ignored.
func DecodeKeyHex(s string, size int) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decoding hex key: %w", err)
	}
	if len(b) != size {
		WipeBytes(b)
		return nil, fmt.Errorf("key must be exactly %d bytes, got %d", size, len(b))
	}
	return b, nil
}
