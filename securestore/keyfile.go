package securestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kevintanjc/bleep/internal/util"
)

// LoadOrCreateKeyFile reads a hex encoded wrapping key from path, creating
// the file with a fresh random key (mode 0600) when it does not exist.
func LoadOrCreateKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		defer util.WipeBytes(data)
		key, err := util.DecodeKeyHex(string(data), WrappingKeySize)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidWrappingKey, path, err)
		}
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading wrapping key file: %w", err)
	}

	key, err := util.RandomBytes(WrappingKeySize)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}
	// O_EXCL so two processes racing on first start cannot both win.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		util.WipeBytes(key)
		if errors.Is(err, fs.ErrExist) {
			return LoadOrCreateKeyFile(path)
		}
		return nil, fmt.Errorf("creating wrapping key file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(util.HexEncode(key) + "\n"); err != nil {
		util.WipeBytes(key)
		return nil, fmt.Errorf("writing wrapping key file: %w", err)
	}
	return key, nil
}
