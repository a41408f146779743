package icrypto

import "github.com/kevintanjc/bleep/internal/util"

const itemKeyInfoPrefix = "bleep:item-key:v1:"

// DeriveItemKey derives the per-item encryption key from the store master
// key. Each item key is independent, so compromising one sealed item's key
// reveals nothing about the others.
func DeriveItemKey(master []byte, namespace, key string) ([]byte, error) {
	return util.HKDF(master, []byte(namespace), []byte(itemKeyInfoPrefix+key))
}
