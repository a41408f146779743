// Package uuid generates identifiers for short-lived objects such as PIN
// challenges.
package uuid

import guuid "github.com/google/uuid"

// New returns a random (version 4) UUID string.
func New() string {
	return guuid.NewString()
}
