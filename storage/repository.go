// Package storage provides the storage abstraction layer for sealed
// secure-store records.
package storage

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVaultNotFound is returned when a namespace has never been written.
	ErrVaultNotFound = errors.New("namespace not found")
)

// Repository defines the interface for sealed record storage. Records are
// addressed by (namespace, recordType, recordID).
//
// Get and Delete return an error wrapping ErrNotFound or ErrVaultNotFound
// when the record is absent.
type Repository interface {
	Put(namespace string, recordType string, recordID string, envelope *Envelope) error
	Get(namespace string, recordType string, recordID string) (*Envelope, error)
	Delete(namespace string, recordType string, recordID string) error
	List(namespace string, recordType string) ([]string, error)
}

// IsNotFound reports whether err means the record or its namespace is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrVaultNotFound)
}
