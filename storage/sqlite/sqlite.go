// Package sqlite implements storage.Repository backed by an embedded SQLite
// database (modernc.org/sqlite, no cgo).
//
// The records table uses the same (namespace, record_type, record_id) key
// space as the BBolt and in-memory backends. Envelope fields are stored as
// individual columns.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kevintanjc/bleep/storage"
)

//go:embed schema.sql
var schemaSQL string

// Store implements storage.Repository backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by db. The schema must already
// exist; see EnsureSchema.
func NewRepository(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewRepositoryFromFile opens (creating if needed) the database at path,
// ensures the schema exists, and returns a new Repository.
func NewRepositoryFromFile(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(1000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection serialises writers without SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return NewRepository(db), nil
}

// EnsureSchema creates the records table if it does not exist. It is safe to
// call on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schemaSQL)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Put(namespace, recordType, recordID string, envelope *storage.Envelope) error {
	_, err := s.db.Exec(
		`INSERT INTO records (namespace, record_type, record_id, ver, scheme, nonce, ciphertext)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, record_type, record_id)
		 DO UPDATE SET ver = excluded.ver, scheme = excluded.scheme,
		               nonce = excluded.nonce, ciphertext = excluded.ciphertext`,
		namespace, recordType, recordID,
		envelope.Ver, envelope.Scheme, envelope.Nonce, envelope.Ciphertext)
	return err
}

func (s *Store) Get(namespace, recordType, recordID string) (*storage.Envelope, error) {
	var env storage.Envelope
	err := s.db.QueryRow(
		`SELECT ver, scheme, nonce, ciphertext
		 FROM records WHERE namespace = ? AND record_type = ? AND record_id = ?`,
		namespace, recordType, recordID).Scan(&env.Ver, &env.Scheme, &env.Nonce, &env.Ciphertext)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.notFoundError(namespace, recordType, recordID)
	}
	if err != nil {
		return nil, err
	}
	return &env, nil
}

func (s *Store) Delete(namespace, recordType, recordID string) error {
	res, err := s.db.Exec(
		`DELETE FROM records WHERE namespace = ? AND record_type = ? AND record_id = ?`,
		namespace, recordType, recordID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return s.notFoundError(namespace, recordType, recordID)
	}
	return nil
}

func (s *Store) List(namespace, recordType string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT record_id FROM records WHERE namespace = ? AND record_type = ?`,
		namespace, recordType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// notFoundError distinguishes a missing namespace from a missing record so
// callers see the same errors as with the BBolt backend.
func (s *Store) notFoundError(namespace, recordType, recordID string) error {
	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM records WHERE namespace = ?)`, namespace).Scan(&exists)
	if err == nil && !exists {
		return fmt.Errorf("%s: %w", namespace, storage.ErrVaultNotFound)
	}
	return fmt.Errorf("%s/%s: %w", recordType, recordID, storage.ErrNotFound)
}
