package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/kevintanjc/bleep/internal/uuid"
	"github.com/kevintanjc/bleep/storage"
)

const (
	auditNamespace    = "audit"
	auditRecordType   = "AUDIT"
	auditEnvelopeVer  = 1
	auditScheme       = "plain-json"
	defaultAuditLimit = 1000
)

// AuditEntry is one persisted audit event. It never carries a PIN.
type AuditEntry struct {
	ID         string     `json:"id"`
	Event      AuditEvent `json:"event"`
	Method     string     `json:"method,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	RemoteAddr string     `json:"remoteAddr,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// auditStore keeps audit entries in a storage.Repository, trimming the
// oldest once maxEntries is exceeded.
type auditStore struct {
	repo       storage.Repository
	maxEntries int

	mu sync.Mutex
}

func newAuditStore(repo storage.Repository, maxEntries int) *auditStore {
	if maxEntries <= 0 {
		maxEntries = defaultAuditLimit
	}
	return &auditStore{repo: repo, maxEntries: maxEntries}
}

func (s *auditStore) append(entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	env := &storage.Envelope{
		Ver:        auditEnvelopeVer,
		Scheme:     auditScheme,
		Ciphertext: data,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Put(auditNamespace, auditRecordType, entry.ID, env); err != nil {
		return err
	}
	return s.pruneLocked()
}

func (s *auditStore) pruneLocked() error {
	entries, err := ListAuditEntries(s.repo)
	if err != nil {
		return err
	}
	for _, e := range entries[min(len(entries), s.maxEntries):] {
		if err := s.repo.Delete(auditNamespace, auditRecordType, e.ID); err != nil {
			return fmt.Errorf("pruning audit entry %s: %w", e.ID, err)
		}
	}
	return nil
}

// ListAuditEntries returns the audit entries in repo, newest first.
// Unreadable records are skipped.
func ListAuditEntries(repo storage.Repository) ([]AuditEntry, error) {
	ids, err := repo.List(auditNamespace, auditRecordType)
	if err != nil {
		return nil, err
	}
	entries := make([]AuditEntry, 0, len(ids))
	for _, id := range ids {
		env, err := repo.Get(auditNamespace, auditRecordType, id)
		if err != nil || env == nil || env.Scheme != auditScheme {
			continue
		}
		var entry AuditEntry
		if err := json.Unmarshal(env.Ciphertext, &entry); err != nil {
			slog.Debug("skipping unreadable audit entry", slog.String("id", id))
			continue
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}
