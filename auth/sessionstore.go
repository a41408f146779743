package auth

import (
	"context"
	"log/slog"
	"time"
)

// maxClockSkew bounds how far in the future a persisted lastAuthAt may lie
// and still be accepted.
const maxClockSkew = time.Second

// SessionStore persists the session record under SessionItemKey. Writes are
// best-effort: the in-memory session stays authoritative.
type SessionStore struct {
	kv KeyValueStore
}

func NewSessionStore(kv KeyValueStore) *SessionStore {
	return &SessionStore{kv: kv}
}

// Persist writes s. Failures are logged and dropped.
func (s *SessionStore) Persist(ctx context.Context, sess Session) {
	data, err := marshalSession(sess)
	if err != nil {
		slog.Warn("failed to encode session record", slog.String("error", err.Error()))
		return
	}
	if err := s.kv.SetItem(ctx, SessionItemKey, data); err != nil {
		slog.Warn("failed to persist session", slog.String("error", err.Error()))
	}
}

// Restore returns the persisted session if it is authenticated and still
// younger than ttl at now. Anything else, including an unreadable record,
// is reported as absent.
func (s *SessionStore) Restore(ctx context.Context, now time.Time, ttl time.Duration) (Session, bool) {
	data, err := s.kv.GetItem(ctx, SessionItemKey)
	if err != nil {
		if !isNotFound(err) {
			slog.Warn("failed to read session record", slog.String("error", err.Error()))
		}
		return Session{}, false
	}
	sess, err := unmarshalSession(data)
	if err != nil {
		slog.Warn("discarding session record", slog.String("error", err.Error()))
		return Session{}, false
	}
	switch {
	case !sess.Authenticated, !sess.Method.valid(), sess.LastAuthAt.IsZero():
		return Session{}, false
	case sess.LastAuthAt.After(now.Add(maxClockSkew)):
		slog.Warn("discarding session record from the future",
			slog.Time("last_auth_at", sess.LastAuthAt))
		return Session{}, false
	case !sess.freshAt(now, ttl):
		return Session{}, false
	}
	return sess, true
}

// Clear deletes the persisted record. Failures are logged and dropped.
func (s *SessionStore) Clear(ctx context.Context) {
	if err := s.kv.DeleteItem(ctx, SessionItemKey); err != nil && !isNotFound(err) {
		slog.Warn("failed to clear session", slog.String("error", err.Error()))
	}
}
