package auth

import (
	"encoding/json"
	"fmt"
	"time"
)

// DefaultTTL is how long a successful authentication stays valid.
const DefaultTTL = 5 * time.Minute

// Method records how the current session was unlocked.
type Method string

const (
	MethodNone      Method = ""
	MethodBiometric Method = "biometric"
	MethodPin       Method = "pin"
)

func (m Method) valid() bool {
	return m == MethodBiometric || m == MethodPin
}

// Session is a snapshot of the lock state. The zero value is Locked.
//
// Authenticated implies Method != MethodNone and a non-zero LastAuthAt
// younger than the TTL. Every transition to Locked resets all fields.
type Session struct {
	Authenticated bool
	Method        Method
	LastAuthAt    time.Time
}

// ExpiresAt returns when s stops being valid, or the zero time when locked.
func (s Session) ExpiresAt(ttl time.Duration) time.Time {
	if !s.Authenticated {
		return time.Time{}
	}
	return s.LastAuthAt.Add(ttl)
}

// freshAt reports whether s is authenticated and inside its TTL at now.
func (s Session) freshAt(now time.Time, ttl time.Duration) bool {
	return s.Authenticated && !s.LastAuthAt.IsZero() && now.Sub(s.LastAuthAt) < ttl
}

// sessionRecord is the persisted form of a Session:
// {"isAuthenticated":bool,"method":string|null,"lastAuthAt":number|null}
// with lastAuthAt in Unix milliseconds.
type sessionRecord struct {
	IsAuthenticated bool    `json:"isAuthenticated"`
	Method          *string `json:"method"`
	LastAuthAt      *int64  `json:"lastAuthAt"`
}

func marshalSession(s Session) ([]byte, error) {
	rec := sessionRecord{IsAuthenticated: s.Authenticated}
	if s.Method != MethodNone {
		m := string(s.Method)
		rec.Method = &m
	}
	if !s.LastAuthAt.IsZero() {
		ms := s.LastAuthAt.UnixMilli()
		rec.LastAuthAt = &ms
	}
	return json.Marshal(rec)
}

func unmarshalSession(data []byte) (Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Session{}, fmt.Errorf("decoding session record: %w", err)
	}
	s := Session{Authenticated: rec.IsAuthenticated}
	if rec.Method != nil {
		s.Method = Method(*rec.Method)
	}
	if rec.LastAuthAt != nil {
		s.LastAuthAt = time.UnixMilli(*rec.LastAuthAt)
	}
	return s, nil
}
