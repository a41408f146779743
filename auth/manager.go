package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const authenticateKey = "authenticate"

// Manager owns the session. All state changes happen under mu; biometric and
// PIN waits happen outside it.
type Manager struct {
	ttl       time.Duration
	now       func() time.Time
	reason    string
	biometric Biometric

	creds    *CredentialStore
	sessions *SessionStore
	pin      *PinChallenge
	timer    *SessionTimer
	flight   singleflight.Group

	mu      sync.Mutex
	session Session
	epoch   uint64
	subs    map[int]chan Session
	nextSub int
}

// New returns a Locked Manager persisting into store. Call Restore to pick
// up a session that survived a restart.
func New(store KeyValueStore, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("auth: nil store")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.kdf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PIN KDF parameters: %w", err)
	}
	creds := NewCredentialStore(store, o.kdf)
	return &Manager{
		ttl:       o.ttl,
		now:       o.now,
		reason:    o.reason,
		biometric: o.biometric,
		creds:     creds,
		sessions:  NewSessionStore(store),
		pin:       NewPinChallenge(creds, o.prompter),
		timer:     NewSessionTimer(o.sched),
		subs:      make(map[int]chan Session),
	}, nil
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// PinChallenge returns the challenge a UI surface answers.
func (m *Manager) PinChallenge() *PinChallenge { return m.pin }

// Authenticate tries biometrics and then the PIN, and reports whether this
// attempt unlocked the session. Concurrent calls join the attempt already in
// flight and share its result; the attempt runs under the first caller's
// context and reason. A caller whose ctx ends stops waiting and gets false.
func (m *Manager) Authenticate(ctx context.Context, reason string) bool {
	if reason == "" {
		reason = m.reason
	}
	ch := m.flight.DoChan(authenticateKey, func() (any, error) {
		return m.attempt(ctx, reason), nil
	})
	select {
	case res := <-ch:
		ok, _ := res.Val.(bool)
		return ok
	case <-ctx.Done():
		return false
	}
}

func (m *Manager) attempt(ctx context.Context, reason string) bool {
	method := MethodNone
	if m.biometric.Available(ctx) {
		if m.biometric.Challenge(ctx, reason) {
			method = MethodBiometric
		} else {
			slog.Info("biometric challenge failed")
		}
	}
	if method == MethodNone && m.pin.Open(ctx) {
		method = MethodPin
	}
	if method == MethodNone {
		slog.Info("authentication failed")
		return false
	}
	m.promote(ctx, method)
	return true
}

func (m *Manager) promote(ctx context.Context, method Method) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timer.Cancel()
	m.session = Session{Authenticated: true, Method: method, LastAuthAt: m.now()}
	m.epoch++
	m.sessions.Persist(ctx, m.session)
	m.armLocked(m.ttl)
	m.notifyLocked()
	slog.Info("session unlocked", slog.String("method", string(method)))
}

func (m *Manager) armLocked(d time.Duration) {
	epoch := m.epoch
	m.timer.Arm(d, func() { m.expire(epoch) })
}

func (m *Manager) expire(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch || !m.session.Authenticated {
		return
	}
	slog.Info("session expired")
	m.resetLocked(context.Background())
}

// resetLocked drops the session to Locked and clears the persisted record.
func (m *Manager) resetLocked(ctx context.Context) {
	m.timer.Cancel()
	m.session = Session{}
	m.epoch++
	m.sessions.Clear(ctx)
	m.notifyLocked()
}

// Lock drops the session to Locked, cancels any pending PIN challenge and
// clears the persisted record.
func (m *Manager) Lock(ctx context.Context) {
	m.pin.Cancel("")
	m.mu.Lock()
	defer m.mu.Unlock()
	wasAuthenticated := m.session.Authenticated
	m.resetLocked(ctx)
	if wasAuthenticated {
		slog.Info("session locked")
	}
}

// SignOut is Lock.
func (m *Manager) SignOut(ctx context.Context) { m.Lock(ctx) }

// SetPIN stores pin as the fallback credential, replacing any previous one.
func (m *Manager) SetPIN(ctx context.Context, pin string) error {
	if err := m.creds.Set(ctx, pin); err != nil {
		return err
	}
	slog.Info("PIN updated")
	return nil
}

// HasPIN reports whether a PIN is configured.
func (m *Manager) HasPIN(ctx context.Context) bool {
	return m.creds.Has(ctx)
}

// Snapshot returns the current session. A session past its TTL is reported
// Locked even if the expiry timer has not fired yet.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Authenticated && !m.session.freshAt(m.now(), m.ttl) {
		slog.Info("session expired")
		m.resetLocked(context.Background())
	}
	return m.session
}

// Restore promotes the Manager to a persisted session that is still fresh
// and arms the timer for what is left of its TTL. It reports whether a
// session was restored.
func (m *Manager) Restore(ctx context.Context) bool {
	now := m.now()
	sess, ok := m.sessions.Restore(ctx, now, m.ttl)
	if !ok {
		return false
	}
	remaining := m.ttl - now.Sub(sess.LastAuthAt)
	if remaining > m.ttl {
		remaining = m.ttl
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Authenticated {
		return true
	}
	m.session = sess
	m.epoch++
	m.armLocked(remaining)
	m.notifyLocked()
	slog.Info("session restored",
		slog.String("method", string(sess.Method)),
		slog.Duration("remaining", remaining))
	return true
}

// Subscribe returns a channel that receives the current session and then
// every change. Slow readers only see the latest state. Call the returned
// func to unsubscribe; it closes the channel.
func (m *Manager) Subscribe() (<-chan Session, func()) {
	ch := make(chan Session, 1)
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	ch <- m.session
	m.mu.Unlock()

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
}

func (m *Manager) notifyLocked() {
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- m.session
	}
}

// Close stops the expiry timer, cancels any pending PIN challenge and
// closes all subscriptions. The persisted session is left in place.
func (m *Manager) Close() {
	m.pin.Cancel("")
	m.timer.Cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
}
