// Package gate exposes protected content only while the auth session is
// valid and otherwise offers an unlock action.
package gate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kevintanjc/bleep/auth"
)

// ErrLocked is returned by Guard when the session is not authenticated.
var ErrLocked = errors.New("session locked")

// Authenticator is the part of *auth.Manager a Gate needs.
type Authenticator interface {
	Snapshot() auth.Session
	Authenticate(ctx context.Context, reason string) bool
}

// Gate wraps protected content.
type Gate struct {
	auth       Authenticator
	reason     string
	unlockPath string
}

// Option configures a Gate.
type Option func(*Gate)

// WithReason sets the biometric prompt text used by Unlock.
func WithReason(reason string) Option {
	return func(g *Gate) { g.reason = reason }
}

// WithUnlockPath sets where the locked page posts its unlock form.
func WithUnlockPath(path string) Option {
	return func(g *Gate) { g.unlockPath = path }
}

func New(a Authenticator, opts ...Option) *Gate {
	g := &Gate{auth: a, reason: auth.DefaultReason, unlockPath: "/unlock"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allowed reports whether protected content may be shown right now.
func (g *Gate) Allowed() bool {
	return g.auth.Snapshot().Authenticated
}

// Unlock runs an authentication attempt unless the session is already
// valid, and reports whether content may be shown.
func (g *Gate) Unlock(ctx context.Context) bool {
	if g.Allowed() {
		return true
	}
	ok := g.auth.Authenticate(ctx, g.reason)
	if !ok {
		slog.Info("unlock attempt rejected")
	}
	return ok
}

// Guard runs fn only while the session is valid.
func (g *Gate) Guard(ctx context.Context, fn func(context.Context) error) error {
	if !g.Allowed() {
		return ErrLocked
	}
	return fn(ctx)
}
