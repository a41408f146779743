// Package biometric adapts platform biometric prompts to the boolean
// contract auth.Manager consumes: probe failures mean "not available" and
// every non-success outcome of a challenge is a plain false.
package biometric

import (
	"context"
	"log/slog"
)

// Platform is an OS biometric facility.
type Platform interface {
	// Probe reports whether sensor hardware is present and at least one
	// credential is enrolled.
	Probe(ctx context.Context) (hardware, enrolled bool, err error)
	// Verify prompts the user with reason. A nil error means the user
	// passed; failure and cancellation both return an error.
	Verify(ctx context.Context, reason string) error
}

// Gate implements auth.Biometric over a Platform.
type Gate struct {
	platform Platform
}

func New(p Platform) *Gate {
	if p == nil {
		p = None{}
	}
	return &Gate{platform: p}
}

// Available reports hardware present and enrolled. Probe errors are logged
// and reported as unavailable so callers fall through to the PIN.
func (g *Gate) Available(ctx context.Context) bool {
	hardware, enrolled, err := g.platform.Probe(ctx)
	if err != nil {
		slog.Warn("biometric probe failed", slog.String("error", err.Error()))
		return false
	}
	return hardware && enrolled
}

// Challenge prompts the user and reports success.
func (g *Gate) Challenge(ctx context.Context, reason string) bool {
	if err := g.platform.Verify(ctx, reason); err != nil {
		slog.Debug("biometric challenge not passed", slog.String("error", err.Error()))
		return false
	}
	return true
}

// None is a Platform without biometric hardware.
type None struct{}

func (None) Probe(context.Context) (bool, bool, error) { return false, false, nil }

func (None) Verify(context.Context, string) error { return ErrUnavailable }
