package auth

import (
	"context"
	"time"

	"github.com/kevintanjc/bleep/internal/util"
)

// DefaultReason is the biometric prompt text used when Authenticate is
// given an empty reason.
const DefaultReason = "Unlock Originals"

// Biometric is the platform biometric capability. Available reports
// hardware present and at least one credential enrolled; Challenge reports
// whether the user passed the prompt. Neither may panic or block past ctx.
type Biometric interface {
	Available(ctx context.Context) bool
	Challenge(ctx context.Context, reason string) bool
}

type noBiometric struct{}

func (noBiometric) Available(context.Context) bool         { return false }
func (noBiometric) Challenge(context.Context, string) bool { return false }

type options struct {
	ttl       time.Duration
	now       func() time.Time
	sched     Scheduler
	biometric Biometric
	prompter  PinPrompter
	kdf       util.Argon2idParams
	reason    string
}

func defaultOptions() options {
	return options{
		ttl:       DefaultTTL,
		now:       time.Now,
		sched:     realScheduler{},
		biometric: noBiometric{},
		prompter:  noPrompter{},
		kdf:       util.DefaultArgon2idParams(),
		reason:    DefaultReason,
	}
}

// Option configures a Manager.
type Option func(*options)

// WithTTL sets the session lifetime. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithScheduler replaces the time.AfterFunc based expiry scheduler.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		if s != nil {
			o.sched = s
		}
	}
}

// WithBiometric sets the biometric platform. Without it biometrics are
// reported unavailable and every attempt goes to the PIN.
func WithBiometric(b Biometric) Option {
	return func(o *options) {
		if b != nil {
			o.biometric = b
		}
	}
}

// WithPinPrompter sets the UI surface notified when a PIN challenge opens.
// Without it the challenge can still be answered through PinChallenge.
func WithPinPrompter(p PinPrompter) Option {
	return func(o *options) {
		if p != nil {
			o.prompter = p
		}
	}
}

// WithKDFParams sets the Argon2id parameters for newly stored PINs.
func WithKDFParams(p util.Argon2idParams) Option {
	return func(o *options) {
		o.kdf = p
	}
}

func WithDefaultReason(reason string) Option {
	return func(o *options) {
		if reason != "" {
			o.reason = reason
		}
	}
}
