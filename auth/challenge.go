package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kevintanjc/bleep/internal/uuid"
)

// PinPrompter is the UI surface that collects a PIN. PresentPIN is called
// once per opened challenge; it may block until the user answers or return
// immediately and resolve the entry later from another goroutine.
type PinPrompter interface {
	PresentPIN(entry PinEntry)
}

// PinPrompterFunc adapts a function to PinPrompter.
type PinPrompterFunc func(entry PinEntry)

func (f PinPrompterFunc) PresentPIN(entry PinEntry) { f(entry) }

type noPrompter struct{}

func (noPrompter) PresentPIN(PinEntry) {}

// PinEntry is the handle a prompter uses to answer one challenge.
type PinEntry struct {
	challenge *PinChallenge
	id        string
}

func (e PinEntry) ID() string { return e.id }

// Submit checks candidate and resolves this challenge with the result.
func (e PinEntry) Submit(ctx context.Context, candidate string) (bool, error) {
	return e.challenge.Submit(ctx, e.id, candidate)
}

// Cancel resolves this challenge with false.
func (e PinEntry) Cancel() { e.challenge.Cancel(e.id) }

type pendingChallenge struct {
	id     string
	result chan bool
}

// PinChallenge turns a UI-driven PIN entry into a single awaited result. It
// holds at most one pending challenge, and every opened challenge is
// resolved exactly once.
type PinChallenge struct {
	creds    *CredentialStore
	prompter PinPrompter

	mu      sync.Mutex
	pending *pendingChallenge
}

func NewPinChallenge(creds *CredentialStore, prompter PinPrompter) *PinChallenge {
	if prompter == nil {
		prompter = noPrompter{}
	}
	return &PinChallenge{creds: creds, prompter: prompter}
}

// Open presents a PIN prompt and waits for it to be resolved. It returns
// false straight away when no PIN is configured or another challenge is
// already pending, and false when ctx ends first.
func (c *PinChallenge) Open(ctx context.Context) bool {
	if !c.creds.Has(ctx) {
		return false
	}
	p := &pendingChallenge{id: uuid.New(), result: make(chan bool, 1)}

	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		slog.Warn("PIN challenge already pending", slog.String("challenge_id", c.pending.id))
		return false
	}
	c.pending = p
	c.mu.Unlock()

	slog.Debug("PIN challenge opened", slog.String("challenge_id", p.id))
	c.prompter.PresentPIN(PinEntry{challenge: c, id: p.id})

	select {
	case ok := <-p.result:
		return ok
	case <-ctx.Done():
		// Either this resolves it, or a concurrent submit already did and
		// its result is buffered.
		c.resolve(p.id, false)
		return <-p.result
	}
}

// Submit compares candidate with the stored PIN and resolves the pending
// challenge with the outcome. An empty id targets whatever challenge is
// pending. If no challenge matches id, Submit does nothing and returns
// ErrNoPendingChallenge.
func (c *PinChallenge) Submit(ctx context.Context, id, candidate string) (bool, error) {
	current, ok := c.Pending()
	if !ok || (id != "" && id != current) {
		return false, ErrNoPendingChallenge
	}
	cred, err := c.creds.Get(ctx)
	if err != nil {
		slog.Warn("PIN unavailable during challenge", slog.String("error", err.Error()))
	}
	match := err == nil && cred.Matches(candidate)
	if !c.resolve(current, match) {
		return false, ErrNoPendingChallenge
	}
	slog.Debug("PIN challenge resolved", slog.String("challenge_id", current), slog.Bool("accepted", match))
	return match, nil
}

// Cancel resolves the challenge with false. An empty id targets whatever
// challenge is pending. Cancelling an absent challenge is a no-op.
func (c *PinChallenge) Cancel(id string) {
	if c.resolve(id, false) {
		slog.Debug("PIN challenge cancelled")
	}
}

// Pending returns the id of the open challenge, if any.
func (c *PinChallenge) Pending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", false
	}
	return c.pending.id, true
}

func (c *PinChallenge) resolve(id string, ok bool) bool {
	c.mu.Lock()
	p := c.pending
	if p == nil || (id != "" && p.id != id) {
		c.mu.Unlock()
		return false
	}
	c.pending = nil
	c.mu.Unlock()
	p.result <- ok
	return true
}
