package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kevintanjc/bleep/internal/util"
	"github.com/kevintanjc/bleep/storage"
)

var testKDF = util.Argon2idParams{Time: 1, MemoryKiB: 64, Parallelism: 1, KeyLen: 32}

var errInjected = errors.New("injected failure")

// mapStore is an in-memory KeyValueStore with per-key write failures.
type mapStore struct {
	mu      sync.Mutex
	items   map[string][]byte
	failSet map[string]bool
	failDel bool
}

func newMapStore() *mapStore {
	return &mapStore{items: make(map[string][]byte), failSet: make(map[string]bool)}
}

func (s *mapStore) SetItem(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet[key] {
		return errInjected
	}
	s.items[key] = append([]byte(nil), value...)
	return nil
}

func (s *mapStore) GetItem(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, fmt.Errorf("item %q: %w", key, storage.ErrNotFound)
	}
	return append([]byte(nil), v...), nil
}

func (s *mapStore) DeleteItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDel {
		return errInjected
	}
	delete(s.items, key)
	return nil
}

func (s *mapStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	return ok
}

// fakeClock is a manual clock and Scheduler. Advance runs every timer that
// has come due.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *fakeClock
	at    time.Time
	f     func()
	done  bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	live := c.timers[:0]
	for _, t := range c.timers {
		if t.done {
			continue
		}
		if !t.at.After(c.now) {
			t.done = true
			due = append(due, t.f)
			continue
		}
		live = append(live, t)
	}
	c.timers = live
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// stuckScheduler never runs anything, like a timer held up by system sleep.
type stuckScheduler struct{}

type nopStopper struct{}

func (nopStopper) Stop() bool { return true }

func (stuckScheduler) AfterFunc(time.Duration, func()) Stopper { return nopStopper{} }

type fakeBiometric struct {
	available bool
	pass      bool

	mu      sync.Mutex
	reasons []string
}

func (b *fakeBiometric) Available(context.Context) bool { return b.available }

func (b *fakeBiometric) Challenge(_ context.Context, reason string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reasons = append(b.reasons, reason)
	return b.pass
}

func (b *fakeBiometric) challenges() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.reasons...)
}

// chanPrompter hands every opened challenge to the test.
type chanPrompter struct {
	entries chan PinEntry
}

func newChanPrompter() *chanPrompter {
	return &chanPrompter{entries: make(chan PinEntry, 4)}
}

func (p *chanPrompter) PresentPIN(e PinEntry) { p.entries <- e }

func (p *chanPrompter) next(t *testing.T) PinEntry {
	t.Helper()
	select {
	case e := <-p.entries:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no PIN challenge opened")
		return PinEntry{}
	}
}

func submitting(pin *string) PinPrompter {
	return PinPrompterFunc(func(e PinEntry) {
		_, _ = e.Submit(context.Background(), *pin)
	})
}

func newTestManager(t *testing.T, store KeyValueStore, clock *fakeClock, opts ...Option) *Manager {
	t.Helper()
	base := []Option{WithClock(clock.Now), WithScheduler(clock), WithKDFParams(testKDF)}
	m, err := New(store, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func waitResult(t *testing.T, ch <-chan bool) bool {
	t.Helper()
	select {
	case ok := <-ch:
		return ok
	case <-time.After(5 * time.Second):
		t.Fatal("Authenticate did not return")
		return false
	}
}
