package api

import (
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"
)

// pinAttemptLimiter tracks rejected PIN submissions per client and enforces
// exponential backoff.
type pinAttemptLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord
	now      func() time.Time
}

type attemptRecord struct {
	failures    int
	lastFailure time.Time
	lockedUntil time.Time
}

const (
	// maxFailures is the number of consecutive failures before lockout begins.
	maxFailures = 5
	// baseLockout is the initial lockout duration after maxFailures is reached.
	baseLockout = 1 * time.Minute
	// maxLockout caps the exponential backoff.
	maxLockout = 15 * time.Minute
	// attemptExpiry is how long after the last failure before the record is
	// dropped.
	attemptExpiry = 1 * time.Hour
)

func newPinAttemptLimiter() *pinAttemptLimiter {
	return &pinAttemptLimiter{
		attempts: make(map[string]*attemptRecord),
		now:      time.Now,
	}
}

// check returns true if the client is currently locked out, along with how
// long the caller should wait.
func (rl *pinAttemptLimiter) check(clientID string) (blocked bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec, ok := rl.attempts[clientID]
	if !ok {
		return false, 0
	}
	now := rl.now()
	if now.Sub(rec.lastFailure) > attemptExpiry {
		delete(rl.attempts, clientID)
		return false, 0
	}
	if now.Before(rec.lockedUntil) {
		return true, rec.lockedUntil.Sub(now)
	}
	return false, 0
}

// recordFailure counts a rejected PIN. From the maxFailures-th failure on,
// the client is locked out for lockoutFor(failures).
func (rl *pinAttemptLimiter) recordFailure(clientID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rec := rl.attempts[clientID]
	if rec == nil {
		rec = &attemptRecord{}
		rl.attempts[clientID] = rec
	}
	now := rl.now()
	rec.failures++
	rec.lastFailure = now
	if rec.failures >= maxFailures {
		rec.lockedUntil = now.Add(lockoutFor(rec.failures))
	}
}

// lockoutFor doubles baseLockout for every failure past maxFailures, capped
// at maxLockout.
func lockoutFor(failures int) time.Duration {
	extra := failures - maxFailures
	if extra < 0 {
		return 0
	}
	if extra >= 10 {
		return maxLockout
	}
	return min(baseLockout<<extra, maxLockout)
}

// recordSuccess resets the failure counter.
func (rl *pinAttemptLimiter) recordSuccess(clientID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, clientID)
}

// writeRateLimited sends a 429 Too Many Requests response.
func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	w.Header().Set("Retry-After", retryAfterString(retryAfter))
	writeError(w, http.StatusTooManyRequests, "too many failed PIN attempts; try again later")
}

func retryAfterString(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// extractClientIP returns the peer address of r without port or zone.
// Proxy headers are never consulted: the server is meant to listen on
// loopback.
func extractClientIP(r *http.Request) string {
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr().WithZone("").String()
	}
	if addr, err := netip.ParseAddr(strings.Trim(r.RemoteAddr, "[]")); err == nil {
		return addr.WithZone("").String()
	}
	return r.RemoteAddr
}
