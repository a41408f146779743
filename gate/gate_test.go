package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevintanjc/bleep/auth"
)

type fakeAuth struct {
	mu      sync.Mutex
	session auth.Session
	pass    bool
	reasons []string
}

func (f *fakeAuth) Snapshot() auth.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *fakeAuth) Authenticate(_ context.Context, reason string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
	if f.pass {
		f.session = auth.Session{Authenticated: true, Method: auth.MethodBiometric}
	}
	return f.pass
}

func TestGateUnlock(t *testing.T) {
	a := &fakeAuth{}
	g := New(a, WithReason("See originals"))

	assert.False(t, g.Allowed())
	assert.False(t, g.Unlock(t.Context()))

	a.pass = true
	assert.True(t, g.Unlock(t.Context()))
	assert.True(t, g.Allowed())

	// Already unlocked: no new prompt.
	assert.True(t, g.Unlock(t.Context()))
	assert.Equal(t, []string{"See originals", "See originals"}, a.reasons)
}

func TestGateGuard(t *testing.T) {
	a := &fakeAuth{}
	g := New(a)
	called := false
	fn := func(context.Context) error { called = true; return nil }

	assert.ErrorIs(t, g.Guard(t.Context(), fn), ErrLocked)
	assert.False(t, called)

	a.session = auth.Session{Authenticated: true, Method: auth.MethodPin}
	require.NoError(t, g.Guard(t.Context(), fn))
	assert.True(t, called)

	boom := errors.New("boom")
	assert.ErrorIs(t, g.Guard(t.Context(), func(context.Context) error { return boom }), boom)
}

func TestMiddleware(t *testing.T) {
	a := &fakeAuth{}
	g := New(a, WithUnlockPath("/gate/unlock"))
	h := g.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("original bytes"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/originals/a.jpg?x=1", nil))
	assert.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	body := rec.Body.String()
	assert.NotContains(t, body, "original bytes")
	assert.Contains(t, body, `action="/gate/unlock"`)
	assert.Contains(t, body, `value="/originals/a.jpg?x=1"`)

	a.session = auth.Session{Authenticated: true, Method: auth.MethodBiometric}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/originals/a.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "original bytes", rec.Body.String())
}

func TestUnlockHandler(t *testing.T) {
	a := &fakeAuth{pass: true}
	h := New(a).UnlockHandler()

	form := url.Values{"return_to": {"/originals/a.jpg"}}
	req := httptest.NewRequest(http.MethodPost, "/unlock", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/originals/a.jpg", rec.Header().Get("Location"))
	assert.Len(t, a.reasons, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unlock", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSafeReturnTo(t *testing.T) {
	cases := map[string]string{
		"":                      "/",
		"/originals/a.jpg":      "/originals/a.jpg",
		"https://evil.example/": "/",
		"//evil.example/":       "/",
		`/\evil.example`:        "/",
		"relative":              "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeReturnTo(in), in)
	}
}
