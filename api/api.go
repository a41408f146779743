// Package api exposes the privacy lock to UI surfaces over HTTP.
//
// A browser or companion app drives an unlock by POSTing /unlock, which
// blocks for the whole attempt, and answers the PIN fallback from a second
// request by polling /pin/challenge and POSTing /pin/submit.
package api

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/kevintanjc/bleep/auth"
	"github.com/kevintanjc/bleep/storage"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	manager *auth.Manager
	limiter *pinAttemptLimiter
	audit   *auditLogger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		prev := a.audit
		a.audit = newAuditLogger(logger)
		a.audit.metrics = prev.metrics
		a.audit.store = prev.store
		a.audit.webhook = prev.webhook
	}
}

// WithAuditRepository persists audit entries to repo, keeping at most
// maxEntries (a default applies when maxEntries <= 0). Without it audit
// events are only logged and GET /audit returns an empty list.
func WithAuditRepository(repo storage.Repository, maxEntries int) Option {
	return func(a *API) {
		a.audit.store = newAuditStore(repo, maxEntries)
	}
}

// WithAlertFunc registers a callback for PIN failure spikes.
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) {
		a.audit.metrics = newMetricsCollector(fn)
	}
}

// WithAuditWebhook forwards every audit entry as JSON to url. header, when
// set, is sent with each request in "Name: value" form.
func WithAuditWebhook(url, header string) Option {
	return func(a *API) {
		if url != "" {
			a.audit.webhook = newAuditWebhook(url, header)
		}
	}
}

// New creates a new API instance.
func New(m *auth.Manager, opts ...Option) *API {
	a := &API{
		manager: m,
		limiter: newPinAttemptLimiter(),
		audit:   newAuditLogger(slog.Default()),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close flushes the audit webhook queue, giving up when ctx ends.
func (a *API) Close(ctx context.Context) {
	if a.audit.webhook != nil {
		a.audit.webhook.close(ctx)
	}
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(CSRFMiddleware)

	r.Get("/session", a.GetSession)
	r.Get("/session/watch", a.WatchSession)
	r.Post("/unlock", a.Unlock)
	r.Post("/lock", a.Lock)
	r.Post("/signout", a.SignOut)

	r.Get("/pin", a.GetPinStatus)
	r.Put("/pin", a.SetPIN)
	r.Get("/pin/challenge", a.GetChallenge)
	r.Post("/pin/submit", a.SubmitPIN)
	r.Post("/pin/cancel", a.CancelChallenge)

	r.Get("/audit", a.ListAudit)

	return r
}
