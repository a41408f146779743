package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kevintanjc/bleep/internal/uuid"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditUnlockSuccess  AuditEvent = "unlock_success"
	AuditUnlockFailure  AuditEvent = "unlock_failure"
	AuditLock           AuditEvent = "lock"
	AuditSignOut        AuditEvent = "signout"
	AuditPinSet         AuditEvent = "pin_set"
	AuditPinAccepted    AuditEvent = "pin_accepted"
	AuditPinRejected    AuditEvent = "pin_rejected"
	AuditPinRateLimited AuditEvent = "pin_rate_limited"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger  *slog.Logger
	metrics *metricsCollector
	store   *auditStore
	webhook *auditWebhook
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

// log writes a structured audit log entry. PINs never appear in attrs.
func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	now := time.Now().UTC()
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", now.Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
	if al.metrics != nil {
		al.metrics.recordEvent(event)
	}
	if al.store == nil && al.webhook == nil {
		return
	}
	entry := AuditEntry{ID: uuid.New(), Event: event, RemoteAddr: r.RemoteAddr, CreatedAt: now}
	for _, a := range attrs {
		switch a.Key {
		case "method":
			entry.Method = a.Value.String()
		case "reason":
			entry.Reason = a.Value.String()
		}
	}
	if al.store != nil {
		if err := al.store.append(entry); err != nil {
			al.logger.Warn("persisting audit entry", slog.String("error", err.Error()))
		}
	}
	if al.webhook != nil {
		al.webhook.enqueue(entry)
	}
}

// logFailure logs a failed or refused attempt.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}
