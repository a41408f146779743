package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kevintanjc/bleep/auth"
)

func (a *API) sessionResponse(s auth.Session) SessionResponse {
	resp := SessionResponse{IsAuthenticated: s.Authenticated}
	if s.Method != auth.MethodNone {
		m := string(s.Method)
		resp.Method = &m
	}
	if !s.LastAuthAt.IsZero() {
		ms := s.LastAuthAt.UnixMilli()
		resp.LastAuthAt = &ms
	}
	if s.Authenticated {
		ms := s.ExpiresAt(a.manager.TTL()).UnixMilli()
		resp.ExpiresAt = &ms
	}
	return resp
}

// GetSession handles GET /session.
func (a *API) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.sessionResponse(a.manager.Snapshot()))
}

// WatchSession handles GET /session/watch as a server-sent event stream with
// one "session" event per state change, starting with the current state.
func (a *API) WatchSession(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	updates, unsubscribe := a.manager.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case s, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(a.sessionResponse(s))
			if err != nil {
				slog.Warn("encoding session event", slog.String("error", err.Error()))
				return
			}
			if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// Unlock handles POST /unlock. It blocks until the attempt finishes, which
// for the PIN fallback means until another request answers the challenge.
func (a *API) Unlock(w http.ResponseWriter, r *http.Request) {
	var req UnlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ok := a.manager.Authenticate(r.Context(), req.Reason)
	if ok {
		a.audit.log(AuditUnlockSuccess, r, slog.String("method", string(a.manager.Snapshot().Method)))
	} else {
		a.audit.logFailure(AuditUnlockFailure, r, "authentication not completed")
	}
	writeJSON(w, http.StatusOK, UnlockResponse{OK: ok})
}

// Lock handles POST /lock.
func (a *API) Lock(w http.ResponseWriter, r *http.Request) {
	a.manager.Lock(r.Context())
	a.audit.log(AuditLock, r)
	w.WriteHeader(http.StatusNoContent)
}

// SignOut handles POST /signout.
func (a *API) SignOut(w http.ResponseWriter, r *http.Request) {
	a.manager.SignOut(r.Context())
	a.audit.log(AuditSignOut, r)
	w.WriteHeader(http.StatusNoContent)
}

// GetPinStatus handles GET /pin.
func (a *API) GetPinStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PinStatusResponse{Configured: a.manager.HasPIN(r.Context())})
}

// SetPIN handles PUT /pin. Any existing PIN is replaced.
func (a *API) SetPIN(w http.ResponseWriter, r *http.Request) {
	var req SetPINRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.manager.SetPIN(r.Context(), req.PIN); err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditPinSet, r)
	w.WriteHeader(http.StatusNoContent)
}

// GetChallenge handles GET /pin/challenge.
func (a *API) GetChallenge(w http.ResponseWriter, r *http.Request) {
	id, pending := a.manager.PinChallenge().Pending()
	writeJSON(w, http.StatusOK, ChallengeResponse{Pending: pending, ID: id})
}

// SubmitPIN handles POST /pin/submit.
func (a *API) SubmitPIN(w http.ResponseWriter, r *http.Request) {
	var req SubmitPINRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	clientIP := extractClientIP(r)
	if blocked, retryAfter := a.limiter.check(clientIP); blocked {
		a.audit.logFailure(AuditPinRateLimited, r, "too many failed PIN attempts")
		writeRateLimited(w, retryAfter)
		return
	}

	ok, err := a.manager.PinChallenge().Submit(r.Context(), req.ID, req.PIN)
	if err != nil {
		mapError(w, err)
		return
	}
	if ok {
		a.limiter.recordSuccess(clientIP)
		a.audit.log(AuditPinAccepted, r)
	} else {
		a.limiter.recordFailure(clientIP)
		a.audit.logFailure(AuditPinRejected, r, "incorrect PIN")
	}
	writeJSON(w, http.StatusOK, SubmitPINResponse{Accepted: ok})
}

// CancelChallenge handles POST /pin/cancel. Cancelling nothing is fine.
func (a *API) CancelChallenge(w http.ResponseWriter, r *http.Request) {
	var req CancelChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	a.manager.PinChallenge().Cancel(req.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ListAudit handles GET /audit. The history is only shown while unlocked.
func (a *API) ListAudit(w http.ResponseWriter, r *http.Request) {
	if !a.manager.Snapshot().Authenticated {
		writeError(w, http.StatusLocked, "session locked")
		return
	}
	limit, offset, err := parsePage(r)
	if err != nil {
		mapError(w, err)
		return
	}
	entries := []AuditEntry{}
	if a.audit.store != nil {
		entries, err = ListAuditEntries(a.audit.store.repo)
		if err != nil {
			mapError(w, err)
			return
		}
	}
	start, end, page := pageBounds(len(entries), limit, offset)
	writeJSON(w, http.StatusOK, AuditListResponse{Entries: entries[start:end], Page: page})
}
