package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWebhook(t *testing.T, h http.HandlerFunc, header string) *auditWebhook {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	wh := newAuditWebhook(srv.URL, header)
	wh.retryDelay = time.Millisecond
	return wh
}

func TestWebhookDelivery(t *testing.T) {
	var (
		mu       sync.Mutex
		received AuditEntry
		auth     string
		ctype    string
	)
	wh := newTestWebhook(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		auth = r.Header.Get("Authorization")
		ctype = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&received)
	}, "Authorization: Bearer s3cret")

	wh.enqueue(AuditEntry{ID: "e1", Event: AuditUnlockSuccess, Method: "pin", RemoteAddr: "127.0.0.1:5000"})
	wh.close(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "e1", received.ID)
	assert.Equal(t, AuditUnlockSuccess, received.Event)
	assert.Equal(t, "pin", received.Method)
	assert.Equal(t, "Bearer s3cret", auth)
	assert.Equal(t, "application/json", ctype)
}

func TestWebhookRetries(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		want     int32
	}{
		{"retry 5xx then succeed", []int{500, 502, 200}, 3},
		{"give up after attempts", []int{500, 500, 500, 500}, webhookAttempts},
		{"no retry on 4xx", []int{400, 200}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			wh := newTestWebhook(t, func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				w.WriteHeader(tt.statuses[n-1])
			}, "")
			wh.enqueue(AuditEntry{Event: AuditLock})
			wh.close(context.Background())
			assert.Equal(t, tt.want, calls.Load())
		})
	}
}

func TestWebhookQueueFullDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	wh := newTestWebhook(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	}, "")

	done := make(chan struct{})
	go func() {
		for range webhookQueueSize + 10 {
			wh.enqueue(AuditEntry{Event: AuditPinRejected})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked")
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	wh.close(ctx)
}

func TestAuditLoggerForwardsToWebhook(t *testing.T) {
	got := make(chan AuditEntry, 1)
	wh := newTestWebhook(t, func(w http.ResponseWriter, r *http.Request) {
		var e AuditEntry
		if json.NewDecoder(r.Body).Decode(&e) == nil {
			got <- e
		}
	}, "")
	a := &API{audit: newAuditLogger(slog.New(slog.DiscardHandler))}
	a.audit.webhook = wh

	r := httptest.NewRequest(http.MethodPost, "/pin/submit", nil)
	a.audit.logFailure(AuditPinRejected, r, "incorrect PIN")

	select {
	case e := <-got:
		assert.Equal(t, AuditPinRejected, e.Event)
		assert.Equal(t, "incorrect PIN", e.Reason)
		require.False(t, e.CreatedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("entry not forwarded")
	}
	a.Close(context.Background())
}
