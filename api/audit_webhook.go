package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	webhookQueueSize  = 256
	webhookAttempts   = 3
	webhookRetryDelay = time.Second
)

// auditWebhook forwards audit entries to an external HTTP endpoint from a
// single background goroutine. enqueue never blocks; entries are dropped
// when the queue is full.
type auditWebhook struct {
	url        string
	header     string // "Name: value", e.g. "Authorization: Bearer xxx"
	client     *http.Client
	retryDelay time.Duration

	entries chan AuditEntry
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

func newAuditWebhook(url, header string) *auditWebhook {
	ctx, cancel := context.WithCancel(context.Background())
	w := &auditWebhook{
		url:        url,
		header:     header,
		client:     &http.Client{Timeout: 10 * time.Second},
		retryDelay: webhookRetryDelay,
		entries:    make(chan AuditEntry, webhookQueueSize),
		ctx:        ctx,
		cancel:     cancel,
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *auditWebhook) enqueue(entry AuditEntry) {
	select {
	case w.entries <- entry:
	default:
		slog.Warn("audit webhook queue full, dropping entry", slog.String("event", string(entry.Event)))
	}
}

// close delivers what is queued and stops the loop. Retries waiting on a
// backoff are abandoned once ctx ends.
func (w *auditWebhook) close(ctx context.Context) {
	w.once.Do(func() {
		close(w.entries)
		done := make(chan struct{})
		go func() {
			w.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			w.cancel()
			<-done
		}
		w.cancel()
	})
}

func (w *auditWebhook) loop() {
	defer w.wg.Done()
	for entry := range w.entries {
		w.send(entry)
	}
}

// send POSTs entry, retrying transport errors and 5xx responses.
func (w *auditWebhook) send(entry AuditEntry) {
	body, err := json.Marshal(entry)
	if err != nil {
		slog.Warn("audit webhook marshal failed", slog.String("error", err.Error()))
		return
	}

	for attempt := 1; attempt <= webhookAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(w.retryDelay * time.Duration(attempt-1)):
			case <-w.ctx.Done():
				return
			}
		}
		status, err := w.post(body)
		switch {
		case err != nil:
			slog.Warn("audit webhook request failed", slog.String("error", err.Error()), slog.Int("attempt", attempt))
		case status >= 200 && status < 300:
			return
		case status >= 500:
			slog.Warn("audit webhook server error", slog.Int("status", status), slog.Int("attempt", attempt))
		default:
			slog.Warn("audit webhook rejected entry", slog.Int("status", status))
			return
		}
	}
}

func (w *auditWebhook) post(body []byte) (int, error) {
	req, err := http.NewRequestWithContext(w.ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "bleep-audit-webhook/1")
	if name, value, ok := strings.Cut(w.header, ":"); ok {
		req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
