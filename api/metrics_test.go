package api

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinFailureSpikeAlert(t *testing.T) {
	var mu sync.Mutex
	var alerts []AlertEvent
	collector := newMetricsCollector(func(e AlertEvent) {
		mu.Lock()
		alerts = append(alerts, e)
		mu.Unlock()
	})
	collector.pinThreshold = 5

	for i := 0; i < 4; i++ {
		collector.recordEvent(AuditPinRejected)
	}
	// Unrelated events do not count.
	collector.recordEvent(AuditUnlockSuccess)
	mu.Lock()
	assert.Empty(t, alerts, "no alert below threshold")
	mu.Unlock()

	collector.recordEvent(AuditPinRateLimited)
	mu.Lock()
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertPinFailureSpike, alerts[0].Type)
	assert.Equal(t, 5, alerts[0].Count)
	mu.Unlock()

	// The counter resets after an alert.
	collector.recordEvent(AuditPinRejected)
	mu.Lock()
	assert.Len(t, alerts, 1)
	mu.Unlock()
}

func TestPinFailureWindowSlides(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	var alerts []AlertEvent
	collector := newMetricsCollector(func(e AlertEvent) { alerts = append(alerts, e) })
	collector.pinThreshold = 3
	collector.now = func() time.Time { return now }

	collector.recordEvent(AuditPinRejected)
	collector.recordEvent(AuditPinRejected)
	now = now.Add(defaultPinFailureWindow + time.Second)
	collector.recordEvent(AuditPinRejected)
	assert.Empty(t, alerts, "failures outside the window are dropped")
}

func TestNilCollectorIgnoresEvents(t *testing.T) {
	var collector *metricsCollector
	collector.recordEvent(AuditPinRejected)
	newMetricsCollector(nil).recordEvent(AuditPinRejected)
}
