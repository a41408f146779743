package api

import (
	"sync"
	"time"
)

// AlertType identifies the kind of anomaly detected.
type AlertType string

const (
	AlertPinFailureSpike AlertType = "pin_failure_spike"
)

// AlertEvent describes an anomaly that triggered an alert.
type AlertEvent struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc is the callback invoked when an anomaly is detected.
type AlertFunc func(AlertEvent)

// metricsCollector tracks a sliding window of rejected PINs.
type metricsCollector struct {
	mu sync.Mutex

	pinFailures  []time.Time
	pinWindow    time.Duration
	pinThreshold int

	now     func() time.Time
	alertFn AlertFunc
}

const (
	defaultPinFailureWindow    = 10 * time.Minute
	defaultPinFailureThreshold = 10
)

func newMetricsCollector(alertFn AlertFunc) *metricsCollector {
	return &metricsCollector{
		pinWindow:    defaultPinFailureWindow,
		pinThreshold: defaultPinFailureThreshold,
		now:          time.Now,
		alertFn:      alertFn,
	}
}

// recordEvent inspects an audit event and updates the relevant counters.
func (m *metricsCollector) recordEvent(event AuditEvent) {
	if m == nil || m.alertFn == nil {
		return
	}
	switch event {
	case AuditPinRejected, AuditPinRateLimited:
		m.recordPinFailure()
	}
}

func (m *metricsCollector) recordPinFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.pinFailures = append(m.pinFailures, now)
	m.pinFailures = trimWindow(m.pinFailures, now, m.pinWindow)

	if len(m.pinFailures) >= m.pinThreshold {
		m.alertFn(AlertEvent{
			Type:      AlertPinFailureSpike,
			Message:   "rejected PIN rate exceeds threshold",
			Count:     len(m.pinFailures),
			Threshold: m.pinThreshold,
			Timestamp: now,
		})
		// Reset to avoid repeated alerts within the same spike.
		m.pinFailures = m.pinFailures[:0]
	}
}

// trimWindow removes entries older than (now - window) from the sorted slice.
func trimWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	return times[start:]
}
