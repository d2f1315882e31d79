package goAccount

import (
	"sync/atomic"
	"time"
)

// MetricID identifies an in-process counter.
type MetricID uint16

const (
	// MetricRegistrationSuccess counts accounts persisted by RegisterUser.
	MetricRegistrationSuccess MetricID = iota
	// MetricRegistrationRejected counts registrations refused by a name or email collision.
	MetricRegistrationRejected
	// MetricManualRegistration counts accounts persisted by RegisterUserManually.
	MetricManualRegistration
	// MetricRegistrationConfirmSuccess counts successful confirmations.
	MetricRegistrationConfirmSuccess
	// MetricRegistrationConfirmFailure counts confirmations refused by a precondition.
	MetricRegistrationConfirmFailure
	// MetricRegistrationEmailResent counts resent registration emails.
	MetricRegistrationEmailResent
	// MetricLoginSuccess counts password logins that established a session.
	MetricLoginSuccess
	// MetricLoginFailure counts password logins rejected for an unknown user or wrong password.
	MetricLoginFailure
	// MetricLoginUnconfirmed counts logins refused because the account is unconfirmed.
	MetricLoginUnconfirmed
	// MetricLoginWithoutPassword counts privileged logins.
	MetricLoginWithoutPassword
	// MetricSocialLogin counts social account logins, including first-time registrations.
	MetricSocialLogin
	// MetricLogout counts logouts.
	MetricLogout
	// MetricPasswordChangeSuccess counts successful password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidOld counts password changes refused for a wrong old password.
	MetricPasswordChangeInvalidOld
	// MetricAccountDeleted counts cancelled registrations.
	MetricAccountDeleted
	// MetricPasswordResetRequest counts issued reset tokens.
	MetricPasswordResetRequest
	// MetricPasswordResetConfirmSuccess counts successful password resets.
	MetricPasswordResetConfirmSuccess
	// MetricPasswordResetConfirmFailure counts resets refused for an invalid token.
	MetricPasswordResetConfirmFailure
	// MetricEmailSendFailure counts notifier failures.
	MetricEmailSendFailure
	// MetricDatabaseError counts storage failures collapsed into ResultDatabaseError.
	MetricDatabaseError
	// MetricLoginLatency is the LogIn latency histogram.
	MetricLoginLatency
	metricIDCount
)

// latencyBounds are the inclusive upper bounds of every latency bucket but
// the last, which is unbounded.
var latencyBounds = [...]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

const histBucketCount = len(latencyBounds) + 1

// counterCell keeps each counter on its own cache line so hot counters do
// not contend.
type counterCell struct {
	n atomic.Uint64
	_ [56]byte
}

// Metrics holds lock-free counters and the login latency histogram. A nil
// *Metrics is a valid disabled instance.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]counterCell
	loginLatency  [histBucketCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of every counter. It is empty when
// metrics are disabled.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg. Latency histograms require
// cfg.Enabled as well.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the login latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc is a no-op on a nil or disabled receiver.
func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= metricIDCount || id == MetricLoginLatency {
		return
	}
	m.counters[id].n.Add(1)
}

// Observe records d for MetricLoginLatency. Other ids carry no histogram and
// are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if id != MetricLoginLatency || !m.LatencyEnabled() {
		return
	}
	m.loginLatency[bucketIndex(d)].Add(1)
}

// Value returns the current count for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].n.Load()
}

// Snapshot copies every counter and, when enabled, the latency buckets.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Counters:   map[MetricID]uint64{},
		Histograms: map[MetricID][]uint64{},
	}
	if !m.Enabled() {
		return s
	}

	for id := range metricIDCount {
		if id != MetricLoginLatency {
			s.Counters[id] = m.counters[id].n.Load()
		}
	}
	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range buckets {
			buckets[i] = m.loginLatency[i].Load()
		}
		s.Histograms[MetricLoginLatency] = buckets
	}
	return s
}

// bucketIndex returns the first bucket whose bound is >= d.
func bucketIndex(d time.Duration) int {
	for i, bound := range latencyBounds {
		if d <= bound {
			return i
		}
	}
	return len(latencyBounds)
}
