// Package metrics holds the domain Prometheus collectors. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "instainstru"

// Metrics groups the business counters exposed on /metrics.
type Metrics struct {
	bookingsCreated   prometheus.Counter
	bookingsCancelled *prometheus.CounterVec
	authorizations    *prometheus.CounterVec
	referralRewards   *prometheus.CounterVec
	jobRuns           *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Bookings created.",
		}),
		bookingsCancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bookings",
			Name:      "cancelled_total",
			Help:      "Bookings cancelled, by who cancelled.",
		}, []string{"by"}),
		authorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "authorizations_total",
			Help:      "Card authorization attempts by outcome.",
		}, []string{"outcome"}),
		referralRewards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "referrals",
			Name:      "rewards_total",
			Help:      "Referral reward transitions by outcome.",
		}, []string{"outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs by outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Duration of background job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"job"}),
	}
	for _, c := range []prometheus.Collector{
		m.bookingsCreated, m.bookingsCancelled, m.authorizations,
		m.referralRewards, m.jobRuns, m.jobDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) BookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}

func (m *Metrics) BookingCancelled(by string) {
	if m == nil {
		return
	}
	m.bookingsCancelled.WithLabelValues(by).Inc()
}

// Authorization records an authorization attempt; outcome is e.g. "authorized", "declined", "error".
func (m *Metrics) Authorization(outcome string) {
	if m == nil {
		return
	}
	m.authorizations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ReferralReward(outcome string) {
	if m == nil {
		return
	}
	m.referralRewards.WithLabelValues(outcome).Inc()
}

// JobRun records one scheduler run; outcome is "ok", "error" or "skipped".
func (m *Metrics) JobRun(job, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
	if outcome != "skipped" {
		m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
	}
}
