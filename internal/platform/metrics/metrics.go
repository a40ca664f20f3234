package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Lookups         *prometheus.CounterVec
	UsersCreated    prometheus.Counter
	PronounsCreated prometheus.Counter
	RateLimited     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Lookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pronounapi_lookups_total",
			Help: "Total number of pronoun lookups by source (local or fallback)",
		}, []string{"source"}),
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pronounapi_users_created_total",
			Help: "Total number of identities created via login",
		}),
		PronounsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pronounapi_pronouns_created_total",
			Help: "Total number of custom pronoun definitions created",
		}),
		RateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pronounapi_rate_limited_total",
			Help: "Total number of requests rejected by the creation rate limiter",
		}),
	}
}

// RecordLookup counts one lookup, labeled local or fallback.
func (m *Metrics) RecordLookup(fallback bool) {
	if m == nil {
		return
	}
	source := "local"
	if fallback {
		source = "fallback"
	}
	m.Lookups.WithLabelValues(source).Inc()
}

// IncrementUsersCreated increments the identities created counter by 1.
func (m *Metrics) IncrementUsersCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

// IncrementPronounsCreated increments the custom pronoun counter by 1.
func (m *Metrics) IncrementPronounsCreated() {
	if m == nil {
		return
	}
	m.PronounsCreated.Inc()
}

// IncrementRateLimited increments the rate-limited rejection counter by 1.
func (m *Metrics) IncrementRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
