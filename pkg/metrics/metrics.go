// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sweepgoat"

// Metrics groups every application collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg prometheus.Registerer

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	LoginOutcomes       *prometheus.CounterVec
	GateRejections      *prometheus.CounterVec
	GiveawaysEnded      prometheus.Counter
	CampaignDeliveries  *prometheus.CounterVec
}

// CacheStats is the snapshot the tenant cache exposes.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Size      int
}

// New registers the application collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		LoginOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_outcomes_total",
				Help:      "Login attempts by account type and outcome",
			},
			[]string{"user_type", "outcome"},
		),
		GateRejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_rejections_total",
				Help:      "Requests rejected by the subdomain and token gates",
			},
			[]string{"phase", "reason"},
		),
		GiveawaysEnded: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "giveaways_ended_total",
				Help:      "Giveaways moved from ACTIVE to ENDED by the sweeper",
			},
		),
		CampaignDeliveries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "campaign_deliveries_total",
				Help:      "Campaign messages by channel and result",
			},
			[]string{"channel", "status"},
		),
	}
}

// NewRegistry returns a registry preloaded with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RegisterCache exposes tenant cache statistics read from stats at scrape time.
func (m *Metrics) RegisterCache(stats func() CacheStats) {
	if m == nil {
		return
	}
	f := promauto.With(m.reg)
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Name: "tenant_cache_hits_total", Help: "Subdomain validation cache hits",
	}, func() float64 { return float64(stats().Hits) })
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Name: "tenant_cache_misses_total", Help: "Subdomain validation cache misses",
	}, func() float64 { return float64(stats().Misses) })
	f.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Name: "tenant_cache_evictions_total", Help: "Entries dropped by capacity or expiry",
	}, func() float64 { return float64(stats().Evictions) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "tenant_cache_entries", Help: "Entries currently cached",
	}, func() float64 { return float64(stats().Size) })
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}

// LoginOutcome counts one login attempt.
func (m *Metrics) LoginOutcome(userType, outcome string) {
	if m == nil {
		return
	}
	m.LoginOutcomes.WithLabelValues(userType, outcome).Inc()
}

// GateRejected counts a request stopped by a gate.
func (m *Metrics) GateRejected(phase, reason string) {
	if m == nil {
		return
	}
	m.GateRejections.WithLabelValues(phase, reason).Inc()
}

// GiveawayEnded counts a sweeper flip.
func (m *Metrics) GiveawayEnded() {
	if m == nil {
		return
	}
	m.GiveawaysEnded.Inc()
}

// CampaignDelivery counts one campaign message.
func (m *Metrics) CampaignDelivery(channel, status string) {
	if m == nil {
		return
	}
	m.CampaignDeliveries.WithLabelValues(channel, status).Inc()
}
