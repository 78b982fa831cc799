// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ActiveClients prometheus.Gauge
	Snapshots     *prometheus.CounterVec
	FormWrites    *prometheus.CounterVec
	HTTPRequests  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "campmeeting",
			Name:      "active_clients",
			Help:      "Client sessions currently held in memory.",
		}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campmeeting",
			Name:      "snapshot_deliveries_total",
			Help:      "Live query snapshots by subscription key and outcome.",
		}, []string{"key", "outcome"}),
		FormWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campmeeting",
			Name:      "form_writes_total",
			Help:      "Form submissions by form and result.",
		}, []string{"form", "result"}),
		HTTPRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "campmeeting",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.ActiveClients, m.Snapshots, m.FormWrites, m.HTTPRequests)
	return m
}

// Snapshot counts one delivery. outcome is "applied", "stale" or "error".
func (m *Metrics) Snapshot(key, outcome string) {
	if m == nil {
		return
	}
	m.Snapshots.WithLabelValues(key, outcome).Inc()
}

// FormWrite counts one form submission.
func (m *Metrics) FormWrite(form string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FormWrites.WithLabelValues(form, result).Inc()
}

// SetActiveClients records the registry size.
func (m *Metrics) SetActiveClients(n int) {
	if m == nil {
		return
	}
	m.ActiveClients.Set(float64(n))
}

// ObserveRequest records one HTTP request duration in seconds.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Observe(seconds)
}
