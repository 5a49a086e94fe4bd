package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for fleetctl.
type Metrics struct {
	registry                 *prometheus.Registry
	checkDurationSeconds     prometheus.Histogram
	servicesGauge            *prometheus.GaugeVec
	alertsTotal              prometheus.Counter
	runtimeErrorsTotal       prometheus.Counter
	lastSuccessfulCheckGauge prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		checkDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetctl_check_duration_seconds",
			Help:    "Duration of fleet health check cycles in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		servicesGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleetctl_services",
			Help: "Services by health status.",
		}, []string{"status"}),
		alertsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetctl_alerts_total",
			Help: "Total transition alerts emitted.",
		}),
		runtimeErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetctl_runtime_errors_total",
			Help: "Total container runtime errors after retries.",
		}),
		lastSuccessfulCheckGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fleetctl_last_check_timestamp",
			Help: "Unix timestamp of the last completed check cycle.",
		}),
	}

	registry.MustRegister(
		m.checkDurationSeconds,
		m.servicesGauge,
		m.alertsTotal,
		m.runtimeErrorsTotal,
		m.lastSuccessfulCheckGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCheckDuration records the duration of a completed check cycle.
func (m *Metrics) ObserveCheckDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.checkDurationSeconds.Observe(duration.Seconds())
}

// SetServices sets the services gauge for the given status.
func (m *Metrics) SetServices(status string, value int) {
	if m == nil {
		return
	}
	m.servicesGauge.WithLabelValues(status).Set(float64(value))
}

// AddAlerts increments the alerts counter.
func (m *Metrics) AddAlerts(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.alertsTotal.Add(float64(count))
}

// IncRuntimeErrors increments the container runtime error counter.
func (m *Metrics) IncRuntimeErrors() {
	if m == nil {
		return
	}
	m.runtimeErrorsTotal.Inc()
}

// SetLastCheckTimestamp sets the last completed check time.
func (m *Metrics) SetLastCheckTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulCheckGauge.Set(float64(t.Unix()))
}
