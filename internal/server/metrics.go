package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agbru/picalc/internal/metrics"
)

// Metrics tracks the HTTP traffic of the metrics server itself and renders
// the application registry.
type Metrics struct {
	activeRequests prometheus.Gauge
	requestsTotal  *prometheus.CounterVec
	handler        http.Handler
}

// NewMetrics registers the HTTP collectors on app's registry. A nil app gets
// a fresh metrics set.
func NewMetrics(app *metrics.Metrics) *Metrics {
	if app == nil {
		app = metrics.New()
	}
	m := &Metrics{
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "picalc_active_requests",
			Help: "HTTP requests currently being served by the metrics server.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "picalc_requests_total",
			Help: "HTTP requests served by the metrics server, by path.",
		}, []string{"path"}),
	}
	reg := app.Registry()
	reg.MustRegister(m.activeRequests, m.requestsTotal)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m
}

// IncrementActiveRequests marks a request as in flight.
func (m *Metrics) IncrementActiveRequests() { m.activeRequests.Inc() }

// DecrementActiveRequests marks a request as done.
func (m *Metrics) DecrementActiveRequests() { m.activeRequests.Dec() }

func (m *Metrics) countRequest(path string) { m.requestsTotal.WithLabelValues(path).Inc() }

// WritePrometheus renders every registered collector in the Prometheus text
// format.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}
