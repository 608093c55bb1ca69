// Package metrics expone las métricas del motor en un registro Prometheus propio.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jhoicas/inventory-movements/internal/application/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ ports.Recorder = (*Metrics)(nil)

// Metrics contadores del ledger, traslados, lotes y reservas.
type Metrics struct {
	registry *prometheus.Registry

	transferTransitions *prometheus.CounterVec
	conflictRetries     *prometheus.CounterVec
	conflictsExhausted  *prometheus.CounterVec
	bulkItems           *prometheus.CounterVec
	reservations        *prometheus.CounterVec
	eventsPublished     *prometheus.CounterVec
	publishDuration     *prometheus.HistogramVec
	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
}

// New registra todas las métricas bajo namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		transferTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_transitions_total",
			Help:      "Transiciones de traslados por estado destino",
		}, []string{"status"}),
		conflictRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_conflict_retries_total",
			Help:      "Reintentos de compare-and-set por conflicto de versión",
		}, []string{"op"}),
		conflictsExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_conflicts_exhausted_total",
			Help:      "Operaciones que agotaron los reintentos y devolvieron ConcurrencyConflict",
		}, []string{"op"}),
		bulkItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_items_total",
			Help:      "Entradas procesadas en operaciones masivas",
		}, []string{"op", "result"}),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_outcomes_total",
			Help:      "Resultados de descuentos y reversas por pedido",
		}, []string{"outcome"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Eventos publicados por tipo y resultado",
		}, []string{"event_type", "status"}),
		publishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_publish_duration_seconds",
			Help:      "Duración de la publicación de eventos",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"event_type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Peticiones HTTP",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duración de peticiones HTTP",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	reg.MustRegister(
		m.transferTransitions, m.conflictRetries, m.conflictsExhausted, m.bulkItems,
		m.reservations, m.eventsPublished, m.publishDuration, m.httpRequests, m.httpDuration,
	)
	return m
}

// Handler handler HTTP de /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry registro subyacente (tests).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) TransferTransition(status string) {
	m.transferTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) ConflictRetry(op string) {
	m.conflictRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) ConflictExhausted(op string) {
	m.conflictsExhausted.WithLabelValues(op).Inc()
}

func (m *Metrics) BulkOperation(op string, succeeded, failed int) {
	m.bulkItems.WithLabelValues(op, "succeeded").Add(float64(succeeded))
	m.bulkItems.WithLabelValues(op, "failed").Add(float64(failed))
}

func (m *Metrics) ReservationOutcome(outcome string) {
	m.reservations.WithLabelValues(outcome).Inc()
}

// RecordPublish registra el resultado de publicar un evento.
func (m *Metrics) RecordPublish(eventType string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.eventsPublished.WithLabelValues(eventType, status).Inc()
	m.publishDuration.WithLabelValues(eventType).Observe(d.Seconds())
}

// RecordHTTPRequest registra una petición HTTP.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
