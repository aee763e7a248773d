// Package metrics define las métricas Prometheus del servicio: HTTP,
// operaciones de repositorio, cache y pool de Postgres.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
)

// Metrics agrupa los collectors registrados.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	repoOperationsTotal   *prometheus.CounterVec
	repoOperationDuration *prometheus.HistogramVec

	cacheLookupsTotal *prometheus.CounterVec
}

// New crea y registra las métricas en un registry propio. Con pool != nil
// agrega un collector con las estadísticas del pool de Postgres.
func New(pool func() *pgxpool.Pool) (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,

		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "route", "status"}),

		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método",
		}, []string{"method"}),

		repoOperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "repository_operations_total",
			Help: "Operaciones de repositorio por entidad, operación y resultado",
		}, []string{"entity", "op", "result"}),

		repoOperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "repository_operation_duration_seconds",
			Help:    "Duración de operaciones de repositorio (incluye la transacción)",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"entity", "op"}),

		cacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Lecturas de cache por resultado",
		}, []string{"cache", "result"}), // result: hit|miss|error
	}

	cs := []prometheus.Collector{
		m.httpRequestsTotal, m.httpRequestDuration, m.httpInflight,
		m.repoOperationsTotal, m.repoOperationDuration,
		m.cacheLookupsTotal,
		collectors.NewGoCollector(),
	}
	if pool != nil {
		cs = append(cs, newPoolCollector(pool))
	}
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler expone /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveOperation implementa store.Observer.
func (m *Metrics) ObserveOperation(entity, op string, err error, d time.Duration) {
	m.repoOperationsTotal.WithLabelValues(entity, op, Result(err)).Inc()
	m.repoOperationDuration.WithLabelValues(entity, op).Observe(d.Seconds())
}

// ObserveRequest registra un request HTTP terminado.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Inflight retorna el gauge de requests en vuelo. La ruta de chi todavía no
// se conoce cuando el request entra, así que solo se etiqueta por método.
func (m *Metrics) Inflight(method string) prometheus.Gauge {
	return m.httpInflight.WithLabelValues(method)
}

// CacheLookup registra un hit/miss/error del cache indicado.
func (m *Metrics) CacheLookup(cache, result string) {
	m.cacheLookupsTotal.WithLabelValues(cache, result).Inc()
}

// Result clasifica un error de repositorio para el label result.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case repository.IsConcurrencyConflict(err):
		return "concurrency_conflict"
	case repository.IsDuplicateKey(err):
		return "duplicate_key"
	case repository.IsNotFound(err):
		return "not_found"
	case repository.IsTenantMismatch(err):
		return "tenant_mismatch"
	case repository.IsInvalidInput(err):
		return "invalid_input"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
