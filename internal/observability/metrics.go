package observability

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	PageCategory = "category"
	PageItem     = "item"

	SourceModel    = "model"
	SourceCache    = "cache"
	SourceFallback = "fallback"

	AttemptOK        = "ok"
	AttemptTransport = "transport_error"
	AttemptMalformed = "malformed"
)

// Metrics groups the pipeline collectors. A nil *Metrics is valid and
// records nothing, so components can run without a registry.
type Metrics struct {
	PagesFetched     *prometheus.CounterVec
	RecordsExtracted prometheus.Counter
	EnrichAttempts   *prometheus.CounterVec
	EnrichOutcomes   *prometheus.CounterVec
	RecordsExported  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_pages_fetched_total",
				Help: "Pages requested from the catalog, by page kind and status.",
			},
			[]string{"kind", "status"},
		),
		RecordsExtracted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_records_extracted_total",
				Help: "Detail pages turned into raw records.",
			},
		),
		EnrichAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrich_attempts_total",
				Help: "Language-model calls made by the enricher, by result.",
			},
			[]string{"result"},
		),
		EnrichOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enrich_outcomes_total",
				Help: "Enriched records by the source of their fields.",
			},
			[]string{"source"},
		),
		RecordsExported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_exported_total",
				Help: "Records handed to each export sink.",
			},
			[]string{"sink"},
		),
	}
	reg.MustRegister(m.PagesFetched, m.RecordsExtracted, m.EnrichAttempts, m.EnrichOutcomes, m.RecordsExported)
	return m
}

func (m *Metrics) PageFetched(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.PagesFetched.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) RecordExtracted() {
	if m == nil {
		return
	}
	m.RecordsExtracted.Inc()
}

func (m *Metrics) EnrichAttempt(result string) {
	if m == nil {
		return
	}
	m.EnrichAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) EnrichOutcome(source string) {
	if m == nil {
		return
	}
	m.EnrichOutcomes.WithLabelValues(source).Inc()
}

func (m *Metrics) Exported(sink string, n int) {
	if m == nil {
		return
	}
	m.RecordsExported.WithLabelValues(sink).Add(float64(n))
}

// Start serves /metrics for the given gatherer in the background.
func Start(port string, gatherer prometheus.Gatherer, logger *zap.Logger) *http.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.String("addr", srv.Addr), zap.Error(err))
		}
	}()
	return srv
}
