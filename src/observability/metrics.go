// backend/src/observability/metrics.go
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for imports and the HTTP surface. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Imports
	ImportsTotal       *prometheus.CounterVec
	ImportDuration     prometheus.Histogram
	ExecutionsImported prometheus.Counter
	DuplicatesSkipped  prometheus.Counter
	RowsFailed         prometheus.Counter
	MatchedTrades      prometheus.Gauge
	OrphanFills        prometheus.Gauge
	OpenPositions      prometheus.Gauge
	PreviewsCreated    prometheus.Counter

	// HTTP
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	importBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	return &Metrics{
		ImportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_imports_total",
			Help: "Import attempts by outcome",
		}, []string{"source", "result"}),

		ImportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "journal_import_duration_seconds",
			Help:    "Time from upload to committed rematch",
			Buckets: importBuckets,
		}),

		ExecutionsImported: factory.NewCounter(prometheus.CounterOpts{
			Name: "journal_executions_imported_total",
			Help: "Executions appended to the ledger",
		}),

		DuplicatesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "journal_duplicates_skipped_total",
			Help: "Candidate executions already present in the ledger",
		}),

		RowsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "journal_rows_failed_total",
			Help: "CSV rows that could not be parsed",
		}),

		MatchedTrades: factory.NewGauge(prometheus.GaugeOpts{
			Name: "journal_matched_trades",
			Help: "Matched trades in the trade store after the last rematch",
		}),

		OrphanFills: factory.NewGauge(prometheus.GaugeOpts{
			Name: "journal_orphan_fills",
			Help: "Closing fills without an open position after the last rematch",
		}),

		OpenPositions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "journal_open_positions",
			Help: "Open position lots after the last rematch",
		}),

		PreviewsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "journal_previews_created_total",
			Help: "Import previews parked in the preview cache",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "journal_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "journal_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ImportOutcome is the per-import summary recorded by ObserveImport.
type ImportOutcome struct {
	Source        string
	Imported      int
	Duplicates    int
	RowsFailed    int
	MatchedTrades int
	Orphans       int
	OpenPositions int
}

// ObserveImport records a committed import.
func (m *Metrics) ObserveImport(o ImportOutcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(o.Source, "success").Inc()
	m.ImportDuration.Observe(elapsed.Seconds())
	m.ExecutionsImported.Add(float64(o.Imported))
	m.DuplicatesSkipped.Add(float64(o.Duplicates))
	m.RowsFailed.Add(float64(o.RowsFailed))
	m.ObserveRematch(o.MatchedTrades, o.Orphans, o.OpenPositions)
}

// ObserveImportFailure counts an import that was rejected or rolled back.
func (m *Metrics) ObserveImportFailure(source, reason string) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(source, reason).Inc()
}

// ObserveRematch sets the trade store gauges.
func (m *Metrics) ObserveRematch(matchedTrades, orphans, openPositions int) {
	if m == nil {
		return
	}
	m.MatchedTrades.Set(float64(matchedTrades))
	m.OrphanFills.Set(float64(orphans))
	m.OpenPositions.Set(float64(openPositions))
}

func (m *Metrics) ObservePreview() {
	if m == nil {
		return
	}
	m.PreviewsCreated.Inc()
}

// ObserveHTTP records one served request. route is the chi route pattern, not the raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
