package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveImport(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveImport(ImportOutcome{Source: "generic", Imported: 4, Duplicates: 2, RowsFailed: 1, MatchedTrades: 2, Orphans: 1}, 20*time.Millisecond)
	m.ObserveImport(ImportOutcome{Source: "generic", Duplicates: 4, MatchedTrades: 2}, 5*time.Millisecond)
	m.ObserveImportFailure("fidelity", "mapping_invalid")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("generic", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportsTotal.WithLabelValues("fidelity", "mapping_invalid")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ExecutionsImported))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.DuplicatesSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsFailed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MatchedTrades))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OrphanFills), "gauges reflect the latest rematch")
}

func TestObserveHTTP(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveHTTP(http.MethodGet, "/api/trades", http.StatusOK, time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "/api/trades", http.StatusOK, time.Millisecond)
	m.ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/trades", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveImport(ImportOutcome{Imported: 1}, time.Second)
		m.ObserveImportFailure("generic", "storage_failed")
		m.ObserveRematch(1, 0, 0)
		m.ObservePreview()
		m.ObserveHTTP(http.MethodGet, "/", http.StatusOK, time.Second)
	})
}
