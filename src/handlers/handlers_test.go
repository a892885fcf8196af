package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/observability"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/services"
)

const tradesCSV = `Date,Time,Symbol,Action,Price,Quantity,Fees
2024-01-02,09:30:00,AAPL,Buy,100,10,1
2024-01-02,10:15:00,AAPL,Sell,110,10,1
`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	matcher := processors.NewTradeMatcher(processors.DefaultMatcherOptions())
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	importService := services.NewImportService(db, processors.NewExecutionProcessor(), matcher,
		cache.New(services.DefaultPreviewTTL, services.PreviewCleanupInterval), 5, metrics)

	return NewRouter(RouterConfig{
		Import:         NewImportHandler(importService, 1<<20),
		Journal:        NewJournalHandler(services.NewJournalService(db, matcher, processors.NewMetricsProcessor())),
		Export:         NewExportHandler(services.NewExportService(db)),
		Health:         NewHealthHandler(db),
		AllowedOrigins: []string{"http://localhost:3000"},
		Metrics:        metrics,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
}

func multipartRequest(t *testing.T, path string, fields map[string]string, fileContent string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileContent != "" {
		fw, err := mw.CreateFormFile("file", "trades.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(fileContent))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	serve(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	rec := serve(router, multipartRequest(t, "/api/import", nil, tradesCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `journal_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
	assert.Contains(t, body, `journal_imports_total{result="success",source="mapped"} 1`)
	assert.Contains(t, body, "journal_executions_imported_total 2")
}

func TestImportThenQuery(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, multipartRequest(t, "/api/import", nil, tradesCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result map[string]interface{}
	decodeJSON(t, rec, &result)
	assert.Equal(t, float64(2), result["imported_count"])
	assert.Equal(t, float64(1), result["matched_trades_count"])

	rec = serve(router, multipartRequest(t, "/api/import", nil, tradesCSV))
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &result)
	assert.Equal(t, float64(0), result["imported_count"])
	assert.Equal(t, float64(2), result["duplicate_count"])

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/trades?start_date=2024-01-01&end_date=2024-01-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var trades []map[string]interface{}
	decodeJSON(t, rec, &trades)
	require.Len(t, trades, 1)
	assert.Equal(t, "AAPL", trades[0]["symbol"])
	assert.Equal(t, "00:45:00", trades[0]["hold_time"])

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	req := httptest.NewRequest(http.MethodGet, "/api/trades?start_date=2024-01-01&end_date=2024-01-31", nil)
	req.Header.Set("If-None-Match", etag)
	rec = serve(router, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	for _, path := range []string{"/api/dashboard-metrics", "/api/calendar-data", "/api/cumulative-pnl", "/api/time-analysis", "/api/symbol-performance?sort=win_rate", "/api/positions/open", "/api/executions"} {
		rec = serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/time-analysis", nil))
	var buckets []map[string]interface{}
	decodeJSON(t, rec, &buckets)
	assert.Len(t, buckets, 24)

	rec = serve(router, httptest.NewRequest(http.MethodPost, "/api/rebuild", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryValidation(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{
		"/api/trades?start_date=2024-13-01",
		"/api/dashboard-metrics?end_date=01/02/2024",
		"/api/calendar-data?start_date=2024-02-01&end_date=2024-01-01",
		"/api/symbol-performance?sort=pnl",
	} {
		rec := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"error"`, path)
	}
}

func TestImport_InvalidMapping(t *testing.T) {
	router := newTestRouter(t)

	mapping := `{"date":"Date","symbol":"Ticker","price":"Price","quantity":"Quantity"}`
	rec := serve(router, multipartRequest(t, "/api/import", map[string]string{"mapping": mapping}, tradesCSV))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]interface{}
	decodeJSON(t, rec, &body)
	assert.Equal(t, map[string]interface{}{"symbol": "Ticker"}, body["unknown_headers"])

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/executions", nil))
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestImport_MalformedMappingJSON(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, multipartRequest(t, "/api/import", map[string]string{"mapping": "{"}, tradesCSV))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImport_MissingFile(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, multipartRequest(t, "/api/import", map[string]string{"source": "mapped"}, ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreviewThenConfirm(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, multipartRequest(t, "/api/import/preview", nil, tradesCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var preview map[string]interface{}
	decodeJSON(t, rec, &preview)
	previewID, _ := preview["preview_id"].(string)
	require.NotEmpty(t, previewID)
	assert.Equal(t, float64(2), preview["total_rows"])

	form := url.Values{"preview_id": {previewID}}
	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serve(router, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result map[string]interface{}
	decodeJSON(t, rec, &result)
	assert.Equal(t, float64(2), result["imported_count"])

	req = httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serve(router, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportTradesCSV(t *testing.T) {
	router := newTestRouter(t)
	require.Equal(t, http.StatusOK, serve(router, multipartRequest(t, "/api/import", nil, tradesCSV)).Code)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/export/trades.csv", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "trades_")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "trade_date,symbol,side"))
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/import", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := serve(router, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
