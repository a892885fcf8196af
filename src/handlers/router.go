// backend/src/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/observability"
	"golang.org/x/time/rate"
)

// RouterConfig carries the handlers and middleware settings for NewRouter.
type RouterConfig struct {
	Import         *ImportHandler
	Journal        *JournalHandler
	Export         *ExportHandler
	Health         *HealthHandler
	AllowedOrigins []string
	Limiter        *rate.Limiter // nil disables rate limiting
	Metrics        *observability.Metrics
	MetricsHandler http.Handler // served at /metrics when set
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware(cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	if cfg.Limiter != nil {
		r.Use(RateLimitMiddleware(cfg.Limiter))
	}

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", cfg.Health.HandleHealth)

		api.Post("/import/preview", cfg.Import.HandlePreview)
		api.Post("/import", cfg.Import.HandleImport)
		api.Post("/rebuild", cfg.Import.HandleRebuild)

		api.Get("/trades", cfg.Journal.HandleGetTrades)
		api.Get("/dashboard-metrics", cfg.Journal.HandleGetDashboardMetrics)
		api.Get("/calendar-data", cfg.Journal.HandleGetCalendarData)
		api.Get("/cumulative-pnl", cfg.Journal.HandleGetCumulativePnl)
		api.Get("/time-analysis", cfg.Journal.HandleGetTimeAnalysis)
		api.Get("/symbol-performance", cfg.Journal.HandleGetSymbolPerformance)
		api.Get("/positions/open", cfg.Journal.HandleGetOpenPositions)
		api.Get("/executions", cfg.Journal.HandleGetExecutions)

		api.Get("/export/executions.csv", cfg.Export.HandleExportExecutions)
		api.Get("/export/trades.csv", cfg.Export.HandleExportTrades)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.FromContext(req.Context()).Warn("Path not found", "method", req.Method, "path", req.URL.Path)
		http.NotFound(w, req)
	})
	return r
}
