package main

import (
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/handlers"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/observability"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/services"
	"golang.org/x/time/rate"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel, config.Cfg.LogFormat)
	logger.L.Info("Trade journal backend server starting...")

	// Money goes over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	scratchThreshold, err := decimal.NewFromString(config.Cfg.ScratchThreshold)
	if err != nil {
		logger.L.Error("SCRATCH_THRESHOLD must be a decimal number", "value", config.Cfg.ScratchThreshold, "error", err)
		os.Exit(1)
	}
	orphanPolicy, err := processors.ParseOrphanPolicy(config.Cfg.OrphanPolicy)
	if err != nil {
		logger.L.Error("ORPHAN_POLICY configuration invalid", "error", err)
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	db, err := database.InitDB(config.Cfg.DatabasePath)
	if err != nil {
		logger.L.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing preview cache...", "ttl", config.Cfg.PreviewTTL)
	previewCache := cache.New(config.Cfg.PreviewTTL, services.PreviewCleanupInterval)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	logger.L.Info("Initializing services and handlers...")
	tradeMatcher := processors.NewTradeMatcher(processors.MatcherOptions{
		ScratchThreshold: scratchThreshold,
		OrphanPolicy:     orphanPolicy,
		MergeFragments:   config.Cfg.MergeFragments,
	})
	executionProcessor := processors.NewExecutionProcessor()
	metricsProcessor := processors.NewMetricsProcessor()

	importService := services.NewImportService(db, executionProcessor, tradeMatcher, previewCache, config.Cfg.PreviewSampleRows, metrics)
	journalService := services.NewJournalService(db, tradeMatcher, metricsProcessor)
	exportService := services.NewExportService(db)

	logger.L.Info("Configuring routes...", "maxUpload", humanize.Bytes(uint64(config.Cfg.MaxUploadSizeBytes)))
	router := handlers.NewRouter(handlers.RouterConfig{
		Import:         handlers.NewImportHandler(importService, config.Cfg.MaxUploadSizeBytes),
		Journal:        handlers.NewJournalHandler(journalService),
		Export:         handlers.NewExportHandler(exportService),
		Health:         handlers.NewHealthHandler(db),
		AllowedOrigins: config.Cfg.AllowedOrigins,
		Limiter:        rate.NewLimiter(rate.Limit(config.Cfg.RateLimitRPS), config.Cfg.RateLimitBurst),
		Metrics:        metrics,
		MetricsHandler: promhttp.Handler(),
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
