// backend/src/services/interfaces.go
package services

import (
	"context"
	"io"

	"github.com/username/tradejournal/backend/src/models"
)

// ImportService owns the only mutating path into the journal.
type ImportService interface {
	Preview(fileBytes []byte) (*models.ImportPreview, error)
	// RunImport parses the file, appends new executions to the ledger, rematches the whole
	// ledger and replaces the trade store, all in one transaction. A nil mapping means the
	// suggested mapping is used.
	RunImport(ctx context.Context, fileBytes []byte, mapping *models.ColumnMapping, source string) (*models.ImportResult, error)
	RunImportFromPreview(ctx context.Context, previewID string, mapping *models.ColumnMapping, source string) (*models.ImportResult, error)
	Rebuild(ctx context.Context) (*models.RebuildResult, error)
}

// JournalService answers the read-only report queries.
type JournalService interface {
	GetTrades(ctx context.Context, filter models.DateFilter) ([]models.MatchedTrade, error)
	GetDashboardMetrics(ctx context.Context, filter models.DateFilter) (*models.DashboardMetrics, error)
	GetCalendarData(ctx context.Context, filter models.DateFilter) ([]models.CalendarDay, error)
	GetCumulativePnl(ctx context.Context, filter models.DateFilter) ([]models.CumulativePnLPoint, error)
	GetTimeAnalysis(ctx context.Context, filter models.DateFilter) ([]models.TimeBucket, error)
	GetSymbolPerformance(ctx context.Context, filter models.DateFilter, sortBy string) ([]models.SymbolPerformance, error)
	GetOpenPositions(ctx context.Context) ([]models.OpenPosition, error)
	GetExecutions(ctx context.Context) ([]models.RawExecution, error)
}

// ExportService writes flat CSV copies of the journal.
type ExportService interface {
	ExportExecutions(ctx context.Context, w io.Writer) error
	ExportTrades(ctx context.Context, w io.Writer, filter models.DateFilter) error
}
