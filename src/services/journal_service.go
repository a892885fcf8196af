// backend/src/services/journal_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/processors"
)

// journalServiceImpl recomputes every report from the trade store on request. Nothing is
// cached between requests, so a report can never outlive the import that replaced it.
type journalServiceImpl struct {
	ledger           *database.LedgerRepository
	trades           *database.TradeRepository
	tradeMatcher     processors.TradeMatcher
	metricsProcessor processors.MetricsProcessor
}

func NewJournalService(db *sql.DB, tradeMatcher processors.TradeMatcher, metricsProcessor processors.MetricsProcessor) JournalService {
	return &journalServiceImpl{
		ledger:           database.NewLedgerRepository(db),
		trades:           database.NewTradeRepository(db),
		tradeMatcher:     tradeMatcher,
		metricsProcessor: metricsProcessor,
	}
}

func (s *journalServiceImpl) GetTrades(ctx context.Context, filter models.DateFilter) ([]models.MatchedTrade, error) {
	trades, err := s.trades.Query(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	return trades, nil
}

func (s *journalServiceImpl) GetDashboardMetrics(ctx context.Context, filter models.DateFilter) (*models.DashboardMetrics, error) {
	trades, err := s.GetTrades(ctx, filter)
	if err != nil {
		return nil, err
	}
	metrics := s.metricsProcessor.Dashboard(trades)
	return &metrics, nil
}

func (s *journalServiceImpl) GetCalendarData(ctx context.Context, filter models.DateFilter) ([]models.CalendarDay, error) {
	trades, err := s.GetTrades(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.metricsProcessor.Calendar(trades), nil
}

func (s *journalServiceImpl) GetCumulativePnl(ctx context.Context, filter models.DateFilter) ([]models.CumulativePnLPoint, error) {
	trades, err := s.GetTrades(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.metricsProcessor.CumulativePnL(trades), nil
}

func (s *journalServiceImpl) GetTimeAnalysis(ctx context.Context, filter models.DateFilter) ([]models.TimeBucket, error) {
	trades, err := s.GetTrades(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.metricsProcessor.TimeAnalysis(trades), nil
}

func (s *journalServiceImpl) GetSymbolPerformance(ctx context.Context, filter models.DateFilter, sortBy string) ([]models.SymbolPerformance, error) {
	trades, err := s.GetTrades(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.metricsProcessor.SymbolPerformance(trades, sortBy), nil
}

// GetOpenPositions is derived from the ledger rather than stored: only matched trades are
// persisted.
func (s *journalServiceImpl) GetOpenPositions(ctx context.Context) ([]models.OpenPosition, error) {
	executions, err := s.GetExecutions(ctx)
	if err != nil {
		return nil, err
	}
	return s.tradeMatcher.Match(executions).OpenPositions, nil
}

func (s *journalServiceImpl) GetExecutions(ctx context.Context) ([]models.RawExecution, error) {
	executions, err := s.ledger.All(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load executions: %w", err)
	}
	return executions, nil
}
