package processors

import (
	"github.com/username/tradejournal/backend/src/models"
)

// ExecutionProcessor normalizes parsed fills and stamps their dedup fingerprint.
type ExecutionProcessor interface {
	Process(executions []models.RawExecution) []models.RawExecution
}

// TradeMatcher pairs opening and closing fills into round-trip trades.
type TradeMatcher interface {
	Match(executions []models.RawExecution) models.MatchResult
}

// MetricsProcessor aggregates matched trades into the dashboard reports.
type MetricsProcessor interface {
	Dashboard(trades []models.MatchedTrade) models.DashboardMetrics
	Calendar(trades []models.MatchedTrade) []models.CalendarDay
	CumulativePnL(trades []models.MatchedTrade) []models.CumulativePnLPoint
	TimeAnalysis(trades []models.MatchedTrade) []models.TimeBucket
	SymbolPerformance(trades []models.MatchedTrade, sortBy string) []models.SymbolPerformance
}
