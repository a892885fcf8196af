// backend/src/models/metrics.go
package models

import "github.com/shopspring/decimal"

// DashboardMetrics is the headline statistics block of the dashboard.
// TotalPnL sums per-trade PnL, which is already net of fees; GrossPnL is the pre-fee figure.
type DashboardMetrics struct {
	TotalPnL             decimal.Decimal `json:"total_pnl"`
	GrossPnL             decimal.Decimal `json:"gross_pnl"`
	TotalFees            decimal.Decimal `json:"total_fees"`
	NetPnL               decimal.Decimal `json:"net_pnl"`
	AvgDailyPnL          decimal.Decimal `json:"avg_daily_pnl"`
	AvgTradePnL          decimal.Decimal `json:"avg_trade_pnl"`
	TotalTrades          int             `json:"total_trades"`
	WinningTrades        int             `json:"winning_trades"`
	LosingTrades         int             `json:"losing_trades"`
	ScratchTrades        int             `json:"scratch_trades"`
	TradingDays          int             `json:"trading_days"`
	WinRate              float64         `json:"win_rate"`
	LossRate             float64         `json:"loss_rate"`
	ScratchRate          float64         `json:"scratch_rate"`
	AvgWinningTrade      decimal.Decimal `json:"avg_winning_trade"`
	AvgLosingTrade       decimal.Decimal `json:"avg_losing_trade"`
	LargestGain          decimal.Decimal `json:"largest_gain"`
	LargestLoss          decimal.Decimal `json:"largest_loss"`
	MaxConsecutiveWins   int             `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int             `json:"max_consecutive_losses"`
	AvgHoldTimeWinning   HoldTime        `json:"avg_hold_time_winning"`
	AvgHoldTimeLosing    HoldTime        `json:"avg_hold_time_losing"`
	AvgHoldTimeScratch   HoldTime        `json:"avg_hold_time_scratch"`
}

// CalendarDay aggregates the trades closed on one date.
type CalendarDay struct {
	Date       string          `json:"date"`
	PnL        decimal.Decimal `json:"pnl"`
	GrossPnL   decimal.Decimal `json:"gross_pnl"`
	Fees       decimal.Decimal `json:"fees"`
	TradeCount int             `json:"trade_count"`
}

// CumulativePnLPoint is one day of the equity curve.
type CumulativePnLPoint struct {
	Date          string          `json:"date"`
	PnL           decimal.Decimal `json:"pnl"`
	CumulativePnL decimal.Decimal `json:"cumulative_pnl"`
}

// TimeBucket reports trades closed during one hour of the day.
type TimeBucket struct {
	Hour       int             `json:"hour"`
	TradeCount int             `json:"trade_count"`
	TotalPnL   decimal.Decimal `json:"total_pnl"`
	AvgPnL     decimal.Decimal `json:"avg_pnl"`
	WinCount   int             `json:"win_count"`
	LossCount  int             `json:"loss_count"`
	WinRate    float64         `json:"win_rate"`
}

type SymbolPerformance struct {
	Symbol     string          `json:"symbol"`
	TradeCount int             `json:"trade_count"`
	TotalPnL   decimal.Decimal `json:"total_pnl"`
	AvgPnL     decimal.Decimal `json:"avg_pnl"`
	WinCount   int             `json:"win_count"`
	WinRate    float64         `json:"win_rate"`
}
