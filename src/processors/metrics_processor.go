// backend/src/processors/metrics_processor.go
package processors

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/utils"
)

// Sort keys accepted by SymbolPerformance.
const (
	SortByTotalPnL   = "total_pnl"
	SortByTradeCount = "trade_count"
	SortByWinRate    = "win_rate"
	SortBySymbol     = "symbol"
)

// Currency figures in reports are rounded to cents.
const moneyPlaces = 2

type metricsProcessorImpl struct{}

// NewMetricsProcessor creates a new instance of MetricsProcessor.
func NewMetricsProcessor() MetricsProcessor {
	return &metricsProcessorImpl{}
}

// Dashboard computes the headline statistics. Trades are walked in exit order for
// the streak counters; a scratch breaks both streaks.
func (p *metricsProcessorImpl) Dashboard(trades []models.MatchedTrade) models.DashboardMetrics {
	if len(trades) == 0 {
		return zeroDashboard()
	}
	m := zeroDashboard()

	ordered := sortedByExit(trades)

	total := decimal.Zero
	gross := decimal.Zero
	fees := decimal.Zero
	winSum := decimal.Zero
	lossSum := decimal.Zero
	largestGain := ordered[0].PnL
	largestLoss := ordered[0].PnL
	days := make(map[string]struct{})
	var holdWin, holdLoss, holdScratch time.Duration
	var curWins, curLosses int

	for _, t := range ordered {
		total = total.Add(t.PnL)
		gross = gross.Add(t.GrossPnL)
		fees = fees.Add(t.Fees)
		days[t.TradeDate] = struct{}{}
		if t.PnL.GreaterThan(largestGain) {
			largestGain = t.PnL
		}
		if t.PnL.LessThan(largestLoss) {
			largestLoss = t.PnL
		}

		switch t.Result {
		case models.ResultWin:
			m.WinningTrades++
			winSum = winSum.Add(t.PnL)
			holdWin += t.HoldTime.Duration()
			curWins++
			curLosses = 0
			if curWins > m.MaxConsecutiveWins {
				m.MaxConsecutiveWins = curWins
			}
		case models.ResultLose:
			m.LosingTrades++
			lossSum = lossSum.Add(t.PnL)
			holdLoss += t.HoldTime.Duration()
			curLosses++
			curWins = 0
			if curLosses > m.MaxConsecutiveLosses {
				m.MaxConsecutiveLosses = curLosses
			}
		default:
			m.ScratchTrades++
			holdScratch += t.HoldTime.Duration()
			curWins, curLosses = 0, 0
		}
	}

	m.TotalTrades = len(ordered)
	m.TradingDays = len(days)
	m.TotalPnL = total.Round(moneyPlaces)
	m.GrossPnL = gross.Round(moneyPlaces)
	m.TotalFees = fees.Round(moneyPlaces)
	m.NetPnL = m.TotalPnL
	m.AvgDailyPnL = average(total, m.TradingDays)
	m.AvgTradePnL = average(total, m.TotalTrades)
	m.WinRate = utils.Ratio(m.WinningTrades, m.TotalTrades)
	m.LossRate = utils.Ratio(m.LosingTrades, m.TotalTrades)
	m.ScratchRate = utils.Ratio(m.ScratchTrades, m.TotalTrades)
	m.AvgWinningTrade = average(winSum, m.WinningTrades)
	m.AvgLosingTrade = average(lossSum, m.LosingTrades)
	m.LargestGain = largestGain.Round(moneyPlaces)
	m.LargestLoss = largestLoss.Round(moneyPlaces)
	m.AvgHoldTimeWinning = averageHold(holdWin, m.WinningTrades)
	m.AvgHoldTimeLosing = averageHold(holdLoss, m.LosingTrades)
	m.AvgHoldTimeScratch = averageHold(holdScratch, m.ScratchTrades)
	return m
}

func zeroDashboard() models.DashboardMetrics {
	return models.DashboardMetrics{
		TotalPnL:        decimal.Zero,
		GrossPnL:        decimal.Zero,
		TotalFees:       decimal.Zero,
		NetPnL:          decimal.Zero,
		AvgDailyPnL:     decimal.Zero,
		AvgTradePnL:     decimal.Zero,
		AvgWinningTrade: decimal.Zero,
		AvgLosingTrade:  decimal.Zero,
		LargestGain:     decimal.Zero,
		LargestLoss:     decimal.Zero,
	}
}

// Calendar groups trades by exit date.
func (p *metricsProcessorImpl) Calendar(trades []models.MatchedTrade) []models.CalendarDay {
	byDate := make(map[string]*models.CalendarDay)
	for _, t := range trades {
		day, ok := byDate[t.TradeDate]
		if !ok {
			day = &models.CalendarDay{Date: t.TradeDate, PnL: decimal.Zero, GrossPnL: decimal.Zero, Fees: decimal.Zero}
			byDate[t.TradeDate] = day
		}
		day.PnL = day.PnL.Add(t.PnL)
		day.GrossPnL = day.GrossPnL.Add(t.GrossPnL)
		day.Fees = day.Fees.Add(t.Fees)
		day.TradeCount++
	}

	result := make([]models.CalendarDay, 0, len(byDate))
	for _, day := range byDate {
		day.PnL = day.PnL.Round(moneyPlaces)
		day.GrossPnL = day.GrossPnL.Round(moneyPlaces)
		day.Fees = day.Fees.Round(moneyPlaces)
		result = append(result, *day)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result
}

// CumulativePnL returns one point per exit date with the running total.
func (p *metricsProcessorImpl) CumulativePnL(trades []models.MatchedTrade) []models.CumulativePnLPoint {
	days := p.Calendar(trades)
	result := make([]models.CumulativePnLPoint, 0, len(days))
	running := decimal.Zero
	for _, day := range days {
		running = running.Add(day.PnL)
		result = append(result, models.CumulativePnLPoint{
			Date:          day.Date,
			PnL:           day.PnL,
			CumulativePnL: running,
		})
	}
	return result
}

// TimeAnalysis buckets trades by the hour they were closed. All 24 hours are returned.
func (p *metricsProcessorImpl) TimeAnalysis(trades []models.MatchedTrade) []models.TimeBucket {
	buckets := make([]models.TimeBucket, 24)
	sums := make([]decimal.Decimal, 24)
	for h := range buckets {
		buckets[h].Hour = h
		sums[h] = decimal.Zero
	}

	for _, t := range trades {
		h := t.ExitHour
		if h < 0 || h > 23 {
			continue
		}
		buckets[h].TradeCount++
		sums[h] = sums[h].Add(t.PnL)
		switch t.Result {
		case models.ResultWin:
			buckets[h].WinCount++
		case models.ResultLose:
			buckets[h].LossCount++
		}
	}

	for h := range buckets {
		buckets[h].TotalPnL = sums[h].Round(moneyPlaces)
		buckets[h].AvgPnL = average(sums[h], buckets[h].TradeCount)
		buckets[h].WinRate = utils.Ratio(buckets[h].WinCount, buckets[h].TradeCount)
	}
	return buckets
}

// SymbolPerformance aggregates per symbol. Unknown sort keys fall back to total P&L,
// highest first.
func (p *metricsProcessorImpl) SymbolPerformance(trades []models.MatchedTrade, sortBy string) []models.SymbolPerformance {
	bySymbol := make(map[string]*models.SymbolPerformance)
	sums := make(map[string]decimal.Decimal)
	for _, t := range trades {
		perf, ok := bySymbol[t.Symbol]
		if !ok {
			perf = &models.SymbolPerformance{Symbol: t.Symbol}
			bySymbol[t.Symbol] = perf
			sums[t.Symbol] = decimal.Zero
		}
		perf.TradeCount++
		sums[t.Symbol] = sums[t.Symbol].Add(t.PnL)
		if t.Result == models.ResultWin {
			perf.WinCount++
		}
	}

	result := make([]models.SymbolPerformance, 0, len(bySymbol))
	for symbol, perf := range bySymbol {
		perf.TotalPnL = sums[symbol].Round(moneyPlaces)
		perf.AvgPnL = average(sums[symbol], perf.TradeCount)
		perf.WinRate = utils.Ratio(perf.WinCount, perf.TradeCount)
		result = append(result, *perf)
	}

	var less func(a, b models.SymbolPerformance) bool
	switch strings.ToLower(sortBy) {
	case SortByTradeCount:
		less = func(a, b models.SymbolPerformance) bool { return a.TradeCount > b.TradeCount }
	case SortByWinRate:
		less = func(a, b models.SymbolPerformance) bool { return a.WinRate > b.WinRate }
	case SortBySymbol:
		less = func(a, b models.SymbolPerformance) bool { return false }
	default:
		less = func(a, b models.SymbolPerformance) bool { return a.TotalPnL.GreaterThan(b.TotalPnL) }
	}
	// Symbol is the tie-breaker (and the whole order for SortBySymbol).
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.Symbol < b.Symbol
	})
	return result
}

// IsValidSymbolSort reports whether key is an accepted SymbolPerformance sort key.
func IsValidSymbolSort(key string) bool {
	switch strings.ToLower(key) {
	case "", SortByTotalPnL, SortByTradeCount, SortByWinRate, SortBySymbol:
		return true
	}
	return false
}

func sortedByExit(trades []models.MatchedTrade) []models.MatchedTrade {
	ordered := make([]models.MatchedTrade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.ExitTime.Equal(b.ExitTime) {
			return a.ExitTime.Before(b.ExitTime)
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.ExitSeq < b.ExitSeq
	})
	return ordered
}

func average(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.DivRound(decimal.NewFromInt(int64(n)), moneyPlaces)
}

func averageHold(total time.Duration, n int) models.HoldTime {
	if n == 0 {
		return 0
	}
	secs := int64(total/time.Second) / int64(n)
	return models.HoldTime(time.Duration(secs) * time.Second)
}
