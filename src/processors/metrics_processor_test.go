package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/models"
)

func mkTrade(symbol, date string, exitHour int, pnl string, fees string, hold time.Duration) models.MatchedTrade {
	d, _ := time.Parse("2006-01-02", date)
	exit := d.Add(time.Duration(exitHour) * time.Hour)
	p := decimal.RequireFromString(pnl)
	f := decimal.RequireFromString(fees)
	return models.MatchedTrade{
		TradeDate: date,
		Symbol:    symbol,
		ExitTime:  exit,
		EntryTime: exit.Add(-hold),
		ExitHour:  exitHour,
		PnL:       p,
		Fees:      f,
		GrossPnL:  p.Add(f),
		Result:    ClassifyResult(p, decimal.Zero),
		HoldTime:  models.HoldTime(hold),
	}
}

func TestDashboard_Empty(t *testing.T) {
	m := NewMetricsProcessor().Dashboard(nil)

	assert.Equal(t, 0, m.TotalTrades)
	assertDecimal(t, "0", m.TotalPnL)
	assert.Equal(t, 0.0, m.WinRate)
	assert.Equal(t, "00:00:00", m.AvgHoldTimeWinning.String())
}

func TestDashboard_Aggregates(t *testing.T) {
	trades := []models.MatchedTrade{
		mkTrade("AAPL", "2024-01-02", 10, "100", "1", 10*time.Minute),
		mkTrade("AAPL", "2024-01-02", 11, "50", "1", 20*time.Minute),
		mkTrade("TSLA", "2024-01-03", 10, "-30", "1", 5*time.Minute),
		mkTrade("TSLA", "2024-01-03", 12, "0", "0", time.Minute),
		mkTrade("MSFT", "2024-01-04", 9, "-20", "1", 15*time.Minute),
		mkTrade("MSFT", "2024-01-04", 10, "-10", "1", 25*time.Minute),
	}

	m := NewMetricsProcessor().Dashboard(trades)

	assert.Equal(t, 6, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 3, m.LosingTrades)
	assert.Equal(t, 1, m.ScratchTrades)
	assert.Equal(t, 3, m.TradingDays)
	assertDecimal(t, "90", m.TotalPnL)
	assertDecimal(t, "90", m.NetPnL)
	assertDecimal(t, "5", m.TotalFees)
	assertDecimal(t, "95", m.GrossPnL)
	assertDecimal(t, "30", m.AvgDailyPnL)
	assertDecimal(t, "15", m.AvgTradePnL)
	assertDecimal(t, "75", m.AvgWinningTrade)
	assertDecimal(t, "-20", m.AvgLosingTrade)
	assertDecimal(t, "100", m.LargestGain)
	assertDecimal(t, "-30", m.LargestLoss)
	assert.Equal(t, 0.3333, m.WinRate)
	assert.Equal(t, 0.5, m.LossRate)
	assert.Equal(t, 0.1667, m.ScratchRate)
	assert.Equal(t, 2, m.MaxConsecutiveWins)
	assert.Equal(t, 2, m.MaxConsecutiveLosses, "the scratch breaks the losing streak")
	assert.Equal(t, "00:15:00", m.AvgHoldTimeWinning.String())
	assert.Equal(t, "00:15:00", m.AvgHoldTimeLosing.String())
	assert.Equal(t, "00:01:00", m.AvgHoldTimeScratch.String())
}

func TestDashboard_StreaksFollowExitOrder(t *testing.T) {
	trades := []models.MatchedTrade{
		mkTrade("A", "2024-01-03", 10, "5", "0", 0),
		mkTrade("A", "2024-01-01", 10, "-5", "0", 0),
		mkTrade("A", "2024-01-02", 10, "5", "0", 0),
	}

	m := NewMetricsProcessor().Dashboard(trades)

	assert.Equal(t, 2, m.MaxConsecutiveWins)
	assert.Equal(t, 1, m.MaxConsecutiveLosses)
}

func TestCalendarAndCumulative(t *testing.T) {
	trades := []models.MatchedTrade{
		mkTrade("AAPL", "2024-01-03", 10, "-40", "2", 0),
		mkTrade("AAPL", "2024-01-02", 10, "100", "1", 0),
		mkTrade("TSLA", "2024-01-02", 15, "25.5", "0.5", 0),
	}
	p := NewMetricsProcessor()

	days := p.Calendar(trades)
	require.Len(t, days, 2)
	assert.Equal(t, "2024-01-02", days[0].Date)
	assertDecimal(t, "125.5", days[0].PnL)
	assertDecimal(t, "1.5", days[0].Fees)
	assertDecimal(t, "127", days[0].GrossPnL)
	assert.Equal(t, 2, days[0].TradeCount)

	curve := p.CumulativePnL(trades)
	require.Len(t, curve, 2)
	assertDecimal(t, "125.5", curve[0].CumulativePnL)
	assertDecimal(t, "85.5", curve[1].CumulativePnL)
	assertDecimal(t, "-40", curve[1].PnL)
}

func TestCalendar_EmptyIsNotNil(t *testing.T) {
	p := NewMetricsProcessor()
	assert.NotNil(t, p.Calendar(nil))
	assert.NotNil(t, p.CumulativePnL(nil))
	assert.NotNil(t, p.SymbolPerformance(nil, ""))
}

func TestTimeAnalysis_AllHoursPresent(t *testing.T) {
	trades := []models.MatchedTrade{
		mkTrade("AAPL", "2024-01-02", 9, "10", "0", 0),
		mkTrade("AAPL", "2024-01-02", 9, "-4", "0", 0),
		mkTrade("AAPL", "2024-01-02", 15, "3", "0", 0),
	}

	buckets := NewMetricsProcessor().TimeAnalysis(trades)

	require.Len(t, buckets, 24)
	for h, b := range buckets {
		assert.Equal(t, h, b.Hour)
	}
	assert.Equal(t, 2, buckets[9].TradeCount)
	assert.Equal(t, 1, buckets[9].WinCount)
	assert.Equal(t, 1, buckets[9].LossCount)
	assertDecimal(t, "6", buckets[9].TotalPnL)
	assertDecimal(t, "3", buckets[9].AvgPnL)
	assert.Equal(t, 0.5, buckets[9].WinRate)
	assert.Equal(t, 0, buckets[0].TradeCount)
	assertDecimal(t, "0", buckets[0].AvgPnL)
}

func TestSymbolPerformance_Sorting(t *testing.T) {
	trades := []models.MatchedTrade{
		mkTrade("AAPL", "2024-01-02", 9, "10", "0", 0),
		mkTrade("AAPL", "2024-01-02", 10, "-5", "0", 0),
		mkTrade("AAPL", "2024-01-02", 11, "-5", "0", 0),
		mkTrade("TSLA", "2024-01-02", 9, "50", "0", 0),
		mkTrade("MSFT", "2024-01-02", 9, "-20", "0", 0),
	}
	p := NewMetricsProcessor()

	byPnL := p.SymbolPerformance(trades, "")
	require.Len(t, byPnL, 3)
	assert.Equal(t, []string{"TSLA", "AAPL", "MSFT"}, symbolsOf(byPnL))
	assert.Equal(t, 3, byPnL[1].TradeCount)
	assert.Equal(t, 0.3333, byPnL[1].WinRate)
	assertDecimal(t, "0", byPnL[1].TotalPnL)

	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, symbolsOf(p.SymbolPerformance(trades, SortByTradeCount)))
	assert.Equal(t, []string{"TSLA", "AAPL", "MSFT"}, symbolsOf(p.SymbolPerformance(trades, SortByWinRate)))
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, symbolsOf(p.SymbolPerformance(trades, SortBySymbol)))

	assert.True(t, IsValidSymbolSort("win_rate"))
	assert.False(t, IsValidSymbolSort("pnl"))
}

func symbolsOf(perf []models.SymbolPerformance) []string {
	out := make([]string, 0, len(perf))
	for _, p := range perf {
		out = append(out, p.Symbol)
	}
	return out
}

func TestDashboard_TotalMatchesSumOfTradePnL(t *testing.T) {
	cases := map[string][]models.RawExecution{
		"sub-cent prices": {
			newExec(1, "2024-05-01", "09:30:00", "PNNY", models.ActionBuy, "1.0000", 1, ""),
			newExec(2, "2024-05-01", "09:31:00", "PNNY", models.ActionSell, "1.0040", 1, ""),
			newExec(3, "2024-05-01", "09:32:00", "PNNY", models.ActionBuy, "1.0000", 1, ""),
			newExec(4, "2024-05-01", "09:33:00", "PNNY", models.ActionSell, "1.0040", 1, ""),
			newExec(5, "2024-05-02", "09:34:00", "PNNY", models.ActionBuy, "1.0000", 1, ""),
			newExec(6, "2024-05-02", "09:35:00", "PNNY", models.ActionSell, "1.0040", 1, ""),
		},
		"uneven fee split": {
			newExec(1, "2024-05-01", "09:30:00", "AMD", models.ActionBuy, "10", 3, "1"),
			newExec(2, "2024-05-01", "09:35:00", "AMD", models.ActionSell, "10", 1, ""),
			newExec(3, "2024-05-02", "09:36:00", "AMD", models.ActionSell, "10", 1, ""),
		},
	}
	for name, execs := range cases {
		t.Run(name, func(t *testing.T) {
			trades := NewTradeMatcher(DefaultMatcherOptions()).Match(execs).Trades
			p := NewMetricsProcessor()

			sum := decimal.Zero
			for _, tr := range trades {
				sum = sum.Add(tr.PnL)
			}
			m := p.Dashboard(trades)
			assertDecimal(t, sum.String(), m.TotalPnL)

			curve := p.CumulativePnL(trades)
			require.NotEmpty(t, curve)
			assertDecimal(t, m.TotalPnL.String(), curve[len(curve)-1].CumulativePnL)
		})
	}
}
