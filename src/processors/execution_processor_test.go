package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/username/tradejournal/backend/src/models"
)

func TestComputeFingerprint_NormalizesPriceAndSymbol(t *testing.T) {
	date := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := models.RawExecution{TradeDate: date, Symbol: "aapl ", Action: models.ActionBuy, Price: decimal.RequireFromString("10.50"), Quantity: 5}
	b := models.RawExecution{TradeDate: date, Symbol: "AAPL", Action: models.ActionBuy, Price: decimal.RequireFromString("10.5"), Quantity: 5}

	assert.Equal(t, ComputeFingerprint(a), ComputeFingerprint(b))
	assert.Len(t, ComputeFingerprint(a), 64)
}

func TestComputeFingerprint_DistinguishesFields(t *testing.T) {
	base := models.RawExecution{
		TradeDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		HasTime:   true,
		TradeTime: 10 * time.Hour,
		Symbol:    "AAPL",
		Action:    models.ActionBuy,
		Price:     decimal.NewFromInt(10),
		Quantity:  5,
	}
	fp := ComputeFingerprint(base)

	later := base
	later.TradeTime = 11 * time.Hour
	sell := base
	sell.Action = models.ActionSell
	nextDay := base
	nextDay.TradeDate = nextDay.TradeDate.AddDate(0, 0, 1)
	bigger := base
	bigger.Quantity = 6

	for name, e := range map[string]models.RawExecution{"time": later, "action": sell, "date": nextDay, "quantity": bigger} {
		assert.NotEqual(t, fp, ComputeFingerprint(e), name)
	}

	withFees := base
	withFees.Fees = decimal.NewFromInt(1)
	assert.Equal(t, fp, ComputeFingerprint(withFees), "fees are not part of the identity")
}

func TestExecutionProcessor_Process(t *testing.T) {
	in := []models.RawExecution{
		{TradeDate: time.Date(2025, 12, 18, 0, 0, 0, 0, time.UTC), Symbol: " spy251219p670", Action: models.ActionBuy, Price: decimal.NewFromInt(2), Quantity: 1, Fees: decimal.RequireFromString("-0.65")},
		{TradeDate: time.Date(2025, 12, 18, 0, 0, 0, 0, time.UTC), Symbol: "spy", Action: models.ActionBuy, Price: decimal.NewFromInt(600), Quantity: 1},
	}

	out := NewExecutionProcessor().Process(in)

	assert.Len(t, out, 2)
	assert.Equal(t, "SPY251219P670", out[0].Symbol)
	assert.Equal(t, int64(100), out[0].Multiplier)
	assert.True(t, out[0].Fees.Equal(decimal.RequireFromString("0.65")))
	assert.NotEmpty(t, out[0].Fingerprint)
	assert.Equal(t, "SPY", out[1].Symbol)
	assert.Equal(t, int64(1), out[1].Multiplier)
	assert.Equal(t, " spy251219p670", in[0].Symbol, "input is not mutated")
}
