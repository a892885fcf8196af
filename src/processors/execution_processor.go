// backend/src/processors/execution_processor.go
package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/utils"
)

type executionProcessorImpl struct{}

func NewExecutionProcessor() ExecutionProcessor { return &executionProcessorImpl{} }

// Process enriches parsed executions with the data every downstream stage relies on.
// It trusts the action classification provided by the parser.
func (p *executionProcessorImpl) Process(executions []models.RawExecution) []models.RawExecution {
	processed := make([]models.RawExecution, 0, len(executions))
	for _, e := range executions {
		e.Symbol = strings.ToUpper(strings.TrimSpace(e.Symbol))
		if e.Multiplier <= 0 {
			e.Multiplier = utils.ContractMultiplier(e.Symbol)
		}
		if e.Fees.IsNegative() {
			e.Fees = e.Fees.Abs()
		}
		e.Fingerprint = ComputeFingerprint(e)
		processed = append(processed, e)
	}
	return processed
}

// ComputeFingerprint hashes the normalized (date, time, symbol, action, price, quantity) tuple.
// Price goes through its canonical decimal form so "10.50" and "10.5" collide.
func ComputeFingerprint(e models.RawExecution) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
		utils.FormatDate(e.TradeDate),
		e.TimeString(),
		strings.ToUpper(strings.TrimSpace(e.Symbol)),
		e.Action,
		canonicalPrice(e.Price),
		e.Quantity,
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

func canonicalPrice(d decimal.Decimal) string {
	return d.Round(8).String()
}
