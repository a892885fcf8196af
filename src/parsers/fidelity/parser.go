// backend/src/parsers/fidelity/parser.go
package fidelity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/csvutil"
	"github.com/username/tradejournal/backend/src/utils"
)

const SourceName = "fidelity"

// Fixed headers of the Fidelity "Orders_All_Accounts" export.
const (
	headerSymbol    = "Symbol"
	headerAction    = "Action"
	headerStatus    = "Status"
	headerAmount    = "Amount"
	headerOrderTime = "Order Time"
)

var requiredHeaders = []string{headerSymbol, headerAction, headerStatus, headerAmount, headerOrderTime}

// FidelityParser reads the order history export, where fills are the orders whose status
// reads "Filled at $X".
type FidelityParser struct{}

// NewParser creates a new instance of the FidelityParser.
func NewParser() *FidelityParser {
	return &FidelityParser{}
}

// MatchesHeaders reports whether headers look like an order history export.
func MatchesHeaders(headers []string) bool {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[strings.ToLower(strings.TrimSpace(h))] = true
	}
	for _, h := range requiredHeaders {
		if !present[strings.ToLower(h)] {
			return false
		}
	}
	return true
}

// Parse ignores the column mapping; the layout is fixed.
func (p *FidelityParser) Parse(table *csvutil.Table, _ models.ColumnMapping) (*models.ParseResult, error) {
	if err := table.RequireHeaders(requiredHeaders...); err != nil {
		return nil, err
	}
	idx := func(h string) int { return table.Index(h) }
	symbolCol, actionCol, statusCol, amountCol, timeCol := idx(headerSymbol), idx(headerAction), idx(headerStatus), idx(headerAmount), idx(headerOrderTime)

	result := &models.ParseResult{Executions: []models.RawExecution{}}
	for i, row := range table.Rows {
		lineNo := i + 2
		status := csvutil.Cell(row, statusCol)
		if !isFilled(status) {
			result.RowsSkipped++
			continue
		}

		exec, err := p.parseFill(row, status, symbolCol, actionCol, amountCol, timeCol)
		if err != nil {
			result.AddRowError(fmt.Sprintf("row %d: %v", lineNo, err))
			continue
		}
		result.Executions = append(result.Executions, exec)
	}

	logger.L.Info("Fidelity parser finished", "fills", len(result.Executions), "skipped", result.RowsSkipped, "rowsFailed", result.RowsFailed)
	return result, nil
}

func isFilled(status string) bool {
	return strings.Contains(status, "Filled") && !strings.Contains(status, "Verified Canceled")
}

func (p *FidelityParser) parseFill(row []string, status string, symbolCol, actionCol, amountCol, timeCol int) (models.RawExecution, error) {
	exec := models.RawExecution{Source: SourceName, Fees: decimal.Zero}

	date, tod, hasTime, err := csvutil.ParseDateTime(csvutil.Cell(row, timeCol))
	if err != nil {
		return exec, err
	}
	exec.TradeDate, exec.TradeTime, exec.HasTime = date, tod, hasTime

	if !strings.Contains(strings.ToLower(status), "filled at") {
		return exec, fmt.Errorf("no fill price in status %q", status)
	}
	exec.Price, err = csvutil.ParsePrice(status)
	if err != nil {
		return exec, err
	}

	exec.Symbol = csvutil.ExtractSymbol(csvutil.Cell(row, symbolCol))
	if exec.Symbol == "" {
		return exec, fmt.Errorf("missing symbol")
	}

	signedQty, err := csvutil.ParseQuantity(csvutil.Cell(row, amountCol))
	if err != nil {
		return exec, err
	}
	exec.Quantity = utils.AbsInt64(signedQty)

	exec.Action, err = csvutil.NormalizeAction(csvutil.Cell(row, actionCol), signedQty)
	if err != nil {
		return exec, err
	}

	exec.Multiplier = utils.ContractMultiplier(exec.Symbol)
	return exec, nil
}
