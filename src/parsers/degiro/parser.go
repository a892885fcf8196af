// backend/src/parsers/degiro/parser.go
package degiro

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/csvutil"
)

const SourceName = "degiro"

// Column positions of the DeGiro account statement. Header text depends on the UI language,
// so columns are addressed by position.
const (
	colOrderDate   = 0
	colOrderTime   = 1
	colProduct     = 3
	colISIN        = 4
	colDescription = 5
	colAmount      = 8
	colOrderID     = 11
	minColumns     = 12
)

var (
	tradeDescription = regexp.MustCompile(`(?i)^\s*(compra|venda|buy|sell)\s+([\d\s.,]+)\s+(.+?)\s*@([\d,.]+)`)
	optionProduct    = regexp.MustCompile(`\s+[CP]\d+(\.\d+)?\s+\d{2}[A-Z]{3}\d{2}$`)
)

// DeGiroParser reads the account statement export, where each fill is a "Compra 10 NAME@12,5"
// line and its commission is a separate line carrying the same order id.
type DeGiroParser struct{}

func NewParser() *DeGiroParser {
	return &DeGiroParser{}
}

// MatchesHeaders reports whether headers look like an account statement export.
func MatchesHeaders(headers []string) bool {
	if len(headers) < minColumns {
		return false
	}
	desc := strings.ToLower(strings.TrimSpace(headers[colDescription]))
	return strings.EqualFold(strings.TrimSpace(headers[colISIN]), "ISIN") &&
		(desc == "descrição" || desc == "description")
}

// Parse ignores the column mapping; the layout is fixed.
func (p *DeGiroParser) Parse(table *csvutil.Table, _ models.ColumnMapping) (*models.ParseResult, error) {
	if len(table.Headers) < minColumns {
		return nil, &csvutil.MappingError{Missing: []string{models.FieldDate, models.FieldSymbol, models.FieldPrice, models.FieldQuantity}}
	}

	commissions := commissionsByOrder(table.Rows)

	result := &models.ParseResult{Executions: []models.RawExecution{}}
	for i, row := range table.Rows {
		lineNo := i + 2
		matches := tradeDescription.FindStringSubmatch(csvutil.Cell(row, colDescription))
		if matches == nil {
			// Dividends, deposits, fees and FX lines.
			result.RowsSkipped++
			continue
		}

		exec, err := p.parseFill(row, matches)
		if err != nil {
			result.AddRowError(fmt.Sprintf("row %d: %v", lineNo, err))
			continue
		}
		if orderID := csvutil.Cell(row, colOrderID); orderID != "" {
			exec.Fees = commissions[orderID]
		}
		result.Executions = append(result.Executions, exec)
	}

	logger.L.Info("DeGiro parser finished", "fills", len(result.Executions), "skipped", result.RowsSkipped, "rowsFailed", result.RowsFailed)
	return result, nil
}

func (p *DeGiroParser) parseFill(row []string, matches []string) (models.RawExecution, error) {
	exec := models.RawExecution{Source: SourceName, Fees: decimal.Zero}

	date, err := time.Parse("02-01-2006", csvutil.Cell(row, colOrderDate))
	if err != nil {
		return exec, fmt.Errorf("invalid date %q", csvutil.Cell(row, colOrderDate))
	}
	exec.TradeDate = date
	if clock := csvutil.Cell(row, colOrderTime); clock != "" {
		tod, err := csvutil.ParseTimeOfDay(clock)
		if err != nil {
			return exec, err
		}
		exec.TradeTime, exec.HasTime = tod, true
	}

	if strings.EqualFold(matches[1], "compra") || strings.EqualFold(matches[1], "buy") {
		exec.Action = models.ActionBuy
	} else {
		exec.Action = models.ActionSell
	}

	product := strings.TrimSpace(matches[3])
	if product == "" {
		product = csvutil.Cell(row, colProduct)
	}
	exec.Symbol = strings.ToUpper(product)
	if exec.Symbol == "" {
		return exec, fmt.Errorf("missing product")
	}

	quantity, err := csvutil.ParseQuantity(europeanNumber(matches[2], true))
	if err != nil {
		return exec, err
	}
	if quantity < 0 {
		quantity = -quantity
	}
	exec.Quantity = quantity

	exec.Price, err = csvutil.ParsePrice(europeanNumber(matches[4], false))
	if err != nil {
		return exec, err
	}

	exec.Multiplier = 1
	if optionProduct.MatchString(product) {
		exec.Multiplier = 100
	}
	return exec, nil
}

// commissionsByOrder sums the commission lines per order id.
func commissionsByOrder(rows [][]string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, row := range rows {
		orderID := csvutil.Cell(row, colOrderID)
		desc := strings.ToLower(csvutil.Cell(row, colDescription))
		if orderID == "" || !(strings.Contains(desc, "comissões de transação") || strings.Contains(desc, "transaction costs")) {
			continue
		}
		fee, err := csvutil.ParseFees(europeanNumber(csvutil.Cell(row, colAmount), false))
		if err != nil {
			logger.L.Warn("DeGiro parser: ignoring unreadable commission", "orderID", orderID, "amount", csvutil.Cell(row, colAmount))
			continue
		}
		out[orderID] = out[orderID].Add(fee)
	}
	return out
}

// europeanNumber converts "1.234,5" style numbers. Quantities use "." only as a thousands
// separator; amounts may use either form, so a lone "." is kept as the decimal point.
func europeanNumber(s string, quantity bool) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if quantity || strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
	}
	return strings.ReplaceAll(s, ",", ".")
}
