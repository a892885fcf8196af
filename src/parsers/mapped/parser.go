// backend/src/parsers/mapped/parser.go
package mapped

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/csvutil"
	"github.com/username/tradejournal/backend/src/utils"
)

const SourceName = "mapped"

// MappedParser reads any broker CSV through a user-confirmed column mapping.
type MappedParser struct{}

// NewParser creates a new instance of the MappedParser.
func NewParser() *MappedParser {
	return &MappedParser{}
}

// columns holds resolved column positions; -1 means unmapped.
type columns struct {
	date, time, symbol, action, price, quantity, fees int
	combined                                          bool
}

// Parse validates the mapping against the table, then converts every row. Rows that fail
// are counted in the result and never abort the batch.
func (p *MappedParser) Parse(table *csvutil.Table, mapping models.ColumnMapping) (*models.ParseResult, error) {
	if mapping.DateTimeCombined && mapping.Header(models.FieldDate) == "" {
		mapping.Date = mapping.Time
	}
	if err := table.ValidateMapping(mapping); err != nil {
		return nil, err
	}

	cols := columns{
		date:     table.Index(mapping.Header(models.FieldDate)),
		time:     table.Index(mapping.Header(models.FieldTime)),
		symbol:   table.Index(mapping.Header(models.FieldSymbol)),
		action:   table.Index(mapping.Header(models.FieldAction)),
		price:    table.Index(mapping.Header(models.FieldPrice)),
		quantity: table.Index(mapping.Header(models.FieldQuantity)),
		fees:     table.Index(mapping.Header(models.FieldFees)),
		combined: mapping.DateTimeCombined,
	}

	result := &models.ParseResult{Executions: []models.RawExecution{}}
	for i, row := range table.Rows {
		lineNo := i + 2 // Header is line 1
		exec, err := p.parseRow(row, cols)
		if err != nil {
			result.AddRowError(fmt.Sprintf("row %d: %v", lineNo, err))
			continue
		}
		result.Executions = append(result.Executions, exec)
	}

	if result.RowsFailed > 0 {
		logger.L.Warn("Mapped parser: some rows could not be parsed", "rowsFailed", result.RowsFailed, "rowsParsed", len(result.Executions))
	}
	return result, nil
}

func (p *MappedParser) parseRow(row []string, cols columns) (models.RawExecution, error) {
	var exec models.RawExecution
	exec.Source = SourceName

	date, tod, hasTime, err := p.parseWhen(row, cols)
	if err != nil {
		return exec, err
	}
	exec.TradeDate, exec.TradeTime, exec.HasTime = date, tod, hasTime

	exec.Symbol = csvutil.ExtractSymbol(csvutil.Cell(row, cols.symbol))
	if exec.Symbol == "" {
		return exec, fmt.Errorf("missing symbol")
	}

	exec.Price, err = csvutil.ParsePrice(csvutil.Cell(row, cols.price))
	if err != nil {
		return exec, err
	}

	signedQty, err := csvutil.ParseQuantity(csvutil.Cell(row, cols.quantity))
	if err != nil {
		return exec, err
	}
	exec.Quantity = utils.AbsInt64(signedQty)

	exec.Action, err = csvutil.NormalizeAction(csvutil.Cell(row, cols.action), signedQty)
	if err != nil {
		return exec, err
	}

	exec.Fees = decimal.Zero
	if cols.fees >= 0 {
		exec.Fees, err = csvutil.ParseFees(csvutil.Cell(row, cols.fees))
		if err != nil {
			return exec, err
		}
	}

	exec.Multiplier = utils.ContractMultiplier(exec.Symbol)
	return exec, nil
}

// parseWhen resolves the fill's date and time of day from the mapped columns.
func (p *MappedParser) parseWhen(row []string, cols columns) (time.Time, time.Duration, bool, error) {
	if cols.combined {
		src := cols.time
		if src < 0 {
			src = cols.date
		}
		return csvutil.ParseDateTime(csvutil.Cell(row, src))
	}

	date, tod, hasTime, err := csvutil.ParseDateTime(csvutil.Cell(row, cols.date))
	if err != nil {
		return date, 0, false, err
	}
	if cols.time < 0 {
		return date, tod, hasTime, nil
	}

	timeCell := csvutil.Cell(row, cols.time)
	if timeCell == "" {
		return date, tod, hasTime, nil
	}
	if t, tErr := csvutil.ParseTimeOfDay(timeCell); tErr == nil {
		return date, t, true, nil
	}
	// Some exports repeat the full timestamp in the time column.
	if _, t, ok, dtErr := csvutil.ParseDateTime(timeCell); dtErr == nil && ok {
		return date, t, true, nil
	}
	return date, 0, false, fmt.Errorf("unrecognized time %q", timeCell)
}
