// backend/src/services/export_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/utils"
)

// executionRow is the flat CSV shape of a ledger entry. Re-importing it through the column
// mapper reproduces the same fingerprints.
type executionRow struct {
	Seq         int64  `csv:"seq"`
	Date        string `csv:"date"`
	Time        string `csv:"time"`
	Symbol      string `csv:"symbol"`
	Action      string `csv:"action"`
	Price       string `csv:"price"`
	Quantity    int64  `csv:"quantity"`
	Fees        string `csv:"fees"`
	Multiplier  int64  `csv:"multiplier"`
	Source      string `csv:"source"`
	Fingerprint string `csv:"fingerprint"`
	ImportBatch string `csv:"import_batch"`
	ImportedAt  string `csv:"imported_at"`
}

type tradeRow struct {
	TradeDate   string `csv:"trade_date"`
	Symbol      string `csv:"symbol"`
	Side        string `csv:"side"`
	EntryAction string `csv:"entry_action"`
	ExitAction  string `csv:"exit_action"`
	EntryTime   string `csv:"entry_time"`
	ExitTime    string `csv:"exit_time"`
	EntryPrice  string `csv:"entry_price"`
	ExitPrice   string `csv:"exit_price"`
	Quantity    int64  `csv:"quantity"`
	Multiplier  int64  `csv:"multiplier"`
	GrossPnL    string `csv:"gross_pnl"`
	Fees        string `csv:"fees"`
	PnL         string `csv:"pnl"`
	Result      string `csv:"result"`
	HoldTime    string `csv:"hold_time"`
}

type exportServiceImpl struct {
	ledger *database.LedgerRepository
	trades *database.TradeRepository
}

func NewExportService(db *sql.DB) ExportService {
	return &exportServiceImpl{
		ledger: database.NewLedgerRepository(db),
		trades: database.NewTradeRepository(db),
	}
}

func (s *exportServiceImpl) ExportExecutions(ctx context.Context, w io.Writer) error {
	executions, err := s.ledger.All(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to load executions: %w", err)
	}

	rows := make([]*executionRow, 0, len(executions))
	for _, e := range executions {
		rows = append(rows, &executionRow{
			Seq:         e.Seq,
			Date:        utils.FormatDate(e.TradeDate),
			Time:        e.TimeString(),
			Symbol:      validation.SanitizeForFormulaInjection(e.Symbol),
			Action:      string(e.Action),
			Price:       e.Price.String(),
			Quantity:    e.Quantity,
			Fees:        e.Fees.String(),
			Multiplier:  e.Multiplier,
			Source:      validation.SanitizeForFormulaInjection(e.Source),
			Fingerprint: e.Fingerprint,
			ImportBatch: e.ImportBatch,
			ImportedAt:  e.ImportedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write executions csv: %w", err)
	}
	logger.FromContext(ctx).Info("Exported executions", "rows", len(rows))
	return nil
}

func (s *exportServiceImpl) ExportTrades(ctx context.Context, w io.Writer, filter models.DateFilter) error {
	trades, err := s.trades.Query(ctx, nil, filter)
	if err != nil {
		return fmt.Errorf("failed to load trades: %w", err)
	}

	rows := make([]*tradeRow, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, &tradeRow{
			TradeDate:   t.TradeDate,
			Symbol:      validation.SanitizeForFormulaInjection(t.Symbol),
			Side:        string(t.Side),
			EntryAction: string(t.EntryAction),
			ExitAction:  string(t.ExitAction),
			EntryTime:   t.EntryTime.UTC().Format(time.RFC3339),
			ExitTime:    t.ExitTime.UTC().Format(time.RFC3339),
			EntryPrice:  t.EntryPrice.String(),
			ExitPrice:   t.ExitPrice.String(),
			Quantity:    t.Quantity,
			Multiplier:  t.Multiplier,
			GrossPnL:    validation.SanitizeForFormulaInjection(t.GrossPnL.String()),
			Fees:        t.Fees.String(),
			PnL:         validation.SanitizeForFormulaInjection(t.PnL.String()),
			Result:      string(t.Result),
			HoldTime:    t.HoldTime.String(),
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write trades csv: %w", err)
	}
	logger.FromContext(ctx).Info("Exported trades", "rows", len(rows), "start", filter.StartDate, "end", filter.EndDate)
	return nil
}

// ExportFileName stamps the export kind with the date, for Content-Disposition.
func ExportFileName(kind string, now time.Time) string {
	return kind + "_" + now.Format("20060102") + ".csv"
}
