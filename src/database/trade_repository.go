// backend/src/database/trade_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/models"
)

// TradeRepository holds the derived matched_trades table. It is rebuilt from the ledger
// on every import, so the only write is a full Replace.
type TradeRepository struct {
	db *sql.DB
}

func NewTradeRepository(db *sql.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// Replace swaps the stored trades for the given set.
func (r *TradeRepository) Replace(ctx context.Context, q Querier, trades []models.MatchedTrade) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM matched_trades`); err != nil {
		return fmt.Errorf("error clearing matched trades: %w", err)
	}

	const insert = `INSERT INTO matched_trades
		(trade_date, symbol, side, entry_action, exit_action, entry_time, exit_time, entry_price, exit_price,
		 quantity, multiplier, gross_pnl, fees, pnl, result, hold_seconds, entry_hour, exit_hour,
		 entry_fingerprints, exit_fingerprint, exit_seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	exec := func(args ...any) error {
		_, err := q.ExecContext(ctx, insert, args...)
		return err
	}
	if tx, ok := q.(*sql.Tx); ok {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return fmt.Errorf("error preparing trade insert statement: %w", err)
		}
		defer stmt.Close()
		exec = func(args ...any) error {
			_, err := stmt.ExecContext(ctx, args...)
			return err
		}
	}

	for _, t := range trades {
		err := exec(
			t.TradeDate, t.Symbol, string(t.Side), string(t.EntryAction), string(t.ExitAction),
			formatTimestamp(t.EntryTime), formatTimestamp(t.ExitTime), t.EntryPrice.String(), t.ExitPrice.String(),
			t.Quantity, t.Multiplier, t.GrossPnL.String(), t.Fees.String(), t.PnL.String(), string(t.Result),
			int64(t.HoldTime.Duration()/time.Second), t.EntryHour, t.ExitHour,
			strings.Join(t.EntryFingerprints, ","), t.ExitFingerprint, t.ExitSeq,
		)
		if err != nil {
			return fmt.Errorf("error inserting matched trade (%s %s): %w", t.Symbol, t.TradeDate, err)
		}
	}
	return nil
}

// Query returns the stored trades inside the filter, ordered by exit.
func (r *TradeRepository) Query(ctx context.Context, q Querier, filter models.DateFilter) ([]models.MatchedTrade, error) {
	if q == nil {
		q = r.db
	}
	query := `SELECT id, trade_date, symbol, side, entry_action, exit_action, entry_time, exit_time, entry_price, exit_price,
		quantity, multiplier, gross_pnl, fees, pnl, result, hold_seconds, entry_hour, exit_hour,
		entry_fingerprints, exit_fingerprint, exit_seq
		FROM matched_trades`
	var (
		conds []string
		args  []any
	)
	if filter.StartDate != "" {
		conds = append(conds, "trade_date >= ?")
		args = append(args, filter.StartDate)
	}
	if filter.EndDate != "" {
		conds = append(conds, "trade_date <= ?")
		args = append(args, filter.EndDate)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY exit_time, symbol, exit_seq, id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying matched trades: %w", err)
	}
	defer rows.Close()

	trades := []models.MatchedTrade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matched trades: %w", err)
	}
	return trades, nil
}

func scanTrade(rows *sql.Rows) (models.MatchedTrade, error) {
	var (
		t                                       models.MatchedTrade
		side, entryAction, exitAction, result   string
		entryTime, exitTime                     string
		entryPrice, exitPrice, gross, fees, pnl string
		holdSeconds                             int64
		entryFingerprints                       string
	)
	if err := rows.Scan(&t.ID, &t.TradeDate, &t.Symbol, &side, &entryAction, &exitAction, &entryTime, &exitTime,
		&entryPrice, &exitPrice, &t.Quantity, &t.Multiplier, &gross, &fees, &pnl, &result, &holdSeconds,
		&t.EntryHour, &t.ExitHour, &entryFingerprints, &t.ExitFingerprint, &t.ExitSeq); err != nil {
		return t, fmt.Errorf("error scanning matched trade: %w", err)
	}

	t.Side = models.Side(side)
	t.EntryAction = models.Action(entryAction)
	t.ExitAction = models.Action(exitAction)
	t.Result = models.Result(result)
	t.HoldTime = models.HoldTime(time.Duration(holdSeconds) * time.Second)
	t.EntryFingerprints = []string{}
	if entryFingerprints != "" {
		t.EntryFingerprints = strings.Split(entryFingerprints, ",")
	}

	var err error
	if t.EntryTime, err = time.Parse(time.RFC3339, entryTime); err != nil {
		return t, fmt.Errorf("trade %d: invalid entry time %q", t.ID, entryTime)
	}
	if t.ExitTime, err = time.Parse(time.RFC3339, exitTime); err != nil {
		return t, fmt.Errorf("trade %d: invalid exit time %q", t.ID, exitTime)
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{{&t.EntryPrice, entryPrice}, {&t.ExitPrice, exitPrice}, {&t.GrossPnL, gross}, {&t.Fees, fees}, {&t.PnL, pnl}} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return t, fmt.Errorf("trade %d: invalid decimal %q", t.ID, f.src)
		}
	}
	return t, nil
}

// Timestamps are stored in UTC so lexical order in sqlite matches time order.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
