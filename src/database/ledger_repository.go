// backend/src/database/ledger_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/utils"
)

var ErrMissingFingerprint = errors.New("execution has no fingerprint")

// AppendResult reports which candidates made it into the ledger.
type AppendResult struct {
	Imported          []models.RawExecution
	DuplicatesSkipped int
}

// LedgerRepository is the append-only store of raw executions. Rows are never updated
// or deleted; the fingerprint column is unique.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Append inserts the candidates whose fingerprint is not in the ledger yet. Repeats inside
// the batch count as duplicates too. Run it inside a transaction to make the append
// all-or-nothing.
func (r *LedgerRepository) Append(ctx context.Context, q Querier, candidates []models.RawExecution, batchID string, importedAt time.Time) (*AppendResult, error) {
	result := &AppendResult{Imported: []models.RawExecution{}}
	if len(candidates) == 0 {
		return result, nil
	}

	seen := make(map[string]bool, len(candidates))
	importedAt = importedAt.UTC()

	for _, e := range candidates {
		if e.Fingerprint == "" {
			return nil, fmt.Errorf("%w: %s %s", ErrMissingFingerprint, e.Symbol, utils.FormatDate(e.TradeDate))
		}
		if seen[e.Fingerprint] {
			result.DuplicatesSkipped++
			continue
		}
		seen[e.Fingerprint] = true

		res, err := q.ExecContext(ctx, `INSERT INTO executions
			(fingerprint, trade_date, trade_time, symbol, action, price, quantity, fees, multiplier, source, import_batch, imported_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Fingerprint, utils.FormatDate(e.TradeDate), nullableTime(e), e.Symbol, string(e.Action),
			e.Price.String(), e.Quantity, e.Fees.String(), e.Multiplier, e.Source, batchID, importedAt.Format(time.RFC3339))
		if err != nil {
			if isUniqueViolation(err) {
				logger.L.Debug("Skipping duplicate execution on import", "fingerprint", e.Fingerprint, "symbol", e.Symbol)
				result.DuplicatesSkipped++
				continue
			}
			return nil, fmt.Errorf("error inserting execution (%s %s): %w", e.Symbol, e.Fingerprint, err)
		}

		seq, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("error reading ledger sequence: %w", err)
		}
		e.Seq = seq
		e.ImportBatch = batchID
		e.ImportedAt = importedAt
		result.Imported = append(result.Imported, e)
	}
	return result, nil
}

// All returns the whole ledger in insertion order.
func (r *LedgerRepository) All(ctx context.Context, q Querier) ([]models.RawExecution, error) {
	if q == nil {
		q = r.db
	}
	rows, err := q.QueryContext(ctx, `SELECT seq, fingerprint, trade_date, trade_time, symbol, action, price, quantity, fees, multiplier, source, import_batch, imported_at
		FROM executions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("error querying executions: %w", err)
	}
	defer rows.Close()

	executions := []models.RawExecution{}
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return executions, nil
}

// Count returns the number of executions in the ledger.
func (r *LedgerRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM executions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting executions: %w", err)
	}
	return n, nil
}

func scanExecution(rows *sql.Rows) (models.RawExecution, error) {
	var (
		e                                        models.RawExecution
		tradeDate, action, price, fees, imported string
		tradeTime                                sql.NullString
	)
	if err := rows.Scan(&e.Seq, &e.Fingerprint, &tradeDate, &tradeTime, &e.Symbol, &action, &price,
		&e.Quantity, &fees, &e.Multiplier, &e.Source, &e.ImportBatch, &imported); err != nil {
		return e, fmt.Errorf("error scanning execution: %w", err)
	}

	var err error
	if e.TradeDate, err = utils.ParseDate(tradeDate); err != nil {
		return e, fmt.Errorf("execution %d: %w", e.Seq, err)
	}
	if tradeTime.Valid && tradeTime.String != "" {
		clock, err := time.Parse("15:04:05", tradeTime.String)
		if err != nil {
			return e, fmt.Errorf("execution %d: invalid trade time %q", e.Seq, tradeTime.String)
		}
		e.HasTime = true
		e.TradeTime = time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute + time.Duration(clock.Second())*time.Second
	}
	e.Action = models.Action(action)
	if e.Price, err = decimal.NewFromString(price); err != nil {
		return e, fmt.Errorf("execution %d: invalid price %q", e.Seq, price)
	}
	if e.Fees, err = decimal.NewFromString(fees); err != nil {
		return e, fmt.Errorf("execution %d: invalid fees %q", e.Seq, fees)
	}
	if t, err := time.Parse(time.RFC3339, imported); err == nil {
		e.ImportedAt = t
	}
	return e, nil
}

func nullableTime(e models.RawExecution) any {
	if !e.HasTime {
		return nil
	}
	return e.TimeString()
}
