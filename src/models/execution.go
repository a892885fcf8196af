// backend/src/models/execution.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the normalized brokerage action of a fill.
type Action string

const (
	ActionBuy   Action = "Buy"
	ActionSell  Action = "Sell"
	ActionShort Action = "Short" // sell to open
	ActionCover Action = "Cover" // buy to close
)

// IsBuySide reports whether the fill adds shares to the account (Buy or Cover).
func (a Action) IsBuySide() bool {
	return a == ActionBuy || a == ActionCover
}

// Valid reports whether a is one of the four known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionBuy, ActionSell, ActionShort, ActionCover:
		return true
	}
	return false
}

// RawExecution is one brokerage fill as stored in the append-only ledger.
// Parsers populate everything except Seq, which the ledger assigns on append.
type RawExecution struct {
	Seq         int64           `json:"seq"`          // Ledger insertion order
	TradeDate   time.Time       `json:"trade_date"`   // Calendar date, midnight UTC
	TradeTime   time.Duration   `json:"-"`            // Offset from midnight, valid when HasTime
	HasTime     bool            `json:"has_time"`     // False when the export only carried a date
	Symbol      string          `json:"symbol"`       // Upper-cased ticker or OCC option symbol
	Action      Action          `json:"action"`       // Buy, Sell, Short, Cover
	Price       decimal.Decimal `json:"price"`        // Per share/contract, > 0
	Quantity    int64           `json:"quantity"`     // Unsigned, > 0
	Fees        decimal.Decimal `json:"fees"`         // Commissions and charges for the whole fill
	Multiplier  int64           `json:"multiplier"`   // 100 for option contracts, otherwise 1
	Source      string          `json:"source"`       // Parser that produced the row
	Fingerprint string          `json:"fingerprint"`  // Dedup key, see ComputeFingerprint
	ImportedAt  time.Time       `json:"imported_at"`  // Set by the ledger
	ImportBatch string          `json:"import_batch"` // Import that appended the row
}

// ExecutedAt combines the trade date with the optional time of day.
func (e RawExecution) ExecutedAt() time.Time {
	if !e.HasTime {
		return e.TradeDate
	}
	return e.TradeDate.Add(e.TradeTime)
}

// TimeString returns the time of day as HH:MM:SS, or "" when the fill has none.
func (e RawExecution) TimeString() string {
	if !e.HasTime {
		return ""
	}
	return e.ExecutedAt().Format("15:04:05")
}
