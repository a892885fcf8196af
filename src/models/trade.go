// backend/src/models/trade.go
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideLong  Side = "Long"
	SideShort Side = "Short"
)

type Result string

const (
	ResultWin     Result = "Win"
	ResultLose    Result = "Lose"
	ResultScratch Result = "Scratch"
)

// HoldTime is a trade duration serialized as HH:MM:SS (hours may exceed 24).
type HoldTime time.Duration

func (h HoldTime) Duration() time.Duration { return time.Duration(h) }

func (h HoldTime) String() string {
	total := int64(time.Duration(h) / time.Second)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func (h HoldTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *HoldTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHoldTime(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHoldTime parses the HH:MM:SS form produced by HoldTime.String.
func ParseHoldTime(s string) (HoldTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid hold time %q", s)
	}
	var secs int64
	for i, unit := range []int64{3600, 60, 1} {
		n, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid hold time %q", s)
		}
		secs += n * unit
	}
	return HoldTime(time.Duration(secs) * time.Second), nil
}

// MatchedTrade is one round trip reconstructed by the matcher. It is fully derived from
// the ledger and replaced on every import.
type MatchedTrade struct {
	ID                int64           `json:"id,omitempty"`
	TradeDate         string          `json:"trade_date"` // Exit date, YYYY-MM-DD
	Symbol            string          `json:"symbol"`
	Side              Side            `json:"side"`
	EntryAction       Action          `json:"entry_action"`
	ExitAction        Action          `json:"exit_action"`
	EntryTime         time.Time       `json:"entry_time"`
	ExitTime          time.Time       `json:"exit_time"`
	EntryPrice        decimal.Decimal `json:"entry_price"` // Quantity-weighted across merged lots
	ExitPrice         decimal.Decimal `json:"exit_price"`
	Quantity          int64           `json:"quantity"`
	Multiplier        int64           `json:"multiplier"`
	GrossPnL          decimal.Decimal `json:"gross_pnl"`
	Fees              decimal.Decimal `json:"fees"`
	PnL               decimal.Decimal `json:"pnl"` // GrossPnL - Fees
	Result            Result          `json:"result"`
	HoldTime          HoldTime        `json:"hold_time"`
	EntryHour         int             `json:"entry_hour"`
	ExitHour          int             `json:"exit_hour"`
	EntryFingerprints []string        `json:"entry_fingerprints"`
	ExitFingerprint   string          `json:"exit_fingerprint"`
	ExitSeq           int64           `json:"-"`
}

// OpenPosition is the unmatched remainder of an opening fill.
type OpenPosition struct {
	Symbol      string          `json:"symbol"`
	Side        Side            `json:"side"`
	OpenedAt    time.Time       `json:"opened_at"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`          // Remaining, unmatched
	OriginalQty int64           `json:"original_quantity"` // Quantity of the opening lot
	Fingerprint string          `json:"fingerprint"`
}

// Orphan records a closing fill (or part of one) that found no opposite open lot.
type Orphan struct {
	Symbol         string    `json:"symbol"`
	Action         Action    `json:"action"`
	ExecutedAt     time.Time `json:"executed_at"`
	Quantity       int64     `json:"quantity"`
	Fingerprint    string    `json:"fingerprint"`
	CarriedForward bool      `json:"carried_forward"` // True when the remainder was kept as an open position
}

// MatchResult is the full output of one matching pass.
type MatchResult struct {
	Trades        []MatchedTrade `json:"trades"`
	OpenPositions []OpenPosition `json:"open_positions"`
	Orphans       []Orphan       `json:"orphans"`
}

// DateFilter bounds queries by trade (exit) date, inclusive on both sides.
type DateFilter struct {
	StartDate string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"end_date,omitempty"`
}

// Contains reports whether the YYYY-MM-DD date lies inside the filter.
func (f DateFilter) Contains(date string) bool {
	if f.StartDate != "" && date < f.StartDate {
		return false
	}
	if f.EndDate != "" && date > f.EndDate {
		return false
	}
	return true
}
