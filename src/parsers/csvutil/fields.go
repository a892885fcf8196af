// backend/src/parsers/csvutil/fields.go
package csvutil

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradejournal/backend/src/models"
)

// Layouts carrying a time of day. Tried in order.
var dateTimeLayouts = []string{
	"Jan-02-2006 3:04:05 PM",
	"Jan-2-2006 3:04:05 PM",
	"01/02/2006 3:04:05 PM",
	"1/2/2006 3:04:05 PM",
	"01/02/2006 3:04 PM",
	"1/2/2006 3:04 PM",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

var dateLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"Jan 2, 2006",
	"Jan-02-2006",
	"Jan-2-2006",
	"02-Jan-2006",
	"01/02/06",
	"1/2/06",
}

var timeLayouts = []string{
	"3:04:05 PM",
	"3:04:05PM",
	"3:04 PM",
	"3:04PM",
	"15:04:05",
	"15:04",
}

// Exchange time zone suffixes some brokers append to times ("3:31:36 PM ET").
var timeZoneSuffix = regexp.MustCompile(`(?i)\s+(ET|EST|EDT|CT|CST|CDT|PT|PST|PDT|UTC|GMT)$`)

// ParseDateTime parses a date cell that may also carry a time of day. The returned date is
// midnight UTC; the time of day is wall clock as printed by the broker.
func ParseDateTime(s string) (date time.Time, timeOfDay time.Duration, hasTime bool, err error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, 0, false, fmt.Errorf("empty date")
	}

	// "3:31:36 PM ET Dec-18-2025"
	if idx := strings.Index(strings.ToUpper(s), " ET "); idx > 0 {
		tod, tErr := ParseTimeOfDay(s[:idx])
		d, _, _, dErr := ParseDateTime(s[idx+len(" ET "):])
		if tErr == nil && dErr == nil {
			return d, tod, true, nil
		}
		return time.Time{}, 0, false, fmt.Errorf("unrecognized date/time %q", s)
	}

	for _, layout := range dateTimeLayouts {
		if t, pErr := time.Parse(layout, s); pErr == nil {
			d, tod := SplitDateTime(t)
			return d, tod, true, nil
		}
	}
	for _, layout := range dateLayouts {
		if t, pErr := time.Parse(layout, s); pErr == nil {
			d, _ := SplitDateTime(t)
			return d, 0, false, nil
		}
	}
	return time.Time{}, 0, false, fmt.Errorf("unrecognized date %q", s)
}

// ParseTimeOfDay parses a time-only cell into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	s = strings.TrimSpace(timeZoneSuffix.ReplaceAllString(strings.TrimSpace(s), ""))
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return clock(t), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q", s)
}

// SplitDateTime separates a timestamp into its calendar date (midnight UTC) and wall clock.
func SplitDateTime(t time.Time) (time.Time, time.Duration) {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), clock(t)
}

func clock(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}

var priceCleaner = strings.NewReplacer("$", "", ",", "", " ", "")

// ParsePrice accepts plain numbers, currency formatting and status text such as
// "Filled at $1,234.50". The result must be positive.
func ParsePrice(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	if idx := strings.Index(strings.ToLower(raw), "filled at"); idx >= 0 {
		rest := strings.TrimSpace(raw[idx+len("filled at"):])
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return decimal.Zero, fmt.Errorf("no price in %q", s)
		}
		raw = strings.TrimRight(fields[0], ",;")
	}
	cleaned := priceCleaner.Replace(raw)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty price")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("price must be positive, got %q", s)
	}
	return d, nil
}

// ParseQuantity returns the signed quantity of a fill. Accounting negatives "(5)" are
// supported. The magnitude must be a non-zero whole number.
func ParseQuantity(s string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", "+", "").Replace(strings.TrimSpace(s))
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.Trim(cleaned, "()")
	}
	if cleaned == "" {
		return 0, fmt.Errorf("empty quantity")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", s)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("quantity must be a whole number, got %q", s)
	}
	if d.IsZero() {
		return 0, fmt.Errorf("quantity must be non-zero")
	}
	q := d.IntPart()
	if negative {
		q = -q
	}
	return q, nil
}

// ParseFees returns the absolute fee amount. Empty and placeholder cells are zero.
func ParseFees(s string) (decimal.Decimal, error) {
	cleaned := strings.Trim(priceCleaner.Replace(strings.TrimSpace(s)), "()")
	switch strings.ToLower(cleaned) {
	case "", "-", "--", "n/a", "na":
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid fees %q", s)
	}
	return d.Abs(), nil
}

// NormalizeAction maps broker action text to an Action. More specific phrases are checked
// first so "Buy to Close" becomes Cover rather than Buy. An empty cell falls back to the
// quantity sign.
func NormalizeAction(cell string, signedQty int64) (models.Action, error) {
	a := strings.ToLower(strings.TrimSpace(cell))
	switch {
	case a == "":
		if signedQty < 0 {
			return models.ActionSell, nil
		}
		return models.ActionBuy, nil
	case strings.Contains(a, "cover") || strings.Contains(a, "buy to close"):
		return models.ActionCover, nil
	case strings.Contains(a, "short") || strings.Contains(a, "sell to open"):
		return models.ActionShort, nil
	case strings.Contains(a, "buy") || strings.Contains(a, "bought") || strings.Contains(a, "opening"):
		return models.ActionBuy, nil
	case strings.Contains(a, "sell") || strings.Contains(a, "sold") || strings.Contains(a, "closing"):
		return models.ActionSell, nil
	}
	return "", fmt.Errorf("unrecognized action %q", cell)
}

var (
	optionSymbolExact = regexp.MustCompile(`^[A-Z]+\d+[PC]\d+(\.\d+)?$`)
	optionSymbolInner = regexp.MustCompile(`[A-Z]+\d{6}[PC]\d+(\.\d+)?`)
	plainTicker       = regexp.MustCompile(`^[A-Z]{1,5}([./][A-Z])?$`)
)

// ExtractSymbol cleans a symbol cell: "-SPY251219P670" and "SPY251219P670 Put" become the OCC
// symbol, "AAPL Apple Inc" becomes "AAPL".
func ExtractSymbol(s string) string {
	symbol := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(strings.ToUpper(s)), "-"))
	if symbol == "" {
		return ""
	}
	if optionSymbolExact.MatchString(symbol) {
		return symbol
	}
	if m := optionSymbolInner.FindString(symbol); m != "" {
		return m
	}
	if parts := strings.Fields(symbol); len(parts) > 0 {
		base := strings.Trim(parts[0], "-")
		if plainTicker.MatchString(base) {
			return base
		}
	}
	return symbol
}
