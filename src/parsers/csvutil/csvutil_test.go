package csvutil

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/models"
)

func TestReadCSV_StripsBOMAndBlankLines(t *testing.T) {
	data := "\xEF\xBB\xBFDate,Symbol,Price\n\n2024-01-02,AAPL,10\n  \n,,\n2024-01-03,MSFT,20\n"

	table, err := ReadCSV(strings.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Symbol", "Price"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "MSFT", table.Rows[1][1])
	assert.Equal(t, 0, table.Index("Date"))
	assert.Equal(t, 1, table.Index("symbol"))
	assert.Equal(t, -1, table.Index("Qty"))
	assert.Equal(t, "", Cell(table.Rows[0], 7))
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("\n\n"))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestValidateMapping(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("Date,Symbol,Price,Qty\n"))
	require.NoError(t, err)

	ok := models.ColumnMapping{Date: "Date", Symbol: "Symbol", Price: "Price", Quantity: "Qty", Action: "none"}
	assert.NoError(t, table.ValidateMapping(ok))

	missing := models.ColumnMapping{Date: "Date", Symbol: "Symbol", Price: "Price"}
	err = table.ValidateMapping(missing)
	var mErr *MappingError
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, []string{models.FieldQuantity}, mErr.Missing)

	unknown := models.ColumnMapping{Date: "Date", Symbol: "Ticker", Price: "Price", Quantity: "Qty", Fees: "Commission"}
	err = table.ValidateMapping(unknown)
	require.True(t, errors.As(err, &mErr))
	assert.Equal(t, "Ticker", mErr.UnknownHeaders[models.FieldSymbol])
	assert.Equal(t, "Commission", mErr.UnknownHeaders[models.FieldFees])
	assert.Contains(t, err.Error(), "not found in file")
}

func TestParseDateTime(t *testing.T) {
	cases := []struct {
		in      string
		date    string
		tod     time.Duration
		hasTime bool
	}{
		{"Dec-18-2025 3:31:36 PM", "2025-12-18", 15*time.Hour + 31*time.Minute + 36*time.Second, true},
		{"3:31:36 PM ET Dec-18-2025", "2025-12-18", 15*time.Hour + 31*time.Minute + 36*time.Second, true},
		{"12/18/2025 9:05:00 AM", "2025-12-18", 9*time.Hour + 5*time.Minute, true},
		{"12/18/2025 14:00:00", "2025-12-18", 14 * time.Hour, true},
		{"2025-12-18 10:00:01", "2025-12-18", 10*time.Hour + time.Second, true},
		{"2025-12-18T10:00:00", "2025-12-18", 10 * time.Hour, true},
		{"12/18/2025", "2025-12-18", 0, false},
		{"2025-12-18", "2025-12-18", 0, false},
		{"Dec 18, 2025", "2025-12-18", 0, false},
		{"1/5/2025", "2025-01-05", 0, false},
	}
	for _, tc := range cases {
		d, tod, hasTime, err := ParseDateTime(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.date, d.Format("2006-01-02"), tc.in)
		assert.Equal(t, tc.tod, tod, tc.in)
		assert.Equal(t, tc.hasTime, hasTime, tc.in)
	}

	_, _, _, err := ParseDateTime("yesterday")
	assert.Error(t, err)
	_, _, _, err = ParseDateTime("")
	assert.Error(t, err)
}

func TestParseTimeOfDay(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"3:31:36 PM":    15*time.Hour + 31*time.Minute + 36*time.Second,
		"3:31:36 pm ET": 15*time.Hour + 31*time.Minute + 36*time.Second,
		"9:30 AM":       9*time.Hour + 30*time.Minute,
		"09:30:15":      9*time.Hour + 30*time.Minute + 15*time.Second,
		"16:00":         16 * time.Hour,
	} {
		got, err := ParseTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTimeOfDay("noon")
	assert.Error(t, err)
}

func TestParsePrice(t *testing.T) {
	for in, want := range map[string]string{
		"10.50":                         "10.5",
		"$1,234.56":                     "1234.56",
		"Filled at $2.35":               "2.35",
		"Filled at $1,020.10, 10:31 AM": "1020.1",
	} {
		got, err := ParsePrice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
	for _, bad := range []string{"", "abc", "0", "-5", "Filled at"} {
		_, err := ParsePrice(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseQuantity(t *testing.T) {
	for in, want := range map[string]int64{"100": 100, "-50": -50, "1,000": 1000, "(25)": -25, "+3": 3, "10.0": 10} {
		got, err := ParseQuantity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "0", "1.5", "ten"} {
		_, err := ParseQuantity(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFees(t *testing.T) {
	for in, want := range map[string]string{"": "0", "--": "0", "$0.65": "0.65", "-1.30": "1.3", "(2)": "2"} {
		got, err := ParseFees(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
	_, err := ParseFees("free")
	assert.Error(t, err)
}

func TestNormalizeAction(t *testing.T) {
	cases := []struct {
		cell string
		qty  int64
		want models.Action
	}{
		{"Buy", 10, models.ActionBuy},
		{"YOU BOUGHT", 10, models.ActionBuy},
		{"Buy to Open", 1, models.ActionBuy},
		{"Buy to Close", 1, models.ActionCover},
		{"Buy to Cover", 1, models.ActionCover},
		{"Sell", 10, models.ActionSell},
		{"YOU SOLD", -10, models.ActionSell},
		{"Sell to Close", 1, models.ActionSell},
		{"Sell to Open", 1, models.ActionShort},
		{"Sell Short", 1, models.ActionShort},
		{"", -5, models.ActionSell},
		{"", 5, models.ActionBuy},
	}
	for _, tc := range cases {
		got, err := NormalizeAction(tc.cell, tc.qty)
		require.NoError(t, err, tc.cell)
		assert.Equal(t, tc.want, got, tc.cell)
	}

	_, err := NormalizeAction("Dividend", 5)
	assert.Error(t, err)
}

func TestExtractSymbol(t *testing.T) {
	for in, want := range map[string]string{
		" aapl ":                   "AAPL",
		"-SPY251219P670":           "SPY251219P670",
		"SPY251219P670 Put":        "SPY251219P670",
		"Bought SPY251219C680.5":   "SPY251219C680.5",
		"TSLA Tesla Inc":           "TSLA",
		"BRK.B":                    "BRK.B",
		"":                         "",
	} {
		assert.Equal(t, want, ExtractSymbol(in), in)
	}
}
