package fidelity

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/csvutil"
)

const ordersExport = `Symbol,Action,Status,Amount,Order Time,Account
-SPY251219P670,Buy,"Filled at $2.35",2,9:45:01 AM ET Dec-18-2025,Z123
-SPY251219P670,Sell,"Filled at $2.80",2,3:31:36 PM ET Dec-18-2025,Z123
AAPL,Buy,"Verified Canceled",10,10:00:00 AM ET Dec-18-2025,Z123
AAPL,Buy,Open,10,10:05:00 AM ET Dec-18-2025,Z123
MSFT,Sell,"Filled at $410.00",5,bad time,Z123
`

func TestParse_OrdersExport(t *testing.T) {
	table, err := csvutil.ReadCSV(strings.NewReader(ordersExport))
	require.NoError(t, err)

	res, err := NewParser().Parse(table, models.ColumnMapping{})

	require.NoError(t, err)
	require.Len(t, res.Executions, 2)
	assert.Equal(t, 2, res.RowsSkipped)
	assert.Equal(t, 1, res.RowsFailed)

	buy := res.Executions[0]
	assert.Equal(t, "SPY251219P670", buy.Symbol)
	assert.Equal(t, models.ActionBuy, buy.Action)
	assert.Equal(t, "2.35", buy.Price.String())
	assert.Equal(t, int64(2), buy.Quantity)
	assert.Equal(t, int64(100), buy.Multiplier)
	assert.Equal(t, "2025-12-18 09:45:01", buy.ExecutedAt().Format("2006-01-02 15:04:05"))
	assert.Equal(t, SourceName, buy.Source)
}

func TestParse_MissingHeaders(t *testing.T) {
	table, err := csvutil.ReadCSV(strings.NewReader("Symbol,Action,Amount\nAAPL,Buy,1\n"))
	require.NoError(t, err)

	_, err = NewParser().Parse(table, models.ColumnMapping{})

	var mErr *csvutil.MappingError
	require.True(t, errors.As(err, &mErr))
	assert.Contains(t, mErr.UnknownHeaders, "status")
	assert.Contains(t, mErr.UnknownHeaders, "order time")
}

func TestMatchesHeaders(t *testing.T) {
	assert.True(t, MatchesHeaders([]string{"symbol", "Action", "Status", "Amount", "Order Time"}))
	assert.False(t, MatchesHeaders([]string{"Date", "Symbol", "Price"}))
}
