package degiro

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/csvutil"
)

const statement = `Data,Hora,Data Valor,Produto,ISIN,Descrição,Taxa de Câmbio,Variação,,Saldo,,ID da Ordem
02-01-2024,15:31,02-01-2024,APPLE INC,US0378331005,"Compra 10 APPLE INC@185,5 USD",,USD,"-1855,00",USD,"100,00",ord-1
02-01-2024,15:31,02-01-2024,APPLE INC,US0378331005,Comissões de transação DEGIRO e/ou taxas de terceiros,,EUR,"-2,00",EUR,"98,00",ord-1
03-01-2024,09:05,03-01-2024,APPLE INC,US0378331005,"Venda 10 APPLE INC@190,25 USD",,USD,"1902,50",USD,"2000,50",ord-2
04-01-2024,10:00,04-01-2024,APPLE INC,US0378331005,Dividendo,,USD,"2,40",USD,"2002,90",
05-01-2024,10:00,05-01-2024,APPLE INC,US0378331005,"Compra 1,5 APPLE INC@190 USD",,USD,"-285,00",USD,"1717,90",ord-3
`

func TestParse_Statement(t *testing.T) {
	table, err := csvutil.ReadCSV(strings.NewReader(statement))
	require.NoError(t, err)
	require.True(t, MatchesHeaders(table.Headers))

	res, err := NewParser().Parse(table, models.ColumnMapping{})

	require.NoError(t, err)
	require.Len(t, res.Executions, 2)
	assert.Equal(t, 2, res.RowsSkipped, "commission and dividend lines")
	assert.Equal(t, 1, res.RowsFailed, "fractional quantity")

	buy := res.Executions[0]
	assert.Equal(t, models.ActionBuy, buy.Action)
	assert.Equal(t, "APPLE INC", buy.Symbol)
	assert.Equal(t, int64(10), buy.Quantity)
	assert.Equal(t, "185.5", buy.Price.String())
	assert.Equal(t, "2", buy.Fees.String())
	assert.Equal(t, "2024-01-02", buy.TradeDate.Format("2006-01-02"))
	assert.Equal(t, 15*time.Hour+31*time.Minute, buy.TradeTime)
	assert.Equal(t, int64(1), buy.Multiplier)
	assert.Equal(t, SourceName, buy.Source)

	sell := res.Executions[1]
	assert.Equal(t, models.ActionSell, sell.Action)
	assert.Equal(t, "190.25", sell.Price.String())
	assert.True(t, sell.Fees.IsZero())
}

func TestParse_TooFewColumns(t *testing.T) {
	table, err := csvutil.ReadCSV(strings.NewReader("Date,Symbol\n2024-01-02,AAPL\n"))
	require.NoError(t, err)

	_, err = NewParser().Parse(table, models.ColumnMapping{})

	var mErr *csvutil.MappingError
	assert.ErrorAs(t, err, &mErr)
	assert.False(t, MatchesHeaders(table.Headers))
}

func TestEuropeanNumber(t *testing.T) {
	assert.Equal(t, "1234.5", europeanNumber("1.234,5", false))
	assert.Equal(t, "150.25", europeanNumber("150.25", false))
	assert.Equal(t, "1000", europeanNumber("1.000", true))
	assert.Equal(t, "-2.00", europeanNumber("-2,00", false))
}
