package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestConverter() *Converter {
	return NewConverter([]string{"元", "人民币", "¥", "￥", "RMB", "CNY"})
}

func TestSourceCurrencySniffing(t *testing.T) {
	c := newTestConverter()
	require.Equal(t, CNY, c.SourceCurrency("元/吨"))
	require.Equal(t, CNY, c.SourceCurrency("万元/吨"))
	require.Equal(t, CNY, c.SourceCurrency("￥/千克"))
	require.Equal(t, CNY, c.SourceCurrency("RMB/t"))
	require.Equal(t, USD, c.SourceCurrency("USD/oz"))
	require.Equal(t, USD, c.SourceCurrency(""))
}

func TestSameCurrencyIsNoOp(t *testing.T) {
	c := newTestConverter()
	rate := decimal.RequireFromString("7.2")
	price := decimal.NewFromInt(70000)
	require.True(t, c.Convert(price, "元/吨", CNY, rate).Equal(price))
	require.True(t, c.Convert(price, "USD/oz", USD, rate).Equal(price))
}

func TestCrossCurrencyConvertsExactlyOnce(t *testing.T) {
	c := newTestConverter()
	rate := decimal.RequireFromString("7.2")

	usd := decimal.NewFromInt(2000)
	require.True(t, c.Convert(usd, "USD/oz", CNY, rate).Equal(decimal.NewFromInt(14400)))

	cny := decimal.NewFromInt(14400)
	require.True(t, c.Convert(cny, "元/吨", USD, rate).Equal(decimal.NewFromInt(2000)))
}

func TestZeroRateLeavesPriceUnconverted(t *testing.T) {
	c := newTestConverter()
	price := decimal.NewFromInt(2000)
	require.True(t, c.Convert(price, "USD/oz", CNY, decimal.Zero).Equal(price))
}

func TestFormatTieredPrecision(t *testing.T) {
	c := newTestConverter()
	rate := decimal.RequireFromString("7.2")
	// Already CNY, unconverted, large magnitude drops decimals.
	require.Equal(t, "70001", c.Format(decimal.RequireFromString("70000.6"), "元/吨", CNY, rate))
	// USD converted to CNY.
	require.Equal(t, "14400", c.Format(decimal.NewFromInt(2000), "USD/oz", CNY, rate))
	// Sub-unit prices keep more digits.
	require.Equal(t, "0.8500", c.Format(decimal.RequireFromString("0.85"), "元/立方米", CNY, rate))
}

func TestParseCurrency(t *testing.T) {
	require.Equal(t, USD, ParseCurrency("usd"))
	require.Equal(t, CNY, ParseCurrency("CNY"))
	require.Equal(t, CNY, ParseCurrency(""))
	require.Equal(t, CNY, ParseCurrency("eur"))
}
