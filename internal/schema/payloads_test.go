package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceRoundTrip(t *testing.T) {
	values := []float64{0, 0.3201, 1, 1.5, 42.123456, 65000.25, -0.000001, -1234.567891, 999999.999999}
	for _, v := range values {
		p := PriceFromFloat(v)
		back := PriceFromFloat(p.Float64())
		assert.Equal(t, p, back, "value %v", v)
		assert.InDelta(t, v, p.Float64(), 1.0/float64(PriceScale), "value %v", v)
	}
}

func TestQuantityRoundTrip(t *testing.T) {
	values := []float64{0, 1, 5000, 0.000000001, 3.25, 123456.789, -2000}
	for _, v := range values {
		q := QuantityFromFloat(v)
		assert.InDelta(t, v, q.Float64(), 1.0/float64(QuantityScale)+math.Abs(v)*1e-15, "value %v", v)
	}
}

func TestParseAndString(t *testing.T) {
	p, err := ParsePrice("0.3201")
	require.NoError(t, err)
	assert.Equal(t, Price(320100), p)
	assert.Equal(t, "0.3201", p.String())

	p, err = ParsePrice("1000000")
	require.NoError(t, err)
	assert.Equal(t, Price(1_000_000*PriceScale), p)

	p, err = ParsePrice("0.0000019")
	require.NoError(t, err)
	assert.Equal(t, Price(1), p, "digits below one unit are truncated")

	q, err := ParseQuantity("5000")
	require.NoError(t, err)
	assert.Equal(t, Quantity(5000*QuantityScale), q)
	assert.Equal(t, "5000", q.String())

	_, err = ParsePrice("abc")
	assert.Error(t, err)

	_, err = ParseQuantity("100000000000")
	assert.Error(t, err, "overflows int64 nano units")
}

func TestMulDiv(t *testing.T) {
	testCases := []struct {
		desc    string
		a, b, c int64
		want    int64
		ok      bool
	}{
		{"simple", 6, 7, 2, 21, true},
		{"truncates", 10, 1, 3, 3, true},
		{"negative truncates toward zero", -10, 1, 3, -3, true},
		{"negative divisor", 10, 10, -4, -25, true},
		{"wide intermediate", 320100, 5000 * QuantityScale, QuantityScale, 1_600_500_000, true},
		{"full range", math.MaxInt64, 2, 2, math.MaxInt64, true},
		{"min int", math.MinInt64, 1, 1, math.MinInt64, true},
		{"overflow", math.MaxInt64, 4, 2, 0, false},
		{"zero divisor", 1, 1, 0, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, ok := MulDiv(tc.a, tc.b, tc.c)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestSymbol(t *testing.T) {
	s := NewSymbol("DOGE/USDT")
	assert.Equal(t, "DOGE/USDT", s.String())
	assert.Equal(t, 9, s.Len())
	assert.False(t, s.IsZero())
	assert.Equal(t, s, NewSymbol("DOGE/USDT"))
	assert.NotEqual(t, s, NewSymbol("DOGE/USDC"))

	long := NewSymbol("ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	assert.Equal(t, "ABCDEFGHIJKLMNO", long.String())
	assert.Equal(t, byte(0), long[SymbolCap-1])

	assert.True(t, Symbol{}.IsZero())
}

func TestPositionMarkToMarket(t *testing.T) {
	pos := Position{
		Quantity:      -2 * Quantity(QuantityScale),
		AvgEntryPrice: PriceFromFloat(100),
	}
	assert.Equal(t, PriceFromFloat(20), pos.MarkToMarket(PriceFromFloat(90)))
	assert.Equal(t, Notional(200*PriceScale), pos.Notional())
}

func TestStr64(t *testing.T) {
	assert.Equal(t, "Order filled", NewStr64("Order filled").String())
	long := NewStr64(string(make([]byte, 100)))
	assert.Equal(t, "", long.String())
}

func TestSideHelpers(t *testing.T) {
	assert.Equal(t, SideSell, SideBuy.Opposite())
	assert.Equal(t, SideBuy, SideSell.Opposite())
	assert.Equal(t, int64(1), SideBuy.Sign())
	assert.Equal(t, int64(-1), SideSell.Sign())
}
