package stats

import (
	"math"
	"math/rand/v2"
	"testing"

	"execcore/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int, seed uint64) []float64 {
	r := rand.New(rand.NewPCG(seed, seed+1))
	data := make([]float64, n)
	for i := range data {
		data[i] = 100 + r.NormFloat64()*5
	}
	return data
}

func referenceSum(data []float64) float64 {
	var s float64
	for _, v := range data {
		s += v
	}
	return s
}

func referenceVariance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	m := referenceSum(data) / float64(len(data))
	var acc float64
	for _, v := range data {
		acc += (v - m) * (v - m)
	}
	return acc / float64(len(data)-1)
}

func TestSmallInputsMatchScalarExactly(t *testing.T) {
	for n := 0; n < VectorThreshold; n++ {
		data := series(n, uint64(n))
		assert.Equal(t, referenceSum(data), Sum(data), "n=%d", n)
		assert.Equal(t, referenceVariance(data), Variance(data), "n=%d", n)
	}
}

func TestLargeInputsWithinTolerance(t *testing.T) {
	for _, n := range []int{16, 17, 19, 64, 1001} {
		data := series(n, 42)
		assert.InEpsilon(t, referenceSum(data), Sum(data), 1e-12, "n=%d", n)
		assert.InEpsilon(t, referenceVariance(data), Variance(data), 1e-9, "n=%d", n)
		assert.InEpsilon(t, math.Sqrt(referenceVariance(data)), StdDev(data), 1e-9, "n=%d", n)
	}
}

func TestMeanVarianceEdges(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Zero(t, Variance([]float64{3}))
	assert.Zero(t, StdDev(nil))
	assert.Equal(t, 2.5, Mean([]float64{1, 2, 3, 4}))
	assert.InDelta(t, 5.0/3.0, Variance([]float64{1, 2, 3, 4}), 1e-15)
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax(nil)
	assert.Zero(t, lo)
	assert.Zero(t, hi)

	for _, n := range []int{1, 5, 16, 33, 100} {
		data := series(n, 7)
		wantLo, wantHi := data[0], data[0]
		for _, v := range data {
			wantLo = math.Min(wantLo, v)
			wantHi = math.Max(wantHi, v)
		}
		lo, hi := MinMax(data)
		assert.Equal(t, wantLo, lo, "n=%d", n)
		assert.Equal(t, wantHi, hi, "n=%d", n)
	}
}

func TestReturns(t *testing.T) {
	out := make([]float64, 8)
	n := Returns([]float64{100, 110, 99}, out)
	require.Equal(t, 2, n)
	assert.InDelta(t, 0.1, out[0], 1e-15)
	assert.InDelta(t, -0.1, out[1], 1e-15)

	assert.Zero(t, Returns([]float64{1}, out))
	assert.Equal(t, 1, Returns([]float64{1, 2, 3}, out[:1]), "bounded by out")
}

func TestSharpe(t *testing.T) {
	returns := []float64{0.01, 0.02, -0.01, 0.03}
	want := Mean(returns) / StdDev(returns) * math.Sqrt(252)
	assert.InDelta(t, want, SharpeDefault(returns), 1e-12)
	assert.InDelta(t, 11.6190, SharpeDefault(returns), 1e-3)

	withRf := (Mean(returns) - 0.05/252) / StdDev(returns) * math.Sqrt(252)
	assert.InDelta(t, withRf, Sharpe(returns, 0.05, 252), 1e-12)

	assert.Zero(t, SharpeDefault([]float64{0.01}))
	assert.Zero(t, SharpeDefault([]float64{0.5, 0.5, 0.5}), "zero deviation")
}

func TestMaxDrawdown(t *testing.T) {
	assert.InDelta(t, 0.25, MaxDrawdown([]float64{100, 120, 90, 130, 117}), 1e-15)
	assert.Zero(t, MaxDrawdown([]float64{1, 2, 3}))
	assert.Zero(t, MaxDrawdown([]float64{5}))
	assert.Zero(t, MaxDrawdown([]float64{0, 0, -1}), "non-positive peak")
}

func TestLevels(t *testing.T) {
	levels := make([]schema.PriceLevel, 25)
	var want schema.Quantity
	for i := range levels {
		levels[i] = schema.PriceLevel{
			Price:    schema.PriceFromFloat(1 + float64(i)/100),
			Quantity: schema.QuantityFromFloat(float64(i + 1)),
		}
		want += levels[i].Quantity
	}

	assert.Equal(t, want, TotalLiquidity(levels))
	assert.Equal(t, levels[0].Quantity+levels[1].Quantity, TotalLiquidity(levels[:2]))
	assert.Zero(t, TotalLiquidity(nil))

	two := []schema.PriceLevel{
		{Price: schema.PriceFromFloat(10), Quantity: schema.QuantityFromFloat(1)},
		{Price: schema.PriceFromFloat(20), Quantity: schema.QuantityFromFloat(3)},
	}
	assert.InDelta(t, 17.5, VWAP(two), 1e-12)
	assert.Zero(t, VWAP(nil))
}

func BenchmarkSum(b *testing.B) {
	data := series(4096, 1)
	for b.Loop() {
		_ = Sum(data)
	}
}

func BenchmarkVariance(b *testing.B) {
	data := series(4096, 1)
	for b.Loop() {
		_ = Variance(data)
	}
}
