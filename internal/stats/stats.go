// Package stats provides allocation-free statistics kernels over float64 series
// and book ladders.
//
// Inputs of at least VectorThreshold elements are folded with four independent
// accumulators so the loop body has no carried dependency between lanes; shorter
// inputs take the plain scalar loop and match it bit for bit.
package stats

import "math"

// VectorThreshold is the smallest input length that takes the unrolled path.
const VectorThreshold = 16

// DefaultPeriodsPerYear annualizes daily returns.
const DefaultPeriodsPerYear = 252.0

// Sum returns the sum of data.
func Sum(data []float64) float64 {
	if len(data) < VectorThreshold {
		return sumScalar(data)
	}

	var s0, s1, s2, s3 float64
	i := 0
	for ; i+4 <= len(data); i += 4 {
		s0 += data[i]
		s1 += data[i+1]
		s2 += data[i+2]
		s3 += data[i+3]
	}
	s := (s0 + s1) + (s2 + s3)
	for ; i < len(data); i++ {
		s += data[i]
	}
	return s
}

func sumScalar(data []float64) float64 {
	var s float64
	for _, v := range data {
		s += v
	}
	return s
}

// Mean returns 0 for empty input.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return Sum(data) / float64(len(data))
}

// Variance is the sample variance (n-1 denominator), 0 when len(data) < 2.
func Variance(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}
	m := Mean(data)

	if n < VectorThreshold {
		var acc float64
		for _, v := range data {
			d := v - m
			acc += d * d
		}
		return acc / float64(n-1)
	}

	var a0, a1, a2, a3 float64
	i := 0
	for ; i+4 <= n; i += 4 {
		d0 := data[i] - m
		d1 := data[i+1] - m
		d2 := data[i+2] - m
		d3 := data[i+3] - m
		a0 += d0 * d0
		a1 += d1 * d1
		a2 += d2 * d2
		a3 += d3 * d3
	}
	acc := (a0 + a1) + (a2 + a3)
	for ; i < n; i++ {
		d := data[i] - m
		acc += d * d
	}
	return acc / float64(n-1)
}

func StdDev(data []float64) float64 {
	return math.Sqrt(Variance(data))
}

// MinMax returns the smallest and largest element, or (0, 0) for empty input.
func MinMax(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi = data[0], data[0]
	if len(data) < VectorThreshold {
		for _, v := range data[1:] {
			lo = min(lo, v)
			hi = max(hi, v)
		}
		return lo, hi
	}

	l0, l1, l2, l3 := lo, lo, lo, lo
	h0, h1, h2, h3 := hi, hi, hi, hi
	i := 0
	for ; i+4 <= len(data); i += 4 {
		l0, h0 = min(l0, data[i]), max(h0, data[i])
		l1, h1 = min(l1, data[i+1]), max(h1, data[i+1])
		l2, h2 = min(l2, data[i+2]), max(h2, data[i+2])
		l3, h3 = min(l3, data[i+3]), max(h3, data[i+3])
	}
	lo, hi = min(l0, l1, l2, l3), max(h0, h1, h2, h3)
	for ; i < len(data); i++ {
		lo = min(lo, data[i])
		hi = max(hi, data[i])
	}
	return lo, hi
}

// Returns writes simple returns (p[i+1]-p[i])/p[i] into out and reports how many
// were written, bounded by len(out).
func Returns(prices, out []float64) int {
	if len(prices) < 2 {
		return 0
	}
	n := min(len(prices)-1, len(out))
	for i := 0; i < n; i++ {
		out[i] = (prices[i+1] - prices[i]) / prices[i]
	}
	return n
}

// Sharpe is (mean - riskFree/periods) / stddev * sqrt(periods).
// It returns 0 for fewer than two returns or zero deviation.
func Sharpe(returns []float64, riskFree, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}
	sd := StdDev(returns)
	if sd == 0 {
		return 0
	}
	return (Mean(returns) - riskFree/periodsPerYear) / sd * math.Sqrt(periodsPerYear)
}

// SharpeDefault annualizes with DefaultPeriodsPerYear and no risk-free rate.
func SharpeDefault(returns []float64) float64 {
	return Sharpe(returns, 0, DefaultPeriodsPerYear)
}

// MaxDrawdown is the largest peak-to-trough decline as a fraction of the peak.
// Points under a non-positive peak are skipped.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}
	peak := equity[0]
	var dd float64
	for _, v := range equity[1:] {
		peak = max(peak, v)
		if peak <= 0 {
			continue
		}
		dd = max(dd, (peak-v)/peak)
	}
	return dd
}
