package stats

import "execcore/internal/schema"

// TotalLiquidity sums level quantities exactly.
func TotalLiquidity(levels []schema.PriceLevel) schema.Quantity {
	if len(levels) < VectorThreshold {
		var total schema.Quantity
		for i := range levels {
			total += levels[i].Quantity
		}
		return total
	}

	var q0, q1, q2, q3 schema.Quantity
	i := 0
	for ; i+4 <= len(levels); i += 4 {
		q0 += levels[i].Quantity
		q1 += levels[i+1].Quantity
		q2 += levels[i+2].Quantity
		q3 += levels[i+3].Quantity
	}
	total := q0 + q1 + q2 + q3
	for ; i < len(levels); i++ {
		total += levels[i].Quantity
	}
	return total
}

// VWAP is the quantity weighted price of levels in decimal units, 0 when empty.
func VWAP(levels []schema.PriceLevel) float64 {
	var weighted float64
	var qty schema.Quantity
	for i := range levels {
		weighted += levels[i].Price.Float64() * levels[i].Quantity.Float64()
		qty += levels[i].Quantity
	}
	if qty <= 0 {
		return 0
	}
	return weighted / qty.Float64()
}
