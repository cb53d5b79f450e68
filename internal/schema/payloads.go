package schema

import (
	"math"
	"math/bits"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

const (
	// PriceScale is the number of price units per 1.0 (micro-units).
	PriceScale int64 = 1_000_000
	// QuantityScale is the number of quantity units per 1.0 (nano-units).
	QuantityScale int64 = 1_000_000_000

	priceExp    int32 = 6
	quantityExp int32 = 9
)

// Price is a signed integer scaled by PriceScale.
type Price int64

// Quantity is a signed integer scaled by QuantityScale.
type Quantity int64

// Notional is a monetary amount in price units.
type Notional int64

// PriceFromFloat converts a decimal double into price units, rounding to the nearest unit.
func PriceFromFloat(v float64) Price {
	return Price(math.Round(v * float64(PriceScale)))
}

// Float64 converts the price back to a decimal double.
func (p Price) Float64() float64 {
	return float64(p) / float64(PriceScale)
}

// String renders the exact decimal value.
func (p Price) String() string {
	return decimal.New(int64(p), -priceExp).String()
}

// ParsePrice parses a decimal string exactly, truncating digits below one price unit.
func ParsePrice(s string) (Price, error) {
	v, err := parseScaled(s, priceExp)
	if err != nil {
		return 0, errors.Wrapf(err, "parse price %q", s)
	}
	return Price(v), nil
}

// QuantityFromFloat converts a decimal double into quantity units, rounding to the nearest unit.
func QuantityFromFloat(v float64) Quantity {
	return Quantity(math.Round(v * float64(QuantityScale)))
}

// Float64 converts the quantity back to a decimal double.
func (q Quantity) Float64() float64 {
	return float64(q) / float64(QuantityScale)
}

// String renders the exact decimal value.
func (q Quantity) String() string {
	return decimal.New(int64(q), -quantityExp).String()
}

// Abs returns the magnitude of q.
func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// ParseQuantity parses a decimal string exactly, truncating digits below one quantity unit.
func ParseQuantity(s string) (Quantity, error) {
	v, err := parseScaled(s, quantityExp)
	if err != nil {
		return 0, errors.Wrapf(err, "parse quantity %q", s)
	}
	return Quantity(v), nil
}

// Float64 converts the notional to a decimal double.
func (n Notional) Float64() float64 {
	return float64(n) / float64(PriceScale)
}

func parseScaled(s string, exp int32) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	scaled := d.Shift(exp).Truncate(0)
	if !scaled.BigInt().IsInt64() {
		return 0, errors.New("value out of range")
	}
	return scaled.IntPart(), nil
}

// NotionalOf returns |qty| * price in price units.
func NotionalOf(price Price, qty Quantity) (Notional, bool) {
	v, ok := MulDiv(int64(price), int64(qty.Abs()), QuantityScale)
	return Notional(v), ok
}

// MulDiv computes a*b/c with a 128-bit intermediate, truncating toward zero.
// The boolean is false when c is zero or the result does not fit in int64.
func MulDiv(a, b, c int64) (int64, bool) {
	if c == 0 {
		return 0, false
	}
	neg := (a < 0) != (b < 0) != (c < 0)
	ua, ub, uc := absU64(a), absU64(b), absU64(c)

	hi, lo := bits.Mul64(ua, ub)
	if hi >= uc {
		return 0, false
	}
	quo, _ := bits.Div64(hi, lo, uc)
	if neg {
		if quo > 1<<63 {
			return 0, false
		}
		return -int64(quo), true
	}
	if quo > math.MaxInt64 {
		return 0, false
	}
	return int64(quo), true
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}
