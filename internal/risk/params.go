package risk

import (
	"execcore/pkg/exception"

	"github.com/yanun0323/errors"
)

// Params are the engine-wide risk limits. Fractions are of current equity or of
// entry price, e.g. 0.1 is 10%.
type Params struct {
	MaxPositionSize   float64 `json:"maxPositionSize" yaml:"maxPositionSize"`
	MaxDrawdown       float64 `json:"maxDrawdown" yaml:"maxDrawdown"`
	StopLossPercent   float64 `json:"stopLossPercent" yaml:"stopLossPercent"`
	TakeProfitPercent float64 `json:"takeProfitPercent" yaml:"takeProfitPercent"`
	MaxOpenOrders     int     `json:"maxOpenOrders" yaml:"maxOpenOrders"`
	MaxDailyTrades    int     `json:"maxDailyTrades" yaml:"maxDailyTrades"`
}

// DefaultParams returns the stock limits.
func DefaultParams() Params {
	return Params{
		MaxPositionSize:   0.1,
		MaxDrawdown:       0.05,
		StopLossPercent:   0.02,
		TakeProfitPercent: 0.03,
		MaxOpenOrders:     10,
		MaxDailyTrades:    100,
	}
}

func (p Params) Validate() error {
	if p.MaxPositionSize <= 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "maxPositionSize must be positive").With("value", p.MaxPositionSize)
	}
	if p.MaxDrawdown < 0 || p.MaxDrawdown > 1 {
		return errors.Wrap(exception.ErrConfigInvalid, "maxDrawdown must be within [0, 1]").With("value", p.MaxDrawdown)
	}
	if p.StopLossPercent < 0 || p.TakeProfitPercent < 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "exit percentages must not be negative")
	}
	if p.MaxOpenOrders <= 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "maxOpenOrders must be positive").With("value", p.MaxOpenOrders)
	}
	if p.MaxDailyTrades < 0 {
		return errors.Wrap(exception.ErrConfigInvalid, "maxDailyTrades must not be negative").With("value", p.MaxDailyTrades)
	}
	return nil
}
