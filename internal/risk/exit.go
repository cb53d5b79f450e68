package risk

import "execcore/internal/schema"

// Exit is a bitmask of triggered exit conditions.
type Exit uint8

const (
	ExitNone       Exit = 0
	ExitTakeProfit Exit = 1
	ExitStopLoss   Exit = 2
	ExitBoth       Exit = ExitTakeProfit | ExitStopLoss
)

func (e Exit) String() string {
	switch e {
	case ExitNone:
		return "NONE"
	case ExitTakeProfit:
		return "TAKE_PROFIT"
	case ExitStopLoss:
		return "STOP_LOSS"
	case ExitBoth:
		return "BOTH"
	default:
		return "UNKNOWN"
	}
}

// CheckExit compares the position's return at last against the stop-loss and
// take-profit fractions of entry. A zero fraction disables that side.
func CheckExit(pos schema.Position, last schema.Price, params Params) Exit {
	if pos.IsFlat() || pos.AvgEntryPrice <= 0 || last <= 0 {
		return ExitNone
	}

	move := (last - pos.AvgEntryPrice).Float64() / pos.AvgEntryPrice.Float64()
	if pos.IsShort() {
		move = -move
	}

	var exit Exit
	if params.StopLossPercent > 0 && move <= -params.StopLossPercent {
		exit |= ExitStopLoss
	}
	if params.TakeProfitPercent > 0 && move >= params.TakeProfitPercent {
		exit |= ExitTakeProfit
	}
	return exit
}

// Drawdown is the fractional decline of equity from peak, 0 when peak is not positive.
func Drawdown(peak, equity schema.Price) float64 {
	if peak <= 0 || equity >= peak {
		return 0
	}
	return float64(peak-equity) / float64(peak)
}
