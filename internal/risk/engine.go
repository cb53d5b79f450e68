package risk

import (
	"time"

	"execcore/internal/schema"
)

const nanosPerDay = int64(24 * time.Hour)

// Reason explains a denied Decision.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonPositionLimit
	ReasonNotionalOverflow
	ReasonOpenOrders
	ReasonDailyTrades
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonPositionLimit:
		return "POSITION_LIMIT"
	case ReasonNotionalOverflow:
		return "NOTIONAL_OVERFLOW"
	case ReasonOpenOrders:
		return "OPEN_ORDERS"
	case ReasonDailyTrades:
		return "DAILY_TRADES"
	default:
		return "UNKNOWN"
	}
}

// Request is the state snapshot a new order is checked against.
type Request struct {
	Side           schema.Side
	Quantity       schema.Quantity
	Position       schema.Quantity
	ReferencePrice schema.Price
	Equity         schema.Price
	OpenOrders     int
	Now            int64
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Allowed bool
	Reason  Reason
	Code    schema.ErrorCode
	Message string
}

func allow() Decision {
	return Decision{Allowed: true, Code: schema.ErrorCodeOK}
}

func deny(reason Reason, msg string) Decision {
	return Decision{Reason: reason, Code: schema.ErrorCodeRiskLimitExceeded, Message: msg}
}

// Engine evaluates pre-trade limits. It is not safe for concurrent use.
type Engine struct {
	params     Params
	tradeDay   int64
	tradeCount int
}

// NewEngine creates a risk engine with static limits.
func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

func (e *Engine) Params() Params {
	return e.params
}

// Evaluate applies the position, open order and daily trade limits in that order.
func (e *Engine) Evaluate(req Request) Decision {
	next := applySide(req.Position, req.Side, req.Quantity)
	notional, ok := schema.NotionalOf(req.ReferencePrice, next)
	if !ok {
		return deny(ReasonNotionalOverflow, "Position notional overflow")
	}
	limit := float64(req.Equity) * e.params.MaxPositionSize
	if float64(notional) > limit || (req.Equity <= 0 && notional > 0) {
		return deny(ReasonPositionLimit, "Position size limit exceeded")
	}

	if req.OpenOrders >= e.params.MaxOpenOrders {
		return deny(ReasonOpenOrders, "Max open orders exceeded")
	}

	if e.params.MaxDailyTrades > 0 && e.tradesOn(req.Now) >= e.params.MaxDailyTrades {
		return deny(ReasonDailyTrades, "Daily trade limit exceeded")
	}

	return allow()
}

// RecordTrade counts one accepted submission against the UTC day of now.
func (e *Engine) RecordTrade(now int64) {
	day := utcDay(now)
	if day != e.tradeDay {
		e.tradeDay = day
		e.tradeCount = 0
	}
	e.tradeCount++
}

// TradesToday returns the accepted submissions on the UTC day of now.
func (e *Engine) TradesToday(now int64) int {
	return e.tradesOn(now)
}

func (e *Engine) tradesOn(now int64) int {
	if utcDay(now) != e.tradeDay {
		return 0
	}
	return e.tradeCount
}

func utcDay(ts int64) int64 {
	if ts < 0 {
		return (ts - nanosPerDay + 1) / nanosPerDay
	}
	return ts / nanosPerDay
}

func applySide(pos schema.Quantity, side schema.Side, qty schema.Quantity) schema.Quantity {
	if !side.IsAvailable() {
		return pos
	}
	return pos + qty*schema.Quantity(side.Sign())
}

// SetParams swaps the limits in place, keeping the daily trade counter.
func (e *Engine) SetParams(params Params) {
	e.params = params
}
