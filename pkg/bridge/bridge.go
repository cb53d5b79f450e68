// Package bridge is the flat call surface for a foreign runtime. It owns one
// process-wide engine, takes decimal doubles and plain strings, and never
// panics: every failure, including calls before Init, becomes a zero value.
package bridge

import (
	"sync"
	"time"

	"execcore/internal/book"
	"execcore/internal/execution"
	"execcore/internal/schema"
	"execcore/internal/stats"

	"github.com/yanun0323/logs"
)

const version = "1.0.0"

var (
	mu     sync.RWMutex
	engine *execution.Engine
)

// Init creates the global engine with default settings. It returns 0 on success
// (including when already initialized) and -1 on failure.
func Init() int {
	return InitWith(execution.DefaultConfig())
}

// InitWith is Init with an explicit engine configuration.
func InitWith(cfg execution.Config) (code int) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("bridge: init panic: %v", r)
			code = -1
		}
	}()

	mu.Lock()
	defer mu.Unlock()
	if engine != nil {
		return 0
	}
	e, err := execution.New(cfg)
	if err != nil {
		logs.Errorf("bridge: init engine, err: %+v", err)
		return -1
	}
	engine = e
	return 0
}

// Shutdown drops the global engine. All state is lost.
func Shutdown() {
	mu.Lock()
	engine = nil
	mu.Unlock()
}

func Version() string {
	return version
}

// Observe registers fn for every engine event. It returns false before Init.
func Observe(fn func(schema.Event)) bool {
	return call(false, func(e *execution.Engine) bool {
		if fn == nil {
			return false
		}
		e.RegisterCallback(execution.ObserverFunc(fn))
		return true
	})
}

func call[T any](fallback T, fn func(*execution.Engine) T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("bridge: recovered panic: %v", r)
			out = fallback
		}
	}()

	mu.RLock()
	e := engine
	mu.RUnlock()
	if e == nil {
		return fallback
	}
	return fn(e)
}

func pure(fn func() float64) (out float64) {
	defer func() {
		if r := recover(); r != nil {
			logs.Errorf("bridge: recovered panic: %v", r)
			out = 0
		}
	}()
	return fn()
}

// UpdateOrderBook replaces the cached book of symbol. Each side takes
// min(len(prices), len(sizes)) levels, at most book.MaxLevels.
func UpdateOrderBook(symbol string, bidPrices, bidSizes, askPrices, askSizes []float64) {
	call(false, func(e *execution.Engine) bool {
		var bids, asks [book.MaxLevels]schema.PriceLevel
		nb := toLevels(bids[:], bidPrices, bidSizes)
		na := toLevels(asks[:], askPrices, askSizes)

		sym := schema.NewSymbol(symbol)
		b := book.New(sym)
		b.UpdateSnapshot(bids[:nb], asks[:na], 0, time.Now().UnixNano())
		e.UpdateOrderBook(sym, b)
		return true
	})
}

func toLevels(dst []schema.PriceLevel, prices, sizes []float64) int {
	n := min(len(prices), len(sizes), len(dst))
	for i := 0; i < n; i++ {
		dst[i] = schema.PriceLevel{
			Price:    schema.PriceFromFloat(prices[i]),
			Quantity: schema.QuantityFromFloat(sizes[i]),
		}
	}
	return n
}

func MidPrice(symbol string) float64 {
	return call(0.0, func(e *execution.Engine) float64 {
		return e.MidPrice(schema.NewSymbol(symbol)).Float64()
	})
}

func SpreadPercent(symbol string) float64 {
	return call(0.0, func(e *execution.Engine) float64 {
		return e.SpreadPercent(schema.NewSymbol(symbol))
	})
}

func Imbalance(symbol string, levels int) float64 {
	return call(0.0, func(e *execution.Engine) float64 {
		return e.Imbalance(schema.NewSymbol(symbol), levels)
	})
}

// Liquidity sums the first levels of one side: side 0 bids, 1 asks.
func Liquidity(symbol string, side, levels int) float64 {
	return call(0.0, func(e *execution.Engine) float64 {
		if side < 0 || side > 1 {
			return 0
		}
		return e.Liquidity(schema.NewSymbol(symbol), schema.Side(side), levels).Float64()
	})
}

// VWAP is the volume weighted price of the first levels of one side: side 0
// bids, 1 asks.
func VWAP(symbol string, side, levels int) float64 {
	return call(0.0, func(e *execution.Engine) float64 {
		if side < 0 || side > 1 {
			return 0
		}
		return e.VWAP(schema.NewSymbol(symbol), schema.Side(side), levels)
	})
}

// SubmitOrder places an order. side is 0 buy / 1 sell, typ 0 market / 1 limit.
// It returns the order id, or 0 when rejected.
func SubmitOrder(symbol string, side, typ int, qty, price float64) uint64 {
	return call(uint64(0), func(e *execution.Engine) uint64 {
		if side < 0 || side > 255 || typ < 0 || typ > 255 {
			return 0
		}
		return e.SubmitOrder(execution.OrderRequest{
			Symbol:   schema.NewSymbol(symbol),
			Side:     schema.Side(side),
			Type:     schema.OrderType(typ),
			Quantity: schema.QuantityFromFloat(qty),
			Price:    schema.PriceFromFloat(price),
		})
	})
}

// CancelOrder returns 1 when the order was cancelled.
func CancelOrder(id uint64) int {
	return call(0, func(e *execution.Engine) int {
		return boolInt(e.CancelOrder(id))
	})
}

func CancelAllOrders(symbol string) int {
	return call(0, func(e *execution.Engine) int {
		return e.CancelAllOrders(schema.NewSymbol(symbol))
	})
}

// ClosePosition returns 1 when an offsetting order was executed.
func ClosePosition(symbol string) int {
	return call(0, func(e *execution.Engine) int {
		return boolInt(e.ClosePosition(schema.NewSymbol(symbol)))
	})
}

func CloseAllPositions() int {
	return call(0, func(e *execution.Engine) int {
		return e.CloseAllPositions()
	})
}

// GetPosition returns quantity, average entry price and realized P&L of symbol.
// ok is 0 when there is no open position.
func GetPosition(symbol string) (qty, entry, pnl float64, ok int) {
	type result struct {
		qty, entry, pnl float64
		ok              int
	}
	r := call(result{}, func(e *execution.Engine) result {
		pos, found := e.Position(schema.NewSymbol(symbol))
		if !found {
			return result{}
		}
		return result{
			qty:   pos.Quantity.Float64(),
			entry: pos.AvgEntryPrice.Float64(),
			pnl:   pos.RealizedPnL.Float64(),
			ok:    1,
		}
	})
	return r.qty, r.entry, r.pnl, r.ok
}

func GetEquity() float64 {
	return call(0.0, func(e *execution.Engine) float64 {
		return e.Equity().Float64()
	})
}

func SetEquity(equity float64) {
	call(false, func(e *execution.Engine) bool {
		e.SetEquity(schema.PriceFromFloat(equity))
		return true
	})
}

func Mean(data []float64) float64 {
	return pure(func() float64 { return stats.Mean(data) })
}

func StdDev(data []float64) float64 {
	return pure(func() float64 { return stats.StdDev(data) })
}

// Sharpe annualizes with 252 periods per year.
func Sharpe(returns []float64, riskFree float64) float64 {
	return pure(func() float64 { return stats.Sharpe(returns, riskFree, stats.DefaultPeriodsPerYear) })
}

func MaxDrawdown(equity []float64) float64 {
	return pure(func() float64 { return stats.MaxDrawdown(equity) })
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
