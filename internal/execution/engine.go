// Package execution owns order submission, risk gating, simulated fills and
// position bookkeeping, and reports every transition as an event.
package execution

import (
	"sync"
	"sync/atomic"
	"time"

	"execcore/internal/book"
	"execcore/internal/obs"
	"execcore/internal/og"
	"execcore/internal/risk"
	"execcore/internal/schema"
	"execcore/internal/state"

	"github.com/yanun0323/errors"
)

// DefaultPoolCapacity bounds the number of live orders.
const DefaultPoolCapacity = 10_000

// DefaultInitialEquity is 1,000,000.00.
var DefaultInitialEquity = schema.PriceFromFloat(1_000_000)

// fallbackPrice prices orders and risk checks for symbols without a cached book.
var fallbackPrice = schema.PriceFromFloat(1)

// Config controls engine construction.
type Config struct {
	Risk          risk.Params
	PoolCapacity  int
	InitialEquity schema.Price
	Metrics       *obs.Metrics
	Clock         func() int64
}

// DefaultConfig returns the stock engine settings.
func DefaultConfig() Config {
	return Config{
		Risk:          risk.DefaultParams(),
		PoolCapacity:  DefaultPoolCapacity,
		InitialEquity: DefaultInitialEquity,
	}
}

// OrderRequest is a new order as submitted by a strategy.
type OrderRequest struct {
	Symbol      schema.Symbol
	Side        schema.Side
	Type        schema.OrderType
	Quantity    schema.Quantity
	Price       schema.Price
	StopPrice   schema.Price
	TimeInForce schema.TimeInForce
}

// Engine is safe for concurrent use. Orders, positions and risk state share
// one mutex; the book cache has its own RW mutex; equity is atomic.
type Engine struct {
	mu        sync.Mutex
	orders    *og.Table
	positions *state.Table
	risk      *risk.Engine
	peak      schema.Price

	booksMu sync.RWMutex
	books   map[schema.Symbol]*book.Book

	equity atomic.Int64

	observersMu sync.RWMutex
	observers   []Observer

	metrics *obs.Metrics
	clock   func() int64
}

// New validates cfg and builds an engine with its order pool fully allocated.
func New(cfg Config) (*Engine, error) {
	if cfg.PoolCapacity <= 0 {
		cfg.PoolCapacity = DefaultPoolCapacity
	}
	if cfg.InitialEquity == 0 {
		cfg.InitialEquity = DefaultInitialEquity
	}
	if cfg.Clock == nil {
		cfg.Clock = func() int64 { return time.Now().UnixNano() }
	}
	if err := cfg.Risk.Validate(); err != nil {
		return nil, errors.Wrap(err, "risk params")
	}

	orders, err := og.NewTable(cfg.PoolCapacity)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		orders:    orders,
		positions: state.NewTable(),
		risk:      risk.NewEngine(cfg.Risk),
		peak:      cfg.InitialEquity,
		books:     make(map[schema.Symbol]*book.Book),
		metrics:   cfg.Metrics,
		clock:     cfg.Clock,
	}
	e.equity.Store(int64(cfg.InitialEquity))
	return e, nil
}

// RegisterCallback appends an observer. Observers are called in registration order.
func (e *Engine) RegisterCallback(o Observer) {
	if o == nil {
		return
	}
	e.observersMu.Lock()
	e.observers = append(e.observers, o)
	e.observersMu.Unlock()
}

func (e *Engine) dispatch(evs *eventBuf) {
	if evs.len() == 0 {
		return
	}
	e.observersMu.RLock()
	observers := e.observers
	e.observersMu.RUnlock()

	evs.each(func(ev schema.Event) {
		e.metrics.ObserveEvent(ev)
		for _, o := range observers {
			o.OnEvent(ev)
		}
	})
}

// SubmitOrder validates, risk checks and records a new order. Market orders
// fill immediately. It returns the order id, or 0 when the order was rejected.
func (e *Engine) SubmitOrder(req OrderRequest) uint64 {
	start := time.Now()
	var evs eventBuf

	e.mu.Lock()
	id := e.submitLocked(req, &evs)
	e.mu.Unlock()

	e.dispatch(&evs)
	e.metrics.ObserveSubmit(time.Since(start))
	return id
}

func (e *Engine) submitLocked(req OrderRequest, evs *eventBuf) uint64 {
	now := e.clock()
	reject := func(code schema.ErrorCode, msg string) uint64 {
		evs.add(newEvent(schema.EventOrderRejected, code, 0, req.Symbol, req.Price, req.Quantity, now, msg))
		return 0
	}

	if code, msg := validate(req); code != schema.ErrorCodeOK {
		return reject(code, msg)
	}

	decision := e.risk.Evaluate(risk.Request{
		Side:           req.Side,
		Quantity:       req.Quantity,
		Position:       e.positions.Quantity(req.Symbol),
		ReferencePrice: e.referencePrice(req.Symbol),
		Equity:         e.Equity(),
		OpenOrders:     e.orders.Count(),
		Now:            now,
	})
	if !decision.Allowed {
		return reject(decision.Code, decision.Message)
	}

	o, err := e.orders.Create(schema.Order{
		Symbol:      req.Symbol,
		Side:        req.Side,
		Type:        req.Type,
		TimeInForce: req.TimeInForce,
		Price:       req.Price,
		StopPrice:   req.StopPrice,
		Quantity:    req.Quantity,
	}, now)
	if err != nil {
		return reject(schema.ErrorCodeInternalError, "Order pool exhausted")
	}
	id := o.ID

	var fillPrice schema.Price
	if req.Type == schema.OrderTypeMarket {
		fillPrice = req.Price
		if fillPrice == 0 {
			fillPrice = e.executionPrice(req.Symbol, req.Side, req.Quantity)
		}
		if fillPrice <= 0 {
			e.orders.Release(id)
			return reject(schema.ErrorCodeInvalidPrice, "No liquidity to price market order")
		}
	}

	e.risk.RecordTrade(now)
	evs.add(newEvent(schema.EventOrderSubmitted, schema.ErrorCodeOK, id, req.Symbol, req.Price, req.Quantity, now, "Order submitted"))

	if req.Type != schema.OrderTypeMarket {
		if _, err := e.orders.Open(id, now); err == nil {
			evs.add(newEvent(schema.EventOrderAccepted, schema.ErrorCodeOK, id, req.Symbol, req.Price, req.Quantity, now, "Order accepted"))
		}
		return id
	}

	e.fillLocked(id, req.Symbol, req.Side, req.Quantity, fillPrice, now, evs)
	return id
}

func validate(req OrderRequest) (schema.ErrorCode, string) {
	switch {
	case req.Symbol.IsZero():
		return schema.ErrorCodeInvalidSymbol, "Invalid symbol"
	case req.Quantity <= 0:
		return schema.ErrorCodeInvalidQuantity, "Quantity must be positive"
	case !req.Side.IsAvailable():
		return schema.ErrorCodeInvalidQuantity, "Unknown side"
	case !req.Type.IsAvailable():
		return schema.ErrorCodeInvalidPrice, "Unknown order type"
	case req.Price < 0 || req.StopPrice < 0:
		return schema.ErrorCodeInvalidPrice, "Price must not be negative"
	case req.Type.NeedsPrice() && req.Price == 0:
		return schema.ErrorCodeInvalidPrice, "Limit price required"
	case req.Type.NeedsStopPrice() && req.StopPrice == 0:
		return schema.ErrorCodeInvalidPrice, "Stop price required"
	}
	return schema.ErrorCodeOK, ""
}

// fillLocked books a full fill: position first, then the order.
func (e *Engine) fillLocked(id uint64, symbol schema.Symbol, side schema.Side, qty schema.Quantity, price schema.Price, now int64, evs *eventBuf) {
	if _, err := e.orders.Fill(id, qty, now); err != nil {
		return
	}

	_, tr := e.positions.ApplyFill(symbol, side, qty, price, now)
	evs.add(newEvent(tr.EventType(), schema.ErrorCodeOK, id, symbol, price, qty, now, transitionMessage(tr)))

	evs.add(newEvent(schema.EventOrderFilled, schema.ErrorCodeOK, id, symbol, price, qty, now, "Order filled"))
	e.orders.Release(id)
}

func transitionMessage(tr state.Transition) string {
	switch tr {
	case state.TransitionOpened:
		return "Position opened"
	case state.TransitionClosed:
		return "Position closed"
	default:
		return "Position updated"
	}
}

// CancelOrder cancels an active order and frees its slot.
func (e *Engine) CancelOrder(id uint64) bool {
	var evs eventBuf
	e.mu.Lock()
	ok := e.cancelLocked(id, &evs)
	e.mu.Unlock()

	e.dispatch(&evs)
	return ok
}

// CancelAllOrders cancels every active order for symbol and returns how many were cancelled.
func (e *Engine) CancelAllOrders(symbol schema.Symbol) int {
	var evs eventBuf
	count := 0

	e.mu.Lock()
	for _, id := range e.orders.ActiveIDs(symbol) {
		if e.cancelLocked(id, &evs) {
			count++
		}
	}
	e.mu.Unlock()

	e.dispatch(&evs)
	return count
}

func (e *Engine) cancelLocked(id uint64, evs *eventBuf) bool {
	now := e.clock()
	o, err := e.orders.Cancel(id, now)
	if err != nil {
		return false
	}
	evs.add(newEvent(schema.EventOrderCancelled, schema.ErrorCodeOK, id, o.Symbol, o.Price, o.Remaining(), now, "Order cancelled"))
	return true
}

// ClosePosition flattens symbol with an offsetting market order. It reports
// whether the closing order was accepted; false when already flat. The position
// is read and closed under one lock, so concurrent closes cannot both fire.
func (e *Engine) ClosePosition(symbol schema.Symbol) bool {
	var evs eventBuf
	e.mu.Lock()
	ok := e.closeLocked(symbol, &evs)
	e.mu.Unlock()

	e.dispatch(&evs)
	return ok
}

// CloseAllPositions closes every live position and returns how many were closed.
func (e *Engine) CloseAllPositions() int {
	var evs eventBuf
	count := 0

	e.mu.Lock()
	for _, pos := range e.positions.Positions() {
		if e.closeLocked(pos.Symbol, &evs) {
			count++
		}
	}
	e.mu.Unlock()

	e.dispatch(&evs)
	return count
}

func (e *Engine) closeLocked(symbol schema.Symbol, evs *eventBuf) bool {
	pos, ok := e.positions.Position(symbol)
	if !ok || pos.IsFlat() {
		return false
	}
	held := schema.SideBuy
	if pos.IsShort() {
		held = schema.SideSell
	}
	return e.submitLocked(OrderRequest{
		Symbol:   symbol,
		Side:     held.Opposite(),
		Type:     schema.OrderTypeMarket,
		Quantity: pos.Quantity.Abs(),
	}, evs) != 0
}

// UpdateOrderBook replaces the cached book for symbol.
func (e *Engine) UpdateOrderBook(symbol schema.Symbol, b book.Book) {
	b.Symbol = symbol
	e.booksMu.Lock()
	if cur, ok := e.books[symbol]; ok {
		*cur = b
	} else {
		e.books[symbol] = &b
	}
	e.booksMu.Unlock()
}

// UpdateTopOfBook writes a tick into level 0 of the cached book, creating it if needed.
func (e *Engine) UpdateTopOfBook(tick schema.MarketTick) {
	e.booksMu.Lock()
	b, ok := e.books[tick.Symbol]
	if !ok {
		nb := book.New(tick.Symbol)
		b = &nb
		e.books[tick.Symbol] = b
	}
	if tick.Bid > 0 {
		b.UpdateBid(0, tick.Bid, tick.BidSize)
	}
	if tick.Ask > 0 {
		b.UpdateAsk(0, tick.Ask, tick.AskSize)
	}
	b.SetSequence(tick.Sequence, tick.Timestamp)
	e.booksMu.Unlock()
}

// OrderBook returns a copy of the cached book.
func (e *Engine) OrderBook(symbol schema.Symbol) (book.Book, bool) {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	b, ok := e.books[symbol]
	if !ok {
		return book.Book{}, false
	}
	return *b, true
}

// MidPrice returns the cached mid, 0 without a book.
func (e *Engine) MidPrice(symbol schema.Symbol) schema.Price {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	if b, ok := e.books[symbol]; ok {
		return b.Mid()
	}
	return 0
}

func (e *Engine) SpreadPercent(symbol schema.Symbol) float64 {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	if b, ok := e.books[symbol]; ok {
		return b.SpreadPercent()
	}
	return 0
}

func (e *Engine) Imbalance(symbol schema.Symbol, levels int) float64 {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	if b, ok := e.books[symbol]; ok {
		return b.Imbalance(levels)
	}
	return 0
}

// Liquidity sums the first levels of one side of the cached book, bids for
// SideBuy and asks for SideSell.
func (e *Engine) Liquidity(symbol schema.Symbol, side schema.Side, levels int) schema.Quantity {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	b, ok := e.books[symbol]
	if !ok {
		return 0
	}
	if side == schema.SideSell {
		return b.TotalAskLiquidity(levels)
	}
	return b.TotalBidLiquidity(levels)
}

// VWAP is the volume weighted price over the first levels of one side of the
// cached book, 0 without a book.
func (e *Engine) VWAP(symbol schema.Symbol, side schema.Side, levels int) float64 {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	if b, ok := e.books[symbol]; ok {
		return b.VWAP(side, levels)
	}
	return 0
}

func (e *Engine) referencePrice(symbol schema.Symbol) schema.Price {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	if b, ok := e.books[symbol]; ok {
		return b.Mid()
	}
	return fallbackPrice
}

func (e *Engine) executionPrice(symbol schema.Symbol, side schema.Side, qty schema.Quantity) schema.Price {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	if b, ok := e.books[symbol]; ok {
		return b.ExecutionPrice(side, qty)
	}
	return fallbackPrice
}

// Position returns the live position for symbol marked at the cached mid.
func (e *Engine) Position(symbol schema.Symbol) (schema.Position, bool) {
	mid := e.MidPrice(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.positions.Mark(symbol, mid)
	return e.positions.Position(symbol)
}

// Positions returns every live position ordered by symbol.
func (e *Engine) Positions() []schema.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions.Positions()
}

// Order returns a copy of a live order. Filled and cancelled orders are gone.
func (e *Engine) Order(id uint64) (schema.Order, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.orders.Order(id)
}

func (e *Engine) OpenOrderCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.orders.Count()
}

func (e *Engine) PositionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions.Count()
}

// RealizedPnL is the P&L realized across all symbols since start.
func (e *Engine) RealizedPnL() schema.Price {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions.Realized()
}

// Snapshot captures positions and equity for persistence or comparison.
func (e *Engine) Snapshot() state.Snapshot {
	equity := e.Equity()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions.Snapshot(equity)
}

func (e *Engine) Equity() schema.Price {
	return schema.Price(e.equity.Load())
}

// SetEquity stores the account equity and raises a risk alert when the decline
// from peak equity exceeds the drawdown limit.
func (e *Engine) SetEquity(p schema.Price) {
	var evs eventBuf
	e.mu.Lock()
	e.equity.Store(int64(p))
	if p > e.peak {
		e.peak = p
	}
	limit := e.risk.Params().MaxDrawdown
	if dd := risk.Drawdown(e.peak, p); limit > 0 && dd > limit {
		evs.add(newEvent(schema.EventRiskAlert, schema.ErrorCodeRiskLimitExceeded, 0, schema.Symbol{}, p, 0, e.clock(), "Max drawdown exceeded"))
	}
	e.mu.Unlock()

	e.dispatch(&evs)
}

func (e *Engine) RiskParams() risk.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.risk.Params()
}

// SetRiskParams swaps the risk limits after validating them.
func (e *Engine) SetRiskParams(p risk.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.risk.SetParams(p)
	e.mu.Unlock()
	return nil
}

// CheckExits tests the position in symbol against the stop-loss and take-profit
// limits at the cached mid and raises a risk alert when one triggers. It does
// not close the position.
func (e *Engine) CheckExits(symbol schema.Symbol) risk.Exit {
	mid := e.MidPrice(symbol)
	if mid <= 0 {
		return risk.ExitNone
	}

	var evs eventBuf
	e.mu.Lock()
	pos, ok := e.positions.Position(symbol)
	exit := risk.ExitNone
	if ok {
		exit = risk.CheckExit(pos, mid, e.risk.Params())
	}
	if exit != risk.ExitNone {
		evs.add(newEvent(schema.EventRiskAlert, schema.ErrorCodeOK, 0, symbol, mid, pos.Quantity, e.clock(), exitMessage(exit)))
	}
	e.mu.Unlock()

	e.dispatch(&evs)
	return exit
}

func exitMessage(exit risk.Exit) string {
	switch exit {
	case risk.ExitStopLoss:
		return "Stop loss triggered"
	case risk.ExitTakeProfit:
		return "Take profit triggered"
	default:
		return "Stop loss and take profit triggered"
	}
}
