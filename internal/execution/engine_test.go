package execution

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"execcore/internal/book"
	"execcore/internal/obs"
	"execcore/internal/risk"
	"execcore/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	doge = schema.NewSymbol("DOGE/USDT")
	btc  = schema.NewSymbol("BTC/USDT")
	now  = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC).UnixNano()
)

type recorder struct {
	mu     sync.Mutex
	events []schema.Event
}

func (r *recorder) OnEvent(e schema.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []schema.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schema.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) last() schema.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = r.events[:0]
	r.mu.Unlock()
}

func q(v float64) schema.Quantity { return schema.QuantityFromFloat(v) }
func p(v float64) schema.Price    { return schema.PriceFromFloat(v) }

func lvl(price, qty float64) schema.PriceLevel {
	return schema.PriceLevel{Price: p(price), Quantity: q(qty)}
}

func dogeBook() book.Book {
	b := book.New(doge)
	b.UpdateSnapshot(
		[]schema.PriceLevel{lvl(0.3199, 100000), lvl(0.3198, 200000), lvl(0.3197, 300000), lvl(0.3196, 400000), lvl(0.3195, 500000)},
		[]schema.PriceLevel{lvl(0.3201, 80000), lvl(0.3202, 150000), lvl(0.3203, 220000), lvl(0.3204, 280000), lvl(0.3205, 350000)},
		1, now,
	)
	return b
}

func newEngine(t *testing.T, mutate ...func(*Config)) (*Engine, *recorder) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Clock = func() int64 { return now }
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	rec := &recorder{}
	e.RegisterCallback(rec)
	return e, rec
}

func market(symbol schema.Symbol, side schema.Side, qty float64) OrderRequest {
	return OrderRequest{Symbol: symbol, Side: side, Type: schema.OrderTypeMarket, Quantity: q(qty)}
}

func limit(symbol schema.Symbol, side schema.Side, qty, price float64) OrderRequest {
	return OrderRequest{Symbol: symbol, Side: side, Type: schema.OrderTypeLimit, Quantity: q(qty), Price: p(price)}
}

func TestScenarioBuyThenSell(t *testing.T) {
	e, rec := newEngine(t)
	e.UpdateOrderBook(doge, dogeBook())

	id := e.SubmitOrder(market(doge, schema.SideBuy, 5000))
	require.Equal(t, uint64(1), id)
	assert.Equal(t, []schema.EventType{
		schema.EventOrderSubmitted,
		schema.EventPositionOpened,
		schema.EventOrderFilled,
	}, rec.types())
	filled := rec.last()
	assert.Equal(t, p(0.3201), filled.Price)
	assert.Equal(t, q(5000), filled.Quantity)
	assert.Equal(t, id, filled.OrderID)
	assert.Equal(t, "Order filled", filled.Message.String())

	pos, ok := e.Position(doge)
	require.True(t, ok)
	assert.Equal(t, q(5000), pos.Quantity)
	assert.Equal(t, p(0.3201), pos.AvgEntryPrice)
	assert.Zero(t, e.OpenOrderCount(), "filled orders leave the table")

	rec.reset()
	id = e.SubmitOrder(market(doge, schema.SideSell, 3000))
	require.Equal(t, uint64(2), id)
	assert.Equal(t, []schema.EventType{
		schema.EventOrderSubmitted,
		schema.EventPositionUpdated,
		schema.EventOrderFilled,
	}, rec.types())
	assert.Equal(t, p(0.3199), rec.last().Price)

	pos, ok = e.Position(doge)
	require.True(t, ok)
	assert.Equal(t, q(2000), pos.Quantity)
	assert.Equal(t, p(0.3201), pos.AvgEntryPrice)
	assert.Equal(t, schema.Price(-600_000), pos.RealizedPnL)
	assert.Equal(t, (p(0.32)-p(0.3201))*2000, pos.UnrealizedPnL, "marked at mid")
}

func TestPositionAccountingRoundTrip(t *testing.T) {
	e, rec := newEngine(t)

	buy := market(btc, schema.SideBuy, 10)
	buy.Price = p(100)
	require.NotZero(t, e.SubmitOrder(buy))

	sell := market(btc, schema.SideSell, 10)
	sell.Price = p(105)
	require.NotZero(t, e.SubmitOrder(sell))

	_, ok := e.Position(btc)
	assert.False(t, ok, "flat position is removed")
	assert.Zero(t, e.PositionCount())
	assert.Equal(t, p(50), e.RealizedPnL())
	assert.Contains(t, rec.types(), schema.EventPositionClosed)
}

func TestMarketWithoutBookFillsAtOne(t *testing.T) {
	e, rec := newEngine(t)

	require.NotZero(t, e.SubmitOrder(market(btc, schema.SideBuy, 1)))
	assert.Equal(t, p(1), rec.last().Price)
}

func TestMarketAgainstEmptySideIsRejected(t *testing.T) {
	e, rec := newEngine(t)
	b := book.New(doge)
	b.UpdateSnapshot([]schema.PriceLevel{lvl(0.3199, 100)}, nil, 1, now)
	e.UpdateOrderBook(doge, b)

	id := e.SubmitOrder(market(doge, schema.SideBuy, 10))
	assert.Zero(t, id)
	assert.Equal(t, []schema.EventType{schema.EventOrderRejected}, rec.types())
	assert.Equal(t, schema.ErrorCodeInvalidPrice, rec.last().Error)
	assert.Zero(t, e.OpenOrderCount())
	assert.Zero(t, e.PositionCount())
}

func TestRiskGatingRejects(t *testing.T) {
	e, rec := newEngine(t)

	// equity 1,000,000 at 10% allows 100,000 notional at the 1.0 fallback price
	id := e.SubmitOrder(market(btc, schema.SideBuy, 100_001))
	assert.Zero(t, id)
	require.Len(t, rec.types(), 1)
	ev := rec.last()
	assert.Equal(t, schema.EventOrderRejected, ev.Type)
	assert.Equal(t, schema.ErrorCodeRiskLimitExceeded, ev.Error)
	assert.Zero(t, ev.OrderID)
	assert.Equal(t, "Position size limit exceeded", ev.Message.String())
	assert.Zero(t, e.PositionCount())
	assert.Zero(t, e.OpenOrderCount())

	assert.NotZero(t, e.SubmitOrder(market(btc, schema.SideBuy, 100_000)))
}

func TestValidationRejects(t *testing.T) {
	testCases := []struct {
		desc string
		req  OrderRequest
		code schema.ErrorCode
	}{
		{"empty symbol", market(schema.Symbol{}, schema.SideBuy, 1), schema.ErrorCodeInvalidSymbol},
		{"zero quantity", market(doge, schema.SideBuy, 0), schema.ErrorCodeInvalidQuantity},
		{"negative quantity", market(doge, schema.SideBuy, -1), schema.ErrorCodeInvalidQuantity},
		{"unknown side", market(doge, schema.Side(9), 1), schema.ErrorCodeInvalidQuantity},
		{"unknown type", OrderRequest{Symbol: doge, Type: schema.OrderType(9), Quantity: q(1)}, schema.ErrorCodeInvalidPrice},
		{"limit without price", limit(doge, schema.SideBuy, 1, 0), schema.ErrorCodeInvalidPrice},
		{"stop without trigger", OrderRequest{Symbol: doge, Type: schema.OrderTypeStopMarket, Quantity: q(1)}, schema.ErrorCodeInvalidPrice},
		{"negative price", limit(doge, schema.SideBuy, 1, -1), schema.ErrorCodeInvalidPrice},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			e, rec := newEngine(t)
			assert.Zero(t, e.SubmitOrder(tc.req))
			require.Len(t, rec.types(), 1)
			assert.Equal(t, schema.EventOrderRejected, rec.last().Type)
			assert.Equal(t, tc.code, rec.last().Error)
		})
	}
}

func TestLimitOrdersStayOpen(t *testing.T) {
	e, rec := newEngine(t)

	req := limit(doge, schema.SideBuy, 10, 0.3)
	req.TimeInForce = schema.TimeInForceIOC
	id := e.SubmitOrder(req)
	require.NotZero(t, id)
	assert.Equal(t, []schema.EventType{schema.EventOrderSubmitted, schema.EventOrderAccepted}, rec.types())

	o, ok := e.Order(id)
	require.True(t, ok)
	assert.Equal(t, schema.OrderStatusOpen, o.Status, "time in force is not enforced")
	assert.Equal(t, schema.TimeInForceIOC, o.TimeInForce)
	assert.Zero(t, e.PositionCount())
}

func TestMaxOpenOrders(t *testing.T) {
	e, rec := newEngine(t)

	for i := 0; i < 10; i++ {
		require.NotZero(t, e.SubmitOrder(limit(doge, schema.SideBuy, 1, 0.3)))
	}
	assert.Zero(t, e.SubmitOrder(limit(doge, schema.SideBuy, 1, 0.3)))
	assert.Equal(t, schema.ErrorCodeRiskLimitExceeded, rec.last().Error)
	assert.Equal(t, "Max open orders exceeded", rec.last().Message.String())
	assert.Equal(t, 10, e.OpenOrderCount())
}

func TestPoolExhaustion(t *testing.T) {
	e, rec := newEngine(t, func(c *Config) { c.PoolCapacity = 2 })

	require.NotZero(t, e.SubmitOrder(limit(doge, schema.SideBuy, 1, 0.3)))
	require.NotZero(t, e.SubmitOrder(limit(doge, schema.SideBuy, 1, 0.3)))
	assert.Zero(t, e.SubmitOrder(limit(doge, schema.SideBuy, 1, 0.3)))
	assert.Equal(t, schema.ErrorCodeInternalError, rec.last().Error)

	assert.Equal(t, 2, e.CancelAllOrders(doge))
	assert.NotZero(t, e.SubmitOrder(limit(doge, schema.SideBuy, 1, 0.3)), "cancelled slots are reusable")
}

func TestDailyTradeLimit(t *testing.T) {
	e, rec := newEngine(t, func(c *Config) { c.Risk.MaxDailyTrades = 2 })

	require.NotZero(t, e.SubmitOrder(market(btc, schema.SideBuy, 1)))
	require.NotZero(t, e.SubmitOrder(market(btc, schema.SideBuy, 1)))
	assert.Zero(t, e.SubmitOrder(market(btc, schema.SideBuy, 1)))
	assert.Equal(t, "Daily trade limit exceeded", rec.last().Message.String())
}

func TestCancel(t *testing.T) {
	e, rec := newEngine(t)

	a := e.SubmitOrder(limit(doge, schema.SideBuy, 7, 0.3))
	b := e.SubmitOrder(limit(doge, schema.SideSell, 3, 0.4))
	c := e.SubmitOrder(limit(btc, schema.SideBuy, 1, 10))
	require.NotZero(t, a)

	rec.reset()
	assert.True(t, e.CancelOrder(a))
	ev := rec.last()
	assert.Equal(t, schema.EventOrderCancelled, ev.Type)
	assert.Equal(t, a, ev.OrderID)
	assert.Equal(t, q(7), ev.Quantity, "carries the remaining quantity")
	assert.False(t, e.CancelOrder(a))
	assert.False(t, e.CancelOrder(999))

	assert.Equal(t, 1, e.CancelAllOrders(doge))
	_, ok := e.Order(b)
	assert.False(t, ok)
	_, ok = e.Order(c)
	assert.True(t, ok, "other symbols are untouched")
	assert.Zero(t, e.CancelAllOrders(doge))
}

func TestClosePositions(t *testing.T) {
	e, rec := newEngine(t)
	e.UpdateOrderBook(doge, dogeBook())

	assert.False(t, e.ClosePosition(doge), "flat")

	require.NotZero(t, e.SubmitOrder(market(doge, schema.SideBuy, 5000)))
	require.NotZero(t, e.SubmitOrder(market(btc, schema.SideSell, 2)))
	assert.Equal(t, 2, e.PositionCount())

	rec.reset()
	require.True(t, e.ClosePosition(doge))
	assert.Equal(t, []schema.EventType{
		schema.EventOrderSubmitted,
		schema.EventPositionClosed,
		schema.EventOrderFilled,
	}, rec.types())
	assert.Equal(t, p(0.3199), rec.last().Price)

	assert.Equal(t, 1, e.CloseAllPositions())
	assert.Zero(t, e.PositionCount())
	assert.Zero(t, e.CloseAllPositions())
}

func TestConcurrentClosesFlattenOnce(t *testing.T) {
	e, _ := newEngine(t, func(c *Config) { c.Risk.MaxDailyTrades = 0 })
	e.UpdateOrderBook(doge, dogeBook())

	for trial := 0; trial < 500; trial++ {
		require.NotZero(t, e.SubmitOrder(market(doge, schema.SideBuy, 5000)))

		var (
			wg     sync.WaitGroup
			closed [2]bool
		)
		for i := range closed {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				closed[i] = e.ClosePosition(doge)
			}(i)
		}
		wg.Wait()

		require.NotEqual(t, closed[0], closed[1], "trial %d: exactly one close fires", trial)
		_, ok := e.Position(doge)
		require.False(t, ok, "trial %d: position ends flat", trial)
	}
}

func TestConcurrentCloseAllFlattensOnce(t *testing.T) {
	e, _ := newEngine(t, func(c *Config) { c.Risk.MaxDailyTrades = 0 })
	e.UpdateOrderBook(doge, dogeBook())

	for trial := 0; trial < 200; trial++ {
		require.NotZero(t, e.SubmitOrder(market(doge, schema.SideBuy, 5000)))
		require.NotZero(t, e.SubmitOrder(market(btc, schema.SideSell, 2)))

		var (
			wg     sync.WaitGroup
			closed [3]int
		)
		for i := range closed {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i == 0 {
					closed[i] = e.CloseAllPositions()
					return
				}
				if e.ClosePosition([]schema.Symbol{doge, btc}[i-1]) {
					closed[i] = 1
				}
			}(i)
		}
		wg.Wait()

		require.Equal(t, 2, closed[0]+closed[1]+closed[2], "trial %d", trial)
		require.Zero(t, e.PositionCount(), "trial %d", trial)
	}
}

func TestOvershootFlipsPosition(t *testing.T) {
	e, _ := newEngine(t)
	buy := market(btc, schema.SideBuy, 2)
	buy.Price = p(10)
	sell := market(btc, schema.SideSell, 5)
	sell.Price = p(12)

	require.NotZero(t, e.SubmitOrder(buy))
	require.NotZero(t, e.SubmitOrder(sell))

	pos, ok := e.Position(btc)
	require.True(t, ok)
	assert.Equal(t, -q(3), pos.Quantity)
	assert.Equal(t, p(12), pos.AvgEntryPrice)
	assert.Equal(t, p(4), pos.RealizedPnL)
}

func TestObserversRunInOrderAndMayReenter(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)

	var order []string
	var seenOpen []int
	e.RegisterCallback(ObserverFunc(func(ev schema.Event) {
		order = append(order, "first:"+ev.Type.String())
		seenOpen = append(seenOpen, e.OpenOrderCount())
	}))
	e.RegisterCallback(ObserverFunc(func(ev schema.Event) {
		order = append(order, "second:"+ev.Type.String())
		if ev.Type == schema.EventOrderAccepted {
			e.CancelOrder(ev.OrderID)
		}
	}))
	e.RegisterCallback(nil)

	id := e.SubmitOrder(limit(doge, schema.SideBuy, 1, 0.3))
	require.NotZero(t, id)

	assert.Equal(t, []string{
		"first:ORDER_SUBMITTED",
		"second:ORDER_SUBMITTED",
		"first:ORDER_ACCEPTED",
		"second:ORDER_ACCEPTED",
		"first:ORDER_CANCELLED",
		"second:ORDER_CANCELLED",
	}, order)
	assert.Equal(t, []int{1, 1, 0}, seenOpen)
	assert.Zero(t, e.OpenOrderCount())
}

func TestDrawdownAlert(t *testing.T) {
	e, rec := newEngine(t)

	e.SetEquity(p(1_100_000))
	assert.Empty(t, rec.types())
	e.SetEquity(p(1_060_000))
	assert.Empty(t, rec.types(), "3.6% is inside the 5% limit")

	e.SetEquity(p(1_000_000))
	require.Len(t, rec.types(), 1)
	ev := rec.last()
	assert.Equal(t, schema.EventRiskAlert, ev.Type)
	assert.Equal(t, p(1_000_000), ev.Price)
	assert.Equal(t, p(1_000_000), e.Equity())
}

func TestSetEquityAlertMatchesStoredEquity(t *testing.T) {
	var tick atomic.Int64
	e, rec := newEngine(t, func(c *Config) {
		c.Clock = func() int64 { return tick.Add(1) }
	})

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				e.SetEquity(p(float64(800_000 + w*1000 + i)))
			}
		}(w)
	}
	wg.Wait()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.events, 8*200, "every value is past the drawdown limit")
	latest := rec.events[0]
	for _, ev := range rec.events {
		if ev.Timestamp > latest.Timestamp {
			latest = ev
		}
	}
	assert.Equal(t, e.Equity(), latest.Price, "the last alert raised carries the stored equity")
}

func TestCheckExits(t *testing.T) {
	e, rec := newEngine(t)
	e.UpdateOrderBook(doge, dogeBook())
	assert.Equal(t, risk.ExitNone, e.CheckExits(doge), "no position")

	require.NotZero(t, e.SubmitOrder(market(doge, schema.SideBuy, 5000)))
	assert.Equal(t, risk.ExitNone, e.CheckExits(doge))

	lower := book.New(doge)
	lower.UpdateSnapshot([]schema.PriceLevel{lvl(0.30, 1000)}, []schema.PriceLevel{lvl(0.3002, 1000)}, 2, now)
	e.UpdateOrderBook(doge, lower)

	rec.reset()
	assert.Equal(t, risk.ExitStopLoss, e.CheckExits(doge))
	require.Len(t, rec.types(), 1)
	assert.Equal(t, schema.EventRiskAlert, rec.last().Type)
	assert.Equal(t, "Stop loss triggered", rec.last().Message.String())
	assert.Equal(t, 1, e.PositionCount(), "alerts do not close")

	assert.Equal(t, risk.ExitNone, e.CheckExits(btc), "no book")
}

func TestTopOfBookUpdates(t *testing.T) {
	e, _ := newEngine(t)

	_, ok := e.OrderBook(btc)
	assert.False(t, ok)
	assert.Zero(t, e.MidPrice(btc))

	e.UpdateTopOfBook(schema.MarketTick{Symbol: btc, Bid: p(99), Ask: p(101), BidSize: q(1), AskSize: q(2), Sequence: 5, Timestamp: now})
	b, ok := e.OrderBook(btc)
	require.True(t, ok)
	assert.Equal(t, p(100), b.Mid())
	assert.Equal(t, uint64(5), b.Sequence())
	assert.Equal(t, p(100), e.MidPrice(btc))
	assert.InDelta(t, 2.0, e.SpreadPercent(btc), 1e-12)
	assert.InDelta(t, -1.0/3.0, e.Imbalance(btc, 5), 1e-12)

	e.UpdateTopOfBook(schema.MarketTick{Symbol: btc, Ask: p(102), AskSize: q(1), Sequence: 6})
	b, _ = e.OrderBook(btc)
	assert.Equal(t, p(99), b.BestBid(), "zero bid keeps the previous level")
	assert.Equal(t, p(102), b.BestAsk())
}

func TestBookAggregates(t *testing.T) {
	e, _ := newEngine(t)
	assert.Zero(t, e.Liquidity(doge, schema.SideBuy, 5))
	assert.Zero(t, e.VWAP(doge, schema.SideBuy, 5))

	e.UpdateOrderBook(doge, dogeBook())
	assert.Equal(t, q(300_000), e.Liquidity(doge, schema.SideBuy, 2))
	assert.Equal(t, q(230_000), e.Liquidity(doge, schema.SideSell, 2))
	assert.InDelta(t, 0.3201, e.VWAP(doge, schema.SideSell, 1), 1e-9)
	assert.InDelta(t, 95950.0/300_000, e.VWAP(doge, schema.SideBuy, 2), 1e-9)
}

func TestRiskParamsHotSwap(t *testing.T) {
	e, _ := newEngine(t)
	assert.Equal(t, risk.DefaultParams(), e.RiskParams())

	params := risk.DefaultParams()
	params.MaxOpenOrders = 1
	require.NoError(t, e.SetRiskParams(params))
	require.NotZero(t, e.SubmitOrder(limit(doge, schema.SideBuy, 1, 0.3)))
	assert.Zero(t, e.SubmitOrder(limit(doge, schema.SideBuy, 1, 0.3)))

	params.MaxOpenOrders = 0
	assert.Error(t, e.SetRiskParams(params))
	assert.Equal(t, 1, e.RiskParams().MaxOpenOrders)

	bad := DefaultConfig()
	bad.Risk.MaxPositionSize = 0
	_, err := New(bad)
	assert.Error(t, err)
}

func TestMetricsAndSnapshot(t *testing.T) {
	m := obs.NewMetrics()
	e, _ := newEngine(t, func(c *Config) { c.Metrics = m })

	require.NotZero(t, e.SubmitOrder(market(btc, schema.SideBuy, 3)))
	assert.Zero(t, e.SubmitOrder(market(btc, schema.SideBuy, 0)))

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.EventCounts[schema.EventOrderFilled])
	assert.Equal(t, uint64(1), snap.RejectCounts[schema.ErrorCodeInvalidQuantity])
	assert.Equal(t, uint64(2), snap.SubmitLatency.Count)

	s := e.Snapshot()
	require.Len(t, s.Positions, 1)
	assert.Equal(t, "BTC/USDT", s.Positions[0].Symbol)
	assert.Equal(t, q(3), s.Positions[0].Qty)
	assert.Equal(t, DefaultInitialEquity, s.Equity)
}

func TestConcurrentSubmitAndCancel(t *testing.T) {
	e, err := New(Config{
		Risk: risk.Params{
			MaxPositionSize: 1,
			MaxDrawdown:     0.05,
			MaxOpenOrders:   1_000_000,
		},
		PoolCapacity: 1024,
	})
	require.NoError(t, err)

	var (
		mu     sync.Mutex
		events int
	)
	e.RegisterCallback(ObserverFunc(func(schema.Event) {
		mu.Lock()
		events++
		mu.Unlock()
	}))

	const (
		workers = 8
		rounds  = 200
	)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				id := e.SubmitOrder(limit(doge, schema.SideBuy, 1, 0.3))
				if id != 0 {
					e.CancelOrder(id)
				}
				e.SubmitOrder(market(btc, schema.Side(i%2), 1))
			}
		}(w)
	}
	wg.Wait()

	assert.Zero(t, e.OpenOrderCount())
	assert.Zero(t, e.PositionCount(), "equal buys and sells net to flat")
	mu.Lock()
	defer mu.Unlock()
	// limit: submitted, accepted, cancelled; market: submitted, position, filled
	assert.Equal(t, workers*rounds*6, events)
}

func BenchmarkSubmitMarket(b *testing.B) {
	e, err := New(DefaultConfig())
	require.NoError(b, err)
	e.UpdateOrderBook(doge, dogeBook())
	buy := market(doge, schema.SideBuy, 1)
	sell := market(doge, schema.SideSell, 1)

	for b.Loop() {
		e.SubmitOrder(buy)
		e.SubmitOrder(sell)
	}
}
