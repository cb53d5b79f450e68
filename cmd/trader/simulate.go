package main

import (
	"context"
	"sync/atomic"
	"time"

	"execcore/internal/bus"
	"execcore/internal/chaos"
	"execcore/internal/core"
	"execcore/internal/execution"
	"execcore/internal/mdg"
	"execcore/internal/ops"
	"execcore/internal/risk"
	"execcore/internal/schema"

	"github.com/yanun0323/logs"
)

// simulation drives the runner with a random-walk feed and two toy strategies.
type simulation struct {
	engine  *execution.Engine
	runner  *core.Runner
	symbols []schema.Symbol
	initial schema.Price
	lot     schema.Quantity
	chaos   *chaos.Engine
}

func newSimulation(engine *execution.Engine, runner *core.Runner, loaded ops.Loaded, faults chaos.Config) (*simulation, error) {
	s := &simulation{
		engine:  engine,
		runner:  runner,
		symbols: loaded.Symbols,
		initial: loaded.InitialEquity,
		lot:     schema.QuantityFromFloat(1000),
	}
	if faults.Enabled() {
		e, err := chaos.NewEngine(faults)
		if err != nil {
			return nil, err
		}
		s.chaos = e
		logs.Infof("feed chaos enabled: %+v", faults)
	}
	return s, nil
}

// feed is the only tick producer.
func (s *simulation) feed(ctx context.Context, ticksPerSec int) error {
	if ticksPerSec <= 0 {
		ticksPerSec = 1
	}
	gen, err := mdg.NewGenerator(s.symbols, mdg.DefaultConfig())
	if err != nil {
		return err
	}
	norm := mdg.NewNormalizer(s.symbols)

	ticker := time.NewTicker(time.Second / time.Duration(ticksPerSec))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, t := range s.chaos.Flush() {
				s.runner.PushTick(t)
			}
			logs.Infof("feed closed after %d ticks", norm.Sequence())
			return nil
		case now := <-ticker.C:
			for range gen.Symbols() {
				tick, err := norm.Normalize(gen.Next(now))
				if err != nil {
					logs.Errorf("normalize tick, err: %+v", err)
					continue
				}
				for _, t := range s.chaos.Process(tick) {
					s.runner.PushTick(t)
				}
			}
		}
	}
}

// taker trades with the book imbalance and flattens on exit signals.
func (s *simulation) taker(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sym := range s.symbols {
				if s.engine.CheckExits(sym) != risk.ExitNone {
					s.runner.Submit(schema.OrderCommand{Kind: schema.CommandClosePosition, Symbol: sym})
					continue
				}
				imb := s.engine.Imbalance(sym, 1)
				side := schema.SideBuy
				switch {
				case imb > 0.2:
				case imb < -0.2:
					side = schema.SideSell
				default:
					continue
				}
				s.runner.Submit(schema.OrderCommand{
					Kind:     schema.CommandSubmit,
					Side:     side,
					Type:     schema.OrderTypeMarket,
					Symbol:   sym,
					Quantity: s.lot,
				})
			}
		}
	}
}

// maker quotes both sides around mid, requotes every round and marks equity.
func (s *simulation) maker(ctx context.Context) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, sym := range s.symbols {
				mid := s.engine.MidPrice(sym)
				if mid <= 0 {
					continue
				}
				offset := mid / 1000
				s.runner.Submit(schema.OrderCommand{Kind: schema.CommandCancelAll, Symbol: sym})
				for _, q := range []struct {
					side  schema.Side
					price schema.Price
				}{{schema.SideBuy, mid - offset}, {schema.SideSell, mid + offset}} {
					s.runner.Submit(schema.OrderCommand{
						Kind:        schema.CommandSubmit,
						Side:        q.side,
						Type:        schema.OrderTypeLimit,
						TimeInForce: schema.TimeInForceGTC,
						Symbol:      sym,
						Quantity:    s.lot,
						Price:       q.price,
					})
				}
			}
			s.markEquity()
		}
	}
}

func (s *simulation) markEquity() {
	equity := s.initial + s.engine.RealizedPnL()
	for _, sym := range s.symbols {
		if pos, ok := s.engine.Position(sym); ok {
			equity += pos.UnrealizedPnL
		}
	}
	s.engine.SetEquity(equity)
}

// tally aggregates command results off the runner goroutine.
type tally struct {
	results *bus.SPSC[core.Result]
	ok      int
	failed  int
	dropped atomic.Uint64
	add     func(core.Result)
}

func newTally(capacity int) (*tally, error) {
	q, err := bus.NewSPSC[core.Result](capacity)
	if err != nil {
		return nil, err
	}
	t := &tally{results: q}
	t.add = func(res core.Result) {
		if res.OK {
			t.ok++
		} else {
			t.failed++
		}
	}
	return t, nil
}

// record runs on the runner goroutine, the single producer.
func (t *tally) record(res core.Result) {
	if !t.results.Push(res) {
		t.dropped.Add(1)
	}
}

func (t *tally) run(ctx context.Context) {
	bus.Run(ctx, t.results, 64, bus.DefaultBackoff, t.add)
	logs.Infof("command tally closed: ok %d, failed %d", t.ok, t.failed)
}
