package core

import (
	"context"
	"sync/atomic"
	"time"
	"unsafe"

	"execcore/internal/bus"
	"execcore/internal/execution"
	"execcore/internal/memory"
	"execcore/internal/obs"
	"execcore/internal/schema"
	"execcore/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

type Config struct {
	TickQueue    int
	CommandQueue int
	Batch        int
	ArenaBytes   int
	Backoff      bus.Backoff
	Metrics      *obs.Metrics
}

func DefaultConfig() Config {
	return Config{
		TickQueue:    4096,
		CommandQueue: 1024,
		Batch:        256,
		ArenaBytes:   1 << 20,
		Backoff:      bus.DefaultBackoff,
	}
}

// Result is the outcome of one executed command. OrderID is set for submits,
// Count for cancel-all and close-all.
type Result struct {
	Command schema.OrderCommand
	OrderID uint64
	Count   int
	OK      bool
}

// Runner moves ticks and commands from producer goroutines onto the engine.
// Step and Run must be called from a single goroutine.
type Runner struct {
	engine   *execution.Engine
	ticks    *bus.SPSC[schema.MarketTick]
	commands *bus.MPSC[schema.OrderCommand]
	arena    *memory.Arena
	batch    int
	backoff  bus.Backoff
	metrics  *obs.Metrics
	onResult func(Result)

	scratch []schema.MarketTick
	staged  int
	stage   func(schema.MarketTick)
	execute func(schema.OrderCommand)

	tickDrops    atomic.Uint64
	commandDrops atomic.Uint64
}

func NewRunner(engine *execution.Engine, cfg Config) (*Runner, error) {
	if engine == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "runner engine")
	}
	if cfg.Batch <= 0 {
		return nil, errors.Wrap(exception.ErrInvalidCapacity, "runner batch").With("batch", cfg.Batch)
	}
	if need := cfg.Batch * int(unsafe.Sizeof(schema.MarketTick{})); cfg.ArenaBytes < need {
		return nil, errors.Wrap(exception.ErrInvalidCapacity, "arena smaller than one tick batch").
			With("arenaBytes", cfg.ArenaBytes).With("need", need)
	}

	ticks, err := bus.NewSPSC[schema.MarketTick](cfg.TickQueue)
	if err != nil {
		return nil, errors.Wrap(err, "tick queue")
	}
	commands, err := bus.NewMPSC[schema.OrderCommand](cfg.CommandQueue)
	if err != nil {
		return nil, errors.Wrap(err, "command queue")
	}
	arena, err := memory.NewArena(cfg.ArenaBytes)
	if err != nil {
		return nil, errors.Wrap(err, "scratch arena")
	}

	r := &Runner{
		engine:   engine,
		ticks:    ticks,
		commands: commands,
		arena:    arena,
		batch:    cfg.Batch,
		backoff:  cfg.Backoff,
		metrics:  cfg.Metrics,
	}
	r.stage = func(t schema.MarketTick) {
		r.scratch[r.staged] = t
		r.staged++
	}
	r.execute = r.run
	return r, nil
}

// OnResult sets the callback invoked after every command. Set it before Run.
func (r *Runner) OnResult(fn func(Result)) {
	r.onResult = fn
}

// PushTick enqueues a tick from the feed goroutine. Only one goroutine may push ticks.
func (r *Runner) PushTick(t schema.MarketTick) bool {
	if r.ticks.Push(t) {
		return true
	}
	r.metrics.IncTickDrop()
	if n := r.tickDrops.Add(1); n&(n-1) == 0 {
		logs.Errorf("runner: tick queue full, %d ticks dropped", n)
	}
	return false
}

// Submit enqueues a command. Safe from any goroutine.
func (r *Runner) Submit(cmd schema.OrderCommand) bool {
	if r.commands.Push(cmd) {
		return true
	}
	r.metrics.IncCommandDrop()
	if n := r.commandDrops.Add(1); n&(n-1) == 0 {
		logs.Errorf("runner: command queue full, %d commands dropped", n)
	}
	return false
}

// Step runs one cycle and returns the number of ticks and commands consumed.
func (r *Runner) Step() int {
	start := time.Now()

	r.arena.Reset()
	r.scratch = memory.Alloc[schema.MarketTick](r.arena, r.batch)
	r.staged = 0
	drained := r.ticks.Drain(r.batch, r.stage)

	latest := coalesce(r.scratch[:r.staged])
	for i := range latest {
		r.engine.UpdateTopOfBook(latest[i])
	}
	r.metrics.AddTicksApplied(len(latest))

	executed := r.commands.Drain(r.batch, r.execute)

	work := drained + executed
	if work > 0 {
		r.metrics.ObserveCycle(time.Since(start))
	}
	return work
}

// Run steps until ctx is done, backing off while both queues are idle. Commands
// already queued at cancellation are still executed.
func (r *Runner) Run(ctx context.Context) {
	idle := 0
	for {
		select {
		case <-ctx.Done():
			for r.Step() > 0 {
			}
			return
		default:
		}

		if r.Step() > 0 {
			idle = 0
			continue
		}
		idle++
		r.backoff.Wait(idle)
	}
}

func (r *Runner) run(cmd schema.OrderCommand) {
	res := Result{Command: cmd}
	switch cmd.Kind {
	case schema.CommandSubmit:
		res.OrderID = r.engine.SubmitOrder(execution.OrderRequest{
			Symbol:      cmd.Symbol,
			Side:        cmd.Side,
			Type:        cmd.Type,
			Quantity:    cmd.Quantity,
			Price:       cmd.Price,
			StopPrice:   cmd.StopPrice,
			TimeInForce: cmd.TimeInForce,
		})
		res.OK = res.OrderID != 0
	case schema.CommandCancel:
		res.OK = r.engine.CancelOrder(cmd.OrderID)
	case schema.CommandCancelAll:
		res.Count = r.engine.CancelAllOrders(cmd.Symbol)
		res.OK = res.Count > 0
	case schema.CommandClosePosition:
		res.OK = r.engine.ClosePosition(cmd.Symbol)
	case schema.CommandCloseAll:
		res.Count = r.engine.CloseAllPositions()
		res.OK = res.Count > 0
	}
	if r.onResult != nil {
		r.onResult(res)
	}
}

// coalesce keeps the last tick per symbol, in first-seen symbol order. It
// compacts in place.
func coalesce(ticks []schema.MarketTick) []schema.MarketTick {
	out := ticks[:0]
	for _, t := range ticks {
		found := false
		for j := range out {
			if out[j].Symbol == t.Symbol {
				out[j] = t
				found = true
				break
			}
		}
		if !found {
			out = append(out, t)
		}
	}
	return out
}

func (r *Runner) PendingTicks() int    { return r.ticks.Len() }
func (r *Runner) PendingCommands() int { return r.commands.Len() }
func (r *Runner) TickDrops() uint64    { return r.tickDrops.Load() }
func (r *Runner) CommandDrops() uint64 { return r.commandDrops.Load() }
