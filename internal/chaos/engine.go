// Package chaos perturbs a market data stream: it drops, duplicates, reorders
// and delays ticks so the runner can be exercised against a misbehaving feed.
package chaos

import (
	"math/rand/v2"
	"time"

	"execcore/internal/schema"
	"execcore/pkg/exception"

	"github.com/yanun0323/errors"
)

// Config controls chaos injection behavior.
type Config struct {
	Seed          uint64
	DropRate      float64
	DuplicateRate float64
	ReorderWindow int
	MaxDelay      time.Duration
}

// Enabled reports whether any fault is configured.
func (c Config) Enabled() bool {
	return c.DropRate > 0 || c.DuplicateRate > 0 || c.ReorderWindow > 1 || c.MaxDelay > 0
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.DropRate < 0 || c.DropRate > 1 {
		return errors.Wrapf(exception.ErrInvalidArgument, "dropRate %v must be between 0 and 1", c.DropRate)
	}
	if c.DuplicateRate < 0 || c.DuplicateRate > 1 {
		return errors.Wrapf(exception.ErrInvalidArgument, "duplicateRate %v must be between 0 and 1", c.DuplicateRate)
	}
	if c.ReorderWindow <= 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "reorderWindow %d must be >= 1", c.ReorderWindow)
	}
	if c.MaxDelay < 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "maxDelay %s must be >= 0", c.MaxDelay)
	}
	return nil
}

// Engine applies chaos rules to ticks. It is not safe for concurrent use.
type Engine struct {
	cfg     Config
	rng     *rand.Rand
	pending []schema.MarketTick
	out     []schema.MarketTick
}

// NewEngine creates a chaos engine with validation.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.ReorderWindow <= 0 {
		cfg.ReorderWindow = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UTC().UnixNano())
	}
	return &Engine{
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		pending: make([]schema.MarketTick, 0, cfg.ReorderWindow),
		out:     make([]schema.MarketTick, 0, 2),
	}, nil
}

// Process applies chaos to a single tick and returns the ticks to emit. The
// returned slice is reused by the next call.
func (e *Engine) Process(tick schema.MarketTick) []schema.MarketTick {
	if e == nil {
		return []schema.MarketTick{tick}
	}
	e.out = e.out[:0]
	if e.shouldDrop() {
		return e.out
	}
	tick = e.applyDelay(tick)
	if e.cfg.ReorderWindow <= 1 {
		return e.applyDuplicate(tick)
	}
	e.pending = append(e.pending, tick)
	if len(e.pending) < e.cfg.ReorderWindow {
		return e.out
	}
	return e.applyDuplicate(e.take())
}

// Flush returns any buffered ticks after processing completes.
func (e *Engine) Flush() []schema.MarketTick {
	if e == nil || len(e.pending) == 0 {
		return nil
	}
	out := make([]schema.MarketTick, 0, len(e.pending))
	for len(e.pending) > 0 {
		e.out = e.out[:0]
		out = append(out, e.applyDuplicate(e.take())...)
	}
	return out
}

func (e *Engine) take() schema.MarketTick {
	idx := e.rng.IntN(len(e.pending))
	tick := e.pending[idx]
	e.pending = append(e.pending[:idx], e.pending[idx+1:]...)
	return tick
}

func (e *Engine) shouldDrop() bool {
	return e.cfg.DropRate > 0 && e.rng.Float64() < e.cfg.DropRate
}

func (e *Engine) applyDuplicate(tick schema.MarketTick) []schema.MarketTick {
	e.out = append(e.out, tick)
	if e.cfg.DuplicateRate > 0 && e.rng.Float64() < e.cfg.DuplicateRate {
		e.out = append(e.out, tick)
	}
	return e.out
}

// applyDelay pushes the timestamp forward, as if the tick arrived late.
func (e *Engine) applyDelay(tick schema.MarketTick) schema.MarketTick {
	maxDelay := e.cfg.MaxDelay.Nanoseconds()
	if maxDelay <= 0 {
		return tick
	}
	tick.Timestamp += e.rng.Int64N(maxDelay + 1)
	return tick
}
