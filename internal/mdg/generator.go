// Package mdg generates synthetic top-of-book data for simulation and load runs.
package mdg

import (
	"math/rand/v2"
	"time"

	"execcore/internal/schema"
	"execcore/pkg/exception"

	"github.com/yanun0323/errors"
)

// Config shapes the random walk of a Generator.
type Config struct {
	Seed      uint64
	BasePrice schema.Price
	BaseSize  schema.Quantity
	// SpreadBps is the full bid/ask spread in basis points of mid.
	SpreadBps float64
	// StepBps bounds the per-tick move of mid in basis points.
	StepBps float64
}

// DefaultConfig is a DOGE-like market around 0.32.
func DefaultConfig() Config {
	return Config{
		BasePrice: schema.PriceFromFloat(0.32),
		BaseSize:  schema.QuantityFromFloat(100_000),
		SpreadBps: 6,
		StepBps:   10,
	}
}

// Generator creates synthetic market data ticks, one symbol per call in
// round-robin order. It is not safe for concurrent use.
type Generator struct {
	symbols []string
	mids    []float64
	cfg     Config
	rng     *rand.Rand
	index   int
}

// NewGenerator creates a generator over symbols.
func NewGenerator(symbols []schema.Symbol, cfg Config) (*Generator, error) {
	if len(symbols) == 0 {
		return nil, errors.Wrap(exception.ErrInvalidArgument, "generator has no symbols")
	}
	if cfg.BasePrice <= 0 {
		return nil, errors.Wrapf(exception.ErrInvalidArgument, "base price %s", cfg.BasePrice)
	}
	if cfg.BaseSize <= 0 {
		cfg.BaseSize = schema.QuantityFromFloat(1)
	}
	if cfg.SpreadBps < 0 {
		cfg.SpreadBps = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UTC().UnixNano())
	}

	names := make([]string, len(symbols))
	mids := make([]float64, len(symbols))
	for i, s := range symbols {
		names[i] = s.String()
		mids[i] = cfg.BasePrice.Float64()
	}
	return &Generator{
		symbols: names,
		mids:    mids,
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1|1)),
	}, nil
}

// Symbols returns the number of symbols walked.
func (g *Generator) Symbols() int {
	return len(g.symbols)
}

// Next creates the next raw tick in sequence.
func (g *Generator) Next(now time.Time) RawTick {
	i := g.index
	g.index = (g.index + 1) % len(g.symbols)

	mid := g.mids[i] * (1 + (g.rng.Float64()*2-1)*g.cfg.StepBps/10_000)
	floor := schema.Price(100).Float64()
	if mid < floor {
		mid = floor
	}
	g.mids[i] = mid

	half := mid * g.cfg.SpreadBps / 20_000
	bid := schema.PriceFromFloat(mid - half)
	ask := schema.PriceFromFloat(mid + half)
	if ask <= bid {
		ask = bid + 1
	}
	base := g.cfg.BaseSize.Float64()
	ts := now.UnixNano()
	return RawTick{
		Symbol:   g.symbols[i],
		Last:     int64(schema.PriceFromFloat(mid)),
		BidPrice: int64(bid),
		BidSize:  int64(schema.QuantityFromFloat(base * (1 + g.rng.Float64()))),
		AskPrice: int64(ask),
		AskSize:  int64(schema.QuantityFromFloat(base * (1 + g.rng.Float64()))),
		TsEvent:  ts,
		TsRecv:   ts,
	}
}
