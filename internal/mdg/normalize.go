package mdg

import (
	"time"

	"execcore/internal/schema"
	"execcore/pkg/exception"

	"github.com/yanun0323/errors"
)

// RawTick is a top-of-book quote before it is checked against the symbol set.
// Prices and sizes are already scaled to schema.PriceScale and schema.QuantityScale.
type RawTick struct {
	Symbol   string
	Last     int64
	BidPrice int64
	BidSize  int64
	AskPrice int64
	AskSize  int64
	TsEvent  int64
	TsRecv   int64
}

// Normalizer maps raw ticks to schema.MarketTick.
type Normalizer struct {
	symbols map[string]schema.Symbol
	seq     uint64
}

// NewNormalizer creates a normalizer accepting only the given symbols.
func NewNormalizer(symbols []schema.Symbol) *Normalizer {
	m := make(map[string]schema.Symbol, len(symbols))
	for _, s := range symbols {
		m[s.String()] = s
	}
	return &Normalizer{symbols: m}
}

// Normalize validates a raw tick and stamps it with the next sequence number.
// A quote with a non-positive side or bid above ask is rejected.
func (n *Normalizer) Normalize(tick RawTick) (schema.MarketTick, error) {
	if n == nil {
		return schema.MarketTick{}, exception.ErrNilInstance
	}
	symbol, ok := n.symbols[tick.Symbol]
	if !ok {
		return schema.MarketTick{}, errors.Wrapf(exception.ErrMarketDataUnknownSymbol, "symbol %s", tick.Symbol)
	}
	if tick.BidPrice <= 0 || tick.AskPrice <= 0 || tick.BidPrice > tick.AskPrice {
		return schema.MarketTick{}, errors.Wrapf(exception.ErrMarketDataCrossed, "%s bid %d ask %d", tick.Symbol, tick.BidPrice, tick.AskPrice)
	}
	if tick.TsRecv == 0 {
		tick.TsRecv = time.Now().UTC().UnixNano()
	}
	if tick.TsEvent == 0 {
		tick.TsEvent = tick.TsRecv
	}
	last := tick.Last
	if last == 0 {
		last = (tick.BidPrice + tick.AskPrice) / 2
	}
	n.seq++
	return schema.MarketTick{
		Timestamp: tick.TsEvent,
		Symbol:    symbol,
		Bid:       schema.Price(tick.BidPrice),
		Ask:       schema.Price(tick.AskPrice),
		Last:      schema.Price(last),
		BidSize:   schema.Quantity(tick.BidSize),
		AskSize:   schema.Quantity(tick.AskSize),
		Sequence:  n.seq,
	}, nil
}

// Sequence returns the last sequence number handed out.
func (n *Normalizer) Sequence() uint64 {
	return n.seq
}
