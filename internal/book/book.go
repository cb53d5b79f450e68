// Package book holds a fixed-depth bid/ask ladder and the analytics read off it.
package book

import (
	"strconv"

	"execcore/internal/schema"
	"execcore/internal/stats"
)

// MaxLevels is the depth kept per side.
const MaxLevels = 25

// Book is a value type; copying it copies the whole ladder. It has no internal
// locking, so writers must be serialized against readers by the owner.
type Book struct {
	Symbol   schema.Symbol
	bids     [MaxLevels]schema.PriceLevel
	asks     [MaxLevels]schema.PriceLevel
	bidCount int
	askCount int
	seq      uint64
	ts       int64
}

// New returns an empty book for symbol.
func New(symbol schema.Symbol) Book {
	return Book{Symbol: symbol}
}

// UpdateSnapshot replaces both sides with at most MaxLevels levels each.
// Levels are kept in the order given; index 0 is taken as best.
func (b *Book) UpdateSnapshot(bids, asks []schema.PriceLevel, seq uint64, ts int64) {
	b.bidCount = copy(b.bids[:], bids)
	b.askCount = copy(b.asks[:], asks)
	clear(b.bids[b.bidCount:])
	clear(b.asks[b.askCount:])
	b.seq = seq
	b.ts = ts
}

// UpdateBid sets one bid level, extending depth when level is past it. The
// level's order count is unknown after a single-level update and reads 0.
func (b *Book) UpdateBid(level int, price schema.Price, qty schema.Quantity) {
	b.bidCount = updateLevel(&b.bids, b.bidCount, level, price, qty)
}

// UpdateAsk sets one ask level, extending depth when level is past it.
func (b *Book) UpdateAsk(level int, price schema.Price, qty schema.Quantity) {
	b.askCount = updateLevel(&b.asks, b.askCount, level, price, qty)
}

func updateLevel(side *[MaxLevels]schema.PriceLevel, count, level int, price schema.Price, qty schema.Quantity) int {
	if level < 0 || level >= MaxLevels {
		return count
	}
	side[level] = schema.PriceLevel{Price: price, Quantity: qty}
	if level >= count {
		count = level + 1
	}
	return count
}

// SetSequence stamps the book after incremental updates.
func (b *Book) SetSequence(seq uint64, ts int64) {
	b.seq = seq
	b.ts = ts
}

func (b *Book) BestBid() schema.Price {
	if b.bidCount == 0 {
		return 0
	}
	return b.bids[0].Price
}

func (b *Book) BestAsk() schema.Price {
	if b.askCount == 0 {
		return 0
	}
	return b.asks[0].Price
}

func (b *Book) BestBidSize() schema.Quantity {
	if b.bidCount == 0 {
		return 0
	}
	return b.bids[0].Quantity
}

func (b *Book) BestAskSize() schema.Quantity {
	if b.askCount == 0 {
		return 0
	}
	return b.asks[0].Quantity
}

// Mid is (best bid + best ask) / 2; an empty side counts as zero.
func (b *Book) Mid() schema.Price {
	return (b.BestBid() + b.BestAsk()) / 2
}

func (b *Book) Spread() schema.Price {
	return b.BestAsk() - b.BestBid()
}

// SpreadPercent is the spread as a percentage of mid, 0 when mid is 0.
func (b *Book) SpreadPercent() float64 {
	mid := b.Mid()
	if mid == 0 {
		return 0
	}
	return b.Spread().Float64() / mid.Float64() * 100
}

// Bid returns the level at index i, clamped to the ladder bounds.
func (b *Book) Bid(i int) schema.PriceLevel {
	return b.bids[clampLevel(i)]
}

func (b *Book) Ask(i int) schema.PriceLevel {
	return b.asks[clampLevel(i)]
}

func clampLevel(i int) int {
	switch {
	case i < 0:
		return 0
	case i >= MaxLevels:
		return MaxLevels - 1
	default:
		return i
	}
}

func (b *Book) BidDepth() int    { return b.bidCount }
func (b *Book) AskDepth() int    { return b.askCount }
func (b *Book) Sequence() uint64 { return b.seq }
func (b *Book) Timestamp() int64 { return b.ts }

// Bids returns the populated bid levels. The slice aliases the book.
func (b *Book) Bids() []schema.PriceLevel {
	return b.bids[:b.bidCount]
}

// Asks returns the populated ask levels. The slice aliases the book.
func (b *Book) Asks() []schema.PriceLevel {
	return b.asks[:b.askCount]
}

// TotalBidLiquidity sums quantity over the first n bid levels.
func (b *Book) TotalBidLiquidity(n int) schema.Quantity {
	return stats.TotalLiquidity(b.bids[:min(max(n, 0), b.bidCount)])
}

// TotalAskLiquidity sums quantity over the first n ask levels.
func (b *Book) TotalAskLiquidity(n int) schema.Quantity {
	return stats.TotalLiquidity(b.asks[:min(max(n, 0), b.askCount)])
}

// VWAP is the quantity weighted price of the first n levels of one side, bids
// for SideBuy and asks for SideSell, in decimal units. 0 when the side is empty.
func (b *Book) VWAP(side schema.Side, n int) float64 {
	if side == schema.SideSell {
		return stats.VWAP(b.asks[:min(max(n, 0), b.askCount)])
	}
	return stats.VWAP(b.bids[:min(max(n, 0), b.bidCount)])
}

// Imbalance is (bid - ask) / (bid + ask) over n levels, in [-1, 1].
func (b *Book) Imbalance(n int) float64 {
	bid := b.TotalBidLiquidity(n)
	ask := b.TotalAskLiquidity(n)
	total := bid + ask
	if total == 0 {
		return 0
	}
	return float64(bid-ask) / float64(total)
}

// ExecutionPrice walks the opposing side from best and returns the volume
// weighted price of the liquidity a qty fill would consume. It returns 0 when
// nothing could be filled. A partial fill prices only what was available.
func (b *Book) ExecutionPrice(side schema.Side, qty schema.Quantity) schema.Price {
	levels := b.asks[:b.askCount]
	if side == schema.SideSell {
		levels = b.bids[:b.bidCount]
	}

	remaining := qty
	var weighted, filled int64
	for i := 0; i < len(levels) && remaining > 0; i++ {
		fill := min(remaining, levels[i].Quantity)
		if fill <= 0 {
			continue
		}
		part, ok := schema.MulDiv(int64(levels[i].Price), int64(fill), schema.QuantityScale)
		if !ok {
			return 0
		}
		weighted += part
		filled += int64(fill)
		remaining -= fill
	}

	if filled == 0 {
		return 0
	}
	px, ok := schema.MulDiv(weighted, schema.QuantityScale, filled)
	if !ok {
		return 0
	}
	return schema.Price(px)
}

// Slippage is |execution - best| / best in percent, 0 when there is no best price.
func (b *Book) Slippage(side schema.Side, qty schema.Quantity) float64 {
	best := b.BestAsk()
	if side == schema.SideSell {
		best = b.BestBid()
	}
	if best == 0 {
		return 0
	}
	exec := b.ExecutionPrice(side, qty)
	diff := exec - best
	if diff < 0 {
		diff = -diff
	}
	return diff.Float64() / best.Float64() * 100
}

// String returns a human readable dump of the book.
func (b *Book) String() string {
	appendSide := func(buf []byte, levels []schema.PriceLevel) []byte {
		buf = append(buf, '[')
		for i := range levels {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, '(')
			buf = append(buf, levels[i].Price.String()...)
			buf = append(buf, ',')
			buf = append(buf, levels[i].Quantity.String()...)
			buf = append(buf, ')')
		}
		buf = append(buf, ']')
		return buf
	}

	buf := make([]byte, 0, 256)
	buf = append(buf, "Book{symbol="...)
	buf = append(buf, b.Symbol.String()...)
	buf = append(buf, " seq="...)
	buf = strconv.AppendUint(buf, b.seq, 10)
	buf = append(buf, " ts="...)
	buf = strconv.AppendInt(buf, b.ts, 10)
	buf = append(buf, " bids="...)
	buf = appendSide(buf, b.Bids())
	buf = append(buf, " asks="...)
	buf = appendSide(buf, b.Asks())
	buf = append(buf, '}')
	return string(buf)
}
