package state

import (
	"sort"

	"execcore/internal/schema"
)

// Transition is what a fill did to a position.
type Transition uint8

const (
	TransitionNone Transition = iota
	TransitionOpened
	TransitionUpdated
	TransitionClosed
)

func (t Transition) EventType() schema.EventType {
	switch t {
	case TransitionOpened:
		return schema.EventPositionOpened
	case TransitionClosed:
		return schema.EventPositionClosed
	default:
		return schema.EventPositionUpdated
	}
}

// Table holds one live position per symbol. Flat positions are removed.
// It is not safe for concurrent use.
type Table struct {
	positions map[schema.Symbol]schema.Position
	realized  schema.Price
}

// NewTable creates an empty position table.
func NewTable() *Table {
	return &Table{positions: make(map[schema.Symbol]schema.Position)}
}

// ApplyFill books a fill of qty (unsigned) on side at price and returns the
// resulting position. A closed position is returned with zero quantity and the
// P&L realized over its life.
func (t *Table) ApplyFill(symbol schema.Symbol, side schema.Side, qty schema.Quantity, price schema.Price, ts int64) (schema.Position, Transition) {
	if qty <= 0 {
		return t.positions[symbol], TransitionNone
	}
	signed := qty * schema.Quantity(side.Sign())

	pos, ok := t.positions[symbol]
	if !ok {
		pos = schema.Position{
			Symbol:        symbol,
			Quantity:      signed,
			AvgEntryPrice: price,
			OpenedAt:      ts,
			UpdatedAt:     ts,
		}
		t.positions[symbol] = pos
		return pos, TransitionOpened
	}

	if (pos.Quantity > 0) == (signed > 0) {
		pos.AvgEntryPrice = extendAverage(pos.AvgEntryPrice, pos.Quantity.Abs(), price, qty)
		pos.Quantity += signed
	} else {
		closed := min(pos.Quantity.Abs(), qty)
		pnl := realize(pos.AvgEntryPrice, price, closed, pos.IsLong())
		pos.RealizedPnL += pnl
		t.realized += pnl

		next := pos.Quantity + signed
		if next != 0 && (next > 0) != (pos.Quantity > 0) {
			pos.AvgEntryPrice = price
			pos.OpenedAt = ts
		}
		pos.Quantity = next
	}
	pos.UpdatedAt = ts

	if pos.Quantity == 0 {
		pos.UnrealizedPnL = 0
		delete(t.positions, symbol)
		return pos, TransitionClosed
	}
	t.positions[symbol] = pos
	return pos, TransitionUpdated
}

// extendAverage returns the volume weighted entry of two same-direction legs
// as avg + (price-avg)*add/(held+add), which keeps the intermediate in range.
func extendAverage(avg schema.Price, held schema.Quantity, price schema.Price, add schema.Quantity) schema.Price {
	delta, ok := schema.MulDiv(int64(price-avg), int64(add), int64(held+add))
	if !ok {
		return avg
	}
	return avg + schema.Price(delta)
}

func realize(entry, exit schema.Price, closed schema.Quantity, long bool) schema.Price {
	diff := exit - entry
	if !long {
		diff = -diff
	}
	pnl, ok := schema.MulDiv(int64(diff), int64(closed), schema.QuantityScale)
	if !ok {
		return 0
	}
	return schema.Price(pnl)
}

// Mark refreshes the unrealized P&L of symbol at price.
func (t *Table) Mark(symbol schema.Symbol, price schema.Price) {
	pos, ok := t.positions[symbol]
	if !ok || price <= 0 {
		return
	}
	pos.UnrealizedPnL = pos.MarkToMarket(price)
	t.positions[symbol] = pos
}

// Position returns the live position for symbol.
func (t *Table) Position(symbol schema.Symbol) (schema.Position, bool) {
	pos, ok := t.positions[symbol]
	return pos, ok
}

// Quantity returns the signed size held in symbol, zero when flat.
func (t *Table) Quantity(symbol schema.Symbol) schema.Quantity {
	return t.positions[symbol].Quantity
}

// Positions returns every live position ordered by symbol.
func (t *Table) Positions() []schema.Position {
	out := make([]schema.Position, 0, len(t.positions))
	for _, pos := range t.positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol.String() < out[j].Symbol.String()
	})
	return out
}

// Count returns the number of live positions.
func (t *Table) Count() int {
	return len(t.positions)
}

// Realized returns P&L realized across all symbols, including closed positions.
func (t *Table) Realized() schema.Price {
	return t.realized
}
