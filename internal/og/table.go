// Package og keeps the live order records. Every record lives in a slot of a
// fixed-capacity pool and is returned to it as soon as the order is terminal.
package og

import (
	"sort"

	"execcore/internal/memory"
	"execcore/internal/schema"
	"execcore/pkg/exception"

	"github.com/yanun0323/errors"
)

// Table tracks orders from submission until they are filled, cancelled or rejected.
// It is not safe for concurrent use.
type Table struct {
	pool   *memory.Pool[schema.Order]
	orders map[uint64]*schema.Order
	nextID uint64
}

// NewTable creates a table whose live orders are bounded by capacity.
func NewTable(capacity int) (*Table, error) {
	pool, err := memory.NewPool[schema.Order](capacity)
	if err != nil {
		return nil, errors.Wrap(err, "create order pool").With("capacity", capacity)
	}
	return &Table{
		pool:   pool,
		orders: make(map[uint64]*schema.Order, capacity),
		nextID: 1,
	}, nil
}

// Create allocates a Pending order from tmpl and assigns the next id.
// Ids are strictly increasing and never reused.
func (t *Table) Create(tmpl schema.Order, ts int64) (*schema.Order, error) {
	o := t.pool.AllocateWith(func(o *schema.Order) {
		*o = tmpl
		o.FilledQty = 0
		o.CreatedAt = ts
		o.UpdatedAt = ts
		o.Status = schema.OrderStatusPending
	})
	if o == nil {
		return nil, exception.ErrPoolExhausted
	}
	o.ID = t.nextID
	t.nextID++
	t.orders[o.ID] = o
	return o, nil
}

// Open moves a Pending order to Open.
func (t *Table) Open(id uint64, ts int64) (*schema.Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return nil, exception.ErrOrderNotFound
	}
	if o.Status != schema.OrderStatusPending {
		return o, errors.Wrapf(exception.ErrOrderInvalidTransition, "open from %s", o.Status)
	}
	o.Status = schema.OrderStatusOpen
	o.UpdatedAt = ts
	return o, nil
}

// Fill books qty against the order and moves it to PartiallyFilled or Filled.
func (t *Table) Fill(id uint64, qty schema.Quantity, ts int64) (*schema.Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return nil, exception.ErrOrderNotFound
	}
	if o.Status.IsTerminal() {
		return o, errors.Wrapf(exception.ErrOrderInvalidTransition, "fill from %s", o.Status)
	}
	if qty <= 0 || qty > o.Remaining() {
		return o, errors.Wrapf(exception.ErrOrderInvalidFill, "fill %s of remaining %s", qty, o.Remaining())
	}
	o.FilledQty += qty
	if o.Remaining() == 0 {
		o.Status = schema.OrderStatusFilled
	} else {
		o.Status = schema.OrderStatusPartiallyFilled
	}
	o.UpdatedAt = ts
	return o, nil
}

// Cancel cancels an active order and releases it. The returned copy carries
// the final state.
func (t *Table) Cancel(id uint64, ts int64) (schema.Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return schema.Order{}, exception.ErrOrderNotFound
	}
	if !o.IsActive() {
		return *o, errors.Wrapf(exception.ErrOrderInvalidTransition, "cancel from %s", o.Status)
	}
	o.Status = schema.OrderStatusCancelled
	o.UpdatedAt = ts
	final, _ := t.Release(id)
	return final, nil
}

// Release drops the order from the table and returns its slot to the pool.
func (t *Table) Release(id uint64) (schema.Order, bool) {
	o, ok := t.orders[id]
	if !ok {
		return schema.Order{}, false
	}
	final := *o
	delete(t.orders, id)
	t.pool.Deallocate(o)
	return final, true
}

// Order returns a copy of a live order.
func (t *Table) Order(id uint64) (schema.Order, bool) {
	o, ok := t.orders[id]
	if !ok {
		return schema.Order{}, false
	}
	return *o, true
}

// ActiveIDs returns ids of active orders for symbol in submission order.
func (t *Table) ActiveIDs(symbol schema.Symbol) []uint64 {
	ids := make([]uint64, 0, len(t.orders))
	for id, o := range t.orders {
		if o.Symbol == symbol && o.IsActive() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of live orders.
func (t *Table) Count() int {
	return len(t.orders)
}

// Available returns how many more orders the pool can hold.
func (t *Table) Available() int {
	return t.pool.Available()
}

func (t *Table) Capacity() int {
	return t.pool.Capacity()
}
