package execution

import "execcore/internal/schema"

// Observer receives every engine event, synchronously and in emission order.
// Observers run outside the engine lock and may call back into the engine.
type Observer interface {
	OnEvent(schema.Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(schema.Event)

func (f ObserverFunc) OnEvent(e schema.Event) {
	f(e)
}

// eventBuf collects the events of one operation while the lock is held.
// The common case fits inline.
type eventBuf struct {
	inline [8]schema.Event
	n      int
	extra  []schema.Event
}

func (b *eventBuf) add(e schema.Event) {
	if b.n < len(b.inline) {
		b.inline[b.n] = e
		b.n++
		return
	}
	b.extra = append(b.extra, e)
}

func (b *eventBuf) each(fn func(schema.Event)) {
	for i := 0; i < b.n; i++ {
		fn(b.inline[i])
	}
	for i := range b.extra {
		fn(b.extra[i])
	}
}

func (b *eventBuf) len() int {
	return b.n + len(b.extra)
}

func newEvent(typ schema.EventType, code schema.ErrorCode, id uint64, symbol schema.Symbol, price schema.Price, qty schema.Quantity, ts int64, msg string) schema.Event {
	return schema.Event{
		Type:      typ,
		Error:     code,
		OrderID:   id,
		Symbol:    symbol,
		Price:     price,
		Quantity:  qty,
		Timestamp: ts,
		Message:   schema.NewStr64(msg),
	}
}
