package bus

import (
	"reflect"
	"sync/atomic"

	"execcore/internal/memory"
	"execcore/pkg/exception"
)

const cacheLine = 64

// SPSC is a bounded single-producer single-consumer ring.
// head is written only by the producer and tail only by the consumer; one slot
// stays empty so full and empty are distinguishable.
type SPSC[T any] struct {
	head  atomic.Uint64
	_pad1 [cacheLine - 8]byte
	tail  atomic.Uint64
	_pad2 [cacheLine - 8]byte
	buf   []T
	mask  uint64
}

// NewSPSC allocates a ring of capacity slots. capacity must be a power of two >= 2.
func NewSPSC[T any](capacity int) (*SPSC[T], error) {
	if err := validate[T](capacity); err != nil {
		return nil, err
	}
	return &SPSC[T]{buf: make([]T, capacity), mask: uint64(capacity - 1)}, nil
}

// Push is producer-only. It returns false when the ring is full.
func (q *SPSC[T]) Push(v T) bool {
	h := q.head.Load()
	next := (h + 1) & q.mask
	if next == q.tail.Load() {
		return false
	}
	q.buf[h] = v
	q.head.Store(next)
	return true
}

// Pop is consumer-only.
func (q *SPSC[T]) Pop() (T, bool) {
	t := q.tail.Load()
	if t == q.head.Load() {
		var zero T
		return zero, false
	}
	v := q.buf[t]
	q.tail.Store((t + 1) & q.mask)
	return v, true
}

// Peek returns the oldest element without consuming it.
func (q *SPSC[T]) Peek() (T, bool) {
	t := q.tail.Load()
	if t == q.head.Load() {
		var zero T
		return zero, false
	}
	return q.buf[t], true
}

// Drain pops up to max elements into fn and returns how many were consumed.
// max <= 0 drains everything visible.
func (q *SPSC[T]) Drain(max int, fn func(T)) int {
	n := 0
	for max <= 0 || n < max {
		v, ok := q.Pop()
		if !ok {
			break
		}
		fn(v)
		n++
	}
	return n
}

// Len is a snapshot; it may be stale by the time it returns.
func (q *SPSC[T]) Len() int {
	h := q.head.Load()
	t := q.tail.Load()
	return int((h - t) & q.mask)
}

func (q *SPSC[T]) Empty() bool {
	return q.head.Load() == q.tail.Load()
}

// Cap returns the usable capacity, one less than the slot count.
func (q *SPSC[T]) Cap() int {
	return len(q.buf) - 1
}

func validate[T any](capacity int) error {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return exception.ErrNotPowerOfTwo
	}
	return memory.CheckPlain(reflect.TypeFor[T]())
}
