package bus

import (
	"sync/atomic"
)

// MPSC is a bounded multi-producer single-consumer queue. Each slot carries a
// sequence stamp: producers claim a position by CAS on head and publish by
// storing seq = pos+1; the consumer recycles a slot with seq = pos+capacity.
type MPSC[T any] struct {
	head  atomic.Uint64
	_pad1 [cacheLine - 8]byte
	tail  atomic.Uint64
	_pad2 [cacheLine - 8]byte
	slots []mpscSlot[T]
	mask  uint64
}

type mpscSlot[T any] struct {
	seq   atomic.Uint64
	value T
}

// NewMPSC allocates a queue of capacity slots. capacity must be a power of two >= 2.
func NewMPSC[T any](capacity int) (*MPSC[T], error) {
	if err := validate[T](capacity); err != nil {
		return nil, err
	}
	q := &MPSC[T]{slots: make([]mpscSlot[T], capacity), mask: uint64(capacity - 1)}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q, nil
}

// Push is safe from any number of goroutines. It returns false when full.
func (q *MPSC[T]) Push(v T) bool {
	for {
		pos := q.head.Load()
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()
		switch {
		case seq == pos:
			if q.head.CompareAndSwap(pos, pos+1) {
				s.value = v
				s.seq.Store(pos + 1)
				return true
			}
		case seq < pos:
			return false
		}
	}
}

// Pop is consumer-only.
func (q *MPSC[T]) Pop() (T, bool) {
	pos := q.tail.Load()
	s := &q.slots[pos&q.mask]
	if s.seq.Load() != pos+1 {
		var zero T
		return zero, false
	}
	v := s.value
	q.tail.Store(pos + 1)
	s.seq.Store(pos + uint64(len(q.slots)))
	return v, true
}

// Drain pops up to max elements into fn. max <= 0 drains everything visible.
func (q *MPSC[T]) Drain(max int, fn func(T)) int {
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

// Empty reports whether the next slot is published. A producer that has claimed
// but not yet published a slot keeps the queue empty.
func (q *MPSC[T]) Empty() bool {
	pos := q.tail.Load()
	return q.slots[pos&q.mask].seq.Load() != pos+1
}

// Len is an approximation of claimed but unconsumed slots.
func (q *MPSC[T]) Len() int {
	return int(q.head.Load() - q.tail.Load())
}

func (q *MPSC[T]) Cap() int {
	return len(q.slots)
}
