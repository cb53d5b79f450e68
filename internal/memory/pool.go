package memory

import (
	"sync/atomic"
	"unsafe"

	"execcore/pkg/exception"
)

const cacheLine = 64

// Pool is a fixed-capacity object pool backed by a lock-free free list.
// Every slot is allocated once at construction; Allocate and Deallocate never
// touch the Go allocator.
type Pool[T any] struct {
	// head packs (tag << 32 | index+1); index+1 == 0 means the list is empty.
	head  atomic.Uint64
	_pad1 [cacheLine - 8]byte
	used  atomic.Int64
	_pad2 [cacheLine - 8]byte
	nodes []poolNode[T]
}

type poolNode[T any] struct {
	next  atomic.Uint32
	inUse atomic.Bool
	value T
}

// NewPool pre-constructs capacity zero-valued slots.
func NewPool[T any](capacity int) (*Pool[T], error) {
	if capacity <= 0 || capacity >= 1<<32-1 {
		return nil, exception.ErrInvalidCapacity
	}
	p := &Pool[T]{nodes: make([]poolNode[T], capacity)}
	for i := 0; i < capacity-1; i++ {
		p.nodes[i].next.Store(uint32(i + 2))
	}
	p.head.Store(1)
	return p, nil
}

// Allocate pops a free slot and returns it zeroed, or nil when the pool is exhausted.
func (p *Pool[T]) Allocate() *T {
	n := p.pop()
	if n == nil {
		return nil
	}
	return &n.value
}

// AllocateWith pops a free slot and constructs it in place with init.
func (p *Pool[T]) AllocateWith(init func(*T)) *T {
	v := p.Allocate()
	if v != nil && init != nil {
		init(v)
	}
	return v
}

// Deallocate resets the object and returns its slot to the free list.
// It refuses pointers that are not live slots of this pool.
func (p *Pool[T]) Deallocate(v *T) bool {
	idx, ok := p.indexOf(v)
	if !ok {
		return false
	}
	n := &p.nodes[idx]
	if !n.inUse.CompareAndSwap(true, false) {
		return false
	}
	var zero T
	n.value = zero
	p.push(uint32(idx))
	return true
}

// Allocated returns the number of outstanding objects.
func (p *Pool[T]) Allocated() int {
	return int(p.used.Load())
}

// Available returns the number of free slots.
func (p *Pool[T]) Available() int {
	return len(p.nodes) - p.Allocated()
}

func (p *Pool[T]) Capacity() int {
	return len(p.nodes)
}

func (p *Pool[T]) pop() *poolNode[T] {
	for {
		old := p.head.Load()
		idx := uint32(old)
		if idx == 0 {
			return nil
		}
		n := &p.nodes[idx-1]
		next := n.next.Load()
		tag := old>>32 + 1
		if p.head.CompareAndSwap(old, tag<<32|uint64(next)) {
			n.inUse.Store(true)
			p.used.Add(1)
			return n
		}
	}
}

func (p *Pool[T]) push(idx uint32) {
	n := &p.nodes[idx]
	p.used.Add(-1)
	for {
		old := p.head.Load()
		n.next.Store(uint32(old))
		tag := old>>32 + 1
		if p.head.CompareAndSwap(old, tag<<32|uint64(idx+1)) {
			return
		}
	}
}

func (p *Pool[T]) indexOf(v *T) (int, bool) {
	if v == nil || len(p.nodes) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(&p.nodes[0].value))
	addr := uintptr(unsafe.Pointer(v))
	if addr < base {
		return 0, false
	}
	size := unsafe.Sizeof(p.nodes[0])
	off := addr - base
	if off%size != 0 {
		return 0, false
	}
	idx := int(off / size)
	if idx >= len(p.nodes) {
		return 0, false
	}
	return idx, true
}
