package memory

import (
	"reflect"
	"unsafe"

	"execcore/pkg/exception"
)

const wordSize = 8

// Arena is a bump allocator over one pre-allocated buffer. It is not safe for
// concurrent use; Reset invalidates every slice handed out before it.
type Arena struct {
	buf    []uint64
	base   uintptr
	offset uintptr
	size   uintptr
}

// NewArena reserves size bytes, rounded up to a multiple of 8.
func NewArena(size int) (*Arena, error) {
	if size <= 0 {
		return nil, exception.ErrInvalidCapacity
	}
	words := (size + wordSize - 1) / wordSize
	buf := make([]uint64, words)
	return &Arena{
		buf:  buf,
		base: uintptr(unsafe.Pointer(&buf[0])),
		size: uintptr(words * wordSize),
	}, nil
}

// Alloc carves n zeroed values of T out of the arena, aligned for T.
// It returns nil when the arena is exhausted, n is not positive or T holds references.
func Alloc[T any](a *Arena, n int) []T {
	if a == nil || n <= 0 || !IsPlain[T]() {
		return nil
	}

	var zero T
	size := unsafe.Sizeof(zero)
	align := unsafe.Alignof(zero)
	if size == 0 {
		return make([]T, n)
	}

	start := (a.base + a.offset + align - 1) &^ (align - 1)
	pad := start - (a.base + a.offset)
	need := size * uintptr(n)
	if need/size != uintptr(n) || a.offset+pad+need > a.size {
		return nil
	}

	off := a.offset + pad
	a.offset = off + need

	raw := unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(&a.buf[0]), off)), need)
	clear(raw)
	return unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), n)
}

// AllocOne is Alloc for a single value.
func AllocOne[T any](a *Arena) *T {
	s := Alloc[T](a, 1)
	if s == nil {
		return nil
	}
	return &s[0]
}

// Reset discards every allocation.
func (a *Arena) Reset() {
	a.offset = 0
}

// Used returns bytes consumed including alignment padding.
func (a *Arena) Used() int {
	return int(a.offset)
}

func (a *Arena) Remaining() int {
	return int(a.size - a.offset)
}

func (a *Arena) Capacity() int {
	return int(a.size)
}

// PlainType runs CheckPlain on the dynamic type of v.
func PlainType(v any) error {
	return CheckPlain(reflect.TypeOf(v))
}
