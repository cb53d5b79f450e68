package exception

import "github.com/yanun0323/errors"

// Queue, pool and arena errors
var (
	ErrNotPowerOfTwo   = errors.New("capacity must be a power of two")
	ErrNotPlainType    = errors.New("type must be trivially copyable")
	ErrInvalidCapacity = errors.New("capacity must be positive")
	ErrQueueFull       = errors.New("queue full")
	ErrPoolExhausted   = errors.New("pool exhausted")
	ErrForeignPointer  = errors.New("pointer does not belong to pool")
)
