package bus

import (
	"context"
	"runtime"
	"time"

	"execcore/pkg/exception"
)

// Pusher is the producer side of SPSC and MPSC.
type Pusher[T any] interface {
	Push(T) bool
}

// Drainer is the consumer side of SPSC and MPSC.
type Drainer[T any] interface {
	Drain(max int, fn func(T)) int
	Empty() bool
}

// TryPublish enqueues v without blocking.
func TryPublish[T any](q Pusher[T], v T) error {
	if !q.Push(v) {
		return exception.ErrQueueFull
	}
	return nil
}

// Backoff is the idle policy of Run: spin Spins times, then yield Yields times,
// then sleep Sleep between polls.
type Backoff struct {
	Spins  int
	Yields int
	Sleep  time.Duration
}

// DefaultBackoff suits a consumer that shares cores with its producers.
var DefaultBackoff = Backoff{Spins: 64, Yields: 16, Sleep: 50 * time.Microsecond}

// Wait idles for the n-th consecutive empty poll, n starting at 1.
func (b Backoff) Wait(n int) {
	switch {
	case n <= b.Spins:
	case n <= b.Spins+b.Yields:
		runtime.Gosched()
	default:
		if b.Sleep > 0 {
			time.Sleep(b.Sleep)
		} else {
			runtime.Gosched()
		}
	}
}

// Run consumes q in batches of up to batch elements until ctx is done, then
// drains whatever is left so nothing published before cancellation is lost.
func Run[T any](ctx context.Context, q Drainer[T], batch int, policy Backoff, handler func(T)) {
	idle := 0
	for {
		select {
		case <-ctx.Done():
			q.Drain(0, handler)
			return
		default:
		}

		if q.Drain(batch, handler) == 0 {
			idle++
			policy.Wait(idle)
			continue
		}
		idle = 0
	}
}
