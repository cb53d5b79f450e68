/*
Journal records engine events outside the hot path.

A Sink registers with the engine as an ordinary observer. Events are copied into
a bounded MPSC queue; a full queue drops the event and counts it. Run drains the
queue on its own goroutine and hands batches to every Writer (a gorm Store, a
Kafka Publisher, or both). Journaling is an audit trail only; engine state is
never rebuilt from it.
*/
package journal

import (
	"context"
	"sync/atomic"
	"time"

	"execcore/internal/bus"
	"execcore/internal/obs"
	"execcore/internal/schema"
	"execcore/pkg/exception"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const (
	DefaultBuffer        = 8192
	DefaultBatchSize     = 256
	DefaultFlushInterval = 200 * time.Millisecond

	closeFlushTimeout = 5 * time.Second
)

// Record is an event tagged with its journal sequence number.
type Record struct {
	Seq   uint64
	Event schema.Event
}

// Writer persists or forwards a batch of records.
type Writer interface {
	Write(ctx context.Context, records []Record) error
	Close() error
}

type Options struct {
	Buffer        int
	BatchSize     int
	FlushInterval time.Duration
	Metrics       *obs.Metrics
	// Seed starts the sequence; zero seeds from the wall clock.
	Seed uint64
}

// Sink buffers events from the engine and writes them in batches.
type Sink struct {
	queue   *bus.MPSC[schema.Event]
	writers []Writer
	metrics *obs.Metrics
	seq     *obs.SequenceGenerator
	batch   int
	flush   time.Duration

	buf     []Record
	collect func(schema.Event)

	written atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

func NewSink(opt Options, writers ...Writer) (*Sink, error) {
	if len(writers) == 0 {
		return nil, exception.ErrJournalNoWriter
	}
	if opt.Buffer == 0 {
		opt.Buffer = DefaultBuffer
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = DefaultBatchSize
	}
	if opt.FlushInterval <= 0 {
		opt.FlushInterval = DefaultFlushInterval
	}

	q, err := bus.NewMPSC[schema.Event](opt.Buffer)
	if err != nil {
		return nil, errors.Wrap(err, "journal buffer")
	}

	s := &Sink{
		queue:   q,
		writers: writers,
		metrics: opt.Metrics,
		seq:     obs.NewSequenceGenerator(opt.Seed),
		batch:   opt.BatchSize,
		flush:   opt.FlushInterval,
		buf:     make([]Record, 0, opt.BatchSize),
	}
	s.collect = func(ev schema.Event) {
		s.buf = append(s.buf, Record{Seq: s.seq.Next(), Event: ev})
	}
	return s, nil
}

// OnEvent enqueues ev without blocking. It is safe to call from any goroutine.
func (s *Sink) OnEvent(ev schema.Event) {
	if s.queue.Push(ev) {
		return
	}
	s.dropped.Add(1)
	s.metrics.IncJournalDrop()
}

// Run flushes on every interval until ctx is done, then flushes what is left
// and closes the writers.
func (s *Sink) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.flush)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
			s.Flush(final)
			cancel()
			return s.Close()
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

// Flush writes everything queued so far and returns the number of records
// handed to the writers. Only the goroutine running Run may call it while Run is active.
func (s *Sink) Flush(ctx context.Context) int {
	total := 0
	for {
		s.buf = s.buf[:0]
		if s.queue.Drain(s.batch, s.collect) == 0 {
			return total
		}
		s.write(ctx, s.buf)
		total += len(s.buf)
	}
}

func (s *Sink) write(ctx context.Context, records []Record) {
	ok := true
	for _, w := range s.writers {
		if err := w.Write(ctx, records); err != nil {
			ok = false
			logs.Errorf("journal: write %d records (seq %d-%d), err: %+v",
				len(records), records[0].Seq, records[len(records)-1].Seq, err)
		}
	}
	if ok {
		s.written.Add(uint64(len(records)))
	} else {
		s.failed.Add(uint64(len(records)))
	}
}

// Close closes every writer and returns the first error.
func (s *Sink) Close() error {
	var first error
	for _, w := range s.writers {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Written is the number of records accepted by every writer.
func (s *Sink) Written() uint64 { return s.written.Load() }

// Failed is the number of records at least one writer refused.
func (s *Sink) Failed() uint64 { return s.failed.Load() }

func (s *Sink) Dropped() uint64 { return s.dropped.Load() }

func (s *Sink) Pending() int { return s.queue.Len() }
