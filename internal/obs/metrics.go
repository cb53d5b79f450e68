package obs

import (
	"sync/atomic"
	"time"

	"execcore/internal/schema"
)

// rejectCodes lists the error codes tracked per rejection, in index order.
var rejectCodes = [...]schema.ErrorCode{
	schema.ErrorCodeInvalidSymbol,
	schema.ErrorCodeInvalidQuantity,
	schema.ErrorCodeInvalidPrice,
	schema.ErrorCodeInsufficientMargin,
	schema.ErrorCodeRiskLimitExceeded,
	schema.ErrorCodeOrderNotFound,
	schema.ErrorCodePositionNotFound,
	schema.ErrorCodeNetworkError,
	schema.ErrorCodeTimeout,
	schema.ErrorCodeRateLimited,
	schema.ErrorCodeInternalError,
}

// Metrics collects lightweight counters and latency stats. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	eventCounts  [schema.EventTypeCount]uint64
	rejectCounts [len(rejectCodes)]uint64
	tickDrops    uint64
	commandDrops uint64
	journalDrops uint64
	ticksApplied uint64

	submitLatency LatencyStats
	cycleLatency  LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	EventCounts   map[schema.EventType]uint64
	RejectCounts  map[schema.ErrorCode]uint64
	TickDrops     uint64
	CommandDrops  uint64
	JournalDrops  uint64
	TicksApplied  uint64
	SubmitLatency LatencySnapshot
	CycleLatency  LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent counts an engine event and, for rejections, its error code.
func (m *Metrics) ObserveEvent(e schema.Event) {
	if m == nil {
		return
	}
	if e.Type.IsAvailable() {
		atomic.AddUint64(&m.eventCounts[e.Type], 1)
	}
	if e.Type == schema.EventOrderRejected {
		if idx := rejectIndex(e.Error); idx >= 0 {
			atomic.AddUint64(&m.rejectCounts[idx], 1)
		}
	}
}

func rejectIndex(code schema.ErrorCode) int {
	for i, c := range rejectCodes {
		if c == code {
			return i
		}
	}
	return -1
}

// IncTickDrop records a tick refused by a full feed queue.
func (m *Metrics) IncTickDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.tickDrops, 1)
}

// IncCommandDrop records a command refused by a full command queue.
func (m *Metrics) IncCommandDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.commandDrops, 1)
}

// IncJournalDrop records an event the journal could not buffer.
func (m *Metrics) IncJournalDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.journalDrops, 1)
}

// AddTicksApplied counts coalesced ticks applied to books.
func (m *Metrics) AddTicksApplied(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.ticksApplied, uint64(n))
}

// ObserveSubmit measures the engine side of an order submission.
func (m *Metrics) ObserveSubmit(d time.Duration) {
	if m == nil {
		return
	}
	m.submitLatency.Observe(d)
}

// ObserveCycle measures one runner step.
func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	eventCounts := make(map[schema.EventType]uint64)
	for i := range m.eventCounts {
		if v := atomic.LoadUint64(&m.eventCounts[i]); v > 0 {
			eventCounts[schema.EventType(i)] = v
		}
	}
	rejectCounts := make(map[schema.ErrorCode]uint64)
	for i := range m.rejectCounts {
		if v := atomic.LoadUint64(&m.rejectCounts[i]); v > 0 {
			rejectCounts[rejectCodes[i]] = v
		}
	}
	return Snapshot{
		EventCounts:   eventCounts,
		RejectCounts:  rejectCounts,
		TickDrops:     atomic.LoadUint64(&m.tickDrops),
		CommandDrops:  atomic.LoadUint64(&m.commandDrops),
		JournalDrops:  atomic.LoadUint64(&m.journalDrops),
		TicksApplied:  atomic.LoadUint64(&m.ticksApplied),
		SubmitLatency: m.submitLatency.Snapshot(),
		CycleLatency:  m.cycleLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		cur := atomic.LoadUint64(&l.min)
		if cur != 0 && nanos >= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, cur, nanos) {
			break
		}
	}

	for {
		cur := atomic.LoadUint64(&l.max)
		if nanos <= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, cur, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(atomic.LoadUint64(&l.sum) / count),
	}
}
