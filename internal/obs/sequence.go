package obs

import (
	"sync/atomic"
	"time"
)

// SequenceGenerator hands out monotonically increasing ids, e.g. for journal records.
type SequenceGenerator struct {
	next uint64
}

// NewSequenceGenerator returns a generator seeded with the given value. A zero
// seed starts from the current time so restarts do not collide.
func NewSequenceGenerator(seed uint64) *SequenceGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &SequenceGenerator{next: seed}
}

// Next returns the next id.
func (g *SequenceGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.next, 1)
}
