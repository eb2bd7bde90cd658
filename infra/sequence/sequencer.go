// Package sequence provides the order-id allocator used by the service
// layer. IDs are strictly monotonic, so an id is never handed out twice —
// which trivially satisfies the book's requirement that ids be unique
// among resting orders.
package sequence

import "sync/atomic"

type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer that will issue ids greater than start.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

// Next returns the next id.
func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued id.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}
