// Package feed carries executed-trade events from the matcher to
// downstream publishers over a bounded single-producer single-consumer
// ring. The matcher never blocks on a slow consumer: a full ring drops
// the event and counts the drop.
package feed

import (
	"sync/atomic"

	"bulkbook/domain/orderbook"
)

// Event is one fill as seen by the taker.
type Event struct {
	Seq   uint64             `json:"seq"`
	Taker orderbook.Side     `json:"-"`
	Side  string             `json:"side"`
	Price orderbook.Price    `json:"price"`
	Qty   orderbook.Quantity `json:"qty"`
	Ts    int64              `json:"ts"`
}

// Ring is an SPSC ring buffer. head and tail sit on separate cache lines.
type Ring struct {
	head    uint64
	_pad1   [56]byte
	tail    uint64
	_pad2   [56]byte
	buf     []Event
	mask    uint64
	dropped atomic.Uint64
}

// NewRing allocates a ring of at least size slots, rounded up to a power
// of two.
func NewRing(size uint64) *Ring {
	n := uint64(1)
	for n < size {
		n <<= 1
	}
	return &Ring{buf: make([]Event, n), mask: n - 1}
}

// Publish enqueues ev. Reports false (and counts a drop) when full.
func (r *Ring) Publish(ev Event) bool {
	h := r.head
	t := atomic.LoadUint64(&r.tail)
	if h-t == uint64(len(r.buf)) {
		r.dropped.Add(1)
		return false
	}
	r.buf[h&r.mask] = ev
	atomic.StoreUint64(&r.head, h+1)
	return true
}

// Next dequeues the oldest event. Reports false when empty.
func (r *Ring) Next() (Event, bool) {
	t := r.tail
	h := atomic.LoadUint64(&r.head)
	if t == h {
		return Event{}, false
	}
	ev := r.buf[t&r.mask]
	atomic.StoreUint64(&r.tail, t+1)
	return ev, true
}

// Len is the number of buffered events.
func (r *Ring) Len() int {
	h := atomic.LoadUint64(&r.head)
	t := atomic.LoadUint64(&r.tail)
	return int(h - t)
}

// Cap is the ring capacity.
func (r *Ring) Cap() int { return len(r.buf) }

// Dropped is the number of events lost to a full ring.
func (r *Ring) Dropped() uint64 { return r.dropped.Load() }
