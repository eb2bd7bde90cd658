package orderbook

// PriceLevel is the FIFO queue of resting orders at a single price on one
// side. Head and Tail are arena handles; list order is arrival order, with
// the earliest order at the head.
type PriceLevel struct {
	Price      Price
	Head       Handle
	Tail       Handle
	OrderCount int
	TotalQty   Quantity
}

func newPriceLevel(price Price) *PriceLevel {
	return &PriceLevel{Price: price, Head: NilHandle, Tail: NilHandle}
}

// enqueue appends the node at h to the tail of the level.
func (lvl *PriceLevel) enqueue(ar *Arena, h Handle) error {
	n := ar.Get(h)
	if n == nil {
		return ErrInternal
	}
	n.Prev = lvl.Tail
	n.Next = NilHandle

	if lvl.Tail != NilHandle {
		tail := ar.Get(lvl.Tail)
		if tail == nil {
			return ErrInternal
		}
		tail.Next = h
	} else {
		lvl.Head = h
	}
	lvl.Tail = h
	lvl.OrderCount++
	lvl.TotalQty += n.Remaining
	return nil
}

// unlink splices the node at h out of the level, wherever it sits in the
// list. The node's own links are cleared; its arena slot is untouched.
func (lvl *PriceLevel) unlink(ar *Arena, h Handle) error {
	n := ar.Get(h)
	if n == nil {
		return ErrInternal
	}

	if n.Prev != NilHandle {
		prev := ar.Get(n.Prev)
		if prev == nil {
			return ErrInternal
		}
		prev.Next = n.Next
	} else {
		lvl.Head = n.Next
	}

	if n.Next != NilHandle {
		next := ar.Get(n.Next)
		if next == nil {
			return ErrInternal
		}
		next.Prev = n.Prev
	} else {
		lvl.Tail = n.Prev
	}

	lvl.OrderCount--
	lvl.TotalQty -= n.Remaining
	n.Prev, n.Next = NilHandle, NilHandle
	return nil
}

func (lvl *PriceLevel) Empty() bool {
	return lvl.OrderCount == 0
}

func (lvl *PriceLevel) clone() *PriceLevel {
	c := *lvl
	return &c
}
