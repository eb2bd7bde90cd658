package orderbook

// Handle addresses a slot in the Arena. It is an opaque key, not a memory
// address, and carries no ordering meaning. A handle is stale as soon as
// its slot is removed and must not be dereferenced afterwards.
type Handle int32

const NilHandle Handle = -1

// OrderNode is the arena-resident record for one resting order. The Prev
// and Next handles form the intrusive FIFO list rooted by the order's
// PriceLevel. The arena alone owns node lifetime; price levels and the
// order index hold non-owning handles into it.
type OrderNode struct {
	Remaining Quantity
	ID        OrderID
	Prev      Handle
	Next      Handle
}

type arenaSlot struct {
	node     OrderNode
	nextFree Handle
	live     bool
}

// Arena is a slab allocator for OrderNodes: O(1) insert and remove, with
// freed slots chained into a free list and reused by later inserts.
type Arena struct {
	slots []arenaSlot
	free  Handle
	live  int
}

func NewArena() *Arena {
	return &Arena{free: NilHandle}
}

// Insert stores n and returns its handle, reusing a freed slot when one
// is available.
func (a *Arena) Insert(n OrderNode) Handle {
	if a.free != NilHandle {
		h := a.free
		s := &a.slots[h]
		a.free = s.nextFree
		s.node = n
		s.live = true
		a.live++
		return h
	}
	a.slots = append(a.slots, arenaSlot{node: n, nextFree: NilHandle, live: true})
	a.live++
	return Handle(len(a.slots) - 1)
}

// Get returns the node at h, or nil when h is out of range or its slot is
// dead. The pointer is valid only until the next Insert.
func (a *Arena) Get(h Handle) *OrderNode {
	if h < 0 || int(h) >= len(a.slots) || !a.slots[h].live {
		return nil
	}
	return &a.slots[h].node
}

// Remove frees the slot at h. Reports false when h was not live.
func (a *Arena) Remove(h Handle) bool {
	if h < 0 || int(h) >= len(a.slots) || !a.slots[h].live {
		return false
	}
	s := &a.slots[h]
	s.live = false
	s.node = OrderNode{}
	s.nextFree = a.free
	a.free = h
	a.live--
	return true
}

// Len is the number of live nodes.
func (a *Arena) Len() int { return a.live }

// Clone deep-copies the arena. Handles remain valid in the copy but the
// two arenas share no storage.
func (a *Arena) Clone() *Arena {
	c := &Arena{
		slots: make([]arenaSlot, len(a.slots)),
		free:  a.free,
		live:  a.live,
	}
	copy(c.slots, a.slots)
	return c
}
