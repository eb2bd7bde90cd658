package orderbook

import "fmt"

type indexEntry struct {
	handle Handle
	price  Price
	side   Side
}

// Book is a single-instrument limit order book. It is single-writer and
// deterministic: every public operation mutates the book as one atomic
// logical step and performs no locking of its own, so concurrent callers
// need external synchronization.
type Book struct {
	bids  levelIndex
	asks  levelIndex
	arena *Arena
	index map[OrderID]indexEntry
}

func New() *Book {
	return &Book{
		bids:  newLevelIndex(true),
		asks:  newLevelIndex(false),
		arena: NewArena(),
		index: make(map[OrderID]indexEntry),
	}
}

func (b *Book) side(s Side) *levelIndex {
	if s == Bid {
		return &b.bids
	}
	return &b.asks
}

// PlaceLimit rests a limit order at price. The order never matches against
// the contra side at insertion time. Callers must supply qty > 0; an id
// already resting fails with ErrDuplicateOrderID and leaves the book
// unmodified.
func (b *Book) PlaceLimit(side Side, id OrderID, price Price, qty Quantity) error {
	if _, exists := b.index[id]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateOrderID, id)
	}

	h := b.arena.Insert(OrderNode{
		Remaining: qty,
		ID:        id,
		Prev:      NilHandle,
		Next:      NilHandle,
	})

	lvl := b.side(side).GetOrCreate(price)
	if err := lvl.enqueue(b.arena, h); err != nil {
		return err
	}

	b.index[id] = indexEntry{handle: h, price: price, side: side}
	return nil
}

// ExecuteMarket matches qty against the opposite side under price-time
// priority: best level to worst, head to tail within a level. It returns
// the fills in match order. An unmatched remainder is not an error; the
// market order itself never rests.
func (b *Book) ExecuteMarket(side Side, qty Quantity) ([]Fill, error) {
	contra := b.side(side.Opposite())
	var fills []Fill

	for qty > 0 {
		lvl := contra.Best()
		if lvl == nil {
			break
		}

		for qty > 0 && lvl.OrderCount > 0 {
			h := lvl.Head
			n := b.arena.Get(h)
			if n == nil {
				return fills, fmt.Errorf("%w: dangling head at price %d", ErrInternal, lvl.Price)
			}

			if qty >= n.Remaining {
				// Full consumption: emit, then drop the node everywhere.
				fills = append(fills, Fill{Price: lvl.Price, Quantity: n.Remaining})
				qty -= n.Remaining
				id := n.ID
				if err := lvl.unlink(b.arena, h); err != nil {
					return fills, err
				}
				b.arena.Remove(h)
				delete(b.index, id)
			} else {
				// Partial fill: the head keeps resting with reduced size.
				fills = append(fills, Fill{Price: lvl.Price, Quantity: qty})
				n.Remaining -= qty
				lvl.TotalQty -= qty
				qty = 0
			}
		}

		if lvl.Empty() {
			contra.Delete(lvl.Price)
		}
	}

	return fills, nil
}

// Cancel removes the resting order id. An absent id fails with
// ErrOrderIDNotFound and leaves the book unmodified.
func (b *Book) Cancel(id OrderID) error {
	entry, ok := b.index[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrOrderIDNotFound, id)
	}

	lvl := b.side(entry.side).Find(entry.price)
	if lvl == nil {
		return fmt.Errorf("%w: id %d maps to missing level %d", ErrInternal, id, entry.price)
	}

	if err := lvl.unlink(b.arena, entry.handle); err != nil {
		return err
	}
	if lvl.Empty() {
		b.side(entry.side).Delete(entry.price)
	}
	b.arena.Remove(entry.handle)
	delete(b.index, id)
	return nil
}

// Clone deep-copies the book. Handles from one instance are never valid
// in another.
func (b *Book) Clone() *Book {
	index := make(map[OrderID]indexEntry, len(b.index))
	for id, e := range b.index {
		index[id] = e
	}
	return &Book{
		bids:  b.bids.Clone(),
		asks:  b.asks.Clone(),
		arena: b.arena.Clone(),
		index: index,
	}
}

// ---- read-only views ----

// Len is the number of resting orders.
func (b *Book) Len() int { return len(b.index) }

// SideLevels is the number of distinct price levels on one side.
func (b *Book) SideLevels(s Side) int { return b.side(s).Size() }

// Best returns the most aggressive level view for one side.
func (b *Book) Best(s Side) (LevelView, bool) {
	lvl := b.side(s).Best()
	if lvl == nil {
		return LevelView{}, false
	}
	return LevelView{Price: lvl.Price, OrderCount: lvl.OrderCount, TotalQty: lvl.TotalQty}, true
}

// Depth walks one side best-to-worst, returning up to maxLevels levels
// with their resting orders in FIFO order. maxLevels <= 0 means all.
func (b *Book) Depth(s Side, maxLevels int) []LevelView {
	var out []LevelView
	b.side(s).Walk(func(lvl *PriceLevel) bool {
		view := LevelView{
			Price:      lvl.Price,
			OrderCount: lvl.OrderCount,
			TotalQty:   lvl.TotalQty,
		}
		for h := lvl.Head; h != NilHandle; {
			n := b.arena.Get(h)
			if n == nil {
				break
			}
			view.Orders = append(view.Orders, OrderRef{
				ID:        n.ID,
				Side:      s,
				Price:     lvl.Price,
				Remaining: n.Remaining,
			})
			h = n.Next
		}
		out = append(out, view)
		return maxLevels <= 0 || len(out) < maxLevels
	})
	return out
}

// Order returns a view of one resting order.
func (b *Book) Order(id OrderID) (OrderRef, bool) {
	entry, ok := b.index[id]
	if !ok {
		return OrderRef{}, false
	}
	n := b.arena.Get(entry.handle)
	if n == nil {
		return OrderRef{}, false
	}
	return OrderRef{ID: id, Side: entry.side, Price: entry.price, Remaining: n.Remaining}, true
}

// CheckInvariants verifies the structural invariants of the book: list
// lengths match order counts, every indexed id resolves to a node
// reachable from its level's head, quantities stay positive, and the
// arena holds exactly the indexed nodes. It returns the first violation
// found, wrapped in ErrInternal.
func (b *Book) CheckInvariants() error {
	seen := 0
	for _, s := range []Side{Bid, Ask} {
		var walkErr error
		b.side(s).Walk(func(lvl *PriceLevel) bool {
			walkErr = b.checkLevel(s, lvl)
			if walkErr == nil {
				seen += lvl.OrderCount
			}
			return walkErr == nil
		})
		if walkErr != nil {
			return walkErr
		}
	}
	if seen != len(b.index) {
		return fmt.Errorf("%w: %d orders reachable, index holds %d", ErrInternal, seen, len(b.index))
	}
	if b.arena.Len() != len(b.index) {
		return fmt.Errorf("%w: arena holds %d live nodes, index holds %d", ErrInternal, b.arena.Len(), len(b.index))
	}
	return nil
}

func (b *Book) checkLevel(s Side, lvl *PriceLevel) error {
	if lvl.OrderCount <= 0 {
		return fmt.Errorf("%w: empty level %d still indexed on %s side", ErrInternal, lvl.Price, s)
	}
	count := 0
	var total Quantity
	prev := NilHandle
	for h := lvl.Head; h != NilHandle; {
		n := b.arena.Get(h)
		if n == nil {
			return fmt.Errorf("%w: dead handle %d in level %d", ErrInternal, h, lvl.Price)
		}
		if n.Prev != prev {
			return fmt.Errorf("%w: broken back link at order %d, level %d", ErrInternal, n.ID, lvl.Price)
		}
		if n.Remaining == 0 {
			return fmt.Errorf("%w: resting order %d has zero remaining", ErrInternal, n.ID)
		}
		entry, ok := b.index[n.ID]
		if !ok || entry.handle != h || entry.price != lvl.Price || entry.side != s {
			return fmt.Errorf("%w: index entry for order %d disagrees with level %d", ErrInternal, n.ID, lvl.Price)
		}
		count++
		total += n.Remaining
		if count > lvl.OrderCount {
			break
		}
		prev = h
		h = n.Next
	}
	if count != lvl.OrderCount {
		return fmt.Errorf("%w: level %d lists %d orders, count says %d", ErrInternal, lvl.Price, count, lvl.OrderCount)
	}
	if total != lvl.TotalQty {
		return fmt.Errorf("%w: level %d sums qty %d, total says %d", ErrInternal, lvl.Price, total, lvl.TotalQty)
	}
	if lvl.Tail != prev {
		return fmt.Errorf("%w: level %d tail does not match last node", ErrInternal, lvl.Price)
	}
	return nil
}
