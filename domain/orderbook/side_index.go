package orderbook

// levelIndex is one side's ordered set of price levels. The same matching
// and traversal code serves both sides; only the direction differs — bids
// order best-to-worst as descending price, asks as ascending.
type levelIndex struct {
	tree *rbTree
	desc bool
}

func newLevelIndex(desc bool) levelIndex {
	return levelIndex{tree: newRBTree(), desc: desc}
}

// Best returns the most aggressive level, or nil when the side is empty.
func (ix levelIndex) Best() *PriceLevel {
	if ix.desc {
		return ix.tree.Max()
	}
	return ix.tree.Min()
}

func (ix levelIndex) Find(price Price) *PriceLevel {
	return ix.tree.Find(price)
}

func (ix levelIndex) GetOrCreate(price Price) *PriceLevel {
	return ix.tree.GetOrCreate(price)
}

func (ix levelIndex) Delete(price Price) bool {
	return ix.tree.Delete(price)
}

func (ix levelIndex) Size() int {
	return ix.tree.Size()
}

// Walk visits levels best-to-worst until fn returns false.
func (ix levelIndex) Walk(fn func(*PriceLevel) bool) {
	if ix.desc {
		ix.tree.WalkDesc(fn)
	} else {
		ix.tree.WalkAsc(fn)
	}
}

func (ix levelIndex) Clone() levelIndex {
	return levelIndex{tree: ix.tree.Clone(), desc: ix.desc}
}
