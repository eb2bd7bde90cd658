package orderbook

import "errors"

// Price is a signed integer price in the instrument's smallest tick.
type Price int64

// Quantity is an order size. It is strictly positive for any resting order.
type Quantity uint64

// OrderID identifies an order. IDs are caller-supplied and must be unique
// among currently resting orders; an id may be reused once the order is
// fully removed.
type OrderID uint64

type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// Fill is one matched segment of a market order's execution: Quantity
// traded at Price against the resting order at the head of a level.
type Fill struct {
	Price    Price
	Quantity Quantity
}

var (
	// ErrDuplicateOrderID rejects a limit order whose id is already resting.
	ErrDuplicateOrderID = errors.New("orderbook: duplicate order id")

	// ErrOrderIDNotFound rejects a cancel for an id that is not resting.
	ErrOrderIDNotFound = errors.New("orderbook: order id not found")

	// ErrInternal reports a broken structural invariant (an index pointing
	// at a node or level that does not exist). It is a defect signal, never
	// a business outcome, and must not be retried.
	ErrInternal = errors.New("orderbook: internal invariant violation")
)

// LevelView is a read-only snapshot of one price level.
type LevelView struct {
	Price      Price      `json:"price"`
	OrderCount int        `json:"order_count"`
	TotalQty   Quantity   `json:"total_qty"`
	Orders     []OrderRef `json:"orders,omitempty"`
}

// OrderRef is a read-only snapshot of one resting order.
type OrderRef struct {
	ID        OrderID  `json:"id"`
	Side      Side     `json:"side"`
	Price     Price    `json:"price"`
	Remaining Quantity `json:"remaining"`
}
