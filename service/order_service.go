// Package service owns the single write path into the order book. The
// book itself performs no locking; OrderService provides the external
// serialization the core requires, allocates order ids, and fans executed
// trades out to the feed ring and any attached stream.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"bulkbook/domain/orderbook"
	"bulkbook/feed"
	"bulkbook/infra/sequence"
)

// ErrInvalidQuantity rejects non-positive quantities at the service
// boundary; the book's own contract assumes qty > 0.
var ErrInvalidQuantity = errors.New("service: quantity must be positive")

// TopOfBookPublisher receives best-bid/best-ask updates after each
// mutating operation. infra/kafka.Producer satisfies it.
type TopOfBookPublisher interface {
	Send(ctx context.Context, key, value []byte) error
}

// TradeStreamer receives each trade event synchronously, in match order.
// The websocket hub satisfies it.
type TradeStreamer interface {
	StreamTrade(feed.Event)
}

type OrderService struct {
	mu   sync.Mutex
	book *orderbook.Book
	ids  *sequence.Sequencer
	ring *feed.Ring

	tob    TopOfBookPublisher // optional
	stream TradeStreamer      // optional
	log    *zap.Logger
}

// NewOrderService wires all dependencies. tob and stream may be nil.
func NewOrderService(
	book *orderbook.Book,
	ids *sequence.Sequencer,
	ring *feed.Ring,
	tob TopOfBookPublisher,
	stream TradeStreamer,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		book:   book,
		ids:    ids,
		ring:   ring,
		tob:    tob,
		stream: stream,
		log:    log,
	}
}

// ---- commands ----

// PlaceLimit rests a new limit order and returns its assigned id.
func (s *OrderService) PlaceLimit(side orderbook.Side, price orderbook.Price, qty orderbook.Quantity) (orderbook.OrderID, error) {
	if qty == 0 {
		return 0, ErrInvalidQuantity
	}
	id := orderbook.OrderID(s.ids.Next())

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.book.PlaceLimit(side, id, price, qty); err != nil {
		return 0, err
	}
	s.publishTopOfBook()
	return id, nil
}

// ExecuteMarket matches qty against the contra side and returns the fills.
// Each fill is emitted as a trade event.
func (s *OrderService) ExecuteMarket(side orderbook.Side, qty orderbook.Quantity) ([]orderbook.Fill, error) {
	if qty == 0 {
		return nil, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fills, err := s.book.ExecuteMarket(side, qty)
	if err != nil {
		return fills, err
	}

	now := time.Now().UnixNano()
	for _, f := range fills {
		ev := feed.Event{
			Seq:   s.ids.Next(),
			Taker: side,
			Side:  side.String(),
			Price: f.Price,
			Qty:   f.Quantity,
			Ts:    now,
		}
		if s.ring != nil && !s.ring.Publish(ev) {
			s.log.Warn("feed ring full, trade event dropped", zap.Uint64("seq", ev.Seq))
		}
		if s.stream != nil {
			s.stream.StreamTrade(ev)
		}
	}
	if len(fills) > 0 {
		s.publishTopOfBook()
	}
	return fills, nil
}

// Cancel removes a resting order.
func (s *OrderService) Cancel(id orderbook.OrderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.book.Cancel(id); err != nil {
		return err
	}
	s.publishTopOfBook()
	return nil
}

// ---- queries ----

func (s *OrderService) Depth(side orderbook.Side, levels int) []orderbook.LevelView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Depth(side, levels)
}

func (s *OrderService) Order(id orderbook.OrderID) (orderbook.OrderRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Order(id)
}

type Stats struct {
	RestingOrders int    `json:"resting_orders"`
	BidLevels     int    `json:"bid_levels"`
	AskLevels     int    `json:"ask_levels"`
	LastSeq       uint64 `json:"last_seq"`
	FeedBuffered  int    `json:"feed_buffered"`
	FeedDropped   uint64 `json:"feed_dropped"`
}

func (s *OrderService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		RestingOrders: s.book.Len(),
		BidLevels:     s.book.SideLevels(orderbook.Bid),
		AskLevels:     s.book.SideLevels(orderbook.Ask),
		LastSeq:       s.ids.Current(),
	}
	if s.ring != nil {
		st.FeedBuffered = s.ring.Len()
		st.FeedDropped = s.ring.Dropped()
	}
	return st
}

// VerifyInvariants runs the book's structural checks. Exposed for the
// debug endpoint and test harnesses.
func (s *OrderService) VerifyInvariants() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.CheckInvariants()
}

// ---- top of book ----

type topOfBook struct {
	Bid *orderbook.LevelView `json:"bid"`
	Ask *orderbook.LevelView `json:"ask"`
	Ts  int64                `json:"ts"`
}

// publishTopOfBook is best effort: the writer is async and a failed update
// is superseded by the next one. Caller holds the lock.
func (s *OrderService) publishTopOfBook() {
	if s.tob == nil {
		return
	}
	snap := topOfBook{Ts: time.Now().UnixNano()}
	if best, ok := s.book.Best(orderbook.Bid); ok {
		snap.Bid = &best
	}
	if best, ok := s.book.Best(orderbook.Ask); ok {
		snap.Ask = &best
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("top-of-book marshal failed", zap.Error(err))
		return
	}
	if err := s.tob.Send(context.Background(), []byte("tob"), payload); err != nil {
		s.log.Warn("top-of-book publish failed", zap.Error(err))
	}
}
