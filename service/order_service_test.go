package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"bulkbook/domain/orderbook"
	"bulkbook/feed"
	"bulkbook/infra/sequence"
)

type capturedUpdate struct {
	Bid *orderbook.LevelView `json:"bid"`
	Ask *orderbook.LevelView `json:"ask"`
}

type fakePublisher struct {
	updates []capturedUpdate
}

func (f *fakePublisher) Send(_ context.Context, _ []byte, value []byte) error {
	var u capturedUpdate
	if err := json.Unmarshal(value, &u); err != nil {
		return err
	}
	f.updates = append(f.updates, u)
	return nil
}

type fakeStream struct {
	events []feed.Event
}

func (f *fakeStream) StreamTrade(ev feed.Event) { f.events = append(f.events, ev) }

func newTestService(t *testing.T) (*OrderService, *feed.Ring, *fakePublisher, *fakeStream) {
	ring := feed.NewRing(64)
	pub := &fakePublisher{}
	stream := &fakeStream{}
	svc := NewOrderService(orderbook.New(), sequence.New(0), ring, pub, stream, zaptest.NewLogger(t))
	return svc, ring, pub, stream
}

func TestPlaceLimitAssignsUniqueIDs(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	id1, err := svc.PlaceLimit(orderbook.Bid, 100, 5)
	require.NoError(t, err)
	id2, err := svc.PlaceLimit(orderbook.Bid, 100, 5)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	ref, ok := svc.Order(id1)
	require.True(t, ok)
	assert.Equal(t, orderbook.Quantity(5), ref.Remaining)
	require.NoError(t, svc.VerifyInvariants())
}

func TestPlaceLimitRejectsZeroQuantity(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.PlaceLimit(orderbook.Bid, 100, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.ExecuteMarket(orderbook.Bid, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestExecuteMarketEmitsTradeEvents(t *testing.T) {
	svc, ring, _, stream := newTestService(t)

	_, err := svc.PlaceLimit(orderbook.Ask, 100, 1)
	require.NoError(t, err)
	_, err = svc.PlaceLimit(orderbook.Ask, 101, 2)
	require.NoError(t, err)

	fills, err := svc.ExecuteMarket(orderbook.Bid, 2)
	require.NoError(t, err)
	require.Len(t, fills, 2)
	assert.Equal(t, orderbook.Fill{Price: 100, Quantity: 1}, fills[0])
	assert.Equal(t, orderbook.Fill{Price: 101, Quantity: 1}, fills[1])

	// One event per fill, in match order, on both ring and stream.
	require.Equal(t, 2, ring.Len())
	ev1, _ := ring.Next()
	ev2, _ := ring.Next()
	assert.Equal(t, orderbook.Price(100), ev1.Price)
	assert.Equal(t, orderbook.Price(101), ev2.Price)
	assert.Less(t, ev1.Seq, ev2.Seq)
	assert.Equal(t, "bid", ev1.Side)

	require.Len(t, stream.events, 2)
	assert.Equal(t, ev1.Seq, stream.events[0].Seq)
	require.NoError(t, svc.VerifyInvariants())
}

func TestTopOfBookPublishedOnMutation(t *testing.T) {
	svc, _, pub, _ := newTestService(t)

	_, err := svc.PlaceLimit(orderbook.Bid, 100, 5)
	require.NoError(t, err)
	id, err := svc.PlaceLimit(orderbook.Ask, 105, 3)
	require.NoError(t, err)

	require.Len(t, pub.updates, 2)
	last := pub.updates[1]
	require.NotNil(t, last.Bid)
	require.NotNil(t, last.Ask)
	assert.Equal(t, orderbook.Price(100), last.Bid.Price)
	assert.Equal(t, orderbook.Price(105), last.Ask.Price)

	require.NoError(t, svc.Cancel(id))
	last = pub.updates[len(pub.updates)-1]
	assert.Nil(t, last.Ask)
}

func TestCancelUnknownID(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.Cancel(999)
	require.ErrorIs(t, err, orderbook.ErrOrderIDNotFound)
}

func TestStats(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.PlaceLimit(orderbook.Bid, 100, 5)
	require.NoError(t, err)
	_, err = svc.PlaceLimit(orderbook.Bid, 99, 5)
	require.NoError(t, err)
	_, err = svc.PlaceLimit(orderbook.Ask, 101, 5)
	require.NoError(t, err)

	st := svc.Stats()
	assert.Equal(t, 3, st.RestingOrders)
	assert.Equal(t, 2, st.BidLevels)
	assert.Equal(t, 1, st.AskLevels)
	assert.Equal(t, uint64(3), st.LastSeq)
	assert.Zero(t, st.FeedDropped)
}

func TestDepthQuery(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.PlaceLimit(orderbook.Ask, 105, 1)
	require.NoError(t, err)
	_, err = svc.PlaceLimit(orderbook.Ask, 103, 2)
	require.NoError(t, err)

	depth := svc.Depth(orderbook.Ask, 10)
	require.Len(t, depth, 2)
	assert.Equal(t, orderbook.Price(103), depth[0].Price)
	assert.Equal(t, orderbook.Price(105), depth[1].Price)
}
