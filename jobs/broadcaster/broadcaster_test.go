package broadcaster

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"bulkbook/feed"
)

func newMockProducer(t *testing.T) *mocks.SyncProducer {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return mocks.NewSyncProducer(t, cfg)
}

func TestDrainPublishesAllBufferedEvents(t *testing.T) {
	ring := feed.NewRing(16)
	for i := uint64(1); i <= 3; i++ {
		require.True(t, ring.Publish(feed.Event{Seq: i, Side: "bid", Price: 100, Qty: 1}))
	}

	producer := newMockProducer(t)
	for i := 0; i < 3; i++ {
		producer.ExpectSendMessageAndSucceed()
	}

	b := NewWithProducer(producer, "trades", ring, 0, zaptest.NewLogger(t))
	b.drainOnce()

	assert.Equal(t, 0, ring.Len())
	require.NoError(t, producer.Close())
}

func TestFailedPublishIsRetriedInOrder(t *testing.T) {
	ring := feed.NewRing(16)
	require.True(t, ring.Publish(feed.Event{Seq: 1}))
	require.True(t, ring.Publish(feed.Event{Seq: 2}))

	producer := newMockProducer(t)
	producer.ExpectSendMessageAndFail(sarama.ErrBrokerNotAvailable)

	b := NewWithProducer(producer, "trades", ring, 0, zaptest.NewLogger(t))
	b.drainOnce()

	// Seq 1 failed and is parked; seq 2 still buffered.
	require.NotNil(t, b.pending)
	assert.Equal(t, uint64(1), b.pending.Seq)
	assert.Equal(t, 1, ring.Len())

	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()
	b.drainOnce()

	assert.Nil(t, b.pending)
	assert.Equal(t, 0, ring.Len())
	require.NoError(t, producer.Close())
}
