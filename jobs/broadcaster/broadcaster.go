// Package broadcaster drains the trade feed ring and publishes each event
// to a Kafka topic. It runs beside the matcher as a background job; the
// matcher itself never waits on Kafka.
package broadcaster

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"bulkbook/feed"
)

type Broadcaster struct {
	ring     *feed.Ring
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *zap.Logger

	// pending holds an event whose publish failed; it is retried before
	// the ring is drained again so the feed stays ordered.
	pending *feed.Event
}

// New connects a sync producer with acks=all. Trade events must not be
// reordered or silently lost between broker retries.
func New(brokers []string, topic string, ring *feed.Ring, interval time.Duration, log *zap.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithProducer(producer, topic, ring, interval, log), nil
}

// NewWithProducer wires an existing producer; tests pass sarama mocks.
func NewWithProducer(producer sarama.SyncProducer, topic string, ring *feed.Ring, interval time.Duration, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		ring:     ring,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}
}

// Run drains the ring on a ticker until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started",
		zap.String("topic", b.topic),
		zap.Duration("interval", b.interval))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.drainOnce()
			b.log.Info("broadcaster stopped")
			return
		case <-ticker.C:
			b.drainOnce()
		}
	}
}

func (b *Broadcaster) drainOnce() {
	if b.pending != nil {
		if !b.publish(*b.pending) {
			return
		}
		b.pending = nil
	}
	for {
		ev, ok := b.ring.Next()
		if !ok {
			return
		}
		if !b.publish(ev) {
			b.pending = &ev
			return
		}
	}
}

func (b *Broadcaster) publish(ev feed.Event) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.log.Error("trade event marshal failed", zap.Error(err))
		return true // malformed event cannot succeed later, drop it
	}
	_, _, err = b.producer.SendMessage(&sarama.ProducerMessage{
		Topic: b.topic,
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		b.log.Warn("trade publish failed, will retry",
			zap.Uint64("seq", ev.Seq), zap.Error(err))
		return false
	}
	return true
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
