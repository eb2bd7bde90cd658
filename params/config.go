// Package params holds runtime configuration. Values come from the
// environment (optionally via a .env file); Default covers local runs
// with Kafka disabled.
package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type HTTP struct {
	Addr string
}

type Kafka struct {
	// Brokers empty means Kafka publishing is disabled.
	Brokers    []string
	TradeTopic string
	BookTopic  string
}

type Feed struct {
	RingSize      uint64
	FlushInterval time.Duration
}

type Config struct {
	HTTP  HTTP
	Kafka Kafka
	Feed  Feed
}

func Default() Config {
	return Config{
		HTTP: HTTP{Addr: ":8080"},
		Kafka: Kafka{
			TradeTopic: "book.trades",
			BookTopic:  "book.top",
		},
		Feed: Feed{
			RingSize:      1 << 16,
			FlushInterval: 250 * time.Millisecond,
		},
	}
}

// Load reads .env when present, then applies environment overrides on top
// of the defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Default()
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TRADE_TOPIC"); v != "" {
		cfg.Kafka.TradeTopic = v
	}
	if v := os.Getenv("KAFKA_BOOK_TOPIC"); v != "" {
		cfg.Kafka.BookTopic = v
	}
	if v := os.Getenv("FEED_RING_SIZE"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			cfg.Feed.RingSize = n
		}
	}
	if v := os.Getenv("FEED_FLUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Feed.FlushInterval = d
		}
	}
	return cfg
}
