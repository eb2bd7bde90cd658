package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bulkbook/api/httpserver"
	"bulkbook/domain/orderbook"
	"bulkbook/feed"
	"bulkbook/infra/kafka"
	"bulkbook/infra/sequence"
	"bulkbook/jobs/broadcaster"
	"bulkbook/params"
	"bulkbook/service"
)

func main() {
	cfg := params.Load()

	log, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// ---------------- Domain ----------------

	book := orderbook.New()
	ids := sequence.New(0)
	ring := feed.NewRing(cfg.Feed.RingSize)

	// ---------------- Outbound ----------------

	var tob service.TopOfBookPublisher
	var bc *broadcaster.Broadcaster
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.BookTopic)
		defer func() { _ = producer.Close() }()
		tob = producer

		bc, err = broadcaster.New(cfg.Kafka.Brokers, cfg.Kafka.TradeTopic, ring, cfg.Feed.FlushInterval, log)
		if err != nil {
			log.Fatal("kafka broadcaster init failed", zap.Error(err))
		}
		defer func() { _ = bc.Close() }()
	} else {
		log.Info("kafka disabled, trade feed stays in-process")
	}

	hub := httpserver.NewHub(log)
	defer hub.Close()

	svc := service.NewOrderService(book, ids, ring, tob, hub, log)

	// ---------------- Background jobs ----------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if bc != nil {
		go bc.Run(ctx)
	}

	// ---------------- HTTP ----------------

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpserver.NewServer(svc, hub, log).Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("market data server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server exited", zap.Error(err))
		}
	}()

	// ---------------- Shutdown ----------------

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}
