package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/orderstack/go-commerce-orders/internal/config"
	kafkax "github.com/orderstack/go-commerce-orders/internal/kafka"
	"github.com/orderstack/go-commerce-orders/internal/notifier"
	"github.com/orderstack/go-commerce-orders/internal/orders"
	"github.com/orderstack/go-commerce-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		Dedup: &notifier.RedisDedup{Client: rdb, Service: cfg.ServiceName + "-notifier"},
		Log:   log,
	}

	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderPlaced, workers, log)

	go func() {
		log.Info("notifier consumer started",
			zap.String("group", group),
			zap.String("topic", orders.TopicOrderPlaced),
			zap.Int("workers", workers))
		if err := cons.Start(ctx, svc.HandleOrderPlaced); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down consumer")
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return def
	}
	return i
}
