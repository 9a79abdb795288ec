package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/orderstack/go-commerce-orders/internal/catalog"
	"github.com/orderstack/go-commerce-orders/internal/config"
	"github.com/orderstack/go-commerce-orders/internal/httpx"
	"github.com/orderstack/go-commerce-orders/internal/identity"
	"github.com/orderstack/go-commerce-orders/internal/inventory"
	kafkax "github.com/orderstack/go-commerce-orders/internal/kafka"
	"github.com/orderstack/go-commerce-orders/internal/orders"
	"github.com/orderstack/go-commerce-orders/internal/postgres"
	"github.com/orderstack/go-commerce-orders/internal/redisx"
	"github.com/orderstack/go-commerce-orders/internal/seed"
	"github.com/orderstack/go-commerce-orders/migrations"
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

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		log.Fatal("apply migrations", zap.Error(err))
	}

	users := &identity.Directory{DB: db}
	products := &catalog.Repo{DB: db}

	if cfg.SeedEnabled {
		if err := seed.Run(ctx, users, products, log); err != nil {
			log.Fatal("seed", zap.Error(err))
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for order.placed
	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, log)
	prod.Start()

	// Engine & handlers
	repo := &orders.Repo{DB: db}
	engine := &orders.Engine{
		Ledger:          &inventory.Ledger{DB: db},
		Store:           repo,
		Users:           users,
		Notify:          &orders.EventPublisher{Producer: prod, Service: cfg.ServiceName},
		Log:             log,
		ReserveAttempts: cfg.ReserveAttempts,
	}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Engine:   engine,
		Statuses: repo,
		Users:    users,
		Redis:    rdb,
		Log:      log,
	}
	oh.Register(router)
	ch := &httpx.CatalogHandler{Repo: products, Log: log}
	ch.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close() // close inbox -> flush & close writer
	prod.WaitClosed()
}
