package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-cafeteria-pos/internal/config"
	"github.com/ariefcatur/go-cafeteria-pos/internal/httpx"
	kafkax "github.com/ariefcatur/go-cafeteria-pos/internal/kafka"
	"github.com/ariefcatur/go-cafeteria-pos/internal/logging"
	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
	"github.com/ariefcatur/go-cafeteria-pos/internal/receipts"
	"github.com/ariefcatur/go-cafeteria-pos/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Mongo
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("mongo connect", zap.Error(err))
	}
	defer func() { _ = mc.Disconnect(context.Background()) }()
	sink := receipts.NewMongoSink(mc.Database(cfg.MongoDB))
	if err := sink.EnsureIndexes(ctx); err != nil {
		log.Fatal("mongo indexes", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &receipts.Service{
		Sink:  sink,
		Dedup: &redisx.Deduper{Redis: rdb, Service: cfg.ServiceName + "-receipts"},
		Log:   log.Named("receipts"),
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ReceiptsGroup, pos.TopicOrderConfirmed, cfg.ReceiptsWorkers, log)
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("receipts consumer started",
			zap.String("group", cfg.ReceiptsGroup),
			zap.Int("workers", cfg.ReceiptsWorkers))
		if err := cons.Start(ctx, svc.HandleOrderConfirmed); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	router := httpx.NewRouter(log)
	httpx.API{
		JWTSecret: []byte(cfg.JWTSecret),
		Receipts:  &httpx.ReceiptHandler{Receipts: sink, Log: log},
	}.Mount(router)
	srv := &http.Server{Addr: cfg.ReceiptsAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("http listening", zap.String("addr", cfg.ReceiptsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel()
	<-done
}
