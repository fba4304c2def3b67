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
	"go.uber.org/zap"

	"github.com/ariefcatur/go-cafeteria-pos/internal/cart"
	"github.com/ariefcatur/go-cafeteria-pos/internal/checkout"
	"github.com/ariefcatur/go-cafeteria-pos/internal/config"
	"github.com/ariefcatur/go-cafeteria-pos/internal/httpx"
	kafkax "github.com/ariefcatur/go-cafeteria-pos/internal/kafka"
	"github.com/ariefcatur/go-cafeteria-pos/internal/logging"
	"github.com/ariefcatur/go-cafeteria-pos/internal/memstore"
	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
	"github.com/ariefcatur/go-cafeteria-pos/internal/postgres"
	"github.com/ariefcatur/go-cafeteria-pos/internal/redisx"
	"github.com/ariefcatur/go-cafeteria-pos/internal/tax"
	"github.com/ariefcatur/go-cafeteria-pos/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	var store pos.Store
	switch cfg.StoreBackend {
	case "memory":
		log.Warn("using in-memory store, data is lost on exit")
		store = memstore.New()
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal("db migrate", zap.Error(err))
		}
		store = &postgres.Store{DB: db}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, locks and caches degrade", zap.Error(err))
	}

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, pos.TopicOrderConfirmed, 1024, log)
	prod.Start()

	svc := &checkout.Service{
		Store:    store,
		Payments: cfg.PaymentMethods,
		Tax:      tax.New(cfg.TaxRate),
		Events:   &kafkax.OrderPublisher{Producer: prod, Service: cfg.ServiceName},
		Log:      log.Named("checkout"),
	}

	limit, err := httpx.RateLimit(cfg.RateLimit, rdb, log.Named("ratelimit"))
	if err != nil {
		log.Fatal("rate limiter", zap.Error(err))
	}

	router := httpx.NewRouter(log)
	httpx.API{
		JWTSecret: []byte(cfg.JWTSecret),
		RateLimit: limit,
		Cart:      &httpx.CartHandler{Carts: cart.NewService(store), Log: log},
		Checkout: &httpx.CheckoutHandler{
			Checkout: svc,
			Locks:    &redisx.Locker{Redis: rdb, TTL: cfg.CheckoutLockTTL},
			Idem:     &redisx.Idempotency{Redis: rdb},
			Status:   &redisx.StatusCache{Redis: rdb},
			Log:      log,
		},
		Wallets: &httpx.WalletHandler{Ledger: wallet.NewLedger(store, log.Named("wallet")), Log: log},
	}.Mount(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	prod.Close()
	prod.WaitClosed()
	cancel()
}
