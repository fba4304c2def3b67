package httpx

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-cafeteria-pos/internal/redisx"
)

// RateLimit throttles per client IP. With a redis client the buckets are
// shared across API replicas; without one, or while redis is unreachable,
// they are process-local. A redis outage never turns into a failed request.
func RateLimit(formatted string, rdb *redis.Client, log *zap.Logger) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	var store limiter.Store = memory.NewStore()
	if rdb != nil {
		shared, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: redisx.KeyRateLimitPrefix})
		if err != nil {
			log.Warn("rate limit: redis unavailable, using local buckets", zap.Error(err))
		} else {
			store = &fallbackStore{primary: shared, local: store, log: log}
		}
	}
	mw := stdlib.NewMiddleware(limiter.New(store, rate),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Too many requests", Kind: "RATE_LIMITED"})
		}))
	return mw.Handler, nil
}

// fallbackStore answers from local when primary errors.
type fallbackStore struct {
	primary limiter.Store
	local   limiter.Store
	log     *zap.Logger
}

func (s *fallbackStore) fallback(op string, err error) {
	s.log.Warn("rate limit: shared store failed, using local bucket", zap.String("op", op), zap.Error(err))
}

func (s *fallbackStore) Get(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	c, err := s.primary.Get(ctx, key, rate)
	if err != nil {
		s.fallback("get", err)
		return s.local.Get(ctx, key, rate)
	}
	return c, nil
}

func (s *fallbackStore) Peek(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	c, err := s.primary.Peek(ctx, key, rate)
	if err != nil {
		s.fallback("peek", err)
		return s.local.Peek(ctx, key, rate)
	}
	return c, nil
}

func (s *fallbackStore) Reset(ctx context.Context, key string, rate limiter.Rate) (limiter.Context, error) {
	c, err := s.primary.Reset(ctx, key, rate)
	if err != nil {
		s.fallback("reset", err)
		return s.local.Reset(ctx, key, rate)
	}
	return c, nil
}

func (s *fallbackStore) Increment(ctx context.Context, key string, count int64, rate limiter.Rate) (limiter.Context, error) {
	c, err := s.primary.Increment(ctx, key, count, rate)
	if err != nil {
		s.fallback("increment", err)
		return s.local.Increment(ctx, key, count, rate)
	}
	return c, nil
}
