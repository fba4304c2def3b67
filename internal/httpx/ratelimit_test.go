package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

var errRedisDown = errors.New("dial tcp: connection refused")

type downStore struct{}

func (downStore) Get(context.Context, string, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errRedisDown
}
func (downStore) Peek(context.Context, string, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errRedisDown
}
func (downStore) Reset(context.Context, string, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errRedisDown
}
func (downStore) Increment(context.Context, string, int64, limiter.Rate) (limiter.Context, error) {
	return limiter.Context{}, errRedisDown
}

func serveTwice(mw func(http.Handler) http.Handler) []int {
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))
		codes = append(codes, rec.Code)
	}
	return codes
}

func TestRateLimit_SharedStoreErrorFallsBackToLocal(t *testing.T) {
	rate, err := limiter.NewRateFromFormatted("1-M")
	require.NoError(t, err)
	store := &fallbackStore{primary: downStore{}, local: memory.NewStore(), log: zap.NewNop()}
	mw := stdlib.NewMiddleware(limiter.New(store, rate))

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, serveTwice(mw.Handler))
}

func TestRateLimit_UnreachableRedisStillServes(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	mw, err := RateLimit("1-M", rdb, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, serveTwice(mw))
}
