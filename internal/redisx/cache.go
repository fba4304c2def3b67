package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Idempotency maps a client-supplied key to the order it produced.
type Idempotency struct{ Redis redis.Cmdable }

func (i *Idempotency) Lookup(ctx context.Context, store, key string) (string, bool, error) {
	v, err := i.Redis.Get(ctx, fmt.Sprintf(KeyIdemCheckout, store, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (i *Idempotency) Remember(ctx context.Context, store, key, orderUUID string) error {
	return i.Redis.Set(ctx, fmt.Sprintf(KeyIdemCheckout, store, key), orderUUID, TTLIdempotency).Err()
}

type OrderStatus struct {
	Status  string `json:"status"`
	IsPayed bool   `json:"is_payed"`
	Total   string `json:"total"`
}

// StatusCache keeps a short-lived copy of order status for GET polling.
type StatusCache struct{ Redis redis.Cmdable }

func (c *StatusCache) Put(ctx context.Context, store, orderUUID string, s OrderStatus) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.Redis.Set(ctx, fmt.Sprintf(KeyOrderStatus, store, orderUUID), b, TTLStatusCache).Err()
}

func (c *StatusCache) Get(ctx context.Context, store, orderUUID string) (OrderStatus, bool, error) {
	b, err := c.Redis.Get(ctx, fmt.Sprintf(KeyOrderStatus, store, orderUUID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return OrderStatus{}, false, nil
	}
	if err != nil {
		return OrderStatus{}, false, err
	}
	var s OrderStatus
	if err := json.Unmarshal(b, &s); err != nil {
		return OrderStatus{}, false, err
	}
	return s, true, nil
}

// Deduper remembers processed event ids per consuming service.
type Deduper struct {
	Redis   redis.Cmdable
	Service string
}

// First reports whether id has not been seen before, marking it seen.
func (d *Deduper) First(ctx context.Context, id string) (bool, error) {
	return d.Redis.SetNX(ctx, fmt.Sprintf(KeyDedup, d.Service, id), "1", TTLDedup).Result()
}

// Forget undoes First so a failed event can be redelivered.
func (d *Deduper) Forget(ctx context.Context, id string) error {
	return d.Redis.Del(ctx, fmt.Sprintf(KeyDedup, d.Service, id)).Err()
}
