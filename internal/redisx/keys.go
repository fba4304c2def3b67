package redisx

import "time"

const (
	// Idempotent checkout: idem:checkout:{store_id}:{idempotency_key} -> order uuid
	KeyIdemCheckout = "idem:checkout:%s:%s"

	// One checkout per cart at a time: lock:checkout:{store_id}:{user_id} -> token
	KeyCheckoutLock = "lock:checkout:%s:%s"

	// Cached order status: order_status:{store_id}:{order_uuid} -> {"status": "...", "is_payed": ...}
	KeyOrderStatus = "order_status:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Rate limiter buckets: ratelimit:{prefix}:...
	KeyRateLimitPrefix = "ratelimit"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
