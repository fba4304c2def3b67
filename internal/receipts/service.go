// Package receipts projects confirmed orders into a receipt read model.
package receipts

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-cafeteria-pos/internal/kafka"
	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type Sink interface {
	Upsert(ctx context.Context, r Receipt) error
}

type Deduper interface {
	First(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

type Service struct {
	Sink  Sink
	Dedup Deduper // optional; the upsert is idempotent on its own
	Log   *zap.Logger
	Now   func() time.Time
}

// HandleOrderConfirmed is installed as the consumer handler.
func (s *Service) HandleOrderConfirmed(ctx context.Context, m kafkago.Message) error {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		log.Warn("skip undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != pos.EventOrderConfirmed {
		return nil
	}

	if s.Dedup != nil {
		first, err := s.Dedup.First(ctx, env.EventID)
		if err != nil {
			log.Warn("dedup unavailable", zap.String("event_id", env.EventID), zap.Error(err))
		} else if !first {
			log.Debug("duplicate event", zap.String("event_id", env.EventID))
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[pos.OrderConfirmedPayload](env.Payload)
	if err != nil {
		log.Warn("skip bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	r := FromPayload(env.EventID, p, now().UTC())
	if err := s.Sink.Upsert(ctx, r); err != nil {
		if s.Dedup != nil {
			_ = s.Dedup.Forget(ctx, env.EventID)
		}
		return err
	}
	log.Info("receipt projected",
		zap.String("order_uuid", r.OrderUUID),
		zap.String("store_id", r.StoreID),
		zap.String("trace_id", env.TraceID))
	return nil
}
