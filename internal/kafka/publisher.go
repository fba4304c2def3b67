package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type traceKey struct{}

// WithTrace carries a request id into the event envelope.
func WithTrace(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// Sender is the part of Producer the publisher needs.
type Sender interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// OrderPublisher emits OrderConfirmed envelopes for committed orders.
type OrderPublisher struct {
	Producer Sender
	Service  string
	Now      func() time.Time
}

func (p *OrderPublisher) Envelope(ctx context.Context, o pos.Order) pos.Envelope {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	trace, _ := ctx.Value(traceKey{}).(string)
	return pos.Envelope{
		EventID:       uuid.NewString(),
		EventType:     pos.EventOrderConfirmed,
		EventVersion:  1,
		OccurredAt:    now().UTC(),
		Producer:      p.Service,
		TraceID:       trace,
		CorrelationID: o.UUID,
		Payload:       MustMarshal(pos.NewOrderConfirmedPayload(o)),
	}
}

func (p *OrderPublisher) OrderConfirmed(ctx context.Context, o pos.Order) error {
	ev := p.Envelope(ctx, o)
	return p.Producer.Publish(ctx, pos.PartitionKey(o.UUID), MustMarshal(ev),
		kafka.Header{Key: "x-event-type", Value: []byte(ev.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(ev.EventVersion))},
	)
}
