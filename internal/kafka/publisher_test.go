package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type captured struct {
	key, value []byte
	headers    []kafka.Header
}

type fakeSender struct{ got []captured }

func (f *fakeSender) Publish(_ context.Context, key, value []byte, headers ...kafka.Header) error {
	f.got = append(f.got, captured{key, value, headers})
	return nil
}

func TestOrderPublisher_WrapsOrderInEnvelope(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	sender := &fakeSender{}
	p := &OrderPublisher{Producer: sender, Service: "pos-api", Now: func() time.Time { return at }}
	o := pos.Order{
		UUID: "order-1", StoreID: "store-1", UserID: "cashier-1", CashierID: "cashier-1",
		Subtotal: decimal.NewFromInt(200), Discount: decimal.NewFromInt(20), DiscountCode: "TWENTY",
		VAT: decimal.RequireFromString("9.64"), Total: decimal.NewFromInt(180), PaymentMethod: pos.PaymentCash,
		Items: []pos.OrderItem{{ProductID: "p1", Item: "Rice Meal", Price: decimal.NewFromInt(100), Qty: 2, Total: decimal.NewFromInt(200), VAT: decimal.RequireFromString("19.29")}},
	}

	require.NoError(t, p.OrderConfirmed(WithTrace(context.Background(), "req-7"), o))

	require.Len(t, sender.got, 1)
	msg := sender.got[0]
	assert.Equal(t, []byte("order-1"), msg.key)
	assert.Equal(t, "x-event-type", msg.headers[0].Key)
	assert.Equal(t, pos.EventOrderConfirmed, string(msg.headers[0].Value))

	env, err := UnmarshalEnvelope(msg.value)
	require.NoError(t, err)
	assert.Equal(t, pos.EventOrderConfirmed, env.EventType)
	assert.Equal(t, "order-1", env.CorrelationID)
	assert.Equal(t, "req-7", env.TraceID)
	assert.Equal(t, "pos-api", env.Producer)
	assert.True(t, env.OccurredAt.Equal(at))
	assert.NotEmpty(t, env.EventID)

	payload, err := UnwrapPayload[pos.OrderConfirmedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "180.00", payload.Total)
	assert.Equal(t, "9.64", payload.VAT)
	assert.Equal(t, "TWENTY", payload.DiscountCode)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "19.29", payload.Items[0].VAT)
	assert.Equal(t, "0.00", payload.Items[0].Discount)
}

func TestUnwrapPayload_BadJSON(t *testing.T) {
	_, err := UnwrapPayload[pos.OrderConfirmedPayload]([]byte(`{"order_uuid": 5}`))
	assert.Error(t, err)
}
