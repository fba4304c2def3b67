package pos

import (
	"encoding/json"
	"time"
)

const (
	EventOrderConfirmed = "OrderConfirmed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order uuid
	Payload       json.RawMessage `json:"payload"`
}

type OrderLinePayload struct {
	ProductID string `json:"product_id"`
	Item      string `json:"item"`
	Price     string `json:"price"`
	Qty       int    `json:"qty"`
	Total     string `json:"total"`
	VAT       string `json:"vat"`
	Discount  string `json:"discount"`
}

// Amounts travel as fixed 2dp strings so consumers never see float drift.
type OrderConfirmedPayload struct {
	OrderUUID     string             `json:"order_uuid"`
	StoreID       string             `json:"store_id"`
	UserID        string             `json:"user_id"`
	CashierID     string             `json:"cashier_id"`
	StudentID     string             `json:"student_id,omitempty"`
	PaymentMethod string             `json:"payment_method"`
	WalletType    string             `json:"wallet_type,omitempty"`
	Subtotal      string             `json:"subtotal"`
	Discount      string             `json:"discount"`
	DiscountCode  string             `json:"discount_code,omitempty"`
	VAT           string             `json:"vat"`
	Total         string             `json:"total"`
	Items         []OrderLinePayload `json:"items"`
	CreatedAt     time.Time          `json:"created_at"`
}

func NewOrderConfirmedPayload(o Order) OrderConfirmedPayload {
	items := make([]OrderLinePayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderLinePayload{
			ProductID: it.ProductID,
			Item:      it.Item,
			Price:     it.Price.StringFixed(2),
			Qty:       it.Qty,
			Total:     it.Total.StringFixed(2),
			VAT:       it.VAT.StringFixed(2),
			Discount:  it.Discount.StringFixed(2),
		})
	}
	return OrderConfirmedPayload{
		OrderUUID:     o.UUID,
		StoreID:       string(o.StoreID),
		UserID:        o.UserID,
		CashierID:     o.CashierID,
		StudentID:     o.StudentID,
		PaymentMethod: o.PaymentMethod,
		WalletType:    string(o.WalletType),
		Subtotal:      o.Subtotal.StringFixed(2),
		Discount:      o.Discount.StringFixed(2),
		DiscountCode:  o.DiscountCode,
		VAT:           o.VAT.StringFixed(2),
		Total:         o.Total.StringFixed(2),
		Items:         items,
		CreatedAt:     o.CreatedAt,
	}
}
