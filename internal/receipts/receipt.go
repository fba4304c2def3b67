package receipts

import (
	"time"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type Line struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Item      string `bson:"item" json:"item"`
	Price     string `bson:"price" json:"price"`
	Qty       int    `bson:"qty" json:"qty"`
	Total     string `bson:"total" json:"total"`
	VAT       string `bson:"vat" json:"vat"`
	Discount  string `bson:"discount" json:"discount"`
}

// Receipt is the printable read model of a confirmed order.
type Receipt struct {
	OrderUUID     string    `bson:"order_uuid" json:"order_uuid"`
	StoreID       string    `bson:"store_id" json:"store_id"`
	CashierID     string    `bson:"cashier_id" json:"cashier_id"`
	StudentID     string    `bson:"student_id,omitempty" json:"student_id,omitempty"`
	PaymentMethod string    `bson:"payment_method" json:"payment_method"`
	WalletType    string    `bson:"wallet_type,omitempty" json:"wallet_type,omitempty"`
	Subtotal      string    `bson:"subtotal" json:"subtotal"`
	Discount      string    `bson:"discount" json:"discount"`
	DiscountCode  string    `bson:"discount_code,omitempty" json:"discount_code,omitempty"`
	VAT           string    `bson:"vat" json:"vat"`
	Total         string    `bson:"total" json:"total"`
	Lines         []Line    `bson:"lines" json:"lines"`
	OrderedAt     time.Time `bson:"ordered_at" json:"ordered_at"`
	EventID       string    `bson:"event_id" json:"event_id"`
	ProjectedAt   time.Time `bson:"projected_at" json:"projected_at"`
}

func FromPayload(eventID string, p pos.OrderConfirmedPayload, at time.Time) Receipt {
	lines := make([]Line, 0, len(p.Items))
	for _, it := range p.Items {
		lines = append(lines, Line{
			ProductID: it.ProductID,
			Item:      it.Item,
			Price:     it.Price,
			Qty:       it.Qty,
			Total:     it.Total,
			VAT:       it.VAT,
			Discount:  it.Discount,
		})
	}
	return Receipt{
		OrderUUID:     p.OrderUUID,
		StoreID:       p.StoreID,
		CashierID:     p.CashierID,
		StudentID:     p.StudentID,
		PaymentMethod: p.PaymentMethod,
		WalletType:    p.WalletType,
		Subtotal:      p.Subtotal,
		Discount:      p.Discount,
		DiscountCode:  p.DiscountCode,
		VAT:           p.VAT,
		Total:         p.Total,
		Lines:         lines,
		OrderedAt:     p.CreatedAt,
		EventID:       eventID,
		ProjectedAt:   at,
	}
}
