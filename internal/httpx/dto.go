package httpx

import (
	"time"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type orderItemResp struct {
	ProductID string `json:"product_id"`
	Item      string `json:"item"`
	Price     string `json:"price"`
	Qty       int    `json:"qty"`
	Total     string `json:"total"`
	VAT       string `json:"vat"`
	Discount  string `json:"discount"`
}

type orderResp struct {
	UUID                string          `json:"uuid"`
	UserID              string          `json:"user_id"`
	CashierID           string          `json:"cashier_id"`
	StudentID           string          `json:"student_id,omitempty"`
	Subtotal            string          `json:"subtotal"`
	Discount            string          `json:"discount"`
	DiscountCode        string          `json:"discount_code,omitempty"`
	VAT                 string          `json:"vat"`
	VatableSales        string          `json:"vatable_sales"`
	VatExemptSales      string          `json:"vat_exempt_sales"`
	Total               string          `json:"total"`
	Status              string          `json:"status"`
	IsPayed             bool            `json:"is_payed"`
	PaymentMethod       string          `json:"payment_method"`
	PaymentVendor       string          `json:"payment_vendor,omitempty"`
	WalletType          string          `json:"wallet_type,omitempty"`
	WalletTransactionID string          `json:"wallet_transaction_id,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	Items               []orderItemResp `json:"items"`
	CreatedAt           time.Time       `json:"created_at"`
	Idempotent          bool            `json:"idempotent,omitempty"`
}

func toOrderResp(o pos.Order) orderResp {
	items := make([]orderItemResp, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResp{
			ProductID: it.ProductID,
			Item:      it.Item,
			Price:     it.Price.StringFixed(2),
			Qty:       it.Qty,
			Total:     it.Total.StringFixed(2),
			VAT:       it.VAT.StringFixed(2),
			Discount:  it.Discount.StringFixed(2),
		})
	}
	return orderResp{
		UUID:                o.UUID,
		UserID:              o.UserID,
		CashierID:           o.CashierID,
		StudentID:           o.StudentID,
		Subtotal:            o.Subtotal.StringFixed(2),
		Discount:            o.Discount.StringFixed(2),
		DiscountCode:        o.DiscountCode,
		VAT:                 o.VAT.StringFixed(2),
		VatableSales:        o.VatableSales.StringFixed(2),
		VatExemptSales:      o.VatExemptSales.StringFixed(2),
		Total:               o.Total.StringFixed(2),
		Status:              string(o.Status),
		IsPayed:             o.IsPayed,
		PaymentMethod:       o.PaymentMethod,
		PaymentVendor:       o.PaymentVendor,
		WalletType:          string(o.WalletType),
		WalletTransactionID: o.WalletTransactionID,
		Notes:               o.Notes,
		Items:               items,
		CreatedAt:           o.CreatedAt,
	}
}

type cartLineResp struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Total     string `json:"total"`
	HasVAT    bool   `json:"has_vat"`
}

type cartResp struct {
	Items    []cartLineResp `json:"items"`
	Subtotal string         `json:"subtotal"`
}

type walletTxResp struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Amount    string            `json:"amount"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
