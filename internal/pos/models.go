package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// StoreID identifies the tenant every read and write is scoped to.
type StoreID string

// Purchasable is anything a cart line can point at. Product is the only
// variant today.
type Purchasable interface {
	PurchasableID() string
	DisplayName() string
	UnitPrice() decimal.Decimal // gross, VAT-inclusive
	VATable() bool
	// InStock reports whether qty units are available in this snapshot.
	InStock(qty int) bool
}

type Product struct {
	ID             string
	StoreID        StoreID
	Name           string
	Price          decimal.Decimal // gross, VAT-inclusive
	HasVAT         bool
	Stock          int
	TrackInventory bool // false = unlimited stock
	Active         bool
	UpdatedAt      time.Time
}

func (p Product) PurchasableID() string      { return p.ID }
func (p Product) DisplayName() string        { return p.Name }
func (p Product) UnitPrice() decimal.Decimal { return p.Price }
func (p Product) VATable() bool              { return p.HasVAT }

func (p Product) InStock(qty int) bool {
	if !p.TrackInventory {
		return true
	}
	return p.Stock >= qty
}

// CartKey addresses one user's cart inside one store.
type CartKey struct {
	StoreID StoreID
	UserID  string
}

type CartItem struct {
	ProductID string
	Quantity  int
	AddedAt   time.Time
}

// CartLine is a cart item joined with its product snapshot.
type CartLine struct {
	Item    CartItem
	Product Product
}

func (l CartLine) Gross() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Item.Quantity)))
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type DiscountCode struct {
	ID                string
	StoreID           StoreID
	Code              string // unique per store, case-insensitive
	Type              DiscountType
	Value             decimal.Decimal
	MinOrderAmount    *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	UsageLimit        *int
	UsedCount         int
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	IsActive          bool
}

type WalletSlug string

const (
	WalletSubscribe    WalletSlug = "subscribe"
	WalletNonSubscribe WalletSlug = "non-subscribe"
)

func (s WalletSlug) Valid() bool {
	return s == WalletSubscribe || s == WalletNonSubscribe
}

const HolderStudent = "student"

// WalletKey addresses one wallet of one holder inside one store.
type WalletKey struct {
	StoreID    StoreID
	HolderID   string
	HolderType string
	Slug       WalletSlug
}

type WalletTxType string

const (
	WalletDeposit  WalletTxType = "deposit"
	WalletWithdraw WalletTxType = "withdraw"
)

type WalletTransaction struct {
	ID        string
	Type      WalletTxType
	Amount    decimal.Decimal // always positive; Type carries the sign
	Meta      map[string]string
	CreatedAt time.Time
}

// Signed returns the amount with the sign implied by the transaction type.
func (t WalletTransaction) Signed() decimal.Decimal {
	if t.Type == WalletWithdraw {
		return t.Amount.Neg()
	}
	return t.Amount
}

type Student struct {
	ID         string
	StoreID    StoreID
	Name       string
	Active     bool
	WalletType WalletSlug // assigned wallet used at checkout; empty if none
}

func (s Student) WalletKey() WalletKey {
	return WalletKey{StoreID: s.StoreID, HolderID: s.ID, HolderType: HolderStudent, Slug: s.WalletType}
}

const (
	PaymentCash   = "cash"
	PaymentWallet = "wallet"
)

type Order struct {
	UUID                string
	StoreID             StoreID
	UserID              string
	CashierID           string
	StudentID           string
	Subtotal            decimal.Decimal // gross before discount
	Discount            decimal.Decimal
	DiscountCode        string
	VAT                 decimal.Decimal
	VatableSales        decimal.Decimal
	VatExemptSales      decimal.Decimal
	Total               decimal.Decimal // net of discount, VAT-inclusive
	Status              Status
	IsPayed             bool
	PaymentMethod       string
	PaymentVendor       string
	WalletType          WalletSlug
	WalletTransactionID string
	Notes               string
	Items               []OrderItem
	CreatedAt           time.Time
}

type OrderItem struct {
	OrderUUID string
	ProductID string
	Item      string          // name snapshot
	Price     decimal.Decimal // unit gross price snapshot
	Qty       int
	Total     decimal.Decimal // line gross
	VAT       decimal.Decimal
	Discount  decimal.Decimal
}
