package pos

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Store runs fn inside one all-or-nothing transaction. A non-nil error from
// fn rolls back every write made through tx.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the repositories bound to a single transaction.
type Tx interface {
	Carts() CartRepo
	Products() ProductCatalog
	Discounts() DiscountRepo
	Wallets() WalletRepo
	Orders() OrderRepo
	Students() StudentDirectory
}

type ProductCatalog interface {
	// Find returns ErrProductNotFound for unknown or inactive products.
	Find(ctx context.Context, store StoreID, id string) (Product, error)
	// FindForUpdate is Find plus a row lock held until the transaction ends.
	FindForUpdate(ctx context.Context, store StoreID, id string) (Product, error)
	IsInStock(ctx context.Context, store StoreID, id string, qty int) (bool, error)
	// DecrementStock is a no-op for products that do not track inventory.
	DecrementStock(ctx context.Context, store StoreID, id string, qty int) error
}

type CartRepo interface {
	// Items lists the cart in insertion order, locking the lines.
	Items(ctx context.Context, key CartKey) ([]CartItem, error)
	Item(ctx context.Context, key CartKey, productID string) (CartItem, bool, error)
	// Put creates or replaces the line for item.ProductID.
	Put(ctx context.Context, key CartKey, item CartItem) error
	// AddQuantity adds qty to the line for productID in one atomic step,
	// creating it with addedAt when absent, and returns the locked result.
	AddQuantity(ctx context.Context, key CartKey, productID string, qty int, addedAt time.Time) (CartItem, error)
	Delete(ctx context.Context, key CartKey, productID string) (bool, error)
	Clear(ctx context.Context, key CartKey) error
}

type DiscountRepo interface {
	// FindByCode matches case-insensitively and returns ErrInvalidDiscountCode
	// when no code exists.
	FindByCode(ctx context.Context, store StoreID, code string) (DiscountCode, error)
	IncrementUsage(ctx context.Context, store StoreID, id string) error
}

type WalletRepo interface {
	// Balance is zero for wallets never created.
	Balance(ctx context.Context, key WalletKey) (decimal.Decimal, error)
	// Lock creates the wallet if needed and holds its row lock until the
	// transaction ends, returning the balance read under that lock.
	Lock(ctx context.Context, key WalletKey) (decimal.Decimal, error)
	// Append records t and moves the balance by t.Signed(). Callers must hold
	// the lock from Lock.
	Append(ctx context.Context, key WalletKey, t WalletTransaction) (decimal.Decimal, error)
	Transactions(ctx context.Context, key WalletKey) ([]WalletTransaction, error)
}

type OrderRepo interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, store StoreID, uuid string) (Order, error)
}

type StudentDirectory interface {
	Find(ctx context.Context, store StoreID, id string) (Student, error)
}

// PaymentConfig reports whether a payment method is enabled and which vendor
// handles it.
type PaymentConfig interface {
	MethodEnabled(name string) (enabled bool, vendor string)
}
