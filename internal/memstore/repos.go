package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type tx struct{ st *state }

func (t *tx) Carts() pos.CartRepo            { return cartRepo{t.st} }
func (t *tx) Products() pos.ProductCatalog   { return productRepo{t.st} }
func (t *tx) Discounts() pos.DiscountRepo    { return discountRepo{t.st} }
func (t *tx) Wallets() pos.WalletRepo        { return walletRepo{t.st} }
func (t *tx) Orders() pos.OrderRepo          { return orderRepo{t.st} }
func (t *tx) Students() pos.StudentDirectory { return studentRepo{t.st} }

type productRepo struct{ st *state }

func (r productRepo) Find(_ context.Context, store pos.StoreID, id string) (pos.Product, error) {
	p, ok := r.st.products[scoped{store, id}]
	if !ok || !p.Active {
		return pos.Product{}, pos.ErrProductNotFound
	}
	return p, nil
}

// Transactions are already serialized, so no extra locking is needed.
func (r productRepo) FindForUpdate(ctx context.Context, store pos.StoreID, id string) (pos.Product, error) {
	return r.Find(ctx, store, id)
}

func (r productRepo) IsInStock(ctx context.Context, store pos.StoreID, id string, qty int) (bool, error) {
	p, err := r.Find(ctx, store, id)
	if err != nil {
		return false, err
	}
	return p.InStock(qty), nil
}

func (r productRepo) DecrementStock(_ context.Context, store pos.StoreID, id string, qty int) error {
	k := scoped{store, id}
	p, ok := r.st.products[k]
	if !ok {
		return pos.ErrProductNotFound
	}
	if !p.TrackInventory {
		return nil
	}
	if p.Stock < qty {
		return pos.OutOfStock(p.Name)
	}
	p.Stock -= qty
	r.st.products[k] = p
	return nil
}

type cartRepo struct{ st *state }

func (r cartRepo) Items(_ context.Context, key pos.CartKey) ([]pos.CartItem, error) {
	return append([]pos.CartItem(nil), r.st.carts[key]...), nil
}

func (r cartRepo) Item(_ context.Context, key pos.CartKey, productID string) (pos.CartItem, bool, error) {
	for _, it := range r.st.carts[key] {
		if it.ProductID == productID {
			return it, true, nil
		}
	}
	return pos.CartItem{}, false, nil
}

func (r cartRepo) Put(_ context.Context, key pos.CartKey, item pos.CartItem) error {
	items := r.st.carts[key]
	for i, it := range items {
		if it.ProductID == item.ProductID {
			items[i] = item
			return nil
		}
	}
	r.st.carts[key] = append(items, item)
	return nil
}

func (r cartRepo) AddQuantity(_ context.Context, key pos.CartKey, productID string, qty int, addedAt time.Time) (pos.CartItem, error) {
	items := r.st.carts[key]
	for i, it := range items {
		if it.ProductID == productID {
			items[i].Quantity += qty
			return items[i], nil
		}
	}
	it := pos.CartItem{ProductID: productID, Quantity: qty, AddedAt: addedAt}
	r.st.carts[key] = append(items, it)
	return it, nil
}

func (r cartRepo) Delete(_ context.Context, key pos.CartKey, productID string) (bool, error) {
	items := r.st.carts[key]
	for i, it := range items {
		if it.ProductID == productID {
			r.st.carts[key] = append(items[:i:i], items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r cartRepo) Clear(_ context.Context, key pos.CartKey) error {
	delete(r.st.carts, key)
	return nil
}

type discountRepo struct{ st *state }

func (r discountRepo) FindByCode(_ context.Context, store pos.StoreID, code string) (pos.DiscountCode, error) {
	c, ok := r.st.discounts[scoped{store, normalize(code)}]
	if !ok {
		return pos.DiscountCode{}, pos.ErrInvalidDiscountCode
	}
	return c, nil
}

func (r discountRepo) IncrementUsage(_ context.Context, store pos.StoreID, id string) error {
	for k, c := range r.st.discounts {
		if k.store == store && c.ID == id {
			c.UsedCount++
			r.st.discounts[k] = c
			return nil
		}
	}
	return fmt.Errorf("discount %s: %w", id, pos.ErrInvalidDiscountCode)
}

type walletRepo struct{ st *state }

func (r walletRepo) Balance(_ context.Context, key pos.WalletKey) (decimal.Decimal, error) {
	if w, ok := r.st.wallets[key]; ok {
		return w.balance, nil
	}
	return decimal.Zero, nil
}

func (r walletRepo) Lock(_ context.Context, key pos.WalletKey) (decimal.Decimal, error) {
	w, ok := r.st.wallets[key]
	if !ok {
		w = &wallet{balance: decimal.Zero}
		r.st.wallets[key] = w
	}
	return w.balance, nil
}

func (r walletRepo) Append(_ context.Context, key pos.WalletKey, t pos.WalletTransaction) (decimal.Decimal, error) {
	w, ok := r.st.wallets[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("append to unlocked wallet %s/%s", key.HolderID, key.Slug)
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	w.txs = append(w.txs, t)
	w.balance = w.balance.Add(t.Signed())
	return w.balance, nil
}

func (r walletRepo) Transactions(_ context.Context, key pos.WalletKey) ([]pos.WalletTransaction, error) {
	if w, ok := r.st.wallets[key]; ok {
		return append([]pos.WalletTransaction(nil), w.txs...), nil
	}
	return nil, nil
}

type orderRepo struct{ st *state }

func (r orderRepo) Create(_ context.Context, o pos.Order) error {
	k := scoped{o.StoreID, o.UUID}
	if _, exists := r.st.orders[k]; exists {
		return fmt.Errorf("order %s already exists", o.UUID)
	}
	o.Items = append([]pos.OrderItem(nil), o.Items...)
	r.st.orders[k] = o
	return nil
}

func (r orderRepo) Get(_ context.Context, store pos.StoreID, id string) (pos.Order, error) {
	o, ok := r.st.orders[scoped{store, id}]
	if !ok {
		return pos.Order{}, pos.ErrOrderNotFound
	}
	return o, nil
}

type studentRepo struct{ st *state }

func (r studentRepo) Find(_ context.Context, store pos.StoreID, id string) (pos.Student, error) {
	s, ok := r.st.students[scoped{store, id}]
	if !ok {
		return pos.Student{}, pos.ErrStudentNotFound
	}
	return s, nil
}
