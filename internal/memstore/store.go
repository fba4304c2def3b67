// Package memstore is an in-process pos.Store. Transactions are serialized
// behind one mutex and run against a copy of the data that is swapped in only
// on success, which gives serializable isolation and clean rollback.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type scoped struct {
	store pos.StoreID
	id    string
}

type wallet struct {
	balance decimal.Decimal
	txs     []pos.WalletTransaction
}

type state struct {
	products  map[scoped]pos.Product
	carts     map[pos.CartKey][]pos.CartItem
	discounts map[scoped]pos.DiscountCode // id = upper-cased code
	wallets   map[pos.WalletKey]*wallet
	orders    map[scoped]pos.Order
	students  map[scoped]pos.Student
}

func newState() *state {
	return &state{
		products:  map[scoped]pos.Product{},
		carts:     map[pos.CartKey][]pos.CartItem{},
		discounts: map[scoped]pos.DiscountCode{},
		wallets:   map[pos.WalletKey]*wallet{},
		orders:    map[scoped]pos.Order{},
		students:  map[scoped]pos.Student{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = append([]pos.CartItem(nil), v...)
	}
	for k, v := range s.discounts {
		c.discounts[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = &wallet{balance: v.balance, txs: append([]pos.WalletTransaction(nil), v.txs...)}
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.students {
		c.students[k] = v
	}
	return c
}

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

var _ pos.Store = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx pos.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(ctx, &tx{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

// Seeding and inspection helpers. They bypass transactions.

func (s *Store) PutProduct(p pos.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[scoped{p.StoreID, p.ID}] = p
}

func (s *Store) Product(store pos.StoreID, id string) (pos.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[scoped{store, id}]
	return p, ok
}

func (s *Store) PutStudent(st pos.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.students[scoped{st.StoreID, st.ID}] = st
}

func (s *Store) PutDiscount(c pos.DiscountCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.st.discounts[scoped{c.StoreID, normalize(c.Code)}] = c
}

func (s *Store) Discount(store pos.StoreID, code string) (pos.DiscountCode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.discounts[scoped{store, normalize(code)}]
	return c, ok
}

func (s *Store) CartItems(key pos.CartKey) []pos.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pos.CartItem(nil), s.st.carts[key]...)
}

func (s *Store) Orders(store pos.StoreID) []pos.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []pos.Order
	for k, o := range s.st.orders {
		if k.store == store {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) WalletBalance(key pos.WalletKey) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.st.wallets[key]; ok {
		return w.balance
	}
	return decimal.Zero
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
