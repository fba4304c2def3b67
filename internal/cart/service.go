// Package cart holds per-user, per-store line items before checkout.
package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type Service struct {
	Store pos.Store
	Now   func() time.Time
}

func NewService(store pos.Store) *Service {
	return &Service{Store: store}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Add puts qty units of productID in the cart, merging into an existing line.
// A zero qty means one.
func (s *Service) Add(ctx context.Context, key pos.CartKey, productID string, qty int) (pos.CartItem, error) {
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return pos.CartItem{}, pos.ErrInvalidQuantity
	}
	var out pos.CartItem
	err := s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		if _, err := tx.Products().Find(ctx, key.StoreID, productID); err != nil {
			return err
		}
		it, err := tx.Carts().AddQuantity(ctx, key, productID, qty, s.now())
		if err != nil {
			return err
		}
		if err := ensureStock(ctx, tx, key.StoreID, productID, it.Quantity); err != nil {
			return err
		}
		out = it
		return nil
	})
	return out, err
}

func (s *Service) Increment(ctx context.Context, key pos.CartKey, productID string, by int) (pos.CartItem, error) {
	if by <= 0 {
		return pos.CartItem{}, pos.ErrInvalidQuantity
	}
	var out pos.CartItem
	err := s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		it, found, err := tx.Carts().Item(ctx, key, productID)
		if err != nil {
			return err
		}
		if !found {
			return pos.ErrCartItemNotFound
		}
		it.Quantity += by
		if err := ensureStock(ctx, tx, key.StoreID, productID, it.Quantity); err != nil {
			return err
		}
		out = it
		return tx.Carts().Put(ctx, key, it)
	})
	return out, err
}

// Decrement lowers the line quantity and deletes the line once it reaches
// zero. The returned bool is false when the line was deleted.
func (s *Service) Decrement(ctx context.Context, key pos.CartKey, productID string, by int) (pos.CartItem, bool, error) {
	if by <= 0 {
		return pos.CartItem{}, false, pos.ErrInvalidQuantity
	}
	var (
		out  pos.CartItem
		kept bool
	)
	err := s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		it, found, err := tx.Carts().Item(ctx, key, productID)
		if err != nil {
			return err
		}
		if !found {
			return pos.ErrCartItemNotFound
		}
		it.Quantity -= by
		if it.Quantity <= 0 {
			_, err := tx.Carts().Delete(ctx, key, productID)
			return err
		}
		out, kept = it, true
		return tx.Carts().Put(ctx, key, it)
	})
	return out, kept, err
}

func (s *Service) Remove(ctx context.Context, key pos.CartKey, productID string) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		ok, err := tx.Carts().Delete(ctx, key, productID)
		if err != nil {
			return err
		}
		if !ok {
			return pos.ErrCartItemNotFound
		}
		return nil
	})
}

func (s *Service) List(ctx context.Context, key pos.CartKey) ([]pos.CartLine, error) {
	var lines []pos.CartLine
	err := s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		var err error
		lines, err = Lines(ctx, tx, key)
		return err
	})
	return lines, err
}

// Total is the gross (VAT-inclusive) sum of the cart before any discount.
func (s *Service) Total(ctx context.Context, key pos.CartKey) (decimal.Decimal, error) {
	lines, err := s.List(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	return Gross(lines), nil
}

func (s *Service) Clear(ctx context.Context, key pos.CartKey) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		return tx.Carts().Clear(ctx, key)
	})
}

// Lines joins the cart items with their current product rows inside tx.
func Lines(ctx context.Context, tx pos.Tx, key pos.CartKey) ([]pos.CartLine, error) {
	items, err := tx.Carts().Items(ctx, key)
	if err != nil {
		return nil, err
	}
	lines := make([]pos.CartLine, 0, len(items))
	for _, it := range items {
		p, err := tx.Products().Find(ctx, key.StoreID, it.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, pos.CartLine{Item: it, Product: p})
	}
	return lines, nil
}

func Gross(lines []pos.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Gross())
	}
	return sum
}

func ensureStock(ctx context.Context, tx pos.Tx, store pos.StoreID, productID string, qty int) error {
	p, err := tx.Products().Find(ctx, store, productID)
	if err != nil {
		return err
	}
	ok, err := tx.Products().IsInStock(ctx, store, productID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return pos.OutOfStock(p.Name)
	}
	return nil
}
