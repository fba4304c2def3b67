// Package checkout turns a cart into a committed, paid order.
//
// The whole flow runs in one store transaction. Rows are locked in a fixed
// order (cart lines, products by id, discount code, wallet) so concurrent
// checkouts cannot deadlock, and any failure rolls every write back.
package checkout

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-cafeteria-pos/internal/cart"
	"github.com/ariefcatur/go-cafeteria-pos/internal/discount"
	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
	"github.com/ariefcatur/go-cafeteria-pos/internal/tax"
	"github.com/ariefcatur/go-cafeteria-pos/internal/wallet"
)

// Publisher is told about orders after they commit. Errors are logged and
// never affect the order.
type Publisher interface {
	OrderConfirmed(ctx context.Context, o pos.Order) error
}

type Service struct {
	Store    pos.Store
	Payments pos.PaymentConfig
	Tax      tax.Splitter
	Events   Publisher // optional
	Log      *zap.Logger
	Now      func() time.Time
}

type Request struct {
	Cart          pos.CartKey
	CashierID     string // defaults to Cart.UserID
	PaymentMethod string
	StudentID     string
	DiscountCode  string
	Notes         string
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Checkout validates the cart, prices it, takes payment and persists the
// order. Domain failures come back as *pos.Error unchanged; anything else is
// logged and reported as pos.ErrCheckoutFailed.
func (s *Service) Checkout(ctx context.Context, req Request) (pos.Order, error) {
	var order pos.Order
	err := s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		var err error
		order, err = s.checkout(ctx, tx, req)
		return err
	})
	if err != nil {
		var perr *pos.Error
		if errors.As(err, &perr) {
			s.log().Info("checkout rejected",
				zap.String("store_id", string(req.Cart.StoreID)),
				zap.String("user_id", req.Cart.UserID),
				zap.String("kind", perr.Kind.String()),
				zap.String("reason", perr.Message))
			return pos.Order{}, err
		}
		s.log().Error("checkout failed",
			zap.String("store_id", string(req.Cart.StoreID)),
			zap.String("user_id", req.Cart.UserID),
			zap.String("payment_method", req.PaymentMethod),
			zap.String("student_id", req.StudentID),
			zap.String("discount_code", req.DiscountCode),
			zap.Error(err))
		return pos.Order{}, pos.ErrCheckoutFailed
	}

	s.log().Info("order confirmed",
		zap.String("order_uuid", order.UUID),
		zap.String("store_id", string(order.StoreID)),
		zap.String("payment_method", order.PaymentMethod),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("items", len(order.Items)))

	if s.Events != nil {
		if err := s.Events.OrderConfirmed(ctx, order); err != nil {
			s.log().Warn("publish order confirmed", zap.String("order_uuid", order.UUID), zap.Error(err))
		}
	}
	return order, nil
}

func (s *Service) checkout(ctx context.Context, tx pos.Tx, req Request) (pos.Order, error) {
	store := req.Cart.StoreID
	now := s.now()

	items, err := tx.Carts().Items(ctx, req.Cart)
	if err != nil {
		return pos.Order{}, err
	}
	if len(items) == 0 {
		return pos.Order{}, pos.ErrEmptyCart
	}

	enabled, vendor := s.Payments.MethodEnabled(req.PaymentMethod)
	if !enabled {
		return pos.Order{}, pos.ErrInvalidPaymentMethod
	}

	var student pos.Student
	if req.PaymentMethod == pos.PaymentWallet {
		if req.StudentID == "" {
			return pos.Order{}, pos.ErrStudentRequired
		}
		student, err = tx.Students().Find(ctx, store, req.StudentID)
		if err != nil {
			return pos.Order{}, err
		}
		if !student.Active {
			return pos.Order{}, pos.ErrStudentInactive
		}
	}

	lines, err := lockLines(ctx, tx, store, items)
	if err != nil {
		return pos.Order{}, err
	}

	gross := cart.Gross(lines)
	amount := decimal.Zero
	var code pos.DiscountCode
	if req.DiscountCode != "" {
		code, err = tx.Discounts().FindByCode(ctx, store, discount.NormalizeCode(req.DiscountCode))
		switch {
		case errors.Is(err, pos.ErrInvalidDiscountCode):
			// unknown codes do not block the sale
		case err != nil:
			return pos.Order{}, err
		default:
			amount = discount.Amount(code, gross, now)
		}
	}
	applied := amount.IsPositive()
	if !applied {
		amount = decimal.Zero
	}

	taxLines := make([]tax.Line, len(lines))
	for i, l := range lines {
		taxLines[i] = tax.LineOf(l.Product, l.Item.Quantity)
	}
	split := s.Tax.Split(taxLines, amount)

	order := pos.Order{
		UUID:           uuid.NewString(),
		StoreID:        store,
		UserID:         req.Cart.UserID,
		CashierID:      req.CashierID,
		Subtotal:       gross,
		Discount:       amount,
		VAT:            split.VAT,
		VatableSales:   split.VatableSales,
		VatExemptSales: split.VatExemptSales,
		Total:          split.Total,
		Status:         pos.StatusConfirm,
		IsPayed:        true,
		PaymentMethod:  req.PaymentMethod,
		PaymentVendor:  vendor,
		Notes:          req.Notes,
		CreatedAt:      now,
	}
	if order.CashierID == "" {
		order.CashierID = req.Cart.UserID
	}
	if applied {
		order.DiscountCode = code.Code
	}
	for i, l := range lines {
		order.Items = append(order.Items, pos.OrderItem{
			OrderUUID: order.UUID,
			ProductID: l.Product.ID,
			Item:      l.Product.DisplayName(),
			Price:     l.Product.UnitPrice(),
			Qty:       l.Item.Quantity,
			Total:     l.Gross(),
			VAT:       split.Lines[i].VAT,
			Discount:  split.Lines[i].Discount,
		})
	}

	if req.PaymentMethod == pos.PaymentWallet {
		if err := s.debit(ctx, tx, student, &order, now); err != nil {
			return pos.Order{}, err
		}
	}

	if err := tx.Orders().Create(ctx, order); err != nil {
		return pos.Order{}, err
	}
	for _, l := range lines {
		if err := tx.Products().DecrementStock(ctx, store, l.Product.ID, l.Item.Quantity); err != nil {
			return pos.Order{}, err
		}
	}
	if applied {
		if err := tx.Discounts().IncrementUsage(ctx, store, code.ID); err != nil {
			return pos.Order{}, err
		}
	}
	// Only the lines that were sold; a line added after Items was read stays.
	for _, it := range items {
		if _, err := tx.Carts().Delete(ctx, req.Cart, it.ProductID); err != nil {
			return pos.Order{}, err
		}
	}
	return order, nil
}

// lockLines row-locks every product in id order and re-checks stock at the
// cart quantity. The returned lines keep cart order.
func lockLines(ctx context.Context, tx pos.Tx, store pos.StoreID, items []pos.CartItem) ([]pos.CartLine, error) {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	sort.Strings(ids)

	products := make(map[string]pos.Product, len(ids))
	for _, id := range ids {
		p, err := tx.Products().FindForUpdate(ctx, store, id)
		if err != nil {
			return nil, err
		}
		products[id] = p
	}

	lines := make([]pos.CartLine, len(items))
	for i, it := range items {
		p := products[it.ProductID]
		if !p.InStock(it.Quantity) {
			return nil, pos.OutOfStock(p.DisplayName())
		}
		lines[i] = pos.CartLine{Item: it, Product: p}
	}
	return lines, nil
}

func (s *Service) debit(ctx context.Context, tx pos.Tx, student pos.Student, order *pos.Order, now time.Time) error {
	key := student.WalletKey()
	if !key.Slug.Valid() {
		return pos.InsufficientBalance(decimal.Zero)
	}
	bal, err := tx.Wallets().Lock(ctx, key)
	if err != nil {
		return err
	}
	if bal.LessThan(order.Total) {
		return pos.InsufficientBalance(bal)
	}
	order.StudentID = student.ID
	order.WalletType = key.Slug
	if !order.Total.IsPositive() {
		return nil
	}
	meta := map[string]string{
		"order_uuid": order.UUID,
		"store_id":   string(order.StoreID),
		"cashier_id": order.CashierID,
	}
	_, wtx, err := wallet.Withdraw(ctx, tx.Wallets(), key, order.Total, meta, now)
	if err != nil {
		return err
	}
	order.WalletTransactionID = wtx.ID
	return nil
}

// Cancel empties the cart. Nothing else was committed, so nothing else moves.
func (s *Service) Cancel(ctx context.Context, key pos.CartKey) error {
	err := s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		return tx.Carts().Clear(ctx, key)
	})
	if err != nil {
		s.log().Error("cancel cart", zap.String("store_id", string(key.StoreID)), zap.String("user_id", key.UserID), zap.Error(err))
		return pos.ErrCheckoutFailed
	}
	return nil
}

// ValidateDiscount previews code against subtotal with the same rules
// Checkout applies. It writes nothing.
func (s *Service) ValidateDiscount(ctx context.Context, store pos.StoreID, code string, subtotal decimal.Decimal) (discount.Preview, error) {
	var p discount.Preview
	err := s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		var err error
		p, _, err = discount.Lookup(ctx, tx.Discounts(), store, code, subtotal, s.now())
		return err
	})
	return p, err
}

// ValidateCartDiscount previews code against the current gross of a cart.
func (s *Service) ValidateCartDiscount(ctx context.Context, key pos.CartKey, code string) (discount.Preview, error) {
	var p discount.Preview
	err := s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		lines, err := cart.Lines(ctx, tx, key)
		if err != nil {
			return err
		}
		p, _, err = discount.Lookup(ctx, tx.Discounts(), key.StoreID, code, cart.Gross(lines), s.now())
		return err
	})
	return p, err
}

func (s *Service) Order(ctx context.Context, store pos.StoreID, id string) (pos.Order, error) {
	var o pos.Order
	err := s.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		var err error
		o, err = tx.Orders().Get(ctx, store, id)
		return err
	})
	return o, err
}
