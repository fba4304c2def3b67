package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type orderRepo struct{ tx pgx.Tx }

func (r orderRepo) Create(ctx context.Context, o pos.Order) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO orders(uuid, store_id, user_id, cashier_id, student_id, subtotal, discount, discount_code,
		                   vat, vatable_sales, vat_exempt_sales, total, status, is_payed, payment_method,
		                   payment_vendor, wallet_type, wallet_transaction_id, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		o.UUID, string(o.StoreID), o.UserID, o.CashierID, o.StudentID, o.Subtotal, o.Discount, o.DiscountCode,
		o.VAT, o.VatableSales, o.VatExemptSales, o.Total, string(o.Status), o.IsPayed, o.PaymentMethod,
		o.PaymentVendor, string(o.WalletType), o.WalletTransactionID, o.Notes, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	b := &pgx.Batch{}
	for i, it := range o.Items {
		b.Queue(`
			INSERT INTO order_items(order_uuid, line_no, product_id, item, price, qty, total, vat, discount)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			o.UUID, i+1, it.ProductID, it.Item, it.Price, it.Qty, it.Total, it.VAT, it.Discount)
	}
	if err := r.tx.SendBatch(ctx, b).Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

func (r orderRepo) Get(ctx context.Context, store pos.StoreID, id string) (pos.Order, error) {
	o := pos.Order{StoreID: store}
	var status, walletType string
	err := r.tx.QueryRow(ctx, `
		SELECT uuid, user_id, cashier_id, student_id, subtotal, discount, discount_code, vat,
		       vatable_sales, vat_exempt_sales, total, status, is_payed, payment_method,
		       payment_vendor, wallet_type, wallet_transaction_id, notes, created_at
		FROM orders WHERE store_id=$1 AND uuid=$2`, string(store), id).Scan(
		&o.UUID, &o.UserID, &o.CashierID, &o.StudentID, &o.Subtotal, &o.Discount, &o.DiscountCode, &o.VAT,
		&o.VatableSales, &o.VatExemptSales, &o.Total, &status, &o.IsPayed, &o.PaymentMethod,
		&o.PaymentVendor, &walletType, &o.WalletTransactionID, &o.Notes, &o.CreatedAt)
	if err != nil {
		return pos.Order{}, notFound(err, pos.ErrOrderNotFound)
	}
	o.Status = pos.Status(status)
	o.WalletType = pos.WalletSlug(walletType)

	rows, err := r.tx.Query(ctx, `
		SELECT product_id, item, price, qty, total, vat, discount
		FROM order_items WHERE order_uuid=$1 ORDER BY line_no`, o.UUID)
	if err != nil {
		return pos.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		it := pos.OrderItem{OrderUUID: o.UUID}
		if err := rows.Scan(&it.ProductID, &it.Item, &it.Price, &it.Qty, &it.Total, &it.VAT, &it.Discount); err != nil {
			return pos.Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
