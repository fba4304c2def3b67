package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type cartRepo struct{ tx pgx.Tx }

func (r cartRepo) Items(ctx context.Context, key pos.CartKey) ([]pos.CartItem, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT product_id, quantity, added_at FROM cart_items
		WHERE store_id=$1 AND user_id=$2
		ORDER BY added_at, product_id
		FOR UPDATE`, string(key.StoreID), key.UserID)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	defer rows.Close()

	var out []pos.CartItem
	for rows.Next() {
		var it pos.CartItem
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r cartRepo) Item(ctx context.Context, key pos.CartKey, productID string) (pos.CartItem, bool, error) {
	it := pos.CartItem{ProductID: productID}
	err := r.tx.QueryRow(ctx, `
		SELECT quantity, added_at FROM cart_items
		WHERE store_id=$1 AND user_id=$2 AND product_id=$3
		FOR UPDATE`, string(key.StoreID), key.UserID, productID).Scan(&it.Quantity, &it.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return pos.CartItem{}, false, nil
	}
	if err != nil {
		return pos.CartItem{}, false, err
	}
	return it, true, nil
}

func (r cartRepo) Put(ctx context.Context, key pos.CartKey, item pos.CartItem) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO cart_items(store_id, user_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
		ON CONFLICT (store_id, user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		string(key.StoreID), key.UserID, item.ProductID, item.Quantity, nullTime(item.AddedAt))
	if err != nil {
		return fmt.Errorf("put cart item %s: %w", item.ProductID, err)
	}
	return nil
}

func (r cartRepo) AddQuantity(ctx context.Context, key pos.CartKey, productID string, qty int, addedAt time.Time) (pos.CartItem, error) {
	it := pos.CartItem{ProductID: productID}
	err := r.tx.QueryRow(ctx, `
		INSERT INTO cart_items(store_id, user_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
		ON CONFLICT (store_id, user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING quantity, added_at`,
		string(key.StoreID), key.UserID, productID, qty, nullTime(addedAt)).Scan(&it.Quantity, &it.AddedAt)
	if err != nil {
		return pos.CartItem{}, fmt.Errorf("add cart item %s: %w", productID, err)
	}
	return it, nil
}

func (r cartRepo) Delete(ctx context.Context, key pos.CartKey, productID string) (bool, error) {
	ct, err := r.tx.Exec(ctx, `DELETE FROM cart_items WHERE store_id=$1 AND user_id=$2 AND product_id=$3`,
		string(key.StoreID), key.UserID, productID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r cartRepo) Clear(ctx context.Context, key pos.CartKey) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM cart_items WHERE store_id=$1 AND user_id=$2`,
		string(key.StoreID), key.UserID)
	return err
}
