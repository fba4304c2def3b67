package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type discountRepo struct{ tx pgx.Tx }

// FindByCode locks the code row so concurrent checkouts applying the same
// code serialize on its usage counter.
func (r discountRepo) FindByCode(ctx context.Context, store pos.StoreID, code string) (pos.DiscountCode, error) {
	c := pos.DiscountCode{StoreID: store}
	var typ string
	err := r.tx.QueryRow(ctx, `
		SELECT id, code, type, value, min_order_amount, max_discount_amount,
		       usage_limit, used_count, valid_from, valid_until, is_active
		FROM discount_codes
		WHERE store_id=$1 AND upper(code)=upper($2)
		FOR UPDATE`, string(store), code).Scan(
		&c.ID, &c.Code, &typ, &c.Value, &c.MinOrderAmount, &c.MaxDiscountAmount,
		&c.UsageLimit, &c.UsedCount, &c.ValidFrom, &c.ValidUntil, &c.IsActive)
	if err != nil {
		return pos.DiscountCode{}, notFound(err, pos.ErrInvalidDiscountCode)
	}
	c.Type = pos.DiscountType(typ)
	return c, nil
}

func (r discountRepo) IncrementUsage(ctx context.Context, store pos.StoreID, id string) error {
	ct, err := r.tx.Exec(ctx, `UPDATE discount_codes SET used_count = used_count + 1 WHERE store_id=$1 AND id=$2`,
		string(store), id)
	if err != nil {
		return fmt.Errorf("increment usage %s: %w", id, err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("discount %s: %w", id, pos.ErrInvalidDiscountCode)
	}
	return nil
}
