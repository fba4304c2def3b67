package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

const productCols = `store_id, id, name, price, has_vat, stock, track_inventory, active, updated_at`

type productRepo struct{ tx pgx.Tx }

func scanProduct(row pgx.Row) (pos.Product, error) {
	var (
		p     pos.Product
		store string
	)
	err := row.Scan(&store, &p.ID, &p.Name, &p.Price, &p.HasVAT, &p.Stock, &p.TrackInventory, &p.Active, &p.UpdatedAt)
	p.StoreID = pos.StoreID(store)
	return p, err
}

func (r productRepo) find(ctx context.Context, store pos.StoreID, id, suffix string) (pos.Product, error) {
	p, err := scanProduct(r.tx.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE store_id=$1 AND id=$2 AND active`+suffix,
		string(store), id))
	if err != nil {
		return pos.Product{}, notFound(err, pos.ErrProductNotFound)
	}
	return p, nil
}

func (r productRepo) Find(ctx context.Context, store pos.StoreID, id string) (pos.Product, error) {
	return r.find(ctx, store, id, "")
}

func (r productRepo) FindForUpdate(ctx context.Context, store pos.StoreID, id string) (pos.Product, error) {
	return r.find(ctx, store, id, " FOR UPDATE")
}

func (r productRepo) IsInStock(ctx context.Context, store pos.StoreID, id string, qty int) (bool, error) {
	p, err := r.Find(ctx, store, id)
	if err != nil {
		return false, err
	}
	return p.InStock(qty), nil
}

// DecrementStock guards on stock >= qty in the UPDATE itself, so it is safe
// even without a prior FindForUpdate.
func (r productRepo) DecrementStock(ctx context.Context, store pos.StoreID, id string, qty int) error {
	ct, err := r.tx.Exec(ctx, `
		UPDATE products SET stock = stock - $3, updated_at = now()
		WHERE store_id=$1 AND id=$2 AND track_inventory AND stock >= $3`,
		string(store), id, qty)
	if err != nil {
		return fmt.Errorf("decrement stock %s: %w", id, err)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}
	var (
		name    string
		tracked bool
	)
	err = r.tx.QueryRow(ctx, `SELECT name, track_inventory FROM products WHERE store_id=$1 AND id=$2`,
		string(store), id).Scan(&name, &tracked)
	if err != nil {
		return notFound(err, pos.ErrProductNotFound)
	}
	if !tracked {
		return nil
	}
	return pos.OutOfStock(name)
}

type studentRepo struct{ tx pgx.Tx }

func (r studentRepo) Find(ctx context.Context, store pos.StoreID, id string) (pos.Student, error) {
	s := pos.Student{StoreID: store}
	var slug string
	err := r.tx.QueryRow(ctx, `SELECT id, name, active, wallet_type FROM students WHERE store_id=$1 AND id=$2`,
		string(store), id).Scan(&s.ID, &s.Name, &s.Active, &slug)
	if err != nil {
		return pos.Student{}, notFound(err, pos.ErrStudentNotFound)
	}
	s.WalletType = pos.WalletSlug(slug)
	return s, nil
}
