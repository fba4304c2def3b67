package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

// Store runs each unit of work in one read-committed transaction. Shared
// rows (products, wallets, discount codes, cart lines) are taken with
// SELECT ... FOR UPDATE, so check-then-write sequences are linearized per row.
type Store struct{ DB *pgxpool.Pool }

var _ pos.Store = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx pos.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &repos{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type repos struct{ tx pgx.Tx }

func (r *repos) Carts() pos.CartRepo            { return cartRepo{r.tx} }
func (r *repos) Products() pos.ProductCatalog   { return productRepo{r.tx} }
func (r *repos) Discounts() pos.DiscountRepo    { return discountRepo{r.tx} }
func (r *repos) Wallets() pos.WalletRepo        { return walletRepo{r.tx} }
func (r *repos) Orders() pos.OrderRepo          { return orderRepo{r.tx} }
func (r *repos) Students() pos.StudentDirectory { return studentRepo{r.tx} }

func notFound(err error, domain error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain
	}
	return err
}
