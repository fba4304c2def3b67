package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type walletRepo struct{ tx pgx.Tx }

func (r walletRepo) Balance(ctx context.Context, key pos.WalletKey) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE store_id=$1 AND holder_id=$2 AND holder_type=$3 AND slug=$4`,
		string(key.StoreID), key.HolderID, key.HolderType, string(key.Slug)).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	return bal, err
}

func (r walletRepo) Lock(ctx context.Context, key pos.WalletKey) (decimal.Decimal, error) {
	if _, err := r.tx.Exec(ctx, `
		INSERT INTO wallets(store_id, holder_id, holder_type, slug) VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`, string(key.StoreID), key.HolderID, key.HolderType, string(key.Slug)); err != nil {
		return decimal.Zero, fmt.Errorf("create wallet: %w", err)
	}
	var bal decimal.Decimal
	err := r.tx.QueryRow(ctx, `
		SELECT balance FROM wallets WHERE store_id=$1 AND holder_id=$2 AND holder_type=$3 AND slug=$4
		FOR UPDATE`, string(key.StoreID), key.HolderID, key.HolderType, string(key.Slug)).Scan(&bal)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock wallet: %w", err)
	}
	return bal, nil
}

func (r walletRepo) Append(ctx context.Context, key pos.WalletKey, t pos.WalletTransaction) (decimal.Decimal, error) {
	meta := t.Meta
	if meta == nil {
		meta = map[string]string{}
	}
	if _, err := r.tx.Exec(ctx, `
		INSERT INTO wallet_transactions(id, store_id, holder_id, holder_type, slug, type, amount, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, string(key.StoreID), key.HolderID, key.HolderType, string(key.Slug), string(t.Type), t.Amount, meta, t.CreatedAt); err != nil {
		return decimal.Zero, fmt.Errorf("insert wallet transaction: %w", err)
	}
	var bal decimal.Decimal
	err := r.tx.QueryRow(ctx, `
		UPDATE wallets SET balance = balance + $5
		WHERE store_id=$1 AND holder_id=$2 AND holder_type=$3 AND slug=$4
		RETURNING balance`, string(key.StoreID), key.HolderID, key.HolderType, string(key.Slug), t.Signed()).Scan(&bal)
	if err != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}
	return bal, nil
}

func (r walletRepo) Transactions(ctx context.Context, key pos.WalletKey) ([]pos.WalletTransaction, error) {
	rows, err := r.tx.Query(ctx, `
		SELECT id, type, amount, meta, created_at FROM wallet_transactions
		WHERE store_id=$1 AND holder_id=$2 AND holder_type=$3 AND slug=$4
		ORDER BY created_at, id`, string(key.StoreID), key.HolderID, key.HolderType, string(key.Slug))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pos.WalletTransaction
	for rows.Next() {
		var (
			t   pos.WalletTransaction
			typ string
		)
		if err := rows.Scan(&t.ID, &typ, &t.Amount, &t.Meta, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type = pos.WalletTxType(typ)
		out = append(out, t)
	}
	return out, rows.Err()
}
