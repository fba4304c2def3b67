// Package wallet is the append-only balance store for student wallets.
//
// Every balance move is a deposit or withdraw transaction appended under the
// wallet's row lock; the balance check and the mutation happen inside the
// same transaction, so concurrent withdrawals are linearized.
package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type Ledger struct {
	Store pos.Store
	Log   *zap.Logger
	Now   func() time.Time
}

func NewLedger(store pos.Store, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{Store: store, Log: log}
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now().UTC()
	}
	return l.Now().UTC()
}

// Resolve returns the key of a student's wallet in store. The student must
// belong to store; a holder of another tenant is reported as not found.
func (l *Ledger) Resolve(ctx context.Context, store pos.StoreID, holderID string, slug pos.WalletSlug) (pos.WalletKey, error) {
	if !slug.Valid() {
		return pos.WalletKey{}, pos.ErrUnknownWallet
	}
	err := l.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		_, err := tx.Students().Find(ctx, store, holderID)
		return err
	})
	if err != nil {
		return pos.WalletKey{}, err
	}
	return pos.WalletKey{StoreID: store, HolderID: holderID, HolderType: pos.HolderStudent, Slug: slug}, nil
}

func (l *Ledger) Balance(ctx context.Context, key pos.WalletKey) (decimal.Decimal, error) {
	if !key.Slug.Valid() {
		return decimal.Zero, pos.ErrUnknownWallet
	}
	var bal decimal.Decimal
	err := l.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		var err error
		bal, err = tx.Wallets().Balance(ctx, key)
		return err
	})
	return bal, err
}

func (l *Ledger) Deposit(ctx context.Context, key pos.WalletKey, amount decimal.Decimal, meta map[string]string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := l.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		var err error
		bal, _, err = Deposit(ctx, tx.Wallets(), key, amount, meta, l.now())
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	l.Log.Info("wallet deposit",
		zap.String("store_id", string(key.StoreID)),
		zap.String("holder_id", key.HolderID),
		zap.String("slug", string(key.Slug)),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", bal.StringFixed(2)))
	return bal, nil
}

func (l *Ledger) Withdraw(ctx context.Context, key pos.WalletKey, amount decimal.Decimal, meta map[string]string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := l.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		var err error
		bal, _, err = Withdraw(ctx, tx.Wallets(), key, amount, meta, l.now())
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	l.Log.Info("wallet withdraw",
		zap.String("store_id", string(key.StoreID)),
		zap.String("holder_id", key.HolderID),
		zap.String("slug", string(key.Slug)),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", bal.StringFixed(2)))
	return bal, nil
}

func (l *Ledger) History(ctx context.Context, key pos.WalletKey) ([]pos.WalletTransaction, error) {
	if !key.Slug.Valid() {
		return nil, pos.ErrUnknownWallet
	}
	var txs []pos.WalletTransaction
	err := l.Store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		var err error
		txs, err = tx.Wallets().Transactions(ctx, key)
		return err
	})
	return txs, err
}

// Deposit appends a deposit inside an open transaction and returns the new
// balance and the recorded transaction.
func Deposit(ctx context.Context, r pos.WalletRepo, key pos.WalletKey, amount decimal.Decimal, meta map[string]string, at time.Time) (decimal.Decimal, pos.WalletTransaction, error) {
	if !key.Slug.Valid() {
		return decimal.Zero, pos.WalletTransaction{}, pos.ErrUnknownWallet
	}
	if !amount.IsPositive() {
		return decimal.Zero, pos.WalletTransaction{}, pos.ErrInvalidAmount
	}
	if _, err := r.Lock(ctx, key); err != nil {
		return decimal.Zero, pos.WalletTransaction{}, err
	}
	return appendTx(ctx, r, key, pos.WalletDeposit, amount, meta, at)
}

// Withdraw appends a withdraw inside an open transaction. The balance is
// read under the wallet lock, so the check cannot race another withdrawal.
func Withdraw(ctx context.Context, r pos.WalletRepo, key pos.WalletKey, amount decimal.Decimal, meta map[string]string, at time.Time) (decimal.Decimal, pos.WalletTransaction, error) {
	if !key.Slug.Valid() {
		return decimal.Zero, pos.WalletTransaction{}, pos.ErrUnknownWallet
	}
	if !amount.IsPositive() {
		return decimal.Zero, pos.WalletTransaction{}, pos.ErrInvalidAmount
	}
	bal, err := r.Lock(ctx, key)
	if err != nil {
		return decimal.Zero, pos.WalletTransaction{}, err
	}
	if amount.GreaterThan(bal) {
		return bal, pos.WalletTransaction{}, pos.ErrInsufficientFunds
	}
	return appendTx(ctx, r, key, pos.WalletWithdraw, amount, meta, at)
}

func appendTx(ctx context.Context, r pos.WalletRepo, key pos.WalletKey, typ pos.WalletTxType, amount decimal.Decimal, meta map[string]string, at time.Time) (decimal.Decimal, pos.WalletTransaction, error) {
	t := pos.WalletTransaction{
		ID:        uuid.NewString(),
		Type:      typ,
		Amount:    amount,
		Meta:      meta,
		CreatedAt: at,
	}
	bal, err := r.Append(ctx, key, t)
	if err != nil {
		return decimal.Zero, pos.WalletTransaction{}, err
	}
	return bal, t, nil
}
