package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-cafeteria-pos/internal/memstore"
	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

var key = pos.WalletKey{StoreID: "store-1", HolderID: "stu-1", HolderType: pos.HolderStudent, Slug: pos.WalletSubscribe}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBalance_DefaultsToZero(t *testing.T) {
	l := NewLedger(memstore.New(), nil)

	bal, err := l.Balance(context.Background(), key)

	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestDepositThenWithdraw(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memstore.New(), nil)

	bal, err := l.Deposit(ctx, key, d("200"), map[string]string{"source": "cashier"})
	require.NoError(t, err)
	assert.True(t, bal.Equal(d("200")))

	bal, err = l.Withdraw(ctx, key, d("150.50"), nil)
	require.NoError(t, err)
	assert.True(t, bal.Equal(d("49.50")))

	txs, err := l.History(ctx, key)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, pos.WalletDeposit, txs[0].Type)
	assert.Equal(t, "cashier", txs[0].Meta["source"])
	assert.Equal(t, pos.WalletWithdraw, txs[1].Type)
	assert.NotEmpty(t, txs[1].ID)

	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Signed())
	}
	assert.True(t, sum.Equal(bal))
}

func TestWithdraw_InsufficientFundsLeavesBalance(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memstore.New(), nil)
	_, err := l.Deposit(ctx, key, d("50"), nil)
	require.NoError(t, err)

	_, err = l.Withdraw(ctx, key, d("50.01"), nil)

	assert.ErrorIs(t, err, pos.ErrInsufficientFunds)
	bal, _ := l.Balance(ctx, key)
	assert.True(t, bal.Equal(d("50")))
	txs, _ := l.History(ctx, key)
	assert.Len(t, txs, 1)
}

func TestWithdraw_ExactBalance(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memstore.New(), nil)
	_, err := l.Deposit(ctx, key, d("50"), nil)
	require.NoError(t, err)

	bal, err := l.Withdraw(ctx, key, d("50"), nil)

	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestInvalidAmounts(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memstore.New(), nil)

	for _, amt := range []string{"0", "-5"} {
		_, err := l.Deposit(ctx, key, d(amt), nil)
		assert.ErrorIs(t, err, pos.ErrInvalidAmount, "deposit %s", amt)
		_, err = l.Withdraw(ctx, key, d(amt), nil)
		assert.ErrorIs(t, err, pos.ErrInvalidAmount, "withdraw %s", amt)
	}
}

func TestUnknownSlug(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memstore.New(), nil)
	bad := pos.WalletKey{StoreID: "store-1", HolderID: "stu-1", HolderType: pos.HolderStudent, Slug: "gold"}

	_, err := l.Balance(ctx, bad)
	assert.ErrorIs(t, err, pos.ErrUnknownWallet)
	_, err = l.Deposit(ctx, bad, d("1"), nil)
	assert.ErrorIs(t, err, pos.ErrUnknownWallet)
}

func TestWalletsAreIndependentPerSlug(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memstore.New(), nil)
	other := key
	other.Slug = pos.WalletNonSubscribe

	_, err := l.Deposit(ctx, key, d("10"), nil)
	require.NoError(t, err)

	bal, err := l.Balance(ctx, other)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memstore.New(), nil)
	_, err := l.Deposit(ctx, key, d("100"), nil)
	require.NoError(t, err)

	const n = 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Withdraw(ctx, key, d("10"), nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, pos.ErrInsufficientFunds):
				fail++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, n-10, fail)
	bal, _ := l.Balance(ctx, key)
	assert.True(t, bal.IsZero())
}

func TestTxScopedWithdraw_RollsBackWithCaller(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	l := NewLedger(s, nil)
	_, err := l.Deposit(ctx, key, d("30"), nil)
	require.NoError(t, err)
	boom := errors.New("later step failed")

	err = s.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
		bal, wtx, err := Withdraw(ctx, tx.Wallets(), key, d("30"), map[string]string{"order_uuid": "o-1"}, l.now())
		require.NoError(t, err)
		assert.True(t, bal.IsZero())
		assert.Equal(t, "o-1", wtx.Meta["order_uuid"])
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.True(t, s.WalletBalance(key).Equal(d("30")))
}

func TestResolve_RequiresStudentOfTheStore(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	s.PutStudent(pos.Student{ID: "stu-1", StoreID: "store-1", Active: true})
	l := NewLedger(s, nil)

	got, err := l.Resolve(ctx, "store-1", "stu-1", pos.WalletSubscribe)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = l.Resolve(ctx, "store-2", "stu-1", pos.WalletSubscribe)
	assert.ErrorIs(t, err, pos.ErrStudentNotFound)

	_, err = l.Resolve(ctx, "store-1", "stu-1", "gold")
	assert.ErrorIs(t, err, pos.ErrUnknownWallet)
}

func TestWallets_SameHolderInTwoStoresAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memstore.New(), nil)
	other := key
	other.StoreID = "store-2"

	_, err := l.Deposit(ctx, key, d("200"), nil)
	require.NoError(t, err)

	_, err = l.Withdraw(ctx, other, d("100"), nil)
	require.ErrorIs(t, err, pos.ErrInsufficientFunds)

	bal, err := l.Balance(ctx, key)
	require.NoError(t, err)
	assert.True(t, bal.Equal(d("200")))
}

func TestLedger_RecordsTransactionsInUTC(t *testing.T) {
	ctx := context.Background()
	l := NewLedger(memstore.New(), nil)
	l.Now = func() time.Time { return time.Date(2026, 3, 2, 18, 0, 0, 0, time.FixedZone("PHT", 8*60*60)) }

	_, err := l.Deposit(ctx, key, d("10"), nil)
	require.NoError(t, err)

	l.Now = nil
	_, err = l.Withdraw(ctx, key, d("5"), nil)
	require.NoError(t, err)

	txs, err := l.History(ctx, key)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, time.UTC, tx.CreatedAt.Location())
	}
	assert.Equal(t, 10, txs[0].CreatedAt.Hour())
}
