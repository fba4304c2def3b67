package features

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-cafeteria-pos/internal/cart"
	"github.com/ariefcatur/go-cafeteria-pos/internal/checkout"
	"github.com/ariefcatur/go-cafeteria-pos/internal/memstore"
	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
	"github.com/ariefcatur/go-cafeteria-pos/internal/tax"
)

const store pos.StoreID = "canteen"

type methods map[string]string

func (m methods) MethodEnabled(name string) (bool, string) {
	v, ok := m[name]
	return ok, v
}

type checkoutTestContext struct {
	store    *memstore.Store
	carts    *cart.Service
	svc      *checkout.Service
	key      pos.CartKey
	order    pos.Order
	err      error
	outcomes []error
}

func (c *checkoutTestContext) reset() {
	c.store = memstore.New()
	c.carts = cart.NewService(c.store)
	c.key = pos.CartKey{StoreID: store, UserID: "cashier-1"}
	c.order = pos.Order{}
	c.err = nil
	c.outcomes = nil
}

func money(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

func (c *checkoutTestContext) aStoreWithTaxRate(rate string) error {
	r, err := money(rate)
	if err != nil {
		return err
	}
	c.svc = &checkout.Service{
		Store:    c.store,
		Payments: methods{pos.PaymentCash: "", pos.PaymentWallet: ""},
		Tax:      tax.New(r),
		Now:      time.Now,
	}
	return nil
}

func (c *checkoutTestContext) putProduct(id, name, price string, vat bool, stock int, tracked bool) error {
	p, err := money(price)
	if err != nil {
		return err
	}
	c.store.PutProduct(pos.Product{ID: id, StoreID: store, Name: name, Price: p, HasVAT: vat, Stock: stock, TrackInventory: tracked, Active: true})
	return nil
}

func (c *checkoutTestContext) theProductWithStock(id, name, price, vat string, stock int) error {
	return c.putProduct(id, name, price, vat == "with", stock, true)
}

func (c *checkoutTestContext) theProductWithUnlimitedStock(id, name, price, vat string) error {
	return c.putProduct(id, name, price, vat == "with", 0, false)
}

func (c *checkoutTestContext) theDiscountCodeTakesOff(code, amount string) error {
	v, err := money(amount)
	if err != nil {
		return err
	}
	c.store.PutDiscount(pos.DiscountCode{StoreID: store, Code: code, Type: pos.DiscountFixed, Value: v, IsActive: true})
	return nil
}

func (c *checkoutTestContext) theDiscountCodeIsSpent(code, amount string, limit int) error {
	v, err := money(amount)
	if err != nil {
		return err
	}
	c.store.PutDiscount(pos.DiscountCode{StoreID: store, Code: code, Type: pos.DiscountFixed, Value: v, UsageLimit: &limit, UsedCount: limit, IsActive: true})
	return nil
}

func (c *checkoutTestContext) studentHasInWallet(id, amount, slug string) error {
	v, err := money(amount)
	if err != nil {
		return err
	}
	c.store.PutStudent(pos.Student{ID: id, StoreID: store, Name: id, Active: true, WalletType: pos.WalletSlug(slug)})
	key := pos.WalletKey{StoreID: store, HolderID: id, HolderType: pos.HolderStudent, Slug: pos.WalletSlug(slug)}
	return c.store.InTx(context.Background(), func(ctx context.Context, tx pos.Tx) error {
		if _, err := tx.Wallets().Lock(ctx, key); err != nil {
			return err
		}
		_, err := tx.Wallets().Append(ctx, key, pos.WalletTransaction{Type: pos.WalletDeposit, Amount: v, CreatedAt: time.Now()})
		return err
	})
}

func (c *checkoutTestContext) iAddToTheCart(qty int, id string) error {
	_, err := c.carts.Add(context.Background(), c.key, id, qty)
	return err
}

func (c *checkoutTestContext) checkout(method, student, code string) error {
	c.order, c.err = c.svc.Checkout(context.Background(), checkout.Request{
		Cart:          c.key,
		PaymentMethod: method,
		StudentID:     student,
		DiscountCode:  code,
	})
	return nil
}

func (c *checkoutTestContext) iCheckOutPaying(method string) error {
	return c.checkout(method, "", "")
}

func (c *checkoutTestContext) iCheckOutPayingWithCode(method, code string) error {
	return c.checkout(method, "", code)
}

func (c *checkoutTestContext) iCheckOutPayingForStudent(method, student string) error {
	return c.checkout(method, student, "")
}

func (c *checkoutTestContext) iCheckOutPayingForStudentWithCode(method, student, code string) error {
	return c.checkout(method, student, code)
}

func (c *checkoutTestContext) customersCheckOutConcurrently(n, qty int, id string) error {
	ctx := context.Background()
	keys := make([]pos.CartKey, n)
	for i := range keys {
		keys[i] = pos.CartKey{StoreID: store, UserID: fmt.Sprintf("customer-%d", i)}
		err := c.store.InTx(ctx, func(ctx context.Context, tx pos.Tx) error {
			return tx.Carts().Put(ctx, keys[i], pos.CartItem{ProductID: id, Quantity: qty})
		})
		if err != nil {
			return err
		}
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, k := range keys {
		wg.Add(1)
		go func(k pos.CartKey) {
			defer wg.Done()
			_, err := c.svc.Checkout(ctx, checkout.Request{Cart: k, PaymentMethod: pos.PaymentCash})
			mu.Lock()
			c.outcomes = append(c.outcomes, err)
			mu.Unlock()
		}(k)
	}
	wg.Wait()
	return nil
}

func (c *checkoutTestContext) theCheckoutSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success but got %v", c.err)
	}
	return nil
}

func (c *checkoutTestContext) theCheckoutFailsWith(kind string) error {
	if c.err == nil {
		return fmt.Errorf("expected %s but checkout succeeded", kind)
	}
	if got := pos.KindOf(c.err).String(); got != kind {
		return fmt.Errorf("expected %s, got %s (%v)", kind, got, c.err)
	}
	return nil
}

func (c *checkoutTestContext) theErrorMessageIs(msg string) error {
	if c.err == nil || c.err.Error() != msg {
		return fmt.Errorf("expected error %q, got %v", msg, c.err)
	}
	return nil
}

func equalMoney(field string, got decimal.Decimal, want string) error {
	w, err := money(want)
	if err != nil {
		return err
	}
	if !got.Equal(w) {
		return fmt.Errorf("expected %s %s, got %s", field, w.StringFixed(2), got.StringFixed(2))
	}
	return nil
}

func (c *checkoutTestContext) theOrderVATIs(v string) error {
	return equalMoney("vat", c.order.VAT, v)
}

func (c *checkoutTestContext) theOrderTotalIs(v string) error {
	return equalMoney("total", c.order.Total, v)
}

func (c *checkoutTestContext) theOrderDiscountIs(v string) error {
	return equalMoney("discount", c.order.Discount, v)
}

func (c *checkoutTestContext) theOrderVatableSalesAre(v string) error {
	return equalMoney("vatable sales", c.order.VatableSales, v)
}

func (c *checkoutTestContext) theOrderIsPaid() error {
	if !c.order.IsPayed || c.order.Status != pos.StatusConfirm {
		return fmt.Errorf("expected confirmed paid order, got status=%s paid=%v", c.order.Status, c.order.IsPayed)
	}
	return nil
}

func (c *checkoutTestContext) theDiscountCodeHasBeenUsed(code string, n int) error {
	dc, ok := c.store.Discount(store, code)
	if !ok {
		return fmt.Errorf("discount code %s not found", code)
	}
	if dc.UsedCount != n {
		return fmt.Errorf("expected %s used %d times, got %d", code, n, dc.UsedCount)
	}
	return nil
}

func (c *checkoutTestContext) studentWalletBalanceIs(id, amount, slug string) error {
	key := pos.WalletKey{StoreID: store, HolderID: id, HolderType: pos.HolderStudent, Slug: pos.WalletSlug(slug)}
	return equalMoney("balance", c.store.WalletBalance(key), amount)
}

func (c *checkoutTestContext) noOrderExists() error {
	if n := len(c.store.Orders(store)); n != 0 {
		return fmt.Errorf("expected no orders, found %d", n)
	}
	return nil
}

func (c *checkoutTestContext) theCartHasLines(n int) error {
	if got := len(c.store.CartItems(c.key)); got != n {
		return fmt.Errorf("expected %d cart lines, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartLineHasQuantity(id string, qty int) error {
	for _, it := range c.store.CartItems(c.key) {
		if it.ProductID == id {
			if it.Quantity != qty {
				return fmt.Errorf("expected %s quantity %d, got %d", id, qty, it.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("no cart line for %s", id)
}

func (c *checkoutTestContext) theStockOfIs(id string, n int) error {
	p, ok := c.store.Product(store, id)
	if !ok {
		return fmt.Errorf("product %s not found", id)
	}
	if p.Stock != n {
		return fmt.Errorf("expected stock of %s to be %d, got %d", id, n, p.Stock)
	}
	return nil
}

func (c *checkoutTestContext) checkoutsSucceed(n int) error {
	got := 0
	for _, err := range c.outcomes {
		if err == nil {
			got++
		}
	}
	if got != n {
		return fmt.Errorf("expected %d successful checkouts, got %d", n, got)
	}
	return nil
}

func (c *checkoutTestContext) checkoutsFailWith(n int, kind string) error {
	got := 0
	for _, err := range c.outcomes {
		if err != nil && pos.KindOf(err).String() == kind {
			got++
		}
	}
	if got != n {
		return fmt.Errorf("expected %d %s failures, got %d", n, kind, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a store with tax rate ([\d.]+)$`, tc.aStoreWithTaxRate)
	ctx.Step(`^the product "([^"]*)" named "([^"]*)" priced ([\d.]+) (with|without) VAT and stock (\d+)$`, tc.theProductWithStock)
	ctx.Step(`^the product "([^"]*)" named "([^"]*)" priced ([\d.]+) (with|without) VAT and unlimited stock$`, tc.theProductWithUnlimitedStock)
	ctx.Step(`^the discount code "([^"]*)" takes ([\d.]+) off$`, tc.theDiscountCodeTakesOff)
	ctx.Step(`^the discount code "([^"]*)" takes ([\d.]+) off and is limited to (\d+) uses? already spent$`, tc.theDiscountCodeIsSpent)
	ctx.Step(`^student "([^"]*)" has ([\d.]+) in the "([^"]*)" wallet$`, tc.studentHasInWallet)
	ctx.Step(`^the cart holds (\d+) "([^"]*)"$`, tc.iAddToTheCart)

	// When steps
	ctx.Step(`^I add (\d+) "([^"]*)" to the cart$`, tc.iAddToTheCart)
	ctx.Step(`^I check out paying "([^"]*)"$`, tc.iCheckOutPaying)
	ctx.Step(`^I check out paying "([^"]*)" with code "([^"]*)"$`, tc.iCheckOutPayingWithCode)
	ctx.Step(`^I check out paying "([^"]*)" for student "([^"]*)"$`, tc.iCheckOutPayingForStudent)
	ctx.Step(`^I check out paying "([^"]*)" for student "([^"]*)" with code "([^"]*)"$`, tc.iCheckOutPayingForStudentWithCode)
	ctx.Step(`^(\d+) customers each check out (\d+) "([^"]*)" at the same time$`, tc.customersCheckOutConcurrently)

	// Then steps
	ctx.Step(`^the checkout succeeds$`, tc.theCheckoutSucceeds)
	ctx.Step(`^the checkout fails with "([^"]*)"$`, tc.theCheckoutFailsWith)
	ctx.Step(`^the error message is "([^"]*)"$`, tc.theErrorMessageIs)
	ctx.Step(`^the order VAT is ([\d.]+)$`, tc.theOrderVATIs)
	ctx.Step(`^the order total is ([\d.]+)$`, tc.theOrderTotalIs)
	ctx.Step(`^the order discount is ([\d.]+)$`, tc.theOrderDiscountIs)
	ctx.Step(`^the order vatable sales are ([\d.]+)$`, tc.theOrderVatableSalesAre)
	ctx.Step(`^the order is paid$`, tc.theOrderIsPaid)
	ctx.Step(`^the discount code "([^"]*)" has been used (\d+) times?$`, tc.theDiscountCodeHasBeenUsed)
	ctx.Step(`^student "([^"]*)" now has ([\d.]+) in the "([^"]*)" wallet$`, tc.studentWalletBalanceIs)
	ctx.Step(`^no order exists$`, tc.noOrderExists)
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the cart line "([^"]*)" has quantity (\d+)$`, tc.theCartLineHasQuantity)
	ctx.Step(`^the stock of "([^"]*)" is (\d+)$`, tc.theStockOfIs)
	ctx.Step(`^(\d+) checkouts succeed$`, tc.checkoutsSucceed)
	ctx.Step(`^(\d+) checkouts fail with "([^"]*)"$`, tc.checkoutsFailWith)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
