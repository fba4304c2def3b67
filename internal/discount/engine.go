package discount

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

const timeLayout = "2006-01-02 15:04:05"

var hundred = decimal.NewFromInt(100)

// Check returns "" when c may be applied at now, otherwise the reason it
// may not. It does not look at the order amount.
func Check(c pos.DiscountCode, now time.Time) string {
	switch {
	case !c.IsActive:
		return "Discount code is not active"
	case c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit:
		return "Discount code has reached its usage limit"
	case c.ValidFrom != nil && now.Before(*c.ValidFrom):
		return "Discount code will be valid from " + c.ValidFrom.Format(timeLayout)
	case c.ValidUntil != nil && now.After(*c.ValidUntil):
		return "Discount code expired on " + c.ValidUntil.Format(timeLayout)
	}
	return ""
}

func Valid(c pos.DiscountCode, now time.Time) bool {
	return Check(c, now) == ""
}

// Amount prices c against the gross order total. Invalid codes, orders under
// the minimum amount and negative values get zero, so the result is always in
// [0, orderGross].
func Amount(c pos.DiscountCode, orderGross decimal.Decimal, now time.Time) decimal.Decimal {
	if !Valid(c, now) {
		return decimal.Zero
	}
	if c.MinOrderAmount != nil && orderGross.LessThan(*c.MinOrderAmount) {
		return decimal.Zero
	}

	var amt decimal.Decimal
	switch c.Type {
	case pos.DiscountPercentage:
		amt = orderGross.Mul(c.Value).Div(hundred)
	case pos.DiscountFixed:
		amt = c.Value
	default:
		return decimal.Zero
	}
	if c.MaxDiscountAmount != nil && amt.GreaterThan(*c.MaxDiscountAmount) {
		amt = *c.MaxDiscountAmount
	}
	if amt.GreaterThan(orderGross) {
		amt = orderGross
	}
	if amt.IsNegative() {
		return decimal.Zero
	}
	return amt.Round(2)
}

// NormalizeCode is the case-insensitive lookup form of a code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type Preview struct {
	Valid    bool            `json:"valid"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message"`
}

// Evaluate runs the same validity and pricing rules checkout applies, and
// explains the outcome.
func Evaluate(c pos.DiscountCode, subtotal decimal.Decimal, now time.Time) Preview {
	if reason := Check(c, now); reason != "" {
		return Preview{Discount: decimal.Zero, Message: reason}
	}
	if c.MinOrderAmount != nil && subtotal.LessThan(*c.MinOrderAmount) {
		return Preview{
			Discount: decimal.Zero,
			Message:  "Minimum order amount is " + pos.FormatPeso(*c.MinOrderAmount),
		}
	}
	amt := Amount(c, subtotal, now)
	return Preview{Valid: true, Discount: amt, Message: "Discount code applied"}
}

// Lookup finds code and evaluates it against subtotal. Unknown codes yield an
// invalid preview, not an error.
func Lookup(ctx context.Context, repo pos.DiscountRepo, store pos.StoreID, code string, subtotal decimal.Decimal, now time.Time) (Preview, pos.DiscountCode, error) {
	c, err := repo.FindByCode(ctx, store, NormalizeCode(code))
	if errors.Is(err, pos.ErrInvalidDiscountCode) {
		return Preview{Discount: decimal.Zero, Message: pos.ErrInvalidDiscountCode.Message}, pos.DiscountCode{}, nil
	}
	if err != nil {
		return Preview{}, pos.DiscountCode{}, err
	}
	return Evaluate(c, subtotal, now), c, nil
}
