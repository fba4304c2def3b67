package pos

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindEmptyCart
	KindInvalidPaymentMethod
	KindStudentRequired
	KindStudentNotFound
	KindStudentInactive
	KindOutOfStock
	KindInsufficientBalance
	KindInvalidDiscountCode
	KindInvalidAmount
	KindInsufficientFunds
	KindCheckoutFailed
	KindProductNotFound
	KindCartItemNotFound
	KindInvalidQuantity
	KindUnknownWallet
	KindOrderNotFound
)

var kindNames = map[Kind]string{
	KindEmptyCart:            "EMPTY_CART",
	KindInvalidPaymentMethod: "INVALID_PAYMENT_METHOD",
	KindStudentRequired:      "STUDENT_REQUIRED",
	KindStudentNotFound:      "STUDENT_NOT_FOUND",
	KindStudentInactive:      "STUDENT_INACTIVE",
	KindOutOfStock:           "OUT_OF_STOCK",
	KindInsufficientBalance:  "INSUFFICIENT_BALANCE",
	KindInvalidDiscountCode:  "INVALID_DISCOUNT_CODE",
	KindInvalidAmount:        "INVALID_AMOUNT",
	KindInsufficientFunds:    "INSUFFICIENT_FUNDS",
	KindCheckoutFailed:       "CHECKOUT_FAILED",
	KindProductNotFound:      "PRODUCT_NOT_FOUND",
	KindCartItemNotFound:     "CART_ITEM_NOT_FOUND",
	KindInvalidQuantity:      "INVALID_QUANTITY",
	KindUnknownWallet:        "UNKNOWN_WALLET",
	KindOrderNotFound:        "ORDER_NOT_FOUND",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// Error is an expected, caller-recoverable failure. Its Message is safe to
// show to end users.
type Error struct {
	Kind    Kind
	Message string
	Product string          // OutOfStock only
	Balance decimal.Decimal // InsufficientBalance only
}

func (e *Error) Error() string { return e.Message }

// Is matches on Kind so contextual errors compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrEmptyCart            = &Error{Kind: KindEmptyCart, Message: "Cart is empty"}
	ErrInvalidPaymentMethod = &Error{Kind: KindInvalidPaymentMethod, Message: "Payment method is not available"}
	ErrStudentRequired      = &Error{Kind: KindStudentRequired, Message: "Please select a student for wallet payment"}
	ErrStudentNotFound      = &Error{Kind: KindStudentNotFound, Message: "Student not found"}
	ErrStudentInactive      = &Error{Kind: KindStudentInactive, Message: "Student account is inactive"}
	ErrOutOfStock           = &Error{Kind: KindOutOfStock, Message: "Product is out of stock"}
	ErrInsufficientBalance  = &Error{Kind: KindInsufficientBalance, Message: "Insufficient wallet balance"}
	ErrInvalidDiscountCode  = &Error{Kind: KindInvalidDiscountCode, Message: "Invalid discount code"}
	ErrInvalidAmount        = &Error{Kind: KindInvalidAmount, Message: "Amount must be greater than zero"}
	ErrInsufficientFunds    = &Error{Kind: KindInsufficientFunds, Message: "Insufficient funds"}
	ErrCheckoutFailed       = &Error{Kind: KindCheckoutFailed, Message: "Checkout failed, please try again"}
	ErrProductNotFound      = &Error{Kind: KindProductNotFound, Message: "Product not found"}
	ErrCartItemNotFound     = &Error{Kind: KindCartItemNotFound, Message: "Item not in cart"}
	ErrInvalidQuantity      = &Error{Kind: KindInvalidQuantity, Message: "Quantity must be positive"}
	ErrUnknownWallet        = &Error{Kind: KindUnknownWallet, Message: "Unknown wallet type"}
	ErrOrderNotFound        = &Error{Kind: KindOrderNotFound, Message: "Order not found"}
)

func OutOfStock(product string) *Error {
	return &Error{
		Kind:    KindOutOfStock,
		Message: fmt.Sprintf("%s is out of stock", product),
		Product: product,
	}
}

func InsufficientBalance(balance decimal.Decimal) *Error {
	return &Error{
		Kind:    KindInsufficientBalance,
		Message: "Insufficient wallet balance! Current balance: " + FormatPeso(balance),
		Balance: balance,
	}
}

// KindOf returns the Kind carried by err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func FormatPeso(d decimal.Decimal) string {
	return "₱" + d.StringFixed(2)
}
