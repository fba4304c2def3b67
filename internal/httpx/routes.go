package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// API groups the authenticated POS routes.
type API struct {
	JWTSecret []byte
	// RateLimit is optional; nil leaves the routes unthrottled.
	RateLimit func(http.Handler) http.Handler
	Cart      *CartHandler
	Checkout  *CheckoutHandler
	Wallets   *WalletHandler
	Receipts  *ReceiptHandler
}

func (a API) Mount(r chi.Router) {
	r.Group(func(r chi.Router) {
		if a.RateLimit != nil {
			r.Use(a.RateLimit)
		}
		r.Use(Authenticate(a.JWTSecret))
		if a.Cart != nil {
			a.Cart.Register(r)
		}
		if a.Checkout != nil {
			a.Checkout.Register(r)
		}
		if a.Wallets != nil {
			a.Wallets.Register(r)
		}
		if a.Receipts != nil {
			a.Receipts.Register(r)
		}
	})
}
