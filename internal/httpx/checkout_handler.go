package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-cafeteria-pos/internal/checkout"
	kafkax "github.com/ariefcatur/go-cafeteria-pos/internal/kafka"
	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
	"github.com/ariefcatur/go-cafeteria-pos/internal/redisx"
)

type Locker interface {
	CheckoutLock(ctx context.Context, store, user string) (release func(), err error)
}

type IdempotencyStore interface {
	Lookup(ctx context.Context, store, key string) (string, bool, error)
	Remember(ctx context.Context, store, key, orderUUID string) error
}

type StatusCache interface {
	Put(ctx context.Context, store, orderUUID string, s redisx.OrderStatus) error
	Get(ctx context.Context, store, orderUUID string) (redisx.OrderStatus, bool, error)
}

// CheckoutHandler exposes checkout, cancel, discount preview and order
// reads. Locks, Idem and Status are optional redis fast paths.
type CheckoutHandler struct {
	Checkout *checkout.Service
	Locks    Locker
	Idem     IdempotencyStore
	Status   StatusCache
	Log      *zap.Logger
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Post("/checkout", h.checkout)
	r.Delete("/cart", h.cancel)
	r.Get("/discounts/{code}/validate", h.validateDiscount)
	r.Get("/orders/{uuid}", h.getOrder)
	r.Get("/orders/{uuid}/status", h.getStatus)
}

type checkoutReq struct {
	PaymentMethod string `json:"payment_method"`
	StudentID     string `json:"student_id"`
	DiscountCode  string `json:"discount_code"`
	Notes         string `json:"notes"`
}

func (h *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	ctx := r.Context()
	a, _ := ActorFrom(ctx)
	store := string(a.StoreID)

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" && h.Idem != nil {
		if id, ok, err := h.Idem.Lookup(ctx, store, idemKey); err != nil {
			h.Log.Warn("idempotency lookup", zap.Error(err))
		} else if ok {
			o, err := h.Checkout.Order(ctx, a.StoreID, id)
			if err == nil {
				resp := toOrderResp(o)
				resp.Idempotent = true
				writeJSON(w, http.StatusOK, resp)
				return
			}
			h.Log.Warn("idempotent order missing", zap.String("order_uuid", id), zap.Error(err))
		}
	}

	if h.Locks != nil {
		release, err := h.Locks.CheckoutLock(ctx, store, a.UserID)
		switch {
		case errors.Is(err, redisx.ErrLocked):
			writeError(w, h.Log, err)
			return
		case err != nil:
			h.Log.Warn("checkout lock unavailable", zap.Error(err))
		default:
			defer release()
		}
	}

	ctx = kafkax.WithTrace(ctx, middleware.GetReqID(ctx))
	o, err := h.Checkout.Checkout(ctx, checkout.Request{
		Cart:          a.Cart(),
		CashierID:     a.UserID,
		PaymentMethod: req.PaymentMethod,
		StudentID:     req.StudentID,
		DiscountCode:  req.DiscountCode,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	if idemKey != "" && h.Idem != nil {
		if err := h.Idem.Remember(ctx, store, idemKey, o.UUID); err != nil {
			h.Log.Warn("idempotency remember", zap.Error(err))
		}
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusCreated, toOrderResp(o))
}

func (h *CheckoutHandler) cancel(w http.ResponseWriter, r *http.Request) {
	a, _ := ActorFrom(r.Context())
	if err := h.Checkout.Cancel(r.Context(), a.Cart()); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// validateDiscount previews against ?subtotal= when given, else against the
// caller's cart.
func (h *CheckoutHandler) validateDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, _ := ActorFrom(ctx)
	code := chi.URLParam(r, "code")

	var (
		preview any
		err     error
	)
	if raw := r.URL.Query().Get("subtotal"); raw != "" {
		subtotal, perr := decimal.NewFromString(raw)
		if perr != nil || subtotal.IsNegative() {
			badRequest(w, "subtotal must be a non-negative amount")
			return
		}
		preview, err = h.Checkout.ValidateDiscount(ctx, a.StoreID, code, subtotal)
	} else {
		preview, err = h.Checkout.ValidateCartDiscount(ctx, a.Cart(), code)
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *CheckoutHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	a, _ := ActorFrom(r.Context())
	o, err := h.Checkout.Order(r.Context(), a.StoreID, chi.URLParam(r, "uuid"))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *CheckoutHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a, _ := ActorFrom(ctx)
	id := chi.URLParam(r, "uuid")
	if h.Status != nil {
		if st, ok, err := h.Status.Get(ctx, string(a.StoreID), id); err == nil && ok {
			writeJSON(w, http.StatusOK, st)
			return
		}
	}
	o, err := h.Checkout.Order(ctx, a.StoreID, id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cacheStatus(ctx, o))
}

func (h *CheckoutHandler) cacheStatus(ctx context.Context, o pos.Order) redisx.OrderStatus {
	st := redisx.OrderStatus{Status: string(o.Status), IsPayed: o.IsPayed, Total: o.Total.StringFixed(2)}
	if h.Status != nil {
		if err := h.Status.Put(ctx, string(o.StoreID), o.UUID, st); err != nil {
			h.Log.Warn("cache order status", zap.String("order_uuid", o.UUID), zap.Error(err))
		}
	}
	return st
}
