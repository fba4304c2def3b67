package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-cafeteria-pos/internal/cart"
	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

type CartHandler struct {
	Carts *cart.Service
	Log   *zap.Logger
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.list)
	r.Post("/cart/items", h.add)
	r.Post("/cart/items/{productID}/increment", h.increment)
	r.Post("/cart/items/{productID}/decrement", h.decrement)
	r.Delete("/cart/items/{productID}", h.remove)
}

type addItemReq struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type adjustReq struct {
	By int `json:"by"`
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request) {
	a, _ := ActorFrom(r.Context())
	lines, err := h.Carts.List(r.Context(), a.Cart())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	resp := cartResp{Items: make([]cartLineResp, 0, len(lines)), Subtotal: cart.Gross(lines).StringFixed(2)}
	for _, l := range lines {
		resp.Items = append(resp.Items, cartLineResp{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price.StringFixed(2),
			Quantity:  l.Item.Quantity,
			Total:     l.Gross().StringFixed(2),
			HasVAT:    l.Product.HasVAT,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := decodeJSON(w, r, &req); err != nil || req.ProductID == "" {
		badRequest(w, "product_id is required")
		return
	}
	a, _ := ActorFrom(r.Context())
	it, err := h.Carts.Add(r.Context(), a.Cart(), req.ProductID, req.Qty)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResp(it))
}

func (h *CartHandler) increment(w http.ResponseWriter, r *http.Request) {
	req := adjustReq{By: 1}
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			badRequest(w, "invalid json")
			return
		}
	}
	a, _ := ActorFrom(r.Context())
	it, err := h.Carts.Increment(r.Context(), a.Cart(), chi.URLParam(r, "productID"), req.By)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResp(it))
}

func (h *CartHandler) decrement(w http.ResponseWriter, r *http.Request) {
	req := adjustReq{By: 1}
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			badRequest(w, "invalid json")
			return
		}
	}
	a, _ := ActorFrom(r.Context())
	it, kept, err := h.Carts.Decrement(r.Context(), a.Cart(), chi.URLParam(r, "productID"), req.By)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if !kept {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, itemResp(it))
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	a, _ := ActorFrom(r.Context())
	if err := h.Carts.Remove(r.Context(), a.Cart(), chi.URLParam(r, "productID")); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func itemResp(it pos.CartItem) map[string]any {
	return map[string]any{"product_id": it.ProductID, "quantity": it.Quantity}
}
