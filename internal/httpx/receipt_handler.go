package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-cafeteria-pos/internal/receipts"
)

type ReceiptReader interface {
	Get(ctx context.Context, store, orderUUID string) (receipts.Receipt, error)
	Recent(ctx context.Context, store string, limit int64) ([]receipts.Receipt, error)
}

// ReceiptHandler serves the projected receipts of the caller's store.
type ReceiptHandler struct {
	Receipts ReceiptReader
	Log      *zap.Logger
}

func (h *ReceiptHandler) Register(r chi.Router) {
	r.Get("/receipts", h.recent)
	r.Get("/receipts/{uuid}", h.get)
}

func (h *ReceiptHandler) get(w http.ResponseWriter, r *http.Request) {
	a, _ := ActorFrom(r.Context())
	rc, err := h.Receipts.Get(r.Context(), string(a.StoreID), chi.URLParam(r, "uuid"))
	if errors.Is(err, receipts.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Receipt not found", Kind: "RECEIPT_NOT_FOUND"})
		return
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (h *ReceiptHandler) recent(w http.ResponseWriter, r *http.Request) {
	limit := int64(20)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 || n > 100 {
			badRequest(w, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	a, _ := ActorFrom(r.Context())
	out, err := h.Receipts.Recent(r.Context(), string(a.StoreID), limit)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if out == nil {
		out = []receipts.Receipt{}
	}
	writeJSON(w, http.StatusOK, out)
}
