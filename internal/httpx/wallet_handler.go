package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
	"github.com/ariefcatur/go-cafeteria-pos/internal/wallet"
)

type WalletHandler struct {
	Ledger *wallet.Ledger
	Log    *zap.Logger
}

func (h *WalletHandler) Register(r chi.Router) {
	r.Get("/wallets/{holder}/{slug}", h.balance)
	r.Get("/wallets/{holder}/{slug}/transactions", h.history)
	r.Post("/wallets/{holder}/{slug}/deposit", h.deposit)
	r.Post("/wallets/{holder}/{slug}/withdraw", h.withdraw)
}

type moveReq struct {
	Amount decimal.Decimal   `json:"amount"`
	Meta   map[string]string `json:"meta"`
}

type balanceResp struct {
	HolderID string `json:"holder_id"`
	Slug     string `json:"slug"`
	Balance  string `json:"balance"`
}

// walletKey resolves the URL holder inside the caller's store.
func (h *WalletHandler) walletKey(r *http.Request) (pos.WalletKey, error) {
	a, _ := ActorFrom(r.Context())
	return h.Ledger.Resolve(r.Context(), a.StoreID, chi.URLParam(r, "holder"), pos.WalletSlug(chi.URLParam(r, "slug")))
}

func (h *WalletHandler) balance(w http.ResponseWriter, r *http.Request) {
	key, err := h.walletKey(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	bal, err := h.Ledger.Balance(r.Context(), key)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResp{HolderID: key.HolderID, Slug: string(key.Slug), Balance: bal.StringFixed(2)})
}

func (h *WalletHandler) history(w http.ResponseWriter, r *http.Request) {
	key, err := h.walletKey(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	txs, err := h.Ledger.History(r.Context(), key)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	out := make([]walletTxResp, 0, len(txs))
	for _, t := range txs {
		out = append(out, walletTxResp{ID: t.ID, Type: string(t.Type), Amount: t.Amount.StringFixed(2), Meta: t.Meta, CreatedAt: t.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *WalletHandler) deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.Ledger.Deposit)
}

func (h *WalletHandler) withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.Ledger.Withdraw)
}

type moveFunc func(ctx context.Context, key pos.WalletKey, amount decimal.Decimal, meta map[string]string) (decimal.Decimal, error)

func (h *WalletHandler) move(w http.ResponseWriter, r *http.Request, fn moveFunc) {
	var req moveReq
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "amount is required")
		return
	}
	a, _ := ActorFrom(r.Context())
	meta := map[string]string{}
	for k, v := range req.Meta {
		meta[k] = v
	}
	meta["store_id"] = string(a.StoreID)
	meta["cashier_id"] = a.UserID

	key, err := h.walletKey(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	bal, err := fn(r.Context(), key, req.Amount, meta)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResp{HolderID: key.HolderID, Slug: string(key.Slug), Balance: bal.StringFixed(2)})
}
