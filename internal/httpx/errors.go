package httpx

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
	"github.com/ariefcatur/go-cafeteria-pos/internal/redisx"
)

type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Product string `json:"product,omitempty"`
	Balance string `json:"balance,omitempty"`
}

var kindStatus = map[pos.Kind]int{
	pos.KindInvalidPaymentMethod: http.StatusBadRequest,
	pos.KindStudentRequired:      http.StatusBadRequest,
	pos.KindInvalidDiscountCode:  http.StatusBadRequest,
	pos.KindInvalidAmount:        http.StatusBadRequest,
	pos.KindInvalidQuantity:      http.StatusBadRequest,
	pos.KindUnknownWallet:        http.StatusBadRequest,
	pos.KindStudentNotFound:      http.StatusNotFound,
	pos.KindProductNotFound:      http.StatusNotFound,
	pos.KindCartItemNotFound:     http.StatusNotFound,
	pos.KindOrderNotFound:        http.StatusNotFound,
	pos.KindOutOfStock:           http.StatusConflict,
	pos.KindEmptyCart:            http.StatusUnprocessableEntity,
	pos.KindStudentInactive:      http.StatusUnprocessableEntity,
	pos.KindInsufficientBalance:  http.StatusUnprocessableEntity,
	pos.KindInsufficientFunds:    http.StatusUnprocessableEntity,
	pos.KindCheckoutFailed:       http.StatusInternalServerError,
}

// writeError renders domain errors with their own message. Anything else is
// logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	if errors.Is(err, redisx.ErrLocked) {
		writeJSON(w, http.StatusConflict, errorBody{Error: "Checkout already in progress", Kind: "CHECKOUT_IN_PROGRESS"})
		return
	}
	var perr *pos.Error
	if !errors.As(err, &perr) {
		log.Error("unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error", Kind: pos.KindUnknown.String()})
		return
	}
	code, ok := kindStatus[perr.Kind]
	if !ok {
		code = http.StatusInternalServerError
	}
	body := errorBody{Error: perr.Message, Kind: perr.Kind.String(), Product: perr.Product}
	if perr.Kind == pos.KindInsufficientBalance {
		body.Balance = perr.Balance.StringFixed(2)
	}
	writeJSON(w, code, body)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Kind: "BAD_REQUEST"})
}
