package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/breakhq/break-pos/internal/domain/item"
	"github.com/breakhq/break-pos/internal/domain/offer"
	"github.com/breakhq/break-pos/internal/domain/sale"
)

// errorResponse is the JSON envelope for all error responses.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// Best effort: the status code is already written, so we cannot change
	// the response. This should only happen if the client disconnected.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// decodeBody parses the request body as JSON into v. On failure it writes a
// 400 response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeDomainError maps a domain error to its transport representation.
// Unrecognized errors are logged and surfaced as 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidQty   *sale.InvalidQuantityError
		missingItems *sale.ItemsNotFoundError
		noStock      *sale.InsufficientStockError
		badStatus    *sale.InvalidStatusError
		conflict     *sale.StockConflictError
	)

	switch {
	case errors.Is(err, sale.ErrEmptyItems):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidQty):
		writeError(w, http.StatusBadRequest, invalidQty.Error())
	case errors.As(err, &missingItems):
		writeError(w, http.StatusUnprocessableEntity, missingItems.Error())
	case errors.As(err, &noStock):
		writeError(w, http.StatusConflict, noStock.Error())
	case errors.As(err, &badStatus):
		writeError(w, http.StatusConflict, badStatus.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	case errors.Is(err, item.ErrDuplicateCode):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, sale.ErrNotFound),
		errors.Is(err, item.ErrNotFound),
		errors.Is(err, offer.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
