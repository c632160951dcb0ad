package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/cart"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/catalog"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/checkout"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/payment"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
)

// mapError converts domain errors to the HTTP error envelope. Everything the
// domain can reject is recoverable; only unexpected failures become 500s.
func mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, r, http.StatusNotFound, "session_not_found", err.Error())
		return
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, r, http.StatusUnprocessableEntity, "product_not_found", err.Error())
		return
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrIndexOutOfRange),
		errors.Is(err, payment.ErrNonPositiveAmount),
		errors.Is(err, payment.ErrIndexOutOfRange):
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	case errors.Is(err, pricing.ErrInvalidCoupon):
		writeError(w, r, http.StatusUnprocessableEntity, "invalid_coupon", err.Error())
		return
	case errors.Is(err, checkout.ErrAddressRequired):
		// The client reacts by opening address capture; the step is unchanged.
		writeError(w, r, http.StatusConflict, "address_required", err.Error())
		return
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, r, http.StatusUnprocessableEntity, "empty_cart", err.Error())
		return
	case errors.Is(err, checkout.ErrPaymentPending):
		writeError(w, r, http.StatusUnprocessableEntity, "payment_pending", err.Error())
		return
	}

	var missingErr *cart.MissingIngredientError
	if errors.As(err, &missingErr) {
		writeError(w, r, http.StatusUnprocessableEntity, "missing_ingredient", missingErr.Error())
		return
	}
	var pausedErr *cart.IngredientPausedError
	if errors.As(err, &pausedErr) {
		writeError(w, r, http.StatusUnprocessableEntity, "ingredient_paused", pausedErr.Error())
		return
	}
	var stockErr *cart.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeError(w, r, http.StatusUnprocessableEntity, "insufficient_stock", stockErr.Error())
		return
	}
	var vErr *checkout.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, r, http.StatusUnprocessableEntity, "validation_failed", vErr.Error())
		return
	}

	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "internal", "internal server error")
}
