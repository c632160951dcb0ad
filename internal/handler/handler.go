// Package handler exposes the checkout engine over HTTP. Handlers decode
// with jx, delegate to the domain, and map domain errors to the error
// envelope; no business logic lives here.
package handler

import (
	"net/http"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/catalog"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/stock"
)

// Handler implements the HTTP surface over the checkout domain.
type Handler struct {
	sessions    *SessionManager
	products    catalog.Repository
	ingredients stock.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	sessions *SessionManager,
	products catalog.Repository,
	ingredients stock.Repository,
) *Handler {
	return &Handler{
		sessions:    sessions,
		products:    products,
		ingredients: ingredients,
	}
}

// Register attaches all routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", h.ListProducts)

	mux.HandleFunc("POST /checkout", h.OpenSession)
	mux.HandleFunc("GET /checkout/{id}", h.GetSession)
	mux.HandleFunc("DELETE /checkout/{id}", h.CloseSession)

	mux.HandleFunc("POST /checkout/{id}/items", h.AddItem)
	mux.HandleFunc("PATCH /checkout/{id}/items/{index}", h.UpdateQuantity)
	mux.HandleFunc("DELETE /checkout/{id}/items/{index}", h.RemoveItem)

	mux.HandleFunc("POST /checkout/{id}/advance", h.Advance)
	mux.HandleFunc("POST /checkout/{id}/back", h.Back)
	mux.HandleFunc("PUT /checkout/{id}/fulfillment", h.SetFulfillment)
	mux.HandleFunc("PUT /checkout/{id}/identity", h.SetIdentity)

	mux.HandleFunc("POST /checkout/{id}/coupon", h.ApplyCoupon)
	mux.HandleFunc("POST /checkout/{id}/redeem-points", h.ToggleRedeemPoints)
	mux.HandleFunc("GET /checkout/{id}/slots", h.ListSlots)
	mux.HandleFunc("POST /checkout/{id}/delivery-quote", h.QuoteDeliveryFee)

	mux.HandleFunc("POST /checkout/{id}/payments", h.AddPayment)
	mux.HandleFunc("DELETE /checkout/{id}/payments/{index}", h.RemovePayment)
	mux.HandleFunc("POST /checkout/{id}/finalize", h.Finalize)
}
