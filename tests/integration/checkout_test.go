//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

// openSessionFor opens a session for a dedicated customer id so tests do not
// observe each other's persisted identity.
func openSessionFor(t *testing.T, customerID string) string {
	t.Helper()

	resp := doPost(t, "/api/checkout", map[string]any{"customer_id": customerID})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open session: expected 201, got %d", resp.StatusCode)
	}
	return decodeJSON[openSessionResponse](t, resp).SessionID
}

func addItem(t *testing.T, sessionID, productID string, quantity int) *http.Response {
	t.Helper()
	return doPost(t, "/api/checkout/"+sessionID+"/items", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	})
}

func advance(t *testing.T, sessionID string) *http.Response {
	t.Helper()
	return doPost(t, "/api/checkout/"+sessionID+"/advance", nil)
}

func TestCheckoutFlow_Takeout(t *testing.T) {
	sessionID := openSessionFor(t, "itest-takeout")

	resp := addItem(t, sessionID, "x-burger", 2)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d", resp.StatusCode)
	}
	session := decodeJSON[sessionResponse](t, resp)
	resp.Body.Close()

	if len(session.Items) != 1 || session.Items[0].Quantity != 2 {
		t.Fatalf("unexpected cart: %+v", session.Items)
	}
	if session.Pricing.Subtotal != 36.0 {
		t.Fatalf("subtotal: got %v, want 36.0", session.Pricing.Subtotal)
	}

	// New customer has no saved identity, so the identity step is not skipped.
	resp = advance(t, sessionID)
	step := decodeJSON[advanceResponse](t, resp).Step
	resp.Body.Close()
	if step != "identity" {
		t.Fatalf("after bag: expected identity, got %q", step)
	}

	resp = doJSON(t, http.MethodPut, "/api/checkout/"+sessionID+"/identity", map[string]any{
		"name":  "João Teste",
		"phone": "11999990000",
	})
	resp.Body.Close()

	resp = advance(t, sessionID)
	step = decodeJSON[advanceResponse](t, resp).Step
	resp.Body.Close()
	if step != "fulfillment" {
		t.Fatalf("after identity: expected fulfillment, got %q", step)
	}

	resp = doJSON(t, http.MethodPut, "/api/checkout/"+sessionID+"/fulfillment", map[string]any{
		"type": "takeout",
	})
	resp.Body.Close()

	resp = advance(t, sessionID)
	step = decodeJSON[advanceResponse](t, resp).Step
	resp.Body.Close()
	if step != "payment" {
		t.Fatalf("after fulfillment: expected payment, got %q", step)
	}

	// Takeout settles at the counter, so finalize is allowed without payments.
	resp = advance(t, sessionID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("finalize: expected 200, got %d", resp.StatusCode)
	}
	orderID := decodeJSON[advanceResponse](t, resp).OrderID
	resp.Body.Close()
	if orderID == "" {
		t.Fatal("finalize: empty order_id")
	}
}

// Saved identity skips the identity step on the next visit.
func TestCheckoutFlow_IdentitySkip(t *testing.T) {
	customerID := "itest-returning"

	// First visit walks the identity step, which persists name and phone.
	sessionID := openSessionFor(t, customerID)
	resp := addItem(t, sessionID, "refrigerante", 1)
	resp.Body.Close()
	resp = advance(t, sessionID)
	resp.Body.Close()
	resp = doJSON(t, http.MethodPut, "/api/checkout/"+sessionID+"/identity", map[string]any{
		"name":  "Maria Teste",
		"phone": "11888880000",
	})
	resp.Body.Close()
	resp = advance(t, sessionID)
	resp.Body.Close()

	// A second session for the same customer starts with identity on file.
	sessionID = openSessionFor(t, customerID)
	resp = addItem(t, sessionID, "refrigerante", 1)
	resp.Body.Close()

	resp = advance(t, sessionID)
	step := decodeJSON[advanceResponse](t, resp).Step
	resp.Body.Close()
	if step != "fulfillment" {
		t.Fatalf("expected identity skip to fulfillment, got %q", step)
	}
}

func TestCheckoutFlow_DineInSplitPayment(t *testing.T) {
	sessionID := openSessionFor(t, "itest-dinein")

	resp := addItem(t, sessionID, "x-burger", 2)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, "/api/checkout/"+sessionID+"/identity", map[string]any{
		"name": "Mesa Doze", "phone": "11777770000",
	})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, "/api/checkout/"+sessionID+"/fulfillment", map[string]any{
		"type":  "dine_in",
		"table": "12",
	})
	resp.Body.Close()

	resp = doPost(t, "/api/checkout/"+sessionID+"/payments", map[string]any{
		"method": "cash", "amount": "20.00",
	})
	payments := decodeJSON[paymentsResponse](t, resp)
	resp.Body.Close()
	if payments.RemainingDue != 16.0 {
		t.Fatalf("remaining due: got %v, want 16.0", payments.RemainingDue)
	}

	// Dine-in cannot finalize while a balance is outstanding.
	resp = doPost(t, "/api/checkout/"+sessionID+"/finalize", nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("underpaid finalize: expected 422, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	resp.Body.Close()
	if body.Code != "payment_pending" {
		t.Fatalf("error code: got %q, want payment_pending", body.Code)
	}

	resp = doPost(t, "/api/checkout/"+sessionID+"/payments", map[string]any{
		"method": "card", "amount": "16.00",
	})
	resp.Body.Close()

	resp = doPost(t, "/api/checkout/"+sessionID+"/finalize", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("finalize: expected 201, got %d", resp.StatusCode)
	}
	orderID := decodeJSON[finalizeResponse](t, resp).OrderID
	resp.Body.Close()
	if orderID == "" {
		t.Fatal("finalize: empty order_id")
	}

	// The session is gone after finalize.
	resp = doGet(t, "/api/checkout/"+sessionID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("after finalize: expected 404, got %d", resp.StatusCode)
	}
}

func TestCheckout_UnknownProduct(t *testing.T) {
	sessionID := openSessionFor(t, "itest-unknown-product")

	resp := addItem(t, sessionID, "nope", 1)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != "product_not_found" {
		t.Fatalf("error code: got %q, want product_not_found", body.Code)
	}
}

func TestCheckout_InsufficientStock(t *testing.T) {
	sessionID := openSessionFor(t, "itest-stock")

	// 200 burgers need 200 buns; the seed stocks 100.
	resp := addItem(t, sessionID, "x-burger", 200)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != "insufficient_stock" {
		t.Fatalf("error code: got %q, want insufficient_stock", body.Code)
	}
}

func TestCheckout_PausedIngredient(t *testing.T) {
	sessionID := openSessionFor(t, "itest-paused")

	resp := addItem(t, sessionID, "x-picanha", 1)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != "ingredient_paused" {
		t.Fatalf("error code: got %q, want ingredient_paused", body.Code)
	}
}

// Advancing an empty bag is allowed; only finalize rejects it.
func TestCheckout_FinalizeEmptyCart(t *testing.T) {
	sessionID := openSessionFor(t, "itest-empty")

	resp := advance(t, sessionID)
	resp.Body.Close()
	resp = doJSON(t, http.MethodPut, "/api/checkout/"+sessionID+"/identity", map[string]any{
		"name": "Vazio Teste", "phone": "11555550000",
	})
	resp.Body.Close()
	resp = advance(t, sessionID)
	resp.Body.Close()
	resp = advance(t, sessionID)
	step := decodeJSON[advanceResponse](t, resp).Step
	resp.Body.Close()
	if step != "payment" {
		t.Fatalf("expected payment step, got %q", step)
	}

	resp = doPost(t, "/api/checkout/"+sessionID+"/finalize", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != "empty_cart" {
		t.Fatalf("error code: got %q, want empty_cart", body.Code)
	}
}

func TestCheckout_Coupon(t *testing.T) {
	sessionID := openSessionFor(t, "itest-coupon")

	resp := addItem(t, sessionID, "x-burger", 2)
	resp.Body.Close()

	resp = doPost(t, "/api/checkout/"+sessionID+"/coupon", map[string]any{"code": "bemvindo10"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply coupon: expected 200, got %d", resp.StatusCode)
	}
	session := decodeJSON[sessionResponse](t, resp)
	resp.Body.Close()

	if session.Coupon != "BEMVINDO10" {
		t.Fatalf("coupon: got %q, want BEMVINDO10", session.Coupon)
	}
	if session.Pricing.CouponDiscount != 3.6 {
		t.Fatalf("coupon discount: got %v, want 3.6", session.Pricing.CouponDiscount)
	}
	if session.Pricing.Total != 32.4 {
		t.Fatalf("total: got %v, want 32.4", session.Pricing.Total)
	}

	// Clearing the coupon restores the undiscounted total.
	resp = doPost(t, "/api/checkout/"+sessionID+"/coupon", map[string]any{"code": ""})
	session = decodeJSON[sessionResponse](t, resp)
	resp.Body.Close()
	if session.Pricing.Total != 36.0 {
		t.Fatalf("total after clear: got %v, want 36.0", session.Pricing.Total)
	}
}

func TestCheckout_InvalidCoupon(t *testing.T) {
	sessionID := openSessionFor(t, "itest-bad-coupon")

	resp := addItem(t, sessionID, "x-burger", 1)
	resp.Body.Close()

	for i, code := range []string{"NAOEXISTE", "ANTIGO5"} {
		resp = doPost(t, "/api/checkout/"+sessionID+"/coupon", map[string]any{"code": code})
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("case %d: expected 422, got %d", i, resp.StatusCode)
		}
		body := decodeJSON[errorResponse](t, resp)
		resp.Body.Close()
		if body.Code != "invalid_coupon" {
			t.Fatalf("case %d: error code %q, want invalid_coupon", i, body.Code)
		}
	}
}

func TestCheckout_DeliveryRequiresAddress(t *testing.T) {
	sessionID := openSessionFor(t, "itest-delivery")

	resp := addItem(t, sessionID, "x-burger", 1)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, "/api/checkout/"+sessionID+"/identity", map[string]any{
		"name": "Entrega Teste", "phone": "11666660000",
	})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, "/api/checkout/"+sessionID+"/fulfillment", map[string]any{
		"type": "delivery",
	})
	resp.Body.Close()

	// Identity is already filled in, so the first advance skips straight to
	// the fulfillment step.
	resp = advance(t, sessionID)
	step := decodeJSON[advanceResponse](t, resp).Step
	resp.Body.Close()
	if step != "fulfillment" {
		t.Fatalf("expected fulfillment step, got %q", step)
	}

	resp = advance(t, sessionID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != "address_required" {
		t.Fatalf("error code: got %q, want address_required", body.Code)
	}
}

func TestCheckout_BackFromBagCloses(t *testing.T) {
	sessionID := openSessionFor(t, "itest-back")

	resp := doPost(t, "/api/checkout/"+sessionID+"/back", nil)
	back := decodeJSON[backResponse](t, resp)
	resp.Body.Close()
	if !back.Closed {
		t.Fatal("back from bag should close the session")
	}

	resp = doGet(t, "/api/checkout/"+sessionID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCheckout_Slots(t *testing.T) {
	sessionID := openSessionFor(t, "itest-slots")

	resp := doGet(t, fmt.Sprintf("/api/checkout/%s/slots", sessionID))
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	// Slot contents depend on the wall clock; only the shape is asserted.
	_ = decodeJSON[slotsResponse](t, resp)
}
