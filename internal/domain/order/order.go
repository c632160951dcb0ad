package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/cart"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/payment"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
)

// Order is the materialized result of a completed checkout. It only exists
// once payment is confirmed; everything before that lives in the session.
type Order struct {
	ID            string
	Fulfillment   pricing.Fulfillment
	CustomerName  string
	CustomerPhone string
	Address       string
	TableID       string
	// ScheduledFor is the HH:MM slot chosen for a scheduled order, empty
	// for as-soon-as-possible orders.
	ScheduledFor string

	Items []cart.LineItem

	Subtotal        decimal.Decimal
	DeliveryFee     decimal.Decimal
	CouponCode      string
	CouponDiscount  decimal.Decimal
	LoyaltyDiscount decimal.Decimal
	Total           decimal.Decimal

	Payments  []payment.Transaction
	CreatedAt time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
}

// Submitter hands a finalized order to the fulfillment backend and returns
// its assigned id. Submission is the one externally-dependent step of
// checkout; failures are surfaced to the caller for retry.
type Submitter interface {
	Submit(ctx context.Context, o *Order) (string, error)
}
