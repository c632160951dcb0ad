// Package pricing computes the payable total for a cart. Compute is pure:
// identical inputs always produce an identical breakdown, and nothing here
// mutates the cart or reaches for external state.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/cart"
)

var hundred = decimal.NewFromInt(100)

// Fulfillment classifies how an order is handed to the customer.
type Fulfillment string

const (
	FulfillmentDelivery  Fulfillment = "delivery"
	FulfillmentTakeout   Fulfillment = "takeout"
	FulfillmentDineIn    Fulfillment = "dine_in"
	FulfillmentStaffMeal Fulfillment = "staff_meal"
)

// LoyaltyConfig controls point redemption.
type LoyaltyConfig struct {
	Enabled             bool
	MinRedemptionPoints int
	// CashbackPer100Points is the monetary value of every 100 points.
	CashbackPer100Points decimal.Decimal
}

// Settings holds the store-level pricing knobs.
type Settings struct {
	DeliveryFee decimal.Decimal
	// FreeShippingThreshold waives the delivery fee once the subtotal
	// reaches it. Zero disables free shipping.
	FreeShippingThreshold decimal.Decimal
	Loyalty               LoyaltyConfig
}

// Input bundles the five inputs of a pricing computation.
type Input struct {
	Items       []cart.LineItem
	Fulfillment Fulfillment
	// Coupon is the currently applied coupon, nil when none. An applied
	// coupon below its minimum order value stays applied but contributes
	// zero discount.
	Coupon          *Coupon
	RedeemPoints    bool
	AvailablePoints int
	Settings        Settings
}

// Breakdown is the priced decomposition of an order.
type Breakdown struct {
	Subtotal        decimal.Decimal
	DeliveryFee     decimal.Decimal
	CouponDiscount  decimal.Decimal
	LoyaltyDiscount decimal.Decimal
	FinalTotal      decimal.Decimal
}

// Compute derives the full breakdown. The discount stages are evaluated
// independently against the pre-discount subtotal, never chained, and the
// final total is floored at zero. The coupon discount is deliberately not
// capped at the subtotal; only the final floor clamps it.
func Compute(in Input) Breakdown {
	subtotal := decimal.Zero
	for _, li := range in.Items {
		subtotal = subtotal.Add(li.LineTotal())
	}

	fee := deliveryFee(in, subtotal)
	couponDiscount := couponDiscount(in.Coupon, subtotal)
	loyaltyDiscount := loyaltyDiscount(in, subtotal)

	total := subtotal.Add(fee).Sub(couponDiscount).Sub(loyaltyDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	// An empty cart is never payable, regardless of fees or discounts.
	if len(in.Items) == 0 {
		total = decimal.Zero
	}

	return Breakdown{
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		CouponDiscount:  couponDiscount,
		LoyaltyDiscount: loyaltyDiscount,
		FinalTotal:      total,
	}
}

func deliveryFee(in Input, subtotal decimal.Decimal) decimal.Decimal {
	if in.Fulfillment != FulfillmentDelivery {
		return decimal.Zero
	}
	threshold := in.Settings.FreeShippingThreshold
	if threshold.IsPositive() && subtotal.GreaterThanOrEqual(threshold) {
		return decimal.Zero
	}
	return in.Settings.DeliveryFee
}

func couponDiscount(c *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	if subtotal.LessThan(c.MinOrderValue) {
		return decimal.Zero
	}
	switch c.Type {
	case DiscountFixed:
		return c.Value
	case DiscountPercentage:
		return subtotal.Mul(c.Value).Div(hundred)
	default:
		return decimal.Zero
	}
}

func loyaltyDiscount(in Input, subtotal decimal.Decimal) decimal.Decimal {
	cfg := in.Settings.Loyalty
	if !in.RedeemPoints || !cfg.Enabled {
		return decimal.Zero
	}
	if in.AvailablePoints < cfg.MinRedemptionPoints {
		return decimal.Zero
	}
	value := decimal.NewFromInt(int64(in.AvailablePoints)).
		Div(hundred).
		Mul(cfg.CashbackPer100Points)
	// Loyalty value is capped at the subtotal directly, unlike the coupon.
	return decimal.Min(value, subtotal)
}
