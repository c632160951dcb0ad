package pricing

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountFixed subtracts a fixed monetary amount.
	DiscountFixed DiscountType = "fixed"
	// DiscountPercentage subtracts a percentage of the subtotal.
	DiscountPercentage DiscountType = "percentage"
)

// ErrInvalidCoupon is returned when a coupon code is not found or inactive.
var ErrInvalidCoupon = errors.New("invalid coupon code")

// Coupon defines a discount rule. At most one coupon is applied to a
// checkout session at a time; coupons never stack.
type Coupon struct {
	Code  string
	Type  DiscountType
	Value decimal.Decimal
	// MinOrderValue gates the discount: below it the coupon stays applied
	// but contributes nothing.
	MinOrderValue decimal.Decimal
}

// CouponRepository provides lookup of coupons by their code.
type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
