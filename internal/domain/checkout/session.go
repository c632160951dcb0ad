// Package checkout drives the multi-step checkout flow: bag review,
// identity capture, fulfillment selection, payment. The session is
// UI-adjacent state owned by a single caller; the order itself only
// materializes when payment completes.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/cart"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/order"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/payment"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/schedule"
)

// Step is a checkout stage.
type Step string

const (
	StepBag         Step = "bag"
	StepIdentity    Step = "identity"
	StepFulfillment Step = "fulfillment"
	StepPayment     Step = "payment"
)

// Direction records which way the last transition moved.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// Sentinel errors for checkout flow control.
var (
	// ErrAddressRequired signals that advancing a delivery order needs an
	// address first; the caller reacts by opening address capture instead
	// of advancing.
	ErrAddressRequired = errors.New("delivery address required")
	// ErrEmptyCart blocks finalizing an order with no items.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPaymentPending blocks finalizing a dine-in order that is not settled.
	ErrPaymentPending = errors.New("payment incomplete")
)

// ValidationError is a recoverable step-guard failure: the step does not
// change and the reason is surfaced to the user.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Customer is the profile record behind identity capture and loyalty.
type Customer struct {
	Name          string
	Phone         string
	Address       string
	LoyaltyPoints int
}

// ProfileStore reads and updates the customer profile.
type ProfileStore interface {
	Get(ctx context.Context) (Customer, error)
	Update(ctx context.Context, c Customer) error
}

// Quote is a live delivery fee estimate from the routing backend.
type Quote struct {
	Fee          decimal.Decimal
	DistanceKm   float64
	DurationText string
}

// DeliveryQuoter fetches a delivery fee quote for a destination address.
type DeliveryQuoter interface {
	Quote(ctx context.Context, origin, destination string) (Quote, error)
}

// Config carries the store-level knobs a session needs.
type Config struct {
	Pricing         pricing.Settings
	Week            schedule.Week
	LeadMinutes     int
	IntervalMinutes int
	// StoreAddress is the origin for delivery fee quotes.
	StoreAddress string
}

// Session is the checkout state machine. It owns the payment ledger and
// the per-session flags; the cart is injected and shared with the bag UI.
// A Session is single-owner: no synchronization, no cross-session state.
type Session struct {
	cfg     Config
	cart    *cart.Cart
	profile ProfileStore
	coupons pricing.CouponRepository
	quoter  DeliveryQuoter
	orders  order.Submitter

	step      Step
	direction Direction

	fulfillment   pricing.Fulfillment
	identityName  string
	identityPhone string
	address       string
	tableID       string

	couponInput   string
	appliedCoupon *pricing.Coupon
	redeemPoints  bool
	points        int

	scheduled     bool
	scheduledSlot string

	payments  *payment.Ledger
	quotedFee *decimal.Decimal

	now func() time.Time
}

// NewSession creates a Session over the given cart and collaborators.
// Call Open before use.
func NewSession(
	cfg Config,
	c *cart.Cart,
	profile ProfileStore,
	coupons pricing.CouponRepository,
	quoter DeliveryQuoter,
	orders order.Submitter,
) *Session {
	return &Session{
		cfg:         cfg,
		cart:        c,
		profile:     profile,
		coupons:     coupons,
		quoter:      quoter,
		orders:      orders,
		step:        StepBag,
		direction:   DirectionForward,
		fulfillment: pricing.FulfillmentTakeout,
		payments:    payment.NewLedger(),
		now:         time.Now,
	}
}

// Open (re)opens the checkout surface: back to the bag step, scheduling
// toggle cleared, redemption flag cleared, payments reset, and identity
// fields reloaded from the profile so stale edits from an aborted session
// never leak in.
func (s *Session) Open(ctx context.Context) error {
	s.step = StepBag
	s.direction = DirectionForward
	s.scheduled = false
	s.scheduledSlot = ""
	s.redeemPoints = false
	s.quotedFee = nil
	s.payments = payment.NewLedger()

	c, err := s.profile.Get(ctx)
	if err != nil {
		return errors.Wrap(err, "load profile")
	}
	s.identityName = c.Name
	s.identityPhone = c.Phone
	s.address = c.Address
	s.points = c.LoyaltyPoints
	return nil
}

// Step returns the current checkout step.
func (s *Session) Step() Step { return s.step }

// Direction returns the direction of the last transition.
func (s *Session) Direction() Direction { return s.direction }

// Cart returns the cart backing this session.
func (s *Session) Cart() *cart.Cart { return s.cart }

// Payments returns the session's payment ledger.
func (s *Session) Payments() *payment.Ledger { return s.payments }

// SetFulfillment selects how the order will be handed over.
func (s *Session) SetFulfillment(f pricing.Fulfillment) { s.fulfillment = f }

// Fulfillment returns the selected fulfillment type.
func (s *Session) Fulfillment() pricing.Fulfillment { return s.fulfillment }

// SetIdentity records the name and phone being edited on the identity step.
func (s *Session) SetIdentity(name, phone string) {
	s.identityName = name
	s.identityPhone = phone
}

// SetAddress records the delivery address.
func (s *Session) SetAddress(addr string) {
	s.address = addr
	s.quotedFee = nil
}

// SetTable records the dine-in table identifier.
func (s *Session) SetTable(tableID string) { s.tableID = tableID }

// SetScheduled toggles scheduled ordering and records the chosen slot.
func (s *Session) SetScheduled(on bool, slot string) {
	s.scheduled = on
	if !on {
		slot = ""
	}
	s.scheduledSlot = slot
}

// ToggleRedeemPoints flips the loyalty redemption flag and returns its new
// value. Whether the flag actually yields a discount is decided by the
// pricing engine.
func (s *Session) ToggleRedeemPoints() bool {
	s.redeemPoints = !s.redeemPoints
	return s.redeemPoints
}

// AppliedCoupon returns the currently applied coupon, nil when none.
func (s *Session) AppliedCoupon() *pricing.Coupon { return s.appliedCoupon }

// ApplyCoupon resolves the code and applies the coupon to the session.
// An empty code clears the applied coupon. On lookup failure the coupon
// state is left unchanged.
func (s *Session) ApplyCoupon(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		s.couponInput = ""
		s.appliedCoupon = nil
		return nil
	}
	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidCoupon) {
			return pricing.ErrInvalidCoupon
		}
		return errors.Wrap(err, "lookup coupon")
	}
	s.couponInput = code
	s.appliedCoupon = c
	return nil
}

// Pricing computes the current breakdown. A successful delivery fee quote
// overrides the configured flat fee.
func (s *Session) Pricing() pricing.Breakdown {
	settings := s.cfg.Pricing
	if s.quotedFee != nil {
		settings.DeliveryFee = *s.quotedFee
	}
	return pricing.Compute(pricing.Input{
		Items:           s.cart.Items(),
		Fulfillment:     s.fulfillment,
		Coupon:          s.appliedCoupon,
		RedeemPoints:    s.redeemPoints,
		AvailablePoints: s.points,
		Settings:        settings,
	})
}

// Slots returns the valid scheduled slots for the current wall-clock time.
func (s *Session) Slots() []string {
	return schedule.Slots(s.now(), s.cfg.Week, s.cfg.LeadMinutes, s.cfg.IntervalMinutes)
}

// QuoteDeliveryFee fetches a live delivery fee for the session's address
// and records it as the fee override used by Pricing.
func (s *Session) QuoteDeliveryFee(ctx context.Context) (Quote, error) {
	if s.address == "" {
		return Quote{}, ErrAddressRequired
	}
	q, err := s.quoter.Quote(ctx, s.cfg.StoreAddress, s.address)
	if err != nil {
		return Quote{}, errors.Wrap(err, "delivery quote")
	}
	s.quotedFee = &q.Fee
	return q, nil
}

// AddPayment appends a payment to the session ledger.
func (s *Session) AddPayment(method payment.Method, amount decimal.Decimal) error {
	return s.payments.Add(method, amount)
}

// RemovePayment removes the payment at index from the session ledger.
func (s *Session) RemovePayment(index int) error {
	return s.payments.Remove(index)
}

// Advance moves the session one step forward, applying this step's exit
// guard. From the payment step it submits the order and returns the
// assigned order id. A guard failure returns a *ValidationError (or
// ErrAddressRequired) and leaves the step unchanged.
func (s *Session) Advance(ctx context.Context) (orderID string, err error) {
	s.direction = DirectionForward

	switch s.step {
	case StepBag:
		if s.identityName != "" && s.identityPhone != "" {
			s.step = StepFulfillment
		} else {
			s.step = StepIdentity
		}
		return "", nil

	case StepIdentity:
		if strings.TrimSpace(s.identityName) == "" {
			return "", &ValidationError{Field: "name", Reason: "name is required"}
		}
		if strings.TrimSpace(s.identityPhone) == "" {
			return "", &ValidationError{Field: "phone", Reason: "phone is required"}
		}
		if err := s.persistIdentity(ctx); err != nil {
			return "", err
		}
		s.step = StepFulfillment
		return "", nil

	case StepFulfillment:
		if s.fulfillment == pricing.FulfillmentDelivery && s.address == "" {
			return "", ErrAddressRequired
		}
		if s.fulfillment == pricing.FulfillmentDineIn && s.tableID == "" {
			return "", &ValidationError{Field: "table", Reason: "table is required for dine-in"}
		}
		s.step = StepPayment
		return "", nil

	case StepPayment:
		return s.Finalize(ctx)

	default:
		return "", errors.Errorf("unknown step: %q", s.step)
	}
}

// Back moves one step backward. Backward transitions carry no guards.
// From the bag step it reports that the checkout surface should close.
func (s *Session) Back() (closed bool) {
	s.direction = DirectionBackward

	switch s.step {
	case StepPayment:
		s.step = StepFulfillment
	case StepFulfillment, StepIdentity:
		s.step = StepBag
	case StepBag:
		return true
	}
	return false
}

// Finalize validates payment state, materializes the order, and submits
// it. On submission failure the session stays on the payment step so the
// user can retry.
func (s *Session) Finalize(ctx context.Context) (string, error) {
	if s.cart.IsEmpty() {
		return "", ErrEmptyCart
	}

	breakdown := s.Pricing()
	if !s.payments.CanFinalize(s.fulfillment, breakdown.FinalTotal) {
		return "", ErrPaymentPending
	}

	o := &order.Order{
		Fulfillment:     s.fulfillment,
		CustomerName:    s.identityName,
		CustomerPhone:   s.identityPhone,
		Address:         s.address,
		TableID:         s.tableID,
		ScheduledFor:    s.scheduledSlot,
		Items:           s.cart.Items(),
		Subtotal:        breakdown.Subtotal,
		DeliveryFee:     breakdown.DeliveryFee,
		CouponDiscount:  breakdown.CouponDiscount,
		LoyaltyDiscount: breakdown.LoyaltyDiscount,
		Total:           breakdown.FinalTotal,
		Payments:        s.payments.Transactions(),
		CreatedAt:       s.now(),
	}
	if s.appliedCoupon != nil {
		o.CouponCode = s.appliedCoupon.Code
	}

	id, err := s.orders.Submit(ctx, o)
	if err != nil {
		return "", errors.Wrap(err, "submit order")
	}
	return id, nil
}

// persistIdentity writes the captured identity back to the profile.
func (s *Session) persistIdentity(ctx context.Context) error {
	c, err := s.profile.Get(ctx)
	if err != nil {
		return errors.Wrap(err, "load profile")
	}
	c.Name = s.identityName
	c.Phone = s.identityPhone
	if err := s.profile.Update(ctx, c); err != nil {
		return errors.Wrap(err, "update profile")
	}
	return nil
}
