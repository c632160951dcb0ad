// Package payment tracks tendered payments against an order total.
package payment

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
)

// settleTolerance is the largest remaining balance still considered settled.
var settleTolerance = decimal.RequireFromString("0.01")

// Method enumerates the accepted payment methods.
type Method string

const (
	MethodCash Method = "cash"
	MethodCard Method = "card"
	MethodPix  Method = "pix"
	// MethodTab records the amount on the customer's running tab ("fiado").
	MethodTab Method = "tab"
)

// Sentinel errors for ledger mutation.
var (
	ErrNonPositiveAmount = errors.New("payment amount must be greater than 0")
	ErrIndexOutOfRange   = errors.New("payment index out of range")
)

// Transaction is one tendered payment. Amounts are never edited in place;
// corrections remove the transaction and add a new one.
type Transaction struct {
	Method Method
	Amount decimal.Decimal
	At     time.Time
}

// Ledger is the append-only list of payments for a checkout session.
type Ledger struct {
	transactions []Transaction
	now          func() time.Time
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{now: time.Now}
}

// Add appends a payment, rejecting non-positive amounts.
func (l *Ledger) Add(method Method, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	l.transactions = append(l.transactions, Transaction{
		Method: method,
		Amount: amount,
		At:     l.now(),
	})
	return nil
}

// Remove deletes the payment at index. Remaining entries keep their
// relative order; nothing is renumbered or merged.
func (l *Ledger) Remove(index int) error {
	if index < 0 || index >= len(l.transactions) {
		return ErrIndexOutOfRange
	}
	l.transactions = append(l.transactions[:index], l.transactions[index+1:]...)
	return nil
}

// Transactions returns a copy of the recorded payments in order.
func (l *Ledger) Transactions() []Transaction {
	out := make([]Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// TotalPaid returns the sum of all recorded amounts.
func (l *Ledger) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range l.transactions {
		total = total.Add(tx.Amount)
	}
	return total
}

// RemainingDue returns how much of the total is still unpaid, floored at zero.
func (l *Ledger) RemainingDue(total decimal.Decimal) decimal.Decimal {
	due := total.Sub(l.TotalPaid())
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// ChangeDue returns how much was paid beyond the total, floored at zero.
func (l *Ledger) ChangeDue(total decimal.Decimal) decimal.Decimal {
	change := l.TotalPaid().Sub(total)
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

// CanFinalize reports whether the order may be finalized with the current
// payments. Dine-in orders must be settled; delivery and takeout orders may
// close with an outstanding tab balance.
func (l *Ledger) CanFinalize(fulfillment pricing.Fulfillment, total decimal.Decimal) bool {
	if fulfillment != pricing.FulfillmentDineIn {
		return true
	}
	return l.RemainingDue(total).LessThanOrEqual(settleTolerance)
}
