// Package delivery provides DeliveryQuoter implementations for the
// checkout session.
package delivery

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/checkout"
)

// FlatQuoter answers every quote with the configured flat fee. It is the
// default quoter when no routing backend is configured.
type FlatQuoter struct {
	Fee decimal.Decimal
}

var _ checkout.DeliveryQuoter = (*FlatQuoter)(nil)

// Quote returns the flat fee regardless of destination.
func (q *FlatQuoter) Quote(_ context.Context, _, _ string) (checkout.Quote, error) {
	return checkout.Quote{Fee: q.Fee}, nil
}
