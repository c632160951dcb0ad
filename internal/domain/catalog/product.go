package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a menu item available for ordering.
type Product struct {
	ID         string
	Name       string
	Category   string
	BasePrice  decimal.Decimal
	PromoPrice *decimal.Decimal
	Recipe     []RecipeLine
	Options    []Option
	Active     bool
}

// RecipeLine declares how much of an ingredient one unit of the product consumes.
type RecipeLine struct {
	IngredientID string
	Amount       decimal.Decimal
}

// Option is an add-on the customer can select for a product, priced on top
// of the unit price.
type Option struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// EffectivePrice returns the promotional price when one is set and lower
// than the base price, otherwise the base price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.PromoPrice != nil && p.PromoPrice.LessThan(p.BasePrice) {
		return *p.PromoPrice
	}
	return p.BasePrice
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}

// Lookup is the read-only product view consumed by cart admission control.
// Implementations are expected to be synchronous snapshots or cached reads;
// admission never blocks on I/O mid-computation.
type Lookup interface {
	Product(id string) (Product, bool)
}

// SnapshotLookup is an in-memory Lookup over a fixed set of products.
type SnapshotLookup map[string]Product

// Product returns the product with the given id, if present.
func (s SnapshotLookup) Product(id string) (Product, bool) {
	p, ok := s[id]
	return p, ok
}
