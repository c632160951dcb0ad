package stock

import (
	"context"

	"github.com/shopspring/decimal"
)

// Ingredient is a single stock-tracked ingredient record.
type Ingredient struct {
	ID           string
	Name         string
	CurrentStock decimal.Decimal
	IsActive     bool
	Unit         string
}

// Repository defines read operations for the ingredient ledger.
type Repository interface {
	List(ctx context.Context) ([]Ingredient, error)
	GetByID(ctx context.Context, id string) (*Ingredient, error)
}

// Ledger is the read-only ingredient view consumed by cart admission control.
// Like catalog.Lookup it is a synchronous snapshot, never a live query.
type Ledger interface {
	Ingredient(id string) (Ingredient, bool)
}

// Snapshot is an in-memory Ledger over a fixed set of ingredients.
type Snapshot map[string]Ingredient

// Ingredient returns the ingredient with the given id, if present.
func (s Snapshot) Ingredient(id string) (Ingredient, bool) {
	ing, ok := s[id]
	return ing, ok
}

// NewSnapshot builds a Snapshot keyed by ingredient id.
func NewSnapshot(ingredients []Ingredient) Snapshot {
	s := make(Snapshot, len(ingredients))
	for _, ing := range ingredients {
		s[ing.ID] = ing
	}
	return s
}
