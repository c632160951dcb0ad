package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/catalog"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/stock"
)

// stockEpsilon absorbs float noise carried over from upstream stock imports.
// A shortfall smaller than this is treated as available.
var stockEpsilon = decimal.RequireFromString("0.0001")

// Sentinel errors for cart mutation.
var (
	ErrInvalidQuantity = fmt.Errorf("quantity must be greater than 0")
	ErrIndexOutOfRange = fmt.Errorf("line item index out of range")
)

// MissingIngredientError indicates a recipe references an ingredient that
// does not exist in the stock ledger.
type MissingIngredientError struct {
	IngredientID string
}

func (e *MissingIngredientError) Error() string {
	return fmt.Sprintf("ingredient %s not found", e.IngredientID)
}

// IngredientPausedError indicates an ingredient is temporarily deactivated.
type IngredientPausedError struct {
	IngredientID string
	Name         string
}

func (e *IngredientPausedError) Error() string {
	return fmt.Sprintf("ingredient %s is paused", e.Name)
}

// InsufficientStockError indicates the aggregate cart demand for an
// ingredient exceeds its current stock.
type InsufficientStockError struct {
	IngredientID string
	Name         string
	Required     decimal.Decimal
	Available    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock of %s: need %s, have %s",
		e.Name, e.Required, e.Available)
}

// LineItem is a single cart row. Rows are identified for merge purposes by
// (ProductID, Notes, Options): rows differing in any of these stay distinct.
type LineItem struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	BasePrice   decimal.Decimal
	Quantity    int
	Notes       string
	Options     []catalog.Option
	IsTakeout   bool
}

// LineTotal returns (unit price + selected option prices) * quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	unit := li.UnitPrice
	for _, opt := range li.Options {
		unit = unit.Add(opt.Price)
	}
	return unit.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// plain reports whether the row has no notes and no option selections,
// making it eligible for quantity merging.
func (li LineItem) plain() bool {
	return li.Notes == "" && len(li.Options) == 0
}

// Cart is an ordered list of line items with stock-aware admission control.
// Every mutation is validate-then-commit: a rejected operation leaves the
// cart exactly as it was.
type Cart struct {
	items   []LineItem
	catalog catalog.Lookup
	ledger  stock.Ledger
}

// New creates an empty Cart that checks admissions against the given
// catalog and stock snapshots.
func New(lookup catalog.Lookup, ledger stock.Ledger) *Cart {
	return &Cart{catalog: lookup, ledger: ledger}
}

// Items returns the current line items in insertion order. The returned
// slice is a copy; callers cannot mutate cart state through it.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// TotalQuantity returns the sum of quantities across all line items.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, li := range c.items {
		total += li.Quantity
	}
	return total
}

// AddItem admits the product into the cart at the given quantity. A plain
// item (no notes, no options) merges into an existing plain row for the
// same product; admission is always checked against the post-merge
// aggregate demand, never the delta.
func (c *Cart) AddItem(p catalog.Product, quantity int, notes string, opts ...catalog.Option) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	candidate := LineItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		UnitPrice:   p.EffectivePrice(),
		BasePrice:   p.BasePrice,
		Quantity:    quantity,
		Notes:       notes,
		Options:     opts,
	}

	if mergeIdx := c.findMergeTarget(candidate); mergeIdx >= 0 {
		newQty := c.items[mergeIdx].Quantity + quantity
		if err := c.admit(mergeIdx, newQty); err != nil {
			return err
		}
		c.items[mergeIdx].Quantity = newQty
		return nil
	}

	if err := c.admitNew(candidate); err != nil {
		return err
	}
	c.items = append(c.items, candidate)
	return nil
}

// UpdateQuantity applies a quantity delta to the row at index. A resulting
// quantity of zero or less removes the row. Increments re-run admission at
// the new total quantity and reject without mutating on failure.
func (c *Cart) UpdateQuantity(index int, delta int) error {
	if index < 0 || index >= len(c.items) {
		return ErrIndexOutOfRange
	}

	newQty := c.items[index].Quantity + delta
	if newQty <= 0 {
		c.removeAt(index)
		return nil
	}

	if delta > 0 {
		if err := c.admit(index, newQty); err != nil {
			return err
		}
	}
	c.items[index].Quantity = newQty
	return nil
}

// RemoveItem removes the row at index.
func (c *Cart) RemoveItem(index int) error {
	if index < 0 || index >= len(c.items) {
		return ErrIndexOutOfRange
	}
	c.removeAt(index)
	return nil
}

// SetTakeout flags the row at index as packed to go.
func (c *Cart) SetTakeout(index int, takeout bool) error {
	if index < 0 || index >= len(c.items) {
		return ErrIndexOutOfRange
	}
	c.items[index].IsTakeout = takeout
	return nil
}

func (c *Cart) removeAt(index int) {
	c.items = append(c.items[:index], c.items[index+1:]...)
}

// findMergeTarget returns the index of an existing plain row for the same
// product, or -1 when the candidate must be appended as its own row.
func (c *Cart) findMergeTarget(candidate LineItem) int {
	if !candidate.plain() {
		return -1
	}
	for i, li := range c.items {
		if li.ProductID == candidate.ProductID && li.plain() {
			return i
		}
	}
	return -1
}

// admit checks whether the cart remains satisfiable with the row at
// index raised to quantity.
func (c *Cart) admit(index int, quantity int) error {
	demand, err := c.demandWith(index, quantity, nil)
	if err != nil {
		return err
	}
	return c.checkDemand(demand)
}

// admitNew checks whether the cart remains satisfiable with the candidate
// row appended.
func (c *Cart) admitNew(candidate LineItem) error {
	demand, err := c.demandWith(-1, 0, &candidate)
	if err != nil {
		return err
	}
	return c.checkDemand(demand)
}

// demandWith builds the aggregate ingredient-demand map across every
// existing row — substituting quantity for the row at overrideIdx — plus
// the extra candidate row when non-nil.
func (c *Cart) demandWith(overrideIdx, overrideQty int, extra *LineItem) (map[string]decimal.Decimal, error) {
	demand := make(map[string]decimal.Decimal)

	accumulate := func(productID string, quantity int) error {
		p, ok := c.catalog.Product(productID)
		if !ok {
			return fmt.Errorf("product %s: %w", productID, catalog.ErrNotFound)
		}
		qty := decimal.NewFromInt(int64(quantity))
		for _, line := range p.Recipe {
			demand[line.IngredientID] = demand[line.IngredientID].Add(line.Amount.Mul(qty))
		}
		return nil
	}

	for i, li := range c.items {
		qty := li.Quantity
		if i == overrideIdx {
			qty = overrideQty
		}
		if err := accumulate(li.ProductID, qty); err != nil {
			return nil, err
		}
	}
	if extra != nil {
		if err := accumulate(extra.ProductID, extra.Quantity); err != nil {
			return nil, err
		}
	}
	return demand, nil
}

// checkDemand verifies the aggregate demand against the stock ledger.
func (c *Cart) checkDemand(demand map[string]decimal.Decimal) error {
	for id, required := range demand {
		ing, ok := c.ledger.Ingredient(id)
		if !ok {
			return &MissingIngredientError{IngredientID: id}
		}
		if !ing.IsActive {
			return &IngredientPausedError{IngredientID: id, Name: ing.Name}
		}
		if required.Sub(ing.CurrentStock).GreaterThan(stockEpsilon) {
			return &InsufficientStockError{
				IngredientID: id,
				Name:         ing.Name,
				Required:     required,
				Available:    ing.CurrentStock,
			}
		}
	}
	return nil
}
