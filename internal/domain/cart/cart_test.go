package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/catalog"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/stock"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testProduct(id string, price string, recipe map[string]string) catalog.Product {
	p := catalog.Product{
		ID:        id,
		Name:      "product " + id,
		BasePrice: dec(price),
		Active:    true,
	}
	for ing, amount := range recipe {
		p.Recipe = append(p.Recipe, catalog.RecipeLine{IngredientID: ing, Amount: dec(amount)})
	}
	return p
}

func testIngredient(id string, current string, active bool) stock.Ingredient {
	return stock.Ingredient{
		ID:           id,
		Name:         "ingredient " + id,
		CurrentStock: dec(current),
		IsActive:     active,
	}
}

func TestCart_AddItem_Admission(t *testing.T) {
	burger := testProduct("burger", "18.00", map[string]string{"bun": "1", "patty": "1"})
	fries := testProduct("fries", "9.00", map[string]string{"potato": "0.2"})
	ghost := testProduct("ghost", "5.00", map[string]string{"ectoplasm": "1"})
	seasonal := testProduct("seasonal", "12.00", map[string]string{"truffle": "0.05"})

	lookup := catalog.SnapshotLookup{
		"burger": burger, "fries": fries, "ghost": ghost, "seasonal": seasonal,
	}
	ledger := stock.NewSnapshot([]stock.Ingredient{
		testIngredient("bun", "3", true),
		testIngredient("patty", "10", true),
		testIngredient("potato", "1", true),
		testIngredient("truffle", "1", false),
	})

	tests := []struct {
		name    string
		setup   func(t *testing.T, c *Cart)
		product catalog.Product
		qty     int
		wantErr any
	}{
		{
			name:    "simple add within stock succeeds",
			product: burger,
			qty:     2,
		},
		{
			name:    "add beyond stock rejected",
			product: burger,
			qty:     4,
			wantErr: &InsufficientStockError{},
		},
		{
			name: "aggregate demand across cart rejected even when single item fits",
			setup: func(t *testing.T, c *Cart) {
				require.NoError(t, c.AddItem(burger, 2, "no pickles"))
			},
			product: burger,
			qty:     2,
			wantErr: &InsufficientStockError{},
		},
		{
			name:    "missing ingredient rejected",
			product: ghost,
			qty:     1,
			wantErr: &MissingIngredientError{},
		},
		{
			name:    "paused ingredient rejected",
			product: seasonal,
			qty:     1,
			wantErr: &IngredientPausedError{},
		},
		{
			name:    "zero quantity rejected",
			product: fries,
			qty:     0,
			wantErr: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(lookup, ledger)
			if tt.setup != nil {
				tt.setup(t, c)
			}
			before := c.Items()

			err := c.AddItem(tt.product, tt.qty, "")

			switch want := tt.wantErr.(type) {
			case nil:
				require.NoError(t, err)
			case error:
				switch want.(type) {
				case *InsufficientStockError:
					var target *InsufficientStockError
					require.ErrorAs(t, err, &target)
				case *MissingIngredientError:
					var target *MissingIngredientError
					require.ErrorAs(t, err, &target)
				case *IngredientPausedError:
					var target *IngredientPausedError
					require.ErrorAs(t, err, &target)
				default:
					require.ErrorIs(t, err, want)
				}
				// A rejected mutation leaves the cart untouched.
				assert.Equal(t, before, c.Items())
			}
		})
	}
}

func TestCart_AddItem_FloatTolerance(t *testing.T) {
	// Stock imported from float sources can be a hair short; a shortfall
	// below the epsilon still admits.
	soup := testProduct("soup", "14.00", map[string]string{"broth": "0.3"})
	lookup := catalog.SnapshotLookup{"soup": soup}
	ledger := stock.NewSnapshot([]stock.Ingredient{
		testIngredient("broth", "0.89995", true),
	})

	c := New(lookup, ledger)
	require.NoError(t, c.AddItem(soup, 3, ""))
}

func TestCart_MergeRule(t *testing.T) {
	burger := testProduct("burger", "18.00", map[string]string{"patty": "1"})
	extra := catalog.Option{ID: "bacon", Name: "bacon", Price: dec("3.00")}
	lookup := catalog.SnapshotLookup{"burger": burger}
	ledger := stock.NewSnapshot([]stock.Ingredient{
		testIngredient("patty", "10", true),
	})

	t.Run("plain items merge into one row", func(t *testing.T) {
		c := New(lookup, ledger)
		require.NoError(t, c.AddItem(burger, 1, ""))
		require.NoError(t, c.AddItem(burger, 1, ""))

		items := c.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
	})

	t.Run("item with notes appends a new row", func(t *testing.T) {
		c := New(lookup, ledger)
		require.NoError(t, c.AddItem(burger, 1, ""))
		require.NoError(t, c.AddItem(burger, 1, "no onions"))

		require.Len(t, c.Items(), 2)
	})

	t.Run("item with options appends a new row", func(t *testing.T) {
		c := New(lookup, ledger)
		require.NoError(t, c.AddItem(burger, 1, ""))
		require.NoError(t, c.AddItem(burger, 1, "", extra))

		require.Len(t, c.Items(), 2)
	})

	t.Run("merge re-checks admission at the new total", func(t *testing.T) {
		tight := stock.NewSnapshot([]stock.Ingredient{
			testIngredient("patty", "3", true),
		})
		c := New(lookup, tight)
		require.NoError(t, c.AddItem(burger, 2, ""))

		err := c.AddItem(burger, 2, "")
		var target *InsufficientStockError
		require.ErrorAs(t, err, &target)
		// The original row is untouched.
		items := c.Items()
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
	})
}

func TestCart_UpdateQuantity(t *testing.T) {
	burger := testProduct("burger", "18.00", map[string]string{"patty": "1"})
	lookup := catalog.SnapshotLookup{"burger": burger}
	ledger := stock.NewSnapshot([]stock.Ingredient{
		testIngredient("patty", "3", true),
	})

	t.Run("decrement to zero removes the row", func(t *testing.T) {
		c := New(lookup, ledger)
		require.NoError(t, c.AddItem(burger, 1, ""))

		require.NoError(t, c.UpdateQuantity(0, -1))
		assert.True(t, c.IsEmpty())
	})

	t.Run("increment beyond stock rejected without mutation", func(t *testing.T) {
		c := New(lookup, ledger)
		require.NoError(t, c.AddItem(burger, 3, ""))

		err := c.UpdateQuantity(0, 1)
		var target *InsufficientStockError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 3, c.Items()[0].Quantity)
	})

	t.Run("decrement never consults the ledger", func(t *testing.T) {
		// Stock dropped to zero after the items were admitted; reducing
		// quantity must still work.
		empty := stock.NewSnapshot([]stock.Ingredient{
			testIngredient("patty", "3", true),
		})
		c := New(lookup, empty)
		require.NoError(t, c.AddItem(burger, 3, ""))
		empty["patty"] = testIngredient("patty", "0", true)

		require.NoError(t, c.UpdateQuantity(0, -1))
		assert.Equal(t, 2, c.Items()[0].Quantity)
	})

	t.Run("out of range index", func(t *testing.T) {
		c := New(lookup, ledger)
		require.ErrorIs(t, c.UpdateQuantity(2, 1), ErrIndexOutOfRange)
	})
}

func TestCart_RemoveItem(t *testing.T) {
	burger := testProduct("burger", "18.00", nil)
	fries := testProduct("fries", "9.00", nil)
	lookup := catalog.SnapshotLookup{"burger": burger, "fries": fries}
	ledger := stock.Snapshot{}

	c := New(lookup, ledger)
	require.NoError(t, c.AddItem(burger, 1, ""))
	require.NoError(t, c.AddItem(fries, 2, ""))

	require.NoError(t, c.RemoveItem(0))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "fries", items[0].ProductID)

	require.ErrorIs(t, c.RemoveItem(5), ErrIndexOutOfRange)
}

func TestLineItem_LineTotal(t *testing.T) {
	li := LineItem{
		UnitPrice: dec("10.00"),
		Quantity:  2,
		Options: []catalog.Option{
			{ID: "cheese", Price: dec("2.50")},
			{ID: "bacon", Price: dec("3.00")},
		},
	}
	assert.True(t, dec("31.00").Equal(li.LineTotal()),
		"expected 31.00, got %s", li.LineTotal())
}

func TestCart_PromoPriceUsedWhenLower(t *testing.T) {
	promo := dec("15.00")
	burger := catalog.Product{
		ID:         "burger",
		Name:       "burger",
		BasePrice:  dec("18.00"),
		PromoPrice: &promo,
		Active:     true,
	}
	c := New(catalog.SnapshotLookup{"burger": burger}, stock.Snapshot{})

	require.NoError(t, c.AddItem(burger, 1, ""))

	li := c.Items()[0]
	assert.True(t, promo.Equal(li.UnitPrice))
	assert.True(t, dec("18.00").Equal(li.BasePrice))
}
