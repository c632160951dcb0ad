package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/catalog"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/stock"
)

const (
	upsertIngredientSQL = `INSERT INTO ingredients (id, name, unit, current_stock, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			unit = EXCLUDED.unit,
			current_stock = EXCLUDED.current_stock,
			is_active = EXCLUDED.is_active`

	upsertProductSQL = `INSERT INTO products (id, name, category, base_price, promo_price, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			base_price = EXCLUDED.base_price,
			promo_price = EXCLUDED.promo_price,
			active = EXCLUDED.active`

	deleteRecipeSQL = `DELETE FROM product_recipes WHERE product_id = $1`

	insertRecipeLineSQL = `INSERT INTO product_recipes (product_id, ingredient_id, amount)
		VALUES ($1, $2, $3)`

	deleteOptionsSQL = `DELETE FROM product_options WHERE product_id = $1`

	insertOptionSQL = `INSERT INTO product_options (id, product_id, name, price)
		VALUES ($1, $2, $3, $4)`

	upsertCouponSQL = `INSERT INTO coupons (code, discount_type, value, min_order_value, active)
		VALUES (UPPER($1), $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			value = EXCLUDED.value,
			min_order_value = EXCLUDED.min_order_value,
			active = EXCLUDED.active`
)

// Seeder writes catalog, stock and coupon rows. It exists for the seed and
// ingest commands; the serving path never mutates these tables.
type Seeder struct {
	pool *pgxpool.Pool
}

// NewSeeder returns a Seeder over the given pool.
func NewSeeder(pool *pgxpool.Pool) *Seeder {
	return &Seeder{pool: pool}
}

// UpsertIngredient inserts or updates a single ingredient row.
func (s *Seeder) UpsertIngredient(ctx context.Context, ing stock.Ingredient) error {
	_, err := s.pool.Exec(ctx, upsertIngredientSQL,
		ing.ID, ing.Name, ing.Unit, ing.CurrentStock, ing.IsActive)
	if err != nil {
		return fmt.Errorf("upserting ingredient %q: %w", ing.ID, err)
	}
	return nil
}

// UpsertProduct inserts or updates a product together with its recipe lines
// and options. Recipe and option rows are replaced wholesale so removed lines
// do not linger.
func (s *Seeder) UpsertProduct(ctx context.Context, p catalog.Product) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning product upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Category, p.BasePrice, p.PromoPrice, p.Active); err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}

	if _, err := tx.Exec(ctx, deleteRecipeSQL, p.ID); err != nil {
		return fmt.Errorf("clearing recipe for product %q: %w", p.ID, err)
	}
	for _, line := range p.Recipe {
		if _, err := tx.Exec(ctx, insertRecipeLineSQL, p.ID, line.IngredientID, line.Amount); err != nil {
			return fmt.Errorf("inserting recipe line %q/%q: %w", p.ID, line.IngredientID, err)
		}
	}

	if _, err := tx.Exec(ctx, deleteOptionsSQL, p.ID); err != nil {
		return fmt.Errorf("clearing options for product %q: %w", p.ID, err)
	}
	for _, opt := range p.Options {
		if _, err := tx.Exec(ctx, insertOptionSQL, opt.ID, p.ID, opt.Name, opt.Price); err != nil {
			return fmt.Errorf("inserting option %q: %w", opt.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing product %q: %w", p.ID, err)
	}
	return nil
}

// UpsertCoupon inserts or updates a coupon. Codes are stored uppercased.
func (s *Seeder) UpsertCoupon(ctx context.Context, c pricing.Coupon, active bool) error {
	_, err := s.pool.Exec(ctx, upsertCouponSQL,
		c.Code, string(c.Type), c.Value, c.MinOrderValue, active)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}
