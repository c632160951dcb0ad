package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, name, category, base_price, promo_price, active
		FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, category, base_price, promo_price, active
		FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT id, name, category, base_price, promo_price, active
		FROM products WHERE id = ANY($1)`

	getRecipesSQL = `SELECT product_id, ingredient_id, amount
		FROM product_recipes WHERE product_id = ANY($1)`

	getOptionsSQL = `SELECT id, product_id, name, price
		FROM product_options WHERE product_id = ANY($1) ORDER BY id`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
// Products are hydrated with their recipe lines and option list.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	if err := r.hydrate(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a single product with its recipe and options.
// Returns catalog.ErrNotFound when the product does not exist.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	hydrated := []catalog.Product{p}
	if err := r.hydrate(ctx, hydrated); err != nil {
		return nil, err
	}
	return &hydrated[0], nil
}

// GetByIDs returns the products matching the given ids in a single batch.
// Missing ids are silently absent from the result; callers decide whether
// that is an error.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	if err := r.hydrate(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// hydrate attaches recipe lines and options to the given products in place.
func (r *ProductRepository) hydrate(ctx context.Context, products []catalog.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	index := make(map[string]*catalog.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = &products[i]
	}

	rows, err := r.pool.Query(ctx, getRecipesSQL, ids)
	if err != nil {
		return fmt.Errorf("loading recipes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			productID string
			line      catalog.RecipeLine
		)
		if err := rows.Scan(&productID, &line.IngredientID, &line.Amount); err != nil {
			return fmt.Errorf("loading recipes: %w", err)
		}
		if p, ok := index[productID]; ok {
			p.Recipe = append(p.Recipe, line)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("loading recipes: %w", err)
	}

	optRows, err := r.pool.Query(ctx, getOptionsSQL, ids)
	if err != nil {
		return fmt.Errorf("loading options: %w", err)
	}
	defer optRows.Close()
	for optRows.Next() {
		var (
			productID string
			opt       catalog.Option
		)
		if err := optRows.Scan(&opt.ID, &productID, &opt.Name, &opt.Price); err != nil {
			return fmt.Errorf("loading options: %w", err)
		}
		if p, ok := index[productID]; ok {
			p.Options = append(p.Options, opt)
		}
	}
	if err := optRows.Err(); err != nil {
		return fmt.Errorf("loading options: %w", err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p     catalog.Product
		promo *decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.BasePrice, &promo, &p.Active)
	p.PromoPrice = promo
	return p, err
}
