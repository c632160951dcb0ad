package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/stock"
)

const (
	listIngredientsSQL = `SELECT id, name, unit, current_stock, is_active
		FROM ingredients ORDER BY id`

	getIngredientByIDSQL = `SELECT id, name, unit, current_stock, is_active
		FROM ingredients WHERE id = $1`
)

// ErrIngredientNotFound is returned when a requested ingredient does not exist.
var ErrIngredientNotFound = errors.New("ingredient not found")

var _ stock.Repository = (*IngredientRepository)(nil)

// IngredientRepository implements stock.Repository backed by PostgreSQL.
type IngredientRepository struct {
	pool *pgxpool.Pool
}

// NewIngredientRepository returns an IngredientRepository that uses the given pool.
func NewIngredientRepository(pool *pgxpool.Pool) *IngredientRepository {
	return &IngredientRepository{pool: pool}
}

// List returns every ingredient in the ledger ordered by ID.
func (r *IngredientRepository) List(ctx context.Context) ([]stock.Ingredient, error) {
	rows, err := r.pool.Query(ctx, listIngredientsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}

	ingredients, err := pgx.CollectRows(rows, scanIngredient)
	if err != nil {
		return nil, fmt.Errorf("listing ingredients: %w", err)
	}
	return ingredients, nil
}

// GetByID returns a single ingredient record.
func (r *IngredientRepository) GetByID(ctx context.Context, id string) (*stock.Ingredient, error) {
	rows, err := r.pool.Query(ctx, getIngredientByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting ingredient %q: %w", id, err)
	}

	ing, err := pgx.CollectExactlyOneRow(rows, scanIngredient)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIngredientNotFound
		}
		return nil, fmt.Errorf("getting ingredient %q: %w", id, err)
	}
	return &ing, nil
}

// Snapshot loads the full ledger into an in-memory stock.Snapshot for
// admission control. Admission works on a point-in-time view; concurrent
// stock changes are picked up by the next snapshot.
func (r *IngredientRepository) Snapshot(ctx context.Context) (stock.Snapshot, error) {
	ingredients, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return stock.NewSnapshot(ingredients), nil
}

func scanIngredient(row pgx.CollectableRow) (stock.Ingredient, error) {
	var ing stock.Ingredient
	err := row.Scan(&ing.ID, &ing.Name, &ing.Unit, &ing.CurrentStock, &ing.IsActive)
	return ing, err
}
