package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/checkout"
)

const (
	getCustomerSQL = `SELECT name, phone, address, loyalty_points
		FROM customers WHERE id = $1`

	upsertCustomerSQL = `INSERT INTO customers (id, name, phone, address, loyalty_points)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			loyalty_points = EXCLUDED.loyalty_points`
)

// CustomerProfile implements checkout.ProfileStore for one customer id.
// Each checkout session gets its own CustomerProfile bound to the session's
// customer.
type CustomerProfile struct {
	pool       *pgxpool.Pool
	customerID string
}

var _ checkout.ProfileStore = (*CustomerProfile)(nil)

// NewCustomerProfile returns a profile store scoped to the given customer id.
func NewCustomerProfile(pool *pgxpool.Pool, customerID string) *CustomerProfile {
	return &CustomerProfile{pool: pool, customerID: customerID}
}

// Get loads the customer record. A customer that does not exist yet reads
// as an empty profile; identity capture will create it on update.
func (r *CustomerProfile) Get(ctx context.Context) (checkout.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerSQL, r.customerID)
	if err != nil {
		return checkout.Customer{}, fmt.Errorf("getting customer %q: %w", r.customerID, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return checkout.Customer{}, nil
		}
		return checkout.Customer{}, fmt.Errorf("getting customer %q: %w", r.customerID, err)
	}
	return c, nil
}

// Update upserts the customer record.
func (r *CustomerProfile) Update(ctx context.Context, c checkout.Customer) error {
	_, err := r.pool.Exec(ctx, upsertCustomerSQL,
		r.customerID, c.Name, c.Phone, c.Address, c.LoyaltyPoints,
	)
	if err != nil {
		return fmt.Errorf("updating customer %q: %w", r.customerID, err)
	}
	return nil
}

func scanCustomer(row pgx.CollectableRow) (checkout.Customer, error) {
	var c checkout.Customer
	err := row.Scan(&c.Name, &c.Phone, &c.Address, &c.LoyaltyPoints)
	return c, err
}
