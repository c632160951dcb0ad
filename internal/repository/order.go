package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, fulfillment, customer_name, customer_phone,
			address, table_id, scheduled_for, subtotal, delivery_fee, coupon_code,
			coupon_discount, loyalty_discount, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	createOrderItemSQL = `INSERT INTO order_items (order_id, position, product_id,
			product_name, unit_price, base_price, quantity, notes, is_takeout, options)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	createOrderPaymentSQL = `INSERT INTO order_payments (order_id, position, method, amount, paid_at)
		VALUES ($1, $2, $3, $4, $5)`
)

var (
	_ order.Repository = (*OrderRepository)(nil)
	_ order.Submitter  = (*OrderRepository)(nil)
)

// OrderRepository implements order.Repository and order.Submitter backed by
// PostgreSQL. Order, items, and payments are written in one transaction.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order with its line items and payments.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, string(o.Fulfillment), o.CustomerName, o.CustomerPhone,
		o.Address, o.TableID, o.ScheduledFor, o.Subtotal, o.DeliveryFee,
		o.CouponCode, o.CouponDiscount, o.LoyaltyDiscount, o.Total, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for i, li := range o.Items {
		optionsJSON, err := json.Marshal(li.Options)
		if err != nil {
			return fmt.Errorf("marshaling options for item %d: %w", i, err)
		}
		_, err = tx.Exec(ctx, createOrderItemSQL,
			o.ID, i, li.ProductID, li.ProductName, li.UnitPrice, li.BasePrice,
			li.Quantity, li.Notes, li.IsTakeout, optionsJSON,
		)
		if err != nil {
			return fmt.Errorf("creating order item %d: %w", i, err)
		}
	}

	for i, p := range o.Payments {
		_, err = tx.Exec(ctx, createOrderPaymentSQL,
			o.ID, i, string(p.Method), p.Amount, p.At,
		)
		if err != nil {
			return fmt.Errorf("creating order payment %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// Submit assigns the order an id and persists it, implementing the
// checkout submission boundary.
func (r *OrderRepository) Submit(ctx context.Context, o *order.Order) (string, error) {
	o.ID = uuid.New().String()
	if err := r.Create(ctx, o); err != nil {
		return "", err
	}
	return o.ID, nil
}
