package repository

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
)

const (
	getCouponByCodeSQL = `SELECT code, discount_type, value, min_order_value
		FROM coupons WHERE UPPER(code) = UPPER($1) AND active = TRUE`

	listCouponCodesSQL = `SELECT code FROM coupons WHERE active = TRUE`
)

// couponFilterFPR keeps false positives rare enough that almost every miss
// is answered without touching the database.
const couponFilterFPR = 0.001

var _ pricing.CouponRepository = (*CouponRepository)(nil)

// CouponRepository implements pricing.CouponRepository backed by PostgreSQL,
// fronted by an optional bloom filter so unknown codes are rejected without
// a query. The filter is rebuilt by WarmCodeFilter; until then every lookup
// goes to the database.
type CouponRepository struct {
	pool   *pgxpool.Pool
	filter atomic.Pointer[bloom.BloomFilter]
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// WarmCodeFilter loads all active coupon codes and builds the negative-lookup
// prefilter. Safe to call again to refresh after coupon changes.
func (r *CouponRepository) WarmCodeFilter(ctx context.Context) error {
	rows, err := r.pool.Query(ctx, listCouponCodesSQL)
	if err != nil {
		return fmt.Errorf("listing coupon codes: %w", err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return fmt.Errorf("listing coupon codes: %w", err)
	}

	capacity := uint(len(codes))
	if capacity < 1 {
		capacity = 1
	}
	filter := bloom.NewWithEstimates(capacity, couponFilterFPR)
	for _, code := range codes {
		filter.AddString(strings.ToUpper(code))
	}
	r.filter.Store(filter)
	return nil
}

// FindByCode looks up an active coupon by its code (case-insensitive).
// Returns pricing.ErrInvalidCoupon when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*pricing.Coupon, error) {
	if filter := r.filter.Load(); filter != nil && !filter.TestString(strings.ToUpper(code)) {
		return nil, pricing.ErrInvalidCoupon
	}

	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pricing.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

func scanCoupon(row pgx.CollectableRow) (pricing.Coupon, error) {
	var (
		c            pricing.Coupon
		discountType string
	)
	err := row.Scan(&c.Code, &discountType, &c.Value, &c.MinOrderValue)
	c.Type = pricing.DiscountType(discountType)
	return c, err
}
