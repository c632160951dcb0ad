// Command coupon-ingest bulk-loads campaign promo codes into the coupons
// table. Marketing hands over gzip-compressed code lists (one code per
// line); every code in the batch gets the same discount rule, given via
// flags. Duplicate codes across files are skipped with a bloom filter, so
// multi-gigabyte lists ingest without holding every code in memory.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/repository"
)

const (
	// filterCapacity sizes the dedupe filter. A false positive silently
	// drops a code from the batch, so the rate is kept very low.
	filterCapacity = 50_000_000
	filterFPR      = 1e-6

	progressEvery = 1_000_000
	minCodeLen    = 6
	maxCodeLen    = 24
)

func main() {
	var (
		databaseURL  string
		discountType string
		value        string
		minOrder     string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&discountType, "type", "percentage", "discount type for the batch: fixed or percentage")
	flag.StringVar(&value, "value", "10", "discount value (amount for fixed, percent for percentage)")
	flag.StringVar(&minOrder, "min-order", "0", "minimum order subtotal for the codes to apply")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("at least one code list file is required")
		os.Exit(1)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	rule, err := parseRule(discountType, value, minOrder)
	if err != nil {
		slog.Error("invalid discount rule", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files, rule); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

// batchRule is the discount applied to every code in the batch.
type batchRule struct {
	discountType pricing.DiscountType
	value        decimal.Decimal
	minOrder     decimal.Decimal
}

func parseRule(discountType, value, minOrder string) (batchRule, error) {
	var rule batchRule

	switch pricing.DiscountType(discountType) {
	case pricing.DiscountFixed, pricing.DiscountPercentage:
		rule.discountType = pricing.DiscountType(discountType)
	default:
		return rule, errors.Errorf("unknown discount type %q", discountType)
	}

	v, err := decimal.NewFromString(value)
	if err != nil {
		return rule, errors.Wrap(err, "parse value")
	}
	if !v.IsPositive() {
		return rule, errors.New("value must be positive")
	}
	rule.value = v

	m, err := decimal.NewFromString(minOrder)
	if err != nil {
		return rule, errors.Wrap(err, "parse min-order")
	}
	if m.IsNegative() {
		return rule, errors.New("min-order must not be negative")
	}
	rule.minOrder = m

	return rule, nil
}

func run(ctx context.Context, databaseURL string, files []string, rule batchRule) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	seeder := repository.NewSeeder(pool)

	// Codes stream from the files into a single writer goroutine. The
	// writer owns the dedupe filter; readers only parse and validate.
	codes := make(chan string, 1024)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeCodes(ctx, seeder, rule, codes)
	})

	readers, readCtx := errgroup.WithContext(ctx)
	for _, path := range files {
		readers.Go(readCodesFromFile(readCtx, path, codes))
	}
	readErr := readers.Wait()
	close(codes)

	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "write codes")
	}
	if readErr != nil {
		return errors.Wrap(readErr, "read code lists")
	}

	return nil
}

func readCodesFromFile(ctx context.Context, path string, codes chan<- string) func() error {
	return func() error {
		var count uint64

		if err := streamGzFile(ctx, path, func(code string) error {
			code = strings.ToUpper(strings.TrimSpace(code))
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				return nil
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("read progress", slog.String("file", path), slog.Uint64("codes", count))
			}

			select {
			case codes <- code:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}); err != nil {
			return errors.Wrapf(err, "stream %s", path)
		}

		slog.Info("file complete", slog.String("file", path), slog.Uint64("codes", count))
		return nil
	}
}

// writeCodes receives codes, drops duplicates, and upserts the rest.
func writeCodes(ctx context.Context, seeder *repository.Seeder, rule batchRule, codes <-chan string) error {
	seen := bloom.NewWithEstimates(filterCapacity, filterFPR)
	var written uint64

	for code := range codes {
		if seen.TestString(code) {
			continue
		}
		seen.AddString(code)

		c := pricing.Coupon{
			Code:          code,
			Type:          rule.discountType,
			Value:         rule.value,
			MinOrderValue: rule.minOrder,
		}
		if err := seeder.UpsertCoupon(ctx, c, true); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", code)
		}

		written++
		if written%progressEvery == 0 {
			slog.Info("write progress", slog.Uint64("written", written))
		}
	}

	slog.Info("write complete", slog.Uint64("written", written))
	return nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each line.
func streamGzFile(ctx context.Context, path string, fn func(code string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}
