// Command seed-db loads the menu seed file (ingredients, products with
// recipes and options, coupons) into PostgreSQL. Plain JSON and
// gzip-compressed JSON are both accepted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/catalog"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/stock"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/repository"
)

type seedFile struct {
	Ingredients []ingredientJSON `json:"ingredients"`
	Products    []productJSON    `json:"products"`
	Coupons     []couponJSON     `json:"coupons"`
}

type ingredientJSON struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Unit   string          `json:"unit"`
	Stock  decimal.Decimal `json:"stock"`
	Active bool            `json:"active"`
}

type productJSON struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	BasePrice  decimal.Decimal  `json:"base_price"`
	PromoPrice *decimal.Decimal `json:"promo_price,omitempty"`
	Active     bool             `json:"active"`
	Recipe     []recipeJSON     `json:"recipe"`
	Options    []optionJSON     `json:"options"`
}

type recipeJSON struct {
	IngredientID string          `json:"ingredient_id"`
	Amount       decimal.Decimal `json:"amount"`
}

type optionJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type couponJSON struct {
	Code          string          `json:"code"`
	Type          string          `json:"type"`
	Value         decimal.Decimal `json:"value"`
	MinOrderValue decimal.Decimal `json:"min_order_value"`
	Active        bool            `json:"active"`
}

func main() {
	var (
		databaseURL string
		seedPath    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/menu.json", "path to menu seed file (.json or .json.gz)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	seed, err := readSeedFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	seeder := repository.NewSeeder(pool)

	if err := seedIngredients(ctx, seeder, seed.Ingredients); err != nil {
		return errors.Wrap(err, "seed ingredients")
	}
	if err := seedProducts(ctx, seeder, seed.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, seeder, seed.Coupons); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

// readSeedFile reads and parses the seed file, transparently decompressing
// when the path ends in .gz.
func readSeedFile(path string) (*seedFile, error) {
	slog.Info("reading seed file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var seed seedFile
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, errors.Wrap(err, "parse seed JSON")
	}
	return &seed, nil
}

func seedIngredients(ctx context.Context, seeder *repository.Seeder, ingredients []ingredientJSON) error {
	slog.Info("upserting ingredients", slog.Int("count", len(ingredients)))

	for _, in := range ingredients {
		ing := stock.Ingredient{
			ID:           in.ID,
			Name:         in.Name,
			Unit:         in.Unit,
			CurrentStock: in.Stock,
			IsActive:     in.Active,
		}
		if err := seeder.UpsertIngredient(ctx, ing); err != nil {
			return errors.Wrapf(err, "upsert ingredient %s", in.ID)
		}
	}

	return nil
}

func seedProducts(ctx context.Context, seeder *repository.Seeder, products []productJSON) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, in := range products {
		p := catalog.Product{
			ID:         in.ID,
			Name:       in.Name,
			Category:   in.Category,
			BasePrice:  in.BasePrice,
			PromoPrice: in.PromoPrice,
			Active:     in.Active,
		}
		for _, line := range in.Recipe {
			p.Recipe = append(p.Recipe, catalog.RecipeLine{
				IngredientID: line.IngredientID,
				Amount:       line.Amount,
			})
		}
		for _, opt := range in.Options {
			p.Options = append(p.Options, catalog.Option{
				ID:    opt.ID,
				Name:  opt.Name,
				Price: opt.Price,
			})
		}
		if err := seeder.UpsertProduct(ctx, p); err != nil {
			return errors.Wrapf(err, "upsert product %s", in.ID)
		}

		slog.Info("upserted product", slog.String("id", in.ID), slog.String("name", in.Name))
	}

	return nil
}

func seedCoupons(ctx context.Context, seeder *repository.Seeder, coupons []couponJSON) error {
	slog.Info("upserting coupons", slog.Int("count", len(coupons)))

	for _, in := range coupons {
		c := pricing.Coupon{
			Code:          in.Code,
			Type:          pricing.DiscountType(in.Type),
			Value:         in.Value,
			MinOrderValue: in.MinOrderValue,
		}
		if err := seeder.UpsertCoupon(ctx, c, in.Active); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", in.Code)
		}
	}

	return nil
}
