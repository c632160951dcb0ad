package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/delivery"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/cart"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/catalog"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/checkout"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/handler"
	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/repository"
	"github.com/carlosalbertonunes2035/menusummo-checkout/pkg/health"
	"github.com/carlosalbertonunes2035/menusummo-checkout/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	ingredientRepo := repository.NewIngredientRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	// Warm-up: coupon code prefilter and a catalog sanity read, in parallel.
	warm, warmCtx := errgroup.WithContext(ctx)
	warm.Go(func() error {
		return couponRepo.WarmCodeFilter(warmCtx)
	})
	warm.Go(func() error {
		_, err := productRepo.List(warmCtx)
		return err
	})
	if err := warm.Wait(); err != nil {
		return errors.Wrap(err, "warm up")
	}
	healthSvc.SetReady(true)

	// Checkout session wiring. Every session opens over a fresh catalog and
	// stock snapshot so admission control works on a consistent view.
	sessionCfg := checkout.Config{
		Pricing:         cfg.Store.PricingSettings(),
		Week:            cfg.Store.Week(),
		LeadMinutes:     cfg.Store.LeadMinutes,
		IntervalMinutes: cfg.Store.IntervalMinutes,
		StoreAddress:    cfg.Store.Address,
	}
	quoter := &delivery.FlatQuoter{Fee: decimal.NewFromFloat(cfg.Store.DeliveryFee)}

	sessions := handler.NewSessionManager(func(ctx context.Context, customerID string) (*checkout.Session, error) {
		products, err := productRepo.List(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "load catalog")
		}
		lookup := make(catalog.SnapshotLookup, len(products))
		for _, p := range products {
			lookup[p.ID] = p
		}

		ledger, err := ingredientRepo.Snapshot(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "load stock")
		}

		profile := repository.NewCustomerProfile(pool, customerID)
		return checkout.NewSession(
			sessionCfg,
			cart.New(lookup, ledger),
			profile,
			couponRepo,
			quoter,
			orderRepo,
		), nil
	})

	// HTTP handlers.
	h := handler.NewHandler(sessions, productRepo, ingredientRepo)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)

	api := http.NewServeMux()
	h.Register(api)
	mux.Handle("/api/", http.StripPrefix("/api", api))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("checkout-api", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
