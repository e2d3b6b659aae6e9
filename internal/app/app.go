// Package app wires configuration, storage, and transport into the running
// API server.
package app

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/valentinsg/busy-commerce/internal/cache"
	"github.com/valentinsg/busy-commerce/internal/domain/archive"
	"github.com/valentinsg/busy-commerce/internal/domain/checkout"
	"github.com/valentinsg/busy-commerce/internal/domain/coupon"
	"github.com/valentinsg/busy-commerce/internal/domain/newsletter"
	"github.com/valentinsg/busy-commerce/internal/domain/order"
	"github.com/valentinsg/busy-commerce/internal/events"
	"github.com/valentinsg/busy-commerce/internal/handler"
	"github.com/valentinsg/busy-commerce/internal/repository"
	"github.com/valentinsg/busy-commerce/internal/storage"
	"github.com/valentinsg/busy-commerce/pkg/health"
	"github.com/valentinsg/busy-commerce/pkg/httpmiddleware"
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

	// Redis cache, disabled when no address is configured.
	var cc *cache.Cache
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.DatabasePingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	if cfg.RedisAddr != "" {
		rdb := cache.New(cfg.RedisAddr)
		defer rdb.Close()
		cc = cache.NewCache(rdb)
		healthSvc.AddReadinessCheck("redis", 2*time.Second, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Kafka publisher, disabled when no brokers are configured.
	var (
		orderEvents    order.Publisher
		campaignEvents newsletter.CampaignPublisher
	)
	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := pub.Close(); err != nil {
				lg.Warn("closing kafka publisher", zap.Error(err))
			}
		}()
		orderEvents = pub
		campaignEvents = pub
	}

	// Object storage for the photo archive.
	var store archive.ObjectStore
	if cfg.Storage.Bucket != "" {
		store, err = storage.New(ctx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
		})
		if err != nil {
			return errors.Wrap(err, "create storage client")
		}
	} else {
		lg.Warn("object storage not configured, archive uploads disabled")
		store = unconfiguredStore{}
	}

	// Repositories.
	productRepo := repository.NewProductRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	blogRepo := repository.NewBlogRepository(pool)
	newsletterRepo := repository.NewNewsletterRepository(pool)
	archiveRepo := repository.NewArchiveRepository(pool)
	blacktopRepo := repository.NewBlacktopRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	// Domain services.
	shipping := checkout.ShippingRule{
		FlatRate:      decimal.NewFromFloat(cfg.Shipping.FlatRate),
		FreeThreshold: decimal.NewFromFloat(cfg.Shipping.FreeThreshold),
	}
	couponValidator := coupon.NewRepoValidator(couponRepo)
	orderService := order.NewService(productRepo, couponValidator, orderRepo, orderEvents, shipping)
	newsletterService := newsletter.NewService(newsletterRepo, campaignEvents)
	archiveService := archive.NewService(archiveRepo, store, cc)

	// HTTP handlers.
	h := handler.NewHandler(handler.Config{APIKeyPepper: cfg.APIKeyPepper}, handler.Deps{
		Products:   productRepo,
		Coupons:    couponRepo,
		Validator:  couponValidator,
		Orders:     orderService,
		OrderRepo:  orderRepo,
		Customers:  customerRepo,
		Blogs:      blogRepo,
		Newsletter: newsletterService,
		Archive:    archiveService,
		Blacktop:   blacktopRepo,
		Cache:      cc,
		APIKeys:    apikeyRepo,
	})

	api := otelhttp.NewHandler(h.Routes(), "busy-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", api)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "X-API-Key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
				Skip: func(r *http.Request) bool {
					return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
				},
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Logging(),
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

// unconfiguredStore rejects every operation. It stands in for the S3 client
// when no bucket is configured so the rest of the API still serves.
type unconfiguredStore struct{}

var errStorageUnconfigured = errors.New("object storage is not configured")

func (unconfiguredStore) Upload(context.Context, string, string, io.Reader) error {
	return errStorageUnconfigured
}

func (unconfiguredStore) PresignGet(context.Context, string, time.Duration) (string, error) {
	return "", errStorageUnconfigured
}

func (unconfiguredStore) Delete(context.Context, ...string) error {
	return errStorageUnconfigured
}
