package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/controllers"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/billing"
	"github.com/ManuelReschke/StreamFox/internal/pkg/cache"
	"github.com/ManuelReschke/StreamFox/internal/pkg/database"
	"github.com/ManuelReschke/StreamFox/internal/pkg/env"
	"github.com/ManuelReschke/StreamFox/internal/pkg/logger"
	"github.com/ManuelReschke/StreamFox/internal/pkg/metrics"
	"github.com/ManuelReschke/StreamFox/internal/pkg/oauth"
	"github.com/ManuelReschke/StreamFox/internal/pkg/router"
	"github.com/ManuelReschke/StreamFox/internal/pkg/session"
	"github.com/ManuelReschke/StreamFox/internal/pkg/storage"
)

const bodyLimit = 2 << 30 // 2 GiB, video uploads

func newServeCommand() *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := NewApplication(ctx, memory)
			if err != nil {
				return err
			}

			addr := fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Msg("starting http server")
				errCh <- app.Listen(addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Info().Msg("shutting down")
				return app.ShutdownWithTimeout(10 * time.Second)
			}
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", false, "Use in-memory SQLite, sessions and rate limiting (no MySQL or Redis)")
	return cmd
}

// NewApplication wires configuration, persistence, billing and routes into a
// ready fiber app.
func NewApplication(ctx context.Context, memory bool) (*fiber.App, error) {
	var (
		db   *gorm.DB
		deps router.Dependencies
		err  error
	)

	if memory {
		db, err = database.OpenInMemory()
		if err != nil {
			return nil, fmt.Errorf("open in-memory database: %w", err)
		}
		deps.Sessions = session.NewMemorySessionStore()
	} else {
		db, err = database.Connect(database.LoadConfig())
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		cache.SetupCache()
		deps.Sessions = session.NewSessionStore()
		deps.OAuthStorage = oauth.NewRedisStorage()
		deps.LimiterStorage = cache.NewFiberStorage(cache.DBLimiter)
		deps.StatsCache = cache.NewFiberStorage(cache.DBDefault)
	}
	database.DB = db
	repository.InitializeFactory(db)
	deps.Repos = repository.GetGlobalRepositories()
	deps.RateLimit = env.GetInt("API_RATE_LIMIT", 120)

	billingCfg, err := billing.LoadConfig()
	if err != nil {
		return nil, err
	}
	deps.Billing = newBillingController(db, billingCfg)

	storageCfg, err := storage.LoadConfig()
	if err != nil {
		return nil, err
	}
	deps.Storage, err = storage.New(ctx, storageCfg)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:      "StreamFox",
		BodyLimit:    bodyLimit,
		ErrorHandler: apperror.ErrorHandler,
	})

	// recovery and logging
	app.Use(recover.New(), fiberlogger.New())

	registerMetrics(app)

	// static uploads for the local backend
	if storageCfg.Backend == storage.BackendLocal {
		app.Static(storageCfg.PublicBaseURL, storageCfg.UploadDir, fiber.Static{
			ByteRange:     true,
			CacheDuration: 10 * time.Second,
			MaxAge:        604800, // 7 days
		})
	}

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app, deps)

	return app, nil
}

// newBillingController builds the Stripe client once and injects it into the
// reconciler and the checkout initiator.
func newBillingController(db *gorm.DB, cfg *billing.Config) *controllers.BillingController {
	m := metrics.Billing()
	provider := billing.NewGuardedProvider(billing.NewStripeProvider(cfg), billing.GuardOptions{
		Name:             "stripe",
		Timeout:          cfg.ProviderTimeout,
		FailureThreshold: cfg.BreakerFailures,
		Cooldown:         cfg.BreakerCooldown,
		Metrics:          m,
		Logger:           logger.Component("billing.provider"),
	})

	repo := billing.NewRepository(db)
	reconciler := billing.NewReconciler(repo, provider, billing.NewStripeVerifier(cfg.WebhookSecret), m, logger.Component("billing.reconciler"))
	checkout := billing.NewCheckout(repo, provider, cfg, m, logger.Component("billing.checkout"))

	return controllers.NewBillingController(reconciler, checkout, repo)
}

// registerMetrics mounts /metrics behind basic auth. Without both
// METRICS_USER and METRICS_PASSWORD the route stays unregistered.
func registerMetrics(app *fiber.App) bool {
	user := env.GetEnv("METRICS_USER", "")
	password := env.GetEnv("METRICS_PASSWORD", "")
	if user == "" || password == "" {
		log.Warn().Msg("METRICS_USER or METRICS_PASSWORD not set, /metrics disabled")
		return false
	}

	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{user: password},
	}), adaptor.HTTPHandler(promhttp.Handler()))
	return true
}
