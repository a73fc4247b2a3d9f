package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/StreamFox/app/controllers"
	"github.com/ManuelReschke/StreamFox/internal/pkg/middleware"
	"github.com/ManuelReschke/StreamFox/internal/pkg/statistics"
)

const defaultRateLimit = 120

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	billing := h.deps.Billing

	// Stripe retries aggressively during incidents; the webhook is
	// registered before the limited group so it is never throttled.
	app.Post("/api/stripe/webhook", billing.HandleStripeWebhook)

	api := app.Group("/api", h.limiter())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	authController := controllers.NewAuthController(h.deps.Repos.User)
	api.Post("/auth/register", authController.HandleRegister)
	api.Post("/auth/login", authController.HandleLogin)
	api.Post("/auth/logout", authController.HandleLogout)

	// session required
	stats := statistics.NewService(h.deps.Repos, h.deps.StatsCache)
	videoController := controllers.NewVideoController(h.deps.Repos.Video, stats)
	watchController := controllers.NewWatchHistoryController(h.deps.Repos.Video, h.deps.Repos.WatchHistory)
	userController := controllers.NewUserController(h.deps.Repos.User)

	api.Post("/stripe/checkout", middleware.RequireAPISessionAuth, billing.HandleCheckout)
	api.Get("/billing/subscriptions", middleware.RequireAPISessionAuth, billing.HandleListSubscriptions)

	api.Get("/videos", middleware.RequireAPISessionAuth, videoController.HandleList)
	api.Get("/videos/:uuid", middleware.RequireAPISessionAuth, videoController.HandleGet)

	api.Post("/watch-history", middleware.RequireAPISessionAuth, watchController.HandleTrack)
	api.Get("/watch-history", middleware.RequireAPISessionAuth, watchController.HandleList)

	api.Get("/user", middleware.RequireAPISessionAuth, userController.HandleGetProfile)
	api.Patch("/user", middleware.RequireAPISessionAuth, userController.HandleUpdateProfile)

	// admin only
	adminController := controllers.NewAdminController(h.deps.Repos, stats)
	uploadController := controllers.NewUploadController(h.deps.Storage)

	api.Post("/videos", middleware.RequireAPIAdmin, videoController.HandleCreate)
	api.Patch("/videos/:uuid", middleware.RequireAPIAdmin, videoController.HandleUpdate)
	api.Delete("/videos/:uuid", middleware.RequireAPIAdmin, videoController.HandleDelete)
	api.Post("/upload", middleware.RequireAPIAdmin, uploadController.HandleUpload)

	admin := api.Group("/admin", middleware.RequireAPIAdmin)
	admin.Get("/overview", adminController.HandleOverview)
	admin.Get("/users", adminController.HandleUsers)
}

func (h ApiRouter) limiter() fiber.Handler {
	max := h.deps.RateLimit
	if max <= 0 {
		max = defaultRateLimit
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		Storage:    h.deps.LimiterStorage,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many requests",
			})
		},
	})
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
