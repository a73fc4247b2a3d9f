package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/StreamFox/app/controllers"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/storage"
)

type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are built once at startup and shared by the routers.
type Dependencies struct {
	Repos    *repository.Repositories
	Sessions *session.Store
	Billing  *controllers.BillingController
	Storage  storage.Store

	// Nil storages fall back to fiber's in-memory implementations, a nil
	// StatsCache disables caching of the admin overview.
	LimiterStorage fiber.Storage
	OAuthStorage   fiber.Storage
	StatsCache     fiber.Storage

	// RateLimit is the number of /api requests per client and minute.
	RateLimit int
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	// Install HttpRouter first to initialize oauth providers and the global
	// UserContext middleware. Then register API routes which depend on that
	// middleware.
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
