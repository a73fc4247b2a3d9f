package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/StreamFox/app/controllers"
	"github.com/ManuelReschke/StreamFox/internal/pkg/middleware"
	"github.com/ManuelReschke/StreamFox/internal/pkg/oauth"
)

type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init oauth providers
	oauth.Setup(h.deps.OAuthStorage)

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.NewUserContextMiddleware(h.deps.Repos.User, h.deps.Sessions))

	oauthController := controllers.NewOAuthController(h.deps.Repos.User)
	auth := app.Group("/auth")
	auth.Get("/:provider", oauthController.HandleBegin)
	auth.Get("/:provider/callback", oauthController.HandleCallback)
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}
