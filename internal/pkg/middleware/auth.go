package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/usercontext"
)

// RequireAPISessionAuth ensures a logged-in session for API routes and returns JSON 401 instead of redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return apperror.Respond(c, apperror.AuthenticationRequired("login required"))
	}
	return c.Next()
}

// RequireAPIAdmin ensures a logged-in admin: 401 without a session, 403 for other roles.
func RequireAPIAdmin(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return apperror.Respond(c, apperror.AuthenticationRequired("login required"))
	}
	if !uc.IsAdmin {
		return apperror.Respond(c, apperror.AuthorizationDenied("admin role required"))
	}
	return c.Next()
}
