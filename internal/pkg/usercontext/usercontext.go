package usercontext

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

// UserContext represents the complete user context for a request. It is
// built from the user row on every request, so SubscriptionStatus is never
// older than the request.
type UserContext struct {
	UserID             uint                            `json:"user_id"`
	Username           string                          `json:"username"`
	Email              string                          `json:"email"`
	IsLoggedIn         bool                            `json:"is_logged_in"`
	IsAdmin            bool                            `json:"is_admin"`
	SubscriptionStatus entitlements.SubscriptionStatus `json:"subscription_status"`
}

// Anonymous is the context of a request without a valid session.
func Anonymous() UserContext {
	return UserContext{SubscriptionStatus: entitlements.StatusNone}
}

func Set(c *fiber.Ctx, uc UserContext) {
	c.Locals(localsKey, uc)
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if uc, ok := c.Locals(localsKey).(UserContext); ok {
		return uc
	}
	return Anonymous()
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin checks if the current user is an admin
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).IsAdmin
}

// GetUserID returns the current user's ID, or 0 if not logged in
func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}

// GetSubscriptionStatus returns the caller's status, NONE for anonymous requests.
func GetSubscriptionStatus(c *fiber.Ctx) entitlements.SubscriptionStatus {
	return GetUserContext(c).SubscriptionStatus
}
