package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/usercontext"
)

// NewUserContextMiddleware sets up the user context for every request. The
// user row is loaded on each request so role and subscription changes apply
// immediately.
func NewUserContextMiddleware(users repository.UserRepository, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// goth keeps its own session on /auth/*
		if strings.HasPrefix(c.Path(), "/auth/") {
			usercontext.Set(c, usercontext.Anonymous())
			return c.Next()
		}

		usercontext.Set(c, usercontext.Anonymous())

		sess, err := store.Get(c)
		if err != nil {
			return c.Next()
		}
		userID, ok := sess.Get(usercontext.KeyUserID).(uint)
		if !ok || userID == 0 {
			return c.Next()
		}

		user, err := users.GetByID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// account removed while the session was alive
				_ = sess.Destroy()
			} else {
				log.Error().Err(err).Uint("user_id", userID).Msg("failed to load session user")
			}
			return c.Next()
		}

		usercontext.Set(c, FromUser(user))
		return c.Next()
	}
}

// FromUser builds the request context for a loaded user.
func FromUser(user *models.User) usercontext.UserContext {
	return usercontext.UserContext{
		UserID:             user.ID,
		Username:           user.Name,
		Email:              user.Email,
		IsLoggedIn:         true,
		IsAdmin:            user.IsAdmin(),
		SubscriptionStatus: user.EffectiveSubscriptionStatus(),
	}
}
