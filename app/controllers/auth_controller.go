package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/session"
	"github.com/ManuelReschke/StreamFox/internal/pkg/usercontext"
)

// AuthController handles credential registration, login and logout
type AuthController struct {
	users repository.UserRepository
}

func NewAuthController(users repository.UserRepository) *AuthController {
	return &AuthController{users: users}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return apperror.Respond(c, validationError(err))
	}

	if _, err := ac.users.GetByEmail(user.Email); err == nil {
		return apperror.Respond(c, apperror.Validation("Email already registered"))
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Registration failed", err))
	}

	if err := ac.users.Create(user); err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Registration failed", err))
	}

	if err := startSession(c, ac.users, user); err != nil {
		return apperror.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// HandleLogin checks the credentials and starts a session. Failures share
// one message so the endpoint does not reveal which emails exist.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}

	user, err := ac.users.GetByEmail(req.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Login failed", err))
		}
		return apperror.Respond(c, apperror.AuthenticationRequired("Invalid email or password"))
	}
	if !user.CheckPassword(req.Password) {
		return apperror.Respond(c, apperror.AuthenticationRequired("Invalid email or password"))
	}

	if err := startSession(c, ac.users, user); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(user)
}

func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Logout failed", err))
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// startSession rotates the session id and binds it to the user.
func startSession(c *fiber.Ctx, users repository.UserRepository, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return apperror.Wrap(apperror.KindInternal, "Session init failed", err)
	}
	if err := sess.Regenerate(); err != nil {
		return apperror.Wrap(apperror.KindInternal, "Session init failed", err)
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	if err := sess.Save(); err != nil {
		return apperror.Wrap(apperror.KindInternal, "Session save failed", err)
	}

	if err := users.TouchLastLogin(user.ID, time.Now()); err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to update last login")
	}
	return nil
}
