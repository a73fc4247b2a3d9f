package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/usercontext"
)

// UserController exposes the caller's own profile
type UserController struct {
	users repository.UserRepository
}

func NewUserController(users repository.UserRepository) *UserController {
	return &UserController{users: users}
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Password string  `json:"password"`
}

// HandleGetProfile returns the account of the logged-in user.
func (uc *UserController) HandleGetProfile(c *fiber.Ctx) error {
	user, err := uc.users.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return apperror.Respond(c, apperror.FromDB(err, "User not found"))
	}
	return c.JSON(user)
}

// HandleUpdateProfile changes name and/or password. Role, email and billing
// state are not writable here.
func (uc *UserController) HandleUpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.Validation("invalid request body"))
	}

	var update repository.ProfileUpdate
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if len(name) < 2 || len(name) > 150 {
			return apperror.Respond(c, apperror.Validation("name must be between 2 and 150 characters"))
		}
		update.Name = &name
	}
	if req.Password != "" {
		if len(req.Password) < 6 {
			return apperror.Respond(c, apperror.Validation("password must be at least 6 characters"))
		}
		hash, err := models.HashPassword(req.Password)
		if err != nil {
			return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Failed to update profile", err))
		}
		update.PasswordHash = &hash
	}

	userID := usercontext.GetUserID(c)
	if err := uc.users.UpdateProfile(userID, update); err != nil {
		return apperror.Respond(c, apperror.FromDB(err, "User not found"))
	}

	user, err := uc.users.GetByID(userID)
	if err != nil {
		return apperror.Respond(c, apperror.FromDB(err, "User not found"))
	}
	return c.JSON(user)
}
