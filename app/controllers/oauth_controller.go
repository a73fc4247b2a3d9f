package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/markbates/goth"
	"github.com/rs/zerolog/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
)

// OAuthController links social logins to local accounts
type OAuthController struct {
	users repository.UserRepository
}

func NewOAuthController(users repository.UserRepository) *OAuthController {
	return &OAuthController{users: users}
}

// HandleBegin redirects to the provider's consent page.
func (oc *OAuthController) HandleBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleCallback completes the provider flow and logs the user in
func (oc *OAuthController) HandleCallback(c *fiber.Ctx) error {
	gu, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Warn().Err(err).Str("provider", c.Params("provider")).Msg("oauth callback failed")
		return apperror.Respond(c, apperror.AuthenticationRequired("OAuth login failed"))
	}

	user, err := oc.resolveUser(gu)
	if err != nil {
		return apperror.Respond(c, err)
	}

	if err := startSession(c, oc.users, user); err != nil {
		return apperror.Respond(c, err)
	}
	return c.Redirect("/home", fiber.StatusSeeOther)
}

// resolveUser finds the linked account, falls back to an email match and
// otherwise creates a new user.
func (oc *OAuthController) resolveUser(gu goth.User) (*models.User, error) {
	pa, err := oc.users.GetProviderAccount(gu.Provider, gu.UserID)
	if err == nil {
		user, err := oc.users.GetByID(pa.UserID)
		if err != nil {
			return nil, apperror.FromDB(err, "Linked user not found")
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Wrap(apperror.KindInternal, "OAuth login failed", err)
	}

	var user *models.User
	if gu.Email != "" {
		existing, err := oc.users.GetByEmail(gu.Email)
		switch {
		case err == nil:
			user = existing
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, apperror.Wrap(apperror.KindInternal, "OAuth login failed", err)
		}
	}

	if user == nil {
		// the placeholder password is never shown and cannot be used to log in
		hash, err := models.HashPassword(fmt.Sprintf("oauth_%d", time.Now().UnixNano()))
		if err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, "OAuth login failed", err)
		}
		email := strings.ToLower(gu.Email)
		if email == "" {
			email = fmt.Sprintf("%s_%s@%s.oauth.local", gu.Provider, gu.UserID, gu.Provider)
		}
		user = &models.User{
			Name:               firstNonEmpty(gu.Name, gu.NickName, gu.Email, "User"),
			Email:              email,
			Password:           hash,
			Role:               models.ROLE_USER,
			AvatarURL:          gu.AvatarURL,
			SubscriptionStatus: entitlements.StatusNone,
		}
		if err := oc.users.Create(user); err != nil {
			return nil, apperror.Wrap(apperror.KindInternal, "OAuth login failed", err)
		}
	}

	link := &models.ProviderAccount{UserID: user.ID, Provider: gu.Provider, ProviderUserID: gu.UserID}
	if err := oc.users.LinkProviderAccount(link); err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "OAuth login failed", err)
	}
	return user, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
