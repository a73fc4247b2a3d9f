package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/database"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/StreamFox/internal/pkg/usercontext"
)

func newTestRepos(t *testing.T) (*gorm.DB, *repository.Repositories) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	return db, repository.NewRepositories(db)
}

// newTestApp returns an app whose requests all run as uc.
func newTestApp(uc usercontext.UserContext) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		usercontext.Set(c, uc)
		return c.Next()
	})
	return app
}

func viewer(id uint, status entitlements.SubscriptionStatus) usercontext.UserContext {
	return usercontext.UserContext{UserID: id, IsLoggedIn: true, SubscriptionStatus: status}
}

func admin(id uint) usercontext.UserContext {
	return usercontext.UserContext{UserID: id, IsLoggedIn: true, IsAdmin: true, SubscriptionStatus: entitlements.StatusNone}
}

func seedUser(t *testing.T, db *gorm.DB, email string, status entitlements.SubscriptionStatus) *models.User {
	t.Helper()
	u, err := models.CreateUser("Test User", email, "secret123")
	require.NoError(t, err)
	u.SubscriptionStatus = status
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedVideo(t *testing.T, db *gorm.DB, title string, vt entitlements.VideoType, at entitlements.AccessType) *models.Video {
	t.Helper()
	v := &models.Video{Title: title, VideoType: vt, AccessType: at, VideoURL: "/uploads/videos/" + title + ".mp4"}
	v.NormalizeTrailer()
	require.NoError(t, db.Create(v).Error)
	return v
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
