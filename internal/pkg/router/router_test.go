package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/controllers"
	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/app/repository"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/billing"
	"github.com/ManuelReschke/StreamFox/internal/pkg/database"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/StreamFox/internal/pkg/session"
	"github.com/ManuelReschke/StreamFox/internal/pkg/storage"
)

type stubWebhooks struct{ calls int }

func (s *stubWebhooks) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (billing.Outcome, error) {
	s.calls++
	return billing.OutcomeApplied, nil
}

type stubCheckout struct{}

func (stubCheckout) Start(ctx context.Context, userID uint) (string, error) {
	return "https://checkout.stripe.test/c/1", nil
}

type stubSubscriptions struct{}

func (stubSubscriptions) ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.Subscription, error) {
	return []models.Subscription{}, nil
}

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	repos    *repository.Repositories
	webhooks *stubWebhooks
	cookie   string
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	store, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	webhooks := &stubWebhooks{}
	repos := repository.NewRepositories(db)
	deps := Dependencies{
		Repos:     repos,
		Sessions:  session.NewMemorySessionStore(),
		Billing:   controllers.NewBillingController(webhooks, stubCheckout{}, stubSubscriptions{}),
		Storage:   store,
		RateLimit: rateLimit,
	}

	app := fiber.New(fiber.Config{ErrorHandler: apperror.ErrorHandler})
	InstallRouter(app, deps)
	return &testServer{app: app, db: db, repos: repos, webhooks: webhooks}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		if c.Name == "streamfox_session" {
			s.cookie = c.Name + "=" + c.Value
		}
	}
	return resp
}

func (s *testServer) register(t *testing.T, email string) *models.User {
	t.Helper()
	resp := s.do(t, "POST", "/api/auth/register", map[string]string{"name": "Viewer", "email": email, "password": "secret123"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	user, err := s.repos.User.GetByEmail(email)
	require.NoError(t, err)
	return user
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t, 1000)

	for _, r := range []struct{ method, path string }{
		{"GET", "/api/videos"},
		{"GET", "/api/videos/abc"},
		{"GET", "/api/watch-history"},
		{"POST", "/api/watch-history"},
		{"GET", "/api/user"},
		{"POST", "/api/stripe/checkout"},
		{"GET", "/api/billing/subscriptions"},
		{"POST", "/api/videos"},
		{"GET", "/api/admin/overview"},
	} {
		resp := s.do(t, r.method, r.path, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "%s %s", r.method, r.path)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t, 1000)
	user := s.register(t, "viewer@example.com")

	resp := s.do(t, "POST", "/api/videos", map[string]string{"title": "x", "videoType": "LONG", "accessType": "FREE", "videoUrl": "/v.mp4"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp = s.do(t, "GET", "/api/admin/users", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// the role is read from the database on every request
	require.NoError(t, s.repos.User.SetRole(user.ID, models.ROLE_ADMIN))

	resp = s.do(t, "POST", "/api/videos", map[string]string{"title": "x", "videoType": "LONG", "accessType": "FREE", "videoUrl": "/v.mp4"})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp = s.do(t, "GET", "/api/admin/overview", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSubscriptionChangeAppliesOnNextRequest(t *testing.T) {
	s := newTestServer(t, 1000)
	user := s.register(t, "viewer@example.com")

	premium := &models.Video{Title: "premium-short", VideoType: entitlements.VideoShort, AccessType: entitlements.AccessPremium, VideoURL: "/p.mp4"}
	premium.NormalizeTrailer()
	require.NoError(t, s.db.Create(premium).Error)

	listShorts := func() []map[string]interface{} {
		resp := s.do(t, "GET", "/api/videos?type=SHORT", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		var out []map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return out
	}

	assert.Empty(t, listShorts())

	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("subscription_status", entitlements.StatusActive).Error)
	assert.Len(t, listShorts(), 1)

	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("subscription_status", entitlements.StatusCanceled).Error)
	assert.Empty(t, listShorts())
}

func TestLogoutEndsSession(t *testing.T) {
	s := newTestServer(t, 1000)
	s.register(t, "viewer@example.com")

	resp := s.do(t, "GET", "/api/user", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = s.do(t, "POST", "/api/auth/logout", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = s.do(t, "GET", "/api/user", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookIsNotRateLimited(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 5; i++ {
		resp := s.do(t, "POST", "/api/stripe/webhook", map[string]string{"id": "evt"})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 5, s.webhooks.calls)

	var last int
	for i := 0; i < 3; i++ {
		last = s.do(t, "POST", "/api/auth/login", map[string]string{"email": "a@example.com", "password": "x"}).StatusCode
	}
	assert.Equal(t, fiber.StatusTooManyRequests, last)
}
