package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/internal/pkg/database"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/StreamFox/internal/pkg/metrics"
)

const testWebhookSecret = "whsec_test_secret"

type fakeProvider struct {
	mu            sync.Mutex
	customerCalls int
	sessions      []CheckoutParams
	subCalls      int
	subs          map[string]*ProviderSubscription

	customerErr error
	sessionErr  error
	subErr      error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{subs: map[string]*ProviderSubscription{}}
}

func (f *fakeProvider) CreateCustomer(ctx context.Context, params CustomerParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.customerErr != nil {
		return "", f.customerErr
	}
	f.customerCalls++
	return fmt.Sprintf("cus_%d_%d", params.UserID, f.customerCalls), nil
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return "", f.sessionErr
	}
	f.sessions = append(f.sessions, params)
	return fmt.Sprintf("https://checkout.stripe.test/c/%d", len(f.sessions)), nil
}

func (f *fakeProvider) GetSubscription(ctx context.Context, ref string) (*ProviderSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subCalls++
	if f.subErr != nil {
		return nil, f.subErr
	}
	sub, ok := f.subs[ref]
	if !ok {
		return nil, errors.New("no such subscription")
	}
	cp := *sub
	return &cp, nil
}

type testEnv struct {
	db         *gorm.DB
	repo       Repository
	provider   *fakeProvider
	reconciler *Reconciler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	repo := NewRepository(db)
	provider := newFakeProvider()
	m := metrics.NewBillingMetrics(nil)
	return &testEnv{
		db:         db,
		repo:       repo,
		provider:   provider,
		reconciler: NewReconciler(repo, provider, NewStripeVerifier(testWebhookSecret), m, zerolog.Nop()),
	}
}

func (e *testEnv) seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Viewer", Email: email, Password: "x", Role: models.ROLE_USER, SubscriptionStatus: entitlements.StatusNone}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) user(t *testing.T, id uint) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, e.db.First(&u, id).Error)
	return &u
}

func (e *testEnv) subscriptions(t *testing.T, ref string) []models.Subscription {
	t.Helper()
	var subs []models.Subscription
	require.NoError(t, e.db.Where("external_subscription_ref = ?", ref).Find(&subs).Error)
	return subs
}

func eventJSON(t *testing.T, id, eventType string, object map[string]any) []byte {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"id":     id,
		"object": "event",
		"type":   eventType,
		"data":   map[string]any{"object": object},
	})
	require.NoError(t, err)
	return b
}

func sign(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Header
}

func checkoutObject(userRef, subRef string) map[string]any {
	return map[string]any{
		"id":           "cs_test_1",
		"object":       "checkout.session",
		"mode":         "subscription",
		"customer":     "cus_1",
		"subscription": subRef,
		"metadata":     map[string]string{MetadataUserID: userRef},
	}
}

func subscriptionObject(ref, status string, start, end int64) map[string]any {
	return map[string]any{
		"id":                   ref,
		"object":               "subscription",
		"customer":             "cus_1",
		"status":               status,
		"current_period_start": start,
		"current_period_end":   end,
		"items": map[string]any{
			"data": []map[string]any{
				{"price": map[string]any{"id": "price_monthly"}},
			},
		},
	}
}
