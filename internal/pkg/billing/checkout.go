package billing

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/metrics"
)

// Checkout starts subscription checkouts. A user gets at most one provider
// customer, created on the first checkout and reused afterwards.
type Checkout struct {
	repo     Repository
	provider Provider
	cfg      *Config
	metrics  *metrics.BillingMetrics
	log      zerolog.Logger
}

func NewCheckout(repo Repository, provider Provider, cfg *Config, m *metrics.BillingMetrics, log zerolog.Logger) *Checkout {
	if m == nil {
		m = metrics.Billing()
	}
	return &Checkout{
		repo:     repo,
		provider: provider,
		cfg:      cfg,
		metrics:  m,
		log:      log.With().Str("component", "billing_checkout").Logger(),
	}
}

// Start returns the provider's checkout URL for userID.
func (c *Checkout) Start(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		c.metrics.RecordCheckout("unauthorized")
		return "", apperror.AuthenticationRequired("Unauthorized")
	}

	user, err := c.repo.GetUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.metrics.RecordCheckout("user_missing")
		c.log.Error().Uint("user_id", userID).Str("kind", apperror.KindIntegrityViolation.String()).
			Msg("authenticated user has no local record")
		return "", apperror.Wrap(apperror.KindNotFound, "User not found", err)
	}
	if err != nil {
		c.metrics.RecordCheckout("error")
		return "", apperror.Wrap(apperror.KindInternal, "Internal server error", err)
	}

	customerRef, err := c.ensureCustomer(ctx, user)
	if err != nil {
		c.metrics.RecordCheckout("error")
		return "", err
	}

	url, err := c.provider.CreateCheckoutSession(ctx, CheckoutParams{
		UserID:      user.ID,
		CustomerRef: customerRef,
		PriceRef:    c.cfg.PriceID,
		SuccessURL:  c.cfg.SuccessURL(),
		CancelURL:   c.cfg.CancelURL(),
	})
	if err != nil {
		c.metrics.RecordCheckout("error")
		return "", upstream("Failed to create checkout session", err)
	}
	if url == "" {
		c.metrics.RecordCheckout("error")
		return "", apperror.New(apperror.KindUpstream, "Failed to create checkout session")
	}

	c.metrics.RecordCheckout("ok")
	return url, nil
}

func (c *Checkout) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.HasBillingCustomer() {
		return *user.BillingCustomerRef, nil
	}

	userID := user.ID
	ref, err := c.provider.CreateCustomer(ctx, CustomerParams{UserID: userID, Email: user.Email, Name: user.Name})
	if err != nil {
		return "", upstream("Failed to create billing customer", err)
	}

	written, err := c.repo.SetBillingCustomerRefIfEmpty(ctx, userID, ref)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "Internal server error", err)
	}
	if written {
		return ref, nil
	}

	// a concurrent checkout stored its customer first
	stored, err := c.repo.GetUser(ctx, userID)
	if err != nil {
		return "", apperror.FromDB(err, "User not found")
	}
	if !stored.HasBillingCustomer() {
		return "", apperror.New(apperror.KindInternal, "Billing customer could not be stored")
	}
	c.log.Warn().Uint("user_id", userID).Str("orphan_customer", ref).Msg("lost customer creation race, reusing stored customer")
	return *stored.BillingCustomerRef, nil
}

// upstream keeps an existing upstream error and wraps anything else.
func upstream(message string, err error) error {
	if apperror.IsKind(err, apperror.KindUpstream) {
		return err
	}
	return apperror.Wrap(apperror.KindUpstream, message, err)
}
