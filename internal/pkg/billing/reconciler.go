package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/entitlements"
	"github.com/ManuelReschke/StreamFox/internal/pkg/metrics"
)

// Reconciler applies verified billing events to local user and
// subscription state. Every effect writes absolute values, so redelivery
// converges. Out-of-order deliveries for one subscription resolve
// last-write-wins.
type Reconciler struct {
	repo     Repository
	provider Provider
	verifier Verifier
	metrics  *metrics.BillingMetrics
	log      zerolog.Logger
}

func NewReconciler(repo Repository, provider Provider, verifier Verifier, m *metrics.BillingMetrics, log zerolog.Logger) *Reconciler {
	if m == nil {
		m = metrics.Billing()
	}
	return &Reconciler{
		repo:     repo,
		provider: provider,
		verifier: verifier,
		metrics:  m,
		log:      log.With().Str("component", "billing_reconciler").Logger(),
	}
}

// HandleWebhook verifies a raw delivery, records it for deduplication and
// applies it. An invalid signature returns KindInvalidSignature and writes
// nothing. Undecodable events and processing failures return KindInternal
// so the provider retries.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (Outcome, error) {
	ev, err := r.verifier.Verify(payload, signatureHeader)
	if errors.Is(err, ErrMalformedEvent) {
		r.metrics.RecordWebhookEvent("unknown", "malformed")
		r.log.Error().Err(err).Msg("signed webhook delivery could not be decoded")
		return "", apperror.Wrap(apperror.KindInternal, "Webhook processing failed", err)
	}
	if err != nil {
		r.metrics.RecordWebhookEvent("unknown", "invalid_signature")
		r.log.Warn().Err(err).Msg("rejected webhook delivery")
		return "", apperror.Wrap(apperror.KindInvalidSignature, "Invalid signature", err)
	}

	eventID := ev.EventID()
	if eventID == "" {
		sum := sha256.Sum256(payload)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	created, stored, err := r.repo.CreateWebhookEventIfNotExists(ctx, &models.BillingWebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: eventID,
		EventType:       ev.EventType(),
		PayloadJSON:     string(payload),
	})
	if err != nil {
		r.metrics.RecordWebhookEvent(ev.EventType(), "error")
		return "", apperror.Wrap(apperror.KindInternal, "Webhook processing failed", fmt.Errorf("record webhook event: %w", err))
	}
	if !created && stored.Succeeded() {
		r.metrics.RecordWebhookEvent(ev.EventType(), string(OutcomeDuplicate))
		r.log.Info().Str("event_id", eventID).Str("type", ev.EventType()).Msg("duplicate webhook delivery skipped")
		return OutcomeDuplicate, nil
	}

	outcome, applyErr := r.Reconcile(ctx, ev)

	processingError := ""
	if applyErr != nil {
		processingError = applyErr.Error()
	}
	if err := r.repo.MarkWebhookProcessed(ctx, stored.ID, processingError); err != nil {
		// the next delivery reapplies the event, which is safe
		r.log.Warn().Err(err).Str("event_id", eventID).Msg("failed to mark webhook event processed")
	}

	if applyErr != nil {
		r.metrics.RecordWebhookEvent(ev.EventType(), "error")
		r.log.Error().Err(applyErr).
			Str("event_id", eventID).
			Str("type", ev.EventType()).
			Msg("billing webhook processing failed")
		return "", apperror.Wrap(apperror.KindInternal, "Webhook processing failed", applyErr)
	}

	r.metrics.RecordWebhookEvent(ev.EventType(), string(outcome))
	return outcome, nil
}

// Reconcile applies one already-verified event.
func (r *Reconciler) Reconcile(ctx context.Context, ev Event) (Outcome, error) {
	switch e := ev.(type) {
	case CheckoutCompleted:
		return r.applyCheckoutCompleted(ctx, e)
	case SubscriptionUpdated:
		return r.applySubscriptionUpdated(ctx, e)
	case SubscriptionDeleted:
		return r.applySubscriptionDeleted(ctx, e)
	case UnhandledEvent:
		r.log.Debug().Str("event_id", e.ID).Str("type", e.Type).Msg("webhook ignored (unhandled type)")
		return OutcomeIgnored, nil
	default:
		return "", fmt.Errorf("unsupported billing event %T", ev)
	}
}

func (r *Reconciler) applyCheckoutCompleted(ctx context.Context, e CheckoutCompleted) (Outcome, error) {
	if e.UserRef == "" || e.SubscriptionRef == "" {
		r.log.Info().Str("event_id", e.ID).Msg("checkout without user or subscription ignored")
		return OutcomeIgnored, nil
	}
	userID, err := strconv.ParseUint(e.UserRef, 10, 64)
	if err != nil || userID == 0 {
		r.log.Warn().Str("event_id", e.ID).Str("user_ref", e.UserRef).Msg("checkout with malformed user id ignored")
		return OutcomeIgnored, nil
	}

	// provider call stays outside the transaction
	sub, err := r.provider.GetSubscription(ctx, e.SubscriptionRef)
	if err != nil {
		return "", fmt.Errorf("fetch subscription %s: %w", e.SubscriptionRef, err)
	}

	err = r.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetUser(ctx, uint(userID)); err != nil {
			return fmt.Errorf("load user %d: %w", userID, err)
		}
		if err := tx.SetUserSubscriptionStatus(ctx, uint(userID), entitlements.StatusActive); err != nil {
			return err
		}

		now := time.Now().UTC()
		return tx.UpsertSubscription(ctx, &models.Subscription{
			UserID:                  uint(userID),
			ExternalSubscriptionRef: e.SubscriptionRef,
			ExternalPriceRef:        sub.PriceRef,
			Status:                  sub.Status,
			CurrentPeriodStart:      orDefault(sub.CurrentPeriodStart, now),
			CurrentPeriodEnd:        orDefault(sub.CurrentPeriodEnd, now),
		})
	})
	if err != nil {
		return "", err
	}

	r.log.Info().Uint64("user_id", userID).Str("subscription", e.SubscriptionRef).Msg("subscription activated")
	return OutcomeApplied, nil
}

func (r *Reconciler) applySubscriptionUpdated(ctx context.Context, e SubscriptionUpdated) (Outcome, error) {
	if e.Subscription.Ref == "" {
		return OutcomeIgnored, nil
	}

	outcome := OutcomeApplied
	err := r.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.UpdateSubscriptionsByRef(ctx, e.Subscription); err != nil {
			return err
		}
		row, err := tx.GetSubscriptionByRef(ctx, e.Subscription.Ref)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome = OutcomeIgnored
			return nil
		}
		if err != nil {
			return err
		}
		return tx.SetUserSubscriptionStatus(ctx, row.UserID, statusFromProvider(e.Subscription.Status))
	})
	if err != nil {
		return "", err
	}

	if outcome == OutcomeIgnored {
		r.log.Info().Str("subscription", e.Subscription.Ref).Msg("update for unknown subscription ignored")
	}
	return outcome, nil
}

func (r *Reconciler) applySubscriptionDeleted(ctx context.Context, e SubscriptionDeleted) (Outcome, error) {
	if e.SubscriptionRef == "" {
		return OutcomeIgnored, nil
	}

	outcome := OutcomeApplied
	err := r.repo.Transaction(ctx, func(tx Repository) error {
		row, err := tx.GetSubscriptionByRef(ctx, e.SubscriptionRef)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			outcome = OutcomeIgnored
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.SetUserSubscriptionStatus(ctx, row.UserID, entitlements.StatusCanceled); err != nil {
			return err
		}
		return tx.SetSubscriptionStatus(ctx, row.ID, ProviderStatusCanceled)
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// statusFromProvider maps the provider vocabulary onto the user status.
// Only "active" entitles. Everything else, past_due included, is CANCELED.
func statusFromProvider(status string) entitlements.SubscriptionStatus {
	if status == ProviderStatusActive {
		return entitlements.StatusActive
	}
	return entitlements.StatusCanceled
}

func orDefault(t, def time.Time) time.Time {
	if t.IsZero() {
		return def
	}
	return t
}
