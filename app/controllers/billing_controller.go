package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/StreamFox/app/models"
	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/billing"
	"github.com/ManuelReschke/StreamFox/internal/pkg/usercontext"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	webhookTimeout        = 15 * time.Second
	checkoutTimeout       = 20 * time.Second
)

// WebhookProcessor verifies and applies a signed provider notification.
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (billing.Outcome, error)
}

// CheckoutStarter opens a hosted checkout for a user.
type CheckoutStarter interface {
	Start(ctx context.Context, userID uint) (string, error)
}

// SubscriptionLister reads a user's billing history.
type SubscriptionLister interface {
	ListSubscriptionsByUser(ctx context.Context, userID uint) ([]models.Subscription, error)
}

// BillingController handles the Stripe checkout and webhook endpoints
type BillingController struct {
	webhooks      WebhookProcessor
	checkout      CheckoutStarter
	subscriptions SubscriptionLister
}

// NewBillingController wires the billing components into HTTP handlers
func NewBillingController(webhooks WebhookProcessor, checkout CheckoutStarter, subscriptions SubscriptionLister) *BillingController {
	return &BillingController{
		webhooks:      webhooks,
		checkout:      checkout,
		subscriptions: subscriptions,
	}
}

// HandleStripeWebhook acknowledges a delivery with 200 once it is applied or
// known. 400 means the signature did not verify, 500 asks Stripe to retry.
func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	// fasthttp reuses the body buffer after the handler returns
	payload := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get(stripeSignatureHeader)

	ctx, cancel := context.WithTimeout(c.UserContext(), webhookTimeout)
	defer cancel()

	outcome, err := bc.webhooks.HandleWebhook(ctx, payload, signature)
	if err != nil {
		return apperror.Respond(c, err)
	}

	resp := fiber.Map{"received": true}
	switch outcome {
	case billing.OutcomeDuplicate:
		resp["duplicate"] = true
	case billing.OutcomeIgnored:
		resp["ignored"] = true
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandleCheckout starts a subscription checkout for the logged-in user and
// returns the hosted checkout URL.
func (bc *BillingController) HandleCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ctx, cancel := context.WithTimeout(c.UserContext(), checkoutTimeout)
	defer cancel()

	url, err := bc.checkout.Start(ctx, userCtx.UserID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleListSubscriptions returns the caller's subscription rows, newest first.
func (bc *BillingController) HandleListSubscriptions(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return apperror.Respond(c, apperror.AuthenticationRequired("login required"))
	}

	subs, err := bc.subscriptions.ListSubscriptionsByUser(c.UserContext(), userCtx.UserID)
	if err != nil {
		return apperror.Respond(c, apperror.Wrap(apperror.KindInternal, "Failed to load subscriptions", err))
	}
	return c.JSON(fiber.Map{
		"subscriptionStatus": userCtx.SubscriptionStatus,
		"subscriptions":      subs,
	})
}
