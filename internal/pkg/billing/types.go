package billing

import (
	"errors"
	"time"
)

// Stripe event types handled by the reconciler.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Provider subscription statuses. Only active grants access; the stored
// status column keeps whatever the provider sends.
const (
	ProviderStatusActive   = "active"
	ProviderStatusCanceled = "canceled"
)

// ErrMalformedEvent marks a correctly signed delivery whose object could
// not be decoded.
var ErrMalformedEvent = errors.New("malformed billing event")

// Event is a verified billing notification. The set of implementations is
// closed: CheckoutCompleted, SubscriptionUpdated, SubscriptionDeleted and
// UnhandledEvent.
type Event interface {
	EventID() string
	EventType() string
	isEvent()
}

// EventMeta is embedded in every Event.
type EventMeta struct {
	ID   string
	Type string
}

func (m EventMeta) EventID() string   { return m.ID }
func (m EventMeta) EventType() string { return m.Type }
func (EventMeta) isEvent()            {}

// CheckoutCompleted is a finished checkout session. UserRef is the local user
// id that Checkout stored in the session metadata.
type CheckoutCompleted struct {
	EventMeta
	UserRef         string
	SubscriptionRef string
	CustomerRef     string
}

// SubscriptionUpdated carries the new state of a subscription.
type SubscriptionUpdated struct {
	EventMeta
	Subscription ProviderSubscription
}

type SubscriptionDeleted struct {
	EventMeta
	SubscriptionRef string
}

// UnhandledEvent is any other verified event. It is acknowledged and ignored.
type UnhandledEvent struct {
	EventMeta
}

// ProviderSubscription is the provider-neutral view of an external subscription.
type ProviderSubscription struct {
	Ref                string
	CustomerRef        string
	PriceRef           string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

// CustomerParams describes a customer to create at the provider.
type CustomerParams struct {
	UserID uint
	Email  string
	Name   string
}

// CheckoutParams describes a subscription checkout session.
type CheckoutParams struct {
	UserID      uint
	CustomerRef string
	PriceRef    string
	SuccessURL  string
	CancelURL   string
}

// Outcome reports what HandleWebhook did with a verified delivery.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
)

// MetadataUserID is the checkout metadata key that carries the local user id.
const MetadataUserID = "userId"
