package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider against the Stripe API. Each instance
// owns its client; nothing is read from the package-level stripe.Key.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider builds a Stripe client whose HTTP calls are bounded by
// cfg.ProviderTimeout.
func NewStripeProvider(cfg *Config) *StripeProvider {
	backendCfg := &stripelib.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.ProviderTimeout},
		MaxNetworkRetries: stripelib.Int64(1),
	}
	backends := &stripelib.Backends{
		API:     stripelib.GetBackendWithConfig(stripelib.APIBackend, backendCfg),
		Connect: stripelib.GetBackendWithConfig(stripelib.ConnectBackend, backendCfg),
		Uploads: stripelib.GetBackendWithConfig(stripelib.UploadsBackend, backendCfg),
	}
	return &StripeProvider{api: client.New(strings.TrimSpace(cfg.SecretKey), backends)}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, in CustomerParams) (string, error) {
	params := &stripelib.CustomerParams{
		Params: stripelib.Params{Context: ctx},
		Email:  stripelib.String(in.Email),
	}
	if in.Name != "" {
		params.Name = stripelib.String(in.Name)
	}
	params.AddMetadata(MetadataUserID, strconv.FormatUint(uint64(in.UserID), 10))

	c, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutParams) (string, error) {
	params := &stripelib.CheckoutSessionParams{
		Params:             stripelib.Params{Context: ctx},
		Customer:           stripelib.String(in.CustomerRef),
		Mode:               stripelib.String(string(stripelib.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripelib.StringSlice([]string{"card"}),
		LineItems: []*stripelib.CheckoutSessionLineItemParams{
			{
				Price:    stripelib.String(in.PriceRef),
				Quantity: stripelib.Int64(1),
			},
		},
		SuccessURL: stripelib.String(in.SuccessURL),
		CancelURL:  stripelib.String(in.CancelURL),
		Metadata: map[string]string{
			MetadataUserID: strconv.FormatUint(uint64(in.UserID), 10),
		},
	}

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return s.URL, nil
}

func (p *StripeProvider) GetSubscription(ctx context.Context, ref string) (*ProviderSubscription, error) {
	s, err := p.api.Subscriptions.Get(ref, &stripelib.SubscriptionParams{Params: stripelib.Params{Context: ctx}})
	if err != nil {
		return nil, fmt.Errorf("stripe get subscription %s: %w", ref, err)
	}

	out := &ProviderSubscription{
		Ref:    s.ID,
		Status: string(s.Status),
	}
	if s.Customer != nil {
		out.CustomerRef = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		if item.Price != nil {
			out.PriceRef = item.Price.ID
		}
		out.CurrentPeriodStart = unixTime(item.CurrentPeriodStart)
		out.CurrentPeriodEnd = unixTime(item.CurrentPeriodEnd)
	}
	return out, nil
}

// StripeVerifier checks the Stripe-Signature header against the endpoint secret.
type StripeVerifier struct {
	secret string
}

func NewStripeVerifier(webhookSecret string) *StripeVerifier {
	return &StripeVerifier{secret: strings.TrimSpace(webhookSecret)}
}

func (v *StripeVerifier) Verify(payload []byte, signatureHeader string) (Event, error) {
	if v.secret == "" {
		return nil, errors.New("webhook secret not configured")
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, errors.New("missing Stripe signature")
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}
	return adaptStripeEvent(&ev)
}

// Minimal wire shapes. Expandable fields are decoded as ids; period bounds
// live on the subscription in older API versions and on its items in newer ones.
type stripeCheckoutSession struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	Customer          expandableID      `json:"customer"`
	Subscription      expandableID      `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

type stripeSubscription struct {
	ID                 string       `json:"id"`
	Customer           expandableID `json:"customer"`
	Status             string       `json:"status"`
	CurrentPeriodStart int64        `json:"current_period_start"`
	CurrentPeriodEnd   int64        `json:"current_period_end"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
			Price              struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// expandableID accepts either "id" or an expanded object {"id": ...}.
type expandableID string

func (e *expandableID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = expandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

func (s stripeSubscription) normalize() ProviderSubscription {
	out := ProviderSubscription{
		Ref:                s.ID,
		CustomerRef:        string(s.Customer),
		Status:             s.Status,
		CurrentPeriodStart: unixTime(s.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(s.CurrentPeriodEnd),
	}
	if len(s.Items.Data) > 0 {
		item := s.Items.Data[0]
		out.PriceRef = item.Price.ID
		if out.CurrentPeriodStart.IsZero() {
			out.CurrentPeriodStart = unixTime(item.CurrentPeriodStart)
		}
		if out.CurrentPeriodEnd.IsZero() {
			out.CurrentPeriodEnd = unixTime(item.CurrentPeriodEnd)
		}
	}
	return out
}

// adaptStripeEvent maps the Stripe wire event onto the internal variants.
// Unknown types become UnhandledEvent. A known type with an unreadable
// object fails with ErrMalformedEvent.
func adaptStripeEvent(ev *stripelib.Event) (Event, error) {
	meta := EventMeta{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return UnhandledEvent{EventMeta: meta}, nil
	}

	switch meta.Type {
	case EventCheckoutCompleted:
		var cs stripeCheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: decode checkout.session: %w", ErrMalformedEvent, err)
		}
		return CheckoutCompleted{
			EventMeta:       meta,
			UserRef:         strings.TrimSpace(cs.Metadata[MetadataUserID]),
			SubscriptionRef: string(cs.Subscription),
			CustomerRef:     string(cs.Customer),
		}, nil

	case EventSubscriptionUpdated:
		var s stripeSubscription
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%w: decode subscription: %w", ErrMalformedEvent, err)
		}
		return SubscriptionUpdated{EventMeta: meta, Subscription: s.normalize()}, nil

	case EventSubscriptionDeleted:
		var s stripeSubscription
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%w: decode subscription: %w", ErrMalformedEvent, err)
		}
		return SubscriptionDeleted{EventMeta: meta, SubscriptionRef: s.ID}, nil

	default:
		return UnhandledEvent{EventMeta: meta}, nil
	}
}

func unixTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
