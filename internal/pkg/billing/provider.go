package billing

import "context"

// Provider is the outbound boundary to the billing system.
type Provider interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)
	GetSubscription(ctx context.Context, ref string) (*ProviderSubscription, error)
}

// Verifier authenticates a raw webhook delivery and converts it to an Event.
type Verifier interface {
	Verify(payload []byte, signatureHeader string) (Event, error)
}
