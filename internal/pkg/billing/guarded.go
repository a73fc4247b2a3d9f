package billing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/ManuelReschke/StreamFox/internal/pkg/apperror"
	"github.com/ManuelReschke/StreamFox/internal/pkg/metrics"
)

// GuardedProvider wraps a Provider with a per-call deadline and a circuit
// breaker. Failures come back as apperror.KindUpstream.
type GuardedProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker[any]
	timeout time.Duration
	metrics *metrics.BillingMetrics
	log     zerolog.Logger
}

// GuardOptions configures NewGuardedProvider. Zero values get defaults.
type GuardOptions struct {
	Name             string
	Timeout          time.Duration
	FailureThreshold uint32
	Cooldown         time.Duration
	Metrics          *metrics.BillingMetrics
	Logger           zerolog.Logger
}

func NewGuardedProvider(inner Provider, opts GuardOptions) *GuardedProvider {
	if opts.Name == "" {
		opts.Name = "stripe"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = 30 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Billing()
	}

	g := &GuardedProvider{
		inner:   inner,
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		log:     opts.Logger,
	}

	threshold := opts.FailureThreshold
	settings := gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// the caller giving up is not a provider failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("billing provider circuit breaker state changed")
			g.metrics.SetBreakerState(name, float64(to))
		},
	}
	g.breaker = gobreaker.NewCircuitBreaker[any](settings)
	g.metrics.SetBreakerState(opts.Name, float64(gobreaker.StateClosed))

	return g
}

func (g *GuardedProvider) CreateCustomer(ctx context.Context, params CustomerParams) (string, error) {
	res, err := g.call(ctx, "create_customer", func(ctx context.Context) (any, error) {
		return g.inner.CreateCustomer(ctx, params)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (g *GuardedProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	res, err := g.call(ctx, "create_checkout_session", func(ctx context.Context) (any, error) {
		return g.inner.CreateCheckoutSession(ctx, params)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (g *GuardedProvider) GetSubscription(ctx context.Context, ref string) (*ProviderSubscription, error) {
	res, err := g.call(ctx, "get_subscription", func(ctx context.Context) (any, error) {
		return g.inner.GetSubscription(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return res.(*ProviderSubscription), nil
}

func (g *GuardedProvider) call(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	res, err := g.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	elapsed := time.Since(start).Seconds()

	if err == nil {
		g.metrics.RecordProviderCall(op, "ok", elapsed)
		return res, nil
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		g.metrics.RecordProviderCall(op, "rejected", elapsed)
		return nil, apperror.Wrap(apperror.KindUpstream, "Billing provider unavailable", err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		g.metrics.RecordProviderCall(op, "timeout", elapsed)
		return nil, apperror.Wrap(apperror.KindUpstream, "Billing provider timed out", err)
	default:
		g.metrics.RecordProviderCall(op, "error", elapsed)
		return nil, apperror.Wrap(apperror.KindUpstream, "Billing provider error", err)
	}
}
