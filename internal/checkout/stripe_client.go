package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v84"

	pkgstripe "github.com/jtorres-dev/storefront-backend/pkg/stripe"
)

// StripeSessionClient exposes the subset of Stripe operations the checkout
// service needs.
type StripeSessionClient interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
}

type stripeClientWrapper struct {
	api *stripe.Client
}

// NewStripeSessionClient wraps the shared Stripe client so the checkout
// service can be tested against a stub.
func NewStripeSessionClient(client *pkgstripe.Client) StripeSessionClient {
	if client == nil || client.API() == nil {
		return nil
	}
	return &stripeClientWrapper{api: client.API()}
}

func (w *stripeClientWrapper) CreateSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	return w.api.V1CheckoutSessions.Create(ctx, params)
}
