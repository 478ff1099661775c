package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"

	"github.com/floorworks/commerce/internal/money"
)

// StripeGateway implements Gateway over the Stripe SDK, grounded on the
// teacher's internal/billing.StripeProvider — narrowed to the one-time
// payment-intent and refund calls this spine needs.
type StripeGateway struct {
	webhookSecret string
}

// NewStripeGateway sets the package-global Stripe key and returns a
// gateway that verifies webhooks against webhookSecret.
func NewStripeGateway(apiKey, webhookSecret string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amount money.Amount, currency, email string, metadata map[string]string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount.Cents()),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if email != "" {
		params.ReceiptEmail = stripe.String(email)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", "", fmt.Errorf("payments: create payment intent: %w", err)
	}
	return pi.ID, pi.ClientSecret, nil
}

func (g *StripeGateway) RefundPayment(ctx context.Context, chargeReference string, amount money.Amount) (string, error) {
	params := &stripe.RefundParams{
		Charge: stripe.String(chargeReference),
		Amount: stripe.Int64(amount.Cents()),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("payments: refund payment: %w", err)
	}
	return r.ID, nil
}

// WebhookSecret exposes the configured signing secret to the webhook
// handler, which verifies the raw request body before dispatching.
func (g *StripeGateway) WebhookSecret() string { return g.webhookSecret }
