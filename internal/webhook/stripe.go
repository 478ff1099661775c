// Package webhook implements the payment-gateway event plane and the
// background timers spec.md §4.10 names, reinterpreted for this
// domain's one-time-charge model (no subscriptions: spec.md treats
// Stripe purely as an opaque payment gateway). Grounded on the
// teacher's internal/handler/webhook/stripe.go signature-verify-then-
// dispatch shape, narrowed to the payment_intent/checkout.session
// event family this spine actually consumes.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/email"
	"github.com/floorworks/commerce/internal/jobs"
	"github.com/floorworks/commerce/internal/money"
	"github.com/floorworks/commerce/internal/payments"
	"github.com/floorworks/commerce/internal/store"
)

// StripeHandler verifies and dispatches incoming Stripe webhook events.
type StripeHandler struct {
	store   *store.Store
	gateway *payments.StripeGateway
	queue   *jobs.Queue
	log     zerolog.Logger
}

func NewStripeHandler(st *store.Store, gw *payments.StripeGateway, queue *jobs.Queue, log zerolog.Logger) *StripeHandler {
	return &StripeHandler{store: st, gateway: gw, queue: queue, log: log.With().Str("component", "webhook.stripe").Logger()}
}

// Handle processes one inbound Stripe webhook request. Registered at
// POST /webhooks/stripe per spec.md §6.
func (h *StripeHandler) Handle(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "error reading request body")
	}

	sig := c.Request().Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sig, h.gateway.WebhookSecret())
	if err != nil {
		h.log.Warn().Err(err).Msg("webhook signature verification failed")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	ctx := c.Request().Context()
	switch event.Type {
	case "payment_intent.succeeded":
		h.handlePaymentIntentSucceeded(ctx, event)
	case "payment_intent.payment_failed":
		h.handlePaymentIntentFailed(ctx, event)
	case "checkout.session.completed":
		h.handleCheckoutCompleted(ctx, event)
	case "checkout.session.expired":
		h.handleCheckoutExpired(ctx, event)
	default:
		h.log.Info().Str("event_type", string(event.Type)).Msg("unhandled stripe webhook event type")
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *StripeHandler) handlePaymentIntentSucceeded(ctx context.Context, event stripe.Event) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		h.log.Error().Err(err).Msg("failed to unmarshal payment_intent.succeeded")
		return
	}
	orderID, err := orderIDFromMetadata(pi.Metadata)
	if err != nil {
		h.log.Warn().Err(err).Str("payment_intent_id", pi.ID).Msg("payment intent has no order_id metadata, skipping")
		return
	}

	err = h.store.WithTx(ctx, func(ctx context.Context) error {
		order, err := h.store.LockOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		entry := &domain.PaymentLedgerEntry{
			OrderID:               order.ID,
			Type:                  domain.LedgerAdditionalCharge,
			Amount:                money.FromCents(pi.Amount),
			StripePaymentIntentID: pi.ID,
		}
		return h.store.InsertPaymentLedgerEntry(ctx, entry)
	})
	if err != nil {
		h.log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to record successful payment intent")
	}
}

func (h *StripeHandler) handlePaymentIntentFailed(ctx context.Context, event stripe.Event) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		h.log.Error().Err(err).Msg("failed to unmarshal payment_intent.payment_failed")
		return
	}
	h.log.Warn().Str("payment_intent_id", pi.ID).Msg("payment intent failed")
}

func (h *StripeHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.log.Error().Err(err).Msg("failed to unmarshal checkout.session.completed")
		return
	}
	requestID, err := paymentRequestIDFromMetadata(sess.Metadata)
	if err != nil {
		h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("checkout session has no payment_request_id metadata, skipping")
		return
	}

	var paymentIntentID string
	if sess.PaymentIntent != nil {
		paymentIntentID = sess.PaymentIntent.ID
	}

	err = h.store.WithTx(ctx, func(ctx context.Context) error {
		pr, err := h.store.GetPaymentRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if err := h.store.UpdatePaymentRequestStatus(ctx, requestID, "paid"); err != nil {
			return err
		}
		order, err := h.store.LockOrderForUpdate(ctx, pr.OrderID)
		if err != nil {
			return err
		}
		entry := &domain.PaymentLedgerEntry{
			OrderID:                 order.ID,
			Type:                    domain.LedgerAdditionalCharge,
			Amount:                  pr.Amount,
			StripePaymentIntentID:   paymentIntentID,
			StripeCheckoutSessionID: sess.ID,
			Reason:                  pr.Reason,
			CreatedBy:               pr.CreatedBy,
		}
		return h.store.InsertPaymentLedgerEntry(ctx, entry)
	})
	if err != nil {
		h.log.Error().Err(err).Str("payment_request_id", requestID.String()).Msg("failed to complete checkout session")
		return
	}

	h.queue.Enqueue(jobs.Task{
		Kind: jobs.KindRepNotification,
		RepNotification: email.RepNotificationEmail{
			Event: "payment received",
		},
	})
}

func (h *StripeHandler) handleCheckoutExpired(ctx context.Context, event stripe.Event) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		h.log.Error().Err(err).Msg("failed to unmarshal checkout.session.expired")
		return
	}
	requestID, err := paymentRequestIDFromMetadata(sess.Metadata)
	if err != nil {
		return
	}
	if err := h.store.UpdatePaymentRequestStatus(ctx, requestID, "expired"); err != nil {
		h.log.Error().Err(err).Str("payment_request_id", requestID.String()).Msg("failed to expire payment request")
	}
}

func orderIDFromMetadata(md map[string]string) (uuid.UUID, error) {
	return uuid.Parse(md["order_id"])
}

func paymentRequestIDFromMetadata(md map[string]string) (uuid.UUID, error) {
	return uuid.Parse(md["payment_request_id"])
}
