// Package payments implements the append-only charge/refund ledger,
// spec.md §4.7. Grounded on the teacher's internal/billing.Provider
// interface shape, narrowed to the one-time-charge surface this spine
// actually needs (no subscriptions: spec.md treats Stripe purely as an
// opaque payment gateway).
package payments

import (
	"context"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
	"github.com/floorworks/commerce/internal/store"
)

// Gateway is the external payment-gateway collaborator, per spec.md §1's
// "Stripe SDK surface treated as an opaque payment gateway".
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amount money.Amount, currency, email string, metadata map[string]string) (intentID, clientSecret string, err error)
	RefundPayment(ctx context.Context, chargeReference string, amount money.Amount) (refundReference string, err error)
}

// Service records the payments ledger and derives amount_paid from it.
type Service struct {
	store   *store.Store
	gateway Gateway
}

func New(st *store.Store, gw Gateway) *Service {
	return &Service{store: st, gateway: gw}
}

// RecordCharge appends a charge/additional_charge row and returns the
// order's new amount_paid. Callers run this inside their own
// store.WithTx (e.g. the checkout or rep-quick-create transaction) when
// the charge accompanies an order insert.
func (s *Service) RecordCharge(ctx context.Context, orderID uuid.UUID, entryType domain.PaymentLedgerEntryType, amount money.Amount, stripePaymentIntentID, stripeChargeID string, createdBy *uuid.UUID) (money.Amount, error) {
	const op = "payments.RecordCharge"
	entry := &domain.PaymentLedgerEntry{
		OrderID:               orderID,
		Type:                  entryType,
		Amount:                amount,
		StripePaymentIntentID: stripePaymentIntentID,
		StripeChargeID:        stripeChargeID,
		CreatedBy:             createdBy,
	}
	if err := s.store.InsertPaymentLedgerEntry(ctx, entry); err != nil {
		return money.Zero, domain.Internal(err, op, "failed to record charge")
	}
	return s.AmountPaid(ctx, orderID)
}

// AmountPaid folds the ledger into the order's current amount_paid,
// invariant 2.
func (s *Service) AmountPaid(ctx context.Context, orderID uuid.UUID) (money.Amount, error) {
	entries, err := s.store.ListPaymentLedger(ctx, orderID)
	if err != nil {
		return money.Zero, domain.Internal(err, "payments.AmountPaid", "failed to load payment ledger")
	}
	return domain.DeriveAmountPaid(entries), nil
}

// CreateIntent exposes the gateway's payment-intent creation for flows
// that must start a Stripe payment themselves before any charge is
// recorded (the rep quick-create stripe branch, spec.md §4.5 flow 3).
// The ledger entry is written later, when the client confirms the
// intent and the webhook plane observes it succeed.
func (s *Service) CreateIntent(ctx context.Context, amount money.Amount, currency, email string, metadata map[string]string) (intentID, clientSecret string, err error) {
	return s.gateway.CreatePaymentIntent(ctx, amount, currency, email, metadata)
}

// MaxRefundable is the remaining refundable balance for an order, spec.md
// §4.5's refund precondition.
func (s *Service) MaxRefundable(ctx context.Context, orderID uuid.UUID) (money.Amount, error) {
	entries, err := s.store.ListPaymentLedger(ctx, orderID)
	if err != nil {
		return money.Zero, domain.Internal(err, "payments.MaxRefundable", "failed to load payment ledger")
	}
	return domain.MaxRefundable(entries), nil
}

// latestChargeReference returns the most recent charge's gateway
// reference, the one a refund is issued against.
func (s *Service) latestChargeReference(ctx context.Context, orderID uuid.UUID) (string, error) {
	entries, err := s.store.ListPaymentLedger(ctx, orderID)
	if err != nil {
		return "", domain.Internal(err, "payments.latestChargeReference", "failed to load payment ledger")
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if (e.Type == domain.LedgerCharge || e.Type == domain.LedgerAdditionalCharge) && e.StripeChargeID != "" {
			return e.StripeChargeID, nil
		}
	}
	return "", nil
}

// Refund implements spec.md §4.5's refund endpoint: validate against
// max_refundable, call the gateway, append a negative-amount refund row.
// Returns the new amount_paid. Does not touch order.status — the caller
// (internal/orders) owns the refunded-status transition.
func (s *Service) Refund(ctx context.Context, orderID uuid.UUID, amount money.Amount, reason string, createdBy *uuid.UUID) (money.Amount, error) {
	const op = "payments.Refund"

	chargeRef, err := s.latestChargeReference(ctx, orderID)
	if err != nil {
		return money.Zero, err
	}
	if chargeRef == "" {
		return money.Zero, domain.Invalid(op, "order has no gateway charge reference to refund against")
	}

	maxRefundable, err := s.MaxRefundable(ctx, orderID)
	if err != nil {
		return money.Zero, err
	}
	if !maxRefundable.IsPositive() {
		return money.Zero, domain.Invalid(op, "order has no refundable balance")
	}
	if amount.GreaterThan(maxRefundable) {
		return money.Zero, domain.Invalid(op, "refund amount exceeds the refundable balance")
	}

	refundRef, err := s.gateway.RefundPayment(ctx, chargeRef, amount)
	if err != nil {
		return money.Zero, domain.Upstream(err, op, "payment gateway refund failed")
	}

	entry := &domain.PaymentLedgerEntry{
		OrderID:        orderID,
		Type:           domain.LedgerRefund,
		Amount:         amount.Neg(),
		StripeChargeID: refundRef,
		Reason:         reason,
		CreatedBy:      createdBy,
	}
	if err := s.store.InsertPaymentLedgerEntry(ctx, entry); err != nil {
		return money.Zero, domain.Internal(err, op, "failed to record refund")
	}
	return s.AmountPaid(ctx, orderID)
}
