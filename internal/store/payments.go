package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

// ListPaymentLedger loads the append-only ledger for an order, newest
// last, so callers can fold it into amount_paid/max_refundable.
func (s *Store) ListPaymentLedger(ctx context.Context, orderID uuid.UUID) ([]domain.PaymentLedgerEntry, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT id, order_id, type, amount, stripe_payment_intent_id, stripe_charge_id,
		       stripe_checkout_session_id, reason, created_by, created_at
		FROM payment_ledger WHERE order_id=$1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("store: list payment ledger: %w", err)
	}
	defer rows.Close()

	var entries []domain.PaymentLedgerEntry
	for rows.Next() {
		var e domain.PaymentLedgerEntry
		var amount decimal.Decimal
		if err := rows.Scan(
			&e.ID, &e.OrderID, &e.Type, &amount, &e.StripePaymentIntentID, &e.StripeChargeID,
			&e.StripeCheckoutSessionID, &e.Reason, &e.CreatedBy, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan payment ledger entry: %w", err)
		}
		e.Amount = money.FromDecimal(amount)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertPaymentLedgerEntry appends a ledger row. Ledger rows are never
// updated or deleted once written.
func (s *Store) InsertPaymentLedgerEntry(ctx context.Context, e *domain.PaymentLedgerEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO payment_ledger (
			id, order_id, type, amount, stripe_payment_intent_id, stripe_charge_id,
			stripe_checkout_session_id, reason, created_by, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now())`,
		e.ID, e.OrderID, e.Type, e.Amount.Decimal(), e.StripePaymentIntentID, e.StripeChargeID,
		e.StripeCheckoutSessionID, e.Reason, e.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("store: insert payment ledger entry: %w", err)
	}
	return nil
}

// GetPaymentRequest reads a pending balance-due payment link by id.
func (s *Store) GetPaymentRequest(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT order_id, amount, reason, created_by FROM payment_requests WHERE id=$1`, id)
	var pr domain.PaymentRequest
	var amount decimal.Decimal
	if err := row.Scan(&pr.OrderID, &amount, &pr.Reason, &pr.CreatedBy); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetPaymentRequest", "payment_request", id.String())
		}
		return nil, fmt.Errorf("store: scan payment request: %w", err)
	}
	pr.Amount = money.FromDecimal(amount)
	return &pr, nil
}

// InsertPaymentRequest creates a pending balance-due link.
func (s *Store) InsertPaymentRequest(ctx context.Context, pr *domain.PaymentRequest) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO payment_requests (id, order_id, amount, reason, created_by, status, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,'pending',now(), now() + interval '7 days')`,
		id, pr.OrderID, pr.Amount.Decimal(), pr.Reason, pr.CreatedBy,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store: insert payment request: %w", err)
	}
	return id, nil
}

// UpdatePaymentRequestStatus transitions a payment-request row, driven
// by webhook events (checkout session completed/expired), spec.md §4.10.
func (s *Store) UpdatePaymentRequestStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := s.q(ctx).Exec(ctx, `UPDATE payment_requests SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return fmt.Errorf("store: update payment request status: %w", err)
	}
	return nil
}
