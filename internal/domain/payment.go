package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/money"
)

// PaymentLedgerEntryType distinguishes the append-only rows that compose
// an order's amount_paid, per spec.md invariant 2.
type PaymentLedgerEntryType string

const (
	LedgerCharge           PaymentLedgerEntryType = "charge"
	LedgerAdditionalCharge PaymentLedgerEntryType = "additional_charge"
	LedgerRefund           PaymentLedgerEntryType = "refund"
)

// PaymentLedgerEntry is one append-only row. amount_paid is always derived
// by summing entries, never stored as a mutable column.
type PaymentLedgerEntry struct {
	ID      uuid.UUID
	OrderID uuid.UUID

	Type   PaymentLedgerEntryType
	Amount money.Amount // positive for charge/additional_charge, negative for refund

	StripePaymentIntentID  string
	StripeChargeID         string
	StripeCheckoutSessionID string

	Reason    string
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

// SignedAmount returns the entry's contribution to amount_paid: positive
// for charges, negative for refunds.
func (e *PaymentLedgerEntry) SignedAmount() money.Amount {
	if e.Type == LedgerRefund {
		if e.Amount.IsNegative() {
			return e.Amount
		}
		return e.Amount.Neg()
	}
	return e.Amount
}

// DeriveAmountPaid sums a ledger into the order's amount_paid column,
// invariant 2.
func DeriveAmountPaid(entries []PaymentLedgerEntry) money.Amount {
	total := money.Zero
	for _, e := range entries {
		total = total.Add(e.SignedAmount())
	}
	return total
}

// MaxRefundable is the Open Question resolution recorded in DESIGN.md:
// sum every completed charge and additional charge, regardless of the
// gateway reference that produced it, then subtract refunds already
// issued.
func MaxRefundable(entries []PaymentLedgerEntry) money.Amount {
	charged := money.Zero
	refunded := money.Zero
	for _, e := range entries {
		switch e.Type {
		case LedgerCharge, LedgerAdditionalCharge:
			charged = charged.Add(e.Amount)
		case LedgerRefund:
			refunded = refunded.Add(e.Amount.Neg())
		}
	}
	remaining := charged.Sub(refunded)
	if remaining.IsNegative() {
		return money.Zero
	}
	return remaining
}

// PaymentRequest is the inbound shape for a charge/refund operation
// before it becomes a ledger entry; the gateway adapter fills in the
// Stripe identifiers after the call succeeds.
type PaymentRequest struct {
	OrderID   uuid.UUID
	Amount    money.Amount
	Reason    string
	CreatedBy *uuid.UUID
}
