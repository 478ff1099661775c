// Package pricing implements the promo-code validation pipeline and the
// trade-tier price transform, spec.md §4.3. Grounded on the teacher's
// internal/tax/tax.go Calculator/Result interface shape, adapted to a
// single orchestration function over *store.Store rather than a
// pluggable provider — the promo engine has exactly one implementation.
package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
	"github.com/floorworks/commerce/internal/store"
)

// Service evaluates promo codes and trade-tier price transforms against
// the store.
type Service struct {
	store *store.Store
}

func New(st *store.Store) *Service {
	return &Service{store: st}
}

// PromoResult is the outcome of a successful promo validation:
// eligible_subtotal is exposed separately from discount_amount because
// callers need both to record a PromoCodeUsage and to log the
// order-level activity entry.
type PromoResult struct {
	Promo            *domain.PromoCode
	DiscountAmount   money.Amount
	EligibleSubtotal money.Amount
}

// CalculatePromoDiscount implements spec.md §4.3's six-step pipeline,
// short-circuiting on the first failing step. ctx should carry an
// in-flight transaction (via store.WithTx) when the caller intends to
// also record the usage, so the usage-count checks and the eventual
// InsertPromoCodeUsage see a consistent snapshot.
func (s *Service) CalculatePromoDiscount(ctx context.Context, code string, items []domain.EligibilityItem, email string) (*PromoResult, error) {
	const op = "pricing.CalculatePromoDiscount"

	promo, err := s.store.GetPromoCodeByCode(ctx, code)
	if err != nil {
		return nil, domain.Invalid(op, "promo code not found")
	}

	if !promo.IsActiveAt(time.Now()) {
		return nil, domain.Invalid(op, "promo code is inactive or expired")
	}

	if promo.MaxUses != nil {
		n, err := s.store.CountPromoUsagesWithOrder(ctx, promo.ID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to count promo usages")
		}
		if n >= *promo.MaxUses {
			return nil, domain.Invalid(op, "promo code has reached its usage limit")
		}
	}

	email = strings.TrimSpace(email)
	if promo.MaxUsesPerCustomer != nil && email != "" {
		n, err := s.store.CountPromoUsagesByEmail(ctx, promo.ID, email)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to count promo usages for customer")
		}
		if n >= *promo.MaxUsesPerCustomer {
			return nil, domain.Invalid(op, "you have already used this promo code")
		}
	}

	eligibleSubtotal, fullProductSubtotal := promo.PartitionEligible(items)

	if !promo.MinOrderAmount.IsZero() && fullProductSubtotal.LessThan(promo.MinOrderAmount) {
		return nil, domain.Invalid(op, "order does not meet the promo code's minimum amount")
	}

	discount := promo.CalculateDiscount(eligibleSubtotal)

	return &PromoResult{Promo: promo, DiscountAmount: discount, EligibleSubtotal: eligibleSubtotal}, nil
}

// RecordUsage persists a PromoCodeUsage row. orderID is nil for a
// quote-only application (invariant 8: it must not count toward
// max_uses until the quote converts to an order).
func (s *Service) RecordUsage(ctx context.Context, promoID uuid.UUID, orderID, quoteID *uuid.UUID, email string, discount money.Amount) error {
	usage := &domain.PromoCodeUsage{
		PromoCodeID:    promoID,
		OrderID:        orderID,
		QuoteID:        quoteID,
		Email:          email,
		DiscountAmount: discount,
	}
	if err := s.store.InsertPromoCodeUsage(ctx, usage); err != nil {
		return domain.Internal(err, "pricing.RecordUsage", "failed to record promo usage")
	}
	return nil
}

// TradeTier names a trade customer's discount schedule entry.
type TradeTier struct {
	Name           string
	DiscountPercent decimal.Decimal
}

// ApplyTradeDiscount implements spec.md §4.3's read-time trade
// transform: every retail price returned to an approved trade customer
// is lowered by the tier's discount before any promo code is applied,
// so the two stack (trade first, promo against the resulting subtotal).
func ApplyTradeDiscount(retail money.Amount, tier TradeTier) money.Amount {
	if tier.DiscountPercent.IsZero() {
		return retail
	}
	factor := decimal.NewFromInt(1).Sub(tier.DiscountPercent.Div(decimal.NewFromInt(100)))
	return retail.MulFloor(factor)
}
