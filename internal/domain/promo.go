package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/money"
)

// PromoDiscountType selects the promo discount formula, spec.md §4.3.
type PromoDiscountType string

const (
	PromoPercent PromoDiscountType = "percent"
	PromoFixed   PromoDiscountType = "fixed"
)

// PromoCode is an admin-authored discount definable by percent or fixed
// amount, with optional category/product restrictions and usage caps.
type PromoCode struct {
	ID   uuid.UUID
	Code string

	DiscountType PromoDiscountType
	Value        decimal.Decimal // percent: 0-100; fixed: a dollar amount
	MinOrderAmount money.Amount

	RestrictedCategoryIDs []uuid.UUID
	RestrictedProductIDs  []uuid.UUID

	MaxUses            *int
	MaxUsesPerCustomer *int

	Active    bool
	ExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRestricted reports whether the code carries any category/product
// eligibility restriction.
func (p *PromoCode) IsRestricted() bool {
	return len(p.RestrictedCategoryIDs) > 0 || len(p.RestrictedProductIDs) > 0
}

// EligibilityItem is the subset of an order/cart line the promo engine
// needs to partition eligible vs ineligible items, spec.md §4.3 step 4.
type EligibilityItem struct {
	ProductID  uuid.UUID
	CategoryID uuid.UUID
	IsSample   bool
	Subtotal   money.Amount
}

// PartitionEligible splits items into eligible and ineligible subtotals.
// Samples are always ineligible. With no restrictions, every non-sample
// item is eligible. fullProductSubtotal sums all non-sample items
// regardless of restriction, for the min-order-amount check.
func (p *PromoCode) PartitionEligible(items []EligibilityItem) (eligibleSubtotal, fullProductSubtotal money.Amount) {
	restricted := p.IsRestricted()
	for _, it := range items {
		if it.IsSample {
			continue
		}
		fullProductSubtotal = fullProductSubtotal.Add(it.Subtotal)
		if !restricted {
			eligibleSubtotal = eligibleSubtotal.Add(it.Subtotal)
			continue
		}
		if containsUUID(p.RestrictedProductIDs, it.ProductID) || containsUUID(p.RestrictedCategoryIDs, it.CategoryID) {
			eligibleSubtotal = eligibleSubtotal.Add(it.Subtotal)
		}
	}
	return eligibleSubtotal, fullProductSubtotal
}

func containsUUID(set []uuid.UUID, id uuid.UUID) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// IsActiveAt reports whether the code is active and not expired, the
// first gate in spec.md §4.3 step 1.
func (p *PromoCode) IsActiveAt(now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return false
	}
	return true
}

// CalculateDiscount implements spec.md §4.3 step 6: percent is
// eligible_subtotal * value/100 floored to 2dp; fixed is
// min(value, eligible_subtotal).
func (p *PromoCode) CalculateDiscount(eligibleSubtotal money.Amount) money.Amount {
	switch p.DiscountType {
	case PromoPercent:
		return eligibleSubtotal.MulFloor(p.Value.Div(decimal.NewFromInt(100)))
	case PromoFixed:
		fixed, _ := money.New(p.Value.StringFixed(2))
		return money.Min(fixed, eligibleSubtotal)
	default:
		return money.Zero
	}
}

// PromoCodeUsage records one redemption. Only rows with a non-null
// OrderID count toward MaxUses, per spec.md invariant 8 — quote-only
// usages (OrderID nil) never consume the global counter.
type PromoCodeUsage struct {
	ID          uuid.UUID
	PromoCodeID uuid.UUID
	OrderID     *uuid.UUID
	QuoteID     *uuid.UUID
	Email       string
	DiscountAmount money.Amount
	CreatedAt   time.Time
}
