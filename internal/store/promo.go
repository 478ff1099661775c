package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

// GetPromoCodeByCode does a case-insensitive lookup, spec.md §4.3 step 1.
func (s *Store) GetPromoCodeByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, code, discount_type, value, min_order_amount, restricted_category_ids,
		       restricted_product_ids, max_uses, max_uses_per_customer, active, expires_at, created_at, updated_at
		FROM promo_codes WHERE lower(code) = lower($1)`, code)
	var p domain.PromoCode
	var value, minOrder decimal.Decimal
	if err := row.Scan(
		&p.ID, &p.Code, &p.DiscountType, &value, &minOrder, &p.RestrictedCategoryIDs, &p.RestrictedProductIDs,
		&p.MaxUses, &p.MaxUsesPerCustomer, &p.Active, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetPromoCodeByCode", "promo_code", code)
		}
		return nil, fmt.Errorf("store: scan promo code: %w", err)
	}
	p.Value = value
	p.MinOrderAmount = money.FromDecimal(minOrder)
	return &p, nil
}

// CountPromoUsagesWithOrder counts global usages that consumed an
// order (quote-only usages are excluded), invariant 8.
func (s *Store) CountPromoUsagesWithOrder(ctx context.Context, promoID uuid.UUID) (int, error) {
	var n int
	err := s.q(ctx).QueryRow(ctx,
		`SELECT count(*) FROM promo_code_usages WHERE promo_code_id=$1 AND order_id IS NOT NULL`, promoID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count promo usages: %w", err)
	}
	return n, nil
}

// CountPromoUsagesByEmail counts an email's order-backed usages of a
// code, spec.md §4.3 step 3.
func (s *Store) CountPromoUsagesByEmail(ctx context.Context, promoID uuid.UUID, email string) (int, error) {
	var n int
	err := s.q(ctx).QueryRow(ctx,
		`SELECT count(*) FROM promo_code_usages WHERE promo_code_id=$1 AND order_id IS NOT NULL AND lower(email)=lower($2)`,
		promoID, email,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count promo usages by email: %w", err)
	}
	return n, nil
}

// InsertPromoCodeUsage records one redemption.
func (s *Store) InsertPromoCodeUsage(ctx context.Context, u *domain.PromoCodeUsage) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO promo_code_usages (id, promo_code_id, order_id, quote_id, email, discount_amount, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())`,
		u.ID, u.PromoCodeID, u.OrderID, u.QuoteID, strings.ToLower(u.Email), u.DiscountAmount.Decimal(),
	)
	if err != nil {
		return fmt.Errorf("store: insert promo code usage: %w", err)
	}
	return nil
}
