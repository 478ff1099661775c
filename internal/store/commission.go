package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

// GetCommissionByOrder loads the commission row for an order, if any.
func (s *Store) GetCommissionByOrder(ctx context.Context, orderID uuid.UUID) (*domain.RepCommission, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, order_id, rep_id, commission_rate, order_total, vendor_cost, margin, amount, status, paid_at, created_at, updated_at
		FROM rep_commissions WHERE order_id=$1`, orderID)
	var c domain.RepCommission
	var rate, total, cost, margin, amount decimal.Decimal
	if err := row.Scan(
		&c.ID, &c.OrderID, &c.RepID, &rate, &total, &cost, &margin, &amount, &c.Status, &c.PaidAt,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: scan commission: %w", err)
	}
	c.CommissionRate = rate
	c.OrderTotal = money.FromDecimal(total)
	c.VendorCost = money.FromDecimal(cost)
	c.Margin = money.FromDecimal(margin)
	c.Amount = money.FromDecimal(amount)
	return &c, nil
}

// UpsertCommission inserts or updates the (order_id)-unique commission
// row, invariant 9. Callers are responsible for preserving a terminal
// "paid" status via domain.DeriveCommissionStatus before calling this.
func (s *Store) UpsertCommission(ctx context.Context, c *domain.RepCommission) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO rep_commissions (id, order_id, rep_id, commission_rate, order_total, vendor_cost, margin, amount, status, paid_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (order_id) DO UPDATE SET
			commission_rate=$4, order_total=$5, vendor_cost=$6, margin=$7, amount=$8, status=$9, paid_at=$10, updated_at=now()`,
		c.ID, c.OrderID, c.RepID, c.CommissionRate, c.OrderTotal.Decimal(), c.VendorCost.Decimal(),
		c.Margin.Decimal(), c.Amount.Decimal(), c.Status, c.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("store: upsert commission: %w", err)
	}
	return nil
}
