// Package commission recomputes a sales rep's commission row after every
// order mutation, spec.md §4.8. Grounded on the teacher's
// internal/service/order.go upsert-on-mutation idiom, generalized to the
// pure commission math already derived in internal/domain/commission.go.
package commission

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/store"
)

type Service struct {
	store *store.Store
}

func New(st *store.Store) *Service {
	return &Service{store: st}
}

// Recompute reloads the order, its rep, and its PO items, then
// upserts a RepCommission row reflecting the current state. It is a
// no-op when the order has no assigned sales rep. Callers invoke this
// after commit (spec.md §9's accepted brief-inconsistency-window design),
// not inside the order's own transaction.
func (s *Service) Recompute(ctx context.Context, orderID uuid.UUID) error {
	const op = "commission.Recompute"

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Internal(err, op, "failed to load order")
	}
	if order.SalesRepID == nil {
		return nil
	}

	rep, err := s.store.GetSalesRepByID(ctx, *order.SalesRepID)
	if err != nil {
		return domain.Internal(err, op, "failed to load sales rep")
	}
	rate, err := decimal.NewFromString(rep.CommissionRate)
	if err != nil {
		return domain.Internal(err, op, "invalid commission rate on sales rep")
	}

	poItems, err := s.store.ListPurchaseOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return domain.Internal(err, op, "failed to load purchase order items")
	}

	existing, err := s.store.GetCommissionByOrder(ctx, orderID)
	if err != nil && !domain.IsCode(err, domain.ENOTFOUND) {
		return domain.Internal(err, op, "failed to load existing commission")
	}

	current := domain.CommissionPending
	if existing != nil {
		current = existing.Status
	}

	vendorCost := domain.CalculateVendorCost(order.Total, poItems)
	margin, amount := domain.CalculateCommission(rate, order.Total, vendorCost)
	status := domain.DeriveCommissionStatus(current, order.Status, order.AmountPaid, order.Total)

	c := &domain.RepCommission{
		OrderID:        orderID,
		RepID:          rep.ID,
		CommissionRate: rate,
		OrderTotal:     order.Total,
		VendorCost:     vendorCost,
		Margin:         margin,
		Amount:         amount,
		Status:         status,
	}
	if existing != nil {
		c.ID = existing.ID
		c.PaidAt = existing.PaidAt
	}

	if err := s.store.UpsertCommission(ctx, c); err != nil {
		return domain.Internal(err, op, "failed to upsert commission")
	}
	return nil
}
