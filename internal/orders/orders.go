// Package orders implements the order lifecycle, spec.md §4.5 — the
// hardest subsystem: four creation flows, a status state machine, item
// mutation with purchase-order cascading, delivery-method change, and
// refunds. Grounded on the teacher's internal/service/order.go
// OrderService, generalized from its single cart-to-order path to all
// four creation flows and the full status/refund surface spec.md
// requires, and composed from the already-built pricing, shipping,
// purchaseorders, payments, and commission services rather than
// duplicating any of their logic.
package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/commission"
	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
	"github.com/floorworks/commerce/internal/payments"
	"github.com/floorworks/commerce/internal/pricing"
	"github.com/floorworks/commerce/internal/purchaseorders"
	"github.com/floorworks/commerce/internal/shipping"
	"github.com/floorworks/commerce/internal/store"
)

// Service orchestrates every order-lifecycle operation against the
// store and its sibling domain services. None of its methods open more
// than one transaction; fire-and-forget side effects (confirmation
// email, rep notification, commission recompute) are the caller's
// responsibility to schedule after a method returns, per spec.md §5.
type Service struct {
	store      *store.Store
	pricing    *pricing.Service
	shipping   *shipping.Service
	po         *purchaseorders.Service
	commission *commission.Service
	payments   *payments.Service
}

func New(st *store.Store, pr *pricing.Service, sh *shipping.Service, po *purchaseorders.Service, cm *commission.Service, pay *payments.Service) *Service {
	return &Service{store: st, pricing: pr, shipping: sh, po: po, commission: cm, payments: pay}
}

// RecomputeCommission runs the commission engine's post-commit
// recompute, spec.md §9's accepted brief-inconsistency-window design:
// callers invoke this after their transaction commits, not inside it.
func (s *Service) RecomputeCommission(ctx context.Context, orderID uuid.UUID) error {
	return s.commission.Recompute(ctx, orderID)
}

// logActivity appends an order_activity_log row, written in the same
// transaction as the change it describes, per spec.md §5.
func (s *Service) logActivity(ctx context.Context, orderID uuid.UUID, performedBy string, performedByID *uuid.UUID, action string, detail map[string]any) error {
	return s.store.InsertOrderActivityLog(ctx, &domain.OrderActivityLog{
		OrderID:       orderID,
		PerformedBy:   performedBy,
		PerformedByID: performedByID,
		Action:        action,
		Detail:        detail,
	})
}

// generatePurchaseOrders loads an order's items and their backing SKUs
// and hands them to the PO engine's idempotent Generate. Shared by the
// confirm transition and every creation flow that can land an order
// directly in confirmed.
func (s *Service) generatePurchaseOrders(ctx context.Context, order *domain.Order) error {
	const op = "orders.generatePurchaseOrders"

	items, err := s.store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return domain.Internal(err, op, "failed to load order items")
	}

	skus := map[uuid.UUID]*domain.SKU{}
	for _, it := range items {
		if it.SKUID == nil {
			continue
		}
		if _, ok := skus[*it.SKUID]; ok {
			continue
		}
		sku, _, err := s.store.GetSKU(ctx, *it.SKUID)
		if err != nil {
			return domain.Internal(err, op, "failed to load sku")
		}
		skus[*it.SKUID] = sku
	}

	return s.po.Generate(ctx, order, items, skus)
}

// bumpTradeSpend implements the glossary's trade-tier auto-promotion
// rule: add the order total to the account's cumulative spend and
// promote its tier if the new total crosses a threshold. Never demotes.
// Must run inside the caller's transaction.
func (s *Service) bumpTradeSpend(ctx context.Context, tradeCustomerID uuid.UUID, orderTotal money.Amount) error {
	const op = "orders.bumpTradeSpend"

	tc, err := s.store.GetTradeCustomerForUpdate(ctx, tradeCustomerID)
	if err != nil {
		return domain.Internal(err, op, "failed to load trade customer")
	}
	tiers, err := s.store.ListTradeTierSchedule(ctx)
	if err != nil {
		return domain.Internal(err, op, "failed to load trade tier schedule")
	}

	newSpend := tc.CumulativeSpend.Add(orderTotal)
	newTier := domain.EvaluateTierPromotion(tc.TradeTier, newSpend, tiers)

	if err := s.store.UpdateTradeCustomerSpendAndTier(ctx, tc.ID, newSpend, newTier); err != nil {
		return domain.Internal(err, op, "failed to update trade customer spend and tier")
	}
	return nil
}

// assignRepIfUnassigned implements spec.md §4.5 creation-flow step 1:
// orders without a sales rep get one via round-robin. Missing reps
// (ENOTFOUND) leave the order unassigned rather than failing checkout.
func (s *Service) assignRepIfUnassigned(ctx context.Context, order *domain.Order) error {
	if order.SalesRepID != nil {
		return nil
	}
	repID, err := s.store.AssignRoundRobinRep(ctx)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil
		}
		return domain.Internal(err, "orders.assignRepIfUnassigned", "failed to assign sales rep")
	}
	order.SalesRepID = &repID
	return nil
}
