package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
	"github.com/floorworks/commerce/internal/shipping"
)

// SwitchToPickup implements spec.md §4.5's delivery-method change:
// switching to pickup zeros every shipping field and the order total is
// recomputed.
func (s *Service) SwitchToPickup(ctx context.Context, orderID uuid.UUID, performedBy string, performedByID *uuid.UUID) error {
	const op = "orders.SwitchToPickup"

	return s.store.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.store.LockOrderForUpdate(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}
		if !mutable(order.Status) {
			return domain.Invalid(op, "delivery method can only change on a pending or confirmed order")
		}

		order.Delivery = domain.DeliveryPickup
		order.ShippingAddress = nil
		order.Carrier = ""
		order.Service = ""
		order.TransitDays = 0
		order.Residential = false
		order.Liftgate = false
		order.IsFallbackRate = false
		order.Shipping = money.Zero
		order.Recalculate()

		if err := s.store.UpdateOrderDelivery(ctx, order, nil); err != nil {
			return domain.Internal(err, op, "failed to update order delivery")
		}
		if err := s.store.UpdateOrderTotals(ctx, order); err != nil {
			return domain.Internal(err, op, "failed to update order totals")
		}
		return s.logActivity(ctx, order.ID, performedBy, performedByID, "delivery_changed",
			map[string]any{"delivery": domain.DeliveryPickup})
	})
}

// RateShippingOptions is the two-phase shipping change's first call:
// rate options from the live rater without committing anything.
func (s *Service) RateShippingOptions(ctx context.Context, orderID uuid.UUID) (*shipping.Result, error) {
	return s.shipping.RateOrder(ctx, orderID)
}

// SwitchToShipping commits the two-phase shipping change's second call.
// The caller has already rated options via RateShippingOptions and
// passes back the chosen quote plus the destination address.
func (s *Service) SwitchToShipping(ctx context.Context, orderID uuid.UUID, addr *domain.ShippingAddress, quote shipping.Quote, residential, liftgate bool, performedBy string, performedByID *uuid.UUID) error {
	const op = "orders.SwitchToShipping"

	return s.store.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.store.LockOrderForUpdate(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}
		if !mutable(order.Status) {
			return domain.Invalid(op, "delivery method can only change on a pending or confirmed order")
		}

		order.Delivery = domain.DeliveryShipping
		order.ShippingAddress = addr
		order.Carrier = quote.Carrier
		order.Service = quote.Service
		order.TransitDays = quote.TransitDays
		order.Residential = residential
		order.Liftgate = liftgate
		order.IsFallbackRate = quote.IsFallback
		order.Shipping = quote.Cost
		order.Recalculate()

		if err := s.store.UpdateOrderDelivery(ctx, order, addr); err != nil {
			return domain.Internal(err, op, "failed to update order delivery")
		}
		if err := s.store.UpdateOrderTotals(ctx, order); err != nil {
			return domain.Internal(err, op, "failed to update order totals")
		}
		return s.logActivity(ctx, order.ID, performedBy, performedByID, "delivery_changed",
			map[string]any{"delivery": domain.DeliveryShipping, "carrier": quote.Carrier, "service": quote.Service})
	})
}
