package orders

import (
	"fmt"
	"time"

	"context"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

// Advance implements spec.md §4.5's forward status transitions
// (pending→confirmed→shipped→delivered). cancelled and refunded are
// reached through Cancel and Refund instead.
func (s *Service) Advance(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus, trackingNumber, performedBy string, performedByID *uuid.UUID) error {
	const op = "orders.Advance"

	return s.store.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.store.LockOrderForUpdate(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}

		if !canTransition(order.Status, to) {
			return domain.Invalid(op, fmt.Sprintf("cannot transition order from %s to %s", order.Status, to))
		}
		if to == domain.OrderShipped && order.Delivery == domain.DeliveryShipping && trackingNumber == "" {
			return domain.Invalid(op, "tracking number is required to ship a delivery order")
		}

		from := order.Status
		now := time.Now()
		order.Status = to
		switch to {
		case domain.OrderConfirmed:
			order.ConfirmedAt = &now
		case domain.OrderShipped:
			order.ShippedAt = &now
			order.TrackingNumber = trackingNumber
		case domain.OrderDelivered:
			order.DeliveredAt = &now
		}

		if err := s.store.UpdateOrderStatus(ctx, order); err != nil {
			return domain.Internal(err, op, "failed to update order status")
		}

		if to == domain.OrderConfirmed {
			if err := s.generatePurchaseOrders(ctx, order); err != nil {
				return err
			}
		}

		return s.logActivity(ctx, order.ID, performedBy, performedByID, "status_changed",
			map[string]any{"from": from, "to": to})
	})
}

// Cancel implements spec.md §4.5's cancel path: allowed from any
// non-refunded status, cascades every non-terminal purchase order into
// cancelled, and deliberately leaves ConfirmedAt/ShippedAt/DeliveredAt
// untouched so Uncancel can derive the prior stage from them.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, reason, performedBy string, performedByID *uuid.UUID) error {
	const op = "orders.Cancel"

	return s.store.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.store.LockOrderForUpdate(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}
		if order.Status == domain.OrderRefunded {
			return domain.Invalid(op, "a refunded order cannot be cancelled")
		}
		if order.Status == domain.OrderCancelled {
			return domain.Invalid(op, "order is already cancelled")
		}

		from := order.Status
		now := time.Now()
		order.Status = domain.OrderCancelled
		order.CancelledAt = &now
		order.CancelReason = reason

		if err := s.store.UpdateOrderStatus(ctx, order); err != nil {
			return domain.Internal(err, op, "failed to update order status")
		}
		if err := s.po.CancelForOrder(ctx, order.ID); err != nil {
			return err
		}

		return s.logActivity(ctx, order.ID, performedBy, performedByID, "cancelled",
			map[string]any{"from": from, "to": domain.OrderCancelled, "reason": reason})
	})
}

// Uncancel implements spec.md §4.5's uncancel path: restores the order
// to the stage it held before cancellation and deletes its cancelled
// purchase orders so a fresh set generates on the next confirm.
// Invariant 6: refused once any refund has been issued.
func (s *Service) Uncancel(ctx context.Context, orderID uuid.UUID, performedBy string, performedByID *uuid.UUID) error {
	const op = "orders.Uncancel"

	return s.store.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.store.LockOrderForUpdate(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}
		if order.Status != domain.OrderCancelled {
			return domain.Invalid(op, "order is not cancelled")
		}
		if order.RefundedAt != nil {
			return domain.Invalid(op, "a cancelled order cannot be un-cancelled once a refund has been issued")
		}

		target := priorStage(order)
		order.Status = target
		order.CancelledAt = nil
		order.CancelReason = ""

		if err := s.store.UpdateOrderStatus(ctx, order); err != nil {
			return domain.Internal(err, op, "failed to update order status")
		}
		if err := s.po.DeleteCancelledForOrder(ctx, order.ID); err != nil {
			return err
		}

		return s.logActivity(ctx, order.ID, performedBy, performedByID, "uncancelled",
			map[string]any{"from": domain.OrderCancelled, "to": target})
	})
}

// Refund implements spec.md §4.5's refund endpoint. amount nil means
// "refund the full remainder", only permitted when the order is
// cancelled. Issuing any refund stamps RefundedAt, which both records
// the balance change and (per invariant 6) blocks a future Uncancel; a
// full refund additionally transitions status to refunded.
func (s *Service) Refund(ctx context.Context, orderID uuid.UUID, amount *money.Amount, reason, performedBy string, performedByID *uuid.UUID) (money.Amount, error) {
	const op = "orders.Refund"

	var result money.Amount
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.store.LockOrderForUpdate(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}

		maxRefundable, err := s.payments.MaxRefundable(ctx, orderID)
		if err != nil {
			return err
		}

		refundAmount := maxRefundable
		if amount != nil {
			refundAmount = *amount
		} else if order.Status != domain.OrderCancelled {
			return domain.Invalid(op, "refund amount is required unless the order is cancelled")
		}

		paid, err := s.payments.Refund(ctx, orderID, refundAmount, reason, performedByID)
		if err != nil {
			return err
		}

		order.AmountPaid = paid
		order.RefundAmount = order.RefundAmount.Add(refundAmount)
		now := time.Now()
		order.RefundedAt = &now
		isFull := refundAmount.Equal(maxRefundable)
		if isFull {
			order.Status = domain.OrderRefunded
		}

		if err := s.store.UpdateOrderTotals(ctx, order); err != nil {
			return domain.Internal(err, op, "failed to update order totals")
		}
		if err := s.store.UpdateOrderStatus(ctx, order); err != nil {
			return domain.Internal(err, op, "failed to update order status")
		}

		result = paid
		return s.logActivity(ctx, order.ID, performedBy, performedByID, "refunded",
			map[string]any{"amount": refundAmount.String(), "full": isFull})
	})
	return result, err
}
