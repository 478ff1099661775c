package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

// mutable reports whether an order's items can still be changed,
// spec.md §4.5: only pending or confirmed orders accept item mutation.
func mutable(status domain.OrderStatus) bool {
	return status == domain.OrderPending || status == domain.OrderConfirmed
}

// AddItem implements spec.md §4.5's add-item flow: insert the line,
// cascade it into the vendor's draft purchase order, then recompute
// order totals (invariant 1).
func (s *Service) AddItem(ctx context.Context, orderID uuid.UUID, item *domain.OrderItem, performedBy string, performedByID *uuid.UUID) error {
	const op = "orders.AddItem"

	return s.store.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.store.LockOrderForUpdate(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}
		if !mutable(order.Status) {
			return domain.Invalid(op, "items can only be mutated on a pending or confirmed order")
		}

		item.OrderID = orderID
		item.Recalculate()
		if err := s.store.InsertOrderItem(ctx, item); err != nil {
			return domain.Internal(err, op, "failed to insert order item")
		}

		var sku *domain.SKU
		if item.SKUID != nil {
			sku, _, err = s.store.GetSKU(ctx, *item.SKUID)
			if err != nil {
				return domain.Internal(err, op, "failed to load sku")
			}
		}
		if err := s.po.AddItem(ctx, orderID, item, sku); err != nil {
			return err
		}

		if err := s.recalculateOrderTotals(ctx, order); err != nil {
			return err
		}
		return s.logActivity(ctx, order.ID, performedBy, performedByID, "item_added",
			map[string]any{"order_item_id": item.ID, "name": item.Name})
	})
}

// RemoveItem implements spec.md §4.5's remove-item flow: delete the
// line's linked purchase order item(s) first (FK, invariant 4), delete
// the line itself, then recompute order totals.
func (s *Service) RemoveItem(ctx context.Context, orderID, orderItemID uuid.UUID, performedBy string, performedByID *uuid.UUID) error {
	const op = "orders.RemoveItem"

	return s.store.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.store.LockOrderForUpdate(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}
		if !mutable(order.Status) {
			return domain.Invalid(op, "items can only be mutated on a pending or confirmed order")
		}

		if err := s.po.RemoveItem(ctx, orderItemID); err != nil {
			return err
		}
		if err := s.store.DeleteOrderItem(ctx, orderItemID); err != nil {
			return domain.Internal(err, op, "failed to delete order item")
		}

		if err := s.recalculateOrderTotals(ctx, order); err != nil {
			return err
		}
		return s.logActivity(ctx, order.ID, performedBy, performedByID, "item_removed",
			map[string]any{"order_item_id": orderItemID})
	})
}

// AdjustPrice implements spec.md §4.5's rep-only price adjustment: write
// the audit row, update the line's unit price, and recompute totals.
// Available only through the rep surface (enforced by the caller's role
// gate, not here — repID is the adjusting rep, always present).
func (s *Service) AdjustPrice(ctx context.Context, orderID, orderItemID uuid.UUID, newPrice money.Amount, reason string, repID uuid.UUID) error {
	const op = "orders.AdjustPrice"

	return s.store.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.store.LockOrderForUpdate(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order")
		}
		if !mutable(order.Status) {
			return domain.Invalid(op, "items can only be mutated on a pending or confirmed order")
		}

		items, err := s.store.ListOrderItems(ctx, orderID)
		if err != nil {
			return domain.Internal(err, op, "failed to load order items")
		}
		var item *domain.OrderItem
		for i := range items {
			if items[i].ID == orderItemID {
				item = &items[i]
				break
			}
		}
		if item == nil {
			return domain.NotFound(op, "order_item", orderItemID.String())
		}

		oldPrice := item.UnitPrice
		item.UnitPrice = newPrice
		item.Recalculate()
		if err := s.store.UpdateOrderItemPrice(ctx, item); err != nil {
			return domain.Internal(err, op, "failed to update order item price")
		}

		adjustment := &domain.OrderPriceAdjustment{
			OrderID:     orderID,
			OrderItemID: orderItemID,
			RepID:       repID,
			OldPrice:    oldPrice,
			NewPrice:    newPrice,
			Reason:      reason,
		}
		if err := s.store.InsertOrderPriceAdjustment(ctx, adjustment); err != nil {
			return domain.Internal(err, op, "failed to record price adjustment")
		}

		return s.recalculateOrderTotals(ctx, order)
	})
}

// recalculateOrderTotals implements spec.md invariant 1: reload every
// line, sum non-sample subtotals into the order's subtotal, then derive
// the order total.
func (s *Service) recalculateOrderTotals(ctx context.Context, order *domain.Order) error {
	items, err := s.store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return domain.Internal(err, "orders.recalculateOrderTotals", "failed to load order items")
	}
	subtotal := money.Zero
	for _, it := range items {
		if it.IsSample {
			continue
		}
		subtotal = subtotal.Add(it.Subtotal)
	}
	order.Subtotal = subtotal
	order.Recalculate()
	return s.store.UpdateOrderTotals(ctx, order)
}
