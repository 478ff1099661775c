package purchaseorders

import (
	"context"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/domain"
)

// AddItem implements spec.md §4.5's add-item PO cascade: find or create
// a draft PO for the item's vendor, insert the linked PO item with its
// cost normalised to per-box, and recompute that PO's subtotal. A no-op
// for sample or custom (non-product-backed) items, per invariant 4.
// Must run inside the caller's store.WithTx.
func (s *Service) AddItem(ctx context.Context, orderID uuid.UUID, item *domain.OrderItem, sku *domain.SKU) error {
	const op = "purchaseorders.AddItem"
	if !item.RequiresPurchaseOrder() {
		return nil
	}

	po, err := s.store.FindDraftPOByVendor(ctx, orderID, item.VendorID)
	if err != nil {
		return domain.Internal(err, op, "failed to look up draft purchase order")
	}
	if po == nil {
		vendor, err := s.store.GetVendor(ctx, item.VendorID)
		if err != nil {
			return domain.Internal(err, op, "failed to load vendor")
		}
		number, err := s.store.NextPONumber(ctx, vendor.Code)
		if err != nil {
			return domain.Internal(err, op, "failed to mint PO number")
		}
		po = &domain.PurchaseOrder{
			ID:       uuid.New(),
			OrderID:  orderID,
			VendorID: item.VendorID,
			PONumber: number,
			Status:   domain.POStatusDraft,
		}
		if err := s.store.CreatePurchaseOrder(ctx, po); err != nil {
			return domain.Internal(err, op, "failed to create purchase order")
		}
	}

	costPerBox := item.UnitPrice
	if sku != nil {
		costPerBox = sku.NormalizedCostPerBox(item.PriceTier)
	}
	itemID := item.ID
	poItem := &domain.PurchaseOrderItem{
		ID:              uuid.New(),
		PurchaseOrderID: po.ID,
		OrderItemID:     &itemID,
		ProductSKU:      item.Name,
		Description:     item.Collection,
		Qty:             item.NumBoxes,
		CostPerBox:      costPerBox,
		OriginalCost:    costPerBox,
		RetailPrice:     item.UnitPrice,
		SellBy:          item.SellBy,
		Status:          domain.POItemPending,
	}
	poItem.Recalculate()
	if err := s.store.InsertPurchaseOrderItem(ctx, poItem); err != nil {
		return domain.Internal(err, op, "failed to insert purchase order item")
	}
	return s.recalculateSubtotal(ctx, po)
}

// RemoveItem implements the inverse cascade: delete the order item's
// linked PO item (FK, invariant 4), recompute the owning PO's subtotal,
// and delete the PO outright if it is now empty. A no-op if the order
// item was never product-backed. Must run inside the caller's
// store.WithTx.
func (s *Service) RemoveItem(ctx context.Context, orderItemID uuid.UUID) error {
	const op = "purchaseorders.RemoveItem"

	poItem, err := s.store.FindPurchaseOrderItemByOrderItem(ctx, orderItemID)
	if err != nil {
		return domain.Internal(err, op, "failed to look up purchase order item")
	}
	if poItem == nil {
		return nil
	}
	poID := poItem.PurchaseOrderID

	if err := s.store.DeletePurchaseOrderItemsByOrderItem(ctx, orderItemID); err != nil {
		return domain.Internal(err, op, "failed to delete purchase order items")
	}

	n, err := s.store.CountPurchaseOrderItems(ctx, poID)
	if err != nil {
		return domain.Internal(err, op, "failed to count purchase order items")
	}
	if n == 0 {
		if err := s.store.DeletePurchaseOrder(ctx, poID); err != nil {
			return domain.Internal(err, op, "failed to delete empty purchase order")
		}
		return nil
	}

	po, err := s.store.GetPurchaseOrderForUpdate(ctx, poID)
	if err != nil {
		return domain.Internal(err, op, "failed to load purchase order")
	}
	return s.recalculateSubtotal(ctx, po)
}
