// Package purchaseorders implements vendor PO generation and the
// vendor-facing status state machine, spec.md §4.6. Grounded on the
// teacher's internal/service/order.go vendor-grouping idiom; the
// EDI/SFTP dispatch path has no teacher analogue and is built directly
// against spec.md's wire-format contract.
package purchaseorders

import (
	"context"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
	"github.com/floorworks/commerce/internal/render"
	"github.com/floorworks/commerce/internal/storage"
	"github.com/floorworks/commerce/internal/store"
)

type Service struct {
	store    *store.Store
	edi      *EDIDispatcher
	email    EmailSender
	renderer render.Renderer
	docs     storage.Store
}

// EmailSender is the external mail collaborator, per spec.md §1.
type EmailSender interface {
	SendPurchaseOrder(ctx context.Context, vendorEmail string, po *domain.PurchaseOrder, pdf []byte) error
}

// New builds the PO service. renderer and docs are optional: a nil
// renderer falls back to a body-only vendor email with no attachment
// (e.g. local dev without object storage configured).
func New(st *store.Store, edi *EDIDispatcher, email EmailSender, renderer render.Renderer, docs storage.Store) *Service {
	return &Service{store: st, edi: edi, email: email, renderer: renderer, docs: docs}
}

// Generate implements spec.md §4.6's generation step: group non-sample,
// product-backed order items by vendor, create one draft PO per vendor
// with one item per source line. Must run inside the caller's
// store.WithTx (the order-confirm transaction) — it issues no
// transaction of its own. skus is keyed by SKU id, used to normalize
// each item's cost to per-box.
func (s *Service) Generate(ctx context.Context, order *domain.Order, items []domain.OrderItem, skus map[uuid.UUID]*domain.SKU) error {
	const op = "purchaseorders.Generate"

	existing, err := s.store.ListPurchaseOrdersByOrder(ctx, order.ID)
	if err != nil {
		return domain.Internal(err, op, "failed to check existing purchase orders")
	}
	if len(existing) > 0 {
		return nil // idempotent: spec.md §4.5 "skip if any PO exists"
	}

	byVendor := map[uuid.UUID][]domain.OrderItem{}
	var vendorOrder []uuid.UUID
	for _, it := range items {
		if !it.RequiresPurchaseOrder() {
			continue
		}
		if _, ok := byVendor[it.VendorID]; !ok {
			vendorOrder = append(vendorOrder, it.VendorID)
		}
		byVendor[it.VendorID] = append(byVendor[it.VendorID], it)
	}

	for _, vendorID := range vendorOrder {
		vendor, err := s.store.GetVendor(ctx, vendorID)
		if err != nil {
			return domain.Internal(err, op, "failed to load vendor")
		}
		number, err := s.store.NextPONumber(ctx, vendor.Code)
		if err != nil {
			return domain.Internal(err, op, "failed to mint PO number")
		}

		po := &domain.PurchaseOrder{
			ID:       uuid.New(),
			OrderID:  order.ID,
			VendorID: vendorID,
			PONumber: number,
			Status:   domain.POStatusDraft,
			Revision: 0,
		}
		if err := s.store.CreatePurchaseOrder(ctx, po); err != nil {
			return domain.Internal(err, op, "failed to create purchase order")
		}

		for _, it := range byVendor[vendorID] {
			costPerBox := it.UnitPrice
			if it.SKUID != nil {
				if sku, ok := skus[*it.SKUID]; ok && sku != nil {
					costPerBox = sku.NormalizedCostPerBox(it.PriceTier)
				}
			}
			itemID := it.ID
			poItem := &domain.PurchaseOrderItem{
				ID:              uuid.New(),
				PurchaseOrderID: po.ID,
				OrderItemID:     &itemID,
				ProductSKU:      it.Name,
				Description:     it.Collection,
				Qty:             it.NumBoxes,
				CostPerBox:      costPerBox,
				OriginalCost:    costPerBox,
				RetailPrice:     it.UnitPrice,
				SellBy:          it.SellBy,
				Status:          domain.POItemPending,
			}
			poItem.Recalculate()
			if err := s.store.InsertPurchaseOrderItem(ctx, poItem); err != nil {
				return domain.Internal(err, op, "failed to insert purchase order item")
			}
		}

		if err := s.recalculateSubtotal(ctx, po); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) recalculateSubtotal(ctx context.Context, po *domain.PurchaseOrder) error {
	items, err := s.store.ListPurchaseOrderItems(ctx, po.ID)
	if err != nil {
		return domain.Internal(err, "purchaseorders.recalculateSubtotal", "failed to load purchase order items")
	}
	subtotal := money.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
	}
	po.Subtotal = subtotal
	return s.store.UpdatePurchaseOrder(ctx, po)
}
