package purchaseorders

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/domain"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

// Dispatch implements spec.md §4.6's sendPO: EDI if the vendor is
// configured for it, otherwise email; EDI failure falls back to email
// when an address is configured, and only an error when both fail.
// A successful dispatch bumps the PO's revision and transitions it to
// sent.
func (s *Service) Dispatch(ctx context.Context, poID uuid.UUID) error {
	const op = "purchaseorders.Dispatch"

	po, err := s.store.GetPurchaseOrderForUpdate(ctx, poID)
	if err != nil {
		return domain.Internal(err, op, "failed to load purchase order")
	}
	vendor, err := s.store.GetVendor(ctx, po.VendorID)
	if err != nil {
		return domain.Internal(err, op, "failed to load vendor")
	}
	items, err := s.store.ListPurchaseOrderItems(ctx, po.ID)
	if err != nil {
		return domain.Internal(err, op, "failed to load purchase order items")
	}

	var dispatchErr error
	if vendor.UsesEDI() && s.edi != nil {
		dispatchErr = s.dispatchEDI(ctx, vendor, po, items)
	} else {
		dispatchErr = s.dispatchEmail(ctx, vendor, po)
	}

	if dispatchErr != nil && vendor.UsesEDI() {
		// EDI was tried and failed: fall back to email if configured.
		if vendor.NotifyEmail == "" {
			return domain.Internal(dispatchErr, op, "edi dispatch failed and no fallback email is configured")
		}
		if emailErr := s.dispatchEmail(ctx, vendor, po); emailErr != nil {
			return domain.Internal(emailErr, op, "both edi and fallback email dispatch failed")
		}
		dispatchErr = nil
	}
	if dispatchErr != nil {
		return domain.Internal(dispatchErr, op, "email dispatch failed")
	}

	po.Revision++
	po.DeriveIsRevised()
	po.Status = domain.POStatusSent
	if err := s.store.UpdatePurchaseOrder(ctx, po); err != nil {
		return domain.Internal(err, op, "failed to update purchase order after dispatch")
	}
	action := "sent"
	if po.IsRevised {
		action = "revised_and_sent"
	}
	return s.logActivity(ctx, po.ID, action, nil)
}

func (s *Service) dispatchEDI(ctx context.Context, vendor *domain.Vendor, po *domain.PurchaseOrder, items []domain.PurchaseOrderItem) error {
	controlNum, payload, err := s.edi.Send(ctx, vendor, po, items)
	tx := &domain.EDITransaction{
		ID:                    uuid.New(),
		PurchaseOrderID:       po.ID,
		InterchangeControlNum: controlNum,
		Direction:             "outbound",
		DocumentType:          "850",
		Status:                "pending",
		Payload:               payload,
	}
	if err != nil {
		tx.Status = "failed"
	}
	if logErr := s.store.InsertEDITransaction(ctx, tx); logErr != nil {
		return logErr
	}
	if err != nil {
		return err
	}
	now := time.Now()
	if err := s.store.UpdateEDITransactionStatus(ctx, tx.ID, "sent", &now); err != nil {
		return err
	}
	po.EDIInterchangeID = controlNum
	return nil
}

func (s *Service) dispatchEmail(ctx context.Context, vendor *domain.Vendor, po *domain.PurchaseOrder) error {
	if s.email == nil || vendor.NotifyEmail == "" {
		return domain.Invalid("purchaseorders.dispatchEmail", "vendor has no notify email configured")
	}

	var doc []byte
	if s.renderer != nil {
		items, err := s.store.ListPurchaseOrderItems(ctx, po.ID)
		if err != nil {
			return fmt.Errorf("load purchase order items for rendering: %w", err)
		}
		body, contentType, err := s.renderer.RenderPurchaseOrder(ctx, po, items)
		if err != nil {
			return fmt.Errorf("render purchase order: %w", err)
		}
		doc = body
		if s.docs != nil {
			key := fmt.Sprintf("purchase-orders/%s/rev-%d.html", po.ID, po.Revision+1)
			if _, err := s.docs.Put(ctx, key, bytesReader(body), contentType); err != nil {
				return fmt.Errorf("archive purchase order document: %w", err)
			}
		}
	}
	return s.email.SendPurchaseOrder(ctx, vendor.NotifyEmail, po, doc)
}

// RevertToDraft clears approval and returns a sent/acknowledged PO to
// draft, per spec.md §4.6.
func (s *Service) RevertToDraft(ctx context.Context, poID uuid.UUID) error {
	po, err := s.store.GetPurchaseOrderForUpdate(ctx, poID)
	if err != nil {
		return domain.Internal(err, "purchaseorders.RevertToDraft", "failed to load purchase order")
	}
	po.Status = domain.POStatusDraft
	po.ApprovedBy = nil
	po.ApprovedAt = nil
	if err := s.store.UpdatePurchaseOrder(ctx, po); err != nil {
		return domain.Internal(err, "purchaseorders.RevertToDraft", "failed to update purchase order")
	}
	return s.logActivity(ctx, po.ID, "reverted", nil)
}

// Acknowledge transitions a sent PO to acknowledged.
func (s *Service) Acknowledge(ctx context.Context, poID uuid.UUID) error {
	return s.transition(ctx, poID, domain.POStatusAcknowledged, "acknowledged")
}

// Cancel transitions a non-terminal PO to cancelled.
func (s *Service) Cancel(ctx context.Context, poID uuid.UUID) error {
	return s.transition(ctx, poID, domain.POStatusCancelled, "cancelled")
}

func (s *Service) transition(ctx context.Context, poID uuid.UUID, status domain.PurchaseOrderStatus, action string) error {
	po, err := s.store.GetPurchaseOrderForUpdate(ctx, poID)
	if err != nil {
		return domain.Internal(err, "purchaseorders.transition", "failed to load purchase order")
	}
	po.Status = status
	if err := s.store.UpdatePurchaseOrder(ctx, po); err != nil {
		return domain.Internal(err, "purchaseorders.transition", "failed to update purchase order")
	}
	return s.logActivity(ctx, po.ID, action, nil)
}

// CancelForOrder cascades every non-terminal PO on orderID into
// cancelled, per spec.md §4.5's order-cancel cascade.
func (s *Service) CancelForOrder(ctx context.Context, orderID uuid.UUID) error {
	pos, err := s.store.ListPurchaseOrdersByOrder(ctx, orderID)
	if err != nil {
		return domain.Internal(err, "purchaseorders.CancelForOrder", "failed to list purchase orders")
	}
	for _, po := range pos {
		if po.Status == domain.POStatusFulfilled || po.Status == domain.POStatusCancelled {
			continue
		}
		if err := s.Cancel(ctx, po.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteCancelledForOrder removes every cancelled PO (and its items and
// activity rows) on orderID, so a fresh set generates on the next
// confirm — spec.md §4.5's un-cancel rule.
func (s *Service) DeleteCancelledForOrder(ctx context.Context, orderID uuid.UUID) error {
	pos, err := s.store.ListPurchaseOrdersByOrder(ctx, orderID)
	if err != nil {
		return domain.Internal(err, "purchaseorders.DeleteCancelledForOrder", "failed to list purchase orders")
	}
	for _, po := range pos {
		if po.Status != domain.POStatusCancelled {
			continue
		}
		if err := s.store.DeletePurchaseOrder(ctx, po.ID); err != nil {
			return domain.Internal(err, "purchaseorders.DeleteCancelledForOrder", "failed to delete purchase order")
		}
	}
	return nil
}

// AdvanceItemStatus updates one PO item's status and recomputes the
// PO's derived status, per spec.md §4.6's supplement rule.
func (s *Service) AdvanceItemStatus(ctx context.Context, poID, itemID uuid.UUID, status domain.PurchaseOrderItemStatus) error {
	if err := s.store.UpdatePurchaseOrderItemStatus(ctx, itemID, status); err != nil {
		return domain.Internal(err, "purchaseorders.AdvanceItemStatus", "failed to update item status")
	}
	po, err := s.store.GetPurchaseOrderForUpdate(ctx, poID)
	if err != nil {
		return domain.Internal(err, "purchaseorders.AdvanceItemStatus", "failed to load purchase order")
	}
	items, err := s.store.ListPurchaseOrderItems(ctx, poID)
	if err != nil {
		return domain.Internal(err, "purchaseorders.AdvanceItemStatus", "failed to list purchase order items")
	}
	derived := domain.DerivePOStatus(po.Status, items)
	if derived != po.Status {
		po.Status = derived
		if err := s.store.UpdatePurchaseOrder(ctx, po); err != nil {
			return domain.Internal(err, "purchaseorders.AdvanceItemStatus", "failed to update purchase order status")
		}
	}
	return nil
}

func (s *Service) logActivity(ctx context.Context, poID uuid.UUID, action string, detail map[string]any) error {
	return s.store.InsertPOActivityLog(ctx, &domain.POActivityLog{
		ID:              uuid.New(),
		PurchaseOrderID: poID,
		Action:          action,
		Detail:          detail,
	})
}
