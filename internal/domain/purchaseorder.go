package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/money"
)

// PurchaseOrderStatus is the vendor-facing PO state machine, spec.md §4.6.
type PurchaseOrderStatus string

const (
	POStatusDraft        PurchaseOrderStatus = "draft"
	POStatusSent         PurchaseOrderStatus = "sent"
	POStatusAcknowledged PurchaseOrderStatus = "acknowledged"
	POStatusFulfilled    PurchaseOrderStatus = "fulfilled"
	POStatusCancelled    PurchaseOrderStatus = "cancelled"
)

// PurchaseOrderItemStatus is the per-line status that can roll up into
// the PO's derived status.
type PurchaseOrderItemStatus string

const (
	POItemPending   PurchaseOrderItemStatus = "pending"
	POItemOrdered   PurchaseOrderItemStatus = "ordered"
	POItemShipped   PurchaseOrderItemStatus = "shipped"
	POItemReceived  PurchaseOrderItemStatus = "received"
	POItemCancelled PurchaseOrderItemStatus = "cancelled"
)

// PurchaseOrder is derived from an Order, grouped by vendor.
type PurchaseOrder struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	VendorID uuid.UUID

	PONumber string
	Status   PurchaseOrderStatus
	Revision int
	IsRevised bool

	Subtotal money.Amount

	ApprovedBy *uuid.UUID
	ApprovedAt *time.Time

	EDIInterchangeID string
	Notes            string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeriveIsRevised implements spec.md §4.6: is_revised = revision > 1.
func (p *PurchaseOrder) DeriveIsRevised() { p.IsRevised = p.Revision > 1 }

// PurchaseOrderItem is a line on a PurchaseOrder, normalized to per-box
// cost regardless of the source pricing basis.
type PurchaseOrderItem struct {
	ID              uuid.UUID
	PurchaseOrderID uuid.UUID
	OrderItemID     *uuid.UUID

	ProductSKU  string
	VendorSKU   string
	Description string

	Qty            int
	CostPerBox     money.Amount
	OriginalCost   money.Amount
	RetailPrice    money.Amount
	Subtotal       money.Amount
	SellBy         SellBy

	Status PurchaseOrderItemStatus
}

// Recalculate derives the item's subtotal.
func (i *PurchaseOrderItem) Recalculate() {
	i.Subtotal = i.CostPerBox.MulInt(i.Qty)
}

// DerivePOStatus implements spec.md §4.6's derived-status supplement: a PO
// with items is fulfilled iff every item is received, cancelled iff every
// item is cancelled. It never overrides an explicit non-terminal status
// unless the derived condition actually holds.
func DerivePOStatus(current PurchaseOrderStatus, items []PurchaseOrderItem) PurchaseOrderStatus {
	if len(items) == 0 {
		return current
	}
	allReceived, allCancelled := true, true
	for _, it := range items {
		if it.Status != POItemReceived {
			allReceived = false
		}
		if it.Status != POItemCancelled {
			allCancelled = false
		}
	}
	switch {
	case allReceived:
		return POStatusFulfilled
	case allCancelled:
		return POStatusCancelled
	default:
		return current
	}
}

// POActivityLog is the append-only audit trail for PO transitions,
// spec.md §4.5/§8 scenario 5 (sent / reverted / revised_and_sent).
type POActivityLog struct {
	ID              uuid.UUID
	PurchaseOrderID uuid.UUID
	Action          string
	Detail          map[string]any
	PerformedBy     string
	CreatedAt       time.Time
}

// EDITransaction records one outbound 850 document per PO per dispatch.
type EDITransaction struct {
	ID                    uuid.UUID
	PurchaseOrderID       uuid.UUID
	InterchangeControlNum string
	Direction             string // "outbound"
	DocumentType          string // "850"
	Status                string // pending, sent, failed
	Payload               []byte
	CreatedAt             time.Time
	SentAt                *time.Time
}
