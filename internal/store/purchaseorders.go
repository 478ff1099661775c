package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

// ListPurchaseOrdersByOrder loads every PO derived from an order.
func (s *Store) ListPurchaseOrdersByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.PurchaseOrder, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT id, order_id, vendor_id, po_number, status, revision, is_revised, subtotal,
		       approved_by, approved_at, edi_interchange_id, notes, created_at, updated_at
		FROM purchase_orders WHERE order_id=$1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("store: list purchase orders: %w", err)
	}
	defer rows.Close()

	var pos []domain.PurchaseOrder
	for rows.Next() {
		var po domain.PurchaseOrder
		var subtotal decimal.Decimal
		if err := rows.Scan(
			&po.ID, &po.OrderID, &po.VendorID, &po.PONumber, &po.Status, &po.Revision, &po.IsRevised,
			&subtotal, &po.ApprovedBy, &po.ApprovedAt, &po.EDIInterchangeID, &po.Notes,
			&po.CreatedAt, &po.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan purchase order: %w", err)
		}
		po.Subtotal = money.FromDecimal(subtotal)
		pos = append(pos, po)
	}
	return pos, rows.Err()
}

// GetPurchaseOrderForUpdate locks one PO row, used by status/revision
// transitions and draft-PO item mutation.
func (s *Store) GetPurchaseOrderForUpdate(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, order_id, vendor_id, po_number, status, revision, is_revised, subtotal,
		       approved_by, approved_at, edi_interchange_id, notes, created_at, updated_at
		FROM purchase_orders WHERE id=$1 FOR UPDATE`, id)
	var po domain.PurchaseOrder
	var subtotal decimal.Decimal
	if err := row.Scan(
		&po.ID, &po.OrderID, &po.VendorID, &po.PONumber, &po.Status, &po.Revision, &po.IsRevised,
		&subtotal, &po.ApprovedBy, &po.ApprovedAt, &po.EDIInterchangeID, &po.Notes,
		&po.CreatedAt, &po.UpdatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetPurchaseOrderForUpdate", "purchase_order", id.String())
		}
		return nil, fmt.Errorf("store: scan purchase order: %w", err)
	}
	po.Subtotal = money.FromDecimal(subtotal)
	return &po, nil
}

// FindDraftPOByVendor looks up an order's existing draft PO for a
// vendor, so item-add can reuse it instead of creating a duplicate.
func (s *Store) FindDraftPOByVendor(ctx context.Context, orderID, vendorID uuid.UUID) (*domain.PurchaseOrder, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, order_id, vendor_id, po_number, status, revision, is_revised, subtotal,
		       approved_by, approved_at, edi_interchange_id, notes, created_at, updated_at
		FROM purchase_orders WHERE order_id=$1 AND vendor_id=$2 AND status='draft'`, orderID, vendorID)
	var po domain.PurchaseOrder
	var subtotal decimal.Decimal
	if err := row.Scan(
		&po.ID, &po.OrderID, &po.VendorID, &po.PONumber, &po.Status, &po.Revision, &po.IsRevised,
		&subtotal, &po.ApprovedBy, &po.ApprovedAt, &po.EDIInterchangeID, &po.Notes,
		&po.CreatedAt, &po.UpdatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: scan draft po: %w", err)
	}
	po.Subtotal = money.FromDecimal(subtotal)
	return &po, nil
}

// FindPurchaseOrderItemByOrderItem looks up the PO item linked to an
// order item, so remove-item can locate its owning PO before deleting.
// Returns nil, nil if the order item was never product-backed.
func (s *Store) FindPurchaseOrderItemByOrderItem(ctx context.Context, orderItemID uuid.UUID) (*domain.PurchaseOrderItem, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, purchase_order_id, order_item_id, product_sku, vendor_sku, description,
		       qty, cost_per_box, original_cost, retail_price, subtotal, sell_by, status
		FROM purchase_order_items WHERE order_item_id=$1`, orderItemID)
	var it domain.PurchaseOrderItem
	var cost, original, retail, subtotal decimal.Decimal
	if err := row.Scan(
		&it.ID, &it.PurchaseOrderID, &it.OrderItemID, &it.ProductSKU, &it.VendorSKU, &it.Description,
		&it.Qty, &cost, &original, &retail, &subtotal, &it.SellBy, &it.Status,
	); err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: scan po item by order item: %w", err)
	}
	it.CostPerBox = money.FromDecimal(cost)
	it.OriginalCost = money.FromDecimal(original)
	it.RetailPrice = money.FromDecimal(retail)
	it.Subtotal = money.FromDecimal(subtotal)
	return &it, nil
}

// CreatePurchaseOrder inserts a new draft PO.
func (s *Store) CreatePurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) error {
	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	row := s.q(ctx).QueryRow(ctx, `
		INSERT INTO purchase_orders (id, order_id, vendor_id, po_number, status, revision, is_revised, subtotal, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING created_at, updated_at`,
		po.ID, po.OrderID, po.VendorID, po.PONumber, po.Status, po.Revision, po.IsRevised, po.Subtotal.Decimal(), po.Notes,
	)
	if err := row.Scan(&po.CreatedAt, &po.UpdatedAt); err != nil {
		return fmt.Errorf("store: create purchase order: %w", err)
	}
	return nil
}

// UpdatePurchaseOrder persists status/revision/subtotal/approval changes.
func (s *Store) UpdatePurchaseOrder(ctx context.Context, po *domain.PurchaseOrder) error {
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE purchase_orders SET status=$2, revision=$3, is_revised=$4, subtotal=$5,
		       approved_by=$6, approved_at=$7, edi_interchange_id=$8, notes=$9, updated_at=now()
		WHERE id=$1`,
		po.ID, po.Status, po.Revision, po.IsRevised, po.Subtotal.Decimal(),
		po.ApprovedBy, po.ApprovedAt, po.EDIInterchangeID, po.Notes,
	)
	if err != nil {
		return fmt.Errorf("store: update purchase order: %w", err)
	}
	return nil
}

// DeletePurchaseOrder removes a PO that has no items left, per spec.md
// §4.5's remove-item rule ("delete any PO that now has zero items").
func (s *Store) DeletePurchaseOrder(ctx context.Context, id uuid.UUID) error {
	_, err := s.q(ctx).Exec(ctx, `DELETE FROM purchase_orders WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("store: delete purchase order: %w", err)
	}
	return nil
}

// ListPurchaseOrderItems loads every line on a PO.
func (s *Store) ListPurchaseOrderItems(ctx context.Context, poID uuid.UUID) ([]domain.PurchaseOrderItem, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT id, purchase_order_id, order_item_id, product_sku, vendor_sku, description,
		       qty, cost_per_box, original_cost, retail_price, subtotal, sell_by, status
		FROM purchase_order_items WHERE purchase_order_id=$1 ORDER BY id`, poID)
	if err != nil {
		return nil, fmt.Errorf("store: list po items: %w", err)
	}
	defer rows.Close()

	var items []domain.PurchaseOrderItem
	for rows.Next() {
		var it domain.PurchaseOrderItem
		var cost, original, retail, subtotal decimal.Decimal
		if err := rows.Scan(
			&it.ID, &it.PurchaseOrderID, &it.OrderItemID, &it.ProductSKU, &it.VendorSKU, &it.Description,
			&it.Qty, &cost, &original, &retail, &subtotal, &it.SellBy, &it.Status,
		); err != nil {
			return nil, fmt.Errorf("store: scan po item: %w", err)
		}
		it.CostPerBox = money.FromDecimal(cost)
		it.OriginalCost = money.FromDecimal(original)
		it.RetailPrice = money.FromDecimal(retail)
		it.Subtotal = money.FromDecimal(subtotal)
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListPurchaseOrderItemsByOrder loads every PO item for all POs under
// an order, used by the commission engine's vendor_cost calculation.
func (s *Store) ListPurchaseOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.PurchaseOrderItem, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT poi.id, poi.purchase_order_id, poi.order_item_id, poi.product_sku, poi.vendor_sku,
		       poi.description, poi.qty, poi.cost_per_box, poi.original_cost, poi.retail_price,
		       poi.subtotal, poi.sell_by, poi.status
		FROM purchase_order_items poi
		JOIN purchase_orders po ON po.id = poi.purchase_order_id
		WHERE po.order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("store: list po items by order: %w", err)
	}
	defer rows.Close()

	var items []domain.PurchaseOrderItem
	for rows.Next() {
		var it domain.PurchaseOrderItem
		var cost, original, retail, subtotal decimal.Decimal
		if err := rows.Scan(
			&it.ID, &it.PurchaseOrderID, &it.OrderItemID, &it.ProductSKU, &it.VendorSKU, &it.Description,
			&it.Qty, &cost, &original, &retail, &subtotal, &it.SellBy, &it.Status,
		); err != nil {
			return nil, fmt.Errorf("store: scan po item: %w", err)
		}
		it.CostPerBox = money.FromDecimal(cost)
		it.OriginalCost = money.FromDecimal(original)
		it.RetailPrice = money.FromDecimal(retail)
		it.Subtotal = money.FromDecimal(subtotal)
		items = append(items, it)
	}
	return items, rows.Err()
}

// InsertPurchaseOrderItem adds a line to a draft PO.
func (s *Store) InsertPurchaseOrderItem(ctx context.Context, it *domain.PurchaseOrderItem) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO purchase_order_items (
			id, purchase_order_id, order_item_id, product_sku, vendor_sku, description,
			qty, cost_per_box, original_cost, retail_price, subtotal, sell_by, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		it.ID, it.PurchaseOrderID, it.OrderItemID, it.ProductSKU, it.VendorSKU, it.Description,
		it.Qty, it.CostPerBox.Decimal(), it.OriginalCost.Decimal(), it.RetailPrice.Decimal(),
		it.Subtotal.Decimal(), it.SellBy, it.Status,
	)
	if err != nil {
		return fmt.Errorf("store: insert po item: %w", err)
	}
	return nil
}

// UpdatePurchaseOrderItemStatus advances one line's status.
func (s *Store) UpdatePurchaseOrderItemStatus(ctx context.Context, itemID uuid.UUID, status domain.PurchaseOrderItemStatus) error {
	_, err := s.q(ctx).Exec(ctx, `UPDATE purchase_order_items SET status=$2 WHERE id=$1`, itemID, status)
	if err != nil {
		return fmt.Errorf("store: update po item status: %w", err)
	}
	return nil
}

// DeletePurchaseOrderItemsByOrderItem removes the PO item(s) linked to
// a removed order item (FK), per spec.md §4.5.
func (s *Store) DeletePurchaseOrderItemsByOrderItem(ctx context.Context, orderItemID uuid.UUID) error {
	_, err := s.q(ctx).Exec(ctx, `DELETE FROM purchase_order_items WHERE order_item_id=$1`, orderItemID)
	if err != nil {
		return fmt.Errorf("store: delete po items by order item: %w", err)
	}
	return nil
}

// CountPurchaseOrderItems reports how many lines remain on a PO, used
// to decide whether an emptied PO should be deleted.
func (s *Store) CountPurchaseOrderItems(ctx context.Context, poID uuid.UUID) (int, error) {
	var n int
	err := s.q(ctx).QueryRow(ctx, `SELECT count(*) FROM purchase_order_items WHERE purchase_order_id=$1`, poID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count po items: %w", err)
	}
	return n, nil
}

// InsertPOActivityLog appends a PO audit row.
func (s *Store) InsertPOActivityLog(ctx context.Context, l *domain.POActivityLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO po_activity_log (id, purchase_order_id, action, detail, performed_by, created_at)
		VALUES ($1,$2,$3,$4,$5,now())`,
		l.ID, l.PurchaseOrderID, l.Action, l.Detail, l.PerformedBy,
	)
	if err != nil {
		return fmt.Errorf("store: insert po activity log: %w", err)
	}
	return nil
}

// InsertEDITransaction records one outbound 850 dispatch attempt.
func (s *Store) InsertEDITransaction(ctx context.Context, t *domain.EDITransaction) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO edi_transactions (id, purchase_order_id, interchange_control_num, direction, document_type, status, payload, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())`,
		t.ID, t.PurchaseOrderID, t.InterchangeControlNum, t.Direction, t.DocumentType, t.Status, t.Payload,
	)
	if err != nil {
		return fmt.Errorf("store: insert edi transaction: %w", err)
	}
	return nil
}

// UpdateEDITransactionStatus transitions a dispatch row, e.g. pending->sent.
func (s *Store) UpdateEDITransactionStatus(ctx context.Context, id uuid.UUID, status string, sentAt *time.Time) error {
	_, err := s.q(ctx).Exec(ctx, `UPDATE edi_transactions SET status=$2, sent_at=$3 WHERE id=$1`, id, status, sentAt)
	if err != nil {
		return fmt.Errorf("store: update edi transaction status: %w", err)
	}
	return nil
}

// NextPONumber mints a PO-<VENDORCODE>-<ts>-<rand> number, spec.md §4.6.
func (s *Store) NextPONumber(ctx context.Context, vendorCode string) (string, error) {
	tok, err := generateToken(3)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%s-%d-%s", vendorCode, time.Now().UTC().Unix(), tok[:4]), nil
}
