package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

const orderSelectColumns = `
	id, order_number, email, customer_id, trade_customer_id, sales_rep_id, project_id,
	delivery, carrier, service, transit_days, residential, liftgate, is_fallback_rate,
	shipping_name, shipping_line1, shipping_line2, shipping_city, shipping_state,
	shipping_postal_code, shipping_country, shipping_phone,
	subtotal, shipping, sample_shipping, discount_amount, total, amount_paid, refund_amount,
	promo_code_id, status, tracking_number, cancel_reason,
	confirmed_at, shipped_at, delivered_at, cancelled_at, refunded_at,
	created_at, updated_at`

// LockOrderForUpdate takes a row-level lock on the order, per spec.md
// §4.1's requirement that every mutation touching totals, status, or
// payments starts by locking its target order. Must be called inside a
// transaction opened by WithTx.
func (s *Store) LockOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+orderSelectColumns+` FROM orders WHERE id = $1 FOR UPDATE`, orderID)
	return scanOrder(row)
}

// GetOrder reads an order without locking it (read-only paths).
func (s *Store) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	row := s.q(ctx).QueryRow(ctx, `SELECT `+orderSelectColumns+` FROM orders WHERE id = $1`, orderID)
	return scanOrder(row)
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var subtotal, shipping, sampleShipping, discount, total, amountPaid, refundAmount decimal.Decimal
	var name, line1, line2, city, state, postal, country, phone string
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.Email, &o.CustomerID, &o.TradeCustomerID, &o.SalesRepID, &o.ProjectID,
		&o.Delivery, &o.Carrier, &o.Service, &o.TransitDays, &o.Residential, &o.Liftgate, &o.IsFallbackRate,
		&name, &line1, &line2, &city, &state, &postal, &country, &phone,
		&subtotal, &shipping, &sampleShipping, &discount, &total, &amountPaid, &refundAmount,
		&o.PromoCodeID, &o.Status, &o.TrackingNumber, &o.CancelReason,
		&o.ConfirmedAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt, &o.RefundedAt,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetOrder", "order", "")
		}
		return nil, fmt.Errorf("store: scan order: %w", err)
	}
	o.Subtotal = money.FromDecimal(subtotal)
	o.Shipping = money.FromDecimal(shipping)
	o.SampleShipping = money.FromDecimal(sampleShipping)
	o.DiscountAmount = money.FromDecimal(discount)
	o.Total = money.FromDecimal(total)
	o.AmountPaid = money.FromDecimal(amountPaid)
	o.RefundAmount = money.FromDecimal(refundAmount)
	if line1 != "" || postal != "" {
		o.ShippingAddress = &domain.ShippingAddress{
			Name: name, Line1: line1, Line2: line2, City: city, State: state,
			PostalCode: postal, Country: country, Phone: phone,
		}
	}
	return &o, nil
}

// CreateOrder inserts a new order row, assigning ID/timestamps.
func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	row := s.q(ctx).QueryRow(ctx, `
		INSERT INTO orders (
			id, order_number, email, customer_id, trade_customer_id, sales_rep_id, project_id,
			delivery, carrier, service, transit_days, residential, liftgate, is_fallback_rate,
			subtotal, shipping, sample_shipping, discount_amount, total, amount_paid, refund_amount,
			promo_code_id, status, tracking_number, cancel_reason
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderNumber, o.Email, o.CustomerID, o.TradeCustomerID, o.SalesRepID, o.ProjectID,
		o.Delivery, o.Carrier, o.Service, o.TransitDays, o.Residential, o.Liftgate, o.IsFallbackRate,
		o.Subtotal.Decimal(), o.Shipping.Decimal(), o.SampleShipping.Decimal(), o.DiscountAmount.Decimal(),
		o.Total.Decimal(), o.AmountPaid.Decimal(), o.RefundAmount.Decimal(),
		o.PromoCodeID, o.Status, o.TrackingNumber, o.CancelReason,
	)
	if err := row.Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("store: create order: %w", err)
	}
	return nil
}

// UpdateOrderTotals persists the recalculated money fields, invariant 1.
func (s *Store) UpdateOrderTotals(ctx context.Context, o *domain.Order) error {
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE orders SET subtotal=$2, shipping=$3, sample_shipping=$4, discount_amount=$5,
		       total=$6, amount_paid=$7, refund_amount=$8, updated_at=now()
		WHERE id=$1`,
		o.ID, o.Subtotal.Decimal(), o.Shipping.Decimal(), o.SampleShipping.Decimal(),
		o.DiscountAmount.Decimal(), o.Total.Decimal(), o.AmountPaid.Decimal(), o.RefundAmount.Decimal(),
	)
	if err != nil {
		return fmt.Errorf("store: update order totals: %w", err)
	}
	return nil
}

// UpdateOrderItemPrice persists a rep-only price adjustment's new unit
// price and recalculated subtotal, spec.md §4.5.
func (s *Store) UpdateOrderItemPrice(ctx context.Context, it *domain.OrderItem) error {
	_, err := s.q(ctx).Exec(ctx, `UPDATE order_items SET unit_price=$2, subtotal=$3 WHERE id=$1`,
		it.ID, it.UnitPrice.Decimal(), it.Subtotal.Decimal())
	if err != nil {
		return fmt.Errorf("store: update order item price: %w", err)
	}
	return nil
}

// UpdateOrderStatus persists a status transition plus its associated
// timestamp/tracking fields. Every one of those fields is written from o
// as given, so callers pass the loaded order with the transition's
// fields changed on it.
func (s *Store) UpdateOrderStatus(ctx context.Context, o *domain.Order) error {
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE orders SET
			status=$2, tracking_number=$3, cancel_reason=$4,
			confirmed_at=$5, shipped_at=$6, delivered_at=$7, cancelled_at=$8, refunded_at=$9,
			updated_at=now()
		WHERE id=$1`,
		o.ID, o.Status, o.TrackingNumber, o.CancelReason,
		o.ConfirmedAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt, o.RefundedAt,
	)
	if err != nil {
		return fmt.Errorf("store: update order status: %w", err)
	}
	return nil
}

// UpdateOrderDelivery persists a delivery-method change (pickup <->
// shipping), spec.md §4.5's two-phase flow.
func (s *Store) UpdateOrderDelivery(ctx context.Context, o *domain.Order, addr *domain.ShippingAddress) error {
	var line1, line2, city, state, postal, country, phone, name string
	if addr != nil {
		name, line1, line2, city, state, postal, country, phone =
			addr.Name, addr.Line1, addr.Line2, addr.City, addr.State, addr.PostalCode, addr.Country, addr.Phone
	}
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE orders SET
			delivery=$2, carrier=$3, service=$4, transit_days=$5, residential=$6, liftgate=$7,
			is_fallback_rate=$8, shipping_name=$9, shipping_line1=$10, shipping_line2=$11,
			shipping_city=$12, shipping_state=$13, shipping_postal_code=$14, shipping_country=$15,
			shipping_phone=$16, updated_at=now()
		WHERE id=$1`,
		o.ID, o.Delivery, o.Carrier, o.Service, o.TransitDays, o.Residential, o.Liftgate, o.IsFallbackRate,
		name, line1, line2, city, state, postal, country, phone,
	)
	if err != nil {
		return fmt.Errorf("store: update order delivery: %w", err)
	}
	return nil
}

// ListOrderItems loads every line on an order.
func (s *Store) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT id, order_id, product_id, sku_id, vendor_id, name, collection, description,
		       num_boxes, sqft_needed, unit_price, subtotal, sell_by, price_tier, is_sample,
		       weight_per_box_lbs, freight_class, sqft_per_box
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("store: list order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		var sqftNeeded, unitPrice, subtotal, weight, sqftPerBox decimal.Decimal
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.SKUID, &it.VendorID, &it.Name, &it.Collection, &it.Description,
			&it.NumBoxes, &sqftNeeded, &unitPrice, &subtotal, &it.SellBy, &it.PriceTier, &it.IsSample,
			&weight, &it.FreightClass, &sqftPerBox,
		); err != nil {
			return nil, fmt.Errorf("store: scan order item: %w", err)
		}
		it.SqftNeeded = money.FromDecimal(sqftNeeded)
		it.UnitPrice = money.FromDecimal(unitPrice)
		it.Subtotal = money.FromDecimal(subtotal)
		it.WeightPerBoxLbs = money.FromDecimal(weight)
		it.SqftPerBox = money.FromDecimal(sqftPerBox)
		items = append(items, it)
	}
	return items, rows.Err()
}

// InsertOrderItem adds a line to an order.
func (s *Store) InsertOrderItem(ctx context.Context, it *domain.OrderItem) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO order_items (
			id, order_id, product_id, sku_id, vendor_id, name, collection, description,
			num_boxes, sqft_needed, unit_price, subtotal, sell_by, price_tier, is_sample,
			weight_per_box_lbs, freight_class, sqft_per_box
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		it.ID, it.OrderID, it.ProductID, it.SKUID, it.VendorID, it.Name, it.Collection, it.Description,
		it.NumBoxes, it.SqftNeeded.Decimal(), it.UnitPrice.Decimal(), it.Subtotal.Decimal(),
		it.SellBy, it.PriceTier, it.IsSample, it.WeightPerBoxLbs.Decimal(), it.FreightClass, it.SqftPerBox.Decimal(),
	)
	if err != nil {
		return fmt.Errorf("store: insert order item: %w", err)
	}
	return nil
}

// DeleteOrderItem removes a line. Callers must delete linked PO items
// first (FK), per spec.md §4.5's remove-item rule.
func (s *Store) DeleteOrderItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := s.q(ctx).Exec(ctx, `DELETE FROM order_items WHERE id=$1`, itemID)
	if err != nil {
		return fmt.Errorf("store: delete order item: %w", err)
	}
	return nil
}

// InsertOrderActivityLog appends an audit row, written in the same
// transaction as the change it describes.
func (s *Store) InsertOrderActivityLog(ctx context.Context, l *domain.OrderActivityLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO order_activity_log (id, order_id, performed_by, performed_by_id, action, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())`,
		l.ID, l.OrderID, l.PerformedBy, l.PerformedByID, l.Action, l.Detail,
	)
	if err != nil {
		return fmt.Errorf("store: insert order activity log: %w", err)
	}
	return nil
}

// InsertOrderPriceAdjustment appends the rep-only audit row spec.md
// §4.5 requires for line-item price adjustments.
func (s *Store) InsertOrderPriceAdjustment(ctx context.Context, a *domain.OrderPriceAdjustment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO order_price_adjustments (id, order_id, order_item_id, rep_id, old_price, new_price, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())`,
		a.ID, a.OrderID, a.OrderItemID, a.RepID, a.OldPrice.Decimal(), a.NewPrice.Decimal(), a.Reason,
	)
	if err != nil {
		return fmt.Errorf("store: insert price adjustment: %w", err)
	}
	return nil
}

// NextOrderNumber mints a human-readable, unique order number.
func (s *Store) NextOrderNumber(ctx context.Context) (string, error) {
	tok, err := generateToken(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UTC().Unix(), tok[:6]), nil
}
