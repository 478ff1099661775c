package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

// GetOrCreateCart finds the cart for an anonymous session, creating one
// with a fresh expiry if absent.
func (s *Store) GetOrCreateCart(ctx context.Context, sessionID string, ttl string) (*domain.Cart, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, session_id, customer_id, subtotal, promo_code_id, discount_amount, created_at, updated_at, expires_at
		FROM carts WHERE session_id=$1`, sessionID)
	c, err := scanCart(row)
	if err == nil {
		return c, nil
	}
	if !isDomainNotFound(err) {
		return nil, err
	}

	id := uuid.New()
	row = s.q(ctx).QueryRow(ctx, `
		INSERT INTO carts (id, session_id, subtotal, discount_amount, created_at, updated_at, expires_at)
		VALUES ($1,$2,0,0,now(),now(),now()+$3::interval)
		RETURNING id, session_id, customer_id, subtotal, promo_code_id, discount_amount, created_at, updated_at, expires_at`,
		id, sessionID, ttl,
	)
	return scanCart(row)
}

func isDomainNotFound(err error) bool {
	return domain.IsCode(err, domain.ENOTFOUND)
}

func scanCart(row interface {
	Scan(dest ...any) error
}) (*domain.Cart, error) {
	var c domain.Cart
	var subtotal, discount decimal.Decimal
	if err := row.Scan(&c.ID, &c.SessionID, &c.CustomerID, &subtotal, &c.PromoCodeID, &discount,
		&c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.scanCart", "cart", "")
		}
		return nil, fmt.Errorf("store: scan cart: %w", err)
	}
	c.Subtotal = money.FromDecimal(subtotal)
	c.DiscountAmount = money.FromDecimal(discount)
	return &c, nil
}

// ListCartItems loads every line in a cart.
func (s *Store) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT id, cart_id, product_id, sku_id, vendor_id, name, collection, num_boxes,
		       sqft_needed, unit_price, subtotal, sell_by, price_tier, is_sample,
		       weight_per_box_lbs, freight_class
		FROM cart_items WHERE cart_id=$1 ORDER BY id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("store: list cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		var sqft, unitPrice, subtotal, weight decimal.Decimal
		if err := rows.Scan(
			&it.ID, &it.CartID, &it.ProductID, &it.SKUID, &it.VendorID, &it.Name, &it.Collection, &it.NumBoxes,
			&sqft, &unitPrice, &subtotal, &it.SellBy, &it.PriceTier, &it.IsSample,
			&weight, &it.FreightClass,
		); err != nil {
			return nil, fmt.Errorf("store: scan cart item: %w", err)
		}
		it.SqftNeeded = money.FromDecimal(sqft)
		it.UnitPrice = money.FromDecimal(unitPrice)
		it.Subtotal = money.FromDecimal(subtotal)
		it.WeightPerBoxLbs = money.FromDecimal(weight)
		items = append(items, it)
	}
	return items, rows.Err()
}

// InsertCartItem adds a line to a cart.
func (s *Store) InsertCartItem(ctx context.Context, it *domain.CartItem) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, product_id, sku_id, vendor_id, name, collection,
			num_boxes, sqft_needed, unit_price, subtotal, sell_by, price_tier, is_sample,
			weight_per_box_lbs, freight_class)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		it.ID, it.CartID, it.ProductID, it.SKUID, it.VendorID, it.Name, it.Collection,
		it.NumBoxes, it.SqftNeeded.Decimal(), it.UnitPrice.Decimal(), it.Subtotal.Decimal(),
		it.SellBy, it.PriceTier, it.IsSample, it.WeightPerBoxLbs.Decimal(), it.FreightClass,
	)
	if err != nil {
		return fmt.Errorf("store: insert cart item: %w", err)
	}
	return nil
}

// UpdateCartTotals persists a recalculated cart subtotal/discount.
func (s *Store) UpdateCartTotals(ctx context.Context, c *domain.Cart) error {
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE carts SET subtotal=$2, promo_code_id=$3, discount_amount=$4, updated_at=now() WHERE id=$1`,
		c.ID, c.Subtotal.Decimal(), c.PromoCodeID, c.DiscountAmount.Decimal(),
	)
	if err != nil {
		return fmt.Errorf("store: update cart totals: %w", err)
	}
	return nil
}

// DrainCart deletes a cart and its items after checkout converts them
// into an order, per spec.md §3's lifecycle note.
func (s *Store) DrainCart(ctx context.Context, cartID uuid.UUID) error {
	if _, err := s.q(ctx).Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID); err != nil {
		return fmt.Errorf("store: drain cart items: %w", err)
	}
	if _, err := s.q(ctx).Exec(ctx, `DELETE FROM carts WHERE id=$1`, cartID); err != nil {
		return fmt.Errorf("store: drain cart: %w", err)
	}
	return nil
}

// SweepExpiredCarts deletes carts past their expiry, part of the daily
// timer's cleanup pass.
func (s *Store) SweepExpiredCarts(ctx context.Context) error {
	if _, err := s.q(ctx).Exec(ctx, `
		DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM carts WHERE expires_at <= now())`); err != nil {
		return fmt.Errorf("store: sweep expired cart items: %w", err)
	}
	if _, err := s.q(ctx).Exec(ctx, `DELETE FROM carts WHERE expires_at <= now()`); err != nil {
		return fmt.Errorf("store: sweep expired carts: %w", err)
	}
	return nil
}

// GetQuoteForUpdate locks a quote row for conversion.
func (s *Store) GetQuoteForUpdate(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, quote_number, sales_rep_id, project_id, email, subtotal, discount_amount, total,
		       status, expires_at, created_at, updated_at
		FROM quotes WHERE id=$1 FOR UPDATE`, id)
	var q domain.Quote
	var subtotal, discount, total decimal.Decimal
	if err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.SalesRepID, &q.ProjectID, &q.Email, &subtotal, &discount, &total,
		&q.Status, &q.ExpiresAt, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetQuoteForUpdate", "quote", id.String())
		}
		return nil, fmt.Errorf("store: scan quote: %w", err)
	}
	q.Subtotal = money.FromDecimal(subtotal)
	q.DiscountAmount = money.FromDecimal(discount)
	q.Total = money.FromDecimal(total)
	return &q, nil
}

// ListQuoteItems loads every line on a quote.
func (s *Store) ListQuoteItems(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteItem, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT id, quote_id, product_id, sku_id, vendor_id, name, collection, num_boxes,
		       unit_price, subtotal, sell_by, price_tier
		FROM quote_items WHERE quote_id=$1 ORDER BY id`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("store: list quote items: %w", err)
	}
	defer rows.Close()

	var items []domain.QuoteItem
	for rows.Next() {
		var it domain.QuoteItem
		var unitPrice, subtotal decimal.Decimal
		if err := rows.Scan(
			&it.ID, &it.QuoteID, &it.ProductID, &it.SKUID, &it.VendorID, &it.Name, &it.Collection,
			&it.NumBoxes, &unitPrice, &subtotal, &it.SellBy, &it.PriceTier,
		); err != nil {
			return nil, fmt.Errorf("store: scan quote item: %w", err)
		}
		it.UnitPrice = money.FromDecimal(unitPrice)
		it.Subtotal = money.FromDecimal(subtotal)
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkQuoteConverted stamps a quote as converted into orderID, making
// it immutable per spec.md §3's lifecycle note.
func (s *Store) MarkQuoteConverted(ctx context.Context, quoteID, orderID uuid.UUID) error {
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE quotes SET status='converted', converted_order_id=$2, updated_at=now() WHERE id=$1`,
		quoteID, orderID,
	)
	if err != nil {
		return fmt.Errorf("store: mark quote converted: %w", err)
	}
	return nil
}
