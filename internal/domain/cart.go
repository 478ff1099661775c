package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/money"
)

// Cart is the anonymous/customer pre-checkout basket. Carts expire and
// are swept by a timer (spec.md §4.10); they never become orders
// directly — checkout copies cart items into a new Order.
type Cart struct {
	ID         uuid.UUID
	SessionID  string
	CustomerID *uuid.UUID

	Subtotal money.Amount

	PromoCodeID    *uuid.UUID
	DiscountAmount money.Amount

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Recalculate enforces the cart analogue of order invariant 1.
func (c *Cart) Recalculate(items []CartItem) {
	c.Subtotal = money.Zero
	for _, it := range items {
		c.Subtotal = c.Subtotal.Add(it.Subtotal)
	}
}

// CartItem mirrors OrderItem's pricing shape but carries no vendor PO
// linkage, since carts never generate purchase orders.
type CartItem struct {
	ID     uuid.UUID
	CartID uuid.UUID

	ProductID *uuid.UUID
	SKUID     *uuid.UUID
	VendorID  uuid.UUID

	Name       string
	Collection string

	NumBoxes   int
	SqftNeeded money.Amount
	UnitPrice  money.Amount
	Subtotal   money.Amount

	SellBy    SellBy
	PriceTier PriceTier
	IsSample  bool

	WeightPerBoxLbs money.Amount
	FreightClass    string
}

// Recalculate derives the cart item's subtotal.
func (i *CartItem) Recalculate() {
	i.Subtotal = i.UnitPrice.MulInt(i.NumBoxes)
}

// Quote is a rep-authored, shareable cart snapshot with its own expiry,
// per spec.md §4.9. Converting a Quote to an Order copies QuoteItem rows
// into new OrderItem rows and stamps SalesRepID.
type Quote struct {
	ID         uuid.UUID
	QuoteNumber string
	SalesRepID uuid.UUID
	ProjectID  *uuid.UUID
	Email      string

	Subtotal       money.Amount
	DiscountAmount money.Amount
	Total          money.Amount

	Status    string // draft, sent, converted, expired
	ExpiresAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recalculate enforces the quote analogue of order invariant 1 (no
// shipping component — quotes are priced ex-freight).
func (q *Quote) Recalculate() {
	q.Total = q.Subtotal.Sub(q.DiscountAmount)
}

// QuoteItem is a line on a Quote.
type QuoteItem struct {
	ID      uuid.UUID
	QuoteID uuid.UUID

	ProductID *uuid.UUID
	SKUID     *uuid.UUID
	VendorID  uuid.UUID

	Name       string
	Collection string

	NumBoxes  int
	UnitPrice money.Amount
	Subtotal  money.Amount

	SellBy    SellBy
	PriceTier PriceTier
}

// Recalculate derives the quote item's subtotal.
func (i *QuoteItem) Recalculate() {
	i.Subtotal = i.UnitPrice.MulInt(i.NumBoxes)
}
