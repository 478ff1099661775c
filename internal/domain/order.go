package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/money"
)

// OrderStatus is the order lifecycle state, per spec.md §3.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

// DeliveryMethod selects pickup vs shipping fulfillment.
type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryShipping DeliveryMethod = "shipping"
)

// BalanceStatus is derived, never stored: spec.md §3 invariant 3.
type BalanceStatus string

const (
	BalancePaid   BalanceStatus = "paid"
	BalanceCredit BalanceStatus = "credit"
	BalanceDue    BalanceStatus = "balance_due"
)

// balanceEpsilon is the ±0.01 tolerance in invariant 3.
var balanceEpsilon = money.FromCents(1)

// DeriveBalanceStatus implements spec.md §3 invariant 3.
func DeriveBalanceStatus(amountPaid, total money.Amount) BalanceStatus {
	switch {
	case money.AbsDiffLTE(amountPaid, total, balanceEpsilon):
		return BalancePaid
	case amountPaid.GreaterThan(total):
		return BalanceCredit
	default:
		return BalanceDue
	}
}

// ShippingAddress is a normalized postal address.
type ShippingAddress struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// Order is the durable record a cart/quote/rep/admin flow produces. Never
// deleted, only transitioned.
type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	Email           string
	CustomerID      *uuid.UUID
	TradeCustomerID *uuid.UUID
	SalesRepID      *uuid.UUID
	ProjectID       *uuid.UUID

	Delivery        DeliveryMethod
	ShippingAddress *ShippingAddress
	Carrier         string
	Service         string
	TransitDays     int
	Residential     bool
	Liftgate        bool
	IsFallbackRate  bool

	Subtotal       money.Amount
	Shipping       money.Amount
	SampleShipping money.Amount
	DiscountAmount money.Amount
	Total          money.Amount
	AmountPaid     money.Amount
	RefundAmount   money.Amount

	PromoCodeID *uuid.UUID

	Status OrderStatus

	TrackingNumber string
	CancelReason   string

	ConfirmedAt *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	RefundedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BalanceStatus derives the order's current balance status.
func (o *Order) BalanceStatus() BalanceStatus {
	return DeriveBalanceStatus(o.AmountPaid, o.Total)
}

// Recalculate enforces invariant 1: total = subtotal + shipping +
// sample_shipping - discount_amount.
func (o *Order) Recalculate() {
	o.Total = o.Subtotal.Add(o.Shipping).Add(o.SampleShipping).Sub(o.DiscountAmount)
}

// SellBy controls whether a line item's quantity is boxes or units.
type SellBy string

const (
	SellBySqft SellBy = "sqft"
	SellByUnit SellBy = "unit"
)

// PriceTier distinguishes carpet cut/roll pricing; empty for non-carpet.
type PriceTier string

const (
	PriceTierCut  PriceTier = "cut"
	PriceTierRoll PriceTier = "roll"
)

// OrderItem is a line on an order.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID *uuid.UUID
	SKUID     *uuid.UUID
	VendorID  uuid.UUID

	Name        string
	Collection  string
	Description string

	NumBoxes   int
	SqftNeeded money.Amount
	UnitPrice  money.Amount
	Subtotal   money.Amount

	SellBy    SellBy
	PriceTier PriceTier
	IsSample  bool

	WeightPerBoxLbs money.Amount
	FreightClass    string
	SqftPerBox      money.Amount
}

// Recalculate derives the item's subtotal from quantity and unit price.
func (i *OrderItem) Recalculate() {
	i.Subtotal = i.UnitPrice.MulInt(i.NumBoxes)
}

// IsProductBacked reports whether the item is tied to a catalog SKU (vs.
// a custom rep/admin-authored line).
func (i *OrderItem) IsProductBacked() bool {
	return i.SKUID != nil || i.ProductID != nil
}

// RequiresPurchaseOrder reports whether this item must be represented in
// exactly one purchase_order_item, per spec.md invariant 4: non-sample,
// product-backed lines only.
func (i *OrderItem) RequiresPurchaseOrder() bool {
	return !i.IsSample && i.IsProductBacked()
}

// OrderActivityLog is an append-only audit row written in the same
// transaction as the change it describes (spec.md §5).
type OrderActivityLog struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	PerformedBy   string
	PerformedByID *uuid.UUID
	Action        string
	Detail        map[string]any
	CreatedAt     time.Time
}

// OrderPriceAdjustment is the audit row spec.md §4.5 requires for
// rep-only price adjustments on line items.
type OrderPriceAdjustment struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	RepID       uuid.UUID
	OldPrice    money.Amount
	NewPrice    money.Amount
	Reason      string
	CreatedAt   time.Time
}
