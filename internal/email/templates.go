package email

import "time"

// EmailTemplate defines the interface for email templates
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// TwoFactorCodeEmail carries a staff login's 6-digit verification code,
// spec.md §4.2.
type TwoFactorCodeEmail struct {
	Email     string
	Code      string
	ExpiresAt time.Time
}

func (e TwoFactorCodeEmail) Subject() string      { return "Your verification code" }
func (e TwoFactorCodeEmail) TemplateName() string { return "two_factor_code.html" }

// OrderConfirmationEmail represents an order confirmation email, sent
// after a retail checkout creates an order.
type OrderConfirmationEmail struct {
	OrderNumber   string
	CustomerName  string
	Email         string
	OrderDate     time.Time
	Items         []OrderItem
	SubtotalCents int64
	ShippingCents int64
	DiscountCents int64
	TotalCents    int64
	ShippingAddr  Address
}

func (e OrderConfirmationEmail) Subject() string      { return "Order Confirmation - " + e.OrderNumber }
func (e OrderConfirmationEmail) TemplateName() string { return "order_confirmation.html" }

// ShippingConfirmationEmail represents a shipping confirmation email.
type ShippingConfirmationEmail struct {
	OrderNumber    string
	CustomerName   string
	Email          string
	ShippedDate    time.Time
	Items          []OrderItem
	ShippingAddr   Address
	Carrier        string
	TrackingNumber string
	TrackingURL    string
}

func (e ShippingConfirmationEmail) Subject() string {
	return "Your Order Has Shipped - " + e.OrderNumber
}
func (e ShippingConfirmationEmail) TemplateName() string { return "shipping_confirmation.html" }

// RefundIssuedEmail notifies a buyer that a refund posted to their order.
type RefundIssuedEmail struct {
	OrderNumber string
	Email       string
	AmountCents int64
	Reason      string
}

func (e RefundIssuedEmail) Subject() string      { return "Refund Issued - " + e.OrderNumber }
func (e RefundIssuedEmail) TemplateName() string { return "refund_issued.html" }

// PODispatchFailureEmail notifies staff that a vendor PO's EDI or email
// dispatch failed, spec.md §4.6's dispatch fallback path.
type PODispatchFailureEmail struct {
	PONumber   string
	VendorName string
	Reason     string
}

func (e PODispatchFailureEmail) Subject() string      { return "PO Dispatch Failed - " + e.PONumber }
func (e PODispatchFailureEmail) TemplateName() string { return "po_dispatch_failure.html" }

// RepNotificationEmail notifies a sales rep of an order newly assigned
// or updated on their book.
type RepNotificationEmail struct {
	RepEmail    string
	OrderNumber string
	Event       string // "assigned", "confirmed", "refunded"
}

func (e RepNotificationEmail) Subject() string {
	return "Order " + e.OrderNumber + " - " + e.Event
}
func (e RepNotificationEmail) TemplateName() string { return "rep_notification.html" }

// TierPromotionEmail notifies a trade customer their account tier
// changed after crossing a cumulative-spend threshold.
type TierPromotionEmail struct {
	Email   string
	NewTier string
}

func (e TierPromotionEmail) Subject() string      { return "You've been promoted to " + e.NewTier }
func (e TierPromotionEmail) TemplateName() string { return "tier_promotion.html" }

// ScrapeFailureEmail notifies staff that a vendor catalog scrape timed
// out or was reaped, spec.md §4.9.
type ScrapeFailureEmail struct {
	VendorSourceID string
	JobID          string
	Reason         string
}

func (e ScrapeFailureEmail) Subject() string      { return "Vendor scrape failed: " + e.VendorSourceID }
func (e ScrapeFailureEmail) TemplateName() string { return "scrape_failure.html" }

// Supporting types

// OrderItem represents a line item on an order confirmation/shipping email.
type OrderItem struct {
	Name        string
	Collection  string
	NumBoxes    int
	PriceCents  int64
	TotalCents  int64
}

// Address represents a shipping address.
type Address struct {
	Name       string
	Company    string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}
