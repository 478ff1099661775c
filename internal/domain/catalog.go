package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/money"
)

// Vendor is a flooring supplier whose catalog is ingested by the scraper
// and whose orders are grouped into one PurchaseOrder per order.
type Vendor struct {
	ID   uuid.UUID
	Name string
	Code string // short uppercase code used in PO numbers, e.g. "SHAW"

	EDIQualifier string // ISA sender qualifier for outbound 850s
	EDIID        string
	SFTPHost     string
	SFTPUser     string
	NotifyEmail  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UsesEDI reports whether the vendor is configured for EDI dispatch
// (vendor.edi_config.enabled in spec.md §4.6, modeled here as a
// non-empty SFTP host).
func (v *Vendor) UsesEDI() bool { return v.SFTPHost != "" }

// Product is a catalog entry grouping one or more SKUs (e.g. a
// collection/color), normalized from scraper ingestion.
type Product struct {
	ID         uuid.UUID
	VendorID   uuid.UUID
	Name       string
	Collection string
	Description string

	SellBy       SellBy
	FreightClass string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PriceBasis controls how a SKU's CostPerBox is normalized when it
// lands on a purchase order item, per spec.md §4.6.
type PriceBasis string

const (
	PriceBasisPerBox  PriceBasis = "per_box"
	PriceBasisPerSqft PriceBasis = "per_sqft"
)

// SKU is a sellable variant of a Product (a specific color/size), the
// unit the cart, quote, and order items actually reference.
type SKU struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	VendorSKU string

	CostPerBox      money.Amount
	RetailPrice     money.Amount
	SqftPerBox      money.Amount
	WeightPerBoxLbs money.Amount

	PriceBasis PriceBasis
	CutCost    money.Amount // carpet-only: cost when sold by the cut
	RollCost   money.Amount // carpet-only: cost when sold by the roll

	InStock bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizedCostPerBox implements spec.md §4.6's PO cost normalization:
// per_sqft cost is multiplied up to a per-box figure, and a carpet
// price_tier (cut/roll) on the order item overrides the base cost
// entirely.
func (s *SKU) NormalizedCostPerBox(priceTier PriceTier) money.Amount {
	switch priceTier {
	case PriceTierCut:
		if !s.CutCost.IsZero() {
			return s.CutCost
		}
	case PriceTierRoll:
		if !s.RollCost.IsZero() {
			return s.RollCost
		}
	}
	if s.PriceBasis == PriceBasisPerSqft {
		return s.CostPerBox.MulFloor(s.SqftPerBox.Decimal())
	}
	return s.CostPerBox
}
