package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

// GetVendor loads a vendor, including its EDI/SFTP dispatch config.
func (s *Store) GetVendor(ctx context.Context, id uuid.UUID) (*domain.Vendor, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, name, code, edi_qualifier, edi_id, sftp_host, sftp_user, notify_email, created_at, updated_at
		FROM vendors WHERE id=$1`, id)
	var v domain.Vendor
	if err := row.Scan(
		&v.ID, &v.Name, &v.Code, &v.EDIQualifier, &v.EDIID, &v.SFTPHost, &v.SFTPUser, &v.NotifyEmail,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetVendor", "vendor", id.String())
		}
		return nil, fmt.Errorf("store: scan vendor: %w", err)
	}
	return &v, nil
}

// GetSKU loads a sellable SKU with its parent product's sell_by/freight
// attributes denormalized onto the result for pricing/shipping use.
func (s *Store) GetSKU(ctx context.Context, id uuid.UUID) (*domain.SKU, *domain.Product, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT sku.id, sku.product_id, sku.vendor_sku, sku.cost_per_box, sku.retail_price,
		       sku.sqft_per_box, sku.weight_per_box_lbs, sku.price_basis, sku.cut_cost, sku.roll_cost,
		       sku.in_stock,
		       p.vendor_id, p.name, p.collection, p.description, p.sell_by, p.freight_class
		FROM skus sku JOIN products p ON p.id = sku.product_id
		WHERE sku.id=$1`, id)
	var sku domain.SKU
	var prod domain.Product
	var cost, retail, sqftPerBox, weight, cutCost, rollCost decimal.Decimal
	if err := row.Scan(
		&sku.ID, &sku.ProductID, &sku.VendorSKU, &cost, &retail, &sqftPerBox, &weight,
		&sku.PriceBasis, &cutCost, &rollCost, &sku.InStock,
		&prod.VendorID, &prod.Name, &prod.Collection, &prod.Description, &prod.SellBy, &prod.FreightClass,
	); err != nil {
		if IsNoRows(err) {
			return nil, nil, domain.NotFound("store.GetSKU", "sku", id.String())
		}
		return nil, nil, fmt.Errorf("store: scan sku: %w", err)
	}
	sku.CostPerBox = money.FromDecimal(cost)
	sku.RetailPrice = money.FromDecimal(retail)
	sku.SqftPerBox = money.FromDecimal(sqftPerBox)
	sku.WeightPerBoxLbs = money.FromDecimal(weight)
	sku.CutCost = money.FromDecimal(cutCost)
	sku.RollCost = money.FromDecimal(rollCost)
	prod.ID = sku.ProductID
	return &sku, &prod, nil
}

// UpsertScrapedSKU writes back a catalog item the scraper discovered,
// creating the product/SKU rows on first sight and updating pricing
// and inventory thereafter.
func (s *Store) UpsertScrapedSKU(ctx context.Context, vendorID uuid.UUID, p domain.ScrapedProduct) error {
	var productID uuid.UUID
	err := s.q(ctx).QueryRow(ctx, `
		INSERT INTO products (id, vendor_id, name, collection, description, sell_by, freight_class)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (vendor_id, name, collection) DO UPDATE SET description=$5, updated_at=now()
		RETURNING id`,
		uuid.New(), vendorID, p.Name, p.Collection, p.Description, p.SellBy, p.FreightClass,
	).Scan(&productID)
	if err != nil {
		return fmt.Errorf("store: upsert scraped product: %w", err)
	}

	cost := money.FromFloat(p.CostPerBox)
	sqftPerBox := money.FromFloat(p.SqftPerBox)
	weight := money.FromFloat(p.WeightPerBoxLbs)

	_, err = s.q(ctx).Exec(ctx, `
		INSERT INTO skus (id, product_id, vendor_sku, cost_per_box, sqft_per_box, weight_per_box_lbs, in_stock)
		VALUES ($1,$2,$3,$4,$5,$6,true)
		ON CONFLICT (product_id, vendor_sku) DO UPDATE SET
			cost_per_box=$4, sqft_per_box=$5, weight_per_box_lbs=$6, in_stock=true, updated_at=now()`,
		uuid.New(), productID, p.VendorSKU, cost.Decimal(), sqftPerBox.Decimal(), weight.Decimal(),
	)
	if err != nil {
		return fmt.Errorf("store: upsert scraped sku: %w", err)
	}
	return nil
}
