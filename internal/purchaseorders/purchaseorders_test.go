package purchaseorders_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

func TestDerivePOStatus_AllReceivedIsFulfilled(t *testing.T) {
	items := []domain.PurchaseOrderItem{
		{Status: domain.POItemReceived},
		{Status: domain.POItemReceived},
	}
	assert.Equal(t, domain.POStatusFulfilled, domain.DerivePOStatus(domain.POStatusAcknowledged, items))
}

func TestDerivePOStatus_AllCancelledIsCancelled(t *testing.T) {
	items := []domain.PurchaseOrderItem{
		{Status: domain.POItemCancelled},
		{Status: domain.POItemCancelled},
	}
	assert.Equal(t, domain.POStatusCancelled, domain.DerivePOStatus(domain.POStatusSent, items))
}

func TestDerivePOStatus_MixedLeavesCurrentStatus(t *testing.T) {
	items := []domain.PurchaseOrderItem{
		{Status: domain.POItemReceived},
		{Status: domain.POItemShipped},
	}
	assert.Equal(t, domain.POStatusAcknowledged, domain.DerivePOStatus(domain.POStatusAcknowledged, items))
}

func TestDerivePOStatus_NoItemsLeavesCurrentStatus(t *testing.T) {
	assert.Equal(t, domain.POStatusDraft, domain.DerivePOStatus(domain.POStatusDraft, nil))
}

func TestPurchaseOrder_DeriveIsRevised(t *testing.T) {
	cases := []struct {
		revision int
		revised  bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{5, true},
	}
	for _, tc := range cases {
		po := domain.PurchaseOrder{Revision: tc.revision}
		po.DeriveIsRevised()
		assert.Equal(t, tc.revised, po.IsRevised, "revision %d", tc.revision)
	}
}

func TestPurchaseOrderItem_Recalculate(t *testing.T) {
	item := domain.PurchaseOrderItem{CostPerBox: money.FromCents(1250), Qty: 4}
	item.Recalculate()
	assert.True(t, item.Subtotal.Equal(money.FromCents(5000)))
}

func TestSKU_NormalizedCostPerBox_PerSqftMultipliesUp(t *testing.T) {
	sku := domain.SKU{
		CostPerBox: money.FromCents(250), // $2.50/sqft
		SqftPerBox: money.FromCents(3200),
		PriceBasis: domain.PriceBasisPerSqft,
	}
	got := sku.NormalizedCostPerBox("")
	assert.True(t, got.Equal(money.FromCents(8000)), "want $80.00 per box, got %s", got)
}

func TestSKU_NormalizedCostPerBox_PerBoxPassesThrough(t *testing.T) {
	sku := domain.SKU{CostPerBox: money.FromCents(8000), PriceBasis: domain.PriceBasisPerBox}
	got := sku.NormalizedCostPerBox("")
	assert.True(t, got.Equal(money.FromCents(8000)))
}

func TestSKU_NormalizedCostPerBox_CutTierOverridesBase(t *testing.T) {
	sku := domain.SKU{
		CostPerBox: money.FromCents(8000),
		PriceBasis: domain.PriceBasisPerBox,
		CutCost:    money.FromCents(12000),
	}
	got := sku.NormalizedCostPerBox(domain.PriceTierCut)
	assert.True(t, got.Equal(money.FromCents(12000)))
}

func TestSKU_NormalizedCostPerBox_RollTierOverridesBase(t *testing.T) {
	sku := domain.SKU{
		CostPerBox: money.FromCents(8000),
		PriceBasis: domain.PriceBasisPerBox,
		RollCost:   money.FromCents(60000),
	}
	got := sku.NormalizedCostPerBox(domain.PriceTierRoll)
	assert.True(t, got.Equal(money.FromCents(60000)))
}

func TestSKU_NormalizedCostPerBox_CutTierFallsBackWhenUnset(t *testing.T) {
	sku := domain.SKU{CostPerBox: money.FromCents(8000), PriceBasis: domain.PriceBasisPerBox}
	got := sku.NormalizedCostPerBox(domain.PriceTierCut)
	assert.True(t, got.Equal(money.FromCents(8000)))
}

func TestVendor_UsesEDI(t *testing.T) {
	assert.False(t, (&domain.Vendor{}).UsesEDI())
	assert.True(t, (&domain.Vendor{SFTPHost: "sftp.shawinc.example"}).UsesEDI())
}

