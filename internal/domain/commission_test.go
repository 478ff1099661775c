package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

func TestCalculateVendorCost_FallsBackToDefaultRatioWithoutPOs(t *testing.T) {
	total, _ := money.New("1000.00")
	cost := domain.CalculateVendorCost(total, nil)
	want, _ := money.New("650.00")
	assert.True(t, cost.Equal(want))
}

func TestCalculateVendorCost_SumsNonCancelledItems(t *testing.T) {
	p1, _ := money.New("300.00")
	p2, _ := money.New("100.00")
	p3, _ := money.New("999.00")
	items := []domain.PurchaseOrderItem{
		{Subtotal: p1, Status: domain.POItemOrdered},
		{Subtotal: p2, Status: domain.POItemReceived},
		{Subtotal: p3, Status: domain.POItemCancelled},
	}
	total, _ := money.New("1000.00")
	cost := domain.CalculateVendorCost(total, items)
	want, _ := money.New("400.00")
	assert.True(t, cost.Equal(want))
}

func TestCalculateCommission_MarginNeverNegative(t *testing.T) {
	total, _ := money.New("100.00")
	cost, _ := money.New("250.00")
	margin, amount := domain.CalculateCommission(decimal.NewFromFloat(0.08), total, cost)
	assert.True(t, margin.IsZero())
	assert.True(t, amount.IsZero())
}

func TestCalculateCommission_AppliesRateToMargin(t *testing.T) {
	total, _ := money.New("1000.00")
	cost, _ := money.New("600.00")
	margin, amount := domain.CalculateCommission(decimal.NewFromFloat(0.08), total, cost)
	wantMargin, _ := money.New("400.00")
	wantAmount, _ := money.New("32.00")
	assert.True(t, margin.Equal(wantMargin))
	assert.True(t, amount.Equal(wantAmount))
}

func TestDeriveCommissionStatus_PaidIsSticky(t *testing.T) {
	total, _ := money.New("100.00")
	status := domain.DeriveCommissionStatus(domain.CommissionPaid, domain.OrderCancelled, money.Zero, total)
	assert.Equal(t, domain.CommissionPaid, status)
}

func TestDeriveCommissionStatus_CancelledOrRefundedForfeits(t *testing.T) {
	total, _ := money.New("100.00")
	for _, status := range []domain.OrderStatus{domain.OrderCancelled, domain.OrderRefunded} {
		got := domain.DeriveCommissionStatus(domain.CommissionPending, status, money.Zero, total)
		assert.Equal(t, domain.CommissionForfeited, got, "status %s should forfeit", status)
	}
}

func TestDeriveCommissionStatus_DeliveredAndPaidIsEarned(t *testing.T) {
	total, _ := money.New("100.00")
	got := domain.DeriveCommissionStatus(domain.CommissionPending, domain.OrderDelivered, total, total)
	assert.Equal(t, domain.CommissionEarned, got)
}

func TestDeriveCommissionStatus_DeliveredButUnpaidIsPending(t *testing.T) {
	total, _ := money.New("100.00")
	partial, _ := money.New("50.00")
	got := domain.DeriveCommissionStatus(domain.CommissionPending, domain.OrderDelivered, partial, total)
	assert.Equal(t, domain.CommissionPending, got)
}
