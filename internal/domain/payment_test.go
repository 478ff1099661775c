package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

func amt(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.New(s)
	assert.NoError(t, err)
	return a
}

func TestDeriveAmountPaid_SumsChargesMinusRefunds(t *testing.T) {
	entries := []domain.PaymentLedgerEntry{
		{Type: domain.LedgerCharge, Amount: amt(t, "500.00")},
		{Type: domain.LedgerAdditionalCharge, Amount: amt(t, "50.00")},
		{Type: domain.LedgerRefund, Amount: amt(t, "-100.00")},
	}
	assert.True(t, domain.DeriveAmountPaid(entries).Equal(amt(t, "450.00")))
}

func TestSignedAmount_RefundIsAlwaysNegative(t *testing.T) {
	e := domain.PaymentLedgerEntry{Type: domain.LedgerRefund, Amount: amt(t, "100.00")}
	assert.True(t, e.SignedAmount().Equal(amt(t, "-100.00")), "a positively-recorded refund amount must still subtract")

	e2 := domain.PaymentLedgerEntry{Type: domain.LedgerRefund, Amount: amt(t, "-100.00")}
	assert.True(t, e2.SignedAmount().Equal(amt(t, "-100.00")))
}

func TestMaxRefundable_SubtractsIssuedRefunds(t *testing.T) {
	entries := []domain.PaymentLedgerEntry{
		{Type: domain.LedgerCharge, Amount: amt(t, "500.00")},
		{Type: domain.LedgerRefund, Amount: amt(t, "-200.00")},
	}
	assert.True(t, domain.MaxRefundable(entries).Equal(amt(t, "300.00")))
}

func TestMaxRefundable_NeverNegative(t *testing.T) {
	entries := []domain.PaymentLedgerEntry{
		{Type: domain.LedgerCharge, Amount: amt(t, "100.00")},
		{Type: domain.LedgerRefund, Amount: amt(t, "-100.00")},
	}
	assert.True(t, domain.MaxRefundable(entries).IsZero())
}

func TestDeriveBalanceStatus(t *testing.T) {
	total := amt(t, "100.00")
	cases := []struct {
		name   string
		paid   money.Amount
		status domain.BalanceStatus
	}{
		{"exact", amt(t, "100.00"), domain.BalancePaid},
		{"within one cent tolerance", money.FromCents(10001), domain.BalancePaid},
		{"overpaid", amt(t, "150.00"), domain.BalanceCredit},
		{"underpaid", amt(t, "50.00"), domain.BalanceDue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, domain.DeriveBalanceStatus(tc.paid, total))
		})
	}
}
