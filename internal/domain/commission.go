package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/money"
)

// CommissionStatus tracks a rep's commission on one order. "paid" is
// terminal: recompute must never change a paid row, per spec.md §4.8.
type CommissionStatus string

const (
	CommissionPending   CommissionStatus = "pending"
	CommissionEarned    CommissionStatus = "earned"
	CommissionPaid      CommissionStatus = "paid"
	CommissionForfeited CommissionStatus = "forfeited"
)

// DefaultCostRatio is applied to order.total when an order has no
// purchase orders yet (vendor_cost is estimated rather than known).
var DefaultCostRatio = decimal.NewFromFloat(0.65)

// RepCommission is the one-row-per-order commission ledger entry,
// recomputed after every order mutation that has an assigned sales rep.
type RepCommission struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	RepID   uuid.UUID

	CommissionRate decimal.Decimal // e.g. 0.08 for 8%
	OrderTotal     money.Amount
	VendorCost     money.Amount
	Margin         money.Amount
	Amount         money.Amount

	Status CommissionStatus

	PaidAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalculateVendorCost sums non-cancelled PO item subtotals, or, if the
// order has no purchase orders at all, estimates it as
// order.total * DefaultCostRatio, per spec.md §4.8.
func CalculateVendorCost(orderTotal money.Amount, poItems []PurchaseOrderItem) money.Amount {
	if len(poItems) == 0 {
		return orderTotal.MulFloor(DefaultCostRatio)
	}
	cost := money.Zero
	for _, it := range poItems {
		if it.Status == POItemCancelled {
			continue
		}
		cost = cost.Add(it.Subtotal)
	}
	return cost
}

// CalculateCommission implements spec.md §4.8: margin = max(0, total -
// vendor_cost); amount = margin * rate.
func CalculateCommission(rate decimal.Decimal, orderTotal, vendorCost money.Amount) (margin, amount money.Amount) {
	margin = orderTotal.Sub(vendorCost)
	if margin.IsNegative() {
		margin = money.Zero
	}
	amount = margin.MulFloor(rate)
	return margin, amount
}

// DeriveCommissionStatus implements spec.md §4.8's status derivation:
// forfeited when the order is cancelled or refunded; earned when the
// order is delivered and fully paid; pending otherwise. Once paid,
// recomputation must preserve paid.
func DeriveCommissionStatus(current CommissionStatus, orderStatus OrderStatus, amountPaid, total money.Amount) CommissionStatus {
	if current == CommissionPaid {
		return CommissionPaid
	}
	switch {
	case orderStatus == OrderCancelled || orderStatus == OrderRefunded:
		return CommissionForfeited
	case orderStatus == OrderDelivered && !amountPaid.LessThan(total):
		return CommissionEarned
	default:
		return CommissionPending
	}
}
