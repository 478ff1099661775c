package orders

import "github.com/floorworks/commerce/internal/domain"

// transitions enumerates every direct order-status transition the
// lifecycle endpoint accepts, spec.md §4.5. refunded is reachable only
// through the refund endpoint (Service.Refund), never this table, and
// cancelled is reachable from any non-refunded status regardless of
// this table (checked separately in Cancel).
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderPending:   {domain.OrderConfirmed},
	domain.OrderConfirmed: {domain.OrderShipped},
	domain.OrderShipped:   {domain.OrderDelivered},
	domain.OrderDelivered: {},
	domain.OrderCancelled: {},
	domain.OrderRefunded:  {},
}

// canTransition reports whether from->to is one of the direct forward
// transitions the status endpoint allows.
func canTransition(from, to domain.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// priorStage derives the stage an uncancelled order returns to from
// whichever stage timestamps Cancel left untouched: the latest of
// confirmed/shipped/delivered, or pending if the order was cancelled
// before ever confirming. Cancel deliberately never clears these
// timestamps, so they still hold the order's high-water mark.
func priorStage(o *domain.Order) domain.OrderStatus {
	switch {
	case o.DeliveredAt != nil:
		return domain.OrderDelivered
	case o.ShippedAt != nil:
		return domain.OrderShipped
	case o.ConfirmedAt != nil:
		return domain.OrderConfirmed
	default:
		return domain.OrderPending
	}
}
