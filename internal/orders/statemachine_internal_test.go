package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/floorworks/commerce/internal/domain"
)

func TestCanTransition_ForwardPath(t *testing.T) {
	cases := []struct {
		from, to domain.OrderStatus
		want     bool
	}{
		{domain.OrderPending, domain.OrderConfirmed, true},
		{domain.OrderConfirmed, domain.OrderShipped, true},
		{domain.OrderShipped, domain.OrderDelivered, true},
		{domain.OrderPending, domain.OrderShipped, false},
		{domain.OrderPending, domain.OrderDelivered, false},
		{domain.OrderDelivered, domain.OrderShipped, false},
		{domain.OrderConfirmed, domain.OrderPending, false},
		{domain.OrderCancelled, domain.OrderConfirmed, false},
		{domain.OrderRefunded, domain.OrderConfirmed, false},
	}
	for _, tc := range cases {
		got := canTransition(tc.from, tc.to)
		assert.Equal(t, tc.want, got, "canTransition(%s, %s)", tc.from, tc.to)
	}
}

func TestCanTransition_NeverReachesCancelledOrRefunded(t *testing.T) {
	for _, from := range []domain.OrderStatus{domain.OrderPending, domain.OrderConfirmed, domain.OrderShipped} {
		assert.False(t, canTransition(from, domain.OrderCancelled), "cancel goes through Service.Cancel, not the transition table")
		assert.False(t, canTransition(from, domain.OrderRefunded), "refunded goes through Service.Refund, not the transition table")
	}
}

func TestPriorStage_DerivesFromHighWaterMark(t *testing.T) {
	now := time.Now()

	t.Run("never confirmed", func(t *testing.T) {
		assert.Equal(t, domain.OrderPending, priorStage(&domain.Order{}))
	})

	t.Run("confirmed only", func(t *testing.T) {
		o := &domain.Order{ConfirmedAt: &now}
		assert.Equal(t, domain.OrderConfirmed, priorStage(o))
	})

	t.Run("confirmed and shipped", func(t *testing.T) {
		o := &domain.Order{ConfirmedAt: &now, ShippedAt: &now}
		assert.Equal(t, domain.OrderShipped, priorStage(o))
	})

	t.Run("confirmed, shipped, and delivered", func(t *testing.T) {
		o := &domain.Order{ConfirmedAt: &now, ShippedAt: &now, DeliveredAt: &now}
		assert.Equal(t, domain.OrderDelivered, priorStage(o))
	})
}

func TestMutable(t *testing.T) {
	assert.True(t, mutable(domain.OrderPending))
	assert.True(t, mutable(domain.OrderConfirmed))
	assert.False(t, mutable(domain.OrderShipped))
	assert.False(t, mutable(domain.OrderDelivered))
	assert.False(t, mutable(domain.OrderCancelled))
	assert.False(t, mutable(domain.OrderRefunded))
}
