package httpapi

import (
	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/email"
	"github.com/floorworks/commerce/internal/events"
	"github.com/floorworks/commerce/internal/jobs"
)

const eventOrderConfirmedType = events.OrderConfirmed

// orderConfirmationTask builds the fire-and-forget confirmation-email
// task the retail checkout handler enqueues right after it creates an
// order (spec.md §5).
func orderConfirmationTask(order *domain.Order) jobs.Task {
	items := []email.OrderItem{}

	addr := email.Address{}
	if order.ShippingAddress != nil {
		addr = email.Address{
			Name:       order.ShippingAddress.Name,
			Line1:      order.ShippingAddress.Line1,
			Line2:      order.ShippingAddress.Line2,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		}
	}

	return jobs.Task{
		Kind:    jobs.KindOrderConfirmation,
		OrderID: order.ID,
		OrderConfirmation: email.OrderConfirmationEmail{
			OrderNumber:   order.OrderNumber,
			Email:         order.Email,
			Items:         items,
			SubtotalCents: order.Subtotal.Cents(),
			ShippingCents: order.Shipping.Cents(),
			DiscountCents: order.DiscountAmount.Cents(),
			TotalCents:    order.Total.Cents(),
			ShippingAddr:  addr,
		},
	}
}
