package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/floorworks/commerce/internal/auth"
	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
	"github.com/floorworks/commerce/internal/orders"
)

type createPaymentIntentRequest struct {
	SessionID string `json:"session_id"`
	Email     string `json:"email"`
}

// createPaymentIntent implements POST /checkout/create-payment-intent:
// pre-authorize the cart's current subtotal less its discount before
// place-order drains
// it, per spec.md §4.7.
func (s *Server) createPaymentIntent(c echo.Context) error {
	var req createPaymentIntentRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("httpapi.createPaymentIntent", "invalid request body")
	}
	ctx := c.Request().Context()

	cart, err := s.store.GetOrCreateCart(ctx, req.SessionID, "24h")
	if err != nil {
		return err
	}
	items, err := s.store.ListCartItems(ctx, cart.ID)
	if err != nil {
		return err
	}
	cart.Recalculate(items)

	total := cart.Subtotal.Sub(cart.DiscountAmount)
	intentID, clientSecret, err := s.payments.CreateIntent(ctx, total, "usd", req.Email, map[string]string{
		"cart_id": cart.ID.String(),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"payment_intent_id": intentID, "client_secret": clientSecret})
}

type placeOrderRequest struct {
	SessionID             string                 `json:"session_id"`
	Email                  string                 `json:"email"`
	Delivery               domain.DeliveryMethod  `json:"delivery"`
	ShippingAddress        *domain.ShippingAddress `json:"shipping_address"`
	Carrier                string                 `json:"carrier"`
	Service                string                 `json:"service"`
	TransitDays            int                    `json:"transit_days"`
	Residential            bool                   `json:"residential"`
	Liftgate               bool                   `json:"liftgate"`
	IsFallbackRate         bool                   `json:"is_fallback_rate"`
	ShippingCents          int64                  `json:"shipping_cents"`
	SampleShippingCents    int64                  `json:"sample_shipping_cents"`
	PromoCode              string                 `json:"promo_code"`
	StripePaymentIntentID  string                 `json:"stripe_payment_intent_id"`
	StripeChargeID         string                 `json:"stripe_charge_id"`
}

// placeOrder implements POST /checkout/place-order, spec.md §4.5 flow
// 1: drain the cart into an order. A signed-in customer principal (set
// by auth.OptionalCustomerAuth) attaches the order to their account.
func (s *Server) placeOrder(c echo.Context) error {
	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("httpapi.placeOrder", "invalid request body")
	}
	ctx := c.Request().Context()

	cart, err := s.store.GetOrCreateCart(ctx, req.SessionID, "24h")
	if err != nil {
		return err
	}

	var customerID *uuid.UUID
	if p := auth.FromContext(ctx); p != nil && p.Kind == domain.PrincipalCustomer {
		id := p.ID
		customerID = &id
	}

	order, err := s.orders.PlaceRetailOrder(ctx, cart.ID, orders.CheckoutInput{
		Email:                 req.Email,
		CustomerID:            customerID,
		Delivery:              req.Delivery,
		ShippingAddress:       req.ShippingAddress,
		Carrier:               req.Carrier,
		Service:               req.Service,
		TransitDays:           req.TransitDays,
		Residential:           req.Residential,
		Liftgate:              req.Liftgate,
		IsFallbackRate:        req.IsFallbackRate,
		Shipping:              money.FromCents(req.ShippingCents),
		SampleShipping:        money.FromCents(req.SampleShippingCents),
		PromoCode:             req.PromoCode,
		StripePaymentIntentID: req.StripePaymentIntentID,
		StripeChargeID:        req.StripeChargeID,
	})
	if err != nil {
		return err
	}

	s.queue.Enqueue(orderConfirmationTask(order))
	if s.events != nil {
		_ = s.events.Publish(ctx, eventOrderConfirmedType, map[string]any{"order_id": order.ID.String(), "order_number": order.OrderNumber})
	}

	return c.JSON(http.StatusCreated, order)
}
