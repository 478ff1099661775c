package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/floorworks/commerce/internal/auth"
	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
)

func orderIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, domain.Invalid("httpapi.orderID", "invalid order id")
	}
	return id, nil
}

func staffPrincipal(c echo.Context) *auth.Principal {
	return auth.FromContext(c.Request().Context())
}

type refundOrderRequest struct {
	AmountCents *int64 `json:"amount_cents"`
	Reason      string `json:"reason"`
}

// refundOrder implements POST /admin/orders/:id/refund: amount is
// optional (full remaining balance when omitted), per spec.md §6.
func (s *Server) refundOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	var req refundOrderRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("httpapi.refundOrder", "invalid request body")
	}

	var amount *money.Amount
	if req.AmountCents != nil {
		a := money.FromCents(*req.AmountCents)
		amount = &a
	}

	p := staffPrincipal(c)
	pid := p.ID
	refunded, err := s.orders.Refund(c.Request().Context(), orderID, amount, req.Reason, "staff", &pid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"refunded": refunded.String()})
}

type updateOrderStatusRequest struct {
	Status         domain.OrderStatus `json:"status"`
	TrackingNumber string             `json:"tracking_number"`
}

// updateOrderStatus implements PUT /admin/orders/:id/status.
func (s *Server) updateOrderStatus(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	var req updateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("httpapi.updateOrderStatus", "invalid request body")
	}

	p := staffPrincipal(c)
	pid := p.ID
	if err := s.orders.Advance(c.Request().Context(), orderID, req.Status, req.TrackingNumber, "staff", &pid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type createPaymentRequestRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

// createPaymentRequest implements POST /admin/orders/:id/payment-request:
// a staff-initiated balance-due link, driven to completion later by
// internal/webhook's checkout.session.completed handler.
func (s *Server) createPaymentRequest(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	var req createPaymentRequestRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("httpapi.createPaymentRequest", "invalid request body")
	}

	p := staffPrincipal(c)
	pid := p.ID
	id, err := s.store.InsertPaymentRequest(c.Request().Context(), &domain.PaymentRequest{
		OrderID:   orderID,
		Amount:    money.FromCents(req.AmountCents),
		Reason:    req.Reason,
		CreatedBy: &pid,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"payment_request_id": id.String()})
}

type addOrderItemRequest struct {
	SKUID    string `json:"sku_id"`
	NumBoxes int    `json:"num_boxes"`
}

// addOrderItem implements POST /admin/orders/:id/add-item.
func (s *Server) addOrderItem(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	var req addOrderItemRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("httpapi.addOrderItem", "invalid request body")
	}
	skuID, err := uuid.Parse(req.SKUID)
	if err != nil {
		return domain.Invalid("httpapi.addOrderItem", "invalid sku_id")
	}

	ctx := c.Request().Context()
	sku, product, err := s.store.GetSKU(ctx, skuID)
	if err != nil {
		return err
	}
	unitPrice := sku.RetailPrice
	item := &domain.OrderItem{
		ID:         uuid.New(),
		OrderID:    orderID,
		SKUID:      &sku.ID,
		ProductID:  &product.ID,
		VendorID:   product.VendorID,
		Name:       product.Name,
		Collection: product.Collection,
		NumBoxes:   req.NumBoxes,
		UnitPrice:  unitPrice,
		Subtotal:   unitPrice.MulInt(req.NumBoxes),
	}

	p := staffPrincipal(c)
	pid := p.ID
	if err := s.orders.AddItem(ctx, orderID, item, "staff", &pid); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

// removeOrderItem implements DELETE /admin/orders/:id/items/:itemId.
func (s *Server) removeOrderItem(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return domain.Invalid("httpapi.removeOrderItem", "invalid item id")
	}

	p := staffPrincipal(c)
	pid := p.ID
	if err := s.orders.RemoveItem(c.Request().Context(), orderID, itemID, "staff", &pid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
