package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/shipping"
)

type addCartItemRequest struct {
	SessionID string `json:"session_id"`
	SKUID     string `json:"sku_id"`
	NumBoxes  int    `json:"num_boxes"`
}

// addCartItem implements POST /cart, spec.md §6's canonical "add cart
// item" route: resolve or create the session's cart, price the line
// against the SKU, append it, and recompute the cart subtotal.
func (s *Server) addCartItem(c echo.Context) error {
	var req addCartItemRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("httpapi.addCartItem", "invalid request body")
	}
	if req.SessionID == "" || req.NumBoxes <= 0 {
		return domain.Invalid("httpapi.addCartItem", "session_id and a positive num_boxes are required")
	}
	skuID, err := uuid.Parse(req.SKUID)
	if err != nil {
		return domain.Invalid("httpapi.addCartItem", "invalid sku_id")
	}

	ctx := c.Request().Context()
	cart, err := s.store.GetOrCreateCart(ctx, req.SessionID, "24h")
	if err != nil {
		return err
	}
	sku, product, err := s.store.GetSKU(ctx, skuID)
	if err != nil {
		return err
	}

	unitPrice := sku.RetailPrice
	subtotal := unitPrice.MulInt(req.NumBoxes)
	item := &domain.CartItem{
		ID:         uuid.New(),
		CartID:     cart.ID,
		SKUID:      &sku.ID,
		ProductID:  &product.ID,
		VendorID:   product.VendorID,
		Name:       product.Name,
		Collection: product.Collection,
		NumBoxes:   req.NumBoxes,
		UnitPrice:  unitPrice,
		Subtotal:   subtotal,
	}
	if err := s.store.InsertCartItem(ctx, item); err != nil {
		return err
	}

	items, err := s.store.ListCartItems(ctx, cart.ID)
	if err != nil {
		return err
	}
	cart.Recalculate(items)
	if err := s.store.UpdateCartTotals(ctx, cart); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{"cart": cart, "items": items})
}

func (s *Server) getCart(c echo.Context) error {
	sessionID := c.Param("sessionId")
	ctx := c.Request().Context()

	cart, err := s.store.GetOrCreateCart(ctx, sessionID, "24h")
	if err != nil {
		return err
	}
	items, err := s.store.ListCartItems(ctx, cart.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"cart": cart, "items": items})
}

type shippingEstimateRequest struct {
	SessionID   string           `json:"session_id"`
	DestZIP     string           `json:"dest_zip"`
	Address     shipping.Address `json:"address"`
	Residential bool             `json:"residential"`
	Liftgate    bool             `json:"liftgate"`
}

// estimateShipping implements POST /shipping/estimate.
func (s *Server) estimateShipping(c echo.Context) error {
	var req shippingEstimateRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("httpapi.estimateShipping", "invalid request body")
	}
	result, err := s.shipping.RateCart(c.Request().Context(), req.SessionID, req.DestZIP, req.Address, req.Residential, req.Liftgate)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

type validatePromoRequest struct {
	Code  string `json:"code"`
	Email string `json:"email"`
}

// validatePromoCode implements POST /promo-codes/validate: it looks the
// code up case-insensitively and returns its definition. It does not
// check whether the code is active or expired, its usage limits or its
// minimum order amount, does not read any cart, and computes no discount.
func (s *Server) validatePromoCode(c echo.Context) error {
	var req validatePromoRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("httpapi.validatePromoCode", "invalid request body")
	}
	ctx := c.Request().Context()
	promo, err := s.store.GetPromoCodeByCode(ctx, req.Code)
	if err != nil {
		return domain.Invalid("httpapi.validatePromoCode", "promo code not found")
	}
	return c.JSON(http.StatusOK, promo)
}
