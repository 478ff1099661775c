package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/floorworks/commerce/internal/domain"
)

func poIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("poId"))
	if err != nil {
		return uuid.Nil, domain.Invalid("httpapi.poID", "invalid purchase order id")
	}
	return id, nil
}

// sendPurchaseOrder implements POST /admin/purchase-orders/:poId/send:
// dispatch over EDI when the vendor has an SFTP inbox, falling back to
// email, per spec.md §4.6.
func (s *Server) sendPurchaseOrder(c echo.Context) error {
	poID, err := poIDParam(c)
	if err != nil {
		return err
	}
	if err := s.purchaseOrders.Dispatch(c.Request().Context(), poID); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

type updatePurchaseOrderStatusRequest struct {
	Status domain.PurchaseOrderStatus `json:"status"`
}

// updatePurchaseOrderStatus implements PUT /admin/purchase-orders/:poId/status.
func (s *Server) updatePurchaseOrderStatus(c echo.Context) error {
	poID, err := poIDParam(c)
	if err != nil {
		return err
	}
	var req updatePurchaseOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("httpapi.updatePurchaseOrderStatus", "invalid request body")
	}

	ctx := c.Request().Context()
	var opErr error
	switch req.Status {
	case domain.POStatusDraft:
		opErr = s.purchaseOrders.RevertToDraft(ctx, poID)
	case domain.POStatusAcknowledged:
		opErr = s.purchaseOrders.Acknowledge(ctx, poID)
	case domain.POStatusCancelled:
		opErr = s.purchaseOrders.Cancel(ctx, poID)
	default:
		return domain.Invalid("httpapi.updatePurchaseOrderStatus", "unsupported status transition")
	}
	if opErr != nil {
		return opErr
	}
	return c.NoContent(http.StatusNoContent)
}
