package httpapi

import (
	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/floorworks/commerce/internal/auth"
	"github.com/floorworks/commerce/internal/commission"
	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/email"
	"github.com/floorworks/commerce/internal/events"
	"github.com/floorworks/commerce/internal/jobs"
	"github.com/floorworks/commerce/internal/orders"
	"github.com/floorworks/commerce/internal/payments"
	"github.com/floorworks/commerce/internal/pricing"
	"github.com/floorworks/commerce/internal/purchaseorders"
	"github.com/floorworks/commerce/internal/scraper"
	"github.com/floorworks/commerce/internal/shipping"
	"github.com/floorworks/commerce/internal/store"
	"github.com/floorworks/commerce/internal/webhook"
)

// Server bundles every commerce-spine collaborator behind one echo
// instance. Constructed once in cmd/server/main.go and never re-created
// per request, the way the teacher's cmd entrypoints build one
// long-lived handler graph.
type Server struct {
	Echo *echo.Echo

	store         *store.Store
	auth          *auth.Service
	pricing       *pricing.Service
	shipping      *shipping.Service
	purchaseOrders *purchaseorders.Service
	payments      *payments.Service
	commission    *commission.Service
	orders        *orders.Service
	orchestrator  *scraper.Orchestrator
	registry      *scraper.Registry
	stripeWebhook *webhook.StripeHandler
	events        *events.Publisher
	queue         *jobs.Queue
	email         *email.Service
	log           zerolog.Logger
}

// Deps bundles every already-constructed collaborator. Everything here
// is assembled in cmd/server/main.go; Server only wires HTTP routing on
// top of it.
type Deps struct {
	Store          *store.Store
	Auth           *auth.Service
	Pricing        *pricing.Service
	Shipping       *shipping.Service
	PurchaseOrders *purchaseorders.Service
	Payments       *payments.Service
	Commission     *commission.Service
	Orders         *orders.Service
	Orchestrator   *scraper.Orchestrator
	Registry       *scraper.Registry
	StripeWebhook  *webhook.StripeHandler
	Events         *events.Publisher
	Queue          *jobs.Queue
	Email          *email.Service
	Log            zerolog.Logger
}

func New(d Deps) *Server {
	s := &Server{
		Echo:           echo.New(),
		store:          d.Store,
		auth:           d.Auth,
		pricing:        d.Pricing,
		shipping:       d.Shipping,
		purchaseOrders: d.PurchaseOrders,
		payments:       d.Payments,
		commission:     d.Commission,
		orders:         d.Orders,
		orchestrator:   d.Orchestrator,
		registry:       d.Registry,
		stripeWebhook:  d.StripeWebhook,
		events:         d.Events,
		queue:          d.Queue,
		email:          d.Email,
		log:            d.Log.With().Str("component", "httpapi.Server").Logger(),
	}

	s.Echo.HideBanner = true
	s.Echo.HTTPErrorHandler = ErrorHandler(s.log)
	s.Echo.Use(emw.Recover())
	s.Echo.Use(emw.RequestID())
	s.Echo.Use(requestLogger(s.log))

	s.routes()
	return s
}

// requestLogger is the echo-native analogue of the teacher's slog-based
// internal/middleware.Logger: one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			evt := log.Info()
			if err != nil {
				evt = log.Error().Err(err)
			}
			evt.Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("request handled")
			return err
		}
	}
}

func (s *Server) routes() {
	api := s.Echo.Group("/api")

	api.POST("/cart", s.addCartItem)
	api.GET("/cart/:sessionId", s.getCart)
	api.POST("/shipping/estimate", s.estimateShipping)
	api.POST("/promo-codes/validate", s.validatePromoCode)
	api.POST("/checkout/create-payment-intent", s.createPaymentIntent)
	api.POST("/checkout/place-order", s.placeOrder, auth.OptionalCustomerAuth(s.store))

	api.POST("/webhooks/stripe", s.stripeWebhook.Handle)

	admin := api.Group("/admin", auth.RequireSession(s.store, domain.PrincipalStaff))
	admin.POST("/orders/:id/refund", s.refundOrder, auth.RequireRole(domain.RoleAdmin, domain.RoleOps))
	admin.PUT("/orders/:id/status", s.updateOrderStatus, auth.RequireRole(domain.RoleAdmin, domain.RoleOps))
	admin.POST("/orders/:id/payment-request", s.createPaymentRequest, auth.RequireRole(domain.RoleAdmin, domain.RoleOps))
	admin.POST("/orders/:id/add-item", s.addOrderItem, auth.RequireRole(domain.RoleAdmin, domain.RoleOps))
	admin.DELETE("/orders/:id/items/:itemId", s.removeOrderItem, auth.RequireRole(domain.RoleAdmin, domain.RoleOps))

	admin.POST("/purchase-orders/:poId/send", s.sendPurchaseOrder)
	admin.PUT("/purchase-orders/:poId/status", s.updatePurchaseOrderStatus)

	admin.POST("/vendor-sources/:id/scrape", s.triggerScrape, auth.RequireRole(domain.RoleAdmin))
	admin.POST("/scrape-jobs/:id/stop", s.stopScrape, auth.RequireRole(domain.RoleAdmin))
}
