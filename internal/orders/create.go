package orders

import (
	"time"

	"context"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/auth"
	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/money"
	"github.com/floorworks/commerce/internal/pricing"
)

// CheckoutInput carries everything PlaceRetailOrder needs beyond the
// cart itself. CustomerID, when set, is the account the order attaches
// to; a caller that wants to save the buyer's details creates the
// account first with CreateCustomerAccount and passes the resulting
// CustomerID in here.
type CheckoutInput struct {
	Email           string
	CustomerID      *uuid.UUID
	ProjectID       *uuid.UUID
	Delivery        domain.DeliveryMethod
	ShippingAddress *domain.ShippingAddress
	Carrier         string
	Service         string
	TransitDays     int
	Residential     bool
	Liftgate        bool
	IsFallbackRate  bool
	Shipping        money.Amount
	SampleShipping  money.Amount
	PromoCode       string
	StripePaymentIntentID string
	StripeChargeID        string
}

// PlaceRetailOrder implements spec.md §4.5 flow 1: drain the anonymous
// cart into a new order, validate any promo code against the final
// snapshot, and confirm it against the charge the caller already
// collected (checkout only reaches this call once Stripe has
// authorized payment, per spec.md §4.7). Assigns a sales rep via
// round robin.
func (s *Service) PlaceRetailOrder(ctx context.Context, cartID uuid.UUID, in CheckoutInput) (*domain.Order, error) {
	const op = "orders.PlaceRetailOrder"

	var order *domain.Order
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		cartItems, err := s.store.ListCartItems(ctx, cartID)
		if err != nil {
			return domain.Internal(err, op, "failed to load cart items")
		}
		if len(cartItems) == 0 {
			return domain.Invalid(op, "cart is empty")
		}

		o := &domain.Order{
			Email:           in.Email,
			CustomerID:      in.CustomerID,
			ProjectID:       in.ProjectID,
			Delivery:        in.Delivery,
			ShippingAddress: in.ShippingAddress,
			Carrier:         in.Carrier,
			Service:         in.Service,
			TransitDays:     in.TransitDays,
			Residential:     in.Residential,
			Liftgate:        in.Liftgate,
			IsFallbackRate:  in.IsFallbackRate,
			Shipping:        in.Shipping,
			SampleShipping:  in.SampleShipping,
			Status:          domain.OrderPending,
		}
		if err := s.assignRepIfUnassigned(ctx, o); err != nil {
			return err
		}

		number, err := s.store.NextOrderNumber(ctx)
		if err != nil {
			return domain.Internal(err, op, "failed to mint order number")
		}
		o.OrderNumber = number

		subtotal := money.Zero
		eligibility := make([]domain.EligibilityItem, 0, len(cartItems))
		for _, ci := range cartItems {
			if !ci.IsSample {
				subtotal = subtotal.Add(ci.Subtotal)
			}
			eligibility = append(eligibility, domain.EligibilityItem{
				ProductID: derefProductID(ci.ProductID),
				IsSample:  ci.IsSample,
				Subtotal:  ci.Subtotal,
			})
		}
		o.Subtotal = subtotal

		var promo *pricing.PromoResult
		if in.PromoCode != "" {
			promo, err = s.pricing.CalculatePromoDiscount(ctx, in.PromoCode, eligibility, in.Email)
			if err != nil {
				return err
			}
			o.PromoCodeID = &promo.Promo.ID
			o.DiscountAmount = promo.DiscountAmount
		}
		o.Recalculate()

		if err := s.store.CreateOrder(ctx, o); err != nil {
			return domain.Internal(err, op, "failed to create order")
		}

		for _, ci := range cartItems {
			item := &domain.OrderItem{
				OrderID: o.ID, ProductID: ci.ProductID, SKUID: ci.SKUID, VendorID: ci.VendorID,
				Name: ci.Name, Collection: ci.Collection, NumBoxes: ci.NumBoxes, SqftNeeded: ci.SqftNeeded,
				UnitPrice: ci.UnitPrice, SellBy: ci.SellBy, PriceTier: ci.PriceTier, IsSample: ci.IsSample,
				WeightPerBoxLbs: ci.WeightPerBoxLbs, FreightClass: ci.FreightClass,
			}
			item.Recalculate()
			if err := s.store.InsertOrderItem(ctx, item); err != nil {
				return domain.Internal(err, op, "failed to insert order item")
			}
		}

		paid, err := s.payments.RecordCharge(ctx, o.ID, domain.LedgerCharge, o.Total,
			in.StripePaymentIntentID, in.StripeChargeID, nil)
		if err != nil {
			return err
		}
		o.AmountPaid = paid
		now := time.Now()
		o.Status = domain.OrderConfirmed
		o.ConfirmedAt = &now

		if err := s.store.UpdateOrderTotals(ctx, o); err != nil {
			return domain.Internal(err, op, "failed to update order totals")
		}
		if err := s.store.UpdateOrderStatus(ctx, o); err != nil {
			return domain.Internal(err, op, "failed to update order status")
		}
		if err := s.generatePurchaseOrders(ctx, o); err != nil {
			return err
		}

		if promo != nil {
			if err := s.pricing.RecordUsage(ctx, promo.Promo.ID, &o.ID, nil, in.Email, promo.DiscountAmount); err != nil {
				return err
			}
		}
		if err := s.store.DrainCart(ctx, cartID); err != nil {
			return domain.Internal(err, op, "failed to drain cart")
		}

		order = o
		return s.logActivity(ctx, o.ID, "customer", in.CustomerID, "order_placed", map[string]any{"flow": "retail_checkout"})
	})
	return order, err
}

// CreateCustomerAccount implements checkout's optional "save my
// details" step: hash the password and insert a new retail customer.
// Callers check for an existing account (store.GetCustomerByEmail)
// before calling this; a caller wiring this into PlaceRetailOrder must
// call it first so the resulting ID can be passed as CheckoutInput's
// CustomerID, since CreateOrder is the only place customer_id is set.
func (s *Service) CreateCustomerAccount(ctx context.Context, email, password, name string) (*domain.Customer, error) {
	const op = "orders.CreateCustomerAccount"

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, domain.Invalid(op, err.Error())
	}
	c := &domain.Customer{Email: email, PasswordHash: hash, Name: name}
	if err := s.store.CreateCustomer(ctx, c); err != nil {
		return nil, domain.Internal(err, op, "failed to create customer account")
	}
	return c, nil
}

func derefProductID(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

// SKUSelection is one line of a trade bulk order, keyed by catalog SKU.
type SKUSelection struct {
	SKUID    uuid.UUID
	NumBoxes int
	IsSample bool
}

// PlaceTradeBulkOrder implements spec.md §4.5 flow 2: an approved trade
// account orders directly from a SKU list. Every non-sample line is
// priced through the account's trade-tier discount, and the order
// lands pending (no payment is collected at checkout time; trade
// accounts are invoiced per spec.md §4.7's net-terms note).
func (s *Service) PlaceTradeBulkOrder(ctx context.Context, tradeCustomerID uuid.UUID, email string, selections []SKUSelection, shippingAddr *domain.ShippingAddress) (*domain.Order, error) {
	const op = "orders.PlaceTradeBulkOrder"
	if len(selections) == 0 {
		return nil, domain.Invalid(op, "order must contain at least one item")
	}

	var order *domain.Order
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		tc, err := s.store.GetTradeCustomerForUpdate(ctx, tradeCustomerID)
		if err != nil {
			return domain.Internal(err, op, "failed to load trade customer")
		}
		tiers, err := s.store.ListTradeTierSchedule(ctx)
		if err != nil {
			return domain.Internal(err, op, "failed to load trade tier schedule")
		}
		tier := pricing.TradeTier{Name: tc.TradeTier}
		for _, t := range tiers {
			if t.Name == tc.TradeTier {
				tier.DiscountPercent = t.DiscountPercent
			}
		}

		o := &domain.Order{Email: email, TradeCustomerID: &tradeCustomerID, Status: domain.OrderPending, Delivery: domain.DeliveryPickup}
		if shippingAddr != nil {
			o.Delivery = domain.DeliveryShipping
			o.ShippingAddress = shippingAddr
		}
		if err := s.assignRepIfUnassigned(ctx, o); err != nil {
			return err
		}
		number, err := s.store.NextOrderNumber(ctx)
		if err != nil {
			return domain.Internal(err, op, "failed to mint order number")
		}
		o.OrderNumber = number
		if err := s.store.CreateOrder(ctx, o); err != nil {
			return domain.Internal(err, op, "failed to create order")
		}

		subtotal := money.Zero
		for _, sel := range selections {
			sku, product, err := s.store.GetSKU(ctx, sel.SKUID)
			if err != nil {
				return domain.Internal(err, op, "failed to load sku")
			}
			unitPrice := sku.RetailPrice
			if !sel.IsSample {
				unitPrice = pricing.ApplyTradeDiscount(unitPrice, tier)
			}
			item := &domain.OrderItem{
				OrderID: o.ID, SKUID: &sel.SKUID, VendorID: product.VendorID, Name: product.Name,
				Collection: product.Collection, NumBoxes: sel.NumBoxes, UnitPrice: unitPrice,
				SellBy: product.SellBy, IsSample: sel.IsSample,
				WeightPerBoxLbs: sku.WeightPerBoxLbs, FreightClass: product.FreightClass,
			}
			item.Recalculate()
			if err := s.store.InsertOrderItem(ctx, item); err != nil {
				return domain.Internal(err, op, "failed to insert order item")
			}
			if !item.IsSample {
				subtotal = subtotal.Add(item.Subtotal)
			}
		}
		o.Subtotal = subtotal
		o.Recalculate()
		if err := s.store.UpdateOrderTotals(ctx, o); err != nil {
			return domain.Internal(err, op, "failed to update order totals")
		}

		if err := s.bumpTradeSpend(ctx, tradeCustomerID, o.Total); err != nil {
			return err
		}

		order = o
		return s.logActivity(ctx, o.ID, "trade_customer", &tradeCustomerID, "order_placed", map[string]any{"flow": "trade_bulk"})
	})
	return order, err
}

// QuickCreateItem is one line of a rep-authored quick-create order,
// either referencing a catalog SKU or fully custom (no SKUID).
type QuickCreateItem struct {
	SKUID      *uuid.UUID
	VendorID   uuid.UUID
	Name       string
	Collection string
	UnitPrice  money.Amount
	NumBoxes   int
	IsSample   bool
	PriceTier  domain.PriceTier
	SellBy     domain.SellBy
}

// PaymentMethod selects how a rep-authored order is paid.
type PaymentMethod string

const (
	PaymentOffline PaymentMethod = "offline"
	PaymentStripe  PaymentMethod = "stripe"
)

// CreateRepQuickOrder implements spec.md §4.5 flow 3: a sales rep
// builds an order from SKU-referenced or fully custom lines on a
// customer's behalf. Offline payment (check, terms, in-person card)
// confirms the order immediately and generates its purchase orders;
// stripe payment leaves it pending with a client secret for the rep to
// collect payment against. The webhook plane records the charge in the
// ledger when the intent succeeds; it does not change the order's status.
func (s *Service) CreateRepQuickOrder(ctx context.Context, repID uuid.UUID, email string, items []QuickCreateItem, method PaymentMethod) (order *domain.Order, stripeClientSecret string, err error) {
	const op = "orders.CreateRepQuickOrder"
	if len(items) == 0 {
		return nil, "", domain.Invalid(op, "order must contain at least one item")
	}

	txErr := s.store.WithTx(ctx, func(ctx context.Context) error {
		o := &domain.Order{Email: email, SalesRepID: &repID, Status: domain.OrderPending, Delivery: domain.DeliveryPickup}
		number, err := s.store.NextOrderNumber(ctx)
		if err != nil {
			return domain.Internal(err, op, "failed to mint order number")
		}
		o.OrderNumber = number
		if err := s.store.CreateOrder(ctx, o); err != nil {
			return domain.Internal(err, op, "failed to create order")
		}

		subtotal := money.Zero
		for _, qi := range items {
			item := &domain.OrderItem{
				OrderID: o.ID, VendorID: qi.VendorID, Name: qi.Name, Collection: qi.Collection,
				NumBoxes: qi.NumBoxes, UnitPrice: qi.UnitPrice, SellBy: qi.SellBy,
				PriceTier: qi.PriceTier, IsSample: qi.IsSample,
			}
			if qi.SKUID != nil {
				sku, product, err := s.store.GetSKU(ctx, *qi.SKUID)
				if err != nil {
					return domain.Internal(err, op, "failed to load sku")
				}
				item.SKUID = qi.SKUID
				item.VendorID = product.VendorID
				item.Collection = product.Collection
				item.SellBy = product.SellBy
				item.FreightClass = product.FreightClass
				item.WeightPerBoxLbs = sku.WeightPerBoxLbs
				if item.Name == "" {
					item.Name = product.Name
				}
				if item.UnitPrice.IsZero() {
					item.UnitPrice = sku.RetailPrice
				}
			}
			item.Recalculate()
			if err := s.store.InsertOrderItem(ctx, item); err != nil {
				return domain.Internal(err, op, "failed to insert order item")
			}
			if !item.IsSample {
				subtotal = subtotal.Add(item.Subtotal)
			}
		}
		o.Subtotal = subtotal
		o.Recalculate()

		switch method {
		case PaymentOffline:
			paid, err := s.payments.RecordCharge(ctx, o.ID, domain.LedgerCharge, o.Total, "", "", &repID)
			if err != nil {
				return err
			}
			o.AmountPaid = paid
			now := time.Now()
			o.Status = domain.OrderConfirmed
			o.ConfirmedAt = &now
		case PaymentStripe:
			_, secret, err := s.payments.CreateIntent(ctx, o.Total, "usd", email, map[string]string{"order_number": o.OrderNumber})
			if err != nil {
				return err
			}
			stripeClientSecret = secret
		default:
			return domain.Invalid(op, "unknown payment method")
		}

		if err := s.store.UpdateOrderTotals(ctx, o); err != nil {
			return domain.Internal(err, op, "failed to update order totals")
		}
		if o.Status == domain.OrderConfirmed {
			if err := s.store.UpdateOrderStatus(ctx, o); err != nil {
				return domain.Internal(err, op, "failed to update order status")
			}
			if err := s.generatePurchaseOrders(ctx, o); err != nil {
				return err
			}
		}

		order = o
		return s.logActivity(ctx, o.ID, "sales_rep", &repID, "order_placed", map[string]any{"flow": "rep_quick_create", "payment_method": method})
	})
	return order, stripeClientSecret, txErr
}

// ConvertQuoteToOrder implements spec.md §4.5 flow 4: copy a quote's
// lines into a new order, carry its discount amount forward, and mark
// the quote converted. No promo code reference is carried to the order
// and no promo usage row is written. Offline payment confirms
// the order and generates its purchase orders immediately; stripe
// payment leaves it pending.
func (s *Service) ConvertQuoteToOrder(ctx context.Context, quoteID uuid.UUID, method PaymentMethod) (order *domain.Order, stripeClientSecret string, err error) {
	const op = "orders.ConvertQuoteToOrder"

	txErr := s.store.WithTx(ctx, func(ctx context.Context) error {
		quote, err := s.store.GetQuoteForUpdate(ctx, quoteID)
		if err != nil {
			return domain.Internal(err, op, "failed to load quote")
		}
		if quote.Status == "converted" {
			return domain.Invalid(op, "quote has already been converted")
		}
		if quote.Status == "expired" || time.Now().After(quote.ExpiresAt) {
			return domain.Invalid(op, "quote has expired")
		}

		quoteItems, err := s.store.ListQuoteItems(ctx, quoteID)
		if err != nil {
			return domain.Internal(err, op, "failed to load quote items")
		}
		if len(quoteItems) == 0 {
			return domain.Invalid(op, "quote has no items")
		}

		o := &domain.Order{
			Email: quote.Email, SalesRepID: &quote.SalesRepID, ProjectID: quote.ProjectID,
			Status: domain.OrderPending, Delivery: domain.DeliveryPickup,
			Subtotal: quote.Subtotal, DiscountAmount: quote.DiscountAmount,
		}
		number, err := s.store.NextOrderNumber(ctx)
		if err != nil {
			return domain.Internal(err, op, "failed to mint order number")
		}
		o.OrderNumber = number
		o.Recalculate()
		if err := s.store.CreateOrder(ctx, o); err != nil {
			return domain.Internal(err, op, "failed to create order")
		}

		for _, qi := range quoteItems {
			item := &domain.OrderItem{
				OrderID: o.ID, ProductID: qi.ProductID, SKUID: qi.SKUID, VendorID: qi.VendorID,
				Name: qi.Name, Collection: qi.Collection, NumBoxes: qi.NumBoxes, UnitPrice: qi.UnitPrice,
				SellBy: qi.SellBy, PriceTier: qi.PriceTier,
			}
			item.Recalculate()
			if err := s.store.InsertOrderItem(ctx, item); err != nil {
				return domain.Internal(err, op, "failed to insert order item")
			}
		}

		switch method {
		case PaymentOffline:
			paid, err := s.payments.RecordCharge(ctx, o.ID, domain.LedgerCharge, o.Total, "", "", &quote.SalesRepID)
			if err != nil {
				return err
			}
			o.AmountPaid = paid
			now := time.Now()
			o.Status = domain.OrderConfirmed
			o.ConfirmedAt = &now
			if err := s.store.UpdateOrderTotals(ctx, o); err != nil {
				return domain.Internal(err, op, "failed to update order totals")
			}
			if err := s.store.UpdateOrderStatus(ctx, o); err != nil {
				return domain.Internal(err, op, "failed to update order status")
			}
			if err := s.generatePurchaseOrders(ctx, o); err != nil {
				return err
			}
		case PaymentStripe:
			_, secret, err := s.payments.CreateIntent(ctx, o.Total, "usd", quote.Email, map[string]string{"order_number": o.OrderNumber})
			if err != nil {
				return err
			}
			stripeClientSecret = secret
		default:
			return domain.Invalid(op, "unknown payment method")
		}

		if err := s.store.MarkQuoteConverted(ctx, quoteID, o.ID); err != nil {
			return domain.Internal(err, op, "failed to mark quote converted")
		}

		order = o
		return s.logActivity(ctx, o.ID, "sales_rep", &quote.SalesRepID, "order_placed",
			map[string]any{"flow": "quote_conversion", "quote_id": quoteID})
	})
	return order, stripeClientSecret, txErr
}
