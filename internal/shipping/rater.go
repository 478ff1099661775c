// Package shipping implements the parcel/LTL rating pipeline, spec.md
// §4.4: weight-based mode selection, freight-class aggregation, and a
// flagged fallback table when the live LTL rater can't be reached.
package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/store"
)

// cartStore and orderStore are the narrow slices of *store.Store the
// rating entry points need. Service does not use them: it holds a
// concrete *store.Store.
type cartStore interface {
	GetOrCreateCart(ctx context.Context, sessionID string, ttl string) (*domain.Cart, error)
	ListCartItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error)
}

type orderStore interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error)
}

// Service is the shared aggregation core behind both of spec.md §4.4's
// rating entry points: rating an anonymous cart by session_id, and
// rating a placed order by order_id. Both map their respective item
// rows into LineItem and drive the same SelectMode/AggregateByFreightClass
// pipeline before reaching for a ParcelRater, an LTLRater, or — on LTL
// failure — the FallbackRater.
type Service struct {
	store     *store.Store
	parcel    ParcelRater
	ltl       LTLRater
	fallback  *FallbackRater
	originZIP string
}

func NewService(st *store.Store, parcel ParcelRater, ltl LTLRater, originZIP string) *Service {
	return &Service{
		store:     st,
		parcel:    parcel,
		ltl:       ltl,
		fallback:  NewFallbackRater(),
		originZIP: originZIP,
	}
}

// Result is the outcome of a rating pass: the selected mode, every
// option the rater(s) returned, and the cheapest of them (the one a
// caller would normally apply by default).
type Result struct {
	Mode     Mode
	Quotes   []Quote
	Cheapest *Quote
}

func cartItemsToLineItems(items []domain.CartItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, LineItem{
			NumBoxes:        it.NumBoxes,
			WeightPerBoxLbs: it.WeightPerBoxLbs,
			FreightClass:    it.FreightClass,
			IsSample:        it.IsSample,
		})
	}
	return out
}

func orderItemsToLineItems(items []domain.OrderItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, LineItem{
			NumBoxes:        it.NumBoxes,
			WeightPerBoxLbs: it.WeightPerBoxLbs,
			FreightClass:    it.FreightClass,
			IsSample:        it.IsSample,
		})
	}
	return out
}

// RateCart rates the cart bound to sessionID against a destination ZIP.
func (s *Service) RateCart(ctx context.Context, sessionID, destZIP string, dest Address, residential, liftgate bool) (*Result, error) {
	cart, err := s.store.GetOrCreateCart(ctx, sessionID, "30 days")
	if err != nil {
		return nil, domain.Internal(err, "shipping.RateCart", "failed to load cart")
	}
	items, err := s.store.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, domain.Internal(err, "shipping.RateCart", "failed to load cart items")
	}
	return s.rate(ctx, cartItemsToLineItems(items), destZIP, dest, residential, liftgate)
}

// RateOrder rates an already-placed order's shippable items.
func (s *Service) RateOrder(ctx context.Context, orderID uuid.UUID) (*Result, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, "shipping.RateOrder", "failed to load order")
	}
	items, err := s.store.ListOrderItems(ctx, orderID)
	if err != nil {
		return nil, domain.Internal(err, "shipping.RateOrder", "failed to load order items")
	}

	var dest Address
	var destZIP string
	if order.ShippingAddress != nil {
		dest = Address{
			Line1:      order.ShippingAddress.Line1,
			City:       order.ShippingAddress.City,
			State:      order.ShippingAddress.State,
			PostalCode: order.ShippingAddress.PostalCode,
			Country:    order.ShippingAddress.Country,
		}
		destZIP = order.ShippingAddress.PostalCode
	}
	return s.rate(ctx, orderItemsToLineItems(items), destZIP, dest, order.Residential, order.Liftgate)
}

// rate is the shared core: select a mode, call the matching rater, fall
// back to the flat table on LTL failure, and pick the cheapest quote.
func (s *Service) rate(ctx context.Context, items []LineItem, destZIP string, dest Address, residential, liftgate bool) (*Result, error) {
	mode := SelectMode(items)
	res := &Result{Mode: mode}

	switch mode {
	case ModeNone:
		return res, nil

	case ModeParcel:
		weight := TotalWeight(items)
		quotes, err := s.parcel.GetParcelRates(ctx, s.originZIP, destZIP, weight)
		if err != nil {
			return nil, fmt.Errorf("shipping: parcel rating: %w", err)
		}
		res.Quotes = quotes

	case ModeLTL:
		classes := AggregateByFreightClass(items)
		pickup := NextBusinessDay(time.Now())
		origin := Address{PostalCode: s.originZIP}
		quotes, err := s.ltl.GetLTLRates(ctx, origin, dest, classes, pickup, residential, liftgate)
		if err != nil {
			weight := TotalWeight(items)
			res.Quotes = s.fallback.Rate(ctx, destZIP, weight)
		} else {
			res.Quotes = quotes
		}
	}

	res.Cheapest = cheapest(res.Quotes)
	if res.Cheapest != nil {
		res.Cheapest.IsCheapest = true
	}
	return res, nil
}

func cheapest(quotes []Quote) *Quote {
	if len(quotes) == 0 {
		return nil
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.Cost.LessThan(best.Cost) {
			best = q
		}
	}
	return &best
}
