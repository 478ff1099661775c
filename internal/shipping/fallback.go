package shipping

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/money"
)

// FallbackTier names one of the three synthetic service levels the
// fallback table prices, when the LTL rater is unreachable or returns no
// quotes, per spec.md §4.4.
type FallbackTier struct {
	Service     string
	TransitDays int
	Multiplier  decimal.Decimal
}

var fallbackTiers = []FallbackTier{
	{Service: "economy", TransitDays: 7, Multiplier: decimal.NewFromInt(1)},
	{Service: "standard", TransitDays: 5, Multiplier: decimal.NewFromFloat(1.3)},
	{Service: "expedited", TransitDays: 2, Multiplier: decimal.NewFromFloat(1.75)},
}

var (
	fallbackRatePerLb = decimal.NewFromFloat(0.50)
	fallbackMinimum   = money.FromCents(15000) // $150.00
)

// FallbackRater prices a shipment with a fixed per-pound, per-zone table
// instead of a live LTL quote. It never fails: a shipment this package
// can route always gets a price, flagged IsFallback so downstream
// consumers know it wasn't carrier-sourced.
type FallbackRater struct{}

func NewFallbackRater() *FallbackRater { return &FallbackRater{} }

// zoneForZIP derives a coarse zone multiplier from the destination ZIP's
// leading digit — a stand-in for real zone-skip tables, used only when
// the live rater is unavailable.
func zoneForZIP(zip string) int {
	if len(zip) == 0 {
		return 1
	}
	d := zip[0]
	if d < '0' || d > '9' {
		return 1
	}
	return int(d-'0') + 1
}

// Rate prices every fallback tier for a destination ZIP and total
// shippable weight, per spec.md §4.4's fallback formula: $0.50/lb * zone
// * weight, $150 minimum, scaled per tier.
func (r *FallbackRater) Rate(ctx context.Context, destZIP string, weightLbs decimal.Decimal) []Quote {
	zone := decimal.NewFromInt(int64(zoneForZIP(destZIP)))
	base := money.FromDecimal(fallbackRatePerLb.Mul(zone).Mul(weightLbs))
	base = money.Max(base, fallbackMinimum)

	quotes := make([]Quote, 0, len(fallbackTiers))
	for _, tier := range fallbackTiers {
		cost := money.FromDecimal(base.Decimal().Mul(tier.Multiplier))
		cost = money.Max(cost, fallbackMinimum)
		quotes = append(quotes, Quote{
			Carrier:     "fallback",
			Service:     tier.Service,
			TransitDays: tier.TransitDays,
			Cost:        cost,
			IsFallback:  true,
		})
	}
	return quotes
}
