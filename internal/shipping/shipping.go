// Package shipping implements the parcel/LTL rating pipeline, spec.md
// §4.4. Grounded on the teacher's Provider interface shape (kept: an
// interface over an opaque rate gateway) and flatrate.go's
// fallback-provider idiom, generalized from a single-carrier
// abstraction into the spec's two-path (parcel vs LTL) model with an
// explicit, flagged fallback table instead of a silent flat rate.
package shipping

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/floorworks/commerce/internal/money"
)

var (
	ErrNotImplemented = errors.New("shipping: not implemented")
	ErrNoPackages      = errors.New("shipping: at least one shippable line is required")
)

// parcelThresholdLbs is the weight cutoff from spec.md §4.4: at or
// under this weight the shipment rates as parcel, strictly above it LTL.
var parcelThresholdLbs = decimal.NewFromFloat(150.0)

// Address is a normalized destination for rating purposes.
type Address struct {
	Line1      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// LineItem is the subset of an order/cart item the rater needs:
// weight, freight class, and whether it's a sample (samples never
// contribute to shippable weight).
type LineItem struct {
	NumBoxes        int
	WeightPerBoxLbs money.Amount
	FreightClass    string
	IsSample        bool
}

// TotalWeight sums num_boxes * weight_per_box across non-sample lines.
func TotalWeight(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.IsSample {
			continue
		}
		total = total.Add(it.WeightPerBoxLbs.Decimal().Mul(decimal.NewFromInt(int64(it.NumBoxes))))
	}
	return total
}

// Mode is the selected shipping path.
type Mode string

const (
	ModeNone   Mode = "none" // sample-only order: $0, no carrier call
	ModeParcel Mode = "parcel"
	ModeLTL    Mode = "ltl"
)

// SelectMode implements spec.md §4.4's weight-based routing: <=150lbs
// parcel, >150lbs LTL, zero shippable weight (all samples) none.
func SelectMode(items []LineItem) Mode {
	w := TotalWeight(items)
	if w.IsZero() {
		return ModeNone
	}
	if w.LessThanOrEqual(parcelThresholdLbs) {
		return ModeParcel
	}
	return ModeLTL
}

// Quote is a single rated shipping option, covering both the parcel and
// LTL paths.
type Quote struct {
	Carrier     string
	Service     string
	TransitDays int
	Cost        money.Amount
	Residential bool
	Liftgate    bool
	IsCheapest  bool
	IsFallback  bool
}

// ParcelRater is the external parcel-rate collaborator (e.g. EasyPost),
// treated as an opaque gateway per spec.md §1.
type ParcelRater interface {
	GetParcelRates(ctx context.Context, originZIP, destZIP string, weightLbs decimal.Decimal) ([]Quote, error)
}

// FreightClassWeight is one freight class's aggregated, rounded-up
// shippable weight, the unit the LTL rater prices per spec.md §4.4.
type FreightClassWeight struct {
	FreightClass string
	WeightLbs    int
}

// AggregateByFreightClass groups non-sample items by freight class,
// rounding each class's total weight up to whole pounds.
func AggregateByFreightClass(items []LineItem) []FreightClassWeight {
	totals := map[string]decimal.Decimal{}
	var order []string
	for _, it := range items {
		if it.IsSample {
			continue
		}
		w := it.WeightPerBoxLbs.Decimal().Mul(decimal.NewFromInt(int64(it.NumBoxes)))
		if _, ok := totals[it.FreightClass]; !ok {
			order = append(order, it.FreightClass)
		}
		totals[it.FreightClass] = totals[it.FreightClass].Add(w)
	}
	out := make([]FreightClassWeight, 0, len(order))
	for _, class := range order {
		out = append(out, FreightClassWeight{
			FreightClass: class,
			WeightLbs:    int(totals[class].Ceil().IntPart()),
		})
	}
	return out
}

// NextBusinessDay returns the next weekday after from, skipping
// Saturday/Sunday, for the LTL pickup-date default.
func NextBusinessDay(from time.Time) time.Time {
	d := from.AddDate(0, 0, 1)
	for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// LTLRater is the external LTL freight-rate collaborator.
type LTLRater interface {
	GetLTLRates(ctx context.Context, origin, dest Address, classes []FreightClassWeight, pickupDate time.Time, residential, liftgate bool) ([]Quote, error)
}
