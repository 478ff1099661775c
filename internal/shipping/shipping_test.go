package shipping_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/floorworks/commerce/internal/money"
	"github.com/floorworks/commerce/internal/shipping"
)

func item(boxes int, weightLbs float64, class string, sample bool) shipping.LineItem {
	return shipping.LineItem{
		NumBoxes:        boxes,
		WeightPerBoxLbs: money.FromFloat(weightLbs),
		FreightClass:    class,
		IsSample:        sample,
	}
}

func TestSelectMode(t *testing.T) {
	cases := []struct {
		name  string
		items []shipping.LineItem
		want  shipping.Mode
	}{
		{"samples only is none", []shipping.LineItem{item(2, 1, "70", true)}, shipping.ModeNone},
		{"exactly at threshold is parcel", []shipping.LineItem{item(3, 50, "70", false)}, shipping.ModeParcel},
		{"just over threshold is ltl", []shipping.LineItem{item(3, 50.01, "70", false)}, shipping.ModeLTL},
		{"heavy multi-line is ltl", []shipping.LineItem{item(10, 40, "70", false), item(2, 10, "85", false)}, shipping.ModeLTL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shipping.SelectMode(tc.items))
		})
	}
}

func TestTotalWeight_IgnoresSamples(t *testing.T) {
	items := []shipping.LineItem{
		item(2, 30, "70", false),
		item(5, 1, "70", true),
	}
	assert.True(t, shipping.TotalWeight(items).Equal(decimal.NewFromInt(60)))
}

func TestAggregateByFreightClass_RoundsUpAndGroups(t *testing.T) {
	items := []shipping.LineItem{
		item(3, 33.34, "70", false),
		item(1, 10, "70", false),
		item(2, 25, "85", false),
		item(4, 2, "85", true),
	}
	classes := shipping.AggregateByFreightClass(items)

	byClass := map[string]int{}
	for _, c := range classes {
		byClass[c.FreightClass] = c.WeightLbs
	}
	assert.Equal(t, 111, byClass["70"]) // 100.02 + 10 = 110.02 -> ceil 111
	assert.Equal(t, 50, byClass["85"])  // samples excluded entirely
}

func TestNextBusinessDay_SkipsWeekend(t *testing.T) {
	friday := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Monday, shipping.NextBusinessDay(friday).Weekday())

	tuesday := time.Date(2026, 7, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Wednesday, shipping.NextBusinessDay(tuesday).Weekday())
}

func TestFallbackRater_AppliesMinimumAndTierMultipliers(t *testing.T) {
	r := shipping.NewFallbackRater()
	quotes := r.Rate(context.Background(), "10001", decimal.NewFromInt(10))

	assert.Len(t, quotes, 3)
	for _, q := range quotes {
		assert.True(t, q.IsFallback)
		assert.False(t, q.Cost.LessThan(money.FromCents(15000)), "every tier must respect the $150 minimum")
	}
	// standard and expedited must cost strictly more than economy once
	// weight*rate clears the minimum.
	heavy := r.Rate(context.Background(), "90001", decimal.NewFromInt(2000))
	byService := map[string]money.Amount{}
	for _, q := range heavy {
		byService[q.Service] = q.Cost
	}
	assert.True(t, byService["standard"].GreaterThan(byService["economy"]))
	assert.True(t, byService["expedited"].GreaterThan(byService["standard"]))
}
