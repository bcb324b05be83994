package internal

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// UncategorizedLabel is used for subscriptions without a category
const UncategorizedLabel = "Uncategorized"

// ChartSlots is the size of the chart colour palette
const ChartSlots = 5

// CategoryCost is the annualised cost of one category
type CategoryCost struct {
	Category   string
	AnnualCost decimal.Decimal
}

// CategoryBreakdown holds per-category annual costs, most expensive first
type CategoryBreakdown struct {
	Entries         []CategoryCost
	TotalAnnualCost decimal.Decimal
}

// MonthTotal is the projected spend for one calendar month (Month is 1..12)
type MonthTotal struct {
	Month int
	Total decimal.Decimal
}

// Label returns the short month name, e.g. "Jan"
func (m MonthTotal) Label() string {
	return time.Month(m.Month).String()[:3]
}

// YearCost is the annualised run-rate at the end of Year
type YearCost struct {
	Year int
	Cost decimal.Decimal
}

// ChartColor assigns a palette slot (1..ChartSlots) to a category
type ChartColor struct {
	Category string
	Slot     int
}

type ChartColors []ChartColor

// Lookup returns the slot for a category
func (c ChartColors) Lookup(category string) (int, bool) {
	for _, cc := range c {
		if cc.Category == category {
			return cc.Slot, true
		}
	}
	return 0, false
}

// costAmount treats negative amounts as zero cost
func costAmount(sub Subscription) decimal.Decimal {
	if sub.Amount.IsNegative() {
		return decimal.Zero
	}
	return sub.Amount
}

// AnnualCostOf returns what the subscription costs over one year.
// One-time and unrecognised billing cycles contribute nothing.
func AnnualCostOf(sub Subscription) decimal.Decimal {
	switch sub.BillingCycle {
	case BillingMonthly:
		return costAmount(sub).Mul(decimal.NewFromInt(12))
	case BillingYearly:
		return costAmount(sub)
	default:
		return decimal.Zero
	}
}

// CategoryOf returns the category a subscription is grouped under
func CategoryOf(sub Subscription) string {
	if sub.Category != "" {
		return sub.Category
	}
	return UncategorizedLabel
}

// ActiveOnly filters to active subscriptions, preserving order
func ActiveOnly(subs []Subscription) []Subscription {
	var out []Subscription
	for _, sub := range subs {
		if sub.ActiveStatus {
			out = append(out, sub)
		}
	}
	return out
}

// CategoryBreakdownOf groups active subscriptions by category and sums their
// annual cost. Entries are sorted by descending cost; ties keep first-seen order.
func CategoryBreakdownOf(subs []Subscription) CategoryBreakdown {
	result := CategoryBreakdown{Entries: []CategoryCost{}, TotalAnnualCost: decimal.Zero}
	index := make(map[string]int)

	for _, sub := range ActiveOnly(subs) {
		cat := CategoryOf(sub)
		cost := AnnualCostOf(sub)
		i, ok := index[cat]
		if !ok {
			i = len(result.Entries)
			index[cat] = i
			result.Entries = append(result.Entries, CategoryCost{Category: cat, AnnualCost: decimal.Zero})
		}
		result.Entries[i].AnnualCost = result.Entries[i].AnnualCost.Add(cost)
		result.TotalAnnualCost = result.TotalAnnualCost.Add(cost)
	}

	sort.SliceStable(result.Entries, func(i, j int) bool {
		return result.Entries[i].AnnualCost.GreaterThan(result.Entries[j].AnnualCost)
	})
	return result
}

// MonthlyTimelineOf projects spend for each month of referenceYear. Monthly
// subscriptions land in every month; yearly ones in the month they started.
// referenceYear does not change the buckets and is accepted so callers state
// which year they are projecting.
func MonthlyTimelineOf(subs []Subscription, referenceYear int) []MonthTotal {
	months := make([]MonthTotal, 12)
	for i := range months {
		months[i] = MonthTotal{Month: i + 1, Total: decimal.Zero}
	}

	for _, sub := range ActiveOnly(subs) {
		switch sub.BillingCycle {
		case BillingMonthly:
			amount := costAmount(sub)
			for i := range months {
				months[i].Total = months[i].Total.Add(amount)
			}
		case BillingYearly:
			m := int(sub.StartDate.Month()) - 1
			months[m].Total = months[m].Total.Add(costAmount(sub))
		}
	}
	return months
}

// YearOverYearTrendOf returns the annual run-rate at the end of the previous
// and the current year. A subscription counts toward every year from its start
// year on, so long-running subscriptions appear in both buckets.
func YearOverYearTrendOf(subs []Subscription, currentYear int) []YearCost {
	trend := []YearCost{
		{Year: currentYear - 1, Cost: decimal.Zero},
		{Year: currentYear, Cost: decimal.Zero},
	}
	for _, sub := range ActiveOnly(subs) {
		cost := AnnualCostOf(sub)
		started := sub.StartDate.Year()
		for i := range trend {
			if started <= trend[i].Year {
				trend[i].Cost = trend[i].Cost.Add(cost)
			}
		}
	}
	return trend
}

// ChartColorsOf cycles palette slots over the sorted breakdown entries
func ChartColorsOf(entries []CategoryCost) ChartColors {
	colors := make(ChartColors, 0, len(entries))
	for i, e := range entries {
		colors = append(colors, ChartColor{Category: e.Category, Slot: i%ChartSlots + 1})
	}
	return colors
}
