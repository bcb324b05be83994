package internal

import (
	"github.com/shopspring/decimal"
)

// Totals are the headline figures for a set of subscriptions
type Totals struct {
	Monthly decimal.Decimal
	Annual  decimal.Decimal
	Count   int
}

// TotalsOf sums active subscriptions. Monthly is the sum of monthly charges;
// Annual adds yearly charges and one-time purchases made in year.
func TotalsOf(subs []Subscription, year int) Totals {
	t := Totals{Monthly: decimal.Zero, Annual: decimal.Zero}
	yearly := decimal.Zero
	oneTime := decimal.Zero

	for _, sub := range ActiveOnly(subs) {
		t.Count++
		amount := costAmount(sub)
		switch sub.BillingCycle {
		case BillingMonthly:
			t.Monthly = t.Monthly.Add(amount)
		case BillingYearly:
			yearly = yearly.Add(amount)
		case BillingOneTime:
			if sub.StartDate.Year() == year {
				oneTime = oneTime.Add(amount)
			}
		}
	}

	t.Annual = t.Monthly.Mul(decimal.NewFromInt(12)).Add(yearly).Add(oneTime)
	return t
}

// Comparison puts persisted totals next to simulated ones
type Comparison struct {
	Original         Totals
	Simulated        Totals
	DeltaMonthly     decimal.Decimal
	DeltaAnnual      decimal.Decimal
	DeltaCount       int
	PotentialSavings decimal.Decimal
}

func CompareTotals(original, simulated Totals) Comparison {
	deltaAnnual := simulated.Annual.Sub(original.Annual)
	return Comparison{
		Original:         original,
		Simulated:        simulated,
		DeltaMonthly:     simulated.Monthly.Sub(original.Monthly),
		DeltaAnnual:      deltaAnnual,
		DeltaCount:       simulated.Count - original.Count,
		PotentialSavings: deltaAnnual.Neg(),
	}
}

// Dashboard is everything the report and API views render for one snapshot
type Dashboard struct {
	Year          int
	Currency      CurrencyCode
	Simulated     bool
	Overrides     []Override
	Totals        Comparison
	Breakdown     CategoryBreakdown
	Colors        ChartColors
	Timeline      []MonthTotal
	Trend         []YearCost
	Count         int
	Subscriptions []Subscription
}

// BuildDashboard computes every view from the persisted snapshot and an
// optional simulation. Charts use the simulated snapshot when one is given.
func BuildDashboard(subs []Subscription, sim *Simulation, year int, currency CurrencyCode) Dashboard {
	effective := sim.Apply(subs)
	breakdown := CategoryBreakdownOf(effective)

	return Dashboard{
		Year:          year,
		Currency:      DisplayCurrency(currency, subs),
		Simulated:     !sim.IsEmpty(),
		Overrides:     sim.Overrides(),
		Totals:        CompareTotals(TotalsOf(subs, year), TotalsOf(effective, year)),
		Breakdown:     breakdown,
		Colors:        ChartColorsOf(breakdown.Entries),
		Timeline:      MonthlyTimelineOf(effective, year),
		Trend:         YearOverYearTrendOf(effective, year),
		Count:         len(subs),
		Subscriptions: effective,
	}
}
