package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
)

// ListOptions controls how subscriptions are listed
type ListOptions struct {
	ShowFilter string // active, inactive or all
	Category   string
	SortField  string // name, amount, annual, start
	SortDir    string
	Money      Money
}

// chartPalette is the terminal rendering of the five chart slots
var chartPalette = []text.Colors{
	{text.FgHiBlue},
	{text.FgHiGreen},
	{text.FgHiYellow},
	{text.FgHiMagenta},
	{text.FgHiCyan},
}

// SlotColor returns the terminal colour for a chart slot (1-based)
func SlotColor(slot int) text.Colors {
	if slot < 1 {
		return text.Colors{}
	}
	return chartPalette[(slot-1)%len(chartPalette)]
}

// FilterByStatus keeps active, inactive or all subscriptions
func FilterByStatus(subs []Subscription, show string) []Subscription {
	if show == "" || show == "all" {
		return subs
	}
	var result []Subscription
	for _, sub := range subs {
		if show == "active" && sub.ActiveStatus {
			result = append(result, sub)
		} else if show == "inactive" && !sub.ActiveStatus {
			result = append(result, sub)
		}
	}
	return result
}

// FilterByCategory keeps subscriptions of one category (case-insensitive)
func FilterByCategory(subs []Subscription, category string) []Subscription {
	if category == "" {
		return subs
	}
	var result []Subscription
	for _, sub := range subs {
		if strings.EqualFold(CategoryOf(sub), category) {
			result = append(result, sub)
		}
	}
	return result
}

// SortSubscriptions sorts in place by name, amount, annual cost or start date
func SortSubscriptions(subs []Subscription, field, dir string) {
	less := func(a, b Subscription) bool {
		switch field {
		case "amount":
			return a.Amount.LessThan(b.Amount)
		case "annual":
			return AnnualCostOf(a).LessThan(AnnualCostOf(b))
		case "start":
			return a.StartDate.Before(b.StartDate)
		default: // "name"
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		if dir == "desc" {
			return less(subs[j], subs[i])
		}
		return less(subs[i], subs[j])
	})
}

func statusLabel(active bool) string {
	if active {
		return text.FgGreen.Sprint("ACTIVE")
	}
	return text.FgRed.Sprint("INACTIVE")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// PrintSubscriptionsTable lists subscriptions with per-row and total costs.
// Amounts are shown in each record's own currency; totals use opts.Money.
func PrintSubscriptionsTable(w io.Writer, allSubs []Subscription, displaySubs []Subscription, opts ListOptions) {
	active := len(ActiveOnly(allSubs))
	fmt.Fprintf(w, "Tracking %d subscriptions (%d active, %d inactive)\n",
		len(allSubs), active, len(allSubs)-active)
	showing := opts.ShowFilter
	if opts.Category != "" {
		showing += fmt.Sprintf(", category: %s", opts.Category)
	}
	fmt.Fprintf(w, "Showing: %s\n\n", showing)

	SortSubscriptions(displaySubs, opts.SortField, opts.SortDir)

	t := newTable(w)
	header := table.Row{"", "ID", "Name", "Provider", "Category", "Status", "Cycle", "Started", "Amount", "Yearly"}
	t.AppendHeader(header)

	totalAnnual := decimal.Zero
	for _, sub := range displaySubs {
		money := NewMoney(sub.Currency, opts.Money.tag)
		annual := AnnualCostOf(sub)
		annualStr := money.Format(annual)
		if !sub.ActiveStatus {
			annualStr = text.FgHiBlack.Sprint("-")
		} else {
			totalAnnual = totalAnnual.Add(annual)
		}
		t.AppendRow(table.Row{
			sub.Icon.Glyph(),
			shortID(sub.ID),
			sub.Name,
			sub.Provider,
			CategoryOf(sub),
			statusLabel(sub.ActiveStatus),
			string(sub.BillingCycle),
			sub.StartDate.String(),
			money.Format(sub.Amount),
			annualStr,
		})
	}

	t.AppendSeparator()
	t.AppendFooter(table.Row{"", "", "", "", "", "", "", text.Bold.Sprint("Total (active)"), "",
		text.Bold.Sprint(opts.Money.Format(totalAnnual))})

	colCount := len(header)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: colCount - 1, Align: text.AlignRight},
		{Number: colCount, Align: text.AlignRight},
	})
	t.Render()
}

// PrintDashboard renders the KPI cards, category breakdown, monthly timeline
// and year-over-year trend
func PrintDashboard(w io.Writer, d Dashboard, money Money) {
	printKPIs(w, d, money)
	fmt.Fprintln(w)
	printBreakdown(w, d, money)
	fmt.Fprintln(w)
	printTimeline(w, d, money)
	fmt.Fprintln(w)
	printTrend(w, d, money)
}

func printKPIs(w io.Writer, d Dashboard, money Money) {
	c := d.Totals
	if d.Simulated {
		ids := make([]string, len(d.Overrides))
		for i, o := range d.Overrides {
			state := "off"
			if o.Active {
				state = "on"
			}
			ids[i] = shortID(o.ID) + "=" + state
		}
		fmt.Fprintf(w, "%s %s\n\n", text.FgYellow.Sprint("Simulation:"), strings.Join(ids, ", "))
	}

	t := newTable(w)
	if !d.Simulated {
		t.AppendHeader(table.Row{"KPI", "Value"})
		t.AppendRow(table.Row{"Monthly cost", money.Format(c.Original.Monthly)})
		t.AppendRow(table.Row{fmt.Sprintf("Annual cost (%d)", d.Year), money.Format(c.Original.Annual)})
		t.AppendRow(table.Row{"Active subscriptions", c.Original.Count})
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
		t.Render()
		return
	}

	t.AppendHeader(table.Row{"KPI", "Current", "Simulated", "Change"})
	t.AppendRow(table.Row{"Monthly cost", money.Format(c.Original.Monthly), money.Format(c.Simulated.Monthly), deltaString(money, c.DeltaMonthly)})
	t.AppendRow(table.Row{fmt.Sprintf("Annual cost (%d)", d.Year), money.Format(c.Original.Annual), money.Format(c.Simulated.Annual), deltaString(money, c.DeltaAnnual)})
	t.AppendRow(table.Row{"Active subscriptions", c.Original.Count, c.Simulated.Count, fmt.Sprintf("%+d", c.DeltaCount)})
	t.AppendSeparator()
	t.AppendFooter(table.Row{text.Bold.Sprint("Potential savings"), "", "", text.Bold.Sprint(money.Format(c.PotentialSavings))})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

// deltaString colours savings green and increases red
func deltaString(money Money, delta decimal.Decimal) string {
	s := money.FormatDelta(delta)
	switch {
	case delta.IsNegative():
		return text.FgGreen.Sprint(s)
	case delta.IsPositive():
		return text.FgRed.Sprint(s)
	}
	return s
}

func printBreakdown(w io.Writer, d Dashboard, money Money) {
	t := newTable(w)
	t.SetTitle("Spending by category")
	t.AppendHeader(table.Row{"", "Category", "Annual", "Share"})
	for _, e := range d.Breakdown.Entries {
		slot, _ := d.Colors.Lookup(e.Category)
		share := "0.0%"
		if d.Breakdown.TotalAnnualCost.IsPositive() {
			share = e.AnnualCost.Div(d.Breakdown.TotalAnnualCost).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
		}
		t.AppendRow(table.Row{SlotColor(slot).Sprint("■"), e.Category, money.Format(e.AnnualCost), share})
	}
	t.AppendSeparator()
	t.AppendFooter(table.Row{"", text.Bold.Sprint("Total"), text.Bold.Sprint(money.Format(d.Breakdown.TotalAnnualCost)), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
}

// barWidth is the width of the longest timeline bar
const barWidth = 30

func printTimeline(w io.Writer, d Dashboard, money Money) {
	peak := decimal.Zero
	for _, m := range d.Timeline {
		if m.Total.GreaterThan(peak) {
			peak = m.Total
		}
	}

	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Projected spending %d", d.Year))
	t.AppendHeader(table.Row{"Month", "Spend", ""})
	for _, m := range d.Timeline {
		bar := ""
		if peak.IsPositive() {
			n := m.Total.Div(peak).Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart()
			bar = text.FgHiBlue.Sprint(strings.Repeat("█", int(n)))
		}
		t.AppendRow(table.Row{m.Label(), money.Format(m.Total), bar})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()
}

func printTrend(w io.Writer, d Dashboard, money Money) {
	t := newTable(w)
	t.SetTitle("Year over year")
	t.AppendHeader(table.Row{"Year", "Annual run-rate"})
	for _, y := range d.Trend {
		t.AppendRow(table.Row{y.Year, money.Format(y.Cost)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	t.Render()
}

// SubscriptionJSON is the JSON form of a subscription in list output
type SubscriptionJSON struct {
	Subscription
	AnnualCost float64 `json:"annualCost"`
}

func (s SubscriptionJSON) MarshalJSON() ([]byte, error) {
	base, err := s.Subscription.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	m["annualCost"] = s.AnnualCost
	return json.Marshal(m)
}

// ListJSON is the root object of `list --output json`
type ListJSON struct {
	Subscriptions []SubscriptionJSON `json:"subscriptions"`
	Summary       TotalsJSON         `json:"summary"`
}

type TotalsJSON struct {
	Monthly  float64 `json:"monthly"`
	Annual   float64 `json:"annual"`
	Count    int     `json:"count"`
	Currency string  `json:"currency"`
}

type ComparisonJSON struct {
	Original         TotalsJSON `json:"original"`
	Simulated        TotalsJSON `json:"simulated"`
	DeltaMonthly     float64    `json:"deltaMonthly"`
	DeltaAnnual      float64    `json:"deltaAnnual"`
	DeltaCount       int        `json:"deltaCount"`
	PotentialSavings float64    `json:"potentialSavings"`
}

type CategoryJSON struct {
	Category   string  `json:"category"`
	AnnualCost float64 `json:"annualCost"`
	ColorSlot  int     `json:"colorSlot"`
}

type MonthJSON struct {
	Month int     `json:"month"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

type YearJSON struct {
	Year int     `json:"year"`
	Cost float64 `json:"cost"`
}

// DashboardJSON is the JSON form of a Dashboard, shared by the CLI and the API
type DashboardJSON struct {
	Year            int            `json:"year"`
	Currency        string         `json:"currency"`
	Simulated       bool           `json:"simulated"`
	Overrides       []Override     `json:"overrides"`
	KPIs            ComparisonJSON `json:"kpis"`
	Categories      []CategoryJSON `json:"categories"`
	TotalAnnualCost float64        `json:"totalAnnualCost"`
	Timeline        []MonthJSON    `json:"timeline"`
	Trend           []YearJSON     `json:"trend"`
}

func totalsJSON(t Totals, currency CurrencyCode) TotalsJSON {
	return TotalsJSON{
		Monthly:  t.Monthly.InexactFloat64(),
		Annual:   t.Annual.InexactFloat64(),
		Count:    t.Count,
		Currency: string(currency),
	}
}

// NewListJSON converts subscriptions and their active totals for JSON output
func NewListJSON(subs []Subscription, year int, currency CurrencyCode) ListJSON {
	out := ListJSON{
		Subscriptions: make([]SubscriptionJSON, 0, len(subs)),
		Summary:       totalsJSON(TotalsOf(subs, year), currency),
	}
	for _, s := range subs {
		out.Subscriptions = append(out.Subscriptions, SubscriptionJSON{Subscription: s, AnnualCost: AnnualCostOf(s).InexactFloat64()})
	}
	return out
}

// NewDashboardJSON converts a Dashboard for JSON output
func NewDashboardJSON(d Dashboard) DashboardJSON {
	c := d.Totals
	out := DashboardJSON{
		Year:      d.Year,
		Currency:  string(d.Currency),
		Simulated: d.Simulated,
		Overrides: d.Overrides,
		KPIs: ComparisonJSON{
			Original:         totalsJSON(c.Original, d.Currency),
			Simulated:        totalsJSON(c.Simulated, d.Currency),
			DeltaMonthly:     c.DeltaMonthly.InexactFloat64(),
			DeltaAnnual:      c.DeltaAnnual.InexactFloat64(),
			DeltaCount:       c.DeltaCount,
			PotentialSavings: c.PotentialSavings.InexactFloat64(),
		},
		Categories:      make([]CategoryJSON, 0, len(d.Breakdown.Entries)),
		TotalAnnualCost: d.Breakdown.TotalAnnualCost.InexactFloat64(),
	}
	if out.Overrides == nil {
		out.Overrides = []Override{}
	}
	for _, e := range d.Breakdown.Entries {
		slot, _ := d.Colors.Lookup(e.Category)
		out.Categories = append(out.Categories, CategoryJSON{Category: e.Category, AnnualCost: e.AnnualCost.InexactFloat64(), ColorSlot: slot})
	}
	for _, m := range d.Timeline {
		out.Timeline = append(out.Timeline, MonthJSON{Month: m.Month, Label: m.Label(), Total: m.Total.InexactFloat64()})
	}
	for _, y := range d.Trend {
		out.Trend = append(out.Trend, YearJSON{Year: y.Year, Cost: y.Cost.InexactFloat64()})
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintSubscriptionsJSON writes subscriptions and their active totals as JSON
func PrintSubscriptionsJSON(w io.Writer, subs []Subscription, year int, currency CurrencyCode) error {
	return writeJSON(w, NewListJSON(subs, year, currency))
}

// PrintDashboardJSON writes the dashboard as JSON
func PrintDashboardJSON(w io.Writer, d Dashboard) error {
	return writeJSON(w, NewDashboardJSON(d))
}
