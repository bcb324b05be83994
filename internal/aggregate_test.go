package internal

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sub(category string, cycle BillingCycle, amount string, active bool, start string) Subscription {
	s := Subscription{
		Category:     category,
		BillingCycle: cycle,
		Amount:       dec(amount),
		ActiveStatus: active,
	}
	if start != "" {
		s.StartDate = date(start)
	}
	return s
}

func TestAnnualCostOf(t *testing.T) {
	tests := []struct {
		name     string
		sub      Subscription
		expected string
	}{
		{"monthly", sub("", BillingMonthly, "15.99", true, ""), "191.88"},
		{"yearly", sub("", BillingYearly, "99", true, ""), "99"},
		{"one-time", sub("", BillingOneTime, "500", true, ""), "0"},
		{"unknown cycle", sub("", BillingCycle("weekly"), "10", true, ""), "0"},
		{"negative amount", sub("", BillingMonthly, "-5", true, ""), "0"},
		{"zero amount", sub("", BillingMonthly, "0", true, ""), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnnualCostOf(tt.sub)
			if !got.Equal(dec(tt.expected)) {
				t.Errorf("AnnualCostOf() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestCategoryBreakdownOf_Empty(t *testing.T) {
	b := CategoryBreakdownOf(nil)
	if len(b.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(b.Entries))
	}
	if !b.TotalAnnualCost.IsZero() {
		t.Errorf("expected zero total, got %s", b.TotalAnnualCost)
	}
}

func TestCategoryBreakdownOf_ExcludesInactive(t *testing.T) {
	subs := []Subscription{
		sub("Streaming", BillingMonthly, "15", true, ""),
		sub("Streaming", BillingYearly, "60", true, "2024-03-01"),
		sub("Software", BillingMonthly, "10", false, ""),
	}

	b := CategoryBreakdownOf(subs)
	if len(b.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %+v", len(b.Entries), b.Entries)
	}
	if b.Entries[0].Category != "Streaming" || !b.Entries[0].AnnualCost.Equal(dec("240")) {
		t.Errorf("unexpected entry %s=%s", b.Entries[0].Category, b.Entries[0].AnnualCost)
	}
	if !b.TotalAnnualCost.Equal(dec("240")) {
		t.Errorf("expected total 240, got %s", b.TotalAnnualCost)
	}
}

func TestCategoryBreakdownOf_SortAndTies(t *testing.T) {
	subs := []Subscription{
		sub("Music", BillingYearly, "100", true, ""),
		sub("", BillingMonthly, "1", true, ""),
		sub("Gaming", BillingYearly, "100", true, ""),
		sub("Video", BillingMonthly, "20", true, ""),
		sub("Free", BillingMonthly, "0", true, ""),
		sub("Oneoff", BillingOneTime, "300", true, ""),
	}

	b := CategoryBreakdownOf(subs)
	want := []struct {
		cat  string
		cost string
	}{
		{"Video", "240"},
		{"Music", "100"},
		{"Gaming", "100"},
		{UncategorizedLabel, "12"},
		{"Free", "0"},
		{"Oneoff", "0"},
	}
	if len(b.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(b.Entries))
	}
	sum := decimal.Zero
	for i, w := range want {
		e := b.Entries[i]
		if e.Category != w.cat || !e.AnnualCost.Equal(dec(w.cost)) {
			t.Errorf("entry %d = %s:%s, want %s:%s", i, e.Category, e.AnnualCost, w.cat, w.cost)
		}
		if i > 0 && e.AnnualCost.GreaterThan(b.Entries[i-1].AnnualCost) {
			t.Errorf("entries not sorted at %d", i)
		}
		sum = sum.Add(e.AnnualCost)
	}
	if !sum.Equal(b.TotalAnnualCost) {
		t.Errorf("sum of entries %s != total %s", sum, b.TotalAnnualCost)
	}
}

func TestMonthlyTimelineOf(t *testing.T) {
	tests := []struct {
		name     string
		subs     []Subscription
		expected map[int]string // month -> total; others must be zero
	}{
		{
			name:     "empty",
			subs:     nil,
			expected: map[int]string{},
		},
		{
			name: "monthly lands in every month",
			subs: []Subscription{sub("A", BillingMonthly, "10", true, "2030-11-05")},
			expected: map[int]string{
				1: "10", 2: "10", 3: "10", 4: "10", 5: "10", 6: "10",
				7: "10", 8: "10", 9: "10", 10: "10", 11: "10", 12: "10",
			},
		},
		{
			name:     "yearly lands in start month only",
			subs:     []Subscription{sub("A", BillingYearly, "120", true, "2019-06-15")},
			expected: map[int]string{6: "120"},
		},
		{
			name: "one-time and inactive contribute nothing",
			subs: []Subscription{
				sub("A", BillingOneTime, "50", true, "2024-02-01"),
				sub("B", BillingYearly, "80", false, "2024-02-01"),
			},
			expected: map[int]string{},
		},
		{
			name:     "missing start date falls in January",
			subs:     []Subscription{sub("A", BillingYearly, "30", true, "")},
			expected: map[int]string{1: "30"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyTimelineOf(tt.subs, 2024)
			if len(got) != 12 {
				t.Fatalf("expected 12 months, got %d", len(got))
			}
			for i, m := range got {
				if m.Month != i+1 {
					t.Errorf("bucket %d has month %d", i, m.Month)
				}
				want := decimal.Zero
				if s, ok := tt.expected[m.Month]; ok {
					want = dec(s)
				}
				if !m.Total.Equal(want) {
					t.Errorf("month %d total = %s, want %s", m.Month, m.Total, want)
				}
			}
		})
	}
}

func TestMonthTotal_Label(t *testing.T) {
	if got := (MonthTotal{Month: int(time.March)}).Label(); got != "Mar" {
		t.Errorf("Label() = %q, want Mar", got)
	}
}

func TestYearOverYearTrendOf(t *testing.T) {
	tests := []struct {
		name    string
		subs    []Subscription
		prev    string
		current string
	}{
		{"empty", nil, "0", "0"},
		{"old subscription counts in both years", []Subscription{sub("A", BillingYearly, "50", true, "2020-01-01")}, "50", "50"},
		{"started this year", []Subscription{sub("A", BillingMonthly, "10", true, "2024-07-01")}, "0", "120"},
		{"starts in the future", []Subscription{sub("A", BillingMonthly, "10", true, "2026-01-01")}, "0", "0"},
		{"inactive ignored", []Subscription{sub("A", BillingYearly, "50", false, "2020-01-01")}, "0", "0"},
		{"one-time ignored", []Subscription{sub("A", BillingOneTime, "50", true, "2024-01-01")}, "0", "0"},
		{"missing date is epoch", []Subscription{sub("A", BillingYearly, "7", true, "")}, "7", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YearOverYearTrendOf(tt.subs, 2024)
			if len(got) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(got))
			}
			if got[0].Year != 2023 || got[1].Year != 2024 {
				t.Errorf("unexpected years %d, %d", got[0].Year, got[1].Year)
			}
			if !got[0].Cost.Equal(dec(tt.prev)) {
				t.Errorf("previous year = %s, want %s", got[0].Cost, tt.prev)
			}
			if !got[1].Cost.Equal(dec(tt.current)) {
				t.Errorf("current year = %s, want %s", got[1].Cost, tt.current)
			}
		})
	}
}

func TestChartColorsOf(t *testing.T) {
	entries := []CategoryCost{
		{Category: "a"}, {Category: "b"}, {Category: "c"},
		{Category: "d"}, {Category: "e"}, {Category: "f"},
	}
	colors := ChartColorsOf(entries)
	wantSlots := []int{1, 2, 3, 4, 5, 1}
	for i, c := range colors {
		if c.Slot != wantSlots[i] {
			t.Errorf("%s slot = %d, want %d", c.Category, c.Slot, wantSlots[i])
		}
	}
	if slot, ok := colors.Lookup("f"); !ok || slot != 1 {
		t.Errorf("Lookup(f) = %d, %v", slot, ok)
	}
	if _, ok := colors.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
}

func TestAggregation_Deterministic(t *testing.T) {
	subs := []Subscription{
		sub("B", BillingMonthly, "3.5", true, "2022-04-01"),
		sub("A", BillingYearly, "42", true, "2023-09-10"),
		sub("B", BillingYearly, "42", true, "2021-09-10"),
	}
	first := CategoryBreakdownOf(subs)
	second := CategoryBreakdownOf(subs)
	for i := range first.Entries {
		if first.Entries[i].Category != second.Entries[i].Category ||
			!first.Entries[i].AnnualCost.Equal(second.Entries[i].AnnualCost) {
			t.Errorf("breakdown differs at %d", i)
		}
	}
	t1 := MonthlyTimelineOf(subs, 2024)
	t2 := MonthlyTimelineOf(subs, 2024)
	for i := range t1 {
		if !t1[i].Total.Equal(t2[i].Total) {
			t.Errorf("timeline differs at %d", i)
		}
	}
}
