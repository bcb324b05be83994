package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gigurra/subsight/internal"
	"github.com/gigurra/subsight/internal/store"
	"github.com/shopspring/decimal"
)

// addRecord turns add flags into a record for internal.ValidateRecord, so
// the command line and imports share one set of rules
func addRecord(p *AddParams, today time.Time, localeCurrency internal.CurrencyCode) map[string]any {
	start := internal.DateOf(today).ISO()
	if p.Start != "" {
		d, err := internal.ParseDate(p.Start)
		if err != nil {
			start = p.Start // rejected by validation
		} else {
			start = d.ISO()
		}
	}

	currency := strings.ToUpper(p.Currency)
	if currency == "" {
		currency = string(internal.USD)
		if localeCurrency != "" {
			currency = string(localeCurrency)
		}
	}

	return map[string]any{
		"name":         p.Name,
		"provider":     p.Provider,
		"category":     p.Category,
		"icon":         p.Icon,
		"startDate":    start,
		"billingCycle": p.Cycle,
		"amount":       p.Amount,
		"currency":     currency,
		"notes":        p.Notes,
		"activeStatus": !p.Inactive,
		"autoRenew":    !p.NoAutoRenew,
	}
}

// updatePatch converts update flags into a patch. Empty flags are left unchanged.
func updatePatch(p *UpdateParams) (store.Patch, error) {
	var patch store.Patch
	var problems []string

	for _, f := range []struct {
		field string
		value string
		dst   **string
	}{
		{"name", p.Name, &patch.Name},
		{"provider", p.Provider, &patch.Provider},
		{"category", p.Category, &patch.Category},
		{"notes", p.Notes, &patch.Notes},
	} {
		if f.value == "" {
			continue
		}
		if msg := internal.TextIssue(f.field, f.value); msg != "" {
			problems = append(problems, fmt.Sprintf("%s: %s", f.field, msg))
		}
		value := f.value
		*f.dst = &value
	}

	if p.Amount != "" {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			problems = append(problems, fmt.Sprintf("amount: must be a number, got %q", p.Amount))
		} else if msg := internal.AmountIssue(amount); msg != "" {
			problems = append(problems, fmt.Sprintf("amount: %s, got %s", msg, p.Amount))
		}
		patch.Amount = &amount
	}
	if p.Cycle != "" {
		cycle := internal.BillingCycle(p.Cycle)
		if !cycle.Valid() {
			problems = append(problems, fmt.Sprintf("cycle: must be one of %v, got %q", internal.BillingCycles, p.Cycle))
		}
		patch.BillingCycle = &cycle
	}
	if p.Currency != "" {
		code, ok := internal.ParseCurrencyCode(p.Currency)
		if !ok {
			problems = append(problems, fmt.Sprintf("currency: must be one of %v, got %q", internal.SupportedCurrencies, p.Currency))
		}
		patch.Currency = &code
	}
	if p.Start != "" {
		d, err := internal.ParseDate(p.Start)
		if err != nil {
			problems = append(problems, fmt.Sprintf("start: invalid date %q", p.Start))
		}
		patch.StartDate = &d
	}
	if p.Icon != "" {
		icon := internal.Icon(p.Icon)
		if !icon.Valid() {
			problems = append(problems, fmt.Sprintf("icon: unknown icon %q", p.Icon))
		}
		patch.Icon = &icon
	}
	for _, f := range []struct {
		name  string
		value string
		dst   **bool
	}{
		{"active", p.Active, &patch.ActiveStatus},
		{"auto-renew", p.AutoRenew, &patch.AutoRenew},
	} {
		if f.value == "" {
			continue
		}
		b, err := strconv.ParseBool(f.value)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: must be true or false, got %q", f.name, f.value))
		}
		*f.dst = &b
	}

	if len(problems) > 0 {
		return store.Patch{}, fmt.Errorf("invalid flags:\n- %s", strings.Join(problems, "\n- "))
	}
	return patch, nil
}

// reportYear is year, or the current year when year is 0
func reportYear(year int, now time.Time) int {
	if year == 0 {
		return now.Year()
	}
	return year
}
