package internal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BillingCycle is how often a subscription charges its amount
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
	BillingOneTime BillingCycle = "one-time"
)

// BillingCycles lists the recognised cycles in display order
var BillingCycles = []BillingCycle{BillingMonthly, BillingYearly, BillingOneTime}

func (b BillingCycle) Valid() bool {
	switch b {
	case BillingMonthly, BillingYearly, BillingOneTime:
		return true
	}
	return false
}

// CurrencyCode is one of the supported ISO 4217 codes. Amounts are never converted.
type CurrencyCode string

const (
	USD CurrencyCode = "USD"
	EUR CurrencyCode = "EUR"
	GBP CurrencyCode = "GBP"
	JPY CurrencyCode = "JPY"
	CAD CurrencyCode = "CAD"
	AUD CurrencyCode = "AUD"
)

// SupportedCurrencies lists the currencies a subscription may be billed in
var SupportedCurrencies = []CurrencyCode{USD, EUR, GBP, JPY, CAD, AUD}

func (c CurrencyCode) Valid() bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

// ParseCurrencyCode normalises case and reports whether the code is supported
func ParseCurrencyCode(s string) (CurrencyCode, bool) {
	c := CurrencyCode(strings.ToUpper(strings.TrimSpace(s)))
	return c, c.Valid()
}

// MaxAmount is the largest amount accepted on entry or import
var MaxAmount = decimal.NewFromInt(999999)

// Subscription is a single recurring (or one-off) payment the user tracks
type Subscription struct {
	ID           string
	Name         string
	Provider     string
	Category     string
	Icon         Icon
	StartDate    Date
	BillingCycle BillingCycle
	Amount       decimal.Decimal
	Currency     CurrencyCode
	Notes        string
	ActiveStatus bool
	AutoRenew    bool
}

// record is the persisted/exported JSON shape of a Subscription
type record struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Provider     string       `json:"provider"`
	Category     string       `json:"category"`
	Icon         string       `json:"icon"`
	StartDate    Date         `json:"startDate"`
	BillingCycle BillingCycle `json:"billingCycle"`
	Amount       any          `json:"amount"`
	Currency     CurrencyCode `json:"currency"`
	Notes        string       `json:"notes"`
	ActiveStatus bool         `json:"activeStatus"`
	AutoRenew    bool         `json:"autoRenew"`
}

func (s Subscription) MarshalJSON() ([]byte, error) {
	return json.Marshal(record{
		ID:           s.ID,
		Name:         s.Name,
		Provider:     s.Provider,
		Category:     s.Category,
		Icon:         string(s.Icon),
		StartDate:    s.StartDate,
		BillingCycle: s.BillingCycle,
		Amount:       json.Number(s.Amount.String()),
		Currency:     s.Currency,
		Notes:        s.Notes,
		ActiveStatus: s.ActiveStatus,
		AutoRenew:    s.AutoRenew,
	})
}

// UnmarshalJSON is lenient: a field of the wrong type reads as its zero value,
// a missing or non-numeric amount becomes zero and an unparseable start date
// becomes the zero Date. Flags also accept "true"/"false" strings. Only a
// value that is not an object is an error; strict checks belong to Validate.
func (s *Subscription) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("subscription: expected object, got null")
	}

	text := func(key string) string {
		var v string
		_ = json.Unmarshal(fields[key], &v)
		return v
	}
	flag := func(key string) bool {
		var v any
		_ = json.Unmarshal(fields[key], &v)
		switch b := v.(type) {
		case bool:
			return b
		case string:
			return strings.EqualFold(strings.TrimSpace(b), "true")
		}
		return false
	}

	var amount any
	_ = json.Unmarshal(fields["amount"], &amount)
	var start Date
	_ = start.UnmarshalJSON(fields["startDate"])

	*s = Subscription{
		ID:           text("id"),
		Name:         text("name"),
		Provider:     text("provider"),
		Category:     text("category"),
		Icon:         IconOrDefault(text("icon")),
		StartDate:    start,
		BillingCycle: BillingCycle(text("billingCycle")),
		Amount:       decimalFromAny(amount),
		Currency:     CurrencyCode(text("currency")),
		Notes:        text("notes"),
		ActiveStatus: flag("activeStatus"),
		AutoRenew:    flag("autoRenew"),
	}
	return nil
}

func decimalFromAny(v any) decimal.Decimal {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n)
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

// epoch is what a zero Date means to the aggregator
var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Date is a calendar date. Any time-of-day component of the input is dropped.
type Date struct {
	t time.Time
}

// dateLayouts are tried in order when parsing
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the calendar date of t as written in its own location
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts ISO-8601 datetimes and plain YYYY-MM-DD dates
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// ParseDateOrZero is the lenient variant used on stored data
func ParseDateOrZero(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		return Date{}
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns the date at UTC midnight, or the Unix epoch for a zero Date
func (d Date) Time() time.Time {
	if d.t.IsZero() {
		return epoch
	}
	return d.t
}

func (d Date) Year() int          { return d.Time().Year() }
func (d Date) Month() time.Month  { return d.Time().Month() }
func (d Date) Before(o Date) bool { return d.Time().Before(o.Time()) }

func (d Date) String() string {
	return d.Time().Format("2006-01-02")
}

// ISO formats the date as a UTC timestamp at midnight
func (d Date) ISO() string {
	return d.Time().Format("2006-01-02T15:04:05.000Z")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.ISO())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*d = Date{}
		return nil
	}
	*d = ParseDateOrZero(s)
	return nil
}

// Clone returns a copy of the slice so callers can modify it freely
func Clone(subs []Subscription) []Subscription {
	if subs == nil {
		return nil
	}
	out := make([]Subscription, len(subs))
	copy(out, subs)
	return out
}

// FindByID returns the index of the subscription with the given id, or -1
func FindByID(subs []Subscription, id string) int {
	for i := range subs {
		if subs[i].ID == id {
			return i
		}
	}
	return -1
}

// DisplayCurrency picks the currency used for summary figures: the configured
// one if set, otherwise the first subscription's, otherwise USD.
func DisplayCurrency(configured CurrencyCode, subs []Subscription) CurrencyCode {
	if configured.Valid() {
		return configured
	}
	if len(subs) > 0 && subs[0].Currency.Valid() {
		return subs[0].Currency
	}
	return USD
}
