package internal

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxImportRecords caps the number of records a single import may contain
const MaxImportRecords = 1000

const (
	maxNameLen     = 100
	maxProviderLen = 100
	maxCategoryLen = 50
	maxNotesLen    = 500
)

// ErrValidation is wrapped by every ValidationError
var ErrValidation = errors.New("validation failed")

// Issue is a single problem found in imported data. Path is dot-separated,
// e.g. "3.amount".
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.Path + ": " + is.Message
	}
	return strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type validator struct {
	issues []Issue
}

func (v *validator) add(path, format string, args ...any) {
	v.issues = append(v.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) str(item map[string]any, path, key string, min, max int) string {
	raw, ok := item[key]
	if !ok || raw == nil {
		v.add(path+key, "required")
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		v.add(path+key, "expected string, received %s", typeName(raw))
		return ""
	}
	if msg := lengthIssue(s, min, max); msg != "" {
		v.add(path+key, "%s", msg)
	}
	return s
}

// lengthIssue counts characters after trimming, since Sanitize trims before storing
func lengthIssue(s string, min, max int) string {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	switch {
	case n < min:
		return fmt.Sprintf("must contain at least %d character(s)", min)
	case n > max:
		return fmt.Sprintf("must contain at most %d character(s)", max)
	}
	return ""
}

var textLimits = map[string][2]int{
	"name":     {1, maxNameLen},
	"provider": {1, maxProviderLen},
	"category": {1, maxCategoryLen},
	"notes":    {0, maxNotesLen},
}

// TextIssue checks a new value for one of the text fields (name, provider,
// category, notes) and returns the problem, or "" when it is acceptable
func TextIssue(field, s string) string {
	limits, ok := textLimits[field]
	if !ok {
		return ""
	}
	return lengthIssue(s, limits[0], limits[1])
}

// AmountIssue returns the problem with an entered amount, or "" when it is acceptable
func AmountIssue(d decimal.Decimal) string {
	switch {
	case !d.IsPositive():
		return "must be greater than 0"
	case d.GreaterThan(MaxAmount):
		return fmt.Sprintf("must be less than or equal to %s", MaxAmount)
	}
	return ""
}

func (v *validator) text(item map[string]any, path, key string) string {
	limits := textLimits[key]
	return v.str(item, path, key, limits[0], limits[1])
}

func (v *validator) boolean(item map[string]any, path, key string) bool {
	raw, ok := item[key]
	if !ok || raw == nil {
		v.add(path+key, "required")
		return false
	}
	b, ok := raw.(bool)
	if !ok {
		v.add(path+key, "expected boolean, received %s", typeName(raw))
	}
	return b
}

func isString(item map[string]any, key string) bool {
	_, ok := item[key].(string)
	return ok
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

// ValidateImport checks decoded import records (as produced by encoding/json
// into []any) and converts them into subscriptions. Records without an id get
// a fresh one. All issues are collected before returning.
func ValidateImport(items []any) ([]Subscription, error) {
	v := &validator{}
	if len(items) > MaxImportRecords {
		v.add("", "must contain at most %d record(s)", MaxImportRecords)
		return nil, &ValidationError{Issues: v.issues}
	}

	subs := make([]Subscription, 0, len(items))
	for i, raw := range items {
		path := fmt.Sprintf("%d.", i)
		item, ok := raw.(map[string]any)
		if !ok {
			v.add(strings.TrimSuffix(path, "."), "expected object, received %s", typeName(raw))
			continue
		}
		subs = append(subs, v.record(item, path))
	}

	if len(v.issues) > 0 {
		return nil, &ValidationError{Issues: v.issues}
	}
	return subs, nil
}

// ValidateRecord checks a single decoded record with the same rules as
// ValidateImport. Issue paths are the bare field names.
func ValidateRecord(item map[string]any) (Subscription, error) {
	v := &validator{}
	s := v.record(item, "")
	if len(v.issues) > 0 {
		return Subscription{}, &ValidationError{Issues: v.issues}
	}
	return s, nil
}

func (v *validator) record(item map[string]any, path string) Subscription {
	var s Subscription

	if raw, ok := item["id"]; ok && raw != nil {
		id, _ := raw.(string)
		if _, err := uuid.Parse(id); err != nil {
			v.add(path+"id", "invalid uuid")
		}
		s.ID = id
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	s.Name = v.text(item, path, "name")
	s.Provider = v.text(item, path, "provider")
	s.Category = v.text(item, path, "category")
	s.Notes = v.text(item, path, "notes")

	icon := v.str(item, path, "icon", 0, math.MaxInt)
	if isString(item, "icon") && !Icon(icon).Valid() {
		v.add(path+"icon", "invalid icon")
	}
	s.Icon = IconOrDefault(icon)

	start := v.str(item, path, "startDate", 0, math.MaxInt)
	if isString(item, "startDate") {
		t, err := time.Parse(time.RFC3339Nano, start)
		if err != nil || !strings.HasSuffix(start, "Z") {
			v.add(path+"startDate", "invalid datetime")
		} else {
			s.StartDate = DateOf(t)
		}
	}

	s.BillingCycle = BillingCycle(v.str(item, path, "billingCycle", 0, math.MaxInt))
	if isString(item, "billingCycle") && !s.BillingCycle.Valid() {
		v.add(path+"billingCycle", "invalid enum value, expected one of %v, received '%s'", BillingCycles, s.BillingCycle)
	}

	s.Currency = CurrencyCode(v.str(item, path, "currency", 0, math.MaxInt))
	if isString(item, "currency") && !s.Currency.Valid() {
		v.add(path+"currency", "invalid enum value, expected one of %v, received '%s'", SupportedCurrencies, s.Currency)
	}

	switch amount := item["amount"].(type) {
	case nil:
		v.add(path+"amount", "required")
	case float64:
		d := decimal.NewFromFloat(amount)
		if msg := AmountIssue(d); msg != "" {
			v.add(path+"amount", "%s", msg)
		}
		s.Amount = d
	default:
		v.add(path+"amount", "expected number, received %s", typeName(amount))
	}

	s.ActiveStatus = v.boolean(item, path, "activeStatus")
	s.AutoRenew = v.boolean(item, path, "autoRenew")
	return s
}

// htmlEscaper escapes the characters that matter when labels are rendered in HTML
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func cleanText(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > max {
		s = string([]rune(s)[:max])
	}
	return htmlEscaper.Replace(s)
}

// Sanitize trims, truncates and HTML-escapes the free-text fields and clamps
// the amount to [0, MaxAmount]. It is applied to every record entered by hand.
func Sanitize(s Subscription) Subscription {
	s.Name = cleanText(s.Name, maxNameLen)
	s.Provider = cleanText(s.Provider, maxProviderLen)
	s.Category = cleanText(s.Category, maxCategoryLen)
	s.Notes = cleanText(s.Notes, maxNotesLen)
	s.Amount = decimal.Min(s.Amount.Abs(), MaxAmount)
	s.Icon = IconOrDefault(string(s.Icon))
	return s
}
