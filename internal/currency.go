package internal

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money formats amounts of one currency using a locale's number conventions
type Money struct {
	Code    CurrencyCode
	unit    currency.Unit
	tag     language.Tag
	printer *message.Printer
}

// homeLocale is used when no locale was detected or configured
var homeLocale = map[CurrencyCode]language.Tag{
	USD: language.AmericanEnglish,
	EUR: language.German,
	GBP: language.BritishEnglish,
	JPY: language.Japanese,
	CAD: language.MustParse("en-CA"),
	AUD: language.MustParse("en-AU"),
}

// NewMoney returns a formatter for code. Pass language.Und to use the
// currency's home locale.
func NewMoney(code CurrencyCode, tag language.Tag) Money {
	if !code.Valid() {
		code = USD
	}
	unit, err := currency.ParseISO(string(code))
	if err != nil {
		unit = currency.USD
	}
	if tag == language.Und {
		tag = homeLocale[code]
	}
	return Money{
		Code:    code,
		unit:    unit,
		tag:     tag,
		printer: message.NewPrinter(tag),
	}
}

// fractionDigits is 0 for currencies without minor units
func (m Money) fractionDigits() int {
	if m.Code == JPY {
		return 0
	}
	return 2
}

func (m Money) symbol() string {
	return m.printer.Sprint(currency.NarrowSymbol(m.unit))
}

// isPrefix returns true if the symbol goes before the amount.
// x/text does not expose CLDR symbol placement, so this is kept by hand.
func (m Money) isPrefix() bool {
	switch m.Code {
	case USD, GBP, JPY, CAD, AUD:
		return true
	default:
		return false
	}
}

func (m Money) number(amount decimal.Decimal) string {
	digits := m.fractionDigits()
	f := amount.Round(int32(digits)).InexactFloat64()
	return m.printer.Sprint(number.Decimal(f,
		number.MinFractionDigits(digits),
		number.MaxFractionDigits(digits)))
}

// Format renders an amount with its currency symbol
func (m Money) Format(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	formatted := m.number(amount)
	if m.isPrefix() {
		return sign + m.symbol() + formatted
	}
	return sign + formatted + " " + m.symbol()
}

// FormatDelta is Format with an explicit "+" on positive amounts
func (m Money) FormatDelta(amount decimal.Decimal) string {
	if amount.IsPositive() {
		return "+" + m.Format(amount)
	}
	return m.Format(amount)
}

// ParseLocale converts a POSIX locale string into a language tag and the
// currency of its region. Examples: "en_GB.UTF-8" → (en-GB, GBP),
// "sv_SE" → (sv-SE, SEK). The currency is empty when the locale has no region.
func ParseLocale(locale string) (language.Tag, string) {
	base := locale
	if idx := strings.Index(base, "."); idx != -1 {
		base = base[:idx]
	}
	if idx := strings.Index(base, "@"); idx != -1 {
		base = base[:idx]
	}

	tag, err := language.Parse(strings.Replace(base, "_", "-", 1))
	if err != nil {
		return language.Und, ""
	}

	_, _, region := tag.Raw()
	if region.String() == "" || region.String() == "ZZ" {
		return tag, ""
	}
	unit, ok := currency.FromRegion(region)
	if !ok {
		return tag, ""
	}
	return tag, unit.String()
}
