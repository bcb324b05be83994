package internal

import (
	"os"

	"golang.org/x/text/language"
)

// localeVars are checked in priority order. LC_MONETARY is the most specific.
var localeVars = []string{"LC_MONETARY", "LC_ALL", "LANG"}

// SystemLocale returns the first usable locale from the environment, or "".
// The C and POSIX locales carry no formatting preference and are skipped.
func SystemLocale(getenv func(string) string) string {
	for _, key := range localeVars {
		locale := getenv(key)
		if locale != "" && locale != "C" && locale != "POSIX" {
			return locale
		}
	}
	return ""
}

// Locale is the resolved formatting locale plus the currency implied by it
type Locale struct {
	Tag      language.Tag
	Currency CurrencyCode // empty unless the region's currency is supported
}

// ResolveLocale picks the locale to format with. An explicit setting wins over
// the environment; an unparseable one falls back to language.Und.
func ResolveLocale(configured string, getenv func(string) string) Locale {
	raw := configured
	if raw == "" {
		raw = SystemLocale(getenv)
	}
	if raw == "" {
		return Locale{Tag: language.Und}
	}
	tag, code := ParseLocale(raw)
	loc := Locale{Tag: tag}
	if c, ok := ParseCurrencyCode(code); ok {
		loc.Currency = c
	}
	return loc
}

// DetectLocale resolves the locale from the configured value, then the
// environment, then the operating system's regional setting
func DetectLocale(configured string) Locale {
	if configured == "" && SystemLocale(os.Getenv) == "" {
		configured = osLocale()
	}
	return ResolveLocale(configured, os.Getenv)
}
