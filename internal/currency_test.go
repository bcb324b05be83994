package internal

import (
	"testing"

	"golang.org/x/text/language"
)

func TestMoney_Format(t *testing.T) {
	tests := []struct {
		name   string
		code   CurrencyCode
		amount string
		want   string
	}{
		{"USD small", USD, "100", "$100.00"},
		{"USD thousands", USD, "1234", "$1,234.00"},
		{"USD cents", USD, "15.99", "$15.99"},
		{"USD rounds", USD, "15.999", "$16.00"},
		{"USD negative", USD, "-12.5", "-$12.50"},
		{"EUR thousands", EUR, "1234", "1.234,00 €"},
		{"GBP small", GBP, "100", "£100.00"},
		{"GBP thousands", GBP, "1234", "£1,234.00"},
		{"JPY thousands", JPY, "1000", "￥1,000"},
		{"JPY rounds", JPY, "123456.7", "￥123,457"},
		{"zero", USD, "0", "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMoney(tt.code, language.Und)
			got := m.Format(dec(tt.amount))
			if got != tt.want {
				t.Errorf("Format(%s) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestMoney_FormatDelta(t *testing.T) {
	m := NewMoney(USD, language.Und)
	tests := []struct {
		amount string
		want   string
	}{
		{"12", "+$12.00"},
		{"-12", "-$12.00"},
		{"0", "$0.00"},
	}
	for _, tt := range tests {
		if got := m.FormatDelta(dec(tt.amount)); got != tt.want {
			t.Errorf("FormatDelta(%s) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestNewMoney_UnsupportedFallsBackToUSD(t *testing.T) {
	m := NewMoney(CurrencyCode("SEK"), language.Und)
	if m.Code != USD {
		t.Errorf("Code = %q, want USD", m.Code)
	}
}

func TestParseLocale(t *testing.T) {
	tests := []struct {
		locale       string
		wantCurrency string
		wantTag      string
	}{
		{"sv_SE.UTF-8", "SEK", "sv-SE"},
		{"en_US.UTF-8", "USD", "en-US"},
		{"de_DE", "EUR", "de-DE"},
		{"ja_JP.UTF-8", "JPY", "ja-JP"},
		{"en_GB.UTF-8", "GBP", "en-GB"},
		{"en_AU.UTF-8@euro", "AUD", "en-AU"},
		{"en", "", "en"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			gotTag, gotCurrency := ParseLocale(tt.locale)
			if gotCurrency != tt.wantCurrency {
				t.Errorf("ParseLocale(%q) currency = %q, want %q", tt.locale, gotCurrency, tt.wantCurrency)
			}
			if tt.wantTag != "" && gotTag.String() != tt.wantTag {
				t.Errorf("ParseLocale(%q) tag = %q, want %q", tt.locale, gotTag.String(), tt.wantTag)
			}
		})
	}
}

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestSystemLocale(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"LC_MONETARY takes priority", map[string]string{"LC_MONETARY": "sv_SE.UTF-8", "LC_ALL": "en_US.UTF-8", "LANG": "de_DE.UTF-8"}, "sv_SE.UTF-8"},
		{"LC_ALL when LC_MONETARY empty", map[string]string{"LC_ALL": "en_US.UTF-8", "LANG": "de_DE.UTF-8"}, "en_US.UTF-8"},
		{"LANG as fallback", map[string]string{"LANG": "de_DE.UTF-8"}, "de_DE.UTF-8"},
		{"skip C and POSIX", map[string]string{"LC_MONETARY": "C", "LC_ALL": "POSIX", "LANG": "en_GB.UTF-8"}, "en_GB.UTF-8"},
		{"nothing set", map[string]string{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SystemLocale(envMap(tt.env)); got != tt.want {
				t.Errorf("SystemLocale() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveLocale(t *testing.T) {
	env := envMap(map[string]string{"LANG": "en_GB.UTF-8"})

	loc := ResolveLocale("", env)
	if loc.Currency != GBP || loc.Tag.String() != "en-GB" {
		t.Errorf("from env: %+v", loc)
	}

	loc = ResolveLocale("sv_SE.UTF-8", env)
	if loc.Currency != "" || loc.Tag.String() != "sv-SE" {
		t.Errorf("configured unsupported currency region: %+v", loc)
	}

	loc = ResolveLocale("", envMap(nil))
	if loc.Tag != language.Und {
		t.Errorf("expected Und, got %v", loc.Tag)
	}
}
