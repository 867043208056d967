// Package money provides exact-decimal amount parsing and multi-currency
// resolution for free-text input. Amounts are shopspring/decimal values to
// avoid floating-point drift; currency metadata comes from go-money
// (ISO-4217 codes, fractions, symbols).
package money

import (
	"errors"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
	GBP = "GBP" // British Pound
	RUB = "RUB" // Russian Ruble
	UAH = "UAH" // Ukrainian Hryvnia
	KZT = "KZT" // Kazakhstani Tenge
	BYN = "BYN" // Belarusian Ruble
	GEL = "GEL" // Georgian Lari
	AMD = "AMD" // Armenian Dram
	TRY = "TRY" // Turkish Lira
	KGS = "KGS" // Kyrgyzstani Som
)

// MaxAmount is the sanity ceiling for a single transaction amount.
// Values at or above it are rejected as misparses (phone numbers,
// card numbers glued to text).
var MaxAmount = decimal.New(1, 9) // 1e9

// ErrAmountOutOfRange is returned when a parsed value fails range validation.
var ErrAmountOutOfRange = errors.New("amount out of range")

// currencyMarkers maps lowercase symbols and currency words (including
// Russian declined forms) to ISO codes. Longer markers must win over
// shorter ones, so lookups go through ResolveCurrency rather than the
// map directly.
var currencyMarkers = map[string]string{
	"$": USD, "usd": USD, "dollar": USD, "dollars": USD,
	"доллар": USD, "доллара": USD, "долларов": USD, "бакс": USD, "баксов": USD,
	"€": EUR, "eur": EUR, "euro": EUR, "euros": EUR,
	"евро": EUR,
	"£": GBP, "gbp": GBP, "pound": GBP, "pounds": GBP,
	"фунт": GBP, "фунта": GBP, "фунтов": GBP,
	"₽": RUB, "rub": RUB, "р": RUB, "р.": RUB, "руб": RUB, "руб.": RUB,
	"рубль": RUB, "рубля": RUB, "рублей": RUB,
	"₴": UAH, "uah": UAH, "грн": UAH, "гривна": UAH, "гривны": UAH, "гривен": UAH,
	"₸": KZT, "kzt": KZT, "тг": KZT, "тенге": KZT,
	"byn": BYN, "бел.руб": BYN, "белруб": BYN,
	"₾": GEL, "gel": GEL, "лари": GEL,
	"֏": AMD, "amd": AMD, "драм": AMD, "драма": AMD, "драмов": AMD,
	"₺": TRY, "try": TRY, "лир": TRY, "лира": TRY, "лиры": TRY,
	"kgs": KGS, "сом": KGS, "сома": KGS, "сомов": KGS,
}

// ResolveCurrency maps a currency symbol or word to an ISO-4217 code.
// Matching is case-insensitive and tolerant of trailing punctuation.
func ResolveCurrency(token string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return "", false
	}
	if code, ok := currencyMarkers[t]; ok {
		return code, true
	}
	// "руб," / "rub." and similar
	t = strings.TrimRight(t, ".,;:!?")
	if code, ok := currencyMarkers[t]; ok {
		return code, true
	}
	return "", false
}

// IsKnownCode reports whether code is a valid ISO-4217 currency code.
func IsKnownCode(code string) bool {
	return gomoney.GetCurrency(strings.ToUpper(code)) != nil
}

// ParseAmount parses a decimal amount string. Both "." and "," are accepted
// as the decimal separator; thin spaces used as thousands separators in
// typed input are stripped.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	// Single comma is a decimal separator in RU/EU typed input.
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	return decimal.NewFromString(s)
}

// ValidRange reports whether d passes transaction range validation:
// strictly positive and below MaxAmount.
func ValidRange(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThan(MaxAmount)
}

// Display formats an amount for user-facing output, e.g. "1 234,50 ₽"
// for RUB or "$12.50" for USD, using go-money locale rules.
func Display(d decimal.Decimal, currencyCode string) string {
	currency := gomoney.GetCurrency(strings.ToUpper(currencyCode))
	if currency == nil {
		return d.String() + " " + strings.ToUpper(currencyCode)
	}
	minor := d.Mul(decimal.New(1, int32(currency.Fraction))).Round(0).IntPart()
	return gomoney.New(minor, currency.Code).Display()
}

// Symbol returns the currency grapheme for a code ("₽", "$"), or the code
// itself when unknown.
func Symbol(currencyCode string) string {
	currency := gomoney.GetCurrency(strings.ToUpper(currencyCode))
	if currency == nil {
		return strings.ToUpper(currencyCode)
	}
	return currency.Grapheme
}
