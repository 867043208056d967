// Package parser extracts structured transaction data from normalized
// free-text messages: explicit dates, amounts with currency, the message
// intent, and multi-item spans. Every extractor consumes a lang.Normalized
// value and returns the residual text for the next stage.
package parser

import (
	"regexp"
	"strconv"
	"time"

	"github.com/ledgertalk/ledgertalk/internal/domain/lang"
)

// DateCandidate is an explicit calendar date found in the message.
type DateCandidate struct {
	Date         time.Time
	Found        bool
	YearInferred bool // no year in the source token
}

var (
	dateFullYear  = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{4})$`)
	dateShortYear = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})[./-](\d{2})$`)
	dateNoYear    = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})$`)
	bareNumber    = regexp.MustCompile(`^[+-]?\d+([.,]\d+)?$`)
)

// ExtractDate finds an explicit date token, removes it from the working
// text and returns the residue. Disambiguation against amount-like tokens:
// a no-year D.D token is a date only when one side has at least two digits
// in a valid day/month range, the preceding token is not itself a bare
// number (which claims the amount slot), and the resulting date is not in
// the future. A four-digit year overrides all of that.
func ExtractDate(n lang.Normalized, now time.Time) (DateCandidate, lang.Normalized) {
	for i, tok := range n.Tokens {
		if m := dateFullYear.FindStringSubmatch(tok.Text); m != nil {
			if date, ok := makeDate(m[1], m[2], m[3]); ok {
				return DateCandidate{Date: date, Found: true}, dropToken(n, i)
			}
		}

		if m := dateShortYear.FindStringSubmatch(tok.Text); m != nil {
			if date, ok := makeDate(m[1], m[2], "20"+m[3]); ok && !date.After(now) {
				return DateCandidate{Date: date, Found: true}, dropToken(n, i)
			}
		}

		if m := dateNoYear.FindStringSubmatch(tok.Text); m != nil {
			if !shortDateAllowed(n.Tokens, i, m[1], m[2]) {
				continue
			}
			date, ok := makeDate(m[1], m[2], strconv.Itoa(now.Year()))
			if ok && !date.After(now) {
				return DateCandidate{Date: date, Found: true, YearInferred: true}, dropToken(n, i)
			}
		}
	}

	return DateCandidate{}, n
}

// shortDateAllowed applies the conservative no-year rules: both fields in
// day/month range, at least one side written with two digits, and the
// token must not directly follow a bare number that reads as an amount
// ("Coffee 120 05.04" keeps 120 as the amount and drops the date).
func shortDateAllowed(tokens []lang.Token, idx int, dayStr, monthStr string) bool {
	if len(dayStr) < 2 && len(monthStr) < 2 {
		// "4.5" and friends are fractional amounts, never dates.
		return false
	}

	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return false
	}

	if idx > 0 && bareNumber.MatchString(tokens[idx-1].Text) {
		return false
	}

	return true
}

// demotedShortDate reports whether the token at idx is a date-shaped
// no-year token that lost the date slot to a preceding bare-number
// amount. Such tokens are not amount candidates either: in
// "Coffee 120 05.04" the amount is 120 and "05.04" is dropped entirely.
func demotedShortDate(tokens []lang.Token, idx int) bool {
	m := dateNoYear.FindStringSubmatch(tokens[idx].Text)
	if m == nil {
		return false
	}
	if len(m[1]) < 2 && len(m[2]) < 2 {
		return false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return false
	}
	return idx > 0 && bareNumber.MatchString(tokens[idx-1].Text)
}

// makeDate validates day/month against calendar normalization, so
// "31.02.2025" is rejected rather than rolled into March.
func makeDate(dayStr, monthStr, yearStr string) (time.Time, bool) {
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	year, _ := strconv.Atoi(yearStr)

	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, false
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return time.Time{}, false
	}
	return date, true
}

func dropToken(n lang.Normalized, idx int) lang.Normalized {
	tokens := make([]lang.Token, 0, len(n.Tokens)-1)
	tokens = append(tokens, n.Tokens[:idx]...)
	tokens = append(tokens, n.Tokens[idx+1:]...)
	return lang.FromTokens(tokens, n.Source)
}
