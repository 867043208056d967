package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgertalk/ledgertalk/internal/domain/lang"
	"github.com/ledgertalk/ledgertalk/pkg/money"
)

// Pattern records which extraction rule produced the amount, for
// provenance and confidence scoring downstream.
type Pattern string

const (
	PatternCurrencyAdjacent Pattern = "currency_adjacent" // "200руб", "$200", "200 eur"
	PatternContextVerb      Pattern = "context_verb"      // "потратил 500 на кофе"
	PatternBareNumber       Pattern = "bare_number"       // "Кофе 200"
	PatternSupplied         Pattern = "supplied"          // confirmed out of band
)

// Amount is a monetary value extracted from the message. Currency is an
// ISO 4217 code and is empty when the text carried no currency marker.
type Amount struct {
	Value    decimal.Decimal
	Currency string
	Found    bool
	Pattern  Pattern
}

type numericToken struct {
	idx      int
	value    decimal.Decimal
	currency string // glued marker, if any
}

// ExtractAmount scans tokens for a monetary value and removes the
// claimed tokens from the residue. Rule priority: a number with a
// currency marker glued or adjacent wins, then the first number after an
// expense verb, then a bare number at the message edge. Values outside
// the sane range are skipped rather than failing the whole message.
func ExtractAmount(n lang.Normalized, bundle *lang.Bundle, defaultCurrency string) (Amount, lang.Normalized) {
	numerics := collectNumerics(n.Tokens)
	if len(numerics) == 0 {
		return Amount{}, n
	}

	// 1. Currency-adjacent: glued marker on the token itself, or a
	// standalone marker token immediately before or after the number.
	for _, num := range numerics {
		if num.currency != "" {
			return claim(n, num, num.currency, PatternCurrencyAdjacent, num.idx)
		}
		if num.idx+1 < len(n.Tokens) {
			if code, ok := money.ResolveCurrency(n.Tokens[num.idx+1].Text); ok {
				return claim(n, num, code, PatternCurrencyAdjacent, num.idx, num.idx+1)
			}
		}
		if num.idx > 0 {
			if code, ok := money.ResolveCurrency(n.Tokens[num.idx-1].Text); ok {
				return claim(n, num, code, PatternCurrencyAdjacent, num.idx-1, num.idx)
			}
		}
	}

	// 2. Context verb: the first number after "потратил"/"spent".
	verbAt := -1
	for i, tok := range n.Tokens {
		for _, verb := range bundle.ExpenseVerbs {
			if tok.Text == verb {
				verbAt = i
				break
			}
		}
		if verbAt >= 0 {
			break
		}
	}
	if verbAt >= 0 {
		for _, num := range numerics {
			if num.idx > verbAt {
				return claim(n, num, defaultCurrency, PatternContextVerb, num.idx)
			}
		}
	}

	// 3. Bare number at an edge, trailing position preferred. A lone
	// numeric anywhere still counts ("200 кофе с собой").
	last := numerics[len(numerics)-1]
	first := numerics[0]
	switch {
	case last.idx == len(n.Tokens)-1:
		return claim(n, last, defaultCurrency, PatternBareNumber, last.idx)
	case first.idx == 0:
		return claim(n, first, defaultCurrency, PatternBareNumber, first.idx)
	case len(numerics) == 1:
		return claim(n, first, defaultCurrency, PatternBareNumber, first.idx)
	}

	return Amount{}, n
}

// collectNumerics parses every token that reads as a money value,
// including glued currency suffixes and prefixes ("200руб", "$200",
// "4,5€"). Out-of-range values are dropped here.
func collectNumerics(tokens []lang.Token) []numericToken {
	var out []numericToken
	for i, tok := range tokens {
		if demotedShortDate(tokens, i) {
			continue
		}
		body, code := splitCurrencyMarker(tok.Text)
		val, err := money.ParseAmount(strings.TrimPrefix(body, "+"))
		if err != nil {
			continue
		}
		val = val.Abs()
		if !money.ValidRange(val) {
			continue
		}
		out = append(out, numericToken{idx: i, value: val, currency: code})
	}
	return out
}

// splitCurrencyMarker strips a currency symbol or word glued to either
// end of a numeric token and resolves it to an ISO code.
func splitCurrencyMarker(text string) (body, code string) {
	digits := func(r rune) bool { return r >= '0' && r <= '9' }

	// Suffix marker: "200руб", "4.5€", "30eur".
	if cut := strings.LastIndexFunc(text, digits); cut >= 0 && cut < len(text)-1 {
		if c, ok := money.ResolveCurrency(text[cut+1:]); ok {
			return text[:cut+1], c
		}
	}
	// Prefix marker: "$200", "€4.5".
	if cut := strings.IndexFunc(text, digits); cut > 0 {
		head := strings.TrimLeft(text[:cut], "+-")
		if c, ok := money.ResolveCurrency(head); ok && head != "" {
			return text[cut:], c
		}
	}
	return text, ""
}

func claim(n lang.Normalized, num numericToken, currency string, pattern Pattern, used ...int) (Amount, lang.Normalized) {
	drop := make(map[int]bool, len(used))
	for _, i := range used {
		drop[i] = true
	}
	tokens := make([]lang.Token, 0, len(n.Tokens))
	for i, tok := range n.Tokens {
		if !drop[i] {
			tokens = append(tokens, tok)
		}
	}
	return Amount{
		Value:    num.value,
		Currency: currency,
		Found:    true,
		Pattern:  pattern,
	}, lang.FromTokens(tokens, n.Source)
}
