package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/language"
)

// minFuzzyTokenLen is the shortest token the fuzzy backend may touch.
// Short tokens ("зп", "4.5", brand fragments) are too easy to mangle.
const minFuzzyTokenLen = 4

// FuzzyBackend finds the closest dictionary word for a token. A nil
// backend turns the corrector into a pass-through: correction is an
// optimization, never a hard dependency.
type FuzzyBackend interface {
	Closest(token string, dict []string) (match string, distance int, ok bool)
}

// Corrector fixes misspellings using a curated per-language table first
// and a fuzzy dictionary lookup as fallback.
type Corrector struct {
	backend FuzzyBackend
}

// NewCorrector creates a corrector with the default Levenshtein backend.
func NewCorrector() *Corrector {
	return &Corrector{backend: levenshteinBackend{}}
}

// NewCorrectorWithBackend creates a corrector with a custom fuzzy backend.
// Pass nil to disable fuzzy correction entirely.
func NewCorrectorWithBackend(backend FuzzyBackend) *Corrector {
	return &Corrector{backend: backend}
}

// Correct returns a copy of n with misspelled tokens replaced by their
// canonical forms. Digits, protected domain vocabulary and tokens with
// acronym/camelCase casing are preserved verbatim.
func (c *Corrector) Correct(n Normalized, tag language.Tag) Normalized {
	bundle := ForTag(tag)

	tokens := make([]Token, len(n.Tokens))
	copy(tokens, n.Tokens)

	for i, tok := range tokens {
		if !correctable(tok, bundle) {
			continue
		}

		if canonical, ok := bundle.corrections[tok.Text]; ok {
			tokens[i].Text = canonical
			continue
		}

		if c.backend == nil || utf8.RuneCountInString(tok.Text) < minFuzzyTokenLen {
			continue
		}

		match, distance, ok := c.backend.Closest(tok.Text, bundle.vocabulary)
		if !ok {
			continue
		}
		// Accept only when the correction keeps a majority of the
		// original characters, so unusual words and brand names
		// survive.
		if distance*2 >= utf8.RuneCountInString(tok.Text) {
			continue
		}
		tokens[i].Text = match
	}

	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}

	return Normalized{
		Text:   strings.Join(parts, " "),
		Tokens: tokens,
		Source: n.Source,
	}
}

// correctable filters tokens the corrector must not touch.
func correctable(tok Token, bundle *Bundle) bool {
	if hasDigit(tok.Text) {
		return false
	}
	if bundle.IsProtected(tok.Text) {
		return false
	}
	if hasIrregularCase(tok.Original) {
		return false
	}
	if _, isNumberWord := bundle.numberWords[tok.Text]; isNumberWord {
		return false
	}
	if _, isMagnitude := bundle.magnitudes[tok.Text]; isMagnitude {
		return false
	}
	return true
}

// hasIrregularCase reports acronyms and camelCase ("IKEA", "PayPal"):
// any uppercase rune past the first position.
func hasIrregularCase(s string) bool {
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// levenshteinBackend is the default FuzzyBackend on lithammer/fuzzysearch.
type levenshteinBackend struct{}

func (levenshteinBackend) Closest(token string, dict []string) (string, int, bool) {
	best := ""
	bestDistance := -1

	for _, word := range dict {
		d := fuzzy.LevenshteinDistance(token, word)
		if bestDistance < 0 || d < bestDistance {
			best, bestDistance = word, d
		}
	}

	if bestDistance < 0 {
		return "", 0, false
	}
	return best, bestDistance, true
}
