package lang

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// convertNumbers rewrites runs of number words into a single digit token:
// "twenty five thousand" -> "25000", "сто двадцать три" -> "123",
// "минус пять" -> "-5". A bare numeric literal joins a run only when a
// magnitude word follows ("5 тысяч" -> "5000"), so already-normalized
// digits are left untouched.
func (b *Bundle) convertNumbers(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		if b.negations[tokens[i].Text] && i+1 < len(tokens) {
			if merged, end, ok := b.negatedNumber(tokens, i); ok {
				out = append(out, merged)
				i = end
				continue
			}
		}

		end, value, ok := b.consumeNumberRun(tokens, i)
		if !ok {
			out = append(out, tokens[i])
			continue
		}

		out = append(out, Token{
			Text:     value.String(),
			Original: joinOriginals(tokens[i : end+1]),
			Start:    tokens[i].Start,
			End:      tokens[end].End,
		})
		i = end
	}

	return out
}

// negatedNumber folds a negation word and the number after it into a
// single negative token. The number may be a word run or a digit literal.
func (b *Bundle) negatedNumber(tokens []Token, idx int) (Token, int, bool) {
	next := idx + 1

	if end, value, ok := b.consumeNumberRun(tokens, next); ok {
		return Token{
			Text:     value.Neg().String(),
			Original: joinOriginals(tokens[idx : end+1]),
			Start:    tokens[idx].Start,
			End:      tokens[end].End,
		}, end, true
	}

	if d, err := parseLiteral(tokens[next].Text); err == nil {
		return Token{
			Text:     d.Neg().String(),
			Original: joinOriginals(tokens[idx : next+1]),
			Start:    tokens[idx].Start,
			End:      tokens[next].End,
		}, next, true
	}

	return Token{}, 0, false
}

// consumeNumberRun reads the longest number-word run starting at idx and
// returns the index of its last token with the accumulated value.
// Accumulation follows the usual word-to-number scheme: hundreds multiply
// the running group, magnitude words flush it into the total.
func (b *Bundle) consumeNumberRun(tokens []Token, idx int) (int, decimal.Decimal, bool) {
	total := decimal.Zero
	current := decimal.Zero
	last := idx - 1
	consumed := false

	for i := idx; i < len(tokens); i++ {
		tok := tokens[i].Text

		if v, ok := b.expandSuffix(tok); ok {
			// "25k" / "25к" forms are complete numbers on their own.
			if consumed {
				break
			}
			return i, v, true
		}

		if v, ok := b.numberWords[tok]; ok {
			if v == 100 {
				if current.IsZero() {
					current = decimal.NewFromInt(1)
				}
				current = current.Mul(decimal.NewFromInt(100))
			} else {
				current = current.Add(decimal.NewFromInt(v))
			}
			last, consumed = i, true
			continue
		}

		if mult, ok := b.magnitudes[tok]; ok {
			base := current
			if base.IsZero() {
				base = decimal.NewFromInt(1)
			}
			total = total.Add(base.Mul(decimal.NewFromInt(mult)))
			current = decimal.Zero
			last, consumed = i, true
			continue
		}

		// A digit literal starts a run only when a magnitude word
		// follows: "5 тысяч" converts, bare "5" stays as typed.
		if !consumed && i == idx && i+1 < len(tokens) {
			if _, isMag := b.magnitudes[tokens[i+1].Text]; isMag {
				if d, err := parseLiteral(tok); err == nil {
					current = d
					last, consumed = i, true
					continue
				}
			}
		}

		break
	}

	if !consumed {
		return 0, decimal.Zero, false
	}
	return last, total.Add(current), true
}

// expandSuffix handles compact magnitude suffixes glued to digits:
// "25k", "25к", "1.5млн".
func (b *Bundle) expandSuffix(tok string) (decimal.Decimal, bool) {
	for suffix, mult := range b.magnitudes {
		if utf8.RuneCountInString(suffix) > 3 || !strings.HasSuffix(tok, suffix) {
			continue
		}
		head := strings.TrimSuffix(tok, suffix)
		if head == "" {
			continue
		}
		if d, err := parseLiteral(head); err == nil {
			return d.Mul(decimal.NewFromInt(mult)), true
		}
	}
	return decimal.Zero, false
}

func parseLiteral(s string) (decimal.Decimal, error) {
	s = strings.Replace(s, ",", ".", 1)
	return decimal.NewFromString(s)
}

func joinOriginals(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Original
	}
	return strings.Join(parts, " ")
}
