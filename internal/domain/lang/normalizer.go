package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Token is a normalized token with a mapping back to its source span.
type Token struct {
	Text     string // case-folded, boundary punctuation trimmed
	Original string // source casing, trimmed the same way
	Start    int    // byte offset into the source text
	End      int
}

// Normalized is the output of Normalize: folded text with number words
// converted to digits, plus per-token source spans for diagnostics.
type Normalized struct {
	Text   string
	Tokens []Token
	Source string
}

var foldCaser = cases.Fold()

// boundaryPunct is trimmed from token edges. Currency symbols and
// sign markers are deliberately absent: "200$" and "+5000" must survive
// normalization intact.
const boundaryPunct = ".,!?;:\"'«»“”()[]{}"

// Normalize case-folds text, trims punctuation at token boundaries while
// preserving internal punctuation ("Yandex.Taxi", "4.5"), and converts
// number words to digit sequences for the bundle's language. It never
// fails: unrecognized word sequences pass through as literal text, and
// normalizing already-normalized text is a no-op.
func Normalize(text string, tag language.Tag) Normalized {
	bundle := ForTag(tag)
	tokens := tokenize(text)

	for i := range tokens {
		tokens[i].Text = foldCaser.String(tokens[i].Text)
	}

	tokens = bundle.convertNumbers(tokens)

	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Text)
	}

	return Normalized{
		Text:   strings.Join(parts, " "),
		Tokens: tokens,
		Source: text,
	}
}

// FromTokens rebuilds a Normalized value from a filtered token slice,
// keeping the span mapping into the original source.
func FromTokens(tokens []Token, source string) Normalized {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.Text
	}
	return Normalized{
		Text:   strings.Join(parts, " "),
		Tokens: tokens,
		Source: source,
	}
}

// tokenize splits on whitespace, recording source offsets and trimming
// boundary punctuation per token.
func tokenize(text string) []Token {
	var tokens []Token
	start := -1

	flush := func(end int) {
		if start < 0 {
			return
		}
		raw := text[start:end]
		trimmed := strings.Trim(raw, boundaryPunct)
		if trimmed != "" {
			offset := strings.Index(raw, trimmed)
			tokens = append(tokens, Token{
				Text:     trimmed,
				Original: trimmed,
				Start:    start + offset,
				End:      start + offset + len(trimmed),
			})
		}
		start = -1
	}

	for i, r := range text {
		if unicode.IsSpace(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(text))

	return tokens
}
