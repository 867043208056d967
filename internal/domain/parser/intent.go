package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledgertalk/ledgertalk/internal/domain/lang"
)

// Intent is the high-level purpose of a message.
type Intent string

const (
	IntentExpense Intent = "expense"
	IntentIncome  Intent = "income"
	IntentBudget  Intent = "budget"
	IntentChat    Intent = "chat"
)

// DetectIntent classifies the message purpose from normalized tokens.
// Check order matters: chat markers first so questions about money stay
// conversational, then the explicit income signals, then budget
// keywords. Everything else defaults to expense, which keeps bare
// merchant names ("Taxi") on the transaction path.
func DetectIntent(n lang.Normalized, bundle *lang.Bundle, amount Amount) Intent {
	if isChat(n, bundle, amount) {
		return IntentChat
	}
	if isIncome(n, bundle) {
		return IntentIncome
	}
	for _, kw := range bundle.BudgetKeywords {
		if hasToken(n, kw) {
			return IntentBudget
		}
	}
	return IntentExpense
}

func isChat(n lang.Normalized, bundle *lang.Bundle, amount Amount) bool {
	if strings.Contains(segmentSpan(n), "?") {
		return true
	}
	if len(n.Tokens) > 0 {
		first := n.Tokens[0].Text
		for _, q := range bundle.QuestionMarkers {
			if first == q {
				return true
			}
		}
	}
	// Greetings only flip intent when no money value is present:
	// "спасибо, купил кофе за 200" is still an expense.
	if !amount.Found {
		for _, kw := range bundle.ChatKeywords {
			if hasToken(n, kw) {
				return true
			}
		}
	}
	return false
}

func isIncome(n lang.Normalized, bundle *lang.Bundle) bool {
	// A leading plus sign on the number is an explicit income marker.
	for _, tok := range n.Tokens {
		if strings.HasPrefix(tok.Original, "+") && len(tok.Original) > 1 {
			return true
		}
	}
	if strings.HasPrefix(strings.TrimSpace(segmentSpan(n)), "+") {
		return true
	}
	for _, kw := range bundle.IncomeKeywords {
		if hasToken(n, kw) {
			return true
		}
	}
	return false
}

// segmentSpan returns the slice of the original message this segment
// covers, extended past the last token to pick up punctuation the
// tokenizer trimmed ("такси 300?"). Segments produced from a compound
// message all carry the full Source, so inspecting Source directly
// would attribute one trailing "?" to every segment.
func segmentSpan(n lang.Normalized) string {
	if len(n.Tokens) == 0 {
		return n.Source
	}
	start := n.Tokens[0].Start
	end := n.Tokens[len(n.Tokens)-1].End
	for end < len(n.Source) {
		r, size := utf8.DecodeRuneInString(n.Source[end:])
		if unicode.IsSpace(r) {
			break
		}
		end += size
	}
	return n.Source[start:end]
}

func hasToken(n lang.Normalized, word string) bool {
	for _, tok := range n.Tokens {
		if tok.Text == word {
			return true
		}
	}
	return false
}
