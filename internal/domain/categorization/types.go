// Package categorization resolves a transaction description to a spending
// category through a tiered chain: user-learned keyword weights, the
// static multilingual dictionary, an AI fallback, and finally the user's
// default category. Every tier failure is non-fatal; the chain always
// produces a category.
package categorization

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Tier identifies which resolver produced a category candidate.
// TierHistory is stamped by the orchestrator when a category is copied
// from a similar past transaction without running the chain.
type Tier string

const (
	TierLearned Tier = "learned"
	TierStatic  Tier = "static"
	TierAI      Tier = "ai"
	TierHistory Tier = "history"
	TierDefault Tier = "default"
)

// Category is a user-visible spending category. Users get a seeded set
// on signup and can add their own; exactly one carries IsDefault.
type Category struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Icon      string
	IsDefault bool
}

// Candidate is a resolved category with provenance and confidence.
type Candidate struct {
	CategoryID   uuid.UUID
	CategoryName string
	Tier         Tier
	Score        float64 // raw tier-internal score
	Confidence   float64 // normalized to [0,1] across tiers
}

// KeywordWeight is one learned association between a keyword and a
// category. Weights for the same (user, keyword) pair sum to 1.
type KeywordWeight struct {
	Keyword    string
	CategoryID uuid.UUID
	Weight     float64
	UsageCount int
}

// Request carries everything a tier needs to categorize one message.
type Request struct {
	UserID      uuid.UUID
	Description string   // normalized, corrected, amount and date removed
	Tokens      []string // normalized tokens of Description
	Language    language.Tag
	Amount      decimal.Decimal // zero when the message carried no amount
	Currency    string          // empty when the message carried no amount
	Context     string          // short recent-activity summary, may be empty
}
