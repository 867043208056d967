// Package classifier orchestrates the full message pipeline: language
// detection, normalization, typo correction, date and amount extraction,
// intent detection, multi-item splitting and category resolution. One
// free-text message in, one structured result per transaction out.
package classifier

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"

	"github.com/ledgertalk/ledgertalk/internal/domain/categorization"
	"github.com/ledgertalk/ledgertalk/internal/domain/parser"
)

// Result is the structured interpretation of one message segment.
type Result struct {
	Intent   parser.Intent
	Language language.Tag

	Amount    decimal.Decimal
	Currency  string
	HasAmount bool

	Description string

	CategoryID   uuid.UUID
	CategoryName string
	CategoryTier categorization.Tier

	Date         time.Time
	HasDate      bool
	YearInferred bool

	Confidence        float64
	ReusedFromHistory bool
}

// Input is one incoming message with its sender context.
type Input struct {
	UserID     uuid.UUID
	Text       string
	LocaleHint string    // BCP 47 tag from the client, may be empty
	Now        time.Time // zero means time.Now

	// SuppliedAmount carries an amount the user confirmed separately,
	// e.g. in a follow-up message. It bypasses amount extraction.
	SuppliedAmount   *decimal.Decimal
	SuppliedCurrency string
}
