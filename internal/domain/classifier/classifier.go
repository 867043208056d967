package classifier

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/ledgertalk/ledgertalk/internal/domain/categorization"
	"github.com/ledgertalk/ledgertalk/internal/domain/lang"
	"github.com/ledgertalk/ledgertalk/internal/domain/parser"
)

// historyReuseConfidence caps results built from a prior transaction
// rather than from the message itself.
const historyReuseConfidence = 0.55

const chatConfidence = 0.9

// recentContextSize bounds the recent-activity summary handed to the
// category resolver.
const recentContextSize = 3

// Config carries the orchestrator's tunables.
type Config struct {
	DefaultCurrency string
	HistoryDepth    int
}

// Classifier runs the end-to-end pipeline for one message.
type Classifier struct {
	corrector *lang.Corrector
	resolver  *categorization.Resolver
	history   *History
	store     TransactionStore
	cfg       Config
	logger    *slog.Logger
}

// New wires the pipeline. store may be nil for stateless operation;
// history reuse then works only from transactions added this process.
func New(corrector *lang.Corrector, resolver *categorization.Resolver, history *History, store TransactionStore, cfg Config, logger *slog.Logger) *Classifier {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "RUB"
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = 50
	}
	return &Classifier{
		corrector: corrector,
		resolver:  resolver,
		history:   history,
		store:     store,
		cfg:       cfg,
		logger:    logger,
	}
}

// Warmup loads the user's recent transactions into the history index.
func (c *Classifier) Warmup(ctx context.Context, userID uuid.UUID) error {
	if c.store == nil {
		return nil
	}
	recent, err := c.store.Recent(ctx, userID, c.cfg.HistoryDepth)
	if err != nil {
		return err
	}
	return c.history.Load(recent)
}

// Classify interprets one message and returns the first (usually only)
// transaction in it.
func (c *Classifier) Classify(ctx context.Context, in Input) (Result, error) {
	results, err := c.ClassifyAll(ctx, in)
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// ClassifyAll interprets one message, returning one result per detected
// transaction segment. Chat messages yield a single chat result.
func (c *Classifier) ClassifyAll(ctx context.Context, in Input) ([]Result, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	tag := lang.DetectWithHint(in.Text, in.LocaleHint)
	bundle := lang.ForTag(tag)

	normalized := lang.Normalize(in.Text, tag)
	corrected := c.corrector.Correct(normalized, tag)

	segments := parser.Split(corrected, bundle)

	results := make([]Result, 0, len(segments))
	for _, segment := range segments {
		res, err := c.classifySegment(ctx, in, segment, bundle, tag, now)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	c.logger.InfoContext(ctx, "message classified",
		slog.String("user_id", in.UserID.String()),
		slog.String("language", tag.String()),
		slog.Int("segments", len(results)))

	return results, nil
}

func (c *Classifier) classifySegment(ctx context.Context, in Input, segment lang.Normalized, bundle *lang.Bundle, tag language.Tag, now time.Time) (Result, error) {
	userID := in.UserID

	date, afterDate := parser.ExtractDate(segment, now)

	var amount parser.Amount
	afterAmount := afterDate
	if in.SuppliedAmount != nil {
		// Amount confirmed out of band, e.g. a follow-up message after
		// "Такси" with no number. The text is description only.
		currency := in.SuppliedCurrency
		if currency == "" {
			currency = c.cfg.DefaultCurrency
		}
		amount = parser.Amount{
			Value:    in.SuppliedAmount.Abs(),
			Currency: currency,
			Found:    true,
			Pattern:  parser.PatternSupplied,
		}
	} else {
		amount, afterAmount = parser.ExtractAmount(afterDate, bundle, c.cfg.DefaultCurrency)
	}

	intent := parser.DetectIntent(afterDate, bundle, amount)

	res := Result{
		Intent:       intent,
		Language:     tag,
		Date:         date.Date,
		HasDate:      date.Found,
		YearInferred: date.YearInferred,
	}

	if intent == parser.IntentChat {
		res.Confidence = chatConfidence
		return res, nil
	}

	res.Description = c.buildDescription(afterAmount, bundle, intent)

	if amount.Found {
		res.Amount = amount.Value
		res.Currency = amount.Currency
		res.HasAmount = true
	} else if intent == parser.IntentExpense && c.history != nil {
		if prior, ok := c.history.FindSimilar(userID, res.Description); ok {
			res.Amount = prior.Amount
			res.Currency = prior.Currency
			res.HasAmount = true
			res.CategoryID = prior.CategoryID
			res.CategoryName = prior.CategoryName
			res.CategoryTier = categorization.TierHistory
			res.ReusedFromHistory = true
			res.Confidence = historyReuseConfidence
			return res, nil
		}
	}

	// Budget messages carry a spending limit, not a purchase, so no
	// category is attached and the resolver is never consulted.
	if intent == parser.IntentBudget {
		res.Confidence = parseConfidence(amount)
		return res, nil
	}

	req := categorization.Request{
		UserID:      userID,
		Description: afterAmount.Text,
		Tokens:      tokenTexts(afterAmount),
		Language:    tag,
	}
	if amount.Found {
		req.Amount = amount.Value
		req.Currency = amount.Currency
	}
	if c.history != nil {
		req.Context = c.history.RecentSummary(userID, recentContextSize)
	}

	candidate := c.resolver.Resolve(ctx, req)

	res.CategoryID = candidate.CategoryID
	res.CategoryName = candidate.CategoryName
	res.CategoryTier = candidate.Tier
	res.Confidence = combineConfidence(amount, candidate.Confidence)

	return res, nil
}

// Remember persists a classified transaction and feeds the history
// index so follow-up shorthand messages can reuse it.
func (c *Classifier) Remember(ctx context.Context, userID uuid.UUID, res Result, occurredAt time.Time) error {
	if !res.HasAmount {
		return nil
	}

	tx := Transaction{
		ID:           uuid.New(),
		UserID:       userID,
		Description:  res.Description,
		CategoryID:   res.CategoryID,
		CategoryName: res.CategoryName,
		Amount:       res.Amount,
		Currency:     res.Currency,
		OccurredAt:   occurredAt,
	}

	if c.store != nil {
		if err := c.store.Insert(ctx, tx); err != nil {
			return err
		}
	}
	if c.history != nil {
		if err := c.history.Add(tx); err != nil {
			c.logger.WarnContext(ctx, "history index update failed", slog.Any("error", err))
		}
	}
	return nil
}

// buildDescription rebuilds a display description from the residual
// tokens: filler words drop out, source casing is preserved for words
// the user capitalized, and the first word is capitalized otherwise.
func (c *Classifier) buildDescription(n lang.Normalized, bundle *lang.Bundle, intent parser.Intent) string {
	skip := make(map[string]bool)
	for _, w := range bundle.FillerWords {
		skip[w] = true
	}
	if intent == parser.IntentBudget {
		for _, w := range bundle.BudgetKeywords {
			skip[w] = true
		}
	}
	for _, conj := range bundle.Conjunctions {
		for _, w := range strings.Fields(conj) {
			skip[w] = true
		}
	}

	var words []string
	for _, tok := range n.Tokens {
		if skip[tok.Text] {
			continue
		}
		words = append(words, tok.Original)
	}
	if len(words) == 0 {
		return ""
	}

	if !hasUpper(words[0]) {
		words[0] = capitalizeFirst(words[0])
	}
	return strings.Join(words, " ")
}

// parseConfidence rates how the amount was found.
func parseConfidence(amount parser.Amount) float64 {
	if !amount.Found {
		return 0.4
	}
	switch amount.Pattern {
	case parser.PatternCurrencyAdjacent, parser.PatternSupplied:
		return 0.9
	case parser.PatternContextVerb:
		return 0.85
	default:
		return 0.75
	}
}

// combineConfidence folds how the amount was found together with how
// the category was found.
func combineConfidence(amount parser.Amount, categoryConfidence float64) float64 {
	return (parseConfidence(amount) + categoryConfidence) / 2
}

func tokenTexts(n lang.Normalized) []string {
	out := make([]string, len(n.Tokens))
	for i, t := range n.Tokens {
		out[i] = t.Text
	}
	return out
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
