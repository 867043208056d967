package categorization

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
)

// correctionBoost is added to the corrected category's weight before
// renormalization. Repeated corrections converge the keyword toward the
// chosen category without ever fully zeroing the alternatives.
const correctionBoost = 0.5

// Learner folds user corrections back into keyword weights. Updates for
// the same user are serialized through a per-user mutex so concurrent
// corrections cannot interleave the read-modify-write cycle; different
// users proceed in parallel.
type Learner struct {
	store   KeywordStore
	logger  *slog.Logger
	metrics *Metrics

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewLearner(store KeywordStore, logger *slog.Logger, metrics *Metrics) *Learner {
	return &Learner{
		store:   store,
		logger:  logger,
		metrics: metrics,
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// RecordCorrection registers that the user moved a description from
// fromCategoryID to toCategoryID, strengthening every meaningful token
// of the description toward the new category. The old category's share
// shrinks through renormalization; weights per (user, keyword) always
// sum to 1 after the update. Confirming the existing category is a
// no-op.
func (l *Learner) RecordCorrection(ctx context.Context, userID uuid.UUID, tokens []string, fromCategoryID, toCategoryID uuid.UUID) error {
	if fromCategoryID == toCategoryID {
		return nil
	}

	keywords := learnableKeywords(tokens)
	if len(keywords) == 0 {
		return nil
	}

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	existing, err := l.store.WeightsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("record correction: %w", err)
	}

	for _, keyword := range keywords {
		updated := adjustWeights(existing[keyword], keyword, toCategoryID)
		if err := l.store.ReplaceWeights(ctx, userID, keyword, updated); err != nil {
			return fmt.Errorf("record correction for %q: %w", keyword, err)
		}
	}

	l.metrics.CorrectionRecorded()
	l.logger.InfoContext(ctx, "correction recorded",
		slog.String("user_id", userID.String()),
		slog.Int("keywords", len(keywords)),
		slog.String("from_category_id", fromCategoryID.String()),
		slog.String("to_category_id", toCategoryID.String()))
	return nil
}

// adjustWeights boosts the chosen category and renormalizes so the
// weights sum to 1.
func adjustWeights(current []KeywordWeight, keyword string, categoryID uuid.UUID) []KeywordWeight {
	found := false
	out := make([]KeywordWeight, 0, len(current)+1)
	for _, w := range current {
		if w.CategoryID == categoryID {
			w.Weight += correctionBoost
			w.UsageCount++
			found = true
		}
		out = append(out, w)
	}
	if !found {
		out = append(out, KeywordWeight{
			Keyword:    keyword,
			CategoryID: categoryID,
			Weight:     correctionBoost,
			UsageCount: 1,
		})
	}

	total := 0.0
	for _, w := range out {
		total += w.Weight
	}
	if total > 0 {
		for i := range out {
			out[i].Weight /= total
		}
	}
	return out
}

// learnableKeywords filters tokens down to ones worth remembering:
// lowercase words of at least two runes that are not pure numbers.
func learnableKeywords(tokens []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if utf8.RuneCountInString(tok) < 2 || isDigits(tok) || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func (l *Learner) userLock(userID uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}
