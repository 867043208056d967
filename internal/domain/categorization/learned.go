package categorization

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// learnedThreshold is the minimum accumulated score before a learned
// match is trusted over the static dictionary.
const learnedThreshold = 0.3

// LearnedTier scores descriptions against the user's correction history.
// A keyword the user has repeatedly filed under a category outweighs any
// static dictionary entry for it.
type LearnedTier struct {
	store     KeywordStore
	directory Directory
	logger    *slog.Logger
	metrics   *Metrics
}

func NewLearnedTier(store KeywordStore, directory Directory, logger *slog.Logger, metrics *Metrics) *LearnedTier {
	return &LearnedTier{
		store:     store,
		directory: directory,
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *LearnedTier) Name() Tier { return TierLearned }

func (t *LearnedTier) Resolve(ctx context.Context, req Request) (*Candidate, error) {
	weights, err := t.store.WeightsForUser(ctx, req.UserID)
	if err != nil {
		// Fail open: a storage hiccup must not block categorization.
		t.logger.WarnContext(ctx, "learned weights unavailable",
			slog.String("user_id", req.UserID.String()),
			slog.Any("error", err))
		return nil, nil
	}
	if len(weights) == 0 {
		return nil, nil
	}

	scores := make(map[uuid.UUID]float64)
	for _, token := range req.Tokens {
		token = strings.ToLower(token)
		if utf8.RuneCountInString(token) < 2 {
			continue
		}
		for keyword, entries := range weights {
			factor := matchFactor(token, keyword)
			if factor == 0 {
				continue
			}
			for _, w := range entries {
				scores[w.CategoryID] += w.Weight * factor
			}
		}
	}

	var bestID uuid.UUID
	bestScore := 0.0
	for id, score := range scores {
		if score > bestScore {
			bestID, bestScore = id, score
		}
	}
	if bestScore < learnedThreshold {
		return nil, nil
	}

	category, err := t.categoryByID(ctx, req.UserID, bestID)
	if err != nil {
		t.logger.WarnContext(ctx, "learned category lookup failed", slog.Any("error", err))
		return nil, nil
	}
	if category == nil {
		return nil, nil
	}

	t.metrics.TierHit(TierLearned)
	return &Candidate{
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Tier:         TierLearned,
		Score:        bestScore,
		Confidence:   saturate(bestScore),
	}, nil
}

// matchFactor grades how well a message token matches a learned keyword.
// Exact match counts full weight, a prefix counts most of it, an infix
// substring counts half. Short keywords only match exactly.
func matchFactor(token, keyword string) float64 {
	switch {
	case token == keyword:
		return 1.0
	case utf8.RuneCountInString(keyword) < 4:
		return 0
	case strings.HasPrefix(token, keyword) || strings.HasPrefix(keyword, token):
		return 0.7
	case strings.Contains(token, keyword):
		return 0.5
	default:
		return 0
	}
}

// saturate maps an unbounded score into a confidence below 0.95, rising
// quickly at first and flattening out.
func saturate(score float64) float64 {
	c := 0.55 + 0.4*(score/(score+0.5))
	if c > 0.95 {
		return 0.95
	}
	return c
}

func (t *LearnedTier) categoryByID(ctx context.Context, userID, id uuid.UUID) (*Category, error) {
	categories, err := t.directory.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i], nil
		}
	}
	// Weight points at a deleted category.
	return nil, nil
}
