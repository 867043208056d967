package categorization

import (
	"context"
	"log/slog"
)

// defaultConfidence marks the catch-all bucket so callers can surface
// "please confirm the category" flows.
const defaultConfidence = 0.2

type tierResolver interface {
	Name() Tier
	Resolve(ctx context.Context, req Request) (*Candidate, error)
}

// Resolver runs the tier chain in order and returns the first hit.
// The chain never fails: if every tier passes, the user's default
// category is returned with low confidence.
type Resolver struct {
	tiers     []tierResolver
	directory Directory
	logger    *slog.Logger
	metrics   *Metrics
}

// NewResolver wires the standard chain. The AI tier may be nil when no
// API key is configured.
func NewResolver(learned *LearnedTier, static *StaticTier, ai *AITier, directory Directory, logger *slog.Logger, metrics *Metrics) *Resolver {
	tiers := []tierResolver{learned, static}
	if ai != nil {
		tiers = append(tiers, ai)
	}
	return &Resolver{
		tiers:     tiers,
		directory: directory,
		logger:    logger,
		metrics:   metrics,
	}
}

// Resolve categorizes one description. Tier errors are logged and the
// chain continues. A failing default lookup degrades to a no-category
// candidate rather than surfacing an error, so classification of the
// rest of the message is never blocked by category storage.
func (r *Resolver) Resolve(ctx context.Context, req Request) Candidate {
	for _, tier := range r.tiers {
		candidate, err := tier.Resolve(ctx, req)
		if err != nil {
			r.logger.WarnContext(ctx, "category tier failed",
				slog.String("tier", string(tier.Name())),
				slog.Any("error", err))
			continue
		}
		if candidate != nil {
			return *candidate
		}
	}

	fallback, err := r.directory.Default(ctx, req.UserID)
	if err != nil {
		r.logger.WarnContext(ctx, "default category unavailable",
			slog.String("user_id", req.UserID.String()),
			slog.Any("error", err))
		return Candidate{Tier: TierDefault}
	}

	r.metrics.TierHit(TierDefault)
	return Candidate{
		CategoryID:   fallback.ID,
		CategoryName: fallback.Name,
		Tier:         TierDefault,
		Confidence:   defaultConfidence,
	}
}
