package categorization

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// aiConfidence is deliberately modest: a model guess is better than the
// default bucket but should lose to any learned correction.
const aiConfidence = 0.65

// ChatCompleter is the slice of the OpenAI client the tier uses. Tests
// substitute a canned implementation.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// AITier asks a language model to pick one of the user's existing
// categories. It never invents categories: a reply outside the offered
// list is discarded. All failures are silent, the chain falls through to
// the default tier.
type AITier struct {
	client          ChatCompleter
	directory       Directory
	limiter         *rate.Limiter
	model           string
	fallbackModel   string
	timeout         time.Duration
	fallbackTimeout time.Duration
	logger          *slog.Logger
	metrics         *Metrics
}

type AITierConfig struct {
	Model             string
	FallbackModel     string
	Timeout           time.Duration
	FallbackTimeout   time.Duration
	RequestsPerMinute int
}

func NewAITier(client ChatCompleter, directory Directory, cfg AITierConfig, logger *slog.Logger, metrics *Metrics) *AITier {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	return &AITier{
		client:          client,
		directory:       directory,
		limiter:         rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
		model:           cfg.Model,
		fallbackModel:   cfg.FallbackModel,
		timeout:         cfg.Timeout,
		fallbackTimeout: cfg.FallbackTimeout,
		logger:          logger,
		metrics:         metrics,
	}
}

func (t *AITier) Name() Tier { return TierAI }

func (t *AITier) Resolve(ctx context.Context, req Request) (*Candidate, error) {
	if t.client == nil {
		return nil, nil
	}
	if !t.limiter.Allow() {
		t.metrics.AISkipped("rate_limited")
		return nil, nil
	}

	categories, err := t.directory.List(ctx, req.UserID)
	if err != nil || len(categories) == 0 {
		return nil, nil
	}

	name, err := t.ask(ctx, req, categories, t.model, t.timeout)
	if err != nil && t.fallbackModel != "" {
		name, err = t.ask(ctx, req, categories, t.fallbackModel, t.fallbackTimeout)
	}
	if err != nil {
		t.metrics.AIFailure()
		t.logger.DebugContext(ctx, "ai categorization failed", slog.Any("error", err))
		return nil, nil
	}

	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			t.metrics.TierHit(TierAI)
			return &Candidate{
				CategoryID:   c.ID,
				CategoryName: c.Name,
				Tier:         TierAI,
				Score:        1,
				Confidence:   aiConfidence,
			}, nil
		}
	}

	// Model invented a category that is not in the list.
	t.metrics.AISkipped("hallucinated")
	t.logger.DebugContext(ctx, "ai returned unknown category", slog.String("category", name))
	return nil, nil
}

func (t *AITier) ask(ctx context.Context, req Request, categories []Category, model string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pick the single best category for this expense description.\n")
	fmt.Fprintf(&b, "Description: %q\n", req.Description)
	if req.Currency != "" {
		fmt.Fprintf(&b, "Amount: %s %s\n", req.Amount.String(), req.Currency)
	}
	if req.Context != "" {
		fmt.Fprintf(&b, "Recent transactions: %s\n", req.Context)
	}
	fmt.Fprintf(&b, "Categories: %s\n", strings.Join(names, ", "))
	b.WriteString("Reply with the category name only, nothing else.")
	prompt := b.String()

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: 0,
		MaxTokens:   20,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion (%s): empty response", model)
	}

	return strings.TrimSpace(strings.Trim(resp.Choices[0].Message.Content, `"'.`)), nil
}
