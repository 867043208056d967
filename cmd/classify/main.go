// Command classify reads free-text transaction messages from stdin, one
// per line, and prints one JSON classification per line. It is the same
// pipeline the chat backend runs, packaged for scripting and debugging.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ledgertalk/ledgertalk/internal/domain/classifier"
	"github.com/ledgertalk/ledgertalk/pkg/config"
	"github.com/ledgertalk/ledgertalk/pkg/money"
)

type output struct {
	Intent            string  `json:"intent"`
	Language          string  `json:"language"`
	Amount            string  `json:"amount,omitempty"`
	Currency          string  `json:"currency,omitempty"`
	Display           string  `json:"display,omitempty"`
	Description       string  `json:"description,omitempty"`
	Category          string  `json:"category,omitempty"`
	CategoryTier      string  `json:"category_tier,omitempty"`
	Date              string  `json:"date,omitempty"`
	YearInferred      bool    `json:"year_inferred,omitempty"`
	Confidence        float64 `json:"confidence"`
	ReusedFromHistory bool    `json:"reused_from_history,omitempty"`
}

func main() {
	userFlag := flag.String("user", "", "user UUID (random if empty)")
	localeFlag := flag.String("locale", "", "locale hint, e.g. ru or en")
	rememberFlag := flag.Bool("remember", false, "persist classified transactions for history reuse")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger, *userFlag, *localeFlag, *rememberFlag); err != nil {
		logger.Error("classify failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, userFlag, locale string, remember bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userID := uuid.New()
	if userFlag != "" {
		userID, err = uuid.Parse(userFlag)
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
	}

	if err := deps.Classifier.Warmup(ctx, userID); err != nil {
		logger.Warn("history warmup failed", slog.Any("error", err))
	}

	encoder := json.NewEncoder(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		results, err := deps.Classifier.ClassifyAll(ctx, classifier.Input{
			UserID:     userID,
			Text:       line,
			LocaleHint: locale,
		})
		if err != nil {
			logger.Error("classification failed", slog.Any("error", err))
			continue
		}

		for _, res := range results {
			if remember {
				if err := deps.Classifier.Remember(ctx, userID, res, time.Now()); err != nil {
					logger.Warn("remember failed", slog.Any("error", err))
				}
			}
			if err := encoder.Encode(toOutput(res)); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
		}
	}

	return scanner.Err()
}

func toOutput(res classifier.Result) output {
	out := output{
		Intent:            string(res.Intent),
		Language:          res.Language.String(),
		Description:       res.Description,
		Category:          res.CategoryName,
		CategoryTier:      string(res.CategoryTier),
		Confidence:        res.Confidence,
		ReusedFromHistory: res.ReusedFromHistory,
		YearInferred:      res.YearInferred,
	}
	if res.HasAmount {
		out.Amount = res.Amount.String()
		out.Currency = res.Currency
		out.Display = money.Display(res.Amount, res.Currency)
	}
	if res.HasDate {
		out.Date = res.Date.Format("2006-01-02")
	}
	return out
}
