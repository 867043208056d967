package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ledgertalk/ledgertalk/internal/domain/categorization"
	"github.com/ledgertalk/ledgertalk/internal/domain/classifier"
	"github.com/ledgertalk/ledgertalk/internal/domain/lang"
	"github.com/ledgertalk/ledgertalk/pkg/config"
	"github.com/ledgertalk/ledgertalk/pkg/db"
)

// Dependencies holds everything the classify command wires together.
type Dependencies struct {
	Config   *config.Config
	DB       *db.DB
	Logger   *slog.Logger
	Registry *prometheus.Registry

	Directory categorization.Directory
	Keywords  categorization.KeywordStore
	Resolver  *categorization.Resolver
	Learner   *categorization.Learner
	History   *classifier.History
	Store     classifier.TransactionStore

	Classifier *classifier.Classifier
}

// InitDependencies builds the pipeline. The database and the AI tier
// are both optional: without a DSN the command runs on the seeded
// category set with in-memory learning, without an API key
// categorization stops at the static tier.
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	if err := deps.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if err := deps.initPipeline(); err != nil {
		return nil, fmt.Errorf("failed to init pipeline: %w", err)
	}

	return deps, nil
}

func (d *Dependencies) initStorage() error {
	if d.Config.Database.Host == "" {
		d.Logger.Info("no database configured, running with seeded categories")
		d.Directory = categorization.NewSeededDirectory(d.Config.Classifier.DefaultLocale)
		d.Keywords = categorization.NewMemoryStore()
		return nil
	}

	database, err := db.New(db.Config{DSN: d.Config.Database.DSN()}, d.Logger)
	if err != nil {
		return err
	}

	repo := categorization.NewRepository(database.Pool)
	d.DB = database
	d.Directory = repo
	d.Keywords = repo
	d.Store = classifier.NewPgStore(database.Pool)
	return nil
}

func (d *Dependencies) initPipeline() error {
	metrics := categorization.NewMetrics(d.Registry)

	var aiTier *categorization.AITier
	if d.Config.AI.APIKey != "" {
		clientConfig := openai.DefaultConfig(d.Config.AI.APIKey)
		if d.Config.AI.BaseURL != "" {
			clientConfig.BaseURL = d.Config.AI.BaseURL
		}
		aiTier = categorization.NewAITier(
			openai.NewClientWithConfig(clientConfig),
			d.Directory,
			categorization.AITierConfig{
				Model:             d.Config.AI.Model,
				FallbackModel:     d.Config.AI.FallbackModel,
				Timeout:           d.Config.AI.Timeout,
				FallbackTimeout:   d.Config.AI.FallbackTimeout,
				RequestsPerMinute: d.Config.AI.RequestsPerMinute,
			},
			d.Logger, metrics,
		)
	} else {
		d.Logger.Info("no AI key configured, skipping AI tier")
	}

	d.Resolver = categorization.NewResolver(
		categorization.NewLearnedTier(d.Keywords, d.Directory, d.Logger, metrics),
		categorization.NewStaticTier(d.Directory, metrics),
		aiTier,
		d.Directory, d.Logger, metrics,
	)
	d.Learner = categorization.NewLearner(d.Keywords, d.Logger, metrics)

	history, err := classifier.NewHistory()
	if err != nil {
		return err
	}
	d.History = history

	d.Classifier = classifier.New(
		lang.NewCorrector(),
		d.Resolver,
		history,
		d.Store,
		classifier.Config{
			DefaultCurrency: d.Config.Classifier.DefaultCurrency,
			HistoryDepth:    d.Config.Classifier.HistoryDepth,
		},
		d.Logger,
	)
	return nil
}

// Close releases held resources.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
