package classifier

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgertalk/ledgertalk/internal/domain/categorization"
	"github.com/ledgertalk/ledgertalk/internal/domain/lang"
	"github.com/ledgertalk/ledgertalk/internal/domain/parser"
)

var testLogger = slog.New(slog.DiscardHandler)

type fakeDirectory struct {
	categories []categorization.Category
}

func (d *fakeDirectory) List(_ context.Context, _ uuid.UUID) ([]categorization.Category, error) {
	return d.categories, nil
}

func (d *fakeDirectory) FindByName(_ context.Context, _ uuid.UUID, name string) (categorization.Category, bool, error) {
	for _, c := range d.categories {
		if strings.EqualFold(c.Name, name) {
			return c, true, nil
		}
	}
	return categorization.Category{}, false, nil
}

func (d *fakeDirectory) Default(_ context.Context, _ uuid.UUID) (categorization.Category, error) {
	for _, c := range d.categories {
		if c.IsDefault {
			return c, nil
		}
	}
	return categorization.Category{}, assert.AnError
}

type fakeWeights map[string][]categorization.KeywordWeight

func (f fakeWeights) WeightsForUser(_ context.Context, _ uuid.UUID) (map[string][]categorization.KeywordWeight, error) {
	return f, nil
}

func (f fakeWeights) ReplaceWeights(_ context.Context, _ uuid.UUID, _ string, _ []categorization.KeywordWeight) error {
	return nil
}

type testEnv struct {
	classifier *Classifier
	cafe       categorization.Category
	transport  categorization.Category
	salary     categorization.Category
	other      categorization.Category
	userID     uuid.UUID
	now        time.Time
}

func newTestEnv(t *testing.T, weights fakeWeights) *testEnv {
	t.Helper()

	env := &testEnv{
		cafe:      categorization.Category{ID: uuid.New(), Name: "Кафе"},
		transport: categorization.Category{ID: uuid.New(), Name: "Транспорт"},
		salary:    categorization.Category{ID: uuid.New(), Name: "Зарплата"},
		other:     categorization.Category{ID: uuid.New(), Name: "Прочее", IsDefault: true},
		userID:    uuid.New(),
		now:       time.Date(2025, time.September, 15, 12, 0, 0, 0, time.UTC),
	}

	dir := &fakeDirectory{categories: []categorization.Category{env.cafe, env.transport, env.salary, env.other}}
	resolver := categorization.NewResolver(
		categorization.NewLearnedTier(weights, dir, testLogger, nil),
		categorization.NewStaticTier(dir, nil),
		nil, dir, testLogger, nil,
	)

	history, err := NewHistory()
	require.NoError(t, err)

	env.classifier = New(
		lang.NewCorrector(), resolver, history, nil,
		Config{DefaultCurrency: "RUB"}, testLogger,
	)
	return env
}

func (e *testEnv) classifyOne(t *testing.T, text string) Result {
	t.Helper()
	results, err := e.classifier.ClassifyAll(context.Background(), Input{
		UserID: e.userID, Text: text, Now: e.now,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	return results[0]
}

func TestClassify_Expense(t *testing.T) {
	env := newTestEnv(t, fakeWeights{})

	t.Run("plain expense with static category", func(t *testing.T) {
		res := env.classifyOne(t, "Кофе 200")
		assert.Equal(t, parser.IntentExpense, res.Intent)
		require.True(t, res.HasAmount)
		assert.True(t, res.Amount.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, "RUB", res.Currency)
		assert.Equal(t, "Кофе", res.Description)
		assert.Equal(t, env.cafe.ID, res.CategoryID)
		assert.Equal(t, categorization.TierStatic, res.CategoryTier)
		assert.False(t, res.ReusedFromHistory)
	})

	t.Run("verb phrase cleaned from description", func(t *testing.T) {
		res := env.classifyOne(t, "потратил 500 на такси")
		require.True(t, res.HasAmount)
		assert.True(t, res.Amount.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, "Такси", res.Description)
		assert.Equal(t, env.transport.ID, res.CategoryID)
	})

	t.Run("typo corrected before categorization", func(t *testing.T) {
		res := env.classifyOne(t, "кофи 200")
		assert.Equal(t, env.cafe.ID, res.CategoryID)
	})

	t.Run("explicit currency", func(t *testing.T) {
		res := env.classifyOne(t, "кофе 200руб")
		assert.Equal(t, "RUB", res.Currency)
		assert.Greater(t, res.Confidence, 0.7)
	})

	t.Run("unknown description falls to default category", func(t *testing.T) {
		res := env.classifyOne(t, "шестеренка 100")
		assert.Equal(t, env.other.ID, res.CategoryID)
		assert.Equal(t, categorization.TierDefault, res.CategoryTier)
	})

	t.Run("explicit date extracted", func(t *testing.T) {
		res := env.classifyOne(t, "кофе 200 05.04.2023")
		require.True(t, res.HasDate)
		assert.Equal(t, time.Date(2023, 4, 5, 0, 0, 0, 0, time.UTC), res.Date)
		assert.Equal(t, "Кофе", res.Description)
	})

	t.Run("fractional amount not mistaken for date", func(t *testing.T) {
		res := env.classifyOne(t, "Gum 4.5")
		require.True(t, res.HasAmount)
		assert.True(t, res.Amount.Equal(decimal.NewFromFloat(4.5)))
		assert.False(t, res.HasDate)
	})
}

func TestClassify_IntentRouting(t *testing.T) {
	env := newTestEnv(t, fakeWeights{})

	t.Run("chat greeting", func(t *testing.T) {
		res := env.classifyOne(t, "привет")
		assert.Equal(t, parser.IntentChat, res.Intent)
		assert.False(t, res.HasAmount)
		assert.Empty(t, res.Description)
	})

	t.Run("question about spending", func(t *testing.T) {
		res := env.classifyOne(t, "сколько я потратил на кофе?")
		assert.Equal(t, parser.IntentChat, res.Intent)
	})

	t.Run("income by plus sign", func(t *testing.T) {
		res := env.classifyOne(t, "+5000 зарплата")
		assert.Equal(t, parser.IntentIncome, res.Intent)
		require.True(t, res.HasAmount)
		assert.True(t, res.Amount.Equal(decimal.NewFromInt(5000)))
		assert.Equal(t, env.salary.ID, res.CategoryID)
	})

	t.Run("budget with amount", func(t *testing.T) {
		res := env.classifyOne(t, "бюджет на еду 10000")
		assert.Equal(t, parser.IntentBudget, res.Intent)
		require.True(t, res.HasAmount)
		assert.True(t, res.Amount.Equal(decimal.NewFromInt(10000)))
		assert.Equal(t, "Еду", res.Description)
		assert.Equal(t, uuid.Nil, res.CategoryID)
		assert.Empty(t, res.CategoryName)
		assert.Empty(t, res.CategoryTier)
	})
}

// downDirectory fails every lookup, simulating category storage being
// unreachable.
type downDirectory struct{}

func (downDirectory) List(_ context.Context, _ uuid.UUID) ([]categorization.Category, error) {
	return nil, assert.AnError
}

func (downDirectory) FindByName(_ context.Context, _ uuid.UUID, _ string) (categorization.Category, bool, error) {
	return categorization.Category{}, false, assert.AnError
}

func (downDirectory) Default(_ context.Context, _ uuid.UUID) (categorization.Category, error) {
	return categorization.Category{}, assert.AnError
}

func TestClassify_CategoryStorageDown(t *testing.T) {
	dir := downDirectory{}
	resolver := categorization.NewResolver(
		categorization.NewLearnedTier(fakeWeights{}, dir, testLogger, nil),
		categorization.NewStaticTier(dir, nil),
		nil, dir, testLogger, nil,
	)
	history, err := NewHistory()
	require.NoError(t, err)
	c := New(lang.NewCorrector(), resolver, history, nil, Config{DefaultCurrency: "RUB"}, testLogger)

	now := time.Date(2025, time.September, 15, 12, 0, 0, 0, time.UTC)

	t.Run("budget never touches category storage", func(t *testing.T) {
		res, err := c.Classify(context.Background(), Input{
			UserID: uuid.New(), Text: "бюджет на еду 10000", Now: now,
		})
		require.NoError(t, err)
		assert.Equal(t, parser.IntentBudget, res.Intent)
		require.True(t, res.HasAmount)
		assert.True(t, res.Amount.Equal(decimal.NewFromInt(10000)))
		assert.Equal(t, uuid.Nil, res.CategoryID)
	})

	t.Run("expense still parses without a category", func(t *testing.T) {
		res, err := c.Classify(context.Background(), Input{
			UserID: uuid.New(), Text: "кофе 200", Now: now,
		})
		require.NoError(t, err)
		assert.Equal(t, parser.IntentExpense, res.Intent)
		require.True(t, res.HasAmount)
		assert.True(t, res.Amount.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, uuid.Nil, res.CategoryID)
		assert.Empty(t, res.CategoryName)
	})
}

func TestClassify_HistoryReuse(t *testing.T) {
	env := newTestEnv(t, fakeWeights{})

	prior := env.classifyOne(t, "Такси 650")
	require.NoError(t, env.classifier.Remember(context.Background(), env.userID, prior, env.now.Add(-24*time.Hour)))

	t.Run("bare repeat reuses amount and category", func(t *testing.T) {
		res := env.classifyOne(t, "Такси")
		assert.Equal(t, parser.IntentExpense, res.Intent)
		require.True(t, res.HasAmount)
		assert.True(t, res.Amount.Equal(decimal.NewFromInt(650)))
		assert.Equal(t, "RUB", res.Currency)
		assert.Equal(t, env.transport.ID, res.CategoryID)
		assert.Equal(t, categorization.TierHistory, res.CategoryTier)
		assert.True(t, res.ReusedFromHistory)
		assert.InDelta(t, historyReuseConfidence, res.Confidence, 1e-9)
	})

	t.Run("other user sees nothing", func(t *testing.T) {
		results, err := env.classifier.ClassifyAll(context.Background(), Input{
			UserID: uuid.New(), Text: "Такси", Now: env.now,
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].ReusedFromHistory)
		assert.False(t, results[0].HasAmount)
	})

	t.Run("message with its own amount ignores history", func(t *testing.T) {
		res := env.classifyOne(t, "Такси 300")
		assert.False(t, res.ReusedFromHistory)
		assert.True(t, res.Amount.Equal(decimal.NewFromInt(300)))
	})
}

func TestClassify_SuppliedAmount(t *testing.T) {
	env := newTestEnv(t, fakeWeights{})
	supplied := decimal.NewFromInt(650)

	res, err := env.classifier.Classify(context.Background(), Input{
		UserID:         env.userID,
		Text:           "такси до аэропорта",
		Now:            env.now,
		SuppliedAmount: &supplied,
	})
	require.NoError(t, err)

	require.True(t, res.HasAmount)
	assert.True(t, res.Amount.Equal(supplied))
	assert.Equal(t, "RUB", res.Currency)
	assert.Equal(t, env.transport.ID, res.CategoryID)
	assert.False(t, res.ReusedFromHistory)
	assert.Equal(t, "Такси до аэропорта", res.Description)
}

func TestClassify_MultiItem(t *testing.T) {
	env := newTestEnv(t, fakeWeights{})

	results, err := env.classifier.ClassifyAll(context.Background(), Input{
		UserID: env.userID, Text: "кофе 200 и такси 300", Now: env.now,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Кофе", results[0].Description)
	assert.True(t, results[0].Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, env.cafe.ID, results[0].CategoryID)

	assert.Equal(t, "Такси", results[1].Description)
	assert.True(t, results[1].Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, env.transport.ID, results[1].CategoryID)
}

func TestClassify_CasePreservation(t *testing.T) {
	env := newTestEnv(t, fakeWeights{})

	t.Run("acronym kept verbatim", func(t *testing.T) {
		res := env.classifyOne(t, "MTS 300")
		assert.Equal(t, "MTS", res.Description)
	})

	t.Run("mixed case kept verbatim", func(t *testing.T) {
		res := env.classifyOne(t, "PayPal 2500")
		assert.Equal(t, "PayPal", res.Description)
	})

	t.Run("lowercase brand capitalized", func(t *testing.T) {
		res := env.classifyOne(t, "spotify 500")
		assert.Equal(t, "Spotify", res.Description)
	})

	t.Run("sentence case for phrases", func(t *testing.T) {
		res := env.classifyOne(t, "кофе с собой 250")
		assert.Equal(t, "Кофе с собой", res.Description)
	})
}

func TestClassify_LearnedOverridesStatic(t *testing.T) {
	weights := fakeWeights{}
	env := newTestEnv(t, weights)
	weights["такси"] = []categorization.KeywordWeight{
		{Keyword: "такси", CategoryID: env.cafe.ID, Weight: 1.0, UsageCount: 9},
	}

	res := env.classifyOne(t, "такси 300")
	assert.Equal(t, categorization.TierLearned, res.CategoryTier)
	assert.Equal(t, env.cafe.ID, res.CategoryID)
}
