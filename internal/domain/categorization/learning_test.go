package categorization

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLearner_RecordCorrection(t *testing.T) {
	userID := uuid.New()
	cafe := uuid.New()
	transport := uuid.New()

	t.Run("new keyword gets full weight", func(t *testing.T) {
		store := &memStore{weights: map[string][]KeywordWeight{}}
		l := NewLearner(store, testLogger, nil)

		err := l.RecordCorrection(context.Background(), userID, []string{"латте"}, uuid.Nil, cafe)
		require.NoError(t, err)

		weights := store.replaced["латте"]
		require.Len(t, weights, 1)
		assert.Equal(t, cafe, weights[0].CategoryID)
		assert.InDelta(t, 1.0, weights[0].Weight, 1e-9)
		assert.Equal(t, 1, weights[0].UsageCount)
	})

	t.Run("correction shifts weight and keeps sum at one", func(t *testing.T) {
		store := &memStore{weights: map[string][]KeywordWeight{
			"такси": {
				{Keyword: "такси", CategoryID: transport, Weight: 0.7, UsageCount: 7},
				{Keyword: "такси", CategoryID: cafe, Weight: 0.3, UsageCount: 3},
			},
		}}
		l := NewLearner(store, testLogger, nil)

		err := l.RecordCorrection(context.Background(), userID, []string{"такси"}, transport, cafe)
		require.NoError(t, err)

		weights := store.replaced["такси"]
		require.Len(t, weights, 2)

		sum := 0.0
		var cafeWeight, transportWeight float64
		for _, w := range weights {
			sum += w.Weight
			switch w.CategoryID {
			case cafe:
				cafeWeight = w.Weight
			case transport:
				transportWeight = w.Weight
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.Greater(t, cafeWeight, 0.3)
		assert.Less(t, transportWeight, 0.7)
	})

	t.Run("numbers and short tokens skipped", func(t *testing.T) {
		store := &memStore{weights: map[string][]KeywordWeight{}}
		l := NewLearner(store, testLogger, nil)

		err := l.RecordCorrection(context.Background(), userID, []string{"кофе", "200", "с", "кофе"}, uuid.Nil, cafe)
		require.NoError(t, err)

		require.Len(t, store.replaced, 1)
		assert.Contains(t, store.replaced, "кофе")
	})

	t.Run("no learnable tokens is a no-op", func(t *testing.T) {
		store := &memStore{weights: map[string][]KeywordWeight{}}
		l := NewLearner(store, testLogger, nil)

		err := l.RecordCorrection(context.Background(), userID, []string{"200", "5"}, uuid.Nil, cafe)
		require.NoError(t, err)
		assert.Empty(t, store.replaced)
	})

	t.Run("confirming the same category is a no-op", func(t *testing.T) {
		store := &memStore{weights: map[string][]KeywordWeight{}}
		l := NewLearner(store, testLogger, nil)

		err := l.RecordCorrection(context.Background(), userID, []string{"латте"}, cafe, cafe)
		require.NoError(t, err)
		assert.Empty(t, store.replaced)
	})

	t.Run("concurrent corrections stay normalized", func(t *testing.T) {
		store := &syncStore{weights: map[string][]KeywordWeight{}}
		l := NewLearner(store, testLogger, nil)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			target := cafe
			if i%2 == 0 {
				target = transport
			}
			wg.Add(1)
			go func(cat uuid.UUID) {
				defer wg.Done()
				assert.NoError(t, l.RecordCorrection(context.Background(), userID, []string{"обед"}, uuid.Nil, cat))
			}(target)
		}
		wg.Wait()

		sum := 0.0
		for _, w := range store.weights["обед"] {
			sum += w.Weight
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	})
}

// syncStore is a mutex-guarded store whose reads observe prior writes,
// for exercising the per-user serialization.
type syncStore struct {
	mu      sync.Mutex
	weights map[string][]KeywordWeight
}

func (s *syncStore) WeightsForUser(_ context.Context, _ uuid.UUID) (map[string][]KeywordWeight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]KeywordWeight, len(s.weights))
	for k, v := range s.weights {
		out[k] = append([]KeywordWeight(nil), v...)
	}
	return out, nil
}

func (s *syncStore) ReplaceWeights(_ context.Context, _ uuid.UUID, keyword string, weights []KeywordWeight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights[keyword] = append([]KeywordWeight(nil), weights...)
	return nil
}
