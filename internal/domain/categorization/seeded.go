package categorization

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// seedNamespace keeps seeded category IDs stable across restarts so
// learned weights recorded in one run stay valid in the next.
var seedNamespace = uuid.MustParse("8f3c6a1e-92d4-4c37-b1a5-0d6e9f24c801")

var seededRussian = []string{
	"Продукты", "Кафе", "Транспорт", "Здоровье", "Развлечения",
	"Жилье", "Связь", "Одежда", "Спорт", "Подписки",
	"Зарплата", "Фриланс", "Прочий доход", "Прочее",
}

var seededEnglish = []string{
	"Groceries", "Cafe", "Transport", "Health", "Entertainment",
	"Housing", "Utilities", "Clothing", "Home", "Sport", "Subscriptions",
	"Shopping", "Salary", "Freelance", "Other income", "Other",
}

// SeededDirectory serves the built-in category set without a database,
// for stateless runs and tests. The last category of the seed list is
// the default bucket.
type SeededDirectory struct {
	categories []Category
}

// NewSeededDirectory builds the seed set for a locale ("ru" or "en").
func NewSeededDirectory(locale string) *SeededDirectory {
	names := seededEnglish
	if strings.EqualFold(locale, "ru") {
		names = seededRussian
	}

	categories := make([]Category, len(names))
	for i, name := range names {
		categories[i] = Category{
			ID:        uuid.NewSHA1(seedNamespace, []byte(strings.ToLower(name))),
			Name:      name,
			IsDefault: i == len(names)-1,
		}
	}
	return &SeededDirectory{categories: categories}
}

func (d *SeededDirectory) List(_ context.Context, _ uuid.UUID) ([]Category, error) {
	return d.categories, nil
}

func (d *SeededDirectory) FindByName(_ context.Context, _ uuid.UUID, name string) (Category, bool, error) {
	for _, c := range d.categories {
		if strings.EqualFold(c.Name, name) {
			return c, true, nil
		}
	}
	return Category{}, false, nil
}

func (d *SeededDirectory) Default(_ context.Context, _ uuid.UUID) (Category, error) {
	return d.categories[len(d.categories)-1], nil
}

// MemoryStore is an in-memory KeywordStore for stateless runs. Learned
// weights live only as long as the process.
type MemoryStore struct {
	mu      sync.RWMutex
	weights map[uuid.UUID]map[string][]KeywordWeight
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{weights: make(map[uuid.UUID]map[string][]KeywordWeight)}
}

func (s *MemoryStore) WeightsForUser(_ context.Context, userID uuid.UUID) (map[string][]KeywordWeight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]KeywordWeight, len(s.weights[userID]))
	for k, v := range s.weights[userID] {
		out[k] = append([]KeywordWeight(nil), v...)
	}
	return out, nil
}

func (s *MemoryStore) ReplaceWeights(_ context.Context, userID uuid.UUID, keyword string, weights []KeywordWeight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byKeyword, ok := s.weights[userID]
	if !ok {
		byKeyword = make(map[string][]KeywordWeight)
		s.weights[userID] = byKeyword
	}
	byKeyword[strings.ToLower(keyword)] = append([]KeywordWeight(nil), weights...)
	return nil
}
