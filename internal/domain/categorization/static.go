package categorization

import (
	"context"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/text/language"
)

// Static keyword weights. Exact multi-word phrases outrank brand names,
// which outrank generic nouns, so "бизнес ланч" beats "ланч" and
// "wildberries" beats "одежда" when both appear.
const (
	weightGeneric = 1
	weightBrand   = 2
	weightPhrase  = 3
)

type staticEntry struct {
	keyword  string
	category string // canonical category name, language-local
	weight   int
}

// staticIndex is a multi-pattern matcher over one language's keyword
// dictionary. All patterns are matched in a single pass through the
// description.
type staticIndex struct {
	matcher *ahocorasick.Matcher
	entries []staticEntry
	mu      sync.RWMutex
}

func newStaticIndex(entries []staticEntry) *staticIndex {
	idx := &staticIndex{entries: entries}
	patterns := make([][]byte, len(entries))
	for i, e := range entries {
		patterns[i] = []byte(e.keyword)
	}
	if len(patterns) > 0 {
		idx.matcher = ahocorasick.NewMatcher(patterns)
	}
	return idx
}

// match finds the best static entry for a normalized description. Ties
// on weight go to the longer keyword.
func (s *staticIndex) match(description string) (staticEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.matcher == nil {
		return staticEntry{}, false
	}

	hits := s.matcher.Match([]byte(description))
	if len(hits) == 0 {
		return staticEntry{}, false
	}

	var best staticEntry
	found := false
	for _, idx := range hits {
		if idx < 0 || idx >= len(s.entries) {
			continue
		}
		e := s.entries[idx]
		if !found || e.weight > best.weight ||
			(e.weight == best.weight && len(e.keyword) > len(best.keyword)) {
			best = e
			found = true
		}
	}
	return best, found
}

// StaticTier matches descriptions against built-in keyword dictionaries
// and maps the hit to one of the user's categories by name.
type StaticTier struct {
	directory Directory
	russian   *staticIndex
	english   *staticIndex
	metrics   *Metrics
}

func NewStaticTier(directory Directory, metrics *Metrics) *StaticTier {
	return &StaticTier{
		directory: directory,
		russian:   newStaticIndex(russianKeywords),
		english:   newStaticIndex(englishKeywords),
		metrics:   metrics,
	}
}

func (t *StaticTier) Name() Tier { return TierStatic }

func (t *StaticTier) Resolve(ctx context.Context, req Request) (*Candidate, error) {
	idx := t.english
	if req.Language == language.Russian {
		idx = t.russian
	}

	entry, ok := idx.match(strings.ToLower(req.Description))
	if !ok {
		return nil, nil
	}

	category, ok, err := t.directory.FindByName(ctx, req.UserID, entry.category)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Keyword maps to a category the user deleted. Not a match.
		return nil, nil
	}

	confidence := 0.6 + 0.1*float64(entry.weight)
	if confidence > 0.9 {
		confidence = 0.9
	}

	t.metrics.TierHit(TierStatic)
	return &Candidate{
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Tier:         TierStatic,
		Score:        float64(entry.weight),
		Confidence:   confidence,
	}, nil
}

// Seeded dictionaries. Category names here must match the seeded
// category set in the directory.
var russianKeywords = []staticEntry{
	{"кофе", "Кафе", weightGeneric},
	{"латте", "Кафе", weightGeneric},
	{"капучино", "Кафе", weightGeneric},
	{"чай", "Кафе", weightGeneric},
	{"ресторан", "Кафе", weightGeneric},
	{"обед", "Кафе", weightGeneric},
	{"ужин", "Кафе", weightGeneric},
	{"завтрак", "Кафе", weightGeneric},
	{"бизнес ланч", "Кафе", weightPhrase},
	{"продукты", "Продукты", weightGeneric},
	{"хлеб", "Продукты", weightGeneric},
	{"молоко", "Продукты", weightGeneric},
	{"пятерочка", "Продукты", weightBrand},
	{"магнит", "Продукты", weightBrand},
	{"вкусвилл", "Продукты", weightBrand},
	{"такси", "Транспорт", weightGeneric},
	{"метро", "Транспорт", weightGeneric},
	{"автобус", "Транспорт", weightGeneric},
	{"проезд", "Транспорт", weightGeneric},
	{"бензин", "Транспорт", weightGeneric},
	{"парковка", "Транспорт", weightGeneric},
	{"яндекс такси", "Транспорт", weightPhrase},
	{"аптека", "Здоровье", weightGeneric},
	{"врач", "Здоровье", weightGeneric},
	{"лекарства", "Здоровье", weightGeneric},
	{"анализы", "Здоровье", weightGeneric},
	{"кино", "Развлечения", weightGeneric},
	{"театр", "Развлечения", weightGeneric},
	{"концерт", "Развлечения", weightGeneric},
	{"игры", "Развлечения", weightGeneric},
	{"steam", "Развлечения", weightBrand},
	{"аренда", "Жилье", weightGeneric},
	{"квартплата", "Жилье", weightGeneric},
	{"коммуналка", "Жилье", weightGeneric},
	{"интернет", "Связь", weightGeneric},
	{"телефон", "Связь", weightGeneric},
	{"мтс", "Связь", weightBrand},
	{"мегафон", "Связь", weightBrand},
	{"билайн", "Связь", weightBrand},
	{"одежда", "Одежда", weightGeneric},
	{"обувь", "Одежда", weightGeneric},
	{"wildberries", "Одежда", weightBrand},
	{"спортзал", "Спорт", weightGeneric},
	{"фитнес", "Спорт", weightGeneric},
	{"бассейн", "Спорт", weightGeneric},
	{"подписка", "Подписки", weightGeneric},
	{"spotify", "Подписки", weightBrand},
	{"netflix", "Подписки", weightBrand},
	{"зарплата", "Зарплата", weightGeneric},
	{"премия", "Зарплата", weightGeneric},
	{"аванс", "Зарплата", weightGeneric},
	{"фриланс", "Фриланс", weightGeneric},
	{"кэшбек", "Прочий доход", weightGeneric},
	{"кешбэк", "Прочий доход", weightGeneric},
	{"возврат", "Прочий доход", weightGeneric},
}

var englishKeywords = []staticEntry{
	{"coffee", "Cafe", weightGeneric},
	{"latte", "Cafe", weightGeneric},
	{"cappuccino", "Cafe", weightGeneric},
	{"restaurant", "Cafe", weightGeneric},
	{"lunch", "Cafe", weightGeneric},
	{"dinner", "Cafe", weightGeneric},
	{"breakfast", "Cafe", weightGeneric},
	{"business lunch", "Cafe", weightPhrase},
	{"groceries", "Groceries", weightGeneric},
	{"bread", "Groceries", weightGeneric},
	{"milk", "Groceries", weightGeneric},
	{"taxi", "Transport", weightGeneric},
	{"uber", "Transport", weightBrand},
	{"bolt", "Transport", weightBrand},
	{"metro", "Transport", weightGeneric},
	{"bus", "Transport", weightGeneric},
	{"fuel", "Transport", weightGeneric},
	{"parking", "Transport", weightGeneric},
	{"pharmacy", "Health", weightGeneric},
	{"doctor", "Health", weightGeneric},
	{"cinema", "Entertainment", weightGeneric},
	{"movies", "Entertainment", weightGeneric},
	{"concert", "Entertainment", weightGeneric},
	{"steam", "Entertainment", weightBrand},
	{"rent", "Housing", weightGeneric},
	{"utilities", "Housing", weightGeneric},
	{"internet", "Utilities", weightGeneric},
	{"phone", "Utilities", weightGeneric},
	{"clothes", "Clothing", weightGeneric},
	{"shoes", "Clothing", weightGeneric},
	{"ikea", "Home", weightBrand},
	{"gym", "Sport", weightGeneric},
	{"fitness", "Sport", weightGeneric},
	{"subscription", "Subscriptions", weightGeneric},
	{"spotify", "Subscriptions", weightBrand},
	{"netflix", "Subscriptions", weightBrand},
	{"paypal", "Shopping", weightBrand},
	{"salary", "Salary", weightGeneric},
	{"bonus", "Salary", weightGeneric},
	{"freelance", "Freelance", weightGeneric},
	{"cashback", "Other income", weightGeneric},
	{"refund", "Other income", weightGeneric},
}
