package classifier

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgertalk/ledgertalk/internal/domain/categorization"
)

// Transaction is one saved, classified message used for history reuse.
type Transaction struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Description  string
	CategoryID   uuid.UUID
	CategoryName string
	Amount       decimal.Decimal
	Currency     string
	OccurredAt   time.Time
}

// TransactionStore persists classified transactions.
type TransactionStore interface {
	Insert(ctx context.Context, tx Transaction) error
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]Transaction, error)
}

// historyDoc is the indexed shape of a transaction.
type historyDoc struct {
	UserID      string `json:"user_id"`
	Description string `json:"description"`
}

// History answers "what did this user mean last time" queries. It keeps
// an in-memory full-text index over recent transaction descriptions so
// a bare "Такси" can be matched against an earlier "Такси до работы".
type History struct {
	index bleve.Index

	mu      sync.RWMutex
	records map[string]Transaction // bleve doc ID -> transaction
}

// NewHistory creates an empty in-memory history index.
func NewHistory() (*History, error) {
	index, err := bleve.NewMemOnly(historyMapping())
	if err != nil {
		return nil, fmt.Errorf("create history index: %w", err)
	}
	return &History{
		index:   index,
		records: make(map[string]Transaction),
	}, nil
}

func historyMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = simple.Name

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("description", textField)
	doc.AddFieldMappingsAt("user_id", keywordField)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = simple.Name
	return im
}

// Add indexes one transaction. Newest information wins on repeated IDs.
func (h *History) Add(tx Transaction) error {
	docID := tx.ID.String()

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.index.Index(docID, historyDoc{
		UserID:      tx.UserID.String(),
		Description: strings.ToLower(tx.Description),
	}); err != nil {
		return fmt.Errorf("index transaction: %w", err)
	}
	h.records[docID] = tx
	return nil
}

// Load bulk-indexes recent transactions, typically at startup.
func (h *History) Load(txs []Transaction) error {
	for _, tx := range txs {
		if err := h.Add(tx); err != nil {
			return err
		}
	}
	return nil
}

// FindSimilar returns the best-matching prior transaction for this user
// and description, newest first among equal scores.
func (h *History) FindSimilar(userID uuid.UUID, description string) (Transaction, bool) {
	description = strings.TrimSpace(strings.ToLower(description))
	if description == "" {
		return Transaction{}, false
	}

	userQuery := bleve.NewTermQuery(userID.String())
	userQuery.SetField("user_id")

	descQuery := bleve.NewMatchQuery(description)
	descQuery.SetField("description")
	descQuery.SetFuzziness(1)

	search := bleve.NewSearchRequest(bleve.NewConjunctionQuery(userQuery, descQuery))
	search.Size = 5

	h.mu.RLock()
	defer h.mu.RUnlock()

	res, err := h.index.Search(search)
	if err != nil || len(res.Hits) == 0 {
		return Transaction{}, false
	}

	var best Transaction
	found := false
	topScore := res.Hits[0].Score
	for _, hit := range res.Hits {
		if hit.Score < topScore {
			break
		}
		tx, ok := h.records[hit.ID]
		if !ok {
			continue
		}
		if !found || tx.OccurredAt.After(best.OccurredAt) {
			best = tx
			found = true
		}
	}
	return best, found
}

// RecentSummary renders the user's newest transactions as a short
// "description: category" line, used as extra signal for the AI
// category tier. Returns "" when the user has no history.
func (h *History) RecentSummary(userID uuid.UUID, limit int) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var recent []Transaction
	for _, tx := range h.records {
		if tx.UserID != userID {
			continue
		}
		recent = append(recent, tx)
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].OccurredAt.After(recent[j].OccurredAt)
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}

	parts := make([]string, 0, len(recent))
	for _, tx := range recent {
		if tx.CategoryName == "" {
			parts = append(parts, tx.Description)
			continue
		}
		parts = append(parts, tx.Description+": "+tx.CategoryName)
	}
	return strings.Join(parts, "; ")
}

// PgStore implements TransactionStore over Postgres.
type PgStore struct {
	db categorization.Querier
}

func NewPgStore(db categorization.Querier) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) Insert(ctx context.Context, tx Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, description, category_id, amount, currency, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		tx.ID, tx.UserID, tx.Description, tx.CategoryID, tx.Amount, tx.Currency, tx.OccurredAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *PgStore) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]Transaction, error) {
	query := `
		SELECT t.id, t.user_id, t.description, t.category_id, c.name, t.amount, t.currency, t.occurred_at
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1
		ORDER BY t.occurred_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Description, &tx.CategoryID,
			&tx.CategoryName, &tx.Amount, &tx.Currency, &tx.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	return txs, rows.Err()
}
