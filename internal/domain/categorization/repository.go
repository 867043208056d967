package categorization

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool the repositories need. Tests
// substitute a pgxmock pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Directory looks up a user's category set.
type Directory interface {
	List(ctx context.Context, userID uuid.UUID) ([]Category, error)
	FindByName(ctx context.Context, userID uuid.UUID, name string) (Category, bool, error)
	Default(ctx context.Context, userID uuid.UUID) (Category, error)
}

// KeywordStore persists learned keyword weights.
type KeywordStore interface {
	WeightsForUser(ctx context.Context, userID uuid.UUID) (map[string][]KeywordWeight, error)
	ReplaceWeights(ctx context.Context, userID uuid.UUID, keyword string, weights []KeywordWeight) error
}

// Repository implements Directory and KeywordStore over Postgres.
type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// List fetches all categories for a user, default category first.
func (r *Repository) List(ctx context.Context, userID uuid.UUID) ([]Category, error) {
	query := `
		SELECT id, user_id, name, icon, is_default
		FROM categories
		WHERE user_id = $1
		ORDER BY is_default DESC, name ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.IsDefault); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// FindByName matches a category by name, case-insensitively.
func (r *Repository) FindByName(ctx context.Context, userID uuid.UUID, name string) (Category, bool, error) {
	query := `
		SELECT id, user_id, name, icon, is_default
		FROM categories
		WHERE user_id = $1 AND lower(name) = lower($2)
	`

	var c Category
	err := r.db.QueryRow(ctx, query, userID, name).Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.IsDefault)
	if err == pgx.ErrNoRows {
		return Category{}, false, nil
	}
	if err != nil {
		return Category{}, false, fmt.Errorf("find category %q: %w", name, err)
	}

	return c, true, nil
}

// Default returns the user's fallback category.
func (r *Repository) Default(ctx context.Context, userID uuid.UUID) (Category, error) {
	query := `
		SELECT id, user_id, name, icon, is_default
		FROM categories
		WHERE user_id = $1 AND is_default = true
	`

	var c Category
	err := r.db.QueryRow(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.IsDefault)
	if err != nil {
		return Category{}, fmt.Errorf("default category: %w", err)
	}
	return c, nil
}

// WeightsForUser loads all learned keyword weights, grouped by keyword.
func (r *Repository) WeightsForUser(ctx context.Context, userID uuid.UUID) (map[string][]KeywordWeight, error) {
	query := `
		SELECT keyword, category_id, weight, usage_count
		FROM keyword_weights
		WHERE user_id = $1
		ORDER BY keyword, weight DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load keyword weights: %w", err)
	}
	defer rows.Close()

	weights := make(map[string][]KeywordWeight)
	for rows.Next() {
		var w KeywordWeight
		if err := rows.Scan(&w.Keyword, &w.CategoryID, &w.Weight, &w.UsageCount); err != nil {
			return nil, fmt.Errorf("scan keyword weight: %w", err)
		}
		weights[w.Keyword] = append(weights[w.Keyword], w)
	}

	return weights, rows.Err()
}

// ReplaceWeights swaps the full weight set for one (user, keyword) pair
// in a single transaction, keeping the sum-to-one invariant atomic.
func (r *Repository) ReplaceWeights(ctx context.Context, userID uuid.UUID, keyword string, weights []KeywordWeight) error {
	keyword = strings.ToLower(keyword)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin weight update: %w", err)
	}

	if err := replaceWeightsTx(ctx, tx, userID, keyword, weights); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

func replaceWeightsTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, keyword string, weights []KeywordWeight) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM keyword_weights WHERE user_id = $1 AND keyword = $2`,
		userID, keyword,
	); err != nil {
		return fmt.Errorf("clear keyword weights: %w", err)
	}

	for _, w := range weights {
		if _, err := tx.Exec(ctx,
			`INSERT INTO keyword_weights (user_id, keyword, category_id, weight, usage_count)
			 VALUES ($1, $2, $3, $4, $5)`,
			userID, keyword, w.CategoryID, w.Weight, w.UsageCount,
		); err != nil {
			return fmt.Errorf("insert keyword weight: %w", err)
		}
	}

	return nil
}
