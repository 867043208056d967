package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyTx(userID uuid.UUID, description string, amount int64, occurredAt time.Time) Transaction {
	return Transaction{
		ID:           uuid.New(),
		UserID:       userID,
		Description:  description,
		CategoryID:   uuid.New(),
		CategoryName: "Транспорт",
		Amount:       decimal.NewFromInt(amount),
		Currency:     "RUB",
		OccurredAt:   occurredAt,
	}
}

func TestHistory_FindSimilar(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	h, err := NewHistory()
	require.NoError(t, err)
	require.NoError(t, h.Load([]Transaction{
		historyTx(userID, "Такси до работы", 650, now.Add(-48*time.Hour)),
		historyTx(userID, "Кофе с собой", 200, now.Add(-24*time.Hour)),
	}))

	t.Run("partial description matches", func(t *testing.T) {
		tx, ok := h.FindSimilar(userID, "Такси")
		require.True(t, ok)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(650)))
	})

	t.Run("unrelated description does not match", func(t *testing.T) {
		_, ok := h.FindSimilar(userID, "аптека")
		assert.False(t, ok)
	})

	t.Run("other user isolated", func(t *testing.T) {
		_, ok := h.FindSimilar(uuid.New(), "Такси")
		assert.False(t, ok)
	})

	t.Run("empty query no match", func(t *testing.T) {
		_, ok := h.FindSimilar(userID, "  ")
		assert.False(t, ok)
	})

	t.Run("newest wins among repeats", func(t *testing.T) {
		newer := historyTx(userID, "Такси", 700, now.Add(-1*time.Hour))
		require.NoError(t, h.Add(newer))

		tx, ok := h.FindSimilar(userID, "Такси")
		require.True(t, ok)
		assert.True(t, tx.Amount.Equal(decimal.NewFromInt(700)))
	})
}

func TestPgStore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPgStore(mock)
	userID := uuid.New()
	now := time.Now()

	t.Run("insert", func(t *testing.T) {
		tx := historyTx(userID, "Такси", 650, now)
		mock.ExpectExec(`INSERT INTO transactions`).
			WithArgs(tx.ID, tx.UserID, tx.Description, tx.CategoryID, tx.Amount, tx.Currency, tx.OccurredAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, store.Insert(context.Background(), tx))
	})

	t.Run("recent", func(t *testing.T) {
		txID := uuid.New()
		catID := uuid.New()
		mock.ExpectQuery(`SELECT t.id, t.user_id, t.description`).
			WithArgs(userID, 50).
			WillReturnRows(pgxmock.NewRows([]string{
				"id", "user_id", "description", "category_id", "name", "amount", "currency", "occurred_at",
			}).AddRow(txID, userID, "Такси", catID, "Транспорт", decimal.NewFromInt(650), "RUB", now))

		txs, err := store.Recent(context.Background(), userID, 50)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "Транспорт", txs[0].CategoryName)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
