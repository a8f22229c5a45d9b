package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationRepo_Upsert(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO classifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewClassificationRepo(db)
	cl := &domain.Classification{
		InboxID: "inbox-1", MessageID: "m1", Category: "earnings",
		SubCategory: "weekly_pay", Confidence: 0.9, Source: domain.SourceRules,
	}
	err := repo.Upsert(context.Background(), cl)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassificationRepo_GetByIDs(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"inbox_id", "message_id", "category", "sub_category", "confidence", "source",
		"summary", "urgency", "action_required", "key_details", "raw_ai_payload", "created_at",
	}).AddRow("inbox-1", "m1", "earnings", "weekly_pay", 0.9, string(domain.SourceRules),
		"summary", string(domain.UrgencyLow), false, []byte("{}"), "", now)

	mock.ExpectQuery("SELECT (.+) FROM classifications").
		WithArgs("inbox-1", "m1", "m2").
		WillReturnRows(rows)

	repo := NewClassificationRepo(db)
	out, err := repo.GetByIDs(context.Background(), "inbox-1", []string{"m1", "m2"})
	require.NoError(t, err)
	require.Contains(t, out, "m1")
	assert.Equal(t, "earnings", out["m1"].Category)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassificationRepo_GetByIDs_Empty(t *testing.T) {
	db, _, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewClassificationRepo(db)
	out, err := repo.GetByIDs(context.Background(), "inbox-1", nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
