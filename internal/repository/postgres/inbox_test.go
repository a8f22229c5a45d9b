package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, func() { db.Close() }
}

func TestInboxRepo_GetByEmail(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "provider_id", "email", "first_name", "last_name",
		"stage", "stage_updated_at", "last_scanned_at", "scan_error", "created_at", "updated_at",
	}).AddRow("inbox-1", "acc-1", "dasher@example.com", "Ann", "Lee",
		string(domain.StageActive), now, now, "", now, now)

	mock.ExpectQuery("SELECT (.+) FROM inboxes WHERE email").
		WithArgs("dasher@example.com").
		WillReturnRows(rows)

	repo := NewInboxRepo(db)
	inbox, err := repo.GetByEmail(context.Background(), "dasher@example.com")
	require.NoError(t, err)
	assert.Equal(t, "inbox-1", inbox.ID)
	assert.Equal(t, domain.StageActive, inbox.Stage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInboxRepo_GetByEmail_NotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM inboxes WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	repo := NewInboxRepo(db)
	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsKind(err, repository.KindNotFound))
}

func TestInboxRepo_UpdateStage(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("UPDATE inboxes SET stage").
		WithArgs(string(domain.StageDeactivated), sqlmock.AnyArg(), "inbox-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewInboxRepo(db)
	err := repo.UpdateStage(context.Background(), "inbox-1", domain.StageDeactivated, time.Now())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInboxRepo_UpdateStage_NoRows(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("UPDATE inboxes SET stage").
		WithArgs(string(domain.StageDeactivated), sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewInboxRepo(db)
	err := repo.UpdateStage(context.Background(), "missing", domain.StageDeactivated, time.Now())
	require.Error(t, err)
	assert.True(t, repository.IsKind(err, repository.KindNotFound))
}

func TestInboxRepo_AppendStageHistory(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO stage_history").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewInboxRepo(db)
	entry := &domain.StageHistoryEntry{InboxID: "inbox-1", OldStage: domain.StageActive, NewStage: domain.StageDeactivated}
	err := repo.AppendStageHistory(context.Background(), entry)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
