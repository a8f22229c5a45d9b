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

func TestScanLogRepo_Start(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO scan_logs").
		WithArgs(sqlmock.AnyArg(), domain.ScanRunning, sqlmock.AnyArg(), 0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewScanLogRepo(db)
	log := &domain.ScanLog{}
	err := repo.Start(context.Background(), log)
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)
	assert.Equal(t, domain.ScanRunning, log.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanLogRepo_UpdateProgress_NoRows(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("UPDATE scan_logs SET scanned").
		WithArgs(5, 0, 1, "dasher@example.com", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewScanLogRepo(db)
	err := repo.UpdateProgress(context.Background(), "missing", 5, 0, 1, "dasher@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsKind(err, repository.KindNotFound))
}

func TestScanLogRepo_Finish(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("UPDATE scan_logs SET status").
		WithArgs(domain.ScanCompleted, sqlmock.AnyArg(), "", "scan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewScanLogRepo(db)
	err := repo.Finish(context.Background(), "scan-1", domain.ScanCompleted, "", time.Now())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanLogRepo_Latest(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "status", "started_at", "finished_at", "total_accounts", "scanned", "errors", "transitions",
		"current_account", "error_details",
	}).AddRow("scan-1", domain.ScanCompleted, now, now, 10, 10, 0, 1, "", "")

	mock.ExpectQuery("SELECT (.+) FROM scan_logs ORDER BY started_at DESC").
		WillReturnRows(rows)

	repo := NewScanLogRepo(db)
	log, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "scan-1", log.ID)
	assert.NotNil(t, log.FinishedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanLogRepo_Latest_NotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM scan_logs ORDER BY started_at DESC").
		WillReturnError(sql.ErrNoRows)

	repo := NewScanLogRepo(db)
	_, err := repo.Latest(context.Background())
	require.Error(t, err)
	assert.True(t, repository.IsKind(err, repository.KindNotFound))
}
