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

func TestAlertRepo_Create(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO alerts").
		WithArgs(sqlmock.AnyArg(), "inbox-1", "deactivation", domain.SeverityCritical, "title", "msg", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewAlertRepo(db)
	alert := &domain.Alert{InboxID: "inbox-1", AlertType: "deactivation", Severity: domain.SeverityCritical, Title: "title", Message: "msg"}
	err := repo.Create(context.Background(), alert)
	require.NoError(t, err)
	assert.NotEmpty(t, alert.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepo_List_UnreadOnly(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "inbox_id", "alert_type", "severity", "title", "message", "read", "reader_id", "read_at", "created_at",
	}).AddRow("alert-1", "inbox-1", "deactivation", domain.SeverityCritical, "title", "msg", false, nil, nil, now)

	mock.ExpectQuery("SELECT (.+) FROM alerts WHERE inbox_id (.+) AND read = false").
		WithArgs("inbox-1").
		WillReturnRows(rows)

	repo := NewAlertRepo(db)
	alerts, err := repo.List(context.Background(), "inbox-1", true)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "alert-1", alerts[0].ID)
	assert.Nil(t, alerts[0].ReadAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepo_MarkRead(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("UPDATE alerts SET read = true").
		WithArgs("reader-1", sqlmock.AnyArg(), "alert-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAlertRepo(db)
	err := repo.MarkRead(context.Background(), "alert-1", "reader-1", time.Now())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
