package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortalUserRepo_Create(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO portal_users").
		WithArgs("dasher@example.com", "hash", "inbox-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewPortalUserRepo(db)
	cred := &domain.PortalCredential{Email: "dasher@example.com", PasswordHash: "hash", InboxID: "inbox-1"}
	err := repo.Create(context.Background(), cred)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPortalUserRepo_GetByEmail(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"email", "password_hash", "inbox_id"}).
		AddRow("dasher@example.com", "hash", "inbox-1")

	mock.ExpectQuery("SELECT (.+) FROM portal_users WHERE email").
		WithArgs("dasher@example.com").
		WillReturnRows(rows)

	repo := NewPortalUserRepo(db)
	cred, err := repo.GetByEmail(context.Background(), "dasher@example.com")
	require.NoError(t, err)
	assert.Equal(t, "inbox-1", cred.InboxID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPortalUserRepo_GetByEmail_NotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM portal_users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	repo := NewPortalUserRepo(db)
	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsKind(err, repository.KindNotFound))
}
