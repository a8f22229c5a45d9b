package postgres

import (
	"context"
	"database/sql"

	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/repository"
)

// PortalUserRepo implements repository.PortalUserRepository against
// PostgreSQL.
type PortalUserRepo struct{ db *sql.DB }

func NewPortalUserRepo(db *sql.DB) *PortalUserRepo { return &PortalUserRepo{db: db} }

func (r *PortalUserRepo) Create(ctx context.Context, cred *domain.PortalCredential) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO portal_users (email, password_hash, inbox_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
	`, cred.Email, cred.PasswordHash, cred.InboxID)
	if err != nil {
		return repository.NewError("portaluser.Create", repository.KindTransient, err)
	}
	return nil
}

func (r *PortalUserRepo) GetByEmail(ctx context.Context, email string) (domain.PortalCredential, error) {
	var cred domain.PortalCredential
	err := r.db.QueryRowContext(ctx, `
		SELECT email, password_hash, inbox_id FROM portal_users WHERE email = $1
	`, email).Scan(&cred.Email, &cred.PasswordHash, &cred.InboxID)
	if err == sql.ErrNoRows {
		return domain.PortalCredential{}, repository.NewError("portaluser.GetByEmail", repository.KindNotFound, err)
	}
	if err != nil {
		return domain.PortalCredential{}, repository.NewError("portaluser.GetByEmail", repository.KindTransient, err)
	}
	return cred, nil
}
