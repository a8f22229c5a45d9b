package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/repository"
)

// InboxRepo implements repository.InboxRepository against PostgreSQL.
type InboxRepo struct{ db *sql.DB }

// NewInboxRepo creates a Postgres-backed inbox repository.
func NewInboxRepo(db *sql.DB) *InboxRepo { return &InboxRepo{db: db} }

func scanInbox(row interface {
	Scan(dest ...interface{}) error
}) (domain.Inbox, error) {
	var i domain.Inbox
	var firstName, lastName, scanError sql.NullString
	var lastScannedAt sql.NullTime
	err := row.Scan(
		&i.ID, &i.ProviderID, &i.Email, &firstName, &lastName,
		&i.Stage, &i.StageUpdatedAt, &lastScannedAt, &scanError,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return domain.Inbox{}, err
	}
	i.FirstName = firstName.String
	i.LastName = lastName.String
	i.ScanError = scanError.String
	if lastScannedAt.Valid {
		i.LastScannedAt = lastScannedAt.Time
	}
	return i, nil
}

const inboxColumns = `id, provider_id, email, first_name, last_name,
	stage, stage_updated_at, last_scanned_at, scan_error, created_at, updated_at`

func (r *InboxRepo) List(ctx context.Context) ([]domain.Inbox, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+inboxColumns+` FROM inboxes ORDER BY email`)
	if err != nil {
		return nil, repository.NewError("inbox.List", repository.KindTransient, err)
	}
	defer rows.Close()

	var out []domain.Inbox
	for rows.Next() {
		i, err := scanInbox(rows)
		if err != nil {
			return nil, repository.NewError("inbox.List", repository.KindTransient, err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *InboxRepo) GetByEmail(ctx context.Context, email string) (domain.Inbox, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+inboxColumns+` FROM inboxes WHERE email = $1`, email)
	i, err := scanInbox(row)
	if err == sql.ErrNoRows {
		return domain.Inbox{}, repository.NewError("inbox.GetByEmail", repository.KindNotFound, err)
	}
	if err != nil {
		return domain.Inbox{}, repository.NewError("inbox.GetByEmail", repository.KindTransient, err)
	}
	return i, nil
}

func (r *InboxRepo) GetByProviderID(ctx context.Context, providerID string) (domain.Inbox, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+inboxColumns+` FROM inboxes WHERE provider_id = $1`, providerID)
	i, err := scanInbox(row)
	if err == sql.ErrNoRows {
		return domain.Inbox{}, repository.NewError("inbox.GetByProviderID", repository.KindNotFound, err)
	}
	if err != nil {
		return domain.Inbox{}, repository.NewError("inbox.GetByProviderID", repository.KindTransient, err)
	}
	return i, nil
}

func (r *InboxRepo) Create(ctx context.Context, inbox *domain.Inbox) error {
	if inbox.ID == "" {
		inbox.ID = uuid.NewString()
	}
	now := time.Now()
	inbox.CreatedAt = now
	inbox.UpdatedAt = now
	if inbox.Stage == "" {
		inbox.Stage = domain.StageRegistered
	}
	inbox.StageUpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inboxes (id, provider_id, email, first_name, last_name, stage, stage_updated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, inbox.ID, inbox.ProviderID, inbox.Email, inbox.FirstName, inbox.LastName,
		inbox.Stage, inbox.StageUpdatedAt, inbox.CreatedAt, inbox.UpdatedAt)
	if err != nil {
		return repository.NewError("inbox.Create", repository.KindConflict, err)
	}
	return nil
}

func (r *InboxRepo) UpdateStage(ctx context.Context, inboxID string, stage domain.Stage, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE inboxes SET stage = $1, stage_updated_at = $2, last_scanned_at = $2, updated_at = $2
		WHERE id = $3
	`, stage, at, inboxID)
	if err != nil {
		return repository.NewError("inbox.UpdateStage", repository.KindTransient, err)
	}
	return requireOneRow(res, "inbox.UpdateStage")
}

func (r *InboxRepo) UpdateLastScanned(ctx context.Context, inboxID string, at time.Time, scanErr string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE inboxes SET last_scanned_at = $1, scan_error = $2, updated_at = $1
		WHERE id = $3
	`, at, scanErr, inboxID)
	if err != nil {
		return repository.NewError("inbox.UpdateLastScanned", repository.KindTransient, err)
	}
	return requireOneRow(res, "inbox.UpdateLastScanned")
}

func (r *InboxRepo) AppendStageHistory(ctx context.Context, entry *domain.StageHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stage_history (id, inbox_id, old_stage, new_stage, trigger_subject, trigger_date, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.InboxID, entry.OldStage, entry.NewStage, entry.TriggerSubject, entry.TriggerDate, entry.RecordedAt)
	if err != nil {
		return repository.NewError("inbox.AppendStageHistory", repository.KindTransient, err)
	}
	return nil
}

func (r *InboxRepo) StageHistory(ctx context.Context, inboxID string) ([]domain.StageHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, inbox_id, old_stage, new_stage, trigger_subject, trigger_date, recorded_at
		FROM stage_history WHERE inbox_id = $1 ORDER BY recorded_at
	`, inboxID)
	if err != nil {
		return nil, repository.NewError("inbox.StageHistory", repository.KindTransient, err)
	}
	defer rows.Close()

	var out []domain.StageHistoryEntry
	for rows.Next() {
		var e domain.StageHistoryEntry
		var triggerSubject sql.NullString
		var triggerDate sql.NullTime
		if err := rows.Scan(&e.ID, &e.InboxID, &e.OldStage, &e.NewStage, &triggerSubject, &triggerDate, &e.RecordedAt); err != nil {
			return nil, repository.NewError("inbox.StageHistory", repository.KindTransient, err)
		}
		e.TriggerSubject = triggerSubject.String
		if triggerDate.Valid {
			e.TriggerDate = triggerDate.Time
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func requireOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return repository.NewError(op, repository.KindTransient, err)
	}
	if n == 0 {
		return repository.NewError(op, repository.KindNotFound, fmt.Errorf("no rows affected"))
	}
	return nil
}
