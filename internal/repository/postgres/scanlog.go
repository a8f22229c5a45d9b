package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/repository"
)

// ScanLogRepo implements repository.ScanLogRepository against PostgreSQL.
type ScanLogRepo struct{ db *sql.DB }

func NewScanLogRepo(db *sql.DB) *ScanLogRepo { return &ScanLogRepo{db: db} }

func (r *ScanLogRepo) Start(ctx context.Context, log *domain.ScanLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.StartedAt.IsZero() {
		log.StartedAt = time.Now()
	}
	log.Status = domain.ScanRunning

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_logs (id, status, started_at, total_accounts)
		VALUES ($1, $2, $3, $4)
	`, log.ID, log.Status, log.StartedAt, log.TotalAccounts)
	if err != nil {
		return repository.NewError("scanlog.Start", repository.KindTransient, err)
	}
	return nil
}

func (r *ScanLogRepo) UpdateProgress(ctx context.Context, scanID string, scanned, errs, transitions int, currentAccount string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scan_logs SET scanned = $1, errors = $2, transitions = $3, current_account = $4
		WHERE id = $5
	`, scanned, errs, transitions, currentAccount, scanID)
	if err != nil {
		return repository.NewError("scanlog.UpdateProgress", repository.KindTransient, err)
	}
	return requireOneRow(res, "scanlog.UpdateProgress")
}

func (r *ScanLogRepo) Finish(ctx context.Context, scanID string, status domain.ScanStatus, errDetails string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE scan_logs SET status = $1, finished_at = $2, error_details = $3
		WHERE id = $4
	`, status, at, errDetails, scanID)
	if err != nil {
		return repository.NewError("scanlog.Finish", repository.KindTransient, err)
	}
	return requireOneRow(res, "scanlog.Finish")
}

func (r *ScanLogRepo) Latest(ctx context.Context) (domain.ScanLog, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, status, started_at, finished_at, total_accounts, scanned, errors, transitions,
			COALESCE(current_account, ''), COALESCE(error_details, '')
		FROM scan_logs ORDER BY started_at DESC LIMIT 1
	`)

	var l domain.ScanLog
	var finishedAt sql.NullTime
	err := row.Scan(&l.ID, &l.Status, &l.StartedAt, &finishedAt, &l.TotalAccounts,
		&l.Scanned, &l.Errors, &l.Transitions, &l.CurrentAccount, &l.ErrorDetails)
	if err == sql.ErrNoRows {
		return domain.ScanLog{}, repository.NewError("scanlog.Latest", repository.KindNotFound, err)
	}
	if err != nil {
		return domain.ScanLog{}, repository.NewError("scanlog.Latest", repository.KindTransient, err)
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		l.FinishedAt = &t
	}
	return l, nil
}
