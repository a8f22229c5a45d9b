package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/repository"
)

// AlertRepo implements repository.AlertRepository against PostgreSQL.
type AlertRepo struct{ db *sql.DB }

func NewAlertRepo(db *sql.DB) *AlertRepo { return &AlertRepo{db: db} }

func (r *AlertRepo) Create(ctx context.Context, alert *domain.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (id, inbox_id, alert_type, severity, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, alert.ID, alert.InboxID, alert.AlertType, alert.Severity, alert.Title, alert.Message, alert.Read, alert.CreatedAt)
	if err != nil {
		return repository.NewError("alert.Create", repository.KindTransient, err)
	}
	return nil
}

func (r *AlertRepo) List(ctx context.Context, inboxID string, unreadOnly bool) ([]domain.Alert, error) {
	query := `SELECT id, inbox_id, alert_type, severity, title, message, read, reader_id, read_at, created_at
		FROM alerts WHERE inbox_id = $1`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, inboxID)
	if err != nil {
		return nil, repository.NewError("alert.List", repository.KindTransient, err)
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		var a domain.Alert
		var readerID sql.NullString
		var readAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.InboxID, &a.AlertType, &a.Severity, &a.Title, &a.Message,
			&a.Read, &readerID, &readAt, &a.CreatedAt); err != nil {
			return nil, repository.NewError("alert.List", repository.KindTransient, err)
		}
		a.ReaderID = readerID.String
		if readAt.Valid {
			t := readAt.Time
			a.ReadAt = &t
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AlertRepo) MarkRead(ctx context.Context, alertID, readerID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE alerts SET read = true, reader_id = $1, read_at = $2 WHERE id = $3
	`, readerID, at, alertID)
	if err != nil {
		return repository.NewError("alert.MarkRead", repository.KindTransient, err)
	}
	return requireOneRow(res, "alert.MarkRead")
}
