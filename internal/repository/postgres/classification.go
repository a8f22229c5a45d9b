package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/repository"
)

// ClassificationRepo implements repository.ClassificationRepository against
// PostgreSQL, upserting on the (inbox_id, message_id) unique pair.
type ClassificationRepo struct{ db *sql.DB }

func NewClassificationRepo(db *sql.DB) *ClassificationRepo { return &ClassificationRepo{db: db} }

func (r *ClassificationRepo) Upsert(ctx context.Context, cl *domain.Classification) error {
	if cl.CreatedAt.IsZero() {
		cl.CreatedAt = time.Now()
	}
	keyDetails, err := json.Marshal(cl.KeyDetails)
	if err != nil {
		return repository.NewError("classification.Upsert", repository.KindPermanent, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO classifications (inbox_id, message_id, category, sub_category, confidence,
			source, summary, urgency, action_required, key_details, raw_ai_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (inbox_id, message_id) DO UPDATE SET
			category = EXCLUDED.category, sub_category = EXCLUDED.sub_category,
			confidence = EXCLUDED.confidence, source = EXCLUDED.source,
			summary = EXCLUDED.summary, urgency = EXCLUDED.urgency,
			action_required = EXCLUDED.action_required, key_details = EXCLUDED.key_details,
			raw_ai_payload = EXCLUDED.raw_ai_payload, created_at = EXCLUDED.created_at
	`, cl.InboxID, cl.MessageID, cl.Category, cl.SubCategory, cl.Confidence,
		cl.Source, cl.Summary, cl.Urgency, cl.ActionRequired, keyDetails, cl.RawAIPayload, cl.CreatedAt)
	if err != nil {
		return repository.NewError("classification.Upsert", repository.KindTransient, err)
	}
	return nil
}

func (r *ClassificationRepo) GetByIDs(ctx context.Context, inboxID string, messageIDs []string) (map[string]domain.Classification, error) {
	out := make(map[string]domain.Classification)
	if len(messageIDs) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(messageIDs))
	args := make([]interface{}, 0, len(messageIDs)+1)
	args = append(args, inboxID)
	for i, id := range messageIDs {
		placeholders[i] = "$" + strconv.Itoa(i+2)
		args = append(args, id)
	}

	query := `
		SELECT inbox_id, message_id, category, sub_category, confidence, source,
			summary, urgency, action_required, key_details, raw_ai_payload, created_at
		FROM classifications
		WHERE inbox_id = $1 AND message_id IN (` + strings.Join(placeholders, ",") + `)
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, repository.NewError("classification.GetByIDs", repository.KindTransient, err)
	}
	defer rows.Close()

	for rows.Next() {
		cl, err := scanClassification(rows)
		if err != nil {
			return nil, repository.NewError("classification.GetByIDs", repository.KindTransient, err)
		}
		out[cl.MessageID] = cl
	}
	return out, rows.Err()
}

func (r *ClassificationRepo) Recent(ctx context.Context, inboxID string, limit int) ([]domain.Classification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT inbox_id, message_id, category, sub_category, confidence, source,
			summary, urgency, action_required, key_details, raw_ai_payload, created_at
		FROM classifications
		WHERE inbox_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, inboxID, limit)
	if err != nil {
		return nil, repository.NewError("classification.Recent", repository.KindTransient, err)
	}
	defer rows.Close()

	var out []domain.Classification
	for rows.Next() {
		cl, err := scanClassification(rows)
		if err != nil {
			return nil, repository.NewError("classification.Recent", repository.KindTransient, err)
		}
		out = append(out, cl)
	}
	return out, rows.Err()
}

func scanClassification(rows *sql.Rows) (domain.Classification, error) {
	var cl domain.Classification
	var keyDetails []byte
	var rawAIPayload sql.NullString
	if err := rows.Scan(
		&cl.InboxID, &cl.MessageID, &cl.Category, &cl.SubCategory, &cl.Confidence,
		&cl.Source, &cl.Summary, &cl.Urgency, &cl.ActionRequired, &keyDetails, &rawAIPayload, &cl.CreatedAt,
	); err != nil {
		return domain.Classification{}, err
	}
	cl.RawAIPayload = rawAIPayload.String
	if len(keyDetails) > 0 {
		_ = json.Unmarshal(keyDetails, &cl.KeyDetails)
	}
	return cl, nil
}
