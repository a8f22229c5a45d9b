// Package repository defines the narrow persistence contracts the
// scanner, pipeline, and API depend on. Concrete adapters live in
// subpackages (postgres for production, repotest for an in-memory mock
// used across the test suite).
package repository

import (
	"context"
	"time"

	"github.com/ignite/fleetwatch/internal/domain"
)

// InboxRepository owns the tracked-inbox roster and its stage history.
type InboxRepository interface {
	List(ctx context.Context) ([]domain.Inbox, error)
	GetByEmail(ctx context.Context, email string) (domain.Inbox, error)
	GetByProviderID(ctx context.Context, providerID string) (domain.Inbox, error)
	Create(ctx context.Context, inbox *domain.Inbox) error
	UpdateStage(ctx context.Context, inboxID string, stage domain.Stage, at time.Time) error
	UpdateLastScanned(ctx context.Context, inboxID string, at time.Time, scanErr string) error
	AppendStageHistory(ctx context.Context, entry *domain.StageHistoryEntry) error
	StageHistory(ctx context.Context, inboxID string) ([]domain.StageHistoryEntry, error)
}

// ClassificationRepository persists per-message classification results and
// supports the batch lookups the pipeline needs to skip already-classified
// messages and to diff for newly-seen message ids.
type ClassificationRepository interface {
	Upsert(ctx context.Context, cl *domain.Classification) error
	GetByIDs(ctx context.Context, inboxID string, messageIDs []string) (map[string]domain.Classification, error)
	Recent(ctx context.Context, inboxID string, limit int) ([]domain.Classification, error)
}

// AlertRepository owns operator-facing alerts raised on stage promotions.
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	List(ctx context.Context, inboxID string, unreadOnly bool) ([]domain.Alert, error)
	MarkRead(ctx context.Context, alertID, readerID string, at time.Time) error
}

// ScanLogRepository tracks scan-run progress for operator visibility.
type ScanLogRepository interface {
	Start(ctx context.Context, log *domain.ScanLog) error
	UpdateProgress(ctx context.Context, scanID string, scanned, errs, transitions int, currentAccount string) error
	Finish(ctx context.Context, scanID string, status domain.ScanStatus, errDetails string, at time.Time) error
	Latest(ctx context.Context) (domain.ScanLog, error)
}

// PortalUserRepository owns per-inbox portal credentials provisioned on
// inbox discovery.
type PortalUserRepository interface {
	Create(ctx context.Context, cred *domain.PortalCredential) error
	GetByEmail(ctx context.Context, email string) (domain.PortalCredential, error)
}
