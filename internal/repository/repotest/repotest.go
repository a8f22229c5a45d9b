// Package repotest provides in-memory implementations of the
// repository interfaces for use in package tests across the module.
package repotest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/repository"
)

// InboxRepo is an in-memory repository.InboxRepository.
type InboxRepo struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Inbox
	history map[string][]domain.StageHistoryEntry
}

func NewInboxRepo() *InboxRepo {
	return &InboxRepo{
		byID:    make(map[string]*domain.Inbox),
		history: make(map[string][]domain.StageHistoryEntry),
	}
}

func (r *InboxRepo) List(_ context.Context) ([]domain.Inbox, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Inbox, 0, len(r.byID))
	for _, inbox := range r.byID {
		out = append(out, *inbox)
	}
	return out, nil
}

func (r *InboxRepo) GetByEmail(_ context.Context, email string) (domain.Inbox, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inbox := range r.byID {
		if strings.EqualFold(inbox.Email, email) {
			return *inbox, nil
		}
	}
	return domain.Inbox{}, repository.NewError("get_by_email", repository.KindNotFound, nil)
}

func (r *InboxRepo) GetByProviderID(_ context.Context, providerID string) (domain.Inbox, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inbox := range r.byID {
		if inbox.ProviderID == providerID {
			return *inbox, nil
		}
	}
	return domain.Inbox{}, repository.NewError("get_by_provider_id", repository.KindNotFound, nil)
}

func (r *InboxRepo) Create(_ context.Context, inbox *domain.Inbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inbox.ID == "" {
		inbox.ID = uuid.New().String()
	}
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Email, inbox.Email) {
			return repository.NewError("create", repository.KindConflict, nil)
		}
	}
	cp := *inbox
	r.byID[inbox.ID] = &cp
	return nil
}

func (r *InboxRepo) UpdateStage(_ context.Context, inboxID string, stage domain.Stage, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inbox, ok := r.byID[inboxID]
	if !ok {
		return repository.NewError("update_stage", repository.KindNotFound, nil)
	}
	inbox.Stage = stage
	inbox.StageUpdatedAt = at
	return nil
}

func (r *InboxRepo) UpdateLastScanned(_ context.Context, inboxID string, at time.Time, scanErr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inbox, ok := r.byID[inboxID]
	if !ok {
		return repository.NewError("update_last_scanned", repository.KindNotFound, nil)
	}
	inbox.LastScannedAt = at
	inbox.ScanError = scanErr
	return nil
}

func (r *InboxRepo) AppendStageHistory(_ context.Context, entry *domain.StageHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	r.history[entry.InboxID] = append(r.history[entry.InboxID], *entry)
	return nil
}

func (r *InboxRepo) StageHistory(_ context.Context, inboxID string) ([]domain.StageHistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.StageHistoryEntry, len(r.history[inboxID]))
	copy(out, r.history[inboxID])
	return out, nil
}

// ClassificationRepo is an in-memory repository.ClassificationRepository.
type ClassificationRepo struct {
	mu   sync.RWMutex
	data map[string]domain.Classification // keyed by inboxID+"|"+messageID
}

func NewClassificationRepo() *ClassificationRepo {
	return &ClassificationRepo{data: make(map[string]domain.Classification)}
}

func (r *ClassificationRepo) key(inboxID, messageID string) string {
	return inboxID + "|" + messageID
}

func (r *ClassificationRepo) Upsert(_ context.Context, cl *domain.Classification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[r.key(cl.InboxID, cl.MessageID)] = *cl
	return nil
}

func (r *ClassificationRepo) GetByIDs(_ context.Context, inboxID string, messageIDs []string) (map[string]domain.Classification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]domain.Classification)
	for _, id := range messageIDs {
		if cl, ok := r.data[r.key(inboxID, id)]; ok {
			out[id] = cl
		}
	}
	return out, nil
}

func (r *ClassificationRepo) Recent(_ context.Context, inboxID string, limit int) ([]domain.Classification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Classification
	prefix := inboxID + "|"
	for k, cl := range r.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, cl)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AlertRepo is an in-memory repository.AlertRepository.
type AlertRepo struct {
	mu   sync.RWMutex
	data map[string]*domain.Alert
}

func NewAlertRepo() *AlertRepo {
	return &AlertRepo{data: make(map[string]*domain.Alert)}
}

func (r *AlertRepo) Create(_ context.Context, alert *domain.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	cp := *alert
	r.data[alert.ID] = &cp
	return nil
}

func (r *AlertRepo) List(_ context.Context, inboxID string, unreadOnly bool) ([]domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Alert
	for _, a := range r.data {
		if a.InboxID != inboxID {
			continue
		}
		if unreadOnly && a.Read {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *AlertRepo) MarkRead(_ context.Context, alertID, readerID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.data[alertID]
	if !ok {
		return repository.NewError("mark_read", repository.KindNotFound, nil)
	}
	a.Read = true
	a.ReaderID = readerID
	a.ReadAt = &at
	return nil
}

// ScanLogRepo is an in-memory repository.ScanLogRepository.
type ScanLogRepo struct {
	mu   sync.RWMutex
	data map[string]*domain.ScanLog
	last string
}

func NewScanLogRepo() *ScanLogRepo {
	return &ScanLogRepo{data: make(map[string]*domain.ScanLog)}
}

func (r *ScanLogRepo) Start(_ context.Context, log *domain.ScanLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	cp := *log
	r.data[log.ID] = &cp
	r.last = log.ID
	return nil
}

func (r *ScanLogRepo) UpdateProgress(_ context.Context, scanID string, scanned, errs, transitions int, currentAccount string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log, ok := r.data[scanID]
	if !ok {
		return repository.NewError("update_progress", repository.KindNotFound, nil)
	}
	log.Scanned = scanned
	log.Errors = errs
	log.Transitions = transitions
	log.CurrentAccount = currentAccount
	return nil
}

func (r *ScanLogRepo) Finish(_ context.Context, scanID string, status domain.ScanStatus, errDetails string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log, ok := r.data[scanID]
	if !ok {
		return repository.NewError("finish", repository.KindNotFound, nil)
	}
	log.Status = status
	log.ErrorDetails = errDetails
	log.FinishedAt = &at
	return nil
}

func (r *ScanLogRepo) Latest(_ context.Context) (domain.ScanLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == "" {
		return domain.ScanLog{}, repository.NewError("latest", repository.KindNotFound, nil)
	}
	return *r.data[r.last], nil
}

// PortalUserRepo is an in-memory repository.PortalUserRepository.
type PortalUserRepo struct {
	mu   sync.RWMutex
	data map[string]domain.PortalCredential
}

func NewPortalUserRepo() *PortalUserRepo {
	return &PortalUserRepo{data: make(map[string]domain.PortalCredential)}
}

func (r *PortalUserRepo) Create(_ context.Context, cred *domain.PortalCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[strings.ToLower(cred.Email)] = *cred
	return nil
}

func (r *PortalUserRepo) GetByEmail(_ context.Context, email string) (domain.PortalCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.data[strings.ToLower(email)]
	if !ok {
		return domain.PortalCredential{}, repository.NewError("get_by_email", repository.KindNotFound, nil)
	}
	return cred, nil
}

var (
	_ repository.InboxRepository          = (*InboxRepo)(nil)
	_ repository.ClassificationRepository = (*ClassificationRepo)(nil)
	_ repository.AlertRepository          = (*AlertRepo)(nil)
	_ repository.ScanLogRepository        = (*ScanLogRepo)(nil)
	_ repository.PortalUserRepository     = (*PortalUserRepo)(nil)
)
