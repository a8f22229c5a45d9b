// Package scanner runs one full sweep of the monitored fleet: it
// reconciles the mail provider's account roster against the inbox
// repository (provisioning a portal credential for anything new), then
// walks every tracked inbox in bounded batches, re-deriving its lifecycle
// stage and dispatching its recent messages through the classification
// pipeline. A distributed lock keeps two scans from running concurrently
// across replicas.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/fleetwatch/internal/domain"
	"github.com/ignite/fleetwatch/internal/eventbus"
	"github.com/ignite/fleetwatch/internal/mailprovider"
	"github.com/ignite/fleetwatch/internal/nameextractor"
	"github.com/ignite/fleetwatch/internal/pipeline"
	"github.com/ignite/fleetwatch/internal/pkg/distlock"
	"github.com/ignite/fleetwatch/internal/pkg/logger"
	"github.com/ignite/fleetwatch/internal/repository"
	"github.com/ignite/fleetwatch/internal/stagedetector"
	"github.com/ignite/fleetwatch/internal/templatecache"
)

// BatchSize mirrors the Python scanner's BATCH_SIZE: how many inboxes are
// scanned concurrently before the scan log's progress counters are
// updated.
const BatchSize = 10

// RecentMessageLimit bounds how many of an inbox's newest messages are
// sent through the classification pipeline per scan.
const RecentMessageLimit = 20

// nameExtractionTimeout bounds the best-effort name-guessing step so one
// slow inbox can't stall reconciliation.
const nameExtractionTimeout = 5 * time.Second

// alertRules maps a (category, sub_category) classification pair to the
// alert it should raise, mirroring the Python scanner's ALERT_CATEGORIES.
var alertRules = map[[2]string]struct {
	alertType string
	severity  domain.Severity
}{
	{"account", "deactivation"}:        {"deactivation", domain.SeverityCritical},
	{"warning", "contract_violation"}:  {"contract_violation", domain.SeverityCritical},
	{"warning", "low_rating_warning"}:  {"low_rating", domain.SeverityWarning},
}

// Orchestrator wires the mail provider, persistence, classification
// pipeline, and event bus together into one scan operation.
type Orchestrator struct {
	mail            *mailprovider.Client
	inboxes         repository.InboxRepository
	portalUsers     repository.PortalUserRepository
	classifications repository.ClassificationRepository
	alerts          repository.AlertRepository
	scanLogs        repository.ScanLogRepository
	pipeline        *pipeline.Pipeline
	bus             *eventbus.Bus
	lock            distlock.DistLock
	batchSize       int
}

func New(
	mail *mailprovider.Client,
	inboxes repository.InboxRepository,
	portalUsers repository.PortalUserRepository,
	classifications repository.ClassificationRepository,
	alerts repository.AlertRepository,
	scanLogs repository.ScanLogRepository,
	pl *pipeline.Pipeline,
	bus *eventbus.Bus,
	lock distlock.DistLock,
	batchSize int,
) *Orchestrator {
	if batchSize <= 0 {
		batchSize = BatchSize
	}
	return &Orchestrator{
		mail:            mail,
		inboxes:         inboxes,
		portalUsers:     portalUsers,
		classifications: classifications,
		alerts:          alerts,
		scanLogs:        scanLogs,
		pipeline:        pl,
		bus:             bus,
		lock:            lock,
		batchSize:       batchSize,
	}
}

// batchOutcome is what one inbox's scan contributed to the scan-wide
// counters.
type batchOutcome struct {
	transitioned bool
	err          error
	email        string
}

// RunScan performs one full sweep. It acquires the distributed lock first
// and returns immediately (with a nil error and a zero ScanLog) if another
// process already holds it, matching the spec's at-most-one-scan-in-
// flight requirement.
func (o *Orchestrator) RunScan(ctx context.Context) (domain.ScanLog, error) {
	acquired, err := o.lock.Acquire(ctx)
	if err != nil {
		return domain.ScanLog{}, fmt.Errorf("scanner: acquire lock: %w", err)
	}
	if !acquired {
		logger.Info("scanner: scan already in progress, skipping")
		return domain.ScanLog{}, nil
	}
	defer func() {
		if err := o.lock.Release(ctx); err != nil {
			logger.Error("scanner: release lock failed", "error", err)
		}
	}()

	scanLog := domain.ScanLog{ID: uuid.New().String(), Status: domain.ScanRunning, StartedAt: time.Now()}
	if err := o.scanLogs.Start(ctx, &scanLog); err != nil {
		return domain.ScanLog{}, fmt.Errorf("scanner: start scan log: %w", err)
	}

	accounts, err := o.mail.ListAccounts(ctx)
	if err != nil {
		o.finishFailed(ctx, scanLog.ID, 0, 0, err)
		return domain.ScanLog{}, fmt.Errorf("scanner: list accounts: %w", err)
	}

	if err := o.reconcile(ctx, accounts); err != nil {
		logger.Error("scanner: reconciliation error", "error", err)
	}

	if err := o.scanLogs.UpdateProgress(ctx, scanLog.ID, 0, 0, 0, ""); err != nil {
		logger.Error("scanner: update total accounts failed", "error", err)
	}

	inboxes, err := o.inboxes.List(ctx)
	if err != nil {
		o.finishFailed(ctx, scanLog.ID, 0, 0, err)
		return domain.ScanLog{}, fmt.Errorf("scanner: list inboxes: %w", err)
	}

	accountsByProviderID := make(map[string]mailprovider.Account, len(accounts))
	for _, acc := range accounts {
		accountsByProviderID[acc.ID] = acc
	}

	cache := templatecache.New()
	var scanned, transitions, errCount int

	for start := 0; start < len(inboxes); start += o.batchSize {
		end := start + o.batchSize
		if end > len(inboxes) {
			end = len(inboxes)
		}
		batch := inboxes[start:end]

		if err := o.scanLogs.UpdateProgress(ctx, scanLog.ID, scanned, errCount, transitions, batch[0].Email); err != nil {
			logger.Error("scanner: update progress failed", "error", err)
		}

		outcomes := o.scanBatch(ctx, batch, accountsByProviderID, cache)
		for _, outcome := range outcomes {
			if outcome.err != nil {
				errCount++
				logger.Error("scanner: scan failed", "email", outcome.email, "error", outcome.err)
				continue
			}
			scanned++
			if outcome.transitioned {
				transitions++
			}
		}
	}

	finishedAt := time.Now()
	status := domain.ScanCompleted
	if errCount > 0 && scanned == 0 {
		status = domain.ScanFailed
	}
	if err := o.scanLogs.Finish(ctx, scanLog.ID, status, "", finishedAt); err != nil {
		logger.Error("scanner: finish scan log failed", "error", err)
	}

	scanLog.Status = status
	scanLog.Scanned = scanned
	scanLog.Errors = errCount
	scanLog.Transitions = transitions
	scanLog.FinishedAt = &finishedAt
	return scanLog, nil
}

func (o *Orchestrator) finishFailed(ctx context.Context, scanID string, scanned, transitions int, cause error) {
	at := time.Now()
	if err := o.scanLogs.Finish(ctx, scanID, domain.ScanFailed, cause.Error(), at); err != nil {
		logger.Error("scanner: finish failed scan log failed", "error", err)
	}
}

// mailboxIDs returns the subset of an account's well-known folders
// (inbox, trash, junk) that the provider actually exposes.
func mailboxIDs(acc mailprovider.Account) []string {
	var ids []string
	if acc.InboxID != "" {
		ids = append(ids, acc.InboxID)
	}
	if acc.TrashID != "" {
		ids = append(ids, acc.TrashID)
	}
	if acc.JunkID != "" {
		ids = append(ids, acc.JunkID)
	}
	return ids
}

// scanOneInbox is the per-inbox job (spec §4.7.1): fetch headers across the
// relevant mailboxes, re-derive the lifecycle stage, write a promotion if
// one occurred, and classify the most recent messages. A raised error is
// recorded to the inbox's scan_error and returned to the orchestrator,
// which counts it without aborting the batch.
func (o *Orchestrator) scanOneInbox(ctx context.Context, inbox domain.Inbox, acc mailprovider.Account, cache *templatecache.Cache) (bool, error) {
	ids := mailboxIDs(acc)
	if len(ids) == 0 {
		if err := o.inboxes.UpdateLastScanned(ctx, inbox.ID, time.Now(), ""); err != nil {
			return false, fmt.Errorf("update last scanned: %w", err)
		}
		return false, nil
	}

	headers, err := o.mail.ListAllHeaders(ctx, inbox.ProviderID, ids)
	if err != nil {
		o.recordScanError(ctx, inbox.ID, err)
		return false, fmt.Errorf("list headers: %w", err)
	}

	o.emitNewEmailEvents(ctx, inbox, headers)

	detected := stagedetector.Detect(toDetectorHeaders(headers))
	o.resolveBGCBodyChecks(ctx, &detected, inbox.ProviderID)

	transitioned := false
	if domain.PromotionAllowed(inbox.Stage, detected.Stage, detected.Reactivated) && detected.Stage != inbox.Stage {
		if err := o.writePromotion(ctx, inbox, detected); err != nil {
			o.recordScanError(ctx, inbox.ID, err)
			return false, fmt.Errorf("write promotion: %w", err)
		}
		transitioned = true
	} else {
		if err := o.inboxes.UpdateLastScanned(ctx, inbox.ID, time.Now(), ""); err != nil {
			return transitioned, fmt.Errorf("update last scanned: %w", err)
		}
	}

	if err := o.classifyRecent(ctx, inbox, headers, cache); err != nil {
		logger.Error("scanner: classification failed", "email", inbox.Email, "error", err)
	}

	return transitioned, nil
}

func (o *Orchestrator) recordScanError(ctx context.Context, inboxID string, cause error) {
	if err := o.inboxes.UpdateLastScanned(ctx, inboxID, time.Now(), cause.Error()); err != nil {
		logger.Error("scanner: failed to record scan error", "inbox_id", inboxID, "error", err)
	}
}

func toDetectorHeaders(messages []mailprovider.Message) []stagedetector.MessageHeader {
	out := make([]stagedetector.MessageHeader, len(messages))
	for i, m := range messages {
		out[i] = stagedetector.MessageHeader{ID: m.ID, Subject: m.Subject, From: m.Sender, Date: m.Date, MailboxID: m.MailboxID}
	}
	return out
}

// resolveBGCBodyChecks fetches the body of every tentative BGC_COMPLETE
// message the detector flagged and runs the deferred adverse-action test
// (spec §4.5.1). A match strictly promotes BGC_CLEAR to BGC_CONSIDER; it
// never demotes, so PromotionAllowed/Outranks naturally guards stages the
// detector already ranked above BGC_CONSIDER (e.g. a later ACTIVE signal).
func (o *Orchestrator) resolveBGCBodyChecks(ctx context.Context, detected *stagedetector.Result, accountID string) {
	for _, pending := range detected.NeedsBodyCheck {
		full, err := o.mail.GetMessage(ctx, accountID, pending.MailboxID, pending.ID)
		if err != nil {
			logger.Error("scanner: failed to fetch BGC message body", "message_id", pending.ID, "error", err)
			continue
		}
		body := full.HTML
		if body == "" {
			body = full.Text
		}
		stage, confidence := stagedetector.CheckBGCBodyWithConfidence(body)
		if stage == domain.StageBGCConsider && stage.Outranks(detected.Stage) {
			detected.Stage = stage
			detected.TriggerSubject = pending.Subject
			detected.TriggerDate = pending.Date
			detected.Confidence = confidence
		}
	}
}

// writePromotion persists a promotion: the inbox row, an append-only
// stage-history entry, an alert, and a stage-change event, in that order
// (spec §4.5.2).
func (o *Orchestrator) writePromotion(ctx context.Context, inbox domain.Inbox, detected stagedetector.Result) error {
	now := time.Now()
	if err := o.inboxes.UpdateStage(ctx, inbox.ID, detected.Stage, now); err != nil {
		return fmt.Errorf("update stage: %w", err)
	}

	entry := &domain.StageHistoryEntry{
		InboxID:        inbox.ID,
		OldStage:       inbox.Stage,
		NewStage:       detected.Stage,
		TriggerSubject: detected.TriggerSubject,
		TriggerDate:    detected.TriggerDate,
		RecordedAt:     now,
	}
	if err := o.inboxes.AppendStageHistory(ctx, entry); err != nil {
		return fmt.Errorf("append stage history: %w", err)
	}

	alert := &domain.Alert{
		InboxID:   inbox.ID,
		AlertType: domain.AlertTypeForStage(detected.Stage),
		Severity:  domain.SeverityForStage(detected.Stage),
		Title:     fmt.Sprintf("%s -> %s", inbox.Stage, detected.Stage),
		Message:   detected.TriggerSubject,
		CreatedAt: now,
	}
	if err := o.alerts.Create(ctx, alert); err != nil {
		logger.Error("scanner: failed to create promotion alert", "email", inbox.Email, "error", err)
	} else {
		o.bus.PublishAlert(*alert, now)
	}

	o.bus.PublishStageChange(inbox.Email, domain.StageChangeData{
		Email:    inbox.Email,
		OldStage: inbox.Stage,
		NewStage: detected.Stage,
	}, now)

	return nil
}

// emitNewEmailEvents resolves the spec §9 open question: new_email events
// are produced by diffing the fetched header id set against the ids
// already present in the classification repository for this inbox (the
// same batch lookup §4.6 performs), so any id not yet classified is, by
// construction, a message this scan has not seen before.
func (o *Orchestrator) emitNewEmailEvents(ctx context.Context, inbox domain.Inbox, headers []mailprovider.Message) {
	if len(headers) == 0 {
		return
	}
	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.ID
	}
	existing, err := o.classifications.GetByIDs(ctx, inbox.ID, ids)
	if err != nil {
		logger.Error("scanner: new_email diff lookup failed", "email", inbox.Email, "error", err)
		return
	}
	now := time.Now()
	for _, h := range headers {
		if _, seen := existing[h.ID]; seen {
			continue
		}
		o.bus.PublishNewEmail(inbox.Email, domain.NewEmailData{
			Email:   inbox.Email,
			Subject: h.Subject,
			From:    h.From,
		}, now)
	}
}

// classifyRecent picks the RecentMessageLimit newest headers and runs them
// through the classification pipeline, applying any category-driven alert
// rules (spec §3: "Created by scanner on specific classifications or stage
// events") to the results.
func (o *Orchestrator) classifyRecent(ctx context.Context, inbox domain.Inbox, headers []mailprovider.Message, cache *templatecache.Cache) error {
	recent := mostRecent(headers, RecentMessageLimit)
	msgs := make([]pipeline.Message, len(recent))
	for i, h := range recent {
		body := h.HTML
		if body == "" {
			body = h.Text
		}
		msgs[i] = pipeline.Message{ID: h.ID, Subject: h.Subject, Sender: h.Sender, Body: body}
	}

	results, err := o.pipeline.ClassifyBatch(ctx, inbox.ID, msgs, cache)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, cl := range results {
		rule, ok := alertRules[[2]string{cl.Category, cl.SubCategory}]
		if !ok {
			continue
		}
		alert := &domain.Alert{
			InboxID:   inbox.ID,
			AlertType: rule.alertType,
			Severity:  rule.severity,
			Title:     cl.Summary,
			Message:   cl.Summary,
			CreatedAt: now,
		}
		if err := o.alerts.Create(ctx, alert); err != nil {
			logger.Error("scanner: failed to create classification alert", "email", inbox.Email, "error", err)
			continue
		}
		o.bus.PublishAlert(*alert, now)
	}
	return nil
}

// mostRecent returns up to n of messages' newest entries by date,
// descending.
func mostRecent(messages []mailprovider.Message, n int) []mailprovider.Message {
	sorted := make([]mailprovider.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// scanBatch runs scanOneInbox for every inbox in the batch concurrently
// and collects their outcomes, mirroring asyncio.gather(return_exceptions=true).
func (o *Orchestrator) scanBatch(ctx context.Context, batch []domain.Inbox, accounts map[string]mailprovider.Account, cache *templatecache.Cache) []batchOutcome {
	outcomes := make([]batchOutcome, len(batch))
	var wg sync.WaitGroup
	for i, inbox := range batch {
		wg.Add(1)
		go func(i int, inbox domain.Inbox) {
			defer wg.Done()
			transitioned, err := o.scanOneInbox(ctx, inbox, accounts[inbox.ProviderID], cache)
			outcomes[i] = batchOutcome{transitioned: transitioned, err: err, email: inbox.Email}
		}(i, inbox)
	}
	wg.Wait()
	return outcomes
}

// reconcile inserts an inbox row (plus a portal credential) for every
// provider account the repository doesn't yet know about.
// Reconcile lists the mail provider's current accounts and registers any
// not yet tracked as an inbox, without running a full fleet scan. The
// auto-sync loop calls this on its own timer independently of RunScan
// (spec §4.10), so newly-provisioned accounts show up between scans.
func (o *Orchestrator) Reconcile(ctx context.Context) error {
	accounts, err := o.mail.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("scanner: list accounts: %w", err)
	}
	return o.reconcile(ctx, accounts)
}

func (o *Orchestrator) reconcile(ctx context.Context, accounts []mailprovider.Account) error {
	for _, acc := range accounts {
		if _, err := o.inboxes.GetByProviderID(ctx, acc.ID); err == nil {
			continue
		} else if !repository.IsKind(err, repository.KindNotFound) {
			return fmt.Errorf("scanner: lookup provider id %s: %w", acc.ID, err)
		}

		inbox := domain.Inbox{
			ProviderID: acc.ID,
			Email:      acc.Email,
			Stage:      domain.StageRegistered,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}

		if names, ok := o.bestEffortExtractNames(ctx, acc); ok {
			inbox.FirstName = names.FirstName
			inbox.LastName = names.LastName
		}

		if err := o.inboxes.Create(ctx, &inbox); err != nil {
			return fmt.Errorf("scanner: create inbox for %s: %w", acc.Email, err)
		}

		if err := o.provisionPortalCredential(ctx, inbox); err != nil {
			logger.Error("scanner: portal provisioning failed", "email", acc.Email, "error", err)
		}
	}
	return nil
}

// bestEffortExtractNames fetches a handful of the account's newest inbox
// messages and runs nameextractor over their bodies, bounded by
// nameExtractionTimeout so one slow account never stalls reconciliation.
func (o *Orchestrator) bestEffortExtractNames(ctx context.Context, acc mailprovider.Account) (nameextractor.Result, bool) {
	if acc.InboxID == "" {
		return nameextractor.Result{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, nameExtractionTimeout)
	defer cancel()

	type outcome struct {
		result nameextractor.Result
		ok     bool
	}
	done := make(chan outcome, 1)

	go func() {
		messages, _, err := o.mail.ListMessages(ctx, acc.ID, acc.InboxID, 1, 5)
		if err != nil {
			done <- outcome{}
			return
		}
		bodies := make([]string, 0, len(messages))
		for _, m := range messages {
			full, err := o.mail.GetMessage(ctx, acc.ID, acc.InboxID, m.ID)
			if err != nil {
				continue
			}
			body := full.HTML
			if body == "" {
				body = full.Text
			}
			bodies = append(bodies, body)
		}
		res, ok := nameextractor.Extract(acc.Email, bodies)
		done <- outcome{result: res, ok: ok}
	}()

	select {
	case out := <-done:
		return out.result, out.ok
	case <-ctx.Done():
		logger.Warn("scanner: name extraction timed out", "email", acc.Email)
		return nameextractor.Result{}, false
	}
}

func (o *Orchestrator) provisionPortalCredential(ctx context.Context, inbox domain.Inbox) error {
	if _, err := o.portalUsers.GetByEmail(ctx, inbox.Email); err == nil {
		return nil
	} else if !repository.IsKind(err, repository.KindNotFound) {
		return fmt.Errorf("lookup portal user: %w", err)
	}

	password, err := generatePassword()
	if err != nil {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	cred := domain.PortalCredential{Email: inbox.Email, PasswordHash: hash, InboxID: inbox.ID}
	if err := o.portalUsers.Create(ctx, &cred); err != nil {
		return fmt.Errorf("create portal user: %w", err)
	}

	if err := o.mail.UpdatePassword(ctx, inbox.ProviderID, password); err != nil {
		logger.Error("scanner: failed to sync portal password to mail provider", "email", inbox.Email, "error", err)
	}
	return nil
}
