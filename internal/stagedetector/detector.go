// Package stagedetector implements the priority-ranked finite-state
// machine that derives an inbox's lifecycle stage from its message
// history: DEACTIVATED > ACTIVE > BGC_CONSIDER > BGC_CLEAR > BGC_PENDING
// > IDENTITY_VERIFIED > REGISTERED. It is pure and synchronous — no I/O,
// no network calls — so the scanner can run it directly over a batch of
// fetched headers.
package stagedetector

import (
	"sort"
	"strings"
	"time"

	"github.com/ignite/fleetwatch/internal/domain"
)

// MessageHeader is the minimal per-message data the detector needs: a
// subject/sender pair plus the timestamp used to order evidence newest
// first. Body is only required for a deferred BGC_COMPLETE follow-up via
// CheckBGCBody.
type MessageHeader struct {
	ID        string
	Subject   string
	From      string
	Date      time.Time
	MailboxID string
}

// Result is the outcome of a detection pass over one inbox's messages.
type Result struct {
	Stage          domain.Stage
	TriggerSubject string
	TriggerDate    time.Time
	Confidence     domain.Confidence
	Reactivated    bool
	// NeedsBodyCheck holds BGC_COMPLETE messages whose body must be
	// fetched separately to distinguish BGC_CLEAR from BGC_CONSIDER.
	NeedsBodyCheck []MessageHeader
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// sortByDateDesc orders messages newest-first. Messages with a zero Date
// (unparseable or missing) sort last, matching the original's
// datetime.min fallback.
func sortByDateDesc(messages []MessageHeader) []MessageHeader {
	out := make([]MessageHeader, len(messages))
	copy(out, messages)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Detect analyzes a batch of message headers and returns the
// highest-priority stage supported by the evidence. Only the DEACTIVATED
// branch short-circuits — every other stage keeps scanning in case a
// higher-priority signal appears later in the (date-sorted) message list.
func Detect(messages []MessageHeader) Result {
	res := Result{Stage: domain.StageRegistered, Confidence: domain.ConfidenceLow}

	sorted := sortByDateDesc(messages)

	for _, msg := range sorted {
		subj := lower(msg.Subject)
		sender := lower(msg.From)

		switch {
		case anyMatch(reactivationPatterns, subj):
			res.Reactivated = true
			if domain.StageActive.Priority() > res.Stage.Priority() {
				res.Stage = domain.StageActive
				res.TriggerSubject = msg.Subject
				res.TriggerDate = msg.Date
				res.Confidence = computeConfidence(domain.StageActive, subj, sender)
			}

		case anyMatch(deactivationPatterns, subj):
			if !res.Reactivated {
				return Result{
					Stage:          domain.StageDeactivated,
					TriggerSubject: msg.Subject,
					TriggerDate:    msg.Date,
					Confidence:     computeConfidence(domain.StageDeactivated, subj, sender),
					Reactivated:    false,
				}
			}

		case isActiveSignal(subj):
			if domain.StageActive.Priority() > res.Stage.Priority() {
				res.Stage = domain.StageActive
				res.TriggerSubject = msg.Subject
				res.TriggerDate = msg.Date
				res.Confidence = computeConfidence(domain.StageActive, subj, sender)
			}

		case bgcCompletePattern.MatchString(subj):
			res.NeedsBodyCheck = append(res.NeedsBodyCheck, msg)
			if domain.StageBGCClear.Priority() > res.Stage.Priority() {
				res.Stage = domain.StageBGCClear
				res.TriggerSubject = msg.Subject
				res.TriggerDate = msg.Date
				res.Confidence = computeConfidence(domain.StageBGCClear, subj, sender)
			}

		case isBGCPendingSignal(subj, sender):
			if domain.StageBGCPending.Priority() > res.Stage.Priority() {
				res.Stage = domain.StageBGCPending
				res.TriggerSubject = msg.Subject
				res.TriggerDate = msg.Date
				res.Confidence = computeConfidence(domain.StageBGCPending, subj, sender)
			}

		case isIdentityVerifiedSignal(subj):
			if domain.StageIdentityVerified.Priority() > res.Stage.Priority() {
				res.Stage = domain.StageIdentityVerified
				res.TriggerSubject = msg.Subject
				res.TriggerDate = msg.Date
				res.Confidence = computeConfidence(domain.StageIdentityVerified, subj, sender)
			}
		}
	}

	return res
}

func isActiveSignal(subject string) bool {
	return anyMatch(activePatterns, subject)
}

func isBGCPendingSignal(subject, sender string) bool {
	if !isBGCVendor(sender) {
		return false
	}
	if anyMatch(bgcPendingPatterns, subject) {
		return true
	}
	return bgcGenericPattern.MatchString(subject) && !completePattern.MatchString(subject)
}

func isIdentityVerifiedSignal(subject string) bool {
	return anyMatch(identityVerifiedPatterns, subject)
}

func computeConfidence(stage domain.Stage, subject, sender string) domain.Confidence {
	switch stage {
	case domain.StageDeactivated:
		if highConfidenceDeactivation.MatchString(subject) {
			return domain.ConfidenceHigh
		}
		return domain.ConfidenceMedium

	case domain.StageActive:
		if anyMatch(highConfidenceActive, subject) {
			return domain.ConfidenceHigh
		}
		return domain.ConfidenceMedium

	case domain.StageBGCClear, domain.StageBGCConsider:
		if bgcCompletePattern.MatchString(subject) {
			return domain.ConfidenceHigh
		}
		return domain.ConfidenceMedium

	case domain.StageBGCPending:
		if anyMatch(bgcPendingPatterns, subject) {
			return domain.ConfidenceHigh
		}
		if bgcGenericPattern.MatchString(subject) {
			return domain.ConfidenceLow
		}
		return domain.ConfidenceMedium

	case domain.StageIdentityVerified:
		if anyMatch(identityVerifiedPatterns, subject) {
			return domain.ConfidenceHigh
		}
		return domain.ConfidenceMedium
	}
	return domain.ConfidenceLow
}

// CheckBGCBody inspects a BGC_COMPLETE message body for adverse-action
// language to distinguish BGC_CLEAR from BGC_CONSIDER.
func CheckBGCBody(body string) domain.Stage {
	stage, _ := CheckBGCBodyWithConfidence(body)
	return stage
}

// CheckBGCBodyWithConfidence is CheckBGCBody plus a confidence tier: the
// first (most specific) adverse pattern yields high confidence, any other
// match yields medium, and a clean body yields high-confidence CLEAR.
func CheckBGCBodyWithConfidence(body string) (domain.Stage, domain.Confidence) {
	lowered := lower(body)
	for i, p := range bgcConsiderBodyPatterns {
		if p.MatchString(lowered) {
			if i == 0 {
				return domain.StageBGCConsider, domain.ConfidenceHigh
			}
			return domain.StageBGCConsider, domain.ConfidenceMedium
		}
	}
	return domain.StageBGCClear, domain.ConfidenceHigh
}
