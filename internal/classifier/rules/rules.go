// Package rules implements the first-tier, pure pattern-matching email
// classifier. It never makes a network call and never blocks: a message
// either clears the confidence threshold here or falls through to the LLM
// tier. Order matters — rules are evaluated top to bottom and the first
// match wins, so more specific/urgent categories are checked first.
package rules

import (
	"regexp"
	"strings"

	"github.com/ignite/fleetwatch/internal/domain"
)

// Threshold is the minimum confidence a rule match must carry to be
// accepted without LLM fallback.
const Threshold = 0.7

var (
	reDeactivated     = regexp.MustCompile(`(?i)dasher\s+account\s+has\s+been\s+deactivated`)
	reReactivate      = regexp.MustCompile(`(?i)reactivat`)
	reDasher          = regexp.MustCompile(`(?i)dasher`)
	reDoorDash        = regexp.MustCompile(`(?i)doordash`)
	reContractViol    = regexp.MustCompile(`(?i)contract\s+violation|violation\s+notice`)
	reRating          = regexp.MustCompile(`(?i)rating`)
	reWarningWord     = regexp.MustCompile(`(?i)warning|low|risk`)
	reBGCComplete     = regexp.MustCompile(`(?i)(?:background\s*check|bgc|bg\s*check).*(?:is\s+)?complete`)
	reBGCConsider     = regexp.MustCompile(`(?i)could\s+potentially\s+impact|(?:record|item).*(?:found|flagged)|adverse.*(?:action|finding)`)
	reBGCPending      = regexp.MustCompile(`(?i)(?:background\s*check|bgc|bg\s*check).*(?:taking\s+longer|paused)|more\s+information\s+needed|finish\s+your\s+personal\s+check`)
	reBGCSubmitted    = regexp.MustCompile(`(?i)(?:background\s*check|bgc|bg\s*check)`)
	reComplete        = regexp.MustCompile(`(?i)complete`)
	reIdentityVerify  = regexp.MustCompile(`(?i)identity.*verified|information\s+verified`)
	reCheckrConsent   = regexp.MustCompile(`(?i)agreed\s+to\s+checkr|verify\s+your\s+email`)
	reMoreInfo        = regexp.MustCompile(`(?i)more\s+information`)
	reCheckrSender    = regexp.MustCompile(`(?i)checkr`)
	reWelcome         = regexp.MustCompile(`(?i)welcome`)
	reActivation      = regexp.MustCompile(`(?i)account.*activat`)
	reDeactivation    = regexp.MustCompile(`(?i)deactivat`)
	reWeeklyPay       = regexp.MustCompile(`(?i)(?:your\s+)?weekly\s+(?:pay|earnings)|pay\s+statement`)
	reDirectDeposit   = regexp.MustCompile(`(?i)direct\s+deposit|fast\s+pay\s+transfer`)
	reEarningsSummary = regexp.MustCompile(`(?i)you\s+earned|your\s+earnings|earnings\s+summary|delivery\s+summary`)
	reTaxDoc          = regexp.MustCompile(`(?i)1099|tax\s+document|tax\s+form|tax\s+statement`)
	reFirstDash       = regexp.MustCompile(`(?i)first\s+dash.*(?:done|complete|finished)|your\s+first\s+dash|congratulations.*first\s+dash|you\s+completed.*(?:first\s+)?dash`)
	reDashOpportunity = regexp.MustCompile(`(?i)new\s+dash\s+available|time\s+to\s+dash|dash\s+opportunity|busy\s+near\s+you`)
	reUpdate          = regexp.MustCompile(`(?i)update`)
	rePolicyUpdate    = regexp.MustCompile(`(?i)policy\s+update|terms\s+of\s+service|agreement\s+update|ica\s+update`)
	reSurvey          = regexp.MustCompile(`(?i)how\s+was\s+your\s+experience|survey|feedback`)
	rePromotion       = regexp.MustCompile(`(?i)promotion|bonus|challenge|incentive|prop\s+22`)
	rePaymentBank     = regexp.MustCompile(`(?i)payment\s+processed|dasher\s+pay|dasher\s+bank|dasher\s+welcome\s+gift`)
	reInsurance       = regexp.MustCompile(`(?i)insurance|coverage|claim|liability|workers.*comp`)
	reScheduling      = regexp.MustCompile(`(?i)schedule|shift|availability|time\s+slot|peak\s+pay`)
	reEquipment       = regexp.MustCompile(`(?i)red\s+card|activation\s+kit|hot\s+bag|equipment|dasher\s+kit`)
)

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Classify runs the ordered pattern bank against a message's subject,
// sender, and body. It returns (classification, false) when a rule
// matched with sufficient confidence, or (zero value, true) when the
// message needs LLM fallback — either no rule matched or the matching
// rule's confidence fell under Threshold.
func Classify(subject, sender, body string) (domain.Classification, bool) {
	subj := lower(subject)
	sndr := lower(sender)
	bodyLower := lower(body)

	cl, matched := classify(subj, sndr, bodyLower)
	if !matched || cl.Confidence < Threshold {
		return domain.Classification{}, true
	}
	return cl, false
}

func result(category, subCategory string, confidence float64, summary string, urgency domain.Urgency, actionRequired bool) domain.Classification {
	return domain.Classification{
		Category:       category,
		SubCategory:    subCategory,
		Confidence:     confidence,
		Source:         domain.SourceRules,
		Summary:        summary,
		Urgency:        urgency,
		ActionRequired: actionRequired,
	}
}

func classify(subj, sndr, bodyLower string) (domain.Classification, bool) {
	switch {
	case reDeactivated.MatchString(subj):
		return result("account", "deactivation", 1.0,
			"Dasher account has been deactivated", domain.UrgencyCritical, true), true

	case reReactivate.MatchString(subj) && (reDasher.MatchString(subj) || reDoorDash.MatchString(sndr)):
		return result("account", "reactivation", 0.9,
			"Account reactivation notification", domain.UrgencyHigh, true), true

	case reContractViol.MatchString(subj):
		return result("warning", "contract_violation", 0.95,
			"Contract violation reported", domain.UrgencyCritical, true), true

	case reRating.MatchString(subj) && reWarningWord.MatchString(subj):
		return result("warning", "low_rating_warning", 0.85,
			"Low rating warning received", domain.UrgencyWarning, true), true

	case reBGCComplete.MatchString(subj):
		if reBGCConsider.MatchString(bodyLower) {
			return result("bgc", "consider", 1.0,
				"Background check complete with considerations", domain.UrgencyHigh, true), true
		}
		return result("bgc", "clear", 0.95,
			"Background check completed clear", domain.UrgencyMedium, false), true

	case reCheckrSender.MatchString(sndr):
		switch {
		case reBGCPending.MatchString(subj):
			return result("bgc", "pending", 0.9,
				"Background check in progress, action may be needed", domain.UrgencyMedium,
				reMoreInfo.MatchString(subj)), true
		case reBGCSubmitted.MatchString(subj) && !reComplete.MatchString(subj):
			return result("bgc", "submitted", 0.85,
				"Background check submitted/processing", domain.UrgencyLow, false), true
		case reIdentityVerify.MatchString(subj):
			return result("bgc", "identity_verified", 0.95,
				"Identity verification completed", domain.UrgencyMedium, false), true
		case reCheckrConsent.MatchString(subj):
			return result("bgc", "submitted", 0.8,
				"Checkr consent/verification step", domain.UrgencyLow, false), true
		}
		// Checkr sender but none of the above matched: fall through to the
		// remaining rules rather than returning no-match immediately.
	}

	switch {
	case reIdentityVerify.MatchString(subj):
		return result("bgc", "identity_verified", 0.9,
			"Identity verification completed", domain.UrgencyMedium, false), true

	case reWelcome.MatchString(subj) && (reDasher.MatchString(subj) || reDoorDash.MatchString(sndr)):
		return result("account", "welcome", 0.9,
			"Welcome to DoorDash/Dasher", domain.UrgencyInfo, false), true

	case reActivation.MatchString(subj) && !reDeactivation.MatchString(subj):
		return result("account", "activation", 0.85,
			"Account activation notification", domain.UrgencyMedium, false), true

	case reWeeklyPay.MatchString(subj):
		return result("earnings", "weekly_pay", 0.95,
			"Weekly pay statement", domain.UrgencyLow, false), true

	case reDirectDeposit.MatchString(subj):
		return result("earnings", "direct_deposit", 0.95,
			"Direct deposit or fast pay notification", domain.UrgencyLow, false), true

	case reEarningsSummary.MatchString(subj):
		return result("earnings", "earnings_summary", 0.9,
			"Earnings or delivery summary", domain.UrgencyLow, false), true

	case reTaxDoc.MatchString(subj):
		return result("earnings", "tax_document", 0.95,
			"Tax document available", domain.UrgencyMedium, true), true

	case reFirstDash.MatchString(subj):
		return result("earnings", "earnings_summary", 0.95,
			"First dash completed - account is active", domain.UrgencyLow, false), true

	case reDashOpportunity.MatchString(subj):
		return result("operational", "dash_opportunity", 0.85,
			"Dash opportunity available", domain.UrgencyInfo, false), true

	case reRating.MatchString(subj) && reUpdate.MatchString(subj):
		return result("operational", "rating_update", 0.8,
			"Rating update notification", domain.UrgencyLow, false), true

	case rePolicyUpdate.MatchString(subj):
		return result("operational", "policy_update", 0.85,
			"Policy or terms update", domain.UrgencyMedium, true), true

	case reSurvey.MatchString(subj):
		return result("operational", "survey", 0.7,
			"Experience feedback request", domain.UrgencyInfo, false), true

	case rePromotion.MatchString(subj):
		return result("operational", "promotion", 0.8,
			"Promotion or incentive notification", domain.UrgencyInfo, false), true

	case rePaymentBank.MatchString(subj):
		return result("earnings", "direct_deposit", 0.8,
			"Payment or bank related notification", domain.UrgencyLow, false), true

	case reInsurance.MatchString(subj):
		return result("insurance", "insurance", 0.85,
			"Dasher insurance related notification", domain.UrgencyMedium, false), true

	case reScheduling.MatchString(subj):
		return result("scheduling", "scheduling", 0.85,
			"Shift or schedule notification", domain.UrgencyLow, false), true

	case reEquipment.MatchString(subj):
		return result("equipment", "equipment", 0.85,
			"Equipment or kit notification", domain.UrgencyLow, false), true

	case reDoorDash.MatchString(sndr):
		return result("unknown", "needs_review", 0.5,
			"Unclassified DoorDash email", domain.UrgencyLow, false), true
	}

	return domain.Classification{}, false
}
