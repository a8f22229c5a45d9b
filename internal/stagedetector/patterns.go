package stagedetector

import (
	"regexp"
	"strings"
)

// bgcVendors lists known background-check vendor domains/names used to
// recognize BGC_PENDING sender signals regardless of subject wording.
var bgcVendors = []string{"checkr", "onfido", "sterling", "accurate", "certn"}

var deactivationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)dasher\s+account\s+has\s+been\s+deactivated`),
	regexp.MustCompile(`(?i)account.*deactivat`),
	regexp.MustCompile(`(?i)deactivation.*confirm`),
	regexp.MustCompile(`(?i)your\s+account\s+is.*deactivat`),
	regexp.MustCompile(`(?i)account.*suspend`),
	regexp.MustCompile(`(?i)permanently.*deactivat`),
}

var reactivationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)account.*reactivat`),
	regexp.MustCompile(`(?i)welcome\s+back`),
	regexp.MustCompile(`(?i)reactivation.*complete`),
	regexp.MustCompile(`(?i)account.*restored`),
}

// activePatterns match real earnings/delivery/payment proof. Deliberately
// excludes surveys ("how was your experience"), promos ("maximize your
// earnings", "new dash available", "time to dash"), and account setup
// ("dasher bank account") — those are not proof of an active account.
var activePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)payment\s+processed`),
	regexp.MustCompile(`(?i)pay\s+statement`),
	regexp.MustCompile(`(?i)fast\s+pay\s+transfer`),
	regexp.MustCompile(`(?i)dasher\s+welcome\s+gift`),
	regexp.MustCompile(`(?i)your\s+first\s+dash`),
	regexp.MustCompile(`(?i)first\s+dash.*(?:done|complete|finished)`),
	regexp.MustCompile(`(?i)congratulations.*first\s+dash`),
	regexp.MustCompile(`(?i)you\s+completed.*(?:first\s+)?dash`),
}

var highConfidenceActive = []*regexp.Regexp{activePatterns[0], activePatterns[1]}

var bgcCompletePattern = regexp.MustCompile(`(?i)(?:background\s+check|bgc)\s+is\s+complete`)

var bgcPendingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:background\s+check|bgc)\s+is\s+taking\s+longer`),
	regexp.MustCompile(`(?i)(?:background\s+check|bgc)\s+paused`),
	regexp.MustCompile(`(?i)more\s+information\s+needed`),
	regexp.MustCompile(`(?i)let'?s\s+find\s+your\s+(?:background\s+check|bgc)`),
	regexp.MustCompile(`(?i)agreed\s+to\s+checkr`),
	regexp.MustCompile(`(?i)verify\s+your\s+email`),
	regexp.MustCompile(`(?i)finish\s+your\s+personal\s+check`),
}

var bgcGenericPattern = regexp.MustCompile(`(?i)(?:background\s+check|bgc)`)
var completePattern = regexp.MustCompile(`(?i)complete`)

var identityVerifiedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)identity.*verified`),
	regexp.MustCompile(`(?i)information\s+verified`),
}

// bgcConsiderBodyPatterns are specific adverse-action phrases. Index 0 is
// treated as the highest-confidence signal (exact phrase) by
// CheckBGCBodyWithConfidence.
var bgcConsiderBodyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)could\s+potentially\s+impact`),
	regexp.MustCompile(`(?i)disqualif`),
	regexp.MustCompile(`(?i)may\s+affect\s+eligibility`),
	regexp.MustCompile(`(?i)adverse.*action`),
	regexp.MustCompile(`(?i)require.*review`),
}

var highConfidenceDeactivation = deactivationPatterns[0]

func anyMatch(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func isBGCVendor(sender string) bool {
	s := strings.ToLower(sender)
	for _, v := range bgcVendors {
		if strings.Contains(s, v) {
			return true
		}
	}
	return false
}
