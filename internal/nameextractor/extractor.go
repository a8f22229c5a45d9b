// Package nameextractor guesses an inbox owner's first and last name from
// their recent messages and email address when the mail provider exposes
// neither. It runs a three-tier heuristic: a greeting salutation in a
// message body, a known-first-name prefix split of the email's local
// part, and a dictionary-prefix fallback over common first names.
package nameextractor

import (
	"regexp"
	"strings"
	"unicode"
)

// Result is the best guess at an inbox owner's name. Either field may be
// empty if that part could not be determined.
type Result struct {
	FirstName string
	LastName  string
}

var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)\b(?:Hi|Hello|Hey|Dear)\s+([A-Z][a-zA-Z]{1,20})\b`),
	regexp.MustCompile(`(?m)^([A-Z][a-zA-Z]{1,20}),\s+(?:your|start|to |we |you |this|the |please)`),
	regexp.MustCompile(`(?m)\b(?:Congratulations|Welcome|Thanks|Thank you),?\s+([A-Z][a-zA-Z]{1,20})\b`),
}

var greetingStopwords = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "your": {}, "our": {}, "all": {}, "new": {},
	"dasher": {}, "driver": {}, "courier": {}, "rider": {}, "shopper": {},
	"kit": {}, "app": {}, "team": {}, "help": {}, "support": {}, "order": {},
	"delivery": {}, "account": {}, "doordash": {}, "grubhub": {}, "ubereats": {},
	"instacart": {}, "postmates": {}, "spark": {}, "gift": {},
	"otherwise": {}, "someone": {}, "customer": {}, "member": {}, "friend": {}, "user": {},
	"action": {}, "update": {}, "notice": {}, "important": {}, "reminder": {}, "please": {},
	"here": {}, "there": {}, "where": {}, "when": {}, "what": {}, "which": {}, "more": {}, "some": {},
	"next": {}, "last": {}, "first": {}, "then": {}, "now": {}, "today": {},
}

// commonFirstNames is a representative, not exhaustive, set of frequent
// first names used for the tier-3 dictionary fallback.
var commonFirstNames = []string{
	"james", "robert", "john", "michael", "david", "william", "richard", "joseph",
	"thomas", "charles", "christopher", "daniel", "matthew", "anthony", "mark",
	"kevin", "brian", "george", "jason", "jeffrey", "ryan", "jacob", "eric",
	"jonathan", "justin", "scott", "brandon", "benjamin", "samuel", "jose", "adam",
	"nathan", "henry", "peter", "tyler", "austin", "ethan", "noah", "mason",
	"mary", "patricia", "jennifer", "linda", "barbara", "elizabeth", "susan",
	"jessica", "sarah", "karen", "lisa", "nancy", "margaret", "sandra",
	"ashley", "kimberly", "emily", "michelle", "amanda", "melissa", "stephanie",
	"rebecca", "laura", "amy", "angela", "anna", "brenda", "emma", "nicole",
	"samantha", "katherine", "rachel", "olivia", "hannah", "sophia", "grace",
	"charlotte", "carlos", "miguel", "luis", "jorge", "pedro", "ricardo", "rafael",
	"fernando", "alejandro", "diego", "antonio", "manuel", "eduardo", "mario",
	"ahmed", "mohammed", "omar", "hassan", "khalid", "bilal", "yusuf", "ibrahim",
	"fatima", "aisha", "maryam", "amina", "layla", "sara", "zainab",
	"ahmet", "mehmet", "mustafa", "ali", "hasan", "huseyin", "emre", "burak",
	"zeynep", "ayse", "fatma", "elif", "merve", "busra", "defne",
	"wei", "chen", "ming", "jing", "xiao", "liu", "wang",
	"raj", "sanjay", "vijay", "amit", "rahul", "arjun", "ravi",
}

var trailingDigits = regexp.MustCompile(`\d+$`)

func cleanLocalPart(local string) string {
	s := strings.ToLower(local)
	s = strings.NewReplacer(".", "", "_", "", "-", "").Replace(s)
	return trailingDigits.ReplaceAllString(s, "")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	for i := 1; i < len(r); i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

func isValidName(name string) bool {
	if len(name) < 2 {
		return false
	}
	r := []rune(name)
	if !unicode.IsUpper(r[0]) {
		return false
	}
	for _, c := range r {
		if unicode.IsDigit(c) {
			return false
		}
	}
	return true
}

// FromGreeting implements tier 1: it looks for a salutation ("Hi Marcus,")
// in the message body and returns the captured name if it passes the
// stopword and shape checks.
func FromGreeting(body string) (string, bool) {
	for _, pattern := range greetingPatterns {
		m := pattern.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		name := m[1]
		if _, stop := greetingStopwords[strings.ToLower(name)]; stop {
			continue
		}
		if !isValidName(name) {
			continue
		}
		return name, true
	}
	return "", false
}

// FromLocalPart implements tier 2: given a first name already known (from
// FromGreeting) and the email's local part, it strips the first name's
// prefix and treats the remainder as the last name.
func FromLocalPart(localPartRaw, firstName string) (last string, ok bool) {
	clean := cleanLocalPart(localPartRaw)
	lowerFirst := strings.ToLower(strings.ReplaceAll(firstName, " ", ""))
	if !strings.HasPrefix(clean, lowerFirst) {
		return "", false
	}
	remainder := clean[len(lowerFirst):]
	if remainder == "" {
		return "", true
	}
	return capitalize(trailingDigits.ReplaceAllString(remainder, "")), true
}

// FromDictionary implements tier 3: it finds the longest known first name
// that prefixes the email's local part and treats the remainder as the
// last name. Returns ok=false if no dictionary name matches.
func FromDictionary(localPartRaw string) (Result, bool) {
	clean := cleanLocalPart(localPartRaw)
	if clean == "" {
		return Result{}, false
	}

	best := ""
	for _, name := range commonFirstNames {
		if len(name) < 3 || !strings.HasPrefix(clean, name) {
			continue
		}
		if len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return Result{}, false
	}

	remainder := trailingDigits.ReplaceAllString(clean[len(best):], "")
	first := capitalize(best)
	if !isValidName(first) {
		return Result{}, false
	}
	return Result{FirstName: first, LastName: capitalize(remainder)}, true
}

// Extract runs all three tiers in order against a set of recent message
// bodies (newest first) and the account's email address, returning the
// first successful result.
func Extract(email string, recentBodies []string) (Result, bool) {
	local := localPart(email)

	for _, body := range recentBodies {
		first, ok := FromGreeting(body)
		if !ok {
			continue
		}
		if last, _ := FromLocalPart(local, first); last != "" {
			return Result{FirstName: first, LastName: last}, true
		}
		return Result{FirstName: first}, true
	}

	if res, ok := FromDictionary(local); ok {
		return res, true
	}
	return Result{}, false
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
