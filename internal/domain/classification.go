package domain

import "time"

// Source identifies which tier of the classification pipeline produced a
// Classification row.
type Source string

const (
	SourceRules     Source = "rules"
	SourceAI        Source = "ai"
	SourceRulesDedup Source = "rules_dedup"
	SourceAIDedup    Source = "ai_dedup"
	SourceManual     Source = "manual"
	SourceError      Source = "error"
)

// Urgency is the operator-facing severity of a classified message.
type Urgency string

const (
	UrgencyInfo     Urgency = "info"
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
)

// Classification is one row per (inbox, provider-message-id) pair.
// Uniqueness is enforced on that pair by the repository's upsert contract.
type Classification struct {
	InboxID        string                 `json:"inbox_id" db:"inbox_id"`
	MessageID      string                 `json:"message_id" db:"message_id"`
	Category       string                 `json:"category" db:"category"`
	SubCategory    string                 `json:"sub_category" db:"sub_category"`
	Confidence     float64                `json:"confidence" db:"confidence"`
	Source         Source                 `json:"source" db:"source"`
	Summary        string                 `json:"summary" db:"summary"`
	Urgency        Urgency                `json:"urgency" db:"urgency"`
	ActionRequired bool                   `json:"action_required" db:"action_required"`
	KeyDetails     map[string]interface{} `json:"key_details,omitempty" db:"key_details"`
	RawAIPayload   string                 `json:"raw_ai_payload,omitempty" db:"raw_ai_payload"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
}

// Valid enforces the classification invariants: confidence must lie in
// [0,1], and a manual source implies full confidence.
func (c Classification) Valid() bool {
	if c.Confidence < 0 || c.Confidence > 1 {
		return false
	}
	if c.Source == SourceManual && c.Confidence != 1.0 {
		return false
	}
	return true
}

// IsDedup reports whether this row was produced by a template-cache hit
// rather than a fresh rule or LLM evaluation.
func (c Classification) IsDedup() bool {
	return c.Source == SourceRulesDedup || c.Source == SourceAIDedup
}

// AsDedup returns a copy of c with its source suffixed "_dedup" (idempotent:
// calling it twice does not double-suffix).
func (c Classification) AsDedup() Classification {
	switch c.Source {
	case SourceRules:
		c.Source = SourceRulesDedup
	case SourceAI:
		c.Source = SourceAIDedup
	}
	return c
}
