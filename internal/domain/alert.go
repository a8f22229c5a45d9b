package domain

import "time"

// Severity is the alert's operator-facing urgency tier.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is surfaced to operators on specific classifications or stage
// events. Created by the scanner; mutated only by the read operation.
type Alert struct {
	ID         string     `json:"id" db:"id"`
	InboxID    string     `json:"inbox_id" db:"inbox_id"`
	AlertType  string     `json:"alert_type" db:"alert_type"`
	Severity   Severity   `json:"severity" db:"severity"`
	Title      string     `json:"title" db:"title"`
	Message    string     `json:"message" db:"message"`
	Read       bool       `json:"read" db:"read"`
	ReaderID   string     `json:"reader_id,omitempty" db:"reader_id"`
	ReadAt     *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// SeverityForStage maps a promotion's destination stage to the alert
// severity the scanner should raise (spec §4.5.2): critical for
// DEACTIVATED, warning for BGC_CONSIDER, info otherwise.
func SeverityForStage(stage Stage) Severity {
	switch stage {
	case StageDeactivated:
		return SeverityCritical
	case StageBGCConsider:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// AlertTypeForStage names the alert_type recorded alongside a promotion.
func AlertTypeForStage(stage Stage) string {
	if stage == StageDeactivated {
		return "deactivation"
	}
	return "stage_change"
}
