package domain

import "time"

// Inbox represents one monitored mail account hosted on the external mail
// provider. It is created either when the provider first exposes the
// account (scanner reconciliation) or when an operator provisions one, and
// is mutated only by the scanner (Stage, scan timestamps) or an admin
// (profile fields). Inboxes are never deleted implicitly.
type Inbox struct {
	ID              string    `json:"id" db:"id"`
	ProviderID      string    `json:"provider_id" db:"provider_id"`
	Email           string    `json:"email" db:"email"`
	FirstName       string    `json:"first_name,omitempty" db:"first_name"`
	LastName        string    `json:"last_name,omitempty" db:"last_name"`
	Stage           Stage     `json:"stage" db:"stage"`
	StageUpdatedAt  time.Time `json:"stage_updated_at" db:"stage_updated_at"`
	LastScannedAt   time.Time `json:"last_scanned_at" db:"last_scanned_at"`
	ScanError       string    `json:"scan_error,omitempty" db:"scan_error"`
	InboxMailboxID  string    `json:"-" db:"-"`
	TrashMailboxID  string    `json:"-" db:"-"`
	JunkMailboxID   string    `json:"-" db:"-"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// StageHistoryEntry is an append-only record of one promotion. Immutable
// once written; the count of rows for an inbox equals the number of
// successful promotions it has undergone.
type StageHistoryEntry struct {
	ID                string    `json:"id" db:"id"`
	InboxID           string    `json:"inbox_id" db:"inbox_id"`
	OldStage          Stage     `json:"old_stage" db:"old_stage"`
	NewStage          Stage     `json:"new_stage" db:"new_stage"`
	TriggerSubject    string    `json:"trigger_subject,omitempty" db:"trigger_subject"`
	TriggerDate       time.Time `json:"trigger_date,omitempty" db:"trigger_date"`
	RecordedAt        time.Time `json:"recorded_at" db:"recorded_at"`
}

// PortalCredential is the minimal portal-user record created alongside a
// newly-discovered inbox. The plaintext password is never stored; only its
// hash is persisted.
type PortalCredential struct {
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	InboxID      string `json:"inbox_id" db:"inbox_id"`
}
