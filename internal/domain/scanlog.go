package domain

import "time"

// ScanStatus is the lifecycle state of a single scanner run.
type ScanStatus string

const (
	ScanRunning   ScanStatus = "running"
	ScanCompleted ScanStatus = "completed"
	ScanFailed    ScanStatus = "failed"
)

// ScanLog is one row per scan run, updated between batches so an operator
// can watch progress mid-sweep.
type ScanLog struct {
	ID             string     `json:"id" db:"id"`
	Status         ScanStatus `json:"status" db:"status"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	TotalAccounts  int        `json:"total_accounts" db:"total_accounts"`
	Scanned        int        `json:"scanned" db:"scanned"`
	Errors         int        `json:"errors" db:"errors"`
	Transitions    int        `json:"transitions" db:"transitions"`
	CurrentAccount string     `json:"current_account,omitempty" db:"current_account"`
	ErrorDetails   string     `json:"error_details,omitempty" db:"error_details"`
}
