package domain

import "time"

// EventType enumerates the canonical event-bus message types (spec §4.9).
type EventType string

const (
	EventNewEmail    EventType = "new_email"
	EventStageChange EventType = "stage_change"
	EventAlert       EventType = "alert"
)

// Event is a transient pub/sub message: never persisted, pushed into
// subscriber queues and serialised onto the SSE wire as
// "event: <type>\ndata: <json>\n\n".
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEmailData is the payload carried by an EventNewEmail event.
type NewEmailData struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	From    string `json:"from"`
}

// StageChangeData is the payload carried by an EventStageChange event.
type StageChangeData struct {
	Email    string `json:"email"`
	OldStage Stage  `json:"old_stage"`
	NewStage Stage  `json:"new_stage"`
}
