package notify

import "github.com/laporkota/laporkit/internal/status"

// Event is the raw record pushed on the notification stream.
// The first event on every stream is the handshake {"type":"connected"}.
type Event struct {
	ID       string `json:"id,omitempty"`
	ReportID string `json:"report_id,omitempty"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message,omitempty"`
	Type     string `json:"type"`
	Status   string `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// Event types the backend currently emits.
const (
	TypeConnected    = "connected"
	TypeNewReport    = "new_report"
	TypeStatusUpdate = "status_update"
)

// StatusUpdate is handed to the state-update handler for every
// status_update event, with the status already normalized.
type StatusUpdate struct {
	ReportID string
	Status   status.Status
}

// Toast is a user-facing notification derived from a stream event.
type Toast struct {
	Level   string // "info" for status updates, "success" otherwise
	Title   string
	Message string
}
