package events

import (
	"time"

	"github.com/moddy-app/moddysystems/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketClaimed       EventType = "ticket_claimed"
	EventTicketUnclaimed     EventType = "ticket_unclaimed"
	EventTicketArchived      EventType = "ticket_archived"
	EventReportCreated       EventType = "report_created"
	EventReportUpdated       EventType = "report_updated"
	EventReportStatusChanged EventType = "report_status_changed"
	EventReportClosed        EventType = "report_closed"
)

// Event represents a domain event emitted by services. SubjectID is the
// ticket thread id or report message id, Actor the platform user id that
// triggered the mutation (empty for system-driven events).
type Event struct {
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     string      `json:"actor,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category domain.TicketCategory `json:"category"`
	UserID   string                `json:"user_id"`
}

// TicketClaimPayload payload for claim/unclaim events.
type TicketClaimPayload struct {
	StaffID string `json:"staff_id,omitempty"`
}

// ReportCreatedPayload payload.
type ReportCreatedPayload struct {
	Kind     domain.ReportKind   `json:"kind"`
	Title    string              `json:"title"`
	StatusID string              `json:"status_id"`
	Status   domain.ReportStatus `json:"status"`
}

// ReportStatusChangedPayload payload.
type ReportStatusChangedPayload struct {
	OldStatus domain.ReportStatus `json:"old_status"`
	NewStatus domain.ReportStatus `json:"new_status"`
}
