package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketAssigned   EventType = "ticket_assigned"
	EventManualAssignment EventType = "manual_assignment"
	EventTicketResolved   EventType = "ticket_resolved"
)

// Event is one real-time message pushed to a subscriber.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// AssignmentPayload is delivered to a technician when a ticket lands in their queue.
type AssignmentPayload struct {
	TechnicianID int64  `json:"technician_id"`
	TicketID     int64  `json:"ticket_id"`
	TicketNumber string `json:"ticket_number"`
	Subject      string `json:"subject"`
	Category     string `json:"category"`
	Priority     string `json:"priority"`
	AssignedBy   string `json:"assigned_by"`
	Message      string `json:"message"`
}

// NewEvent stamps an id and time on a payload.
func NewEvent(eventType EventType, ticketID int64, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TechnicianTopic names the channel a technician's UI listens on.
func TechnicianTopic(technicianID int64) string {
	return fmt.Sprintf("technician:%d", technicianID)
}
