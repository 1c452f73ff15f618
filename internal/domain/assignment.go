package domain

import "time"

// AssignedBy records who routed a ticket.
type AssignedBy string

const (
	AssignedBySystem AssignedBy = "System"
	AssignedByAdmin  AssignedBy = "Admin"
)

// Assignment links a ticket to one technician. Reassignment deactivates
// the previous row instead of deleting it.
type Assignment struct {
	ID              int64
	TicketID        int64
	TechnicianID    int64
	AssignedBy      AssignedBy
	AssignedAt      time.Time
	AcceptedAt      *time.Time
	CompletedAt     *time.Time
	Notes           *string
	ResolutionNotes *string
	Active          bool
}
