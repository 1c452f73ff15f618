package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusSubmitted  TicketStatus = "Submitted"
	TicketStatusClassified TicketStatus = "Classified"
	TicketStatusAssigned   TicketStatus = "Assigned"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// ParseTicketPriority matches a priority label case-insensitively.
func ParseTicketPriority(raw string) (TicketPriority, bool) {
	for _, p := range []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical} {
		if equalFoldTrim(string(p), raw) {
			return p, true
		}
	}
	return "", false
}

// Rank orders priorities from most to least urgent.
func (p TicketPriority) Rank() int {
	switch p {
	case TicketPriorityCritical:
		return 1
	case TicketPriorityHigh:
		return 2
	case TicketPriorityMedium:
		return 3
	case TicketPriorityLow:
		return 4
	}
	return 5
}

// Ticket is the aggregate for a user-reported issue.
type Ticket struct {
	ID                     int64
	Number                 string
	Subject                string
	Description            string
	Category               *string
	Priority               TicketPriority
	Status                 TicketStatus
	UserID                 int64
	ConfidenceScore        *float64
	FlaggedForManualReview bool
	ManualAssignmentReason *string
	SubmittedAt            time.Time
	ClassifiedAt           *time.Time
	AssignedAt             *time.Time
	InProgressAt           *time.Time
	ResolvedAt             *time.Time
	ClosedAt               *time.Time
	UpdatedAt              time.Time
}

// CategoryOrEmpty returns the category label or "" when unclassified.
func (t *Ticket) CategoryOrEmpty() string {
	if t == nil || t.Category == nil {
		return ""
	}
	return *t.Category
}

// TicketView is a ticket joined with the technician currently holding it.
type TicketView struct {
	Ticket
	UserName       string
	TechnicianID   *int64
	TechnicianName *string
}
