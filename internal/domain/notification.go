package domain

import "time"

// NotificationType classifies durable notification records.
type NotificationType string

const (
	NotificationTicketAssigned       NotificationType = "ticket_assigned"
	NotificationManualAssignment     NotificationType = "manual_assignment"
	NotificationManualReviewRequired NotificationType = "manual_review_required"
	NotificationTicketResolved       NotificationType = "ticket_resolved"
)

// Notification is the durable record of an event directed at an account.
type Notification struct {
	ID       int64
	UserType SubjectType
	UserID   int64
	TicketID *int64
	Type     NotificationType
	Title    string
	Message  string
	Read     bool
	SentAt   time.Time
	ReadAt   *time.Time
}
