package dto

import "time"

// NotificationResponse is one inbox entry.
type NotificationResponse struct {
	ID       int64      `json:"id"`
	TicketID *int64     `json:"ticket_id,omitempty"`
	Type     string     `json:"notification_type"`
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	Read     bool       `json:"is_read"`
	SentAt   time.Time  `json:"sent_at"`
	ReadAt   *time.Time `json:"read_at,omitempty"`
	Age      string     `json:"age"`
}

// InboxResponse wraps the notification list.
type InboxResponse struct {
	Unread        int                    `json:"unread"`
	Notifications []NotificationResponse `json:"notifications"`
}
