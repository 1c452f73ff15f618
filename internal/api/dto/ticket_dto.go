package dto

import "time"

// CreateTicketRequest payload. Priority is optional.
type CreateTicketRequest struct {
	Subject     string `json:"subject" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Priority    string `json:"priority" validate:"omitempty,max=16"`
}

// UpdateStatusRequest is sent by the assigned technician.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof='In Progress' Resolved"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// ManualAssignRequest is sent by an admin. Reason is optional.
type ManualAssignRequest struct {
	TechnicianID int64  `json:"technician_id" validate:"required,gt=0"`
	Reason       string `json:"reason" validate:"max=500"`
}

// TicketResponse is the public ticket representation.
type TicketResponse struct {
	ID                     int64      `json:"id"`
	Number                 string     `json:"ticket_number"`
	Subject                string     `json:"subject"`
	Description            string     `json:"description"`
	Category               *string    `json:"category"`
	Priority               string     `json:"priority"`
	Status                 string     `json:"status"`
	ConfidenceScore        *float64   `json:"confidence_score"`
	FlaggedForManualReview bool       `json:"flagged_for_manual_review"`
	ManualAssignmentReason *string    `json:"manual_assignment_reason,omitempty"`
	UserID                 int64      `json:"user_id"`
	UserName               string     `json:"user_name,omitempty"`
	TechnicianID           *int64     `json:"technician_id,omitempty"`
	TechnicianName         *string    `json:"technician_name,omitempty"`
	SubmittedAt            time.Time  `json:"submitted_at"`
	ClassifiedAt           *time.Time `json:"classified_at,omitempty"`
	AssignedAt             *time.Time `json:"assigned_at,omitempty"`
	InProgressAt           *time.Time `json:"in_progress_at,omitempty"`
	ResolvedAt             *time.Time `json:"resolved_at,omitempty"`
	ClosedAt               *time.Time `json:"closed_at,omitempty"`
	UpdatedAt              time.Time  `json:"updated_at"`
	Age                    string     `json:"age"`
}

// ClassificationResponse reports the gate decision for a submission.
type ClassificationResponse struct {
	Category          *string `json:"category"`
	Confidence        float64 `json:"confidence"`
	NeedsManualReview bool    `json:"needs_manual_review"`
	FlagReason        string  `json:"flag_reason,omitempty"`
}

// SubmitTicketResponse is returned by POST /tickets.
type SubmitTicketResponse struct {
	Ticket         TicketResponse         `json:"ticket"`
	Classification ClassificationResponse `json:"classification"`
	Technician     *TechnicianSummary     `json:"assigned_technician,omitempty"`
	Message        string                 `json:"message"`
}
