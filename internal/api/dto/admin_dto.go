package dto

import "time"

// CreateTechnicianRequest provisions a technician account.
type CreateTechnicianRequest struct {
	Name           string   `json:"name" validate:"required,max=120"`
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,min=8,max=128"`
	Phone          string   `json:"phone" validate:"max=40"`
	Skills         []string `json:"skills" validate:"required,min=1,dive,required,max=60"`
	MaxWorkload    int      `json:"max_workload" validate:"omitempty,gte=1,lte=100"`
	ExpertiseLevel string   `json:"expertise_level" validate:"omitempty,oneof=Junior Intermediate Senior Expert"`
}

// TechnicianSummary identifies a technician in ticket responses.
type TechnicianSummary struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	CurrentWorkload int    `json:"current_workload"`
}

// TechnicianResponse is the admin roster view.
type TechnicianResponse struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Phone                string     `json:"phone,omitempty"`
	Skills               []string   `json:"skills"`
	CurrentWorkload      int        `json:"current_workload"`
	MaxWorkload          int        `json:"max_workload"`
	AvailabilityStatus   string     `json:"availability_status"`
	ExpertiseLevel       string     `json:"expertise_level"`
	TotalTicketsResolved int        `json:"total_tickets_resolved"`
	Active               bool       `json:"is_active"`
	LastLogin            *time.Time `json:"last_login,omitempty"`
}

// TechnicianStatsResponse is the technician's own dashboard.
type TechnicianStatsResponse struct {
	Technician TechnicianResponse `json:"technician"`
	ByStatus   map[string]int     `json:"tickets_by_status"`
}

// ModelResponse describes the active classifier artifact.
type ModelResponse struct {
	Version    string     `json:"model_version"`
	Type       string     `json:"model_type"`
	Accuracy   float64    `json:"accuracy"`
	Trained    time.Time  `json:"training_date"`
	DeployedAt *time.Time `json:"deployed_at,omitempty"`
}

// DashboardResponse is the admin landing page.
type DashboardResponse struct {
	TotalTickets    int              `json:"total_tickets"`
	OpenTickets     int              `json:"open_tickets"`
	ResolvedTickets int              `json:"resolved_tickets"`
	ClosedTickets   int              `json:"closed_tickets"`
	FlaggedTickets  int              `json:"flagged_tickets"`
	ByCategory      map[string]int   `json:"category_distribution"`
	ActiveModel     *ModelResponse   `json:"active_model"`
	Recent          []TicketResponse `json:"recent_tickets"`
}

// AuditLogResponse is one system_logs entry.
type AuditLogResponse struct {
	ID        int64     `json:"id"`
	LogType   string    `json:"log_type"`
	UserType  *string   `json:"user_type,omitempty"`
	UserID    *int64    `json:"user_id,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Age       string    `json:"age"`
}
