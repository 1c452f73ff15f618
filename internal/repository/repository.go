package repository

import (
	"context"
	"errors"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// UserRepository defines persistence access for end-users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// AdminRepository defines persistence access for administrators.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.Admin) error
	GetByID(ctx context.Context, id int64) (*domain.Admin, error)
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	ListActive(ctx context.Context) ([]domain.Admin, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// TechnicianRepository handles persistence for technicians. Workload changes
// are relative so concurrent requests never overwrite each other's counts.
type TechnicianRepository interface {
	Create(ctx context.Context, tech *domain.Technician) error
	GetByID(ctx context.Context, id int64) (*domain.Technician, error)
	GetByEmail(ctx context.Context, email string) (*domain.Technician, error)
	List(ctx context.Context) ([]domain.Technician, error)
	AdjustWorkload(ctx context.Context, id int64, delta int) error
	SetWorkload(ctx context.Context, id int64, workload int) error
	IncrementResolved(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// TicketFilter captures list parameters for ticket queries.
type TicketFilter struct {
	UserID       *int64
	TechnicianID *int64
	Statuses     []domain.TicketStatus
	// ExcludeStatuses drops tickets in any of these states.
	ExcludeStatuses []domain.TicketStatus
	// AwaitingManual selects flagged tickets nobody has picked up yet.
	AwaitingManual bool
	// ByPriority orders Critical first, then oldest submission.
	ByPriority bool
	Limit      int
	Offset     int
}

// TicketStats aggregates the admin dashboard counters.
type TicketStats struct {
	Total      int
	Open       int
	Resolved   int
	Closed     int
	Flagged    int
	ByCategory map[string]int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	GetView(ctx context.Context, id int64) (*domain.TicketView, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.TicketView, error)
	Stats(ctx context.Context) (TicketStats, error)
	StatusCounts(ctx context.Context, technicianID int64) (map[domain.TicketStatus]int, error)
}

// AssignmentRepository stores ticket to technician links.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) error
	Update(ctx context.Context, assignment *domain.Assignment) error
	GetActiveByTicket(ctx context.Context, ticketID int64) (*domain.Assignment, error)
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Assignment, error)
	// OpenCountsByTechnician counts active assignments on tickets that are not closed.
	OpenCountsByTechnician(ctx context.Context) (map[int64]int, error)
}

// NotificationRepository stores durable notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListForRecipient(ctx context.Context, userType domain.SubjectType, userID int64, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userType domain.SubjectType, userID int64) (int, error)
	MarkRead(ctx context.Context, id int64, userType domain.SubjectType, userID int64, at time.Time) error
}

// AuditLogRepository appends to system_logs. Entries are never updated.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error)
}

// ModelLogRepository tracks deployed classifier artifacts.
type ModelLogRepository interface {
	Create(ctx context.Context, entry *domain.ModelLog) error
	GetActive(ctx context.Context) (*domain.ModelLog, error)
	DeactivateAll(ctx context.Context) error
}

// Repositories groups every repository bound to one connection or transaction.
type Repositories struct {
	Users         UserRepository
	Admins        AdminRepository
	Technicians   TechnicianRepository
	Tickets       TicketRepository
	Assignments   AssignmentRepository
	Notifications NotificationRepository
	AuditLogs     AuditLogRepository
	ModelLogs     ModelLogRepository
}

// Store is a relational backend. WithTx commits when fn returns nil and
// rolls back every write otherwise.
type Store interface {
	Repos() Repositories
	WithTx(ctx context.Context, fn func(Repositories) error) error
	Ping(ctx context.Context) error
	Close() error
}

const defaultListLimit = 50

// NormalizeLimit clamps list sizes.
func NormalizeLimit(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// OpenStatuses lists states counted as open on the dashboard.
var OpenStatuses = []domain.TicketStatus{
	domain.TicketStatusSubmitted,
	domain.TicketStatusClassified,
	domain.TicketStatusAssigned,
	domain.TicketStatusInProgress,
}

// PickedUpStatuses are states in which a flagged ticket no longer waits on an admin.
var PickedUpStatuses = []domain.TicketStatus{
	domain.TicketStatusAssigned,
	domain.TicketStatusInProgress,
	domain.TicketStatusResolved,
	domain.TicketStatusClosed,
}
