package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/events"
	"github.com/helpdesk-ml/helpdesk/internal/observability"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	"github.com/helpdesk-ml/helpdesk/internal/workflow"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

// AssignmentService handles admin routing decisions.
type AssignmentService struct {
	store         repository.Store
	notifications *NotificationService
	audit         *AuditService
	metrics       *observability.Metrics
	sanitizer     *Sanitizer
	logger        *zap.Logger
	now           func() time.Time
}

// AssignmentDependencies bundles collaborators for the assignment service.
type AssignmentDependencies struct {
	Store         repository.Store
	Notifications *NotificationService
	Audit         *AuditService
	Metrics       *observability.Metrics
	Sanitizer     *Sanitizer
	Logger        *zap.Logger
	Clock         func() time.Time
}

// NewAssignmentService constructs the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}
	return &AssignmentService{
		store:         deps.Store,
		notifications: deps.Notifications,
		audit:         deps.Audit,
		metrics:       deps.Metrics,
		sanitizer:     sanitizer,
		logger:        logger,
		now:           clockOrDefault(deps.Clock),
	}
}

// DefaultManualAssignReason is recorded when the admin gives no reason.
const DefaultManualAssignReason = "Manual assignment by admin"

// ManualAssign routes a ticket to any active technician, bypassing skill and
// availability filters. A ticket already Assigned is moved off its current
// technician.
func (s *AssignmentService) ManualAssign(ctx context.Context, adminID, ticketID, technicianID int64, reason string) (*domain.Ticket, error) {
	reason = s.sanitizer.Text(reason)
	if reason == "" {
		reason = DefaultManualAssignReason
	}
	now := s.now()

	var (
		ticket *domain.Ticket
		tech   *domain.Technician
	)
	err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
		var err error
		ticket, err = tx.Tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != domain.TicketStatusClassified && ticket.Status != domain.TicketStatusAssigned {
			return &workflow.TransitionError{From: ticket.Status, To: domain.TicketStatusAssigned}
		}
		tech, err = tx.Technicians.GetByID(ctx, technicianID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("technician", map[string]any{"id": technicianID})
			}
			return err
		}
		if !tech.Active {
			return apperrors.NewValidationError("technician is not active", map[string]any{"technician_id": technicianID})
		}

		current, err := tx.Assignments.GetActiveByTicket(ctx, ticketID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return err
		case current.TechnicianID == technicianID:
			return apperrors.NewConflict("ticket is already assigned to this technician",
				map[string]any{"technician_id": technicianID})
		default:
			current.Active = false
			if err := tx.Assignments.Update(ctx, current); err != nil {
				return err
			}
			if err := tx.Technicians.AdjustWorkload(ctx, current.TechnicianID, -1); err != nil {
				return err
			}
		}

		ticket.FlaggedForManualReview = false
		ticket.ManualAssignmentReason = &reason
		return assignWithin(ctx, tx, ticket, technicianID, domain.AssignedByAdmin, &reason, now)
	})

	actor := &Actor{Type: domain.SubjectTypeAdmin, ID: adminID}
	if err != nil {
		recordFailure(ctx, s.audit, s.logger, domain.AuditManualAssignment, actor, "manual assign", err)
		return nil, mapError(err, "ticket", ticketID)
	}

	s.metrics.TicketTransition(string(domain.TicketStatusAssigned))
	s.audit.Record(ctx, AuditEntry{
		Type:    domain.AuditManualAssignment,
		Actor:   actor,
		Action:  "manual assign",
		Details: fmt.Sprintf("ticket=%s technician=%s reason=%s", ticket.Number, tech.Name, reason),
	})
	s.notifications.Push(events.TechnicianTopic(technicianID),
		assignmentEvent(ticket, technicianID, domain.AssignedByAdmin))
	return ticket, nil
}

// Suggestions lists the technicians the automatic policy would consider for
// the ticket's category, best first.
func (s *AssignmentService) Suggestions(ctx context.Context, ticketID int64) ([]domain.Technician, error) {
	repos := s.store.Repos()
	ticket, err := repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapError(err, "ticket", ticketID)
	}
	if ticket.Category == nil {
		return []domain.Technician{}, nil
	}
	roster, err := repos.Technicians.List(ctx)
	if err != nil {
		return nil, mapError(err, "technician", 0)
	}
	return workflow.Candidates(*ticket.Category, roster), nil
}

// assignWithin links ticket to the technician inside tx: active assignment,
// Assigned status, workload +1 and the technician's durable notification.
// Any prior active assignment must already be closed.
func assignWithin(ctx context.Context, tx repository.Repositories, ticket *domain.Ticket, technicianID int64, by domain.AssignedBy, notes *string, at time.Time) error {
	if err := tx.Assignments.Create(ctx, &domain.Assignment{
		TicketID:     ticket.ID,
		TechnicianID: technicianID,
		AssignedBy:   by,
		AssignedAt:   at,
		Notes:        notes,
		Active:       true,
	}); err != nil {
		return err
	}

	if ticket.Status == domain.TicketStatusClassified {
		if err := workflow.Apply(ticket, domain.TicketStatusAssigned, at); err != nil {
			return err
		}
	} else {
		ticket.UpdatedAt = at
	}
	if err := tx.Tickets.Update(ctx, ticket); err != nil {
		return err
	}
	if err := tx.Technicians.AdjustWorkload(ctx, technicianID, 1); err != nil {
		return err
	}
	return notifyTechnicianAssigned(ctx, tx, ticket, technicianID, by, at)
}
