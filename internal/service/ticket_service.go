package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/classifier"
	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/events"
	"github.com/helpdesk-ml/helpdesk/internal/observability"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	"github.com/helpdesk-ml/helpdesk/internal/workflow"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

// Reasons a ticket ends up in the manual review queue.
const (
	FlagLowConfidence        = "low_confidence"
	FlagClassificationFailed = "classification_failed"
	FlagNoTechnician         = "no_technician"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store         repository.Store
	gate          *classifier.Gate
	notifications *NotificationService
	audit         *AuditService
	metrics       *observability.Metrics
	sanitizer     *Sanitizer
	logger        *zap.Logger
	now           func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store         repository.Store
	Gate          *classifier.Gate
	Notifications *NotificationService
	Audit         *AuditService
	Metrics       *observability.Metrics
	Sanitizer     *Sanitizer
	Logger        *zap.Logger
	Clock         func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}
	gate := deps.Gate
	if gate == nil {
		gate = classifier.NewGate(nil, logger)
	}
	return &TicketService{
		store:         deps.Store,
		gate:          gate,
		notifications: deps.Notifications,
		audit:         deps.Audit,
		metrics:       deps.Metrics,
		sanitizer:     sanitizer,
		logger:        logger,
		now:           clockOrDefault(deps.Clock),
	}
}

// SubmitTicketInput is the end-user submission payload.
type SubmitTicketInput struct {
	Subject     string
	Description string
	// Priority is optional; empty falls back to the model, then Medium.
	Priority string
}

// SubmitResult reports what happened to a new ticket.
type SubmitResult struct {
	Ticket         domain.Ticket
	Classification classifier.Result
	Technician     *domain.Technician
	FlagReason     string
}

// SubmitTicket classifies a new ticket and either routes it to a technician
// or queues it for manual review. All writes commit together.
func (s *TicketService) SubmitTicket(ctx context.Context, userID int64, input SubmitTicketInput) (*SubmitResult, error) {
	subject := s.sanitizer.Text(input.Subject)
	description := s.sanitizer.Text(input.Description)
	if err := workflow.ValidateSubmission(subject, description); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	var requested domain.TicketPriority
	if input.Priority != "" {
		p, ok := domain.ParseTicketPriority(input.Priority)
		if !ok {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
		}
		requested = p
	}

	classification := s.gate.Classify(ctx, subject, description)
	now := s.now()
	confidence := classification.Confidence
	ticket := &domain.Ticket{
		Number:          NewTicketNumber(now),
		Subject:         subject,
		Description:     description,
		Category:        classification.Category,
		Priority:        resolvePriority(requested, classification.Priority),
		Status:          domain.TicketStatusSubmitted,
		UserID:          userID,
		ConfidenceScore: &confidence,
		SubmittedAt:     now,
		UpdatedAt:       now,
	}
	if err := workflow.Apply(ticket, domain.TicketStatusClassified, now); err != nil {
		return nil, mapError(err, "ticket", 0)
	}

	result := &SubmitResult{Classification: classification}
	switch {
	case classification.Failure != nil || classification.Category == nil:
		result.FlagReason = FlagClassificationFailed
	case classification.NeedsManualReview:
		result.FlagReason = FlagLowConfidence
	}

	err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
		if result.FlagReason == "" {
			roster, err := tx.Technicians.List(ctx)
			if err != nil {
				return err
			}
			if tech, ok := workflow.SelectTechnician(*ticket.Category, roster); ok {
				result.Technician = tech
			} else {
				result.FlagReason = FlagNoTechnician
			}
		}

		if result.Technician == nil {
			ticket.FlaggedForManualReview = true
			if err := tx.Tickets.Create(ctx, ticket); err != nil {
				return err
			}
			return notifyAdminsManualReview(ctx, tx, ticket, flagMessage(result.FlagReason, confidence), now)
		}

		if err := tx.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		return assignWithin(ctx, tx, ticket, result.Technician.ID, domain.AssignedBySystem, nil, now)
	})

	actor := &Actor{Type: domain.SubjectTypeUser, ID: userID}
	if err != nil {
		s.recordFailure(ctx, domain.AuditTicketSubmit, actor, "submit ticket", err)
		return nil, mapError(err, "ticket", 0)
	}
	if result.Technician != nil {
		result.Technician.CurrentWorkload++
	}
	result.Ticket = *ticket
	s.afterSubmit(ctx, actor, result)
	return result, nil
}

func (s *TicketService) afterSubmit(ctx context.Context, actor *Actor, result *SubmitResult) {
	ticket := &result.Ticket
	s.metrics.TicketSubmitted(result.Classification.Confidence)
	s.audit.Record(ctx, AuditEntry{
		Type:    domain.AuditTicketSubmit,
		Actor:   actor,
		Action:  "submit ticket",
		Details: fmt.Sprintf("ticket=%s category=%s confidence=%.2f", ticket.Number, ticket.CategoryOrEmpty(), result.Classification.Confidence),
	})

	switch {
	case result.Classification.Failure != nil:
		s.audit.Record(ctx, AuditEntry{
			Type:    domain.AuditTicketClassify,
			Actor:   actor,
			Action:  "classify ticket",
			Details: fmt.Sprintf("ticket=%s: %v", ticket.Number, result.Classification.Failure),
			Status:  domain.AuditError,
		})
	case result.Classification.NeedsManualReview:
		s.audit.Record(ctx, AuditEntry{
			Type:    domain.AuditTicketClassify,
			Actor:   actor,
			Action:  "classify ticket",
			Details: fmt.Sprintf("ticket=%s confidence=%.2f below %.0f", ticket.Number, result.Classification.Confidence, workflow.ConfidenceThreshold),
			Status:  domain.AuditWarning,
		})
	}

	if result.Technician == nil {
		s.metrics.TicketFlagged(result.FlagReason)
		s.audit.Record(ctx, AuditEntry{
			Type:    domain.AuditTicketFlagged,
			Actor:   actor,
			Action:  "flag for manual review",
			Details: fmt.Sprintf("ticket=%s reason=%s", ticket.Number, result.FlagReason),
			Status:  domain.AuditWarning,
		})
		return
	}

	s.metrics.TicketAutoAssigned()
	s.metrics.TicketTransition(string(domain.TicketStatusAssigned))
	s.audit.Record(ctx, AuditEntry{
		Type:    domain.AuditTicketAssign,
		Actor:   actor,
		Action:  "auto assign",
		Details: fmt.Sprintf("ticket=%s technician=%d", ticket.Number, result.Technician.ID),
	})
	s.notifications.Push(events.TechnicianTopic(result.Technician.ID),
		assignmentEvent(ticket, result.Technician.ID, domain.AssignedBySystem))
}

func flagMessage(reason string, confidence float64) string {
	switch reason {
	case FlagLowConfidence:
		return fmt.Sprintf("low confidence (%.2f%%)", confidence)
	case FlagNoTechnician:
		return "no available technician with a matching skill"
	}
	return "classification unavailable"
}

func resolvePriority(requested domain.TicketPriority, predicted string) domain.TicketPriority {
	if requested != "" {
		return requested
	}
	if p, ok := domain.ParseTicketPriority(predicted); ok {
		return p
	}
	return domain.TicketPriorityMedium
}

// UpdateStatus moves a ticket the technician is working on to In Progress or Resolved.
func (s *TicketService) UpdateStatus(ctx context.Context, technicianID, ticketID int64, status domain.TicketStatus, notes string) (*domain.Ticket, error) {
	if status != domain.TicketStatusInProgress && status != domain.TicketStatusResolved {
		return nil, apperrors.NewValidationError("status must be In Progress or Resolved",
			map[string]any{"status": string(status)})
	}
	notes = s.sanitizer.Text(notes)
	now := s.now()

	var ticket *domain.Ticket
	err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
		var err error
		ticket, err = tx.Tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if !workflow.CanTransition(ticket.Status, status) {
			return &workflow.TransitionError{From: ticket.Status, To: status}
		}
		assignment, err := tx.Assignments.GetActiveByTicket(ctx, ticketID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && assignment.TechnicianID != technicianID) {
			return apperrors.NewForbidden("ticket is not assigned to you")
		}
		if err != nil {
			return err
		}
		if err := workflow.Apply(ticket, status, now); err != nil {
			return err
		}

		switch status {
		case domain.TicketStatusInProgress:
			if assignment.AcceptedAt == nil {
				assignment.AcceptedAt = &now
			}
		case domain.TicketStatusResolved:
			assignment.CompletedAt = &now
			assignment.Active = false
			if notes != "" {
				assignment.ResolutionNotes = &notes
			}
			if err := tx.Technicians.AdjustWorkload(ctx, technicianID, -1); err != nil {
				return err
			}
			if err := tx.Technicians.IncrementResolved(ctx, technicianID); err != nil {
				return err
			}
			if err := notifyUserResolved(ctx, tx, ticket, now); err != nil {
				return err
			}
		}
		if err := tx.Assignments.Update(ctx, assignment); err != nil {
			return err
		}
		return tx.Tickets.Update(ctx, ticket)
	})

	actor := &Actor{Type: domain.SubjectTypeTechnician, ID: technicianID}
	if err != nil {
		s.recordFailure(ctx, domain.AuditTicketUpdate, actor, "update ticket status", err)
		return nil, mapError(err, "ticket", ticketID)
	}

	s.metrics.TicketTransition(string(status))
	s.audit.Record(ctx, AuditEntry{
		Type:    domain.AuditTicketUpdate,
		Actor:   actor,
		Action:  "update ticket status",
		Details: fmt.Sprintf("ticket=%s status=%s", ticket.Number, status),
	})
	return ticket, nil
}

// CloseTicket closes a resolved ticket. Workload was already released at resolve.
func (s *TicketService) CloseTicket(ctx context.Context, adminID, ticketID int64) (*domain.Ticket, error) {
	now := s.now()
	var ticket *domain.Ticket
	err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
		var err error
		ticket, err = tx.Tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := workflow.Apply(ticket, domain.TicketStatusClosed, now); err != nil {
			return err
		}
		return tx.Tickets.Update(ctx, ticket)
	})

	actor := &Actor{Type: domain.SubjectTypeAdmin, ID: adminID}
	if err != nil {
		s.recordFailure(ctx, domain.AuditTicketClose, actor, "close ticket", err)
		return nil, mapError(err, "ticket", ticketID)
	}

	s.metrics.TicketTransition(string(domain.TicketStatusClosed))
	s.audit.Record(ctx, AuditEntry{
		Type:    domain.AuditTicketClose,
		Actor:   actor,
		Action:  "close ticket",
		Details: fmt.Sprintf("ticket=%s", ticket.Number),
	})
	return ticket, nil
}

// ListForUser returns the caller's own tickets, newest first.
func (s *TicketService) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]domain.TicketView, error) {
	tickets, err := s.store.Repos().Tickets.List(ctx, repository.TicketFilter{
		UserID: &userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, mapError(err, "ticket", 0)
	}
	return tickets, nil
}

// GetTicket returns one ticket when actor may see it: users their own,
// technicians those routed to them, admins any.
func (s *TicketService) GetTicket(ctx context.Context, actor Actor, ticketID int64) (*domain.TicketView, error) {
	view, err := s.store.Repos().Tickets.GetView(ctx, ticketID)
	if err != nil {
		return nil, mapError(err, "ticket", ticketID)
	}
	switch actor.Type {
	case domain.SubjectTypeAdmin:
		return view, nil
	case domain.SubjectTypeUser:
		if view.UserID == actor.ID {
			return view, nil
		}
	case domain.SubjectTypeTechnician:
		if view.TechnicianID != nil && *view.TechnicianID == actor.ID {
			return view, nil
		}
	}
	// hide the existence of other accounts' tickets
	return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
}

// TechnicianQueue lists non-closed tickets held by the technician, most
// urgent first, then oldest.
func (s *TicketService) TechnicianQueue(ctx context.Context, technicianID int64) ([]domain.TicketView, error) {
	tickets, err := s.store.Repos().Tickets.List(ctx, repository.TicketFilter{
		TechnicianID:    &technicianID,
		ExcludeStatuses: []domain.TicketStatus{domain.TicketStatusClosed},
		ByPriority:      true,
		Limit:           500,
	})
	if err != nil {
		return nil, mapError(err, "ticket", 0)
	}
	return tickets, nil
}

// TechnicianStats is the technician's own dashboard.
type TechnicianStats struct {
	Technician domain.Technician
	ByStatus   map[domain.TicketStatus]int
}

// TechnicianStats loads workload and per-status counts for a technician.
func (s *TicketService) TechnicianStats(ctx context.Context, technicianID int64) (*TechnicianStats, error) {
	repos := s.store.Repos()
	tech, err := repos.Technicians.GetByID(ctx, technicianID)
	if err != nil {
		return nil, mapError(err, "technician", technicianID)
	}
	counts, err := repos.Tickets.StatusCounts(ctx, technicianID)
	if err != nil {
		return nil, mapError(err, "ticket", 0)
	}
	return &TechnicianStats{Technician: *tech, ByStatus: counts}, nil
}

func (s *TicketService) recordFailure(ctx context.Context, logType domain.AuditLogType, actor *Actor, action string, err error) {
	recordFailure(ctx, s.audit, s.logger, logType, actor, action, err)
}

// recordFailure audits a rolled back operation. Rejections are failures,
// anything unexpected is an error.
func recordFailure(ctx context.Context, audit *AuditService, logger *zap.Logger, logType domain.AuditLogType, actor *Actor, action string, err error) {
	status := domain.AuditError
	domainErr := apperrors.ToDomainError(mapError(err, "resource", 0))
	if domainErr.HTTPStatus < 500 {
		status = domain.AuditFailure
	} else {
		logger.Error("operation rolled back", zap.String("action", action), zap.Error(err))
	}
	audit.Record(ctx, AuditEntry{
		Type:    logType,
		Actor:   actor,
		Action:  action,
		Details: err.Error(),
		Status:  status,
	})
}
