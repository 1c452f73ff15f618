package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/events"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	"github.com/helpdesk-ml/helpdesk/internal/worker"
)

// NotificationService reads the durable inbox and forwards real-time pushes.
type NotificationService struct {
	store  repository.Store
	pusher Pusher
	logger *zap.Logger
	now    func() time.Time
}

// NotificationDependencies bundles collaborators for NotificationService.
type NotificationDependencies struct {
	Store  repository.Store
	Pusher Pusher
	Logger *zap.Logger
	Clock  func() time.Time
}

// NewNotificationService constructs the service. A nil Pusher disables real-time delivery.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: deps.Store, pusher: deps.Pusher, logger: logger, now: clockOrDefault(deps.Clock)}
}

// Inbox is a page of notifications plus the unread total.
type Inbox struct {
	Notifications []domain.Notification
	Unread        int
}

// List returns the caller's most recent notifications.
func (s *NotificationService) List(ctx context.Context, actor Actor, limit int) (*Inbox, error) {
	repos := s.store.Repos()
	items, err := repos.Notifications.ListForRecipient(ctx, actor.Type, actor.ID, limit)
	if err != nil {
		return nil, mapError(err, "notification", 0)
	}
	unread, err := repos.Notifications.CountUnread(ctx, actor.Type, actor.ID)
	if err != nil {
		return nil, mapError(err, "notification", 0)
	}
	return &Inbox{Notifications: items, Unread: unread}, nil
}

// MarkRead flags one of the caller's notifications as read. Notifications of
// other accounts are reported as missing.
func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, id int64) error {
	err := s.store.Repos().Notifications.MarkRead(ctx, id, actor.Type, actor.ID, s.now())
	return mapError(err, "notification", id)
}

// Push hands an event to the worker. It never blocks and never fails the caller.
func (s *NotificationService) Push(topic string, event events.Event) {
	if s == nil || s.pusher == nil {
		return
	}
	if !s.pusher.Enqueue(worker.Push{Topic: topic, Event: event}) {
		s.logger.Warn("real-time push not queued",
			zap.String("topic", topic),
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID))
	}
}

func notifyTechnicianAssigned(ctx context.Context, repos repository.Repositories, ticket *domain.Ticket, technicianID int64, by domain.AssignedBy, at time.Time) error {
	kind := domain.NotificationTicketAssigned
	title := "New Ticket Assigned"
	message := fmt.Sprintf("Ticket %s: %s", ticket.Number, ticket.Subject)
	if by == domain.AssignedByAdmin {
		kind = domain.NotificationManualAssignment
		title = "Ticket Manually Assigned"
		message = fmt.Sprintf("Admin assigned you ticket %s: %s", ticket.Number, ticket.Subject)
	}
	return repos.Notifications.Create(ctx, &domain.Notification{
		UserType: domain.SubjectTypeTechnician,
		UserID:   technicianID,
		TicketID: &ticket.ID,
		Type:     kind,
		Title:    title,
		Message:  message,
		SentAt:   at,
	})
}

func notifyAdminsManualReview(ctx context.Context, repos repository.Repositories, ticket *domain.Ticket, reason string, at time.Time) error {
	admins, err := repos.Admins.ListActive(ctx)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("Ticket %s needs manual assignment: %s", ticket.Number, reason)
	for _, admin := range admins {
		err := repos.Notifications.Create(ctx, &domain.Notification{
			UserType: domain.SubjectTypeAdmin,
			UserID:   admin.ID,
			TicketID: &ticket.ID,
			Type:     domain.NotificationManualReviewRequired,
			Title:    "Manual Review Required",
			Message:  message,
			SentAt:   at,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func notifyUserResolved(ctx context.Context, repos repository.Repositories, ticket *domain.Ticket, at time.Time) error {
	return repos.Notifications.Create(ctx, &domain.Notification{
		UserType: domain.SubjectTypeUser,
		UserID:   ticket.UserID,
		TicketID: &ticket.ID,
		Type:     domain.NotificationTicketResolved,
		Title:    "Ticket Resolved",
		Message:  fmt.Sprintf("Your ticket %s has been resolved", ticket.Number),
		SentAt:   at,
	})
}

func assignmentEvent(ticket *domain.Ticket, technicianID int64, by domain.AssignedBy) events.Event {
	eventType := events.EventTicketAssigned
	message := fmt.Sprintf("New ticket %s assigned to you", ticket.Number)
	if by == domain.AssignedByAdmin {
		eventType = events.EventManualAssignment
		message = fmt.Sprintf("Admin assigned ticket %s to you", ticket.Number)
	}
	return events.NewEvent(eventType, ticket.ID, events.AssignmentPayload{
		TechnicianID: technicianID,
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		Subject:      ticket.Subject,
		Category:     ticket.CategoryOrEmpty(),
		Priority:     string(ticket.Priority),
		AssignedBy:   string(by),
		Message:      message,
	})
}
