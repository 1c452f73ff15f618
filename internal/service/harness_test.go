package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ml/helpdesk/internal/auth"
	"github.com/helpdesk-ml/helpdesk/internal/classifier"
	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	"github.com/helpdesk-ml/helpdesk/internal/testutil"
	"github.com/helpdesk-ml/helpdesk/internal/worker"
)

type recordingPusher struct {
	mu     sync.Mutex
	pushes []worker.Push
}

func (p *recordingPusher) Enqueue(push worker.Push) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, push)
	return true
}

func (p *recordingPusher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, 0, len(p.pushes))
	for _, push := range p.pushes {
		topics = append(topics, push.Topic)
	}
	return topics
}

// fixedPrediction always returns label with confidence in 0..1.
func fixedPrediction(label string, confidence float64) classifier.Predictor {
	return classifier.PredictorFunc(func(context.Context, string) (classifier.Prediction, error) {
		return classifier.Prediction{Label: label, Confidence: confidence}, nil
	})
}

type harness struct {
	store       repository.Store
	repos       repository.Repositories
	pusher      *recordingPusher
	tickets     *TicketService
	assignments *AssignmentService
	technicians *TechnicianService
	admin       *AdminService
	accounts    *AccountService
	auth        *AuthService
	inbox       *NotificationService
	audit       *AuditService
	clock       time.Time
}

func newHarness(t *testing.T, predictor classifier.Predictor) *harness {
	t.Helper()
	return newHarnessWithStore(t, testutil.NewSQLiteStore(t), predictor)
}

func newHarnessWithStore(t *testing.T, store repository.Store, predictor classifier.Predictor) *harness {
	t.Helper()
	h := &harness{
		store:  store,
		repos:  store.Repos(),
		pusher: &recordingPusher{},
		clock:  time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time {
		h.clock = h.clock.Add(time.Second)
		return h.clock
	}
	h.audit = NewAuditService(store, nil, clock)
	h.inbox = NewNotificationService(NotificationDependencies{Store: store, Pusher: h.pusher, Clock: clock})
	h.tickets = NewTicketService(TicketDependencies{
		Store:         store,
		Gate:          classifier.NewGate(predictor, nil),
		Notifications: h.inbox,
		Audit:         h.audit,
		Clock:         clock,
	})
	h.assignments = NewAssignmentService(AssignmentDependencies{
		Store:         store,
		Notifications: h.inbox,
		Audit:         h.audit,
		Clock:         clock,
	})
	h.technicians = NewTechnicianService(store, h.audit, nil)
	h.admin = NewAdminService(store, nil, clock)
	h.accounts = NewAccountService(store, 4, clock)
	h.auth = NewAuthService(AuthDependencies{
		Store:      store,
		Tokens:     auth.NewTokenManager("test-secret", 15),
		Audit:      h.audit,
		BcryptCost: 4,
		Clock:      clock,
	})
	return h
}

func (h *harness) technician(t *testing.T, id int64) *domain.Technician {
	t.Helper()
	tech, err := h.repos.Technicians.GetByID(context.Background(), id)
	require.NoError(t, err)
	return tech
}

func (h *harness) ticket(t *testing.T, id int64) *domain.Ticket {
	t.Helper()
	ticket, err := h.repos.Tickets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return ticket
}

func (h *harness) inboxOf(t *testing.T, subject domain.SubjectType, id int64) []domain.Notification {
	t.Helper()
	items, err := h.repos.Notifications.ListForRecipient(context.Background(), subject, id, 100)
	require.NoError(t, err)
	return items
}

func (h *harness) auditOf(t *testing.T, logType domain.AuditLogType) []domain.AuditLog {
	t.Helper()
	logs, err := h.repos.AuditLogs.List(context.Background(), 500, 0)
	require.NoError(t, err)
	var matched []domain.AuditLog
	for _, l := range logs {
		if l.LogType == logType {
			matched = append(matched, l)
		}
	}
	return matched
}

// submitAssigned submits a ticket the predictor routes to a Hardware technician.
func (h *harness) submitAssigned(t *testing.T, userID int64) *SubmitResult {
	t.Helper()
	result, err := h.tickets.SubmitTicket(context.Background(), userID, SubmitTicketInput{
		Subject:     "printer jammed",
		Description: "paper stuck in tray 2",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Technician)
	return result
}

var errInjected = errors.New("injected failure")

// failingNotificationStore fails every durable notification written inside a transaction.
type failingNotificationStore struct {
	repository.Store
}

func (s failingNotificationStore) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Repositories) error {
		tx.Notifications = failingNotifications{tx.Notifications}
		return fn(tx)
	})
}

type failingNotifications struct {
	repository.NotificationRepository
}

func (failingNotifications) Create(context.Context, *domain.Notification) error {
	return errInjected
}
