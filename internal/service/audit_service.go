package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

// AuditEntry is one system_logs record to append.
type AuditEntry struct {
	Type    domain.AuditLogType
	Actor   *Actor
	Action  string
	Details string
	Status  domain.AuditStatus
}

// AuditService appends to the audit trail. Writes happen outside the
// caller's transaction and never fail the caller.
type AuditService struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewAuditService constructs the service.
func NewAuditService(store repository.Store, logger *zap.Logger, clock func() time.Time) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{store: store, logger: logger, now: clockOrDefault(clock)}
}

// Record writes entry, logging instead of returning any failure.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if s == nil {
		return
	}
	status := entry.Status
	if status == "" {
		status = domain.AuditSuccess
	}
	log := &domain.AuditLog{
		LogType:   entry.Type,
		Action:    entry.Action,
		Details:   entry.Details,
		Status:    status,
		CreatedAt: s.now(),
	}
	if entry.Actor != nil {
		subject, id := entry.Actor.Type, entry.Actor.ID
		log.UserType = &subject
		log.UserID = &id
	}
	// the request may already be cancelled once the response is written
	if err := s.store.Repos().AuditLogs.Create(context.WithoutCancel(ctx), log); err != nil {
		s.logger.Error("audit write failed",
			zap.String("log_type", string(entry.Type)),
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

// List returns the newest audit entries first.
func (s *AuditService) List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error) {
	limit, offset = repository.NormalizeLimit(limit, offset)
	logs, err := s.store.Repos().AuditLogs.List(ctx, limit, offset)
	if err != nil {
		return nil, mapError(err, "audit log", 0)
	}
	return logs, nil
}
