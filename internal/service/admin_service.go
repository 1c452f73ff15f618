package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/classifier"
	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/report"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

// AdminService serves the admin dashboard and exports.
type AdminService struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewAdminService constructs the service.
func NewAdminService(store repository.Store, logger *zap.Logger, clock func() time.Time) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{store: store, logger: logger, now: clockOrDefault(clock)}
}

// Dashboard aggregates counters, the active model and recent activity.
type Dashboard struct {
	Stats       repository.TicketStats
	ActiveModel *domain.ModelLog
	Recent      []domain.TicketView
}

const recentTicketCount = 10

// Dashboard loads the admin landing page data.
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	repos := s.store.Repos()
	stats, err := repos.Tickets.Stats(ctx)
	if err != nil {
		return nil, mapError(err, "ticket", 0)
	}
	recent, err := repos.Tickets.List(ctx, repository.TicketFilter{Limit: recentTicketCount})
	if err != nil {
		return nil, mapError(err, "ticket", 0)
	}
	dashboard := &Dashboard{Stats: stats, Recent: recent}

	model, err := repos.ModelLogs.GetActive(ctx)
	switch {
	case err == nil:
		dashboard.ActiveModel = model
	case !errors.Is(err, repository.ErrNotFound):
		return nil, mapError(err, "model log", 0)
	}
	return dashboard, nil
}

// ListTickets returns tickets matching filter.
func (s *AdminService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.TicketView, error) {
	tickets, err := s.store.Repos().Tickets.List(ctx, filter)
	if err != nil {
		return nil, mapError(err, "ticket", 0)
	}
	return tickets, nil
}

// FlaggedQueue lists tickets waiting for manual assignment, most urgent first.
func (s *AdminService) FlaggedQueue(ctx context.Context, limit, offset int) ([]domain.TicketView, error) {
	return s.ListTickets(ctx, repository.TicketFilter{
		AwaitingManual: true,
		ByPriority:     true,
		Limit:          limit,
		Offset:         offset,
	})
}

// ExportTickets writes the xlsx ticket report.
func (s *AdminService) ExportTickets(ctx context.Context, w io.Writer) error {
	repos := s.store.Repos()
	tickets, err := repos.Tickets.List(ctx, repository.TicketFilter{Limit: 500})
	if err != nil {
		return mapError(err, "ticket", 0)
	}
	stats, err := repos.Tickets.Stats(ctx)
	if err != nil {
		return mapError(err, "ticket", 0)
	}
	if err := report.WriteTickets(w, tickets, stats, s.now()); err != nil {
		return mapError(err, "report", 0)
	}
	return nil
}

// RegisterModel records meta as the active model unless an identical
// artifact is already active.
func (s *AdminService) RegisterModel(ctx context.Context, meta classifier.Metadata, path string) (*domain.ModelLog, error) {
	now := s.now()
	var entry *domain.ModelLog
	err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
		active, err := tx.ModelLogs.GetActive(ctx)
		switch {
		case err == nil && active.ModelVersion == meta.ModelVersion && active.ModelFilePath == path:
			entry = active
			return nil
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return err
		}
		if err := tx.ModelLogs.DeactivateAll(ctx); err != nil {
			return err
		}
		entry = &domain.ModelLog{
			ModelVersion:    meta.ModelVersion,
			ModelType:       meta.ModelType,
			DatasetSize:     meta.DatasetSize,
			TrainingSamples: meta.TrainingSamples,
			TestingSamples:  meta.TestingSamples,
			Accuracy:        meta.Accuracy,
			ModelFilePath:   path,
			Active:          true,
			TrainingDate:    parseTrainingDate(meta.TrainingDate, now),
			DeployedAt:      &now,
		}
		return tx.ModelLogs.Create(ctx, entry)
	})
	if err != nil {
		return nil, mapError(err, "model log", 0)
	}
	s.logger.Info("classifier model registered",
		zap.Int64("model_log_id", entry.ID),
		zap.String("version", entry.ModelVersion),
		zap.Float64("accuracy", entry.Accuracy))
	return entry, nil
}

func parseTrainingDate(raw string, fallback time.Time) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
