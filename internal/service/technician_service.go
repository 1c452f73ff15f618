package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

// TechnicianService exposes the roster and keeps workload counters honest.
type TechnicianService struct {
	store  repository.Store
	audit  *AuditService
	logger *zap.Logger
}

// NewTechnicianService constructs the service.
func NewTechnicianService(store repository.Store, audit *AuditService, logger *zap.Logger) *TechnicianService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TechnicianService{store: store, audit: audit, logger: logger}
}

// List returns every technician ordered by id.
func (s *TechnicianService) List(ctx context.Context) ([]domain.Technician, error) {
	techs, err := s.store.Repos().Technicians.List(ctx)
	if err != nil {
		return nil, mapError(err, "technician", 0)
	}
	return techs, nil
}

// WorkloadDrift is a technician whose stored workload disagrees with the
// number of active assignments on open tickets.
type WorkloadDrift struct {
	TechnicianID int64
	Name         string
	Stored       int
	Actual       int
}

// ReconcileWorkload recomputes every technician's workload. With fix set the
// stored counters are overwritten in one transaction.
func (s *TechnicianService) ReconcileWorkload(ctx context.Context, fix bool) ([]WorkloadDrift, error) {
	var drifts []WorkloadDrift
	err := s.store.WithTx(ctx, func(tx repository.Repositories) error {
		techs, err := tx.Technicians.List(ctx)
		if err != nil {
			return err
		}
		counts, err := tx.Assignments.OpenCountsByTechnician(ctx)
		if err != nil {
			return err
		}
		for _, tech := range techs {
			actual := counts[tech.ID]
			if tech.CurrentWorkload == actual {
				continue
			}
			drifts = append(drifts, WorkloadDrift{TechnicianID: tech.ID, Name: tech.Name, Stored: tech.CurrentWorkload, Actual: actual})
			if fix {
				if err := tx.Technicians.SetWorkload(ctx, tech.ID, actual); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err, "technician", 0)
	}

	for _, d := range drifts {
		s.logger.Warn("technician workload drift",
			zap.Int64("technician_id", d.TechnicianID),
			zap.Int("stored", d.Stored),
			zap.Int("actual", d.Actual),
			zap.Bool("fixed", fix))
	}
	if fix && len(drifts) > 0 {
		s.audit.Record(ctx, AuditEntry{
			Type:    domain.AuditWorkloadReconciled,
			Action:  "reconcile workload",
			Details: fmt.Sprintf("corrected %d technicians", len(drifts)),
			Status:  domain.AuditWarning,
		})
	}
	return drifts, nil
}
