package sqlstore

import (
	"context"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

type auditLogRow struct {
	ID        int64     `db:"id"`
	LogType   string    `db:"log_type"`
	UserType  *string   `db:"user_type"`
	UserID    *int64    `db:"user_id"`
	Action    string    `db:"action"`
	Details   string    `db:"details"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

type auditLogRepository struct {
	q querier
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO system_logs (log_type, user_type, user_id, action, details, status, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
	var userType *string
	if entry.UserType != nil {
		s := string(*entry.UserType)
		userType = &s
	}
	id, err := insert(ctx, r.q, query,
		string(entry.LogType), userType, entry.UserID, entry.Action, entry.Details, string(entry.Status), entry.CreatedAt)
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

func (r *auditLogRepository) List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error) {
	limit, offset = repository.NormalizeLimit(limit, offset)
	const query = `
        SELECT id, log_type, user_type, user_id, action, details, status, created_at
        FROM system_logs ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	var rows []auditLogRow
	if err := selectRows(ctx, r.q, &rows, query, limit, offset); err != nil {
		return nil, err
	}
	result := make([]domain.AuditLog, 0, len(rows))
	for _, row := range rows {
		entry := domain.AuditLog{
			ID:        row.ID,
			LogType:   domain.AuditLogType(row.LogType),
			UserID:    row.UserID,
			Action:    row.Action,
			Details:   row.Details,
			Status:    domain.AuditStatus(row.Status),
			CreatedAt: row.CreatedAt,
		}
		if row.UserType != nil {
			st := domain.SubjectType(*row.UserType)
			entry.UserType = &st
		}
		result = append(result, entry)
	}
	return result, nil
}

type modelLogRow struct {
	ID              int64      `db:"id"`
	ModelVersion    string     `db:"model_version"`
	ModelType       string     `db:"model_type"`
	DatasetSize     int        `db:"dataset_size"`
	TrainingSamples int        `db:"training_samples"`
	TestingSamples  int        `db:"testing_samples"`
	Accuracy        float64    `db:"accuracy"`
	ModelFilePath   string     `db:"model_file_path"`
	Active          bool       `db:"is_active"`
	TrainingDate    time.Time  `db:"training_date"`
	DeployedAt      *time.Time `db:"deployed_at"`
}

type modelLogRepository struct {
	q querier
}

func (r *modelLogRepository) Create(ctx context.Context, entry *domain.ModelLog) error {
	const query = `
        INSERT INTO model_logs (model_version, model_type, dataset_size, training_samples, testing_samples,
            accuracy, model_file_path, is_active, training_date, deployed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insert(ctx, r.q, query,
		entry.ModelVersion,
		entry.ModelType,
		entry.DatasetSize,
		entry.TrainingSamples,
		entry.TestingSamples,
		entry.Accuracy,
		entry.ModelFilePath,
		entry.Active,
		entry.TrainingDate,
		entry.DeployedAt,
	)
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

func (r *modelLogRepository) GetActive(ctx context.Context) (*domain.ModelLog, error) {
	const query = `
        SELECT id, model_version, model_type, dataset_size, training_samples, testing_samples,
               accuracy, model_file_path, is_active, training_date, deployed_at
        FROM model_logs WHERE is_active=? ORDER BY id DESC LIMIT 1`
	var row modelLogRow
	if err := get(ctx, r.q, &row, query, true); err != nil {
		return nil, err
	}
	return &domain.ModelLog{
		ID:              row.ID,
		ModelVersion:    row.ModelVersion,
		ModelType:       row.ModelType,
		DatasetSize:     row.DatasetSize,
		TrainingSamples: row.TrainingSamples,
		TestingSamples:  row.TestingSamples,
		Accuracy:        row.Accuracy,
		ModelFilePath:   row.ModelFilePath,
		Active:          row.Active,
		TrainingDate:    row.TrainingDate,
		DeployedAt:      row.DeployedAt,
	}, nil
}

func (r *modelLogRepository) DeactivateAll(ctx context.Context) error {
	_, err := exec(ctx, r.q, `UPDATE model_logs SET is_active=? WHERE is_active=?`, false, true)
	return err
}
