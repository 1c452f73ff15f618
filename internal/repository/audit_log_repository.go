package repository

import (
	"context"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

type auditLogRepository struct {
	db pgQuerier
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	const query = `
        INSERT INTO system_logs (log_type, user_type, user_id, action, details, status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		entry.LogType,
		entry.UserType,
		entry.UserID,
		entry.Action,
		entry.Details,
		entry.Status,
		entry.CreatedAt,
	).Scan(&entry.ID)
}

func (r *auditLogRepository) List(ctx context.Context, limit, offset int) ([]domain.AuditLog, error) {
	limit, offset = NormalizeLimit(limit, offset)
	const query = `
        SELECT id, log_type, user_type, user_id, action, details, status, created_at
        FROM system_logs ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(
			&entry.ID,
			&entry.LogType,
			&entry.UserType,
			&entry.UserID,
			&entry.Action,
			&entry.Details,
			&entry.Status,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

type modelLogRepository struct {
	db pgQuerier
}

func (r *modelLogRepository) Create(ctx context.Context, entry *domain.ModelLog) error {
	const query = `
        INSERT INTO model_logs (model_version, model_type, dataset_size, training_samples, testing_samples,
            accuracy, model_file_path, is_active, training_date, deployed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
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
	).Scan(&entry.ID)
}

func (r *modelLogRepository) GetActive(ctx context.Context) (*domain.ModelLog, error) {
	const query = `
        SELECT id, model_version, model_type, dataset_size, training_samples, testing_samples,
               accuracy, model_file_path, is_active, training_date, deployed_at
        FROM model_logs WHERE is_active ORDER BY id DESC LIMIT 1`
	var entry domain.ModelLog
	if err := r.db.QueryRow(ctx, query).Scan(
		&entry.ID,
		&entry.ModelVersion,
		&entry.ModelType,
		&entry.DatasetSize,
		&entry.TrainingSamples,
		&entry.TestingSamples,
		&entry.Accuracy,
		&entry.ModelFilePath,
		&entry.Active,
		&entry.TrainingDate,
		&entry.DeployedAt,
	); err != nil {
		return nil, pgErr(err)
	}
	return &entry, nil
}

func (r *modelLogRepository) DeactivateAll(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `UPDATE model_logs SET is_active=FALSE WHERE is_active`)
	return err
}
