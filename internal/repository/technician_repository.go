package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

type technicianRepository struct {
	db pgQuerier
}

const technicianColumns = `id, name, email, phone, password_hash, skills, current_workload, max_workload,
               availability_status, expertise_level, total_tickets_resolved, is_active, created_at, last_login`

func (r *technicianRepository) Create(ctx context.Context, tech *domain.Technician) error {
	const query = `
        INSERT INTO technicians (name, email, phone, password_hash, skills, current_workload, max_workload,
            availability_status, expertise_level, total_tickets_resolved, is_active, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id`

	if tech.CreatedAt.IsZero() {
		tech.CreatedAt = time.Now().UTC()
	}
	skills := tech.Skills
	if skills == nil {
		skills = []string{}
	}
	return r.db.QueryRow(ctx, query,
		tech.Name,
		tech.Email,
		tech.Phone,
		tech.PasswordHash,
		skills,
		tech.CurrentWorkload,
		tech.MaxWorkload,
		tech.AvailabilityStatus,
		tech.ExpertiseLevel,
		tech.TotalTicketsResolved,
		tech.Active,
		tech.CreatedAt,
	).Scan(&tech.ID)
}

func (r *technicianRepository) GetByID(ctx context.Context, id int64) (*domain.Technician, error) {
	return r.fetch(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE id=$1`, id)
}

func (r *technicianRepository) GetByEmail(ctx context.Context, email string) (*domain.Technician, error) {
	return r.fetch(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *technicianRepository) fetch(ctx context.Context, query string, arg any) (*domain.Technician, error) {
	tech, err := scanTechnician(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, pgErr(err)
	}
	return tech, nil
}

func (r *technicianRepository) List(ctx context.Context) ([]domain.Technician, error) {
	rows, err := r.db.Query(ctx, `SELECT `+technicianColumns+` FROM technicians ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Technician
	for rows.Next() {
		tech, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tech)
	}
	return result, rows.Err()
}

func scanTechnician(row pgx.Row) (*domain.Technician, error) {
	var tech domain.Technician
	if err := row.Scan(
		&tech.ID,
		&tech.Name,
		&tech.Email,
		&tech.Phone,
		&tech.PasswordHash,
		&tech.Skills,
		&tech.CurrentWorkload,
		&tech.MaxWorkload,
		&tech.AvailabilityStatus,
		&tech.ExpertiseLevel,
		&tech.TotalTicketsResolved,
		&tech.Active,
		&tech.CreatedAt,
		&tech.LastLogin,
	); err != nil {
		return nil, err
	}
	return &tech, nil
}

func (r *technicianRepository) AdjustWorkload(ctx context.Context, id int64, delta int) error {
	const query = `
        UPDATE technicians SET current_workload = GREATEST(current_workload + $1, 0)
        WHERE id=$2`
	return requireRow(r.db.Exec(ctx, query, delta, id))
}

func (r *technicianRepository) SetWorkload(ctx context.Context, id int64, workload int) error {
	if workload < 0 {
		workload = 0
	}
	return requireRow(r.db.Exec(ctx, `UPDATE technicians SET current_workload=$1 WHERE id=$2`, workload, id))
}

func (r *technicianRepository) IncrementResolved(ctx context.Context, id int64) error {
	const query = `UPDATE technicians SET total_tickets_resolved = total_tickets_resolved + 1 WHERE id=$1`
	return requireRow(r.db.Exec(ctx, query, id))
}

func (r *technicianRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return requireRow(r.db.Exec(ctx, `UPDATE technicians SET password_hash=$1 WHERE id=$2`, hash, id))
}

func (r *technicianRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return requireRow(r.db.Exec(ctx, `UPDATE technicians SET last_login=$1 WHERE id=$2`, at, id))
}
