package sqlstore

import (
	"context"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

type technicianRow struct {
	ID                   int64      `db:"id"`
	Name                 string     `db:"name"`
	Email                string     `db:"email"`
	Phone                string     `db:"phone"`
	PasswordHash         string     `db:"password_hash"`
	Skills               string     `db:"skills"`
	CurrentWorkload      int        `db:"current_workload"`
	MaxWorkload          int        `db:"max_workload"`
	AvailabilityStatus   string     `db:"availability_status"`
	ExpertiseLevel       string     `db:"expertise_level"`
	TotalTicketsResolved int        `db:"total_tickets_resolved"`
	Active               bool       `db:"is_active"`
	CreatedAt            time.Time  `db:"created_at"`
	LastLogin            *time.Time `db:"last_login"`
}

func (r technicianRow) toDomain() domain.Technician {
	return domain.Technician{
		ID:                   r.ID,
		Name:                 r.Name,
		Email:                r.Email,
		Phone:                r.Phone,
		PasswordHash:         r.PasswordHash,
		Skills:               domain.ParseSkills(r.Skills),
		CurrentWorkload:      r.CurrentWorkload,
		MaxWorkload:          r.MaxWorkload,
		AvailabilityStatus:   domain.AvailabilityStatus(r.AvailabilityStatus),
		ExpertiseLevel:       r.ExpertiseLevel,
		TotalTicketsResolved: r.TotalTicketsResolved,
		Active:               r.Active,
		CreatedAt:            r.CreatedAt,
		LastLogin:            r.LastLogin,
	}
}

type technicianRepository struct {
	q querier
}

const technicianColumns = `id, name, email, phone, password_hash, skills, current_workload, max_workload,
        availability_status, expertise_level, total_tickets_resolved, is_active, created_at, last_login`

func (r *technicianRepository) Create(ctx context.Context, tech *domain.Technician) error {
	const query = `
        INSERT INTO technicians (name, email, phone, password_hash, skills, current_workload, max_workload,
            availability_status, expertise_level, total_tickets_resolved, is_active, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if tech.CreatedAt.IsZero() {
		tech.CreatedAt = time.Now().UTC()
	}
	id, err := insert(ctx, r.q, query,
		tech.Name,
		tech.Email,
		tech.Phone,
		tech.PasswordHash,
		domain.JoinSkills(tech.Skills),
		tech.CurrentWorkload,
		tech.MaxWorkload,
		string(tech.AvailabilityStatus),
		tech.ExpertiseLevel,
		tech.TotalTicketsResolved,
		tech.Active,
		tech.CreatedAt,
	)
	if err != nil {
		return err
	}
	tech.ID = id
	return nil
}

func (r *technicianRepository) GetByID(ctx context.Context, id int64) (*domain.Technician, error) {
	var row technicianRow
	if err := get(ctx, r.q, &row, `SELECT `+technicianColumns+` FROM technicians WHERE id=?`, id); err != nil {
		return nil, err
	}
	tech := row.toDomain()
	return &tech, nil
}

func (r *technicianRepository) GetByEmail(ctx context.Context, email string) (*domain.Technician, error) {
	var row technicianRow
	if err := get(ctx, r.q, &row, `SELECT `+technicianColumns+` FROM technicians WHERE LOWER(email)=LOWER(?)`, email); err != nil {
		return nil, err
	}
	tech := row.toDomain()
	return &tech, nil
}

func (r *technicianRepository) List(ctx context.Context) ([]domain.Technician, error) {
	var rows []technicianRow
	if err := selectRows(ctx, r.q, &rows, `SELECT `+technicianColumns+` FROM technicians ORDER BY id`); err != nil {
		return nil, err
	}
	result := make([]domain.Technician, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (r *technicianRepository) AdjustWorkload(ctx context.Context, id int64, delta int) error {
	const query = `
        UPDATE technicians
        SET current_workload = CASE WHEN current_workload + ? < 0 THEN 0 ELSE current_workload + ? END
        WHERE id=?`
	return execOne(ctx, r.q, query, delta, delta, id)
}

func (r *technicianRepository) SetWorkload(ctx context.Context, id int64, workload int) error {
	if workload < 0 {
		workload = 0
	}
	return execOne(ctx, r.q, `UPDATE technicians SET current_workload=? WHERE id=?`, workload, id)
}

func (r *technicianRepository) IncrementResolved(ctx context.Context, id int64) error {
	return execOne(ctx, r.q, `UPDATE technicians SET total_tickets_resolved = total_tickets_resolved + 1 WHERE id=?`, id)
}

func (r *technicianRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return execOne(ctx, r.q, `UPDATE technicians SET password_hash=? WHERE id=?`, hash, id)
}

func (r *technicianRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	return execOne(ctx, r.q, `UPDATE technicians SET last_login=? WHERE id=?`, at, id)
}
