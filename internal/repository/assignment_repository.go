package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

type assignmentRepository struct {
	db pgQuerier
}

const assignmentColumns = `id, ticket_id, technician_id, assigned_by, assigned_at, accepted_at, completed_at,
               notes, resolution_notes, is_active`

func (r *assignmentRepository) Create(ctx context.Context, a *domain.Assignment) error {
	const query = `
        INSERT INTO assignments (ticket_id, technician_id, assigned_by, assigned_at, accepted_at, completed_at,
            notes, resolution_notes, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		a.TicketID,
		a.TechnicianID,
		a.AssignedBy,
		a.AssignedAt,
		a.AcceptedAt,
		a.CompletedAt,
		a.Notes,
		a.ResolutionNotes,
		a.Active,
	).Scan(&a.ID)
}

func (r *assignmentRepository) Update(ctx context.Context, a *domain.Assignment) error {
	const query = `
        UPDATE assignments SET accepted_at=$1, completed_at=$2, notes=$3, resolution_notes=$4, is_active=$5
        WHERE id=$6`
	return requireRow(r.db.Exec(ctx, query,
		a.AcceptedAt,
		a.CompletedAt,
		a.Notes,
		a.ResolutionNotes,
		a.Active,
		a.ID,
	))
}

func (r *assignmentRepository) GetActiveByTicket(ctx context.Context, ticketID int64) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE ticket_id=$1 AND is_active`
	a, err := scanAssignment(r.db.QueryRow(ctx, query, ticketID))
	if err != nil {
		return nil, pgErr(err)
	}
	return a, nil
}

func (r *assignmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE ticket_id=$1 ORDER BY assigned_at, id`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *assignmentRepository) OpenCountsByTechnician(ctx context.Context) (map[int64]int, error) {
	const query = `
        SELECT a.technician_id, COUNT(*)
        FROM assignments a JOIN tickets t ON t.id = a.ticket_id
        WHERE a.is_active AND t.status <> 'Closed'
        GROUP BY a.technician_id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var id int64
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var a domain.Assignment
	if err := row.Scan(
		&a.ID,
		&a.TicketID,
		&a.TechnicianID,
		&a.AssignedBy,
		&a.AssignedAt,
		&a.AcceptedAt,
		&a.CompletedAt,
		&a.Notes,
		&a.ResolutionNotes,
		&a.Active,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
