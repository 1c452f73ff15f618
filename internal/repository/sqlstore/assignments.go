package sqlstore

import (
	"context"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

type assignmentRow struct {
	ID              int64      `db:"id"`
	TicketID        int64      `db:"ticket_id"`
	TechnicianID    int64      `db:"technician_id"`
	AssignedBy      string     `db:"assigned_by"`
	AssignedAt      time.Time  `db:"assigned_at"`
	AcceptedAt      *time.Time `db:"accepted_at"`
	CompletedAt     *time.Time `db:"completed_at"`
	Notes           *string    `db:"notes"`
	ResolutionNotes *string    `db:"resolution_notes"`
	Active          bool       `db:"is_active"`
}

func (r assignmentRow) toDomain() domain.Assignment {
	return domain.Assignment{
		ID:              r.ID,
		TicketID:        r.TicketID,
		TechnicianID:    r.TechnicianID,
		AssignedBy:      domain.AssignedBy(r.AssignedBy),
		AssignedAt:      r.AssignedAt,
		AcceptedAt:      r.AcceptedAt,
		CompletedAt:     r.CompletedAt,
		Notes:           r.Notes,
		ResolutionNotes: r.ResolutionNotes,
		Active:          r.Active,
	}
}

type assignmentRepository struct {
	q querier
}

const assignmentColumns = `id, ticket_id, technician_id, assigned_by, assigned_at, accepted_at, completed_at,
        notes, resolution_notes, is_active`

func (r *assignmentRepository) Create(ctx context.Context, a *domain.Assignment) error {
	const query = `
        INSERT INTO assignments (ticket_id, technician_id, assigned_by, assigned_at, accepted_at, completed_at,
            notes, resolution_notes, is_active)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insert(ctx, r.q, query,
		a.TicketID,
		a.TechnicianID,
		string(a.AssignedBy),
		a.AssignedAt,
		a.AcceptedAt,
		a.CompletedAt,
		a.Notes,
		a.ResolutionNotes,
		a.Active,
	)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (r *assignmentRepository) Update(ctx context.Context, a *domain.Assignment) error {
	const query = `
        UPDATE assignments SET accepted_at=?, completed_at=?, notes=?, resolution_notes=?, is_active=?
        WHERE id=?`
	return execOne(ctx, r.q, query, a.AcceptedAt, a.CompletedAt, a.Notes, a.ResolutionNotes, a.Active, a.ID)
}

func (r *assignmentRepository) GetActiveByTicket(ctx context.Context, ticketID int64) (*domain.Assignment, error) {
	var row assignmentRow
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE ticket_id=? AND is_active=?`
	if err := get(ctx, r.q, &row, query, ticketID, true); err != nil {
		return nil, err
	}
	a := row.toDomain()
	return &a, nil
}

func (r *assignmentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Assignment, error) {
	var rows []assignmentRow
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE ticket_id=? ORDER BY assigned_at, id`
	if err := selectRows(ctx, r.q, &rows, query, ticketID); err != nil {
		return nil, err
	}
	result := make([]domain.Assignment, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (r *assignmentRepository) OpenCountsByTechnician(ctx context.Context) (map[int64]int, error) {
	const query = `
        SELECT a.technician_id AS technician_id, COUNT(*) AS count
        FROM assignments a JOIN tickets t ON t.id = a.ticket_id
        WHERE a.is_active=? AND t.status <> 'Closed'
        GROUP BY a.technician_id`
	var rows []struct {
		TechnicianID int64 `db:"technician_id"`
		Count        int   `db:"count"`
	}
	if err := selectRows(ctx, r.q, &rows, query, true); err != nil {
		return nil, err
	}
	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.TechnicianID] = row.Count
	}
	return counts, nil
}
