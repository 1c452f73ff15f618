package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

type ticketRepository struct {
	db pgQuerier
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, subject, description, category, priority, status, user_id,
            confidence_score, flagged_for_manual_review, manual_assignment_reason,
            submitted_at, classified_at, assigned_at, in_progress_at, resolved_at, closed_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		ticket.Number,
		ticket.Subject,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.UserID,
		ticket.ConfidenceScore,
		ticket.FlaggedForManualReview,
		ticket.ManualAssignmentReason,
		ticket.SubmittedAt,
		ticket.ClassifiedAt,
		ticket.AssignedAt,
		ticket.InProgressAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.UpdatedAt,
	).Scan(&ticket.ID)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET category=$1, priority=$2, status=$3, confidence_score=$4,
            flagged_for_manual_review=$5, manual_assignment_reason=$6, classified_at=$7, assigned_at=$8,
            in_progress_at=$9, resolved_at=$10, closed_at=$11, updated_at=$12
        WHERE id=$13`
	return requireRow(r.db.Exec(ctx, query,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.ConfidenceScore,
		ticket.FlaggedForManualReview,
		ticket.ManualAssignmentReason,
		ticket.ClassifiedAt,
		ticket.AssignedAt,
		ticket.InProgressAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.UpdatedAt,
		ticket.ID,
	))
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, ticket_number, subject, description, category, priority, status, user_id,
               confidence_score, flagged_for_manual_review, manual_assignment_reason,
               submitted_at, classified_at, assigned_at, in_progress_at, resolved_at, closed_at, updated_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.db.QueryRow(ctx, query, id).Scan(ticketFields(&ticket)...); err != nil {
		return nil, pgErr(err)
	}
	return &ticket, nil
}

func (r *ticketRepository) GetView(ctx context.Context, id int64) (*domain.TicketView, error) {
	view, err := scanTicketView(r.db.QueryRow(ctx, TicketViewSelect+` WHERE t.id=$1`, id))
	if err != nil {
		return nil, pgErr(err)
	}
	return view, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.TicketView, error) {
	query, args := BuildTicketListQuery(filter, func(n int) string { return fmt.Sprintf("$%d", n) })
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketView
	for rows.Next() {
		view, err := scanTicketView(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *view)
	}
	return result, rows.Err()
}

func (r *ticketRepository) Stats(ctx context.Context) (TicketStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status NOT IN ('Resolved','Closed')),
               COUNT(*) FILTER (WHERE status = 'Resolved'),
               COUNT(*) FILTER (WHERE status = 'Closed'),
               COUNT(*) FILTER (WHERE flagged_for_manual_review AND status NOT IN ('Assigned','In Progress','Resolved','Closed'))
        FROM tickets`
	stats := TicketStats{ByCategory: map[string]int{}}
	if err := r.db.QueryRow(ctx, query).Scan(&stats.Total, &stats.Open, &stats.Resolved, &stats.Closed, &stats.Flagged); err != nil {
		return stats, err
	}

	rows, err := r.db.Query(ctx, `SELECT category, COUNT(*) FROM tickets WHERE category IS NOT NULL GROUP BY category`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return stats, err
		}
		stats.ByCategory[category] = count
	}
	return stats, rows.Err()
}

func (r *ticketRepository) StatusCounts(ctx context.Context, technicianID int64) (map[domain.TicketStatus]int, error) {
	const query = `
        SELECT t.status, COUNT(DISTINCT t.id)
        FROM tickets t JOIN assignments a ON a.ticket_id = t.id
        WHERE a.technician_id=$1
        GROUP BY t.status`
	rows, err := r.db.Query(ctx, query, technicianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TicketStatus]int)
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func ticketFields(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.Number,
		&t.Subject,
		&t.Description,
		&t.Category,
		&t.Priority,
		&t.Status,
		&t.UserID,
		&t.ConfidenceScore,
		&t.FlaggedForManualReview,
		&t.ManualAssignmentReason,
		&t.SubmittedAt,
		&t.ClassifiedAt,
		&t.AssignedAt,
		&t.InProgressAt,
		&t.ResolvedAt,
		&t.ClosedAt,
		&t.UpdatedAt,
	}
}

func scanTicketView(row pgx.Row) (*domain.TicketView, error) {
	var view domain.TicketView
	dest := append(ticketFields(&view.Ticket), &view.UserName, &view.TechnicianID, &view.TechnicianName)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &view, nil
}
