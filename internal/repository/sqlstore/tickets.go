package sqlstore

import (
	"context"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

type ticketRow struct {
	ID                     int64      `db:"id"`
	Number                 string     `db:"ticket_number"`
	Subject                string     `db:"subject"`
	Description            string     `db:"description"`
	Category               *string    `db:"category"`
	Priority               string     `db:"priority"`
	Status                 string     `db:"status"`
	UserID                 int64      `db:"user_id"`
	ConfidenceScore        *float64   `db:"confidence_score"`
	FlaggedForManualReview bool       `db:"flagged_for_manual_review"`
	ManualAssignmentReason *string    `db:"manual_assignment_reason"`
	SubmittedAt            time.Time  `db:"submitted_at"`
	ClassifiedAt           *time.Time `db:"classified_at"`
	AssignedAt             *time.Time `db:"assigned_at"`
	InProgressAt           *time.Time `db:"in_progress_at"`
	ResolvedAt             *time.Time `db:"resolved_at"`
	ClosedAt               *time.Time `db:"closed_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

func (r ticketRow) toDomain() domain.Ticket {
	return domain.Ticket{
		ID:                     r.ID,
		Number:                 r.Number,
		Subject:                r.Subject,
		Description:            r.Description,
		Category:               r.Category,
		Priority:               domain.TicketPriority(r.Priority),
		Status:                 domain.TicketStatus(r.Status),
		UserID:                 r.UserID,
		ConfidenceScore:        r.ConfidenceScore,
		FlaggedForManualReview: r.FlaggedForManualReview,
		ManualAssignmentReason: r.ManualAssignmentReason,
		SubmittedAt:            r.SubmittedAt,
		ClassifiedAt:           r.ClassifiedAt,
		AssignedAt:             r.AssignedAt,
		InProgressAt:           r.InProgressAt,
		ResolvedAt:             r.ResolvedAt,
		ClosedAt:               r.ClosedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

type ticketViewRow struct {
	ticketRow
	UserName       string  `db:"user_name"`
	TechnicianID   *int64  `db:"technician_id"`
	TechnicianName *string `db:"technician_name"`
}

func (r ticketViewRow) toDomain() domain.TicketView {
	return domain.TicketView{
		Ticket:         r.ticketRow.toDomain(),
		UserName:       r.UserName,
		TechnicianID:   r.TechnicianID,
		TechnicianName: r.TechnicianName,
	}
}

type ticketRepository struct {
	q querier
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, subject, description, category, priority, status, user_id,
            confidence_score, flagged_for_manual_review, manual_assignment_reason,
            submitted_at, classified_at, assigned_at, in_progress_at, resolved_at, closed_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insert(ctx, r.q, query,
		ticket.Number,
		ticket.Subject,
		ticket.Description,
		ticket.Category,
		string(ticket.Priority),
		string(ticket.Status),
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
	)
	if err != nil {
		return err
	}
	ticket.ID = id
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET category=?, priority=?, status=?, confidence_score=?,
            flagged_for_manual_review=?, manual_assignment_reason=?, classified_at=?, assigned_at=?,
            in_progress_at=?, resolved_at=?, closed_at=?, updated_at=?
        WHERE id=?`
	return execOne(ctx, r.q, query,
		ticket.Category,
		string(ticket.Priority),
		string(ticket.Status),
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
	)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `
        SELECT id, ticket_number, subject, description, category, priority, status, user_id,
               confidence_score, flagged_for_manual_review, manual_assignment_reason,
               submitted_at, classified_at, assigned_at, in_progress_at, resolved_at, closed_at, updated_at
        FROM tickets WHERE id=?`
	var row ticketRow
	if err := get(ctx, r.q, &row, query, id); err != nil {
		return nil, err
	}
	ticket := row.toDomain()
	return &ticket, nil
}

func (r *ticketRepository) GetView(ctx context.Context, id int64) (*domain.TicketView, error) {
	var row ticketViewRow
	if err := get(ctx, r.q, &row, repository.TicketViewSelect+` WHERE t.id=?`, id); err != nil {
		return nil, err
	}
	view := row.toDomain()
	return &view, nil
}

func (r *ticketRepository) List(ctx context.Context, filter repository.TicketFilter) ([]domain.TicketView, error) {
	query, args := repository.BuildTicketListQuery(filter, func(int) string { return "?" })
	var rows []ticketViewRow
	if err := selectRows(ctx, r.q, &rows, query, args...); err != nil {
		return nil, err
	}
	result := make([]domain.TicketView, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (r *ticketRepository) Stats(ctx context.Context) (repository.TicketStats, error) {
	const query = `
        SELECT COUNT(*) AS total,
               COALESCE(SUM(CASE WHEN status NOT IN ('Resolved','Closed') THEN 1 ELSE 0 END), 0) AS open,
               COALESCE(SUM(CASE WHEN status = 'Resolved' THEN 1 ELSE 0 END), 0) AS resolved,
               COALESCE(SUM(CASE WHEN status = 'Closed' THEN 1 ELSE 0 END), 0) AS closed,
               COALESCE(SUM(CASE WHEN flagged_for_manual_review = ?
                   AND status NOT IN ('Assigned','In Progress','Resolved','Closed') THEN 1 ELSE 0 END), 0) AS flagged
        FROM tickets`
	var counts struct {
		Total    int `db:"total"`
		Open     int `db:"open"`
		Resolved int `db:"resolved"`
		Closed   int `db:"closed"`
		Flagged  int `db:"flagged"`
	}
	stats := repository.TicketStats{ByCategory: map[string]int{}}
	if err := get(ctx, r.q, &counts, query, true); err != nil {
		return stats, err
	}
	stats.Total, stats.Open, stats.Resolved, stats.Closed, stats.Flagged =
		counts.Total, counts.Open, counts.Resolved, counts.Closed, counts.Flagged

	var categories []struct {
		Category string `db:"category"`
		Count    int    `db:"count"`
	}
	const byCategory = `SELECT category, COUNT(*) AS count FROM tickets WHERE category IS NOT NULL GROUP BY category`
	if err := selectRows(ctx, r.q, &categories, byCategory); err != nil {
		return stats, err
	}
	for _, c := range categories {
		stats.ByCategory[c.Category] = c.Count
	}
	return stats, nil
}

func (r *ticketRepository) StatusCounts(ctx context.Context, technicianID int64) (map[domain.TicketStatus]int, error) {
	const query = `
        SELECT t.status AS status, COUNT(DISTINCT t.id) AS count
        FROM tickets t JOIN assignments a ON a.ticket_id = t.id
        WHERE a.technician_id=?
        GROUP BY t.status`
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := selectRows(ctx, r.q, &rows, query, technicianID); err != nil {
		return nil, err
	}
	counts := make(map[domain.TicketStatus]int, len(rows))
	for _, row := range rows {
		counts[domain.TicketStatus(row.Status)] = row.Count
	}
	return counts, nil
}
