package repository

import (
	"fmt"
	"strings"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

// TicketViewSelect reads a ticket with its owner and the technician on its
// most recent assignment, active rows first.
const TicketViewSelect = `
        SELECT t.id, t.ticket_number, t.subject, t.description, t.category, t.priority, t.status, t.user_id,
               t.confidence_score, t.flagged_for_manual_review, t.manual_assignment_reason,
               t.submitted_at, t.classified_at, t.assigned_at, t.in_progress_at, t.resolved_at, t.closed_at, t.updated_at,
               u.name AS user_name, a.technician_id AS technician_id, tech.name AS technician_name
        FROM tickets t
        JOIN users u ON u.id = t.user_id
        LEFT JOIN assignments a ON a.id = (
            SELECT a2.id FROM assignments a2 WHERE a2.ticket_id = t.id
            ORDER BY a2.is_active DESC, a2.assigned_at DESC, a2.id DESC LIMIT 1)
        LEFT JOIN technicians tech ON tech.id = a.technician_id`

const priorityOrder = `CASE t.priority WHEN 'Critical' THEN 1 WHEN 'High' THEN 2 WHEN 'Medium' THEN 3 WHEN 'Low' THEN 4 ELSE 5 END`

// BuildTicketListQuery renders filter as SQL. placeholder returns the bind
// marker for the n-th argument, starting at 1.
func BuildTicketListQuery(filter TicketFilter, placeholder func(n int) string) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	bind := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.UserID != nil {
		clauses = append(clauses, "t.user_id="+bind(*filter.UserID))
	}
	if filter.TechnicianID != nil {
		clauses = append(clauses, "a.technician_id="+bind(*filter.TechnicianID))
	}
	if len(filter.Statuses) > 0 {
		marks := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			marks[i] = bind(string(status))
		}
		clauses = append(clauses, fmt.Sprintf("t.status IN (%s)", strings.Join(marks, ",")))
	}
	excluded := filter.ExcludeStatuses
	if filter.AwaitingManual {
		clauses = append(clauses, "t.flagged_for_manual_review="+bind(true))
		excluded = append(append([]domain.TicketStatus{}, excluded...), PickedUpStatuses...)
	}
	if len(excluded) > 0 {
		marks := make([]string, len(excluded))
		for i, status := range excluded {
			marks[i] = bind(string(status))
		}
		clauses = append(clauses, fmt.Sprintf("t.status NOT IN (%s)", strings.Join(marks, ",")))
	}

	order := "t.submitted_at DESC, t.id DESC"
	if filter.ByPriority {
		order = priorityOrder + ", t.submitted_at ASC, t.id ASC"
	}

	limit, offset := NormalizeLimit(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		TicketViewSelect, strings.Join(clauses, " AND "), order, limit, offset)
	return query, args
}
