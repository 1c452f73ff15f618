package repository

import (
	"context"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

type notificationRepository struct {
	db pgQuerier
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_type, user_id, ticket_id, notification_type, title, message, is_read, sent_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		n.UserType,
		n.UserID,
		n.TicketID,
		n.Type,
		n.Title,
		n.Message,
		n.Read,
		n.SentAt,
	).Scan(&n.ID)
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, userType domain.SubjectType, userID int64, limit int) ([]domain.Notification, error) {
	limit, _ = NormalizeLimit(limit, 0)
	const query = `
        SELECT id, user_type, user_id, ticket_id, notification_type, title, message, is_read, sent_at, read_at
        FROM notifications WHERE user_type=$1 AND user_id=$2
        ORDER BY sent_at DESC, id DESC LIMIT $3`
	rows, err := r.db.Query(ctx, query, userType, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserType,
			&n.UserID,
			&n.TicketID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Read,
			&n.SentAt,
			&n.ReadAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, userType domain.SubjectType, userID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_type=$1 AND user_id=$2 AND NOT is_read`
	var count int
	err := r.db.QueryRow(ctx, query, userType, userID).Scan(&count)
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64, userType domain.SubjectType, userID int64, at time.Time) error {
	const query = `
        UPDATE notifications SET is_read=TRUE, read_at=COALESCE(read_at, $1)
        WHERE id=$2 AND user_type=$3 AND user_id=$4`
	return requireRow(r.db.Exec(ctx, query, at, id, userType, userID))
}
