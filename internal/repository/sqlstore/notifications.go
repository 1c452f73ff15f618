package sqlstore

import (
	"context"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

type notificationRow struct {
	ID       int64      `db:"id"`
	UserType string     `db:"user_type"`
	UserID   int64      `db:"user_id"`
	TicketID *int64     `db:"ticket_id"`
	Type     string     `db:"notification_type"`
	Title    string     `db:"title"`
	Message  string     `db:"message"`
	Read     bool       `db:"is_read"`
	SentAt   time.Time  `db:"sent_at"`
	ReadAt   *time.Time `db:"read_at"`
}

type notificationRepository struct {
	q querier
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_type, user_id, ticket_id, notification_type, title, message, is_read, sent_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := insert(ctx, r.q, query,
		string(n.UserType), n.UserID, n.TicketID, string(n.Type), n.Title, n.Message, n.Read, n.SentAt)
	if err != nil {
		return err
	}
	n.ID = id
	return nil
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, userType domain.SubjectType, userID int64, limit int) ([]domain.Notification, error) {
	limit, _ = repository.NormalizeLimit(limit, 0)
	const query = `
        SELECT id, user_type, user_id, ticket_id, notification_type, title, message, is_read, sent_at, read_at
        FROM notifications WHERE user_type=? AND user_id=?
        ORDER BY sent_at DESC, id DESC LIMIT ?`
	var rows []notificationRow
	if err := selectRows(ctx, r.q, &rows, query, string(userType), userID, limit); err != nil {
		return nil, err
	}
	result := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.Notification{
			ID:       row.ID,
			UserType: domain.SubjectType(row.UserType),
			UserID:   row.UserID,
			TicketID: row.TicketID,
			Type:     domain.NotificationType(row.Type),
			Title:    row.Title,
			Message:  row.Message,
			Read:     row.Read,
			SentAt:   row.SentAt,
			ReadAt:   row.ReadAt,
		})
	}
	return result, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userType domain.SubjectType, userID int64) (int, error) {
	var count int
	const query = `SELECT COUNT(*) FROM notifications WHERE user_type=? AND user_id=? AND is_read=?`
	err := get(ctx, r.q, &count, query, string(userType), userID, false)
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64, userType domain.SubjectType, userID int64, at time.Time) error {
	const query = `
        UPDATE notifications SET is_read=?, read_at=COALESCE(read_at, ?)
        WHERE id=? AND user_type=? AND user_id=?`
	return execOne(ctx, r.q, query, true, at, id, string(userType), userID)
}
