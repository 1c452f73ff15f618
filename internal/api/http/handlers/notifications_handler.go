package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-ml/helpdesk/internal/api/dto"
	"github.com/helpdesk-ml/helpdesk/internal/service"
)

// NotificationsHandler exposes the caller's inbox.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notifications}
}

// List GET /me/notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	inbox, err := h.service.List(c.UserContext(), actor, parseInt(c.Query("limit"), 20))
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(inbox.Notifications))
	for _, n := range inbox.Notifications {
		items = append(items, dto.NotificationResponse{
			ID:       n.ID,
			TicketID: n.TicketID,
			Type:     string(n.Type),
			Title:    n.Title,
			Message:  n.Message,
			Read:     n.Read,
			SentAt:   n.SentAt,
			ReadAt:   n.ReadAt,
			Age:      age(n.SentAt),
		})
	}
	return c.JSON(fiber.Map{"data": dto.InboxResponse{Unread: inbox.Unread, Notifications: items}})
}

// MarkRead POST /me/notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.MarkRead(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
