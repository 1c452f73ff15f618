package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/api/dto"
	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/events"
	"github.com/helpdesk-ml/helpdesk/internal/service"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

const defaultStreamHeartbeat = 25 * time.Second

// TechnicianHandler serves the technician work queue and live stream.
type TechnicianHandler struct {
	tickets   *service.TicketService
	bus       events.Bus
	validator *dto.Validator
	logger    *zap.Logger
	heartbeat time.Duration
}

// NewTechnicianHandler constructs handler. heartbeat is the idle interval
// between stream keep-alives; zero selects the default.
func NewTechnicianHandler(tickets *service.TicketService, bus events.Bus, validator *dto.Validator, logger *zap.Logger, heartbeat time.Duration) *TechnicianHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = defaultStreamHeartbeat
	}
	return &TechnicianHandler{tickets: tickets, bus: bus, validator: validator, logger: logger, heartbeat: heartbeat}
}

// Queue GET /technician/tickets.
func (h *TechnicianHandler) Queue(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.TechnicianQueue(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketViewList(tickets)})
}

// Stats GET /technician/stats.
func (h *TechnicianHandler) Stats(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.tickets.TechnicianStats(c.UserContext(), actor.ID)
	if err != nil {
		return err
	}
	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[string(status)] = n
	}
	return c.JSON(fiber.Map{"data": dto.TechnicianStatsResponse{
		Technician: technicianResponse(&stats.Technician),
		ByStatus:   byStatus,
	}})
}

// UpdateStatus PUT /technician/tickets/:id/status.
func (h *TechnicianHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), actor.ID, id, domain.TicketStatus(req.Status), req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Stream GET /technician/stream is a server-sent event feed of the
// technician's assignments.
func (h *TechnicianHandler) Stream(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	topic := events.TechnicianTopic(actor.ID)

	// the request context ends when the handler returns, long before the stream does
	ctx, cancel := context.WithCancel(context.Background())
	feed, unsubscribe, err := h.bus.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return apperrors.NewInternalError(err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logger := h.logger.With(zap.String("topic", topic))
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer unsubscribe()
		logger.Debug("stream opened")

		heartbeat := time.NewTicker(h.heartbeat)
		defer heartbeat.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case event, ok := <-feed:
				if !ok {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					logger.Warn("stream event not encodable", zap.Error(err))
					continue
				}
				fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, payload)
			case <-heartbeat.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				logger.Debug("stream closed", zap.Error(err))
				return
			}
		}
	}))
	return nil
}
