package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-ml/helpdesk/internal/api/dto"
	"github.com/helpdesk-ml/helpdesk/internal/service"
)

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	service   *service.TicketService
	validator *dto.Validator
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, validator *dto.Validator) *TicketsHandler {
	return &TicketsHandler{service: ticketService, validator: validator}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	result, err := h.service.SubmitTicket(c.UserContext(), actor.ID, service.SubmitTicketInput{
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}

	resp := dto.SubmitTicketResponse{
		Ticket: ticketResponse(&result.Ticket),
		Classification: dto.ClassificationResponse{
			Category:          result.Classification.Category,
			Confidence:        result.Classification.Confidence,
			NeedsManualReview: result.Classification.NeedsManualReview,
			FlagReason:        result.FlagReason,
		},
		Message: "Ticket submitted and queued for manual review",
	}
	if result.Technician != nil {
		resp.Technician = &dto.TechnicianSummary{
			ID:              result.Technician.ID,
			Name:            result.Technician.Name,
			CurrentWorkload: result.Technician.CurrentWorkload,
		}
		resp.Ticket.TechnicianID = &result.Technician.ID
		resp.Ticket.TechnicianName = &result.Technician.Name
		resp.Message = "Ticket submitted and assigned to " + result.Technician.Name
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListForUser(c.UserContext(), actor.ID, parseInt(c.Query("limit"), 0), parseInt(c.Query("offset"), 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketViewList(tickets)})
}

// GetTicket GET /tickets/:id, also mounted for technicians and admins.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.service.GetTicket(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketViewResponse(view)})
}
