package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-ml/helpdesk/internal/api/dto"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	"github.com/helpdesk-ml/helpdesk/internal/service"
)

// AdminHandler serves the admin console API.
type AdminHandler struct {
	admin       *service.AdminService
	tickets     *service.TicketService
	assignments *service.AssignmentService
	technicians *service.TechnicianService
	accounts    *service.AccountService
	audit       *service.AuditService
	validator   *dto.Validator
}

// AdminDependencies bundles the services behind the admin routes.
type AdminDependencies struct {
	Admin       *service.AdminService
	Tickets     *service.TicketService
	Assignments *service.AssignmentService
	Technicians *service.TechnicianService
	Accounts    *service.AccountService
	Audit       *service.AuditService
	Validator   *dto.Validator
}

// NewAdminHandler constructs handler.
func NewAdminHandler(deps AdminDependencies) *AdminHandler {
	return &AdminHandler{
		admin:       deps.Admin,
		tickets:     deps.Tickets,
		assignments: deps.Assignments,
		technicians: deps.Technicians,
		accounts:    deps.Accounts,
		audit:       deps.Audit,
		validator:   deps.Validator,
	}
}

// Dashboard GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.admin.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	resp := dto.DashboardResponse{
		TotalTickets:    dashboard.Stats.Total,
		OpenTickets:     dashboard.Stats.Open,
		ResolvedTickets: dashboard.Stats.Resolved,
		ClosedTickets:   dashboard.Stats.Closed,
		FlaggedTickets:  dashboard.Stats.Flagged,
		ByCategory:      dashboard.Stats.ByCategory,
		Recent:          ticketViewList(dashboard.Recent),
	}
	if m := dashboard.ActiveModel; m != nil {
		resp.ActiveModel = &dto.ModelResponse{
			Version:    m.ModelVersion,
			Type:       m.ModelType,
			Accuracy:   m.Accuracy,
			Trained:    m.TrainingDate,
			DeployedAt: m.DeployedAt,
		}
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ListTickets GET /admin/tickets?status=&user_id=&technician_id=&limit=&offset=.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	statuses, err := parseStatuses(c.Query("status"))
	if err != nil {
		return err
	}
	filter := repository.TicketFilter{
		Statuses: statuses,
		Limit:    parseInt(c.Query("limit"), 0),
		Offset:   parseInt(c.Query("offset"), 0),
	}
	if id := int64(parseInt(c.Query("user_id"), 0)); id > 0 {
		filter.UserID = &id
	}
	if id := int64(parseInt(c.Query("technician_id"), 0)); id > 0 {
		filter.TechnicianID = &id
	}
	tickets, err := h.admin.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketViewList(tickets)})
}

// Flagged GET /admin/tickets/flagged.
func (h *AdminHandler) Flagged(c *fiber.Ctx) error {
	tickets, err := h.admin.FlaggedQueue(c.UserContext(), parseInt(c.Query("limit"), 0), parseInt(c.Query("offset"), 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketViewList(tickets)})
}

// Suggestions GET /admin/tickets/:id/suggestions.
func (h *AdminHandler) Suggestions(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	techs, err := h.assignments.Suggestions(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianList(techs)})
}

// Assign POST /admin/tickets/:id/assign.
func (h *AdminHandler) Assign(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ManualAssignRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	ticket, err := h.assignments.ManualAssign(c.UserContext(), actor.ID, id, req.TechnicianID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Close POST /admin/tickets/:id/close.
func (h *AdminHandler) Close(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.CloseTicket(c.UserContext(), actor.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Technicians GET /admin/technicians.
func (h *AdminHandler) Technicians(c *fiber.Ctx) error {
	techs, err := h.technicians.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": technicianList(techs)})
}

// CreateTechnician POST /admin/technicians.
func (h *AdminHandler) CreateTechnician(c *fiber.Ctx) error {
	var req dto.CreateTechnicianRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	tech, err := h.accounts.CreateTechnician(c.UserContext(), service.NewTechnician{
		NewAccount:     service.NewAccount{Name: req.Name, Email: req.Email, Password: req.Password, Phone: req.Phone},
		Skills:         req.Skills,
		MaxWorkload:    req.MaxWorkload,
		ExpertiseLevel: req.ExpertiseLevel,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": technicianResponse(tech)})
}

// ReconcileWorkload POST /admin/technicians/reconcile?fix=true.
func (h *AdminHandler) ReconcileWorkload(c *fiber.Ctx) error {
	fix := c.QueryBool("fix", false)
	drifts, err := h.technicians.ReconcileWorkload(c.UserContext(), fix)
	if err != nil {
		return err
	}
	items := make([]fiber.Map, 0, len(drifts))
	for _, d := range drifts {
		items = append(items, fiber.Map{
			"technician_id": d.TechnicianID,
			"name":          d.Name,
			"stored":        d.Stored,
			"actual":        d.Actual,
		})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"fixed": fix, "drift": items}})
}

// Logs GET /admin/logs.
func (h *AdminHandler) Logs(c *fiber.Ctx) error {
	logs, err := h.audit.List(c.UserContext(), parseInt(c.Query("limit"), 100), parseInt(c.Query("offset"), 0))
	if err != nil {
		return err
	}
	items := make([]dto.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		item := dto.AuditLogResponse{
			ID:        l.ID,
			LogType:   string(l.LogType),
			UserID:    l.UserID,
			Action:    l.Action,
			Details:   l.Details,
			Status:    string(l.Status),
			CreatedAt: l.CreatedAt,
			Age:       age(l.CreatedAt),
		}
		if l.UserType != nil {
			subject := string(*l.UserType)
			item.UserType = &subject
		}
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": items})
}

// Report GET /admin/reports/tickets.xlsx.
func (h *AdminHandler) Report(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.admin.ExportTickets(c.UserContext(), &buf); err != nil {
		return err
	}
	name := fmt.Sprintf("tickets-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}
