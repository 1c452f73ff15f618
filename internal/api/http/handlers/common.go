package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xeonx/timeago"

	"github.com/helpdesk-ml/helpdesk/internal/api/dto"
	"github.com/helpdesk-ml/helpdesk/internal/auth"
	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/service"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.Actor{Type: principal.Type, ID: principal.ID}, nil
}

func bind(c *fiber.Ctx, v *dto.Validator, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return v.Struct(req)
}

func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: c.Params(name)})
	}
	return id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func parseStatuses(raw string) ([]domain.TicketStatus, error) {
	if raw == "" {
		return nil, nil
	}
	var statuses []domain.TicketStatus
	for _, part := range strings.Split(raw, ",") {
		status := domain.TicketStatus(strings.TrimSpace(part))
		switch status {
		case domain.TicketStatusSubmitted, domain.TicketStatusClassified, domain.TicketStatusAssigned,
			domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed:
			statuses = append(statuses, status)
		default:
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(status)})
		}
	}
	return statuses, nil
}

func age(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return timeago.English.Format(t)
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                     t.ID,
		Number:                 t.Number,
		Subject:                t.Subject,
		Description:            t.Description,
		Category:               t.Category,
		Priority:               string(t.Priority),
		Status:                 string(t.Status),
		ConfidenceScore:        t.ConfidenceScore,
		FlaggedForManualReview: t.FlaggedForManualReview,
		ManualAssignmentReason: t.ManualAssignmentReason,
		UserID:                 t.UserID,
		SubmittedAt:            t.SubmittedAt,
		ClassifiedAt:           t.ClassifiedAt,
		AssignedAt:             t.AssignedAt,
		InProgressAt:           t.InProgressAt,
		ResolvedAt:             t.ResolvedAt,
		ClosedAt:               t.ClosedAt,
		UpdatedAt:              t.UpdatedAt,
		Age:                    age(t.SubmittedAt),
	}
}

func ticketViewResponse(v *domain.TicketView) dto.TicketResponse {
	resp := ticketResponse(&v.Ticket)
	resp.UserName = v.UserName
	resp.TechnicianID = v.TechnicianID
	resp.TechnicianName = v.TechnicianName
	return resp
}

func ticketViewList(views []domain.TicketView) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(views))
	for i := range views {
		items = append(items, ticketViewResponse(&views[i]))
	}
	return items
}

func technicianResponse(t *domain.Technician) dto.TechnicianResponse {
	skills := t.Skills
	if skills == nil {
		skills = []string{}
	}
	return dto.TechnicianResponse{
		ID:                   t.ID,
		Name:                 t.Name,
		Email:                t.Email,
		Phone:                t.Phone,
		Skills:               skills,
		CurrentWorkload:      t.CurrentWorkload,
		MaxWorkload:          t.MaxWorkload,
		AvailabilityStatus:   string(t.AvailabilityStatus),
		ExpertiseLevel:       t.ExpertiseLevel,
		TotalTicketsResolved: t.TotalTicketsResolved,
		Active:               t.Active,
		LastLogin:            t.LastLogin,
	}
}

func technicianList(techs []domain.Technician) []dto.TechnicianResponse {
	items := make([]dto.TechnicianResponse, 0, len(techs))
	for i := range techs {
		items = append(items, technicianResponse(&techs[i]))
	}
	return items
}
