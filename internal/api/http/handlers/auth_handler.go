package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-ml/helpdesk/internal/api/dto"
	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/service"
)

// AuthHandler serves login, logout and password changes for every role.
type AuthHandler struct {
	service   *service.AuthService
	validator *dto.Validator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, validator *dto.Validator) *AuthHandler {
	return &AuthHandler{service: authService, validator: validator}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	result, err := h.service.Login(c.UserContext(), domain.SubjectType(req.Role), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		Role:        string(result.Principal.Type),
		ID:          result.Principal.ID,
		Name:        result.Principal.Name,
	}})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	h.service.Logout(c.UserContext(), actor)
	return c.SendStatus(fiber.StatusNoContent)
}

// ChangePassword POST /auth/password/change.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}
	if err := h.service.ChangePassword(c.UserContext(), actor, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
