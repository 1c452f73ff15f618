package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

// RequireRole ensures the principal is one of the allowed account types.
func RequireRole(allowed ...domain.SubjectType) fiber.Handler {
	allowedSet := make(map[domain.SubjectType]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if _, exists := allowedSet[principal.Type]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireUser ensures an end-user is authenticated.
func RequireUser() fiber.Handler { return RequireRole(domain.SubjectTypeUser) }

// RequireTechnician ensures a technician is authenticated.
func RequireTechnician() fiber.Handler { return RequireRole(domain.SubjectTypeTechnician) }

// RequireAdmin ensures an administrator is authenticated.
func RequireAdmin() fiber.Handler { return RequireRole(domain.SubjectTypeAdmin) }

// RequireAnyRole ensures caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
