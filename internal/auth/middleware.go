package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Type  domain.SubjectType
	ID    int64
	Name  string
	Email string
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	store  repository.Store
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, store repository.Store) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, store: store}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal, err := m.load(c, claims)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *AuthMiddleware) load(c *fiber.Ctx, claims *Claims) (*Principal, error) {
	repos := m.store.Repos()
	ctx := c.UserContext()
	principal := &Principal{Type: claims.Subject, ID: claims.SubjectID}

	var (
		active bool
		err    error
	)
	switch claims.Subject {
	case domain.SubjectTypeUser:
		var user *domain.User
		if user, err = repos.Users.GetByID(ctx, claims.SubjectID); err == nil {
			principal.Name, principal.Email, active = user.Name, user.Email, user.Active
		}
	case domain.SubjectTypeTechnician:
		var tech *domain.Technician
		if tech, err = repos.Technicians.GetByID(ctx, claims.SubjectID); err == nil {
			principal.Name, principal.Email, active = tech.Name, tech.Email, tech.Active
		}
	case domain.SubjectTypeAdmin:
		var admin *domain.Admin
		if admin, err = repos.Admins.GetByID(ctx, claims.SubjectID); err == nil {
			principal.Name, principal.Email, active = admin.Name, admin.Email, admin.Active
		}
	default:
		return nil, apperrors.NewUnauthorized("unknown subject")
	}

	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthorized("account not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !active {
		return nil, apperrors.NewUnauthorized("account disabled")
	}
	return principal, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
