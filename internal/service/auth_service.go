package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/auth"
	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

// AuthService authenticates all three account types.
type AuthService struct {
	store      repository.Store
	tokens     *auth.TokenManager
	audit      *AuditService
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	Store      repository.Store
	Tokens     *auth.TokenManager
	Audit      *AuditService
	BcryptCost int
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		store:      deps.Store,
		tokens:     deps.Tokens,
		audit:      deps.Audit,
		bcryptCost: deps.BcryptCost,
		logger:     logger,
		now:        clockOrDefault(deps.Clock),
	}
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Principal auth.Principal
}

// account is the credential view shared by users, technicians and admins.
type account struct {
	id     int64
	name   string
	email  string
	hash   string
	active bool
}

func (s *AuthService) lookup(ctx context.Context, repos repository.Repositories, role domain.SubjectType, email string) (*account, error) {
	switch role {
	case domain.SubjectTypeUser:
		u, err := repos.Users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return &account{id: u.ID, name: u.Name, email: u.Email, hash: u.PasswordHash, active: u.Active}, nil
	case domain.SubjectTypeTechnician:
		t, err := repos.Technicians.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return &account{id: t.ID, name: t.Name, email: t.Email, hash: t.PasswordHash, active: t.Active}, nil
	case domain.SubjectTypeAdmin:
		a, err := repos.Admins.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return &account{id: a.ID, name: a.Name, email: a.Email, hash: a.PasswordHash, active: a.Active}, nil
	}
	return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(role)})
}

func (s *AuthService) lookupByID(ctx context.Context, repos repository.Repositories, actor Actor) (*account, error) {
	switch actor.Type {
	case domain.SubjectTypeUser:
		u, err := repos.Users.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return &account{id: u.ID, name: u.Name, email: u.Email, hash: u.PasswordHash, active: u.Active}, nil
	case domain.SubjectTypeTechnician:
		t, err := repos.Technicians.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return &account{id: t.ID, name: t.Name, email: t.Email, hash: t.PasswordHash, active: t.Active}, nil
	case domain.SubjectTypeAdmin:
		a, err := repos.Admins.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return &account{id: a.ID, name: a.Name, email: a.Email, hash: a.PasswordHash, active: a.Active}, nil
	}
	return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(actor.Type)})
}

// Login verifies credentials for the given role and issues a token.
func (s *AuthService) Login(ctx context.Context, role domain.SubjectType, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	repos := s.store.Repos()

	acct, err := s.lookup(ctx, repos, role, email)
	if err != nil {
		if apperrors.IsCode(err, "VALIDATION_FAILED") {
			return nil, err
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, mapError(err, "account", 0)
		}
	}
	if acct == nil || !acct.active || auth.ComparePassword(acct.hash, password) != nil {
		details := fmt.Sprintf("role=%s email=%s", role, email)
		var actor *Actor
		if acct != nil {
			actor = &Actor{Type: role, ID: acct.id}
		}
		s.audit.Record(ctx, AuditEntry{Type: domain.AuditLogin, Actor: actor, Action: "login", Details: details, Status: domain.AuditFailure})
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(acct.id, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := s.now()
	var touchErr error
	switch role {
	case domain.SubjectTypeUser:
		touchErr = repos.Users.TouchLastLogin(ctx, acct.id, now)
	case domain.SubjectTypeTechnician:
		touchErr = repos.Technicians.TouchLastLogin(ctx, acct.id, now)
	case domain.SubjectTypeAdmin:
		touchErr = repos.Admins.TouchLastLogin(ctx, acct.id, now)
	}
	if touchErr != nil {
		s.logger.Warn("last login not recorded", zap.String("role", string(role)), zap.Int64("id", acct.id), zap.Error(touchErr))
	}

	s.audit.Record(ctx, AuditEntry{
		Type:    domain.AuditLogin,
		Actor:   &Actor{Type: role, ID: acct.id},
		Action:  "login",
		Details: fmt.Sprintf("role=%s email=%s", role, email),
	})
	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: auth.Principal{Type: role, ID: acct.id, Name: acct.name, Email: acct.email},
	}, nil
}

// Logout records the logout. Tokens are stateless and expire on their own.
func (s *AuthService) Logout(ctx context.Context, actor Actor) {
	s.audit.Record(ctx, AuditEntry{Type: domain.AuditLogout, Actor: &actor, Action: "logout"})
}

// ChangePassword replaces the caller's password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, actor Actor, current, next string) error {
	if len(next) < auth.MinPasswordLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("new password must be at least %d characters", auth.MinPasswordLength), nil)
	}
	repos := s.store.Repos()
	acct, err := s.lookupByID(ctx, repos, actor)
	if err != nil {
		return mapError(err, "account", actor.ID)
	}
	if auth.ComparePassword(acct.hash, current) != nil {
		s.audit.Record(ctx, AuditEntry{Type: domain.AuditPasswordChange, Actor: &actor, Action: "change password", Status: domain.AuditFailure})
		return apperrors.NewUnauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	switch actor.Type {
	case domain.SubjectTypeUser:
		err = repos.Users.UpdatePassword(ctx, actor.ID, hash)
	case domain.SubjectTypeTechnician:
		err = repos.Technicians.UpdatePassword(ctx, actor.ID, hash)
	case domain.SubjectTypeAdmin:
		err = repos.Admins.UpdatePassword(ctx, actor.ID, hash)
	}
	if err != nil {
		return mapError(err, "account", actor.ID)
	}
	s.audit.Record(ctx, AuditEntry{Type: domain.AuditPasswordChange, Actor: &actor, Action: "change password"})
	return nil
}
