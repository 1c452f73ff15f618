package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/auth"
	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

// AccountService provisions users, technicians and admins.
type AccountService struct {
	store      repository.Store
	bcryptCost int
	now        func() time.Time
}

// NewAccountService constructs the service.
func NewAccountService(store repository.Store, bcryptCost int, clock func() time.Time) *AccountService {
	return &AccountService{store: store, bcryptCost: bcryptCost, now: clockOrDefault(clock)}
}

// NewAccount holds the fields common to every account type.
type NewAccount struct {
	Name       string
	Email      string
	Password   string
	Phone      string
	Department string
}

// NewTechnician adds routing attributes to NewAccount.
type NewTechnician struct {
	NewAccount
	Skills         []string
	MaxWorkload    int
	ExpertiseLevel string
}

func (s *AccountService) prepare(in NewAccount) (NewAccount, string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" {
		return in, "", apperrors.NewValidationError("name and email are required", nil)
	}
	if len(in.Password) < auth.MinPasswordLength {
		return in, "", apperrors.NewValidationError("password too short", map[string]any{"min": auth.MinPasswordLength})
	}
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return in, "", apperrors.NewInternalError(err)
	}
	return in, hash, nil
}

func emailTaken(err error, email string) error {
	switch {
	case err == nil:
		return apperrors.NewConflict("email already exists", map[string]any{"email": email})
	case errors.Is(err, repository.ErrNotFound):
		return nil
	}
	return apperrors.NewInternalError(err)
}

// CreateUser adds an end-user account.
func (s *AccountService) CreateUser(ctx context.Context, in NewAccount) (*domain.User, error) {
	in, hash, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	_, err = repos.Users.GetByEmail(ctx, in.Email)
	if err := emailTaken(err, in.Email); err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Department:   in.Department,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    s.now(),
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		return nil, mapError(err, "user", 0)
	}
	return user, nil
}

// CreateTechnician adds a technician who starts Available with no workload.
func (s *AccountService) CreateTechnician(ctx context.Context, in NewTechnician) (*domain.Technician, error) {
	acct, hash, err := s.prepare(in.NewAccount)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	_, err = repos.Technicians.GetByEmail(ctx, acct.Email)
	if err := emailTaken(err, acct.Email); err != nil {
		return nil, err
	}
	maxWorkload := in.MaxWorkload
	if maxWorkload <= 0 {
		maxWorkload = 10
	}
	level := in.ExpertiseLevel
	if level == "" {
		level = "Intermediate"
	}
	tech := &domain.Technician{
		Name:               acct.Name,
		Email:              acct.Email,
		Phone:              acct.Phone,
		PasswordHash:       hash,
		Skills:             domain.ParseSkills(domain.JoinSkills(in.Skills)),
		MaxWorkload:        maxWorkload,
		AvailabilityStatus: domain.AvailabilityAvailable,
		ExpertiseLevel:     level,
		Active:             true,
		CreatedAt:          s.now(),
	}
	if err := repos.Technicians.Create(ctx, tech); err != nil {
		return nil, mapError(err, "technician", 0)
	}
	return tech, nil
}

// CreateAdmin adds an administrator.
func (s *AccountService) CreateAdmin(ctx context.Context, in NewAccount) (*domain.Admin, error) {
	in, hash, err := s.prepare(in)
	if err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	_, err = repos.Admins.GetByEmail(ctx, in.Email)
	if err := emailTaken(err, in.Email); err != nil {
		return nil, err
	}
	admin := &domain.Admin{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    s.now(),
	}
	if err := repos.Admins.Create(ctx, admin); err != nil {
		return nil, mapError(err, "admin", 0)
	}
	return admin, nil
}
