package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

// CreateUser inserts an active end-user.
func CreateUser(t *testing.T, repos repository.Repositories, name string) *domain.User {
	t.Helper()
	user := &domain.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
		Active:       true,
	}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}

// CreateTechnician inserts an available technician with skills and workload.
func CreateTechnician(t *testing.T, repos repository.Repositories, name string, workload int, skills ...string) *domain.Technician {
	t.Helper()
	tech := &domain.Technician{
		Name:               name,
		Email:              fmt.Sprintf("%s@example.com", name),
		PasswordHash:       "x",
		Skills:             skills,
		CurrentWorkload:    workload,
		MaxWorkload:        10,
		AvailabilityStatus: domain.AvailabilityAvailable,
		ExpertiseLevel:     "Intermediate",
		Active:             true,
	}
	require.NoError(t, repos.Technicians.Create(context.Background(), tech))
	return tech
}

// CreateAdmin inserts an active administrator.
func CreateAdmin(t *testing.T, repos repository.Repositories, name string) *domain.Admin {
	t.Helper()
	admin := &domain.Admin{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "x",
		Active:       true,
	}
	require.NoError(t, repos.Admins.Create(context.Background(), admin))
	return admin
}
