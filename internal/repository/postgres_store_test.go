package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/persistence"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
)

func newPostgresStore(t *testing.T) *repository.PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, persistence.RunPostgresMigrations(ctx, pool, zap.NewNop()))
	store := repository.NewPostgresStore(pool)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresAssignmentFlow(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	suffix := time.Now().UnixNano()
	now := time.Now().UTC().Truncate(time.Microsecond)

	var ticketID, techID int64
	err := store.WithTx(ctx, func(tx repository.Repositories) error {
		user := &domain.User{Name: "pg user", Email: fmt.Sprintf("pg-user-%d@example.com", suffix), PasswordHash: "x", Active: true}
		if err := tx.Users.Create(ctx, user); err != nil {
			return err
		}
		tech := &domain.Technician{
			Name: "pg tech", Email: fmt.Sprintf("pg-tech-%d@example.com", suffix), PasswordHash: "x",
			Skills: []string{"Network"}, MaxWorkload: 10, AvailabilityStatus: domain.AvailabilityAvailable, Active: true,
		}
		if err := tx.Technicians.Create(ctx, tech); err != nil {
			return err
		}
		category := "Network"
		ticket := &domain.Ticket{
			Number: fmt.Sprintf("TKT-PG-%d", suffix), Subject: "VPN", Description: "down", Category: &category,
			Priority: domain.TicketPriorityHigh, Status: domain.TicketStatusAssigned, UserID: user.ID,
			SubmittedAt: now, ClassifiedAt: &now, AssignedAt: &now, UpdatedAt: now,
		}
		if err := tx.Tickets.Create(ctx, ticket); err != nil {
			return err
		}
		if err := tx.Assignments.Create(ctx, &domain.Assignment{
			TicketID: ticket.ID, TechnicianID: tech.ID, AssignedBy: domain.AssignedBySystem, AssignedAt: now, Active: true,
		}); err != nil {
			return err
		}
		ticketID, techID = ticket.ID, tech.ID
		return tx.Technicians.AdjustWorkload(ctx, tech.ID, 1)
	})
	require.NoError(t, err)

	view, err := store.Repos().Tickets.GetView(ctx, ticketID)
	require.NoError(t, err)
	require.NotNil(t, view.TechnicianID)
	assert.Equal(t, techID, *view.TechnicianID)

	tech, err := store.Repos().Technicians.GetByID(ctx, techID)
	require.NoError(t, err)
	assert.Equal(t, 1, tech.CurrentWorkload)
	assert.Equal(t, []string{"Network"}, tech.Skills)

	_, err = store.Repos().Tickets.GetByID(ctx, -1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
