package sqlstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	"github.com/helpdesk-ml/helpdesk/internal/testutil"
)

func newTicket(userID int64, number string, status domain.TicketStatus, at time.Time) *domain.Ticket {
	category := "Hardware"
	confidence := 82.5
	return &domain.Ticket{
		Number:          number,
		Subject:         "Printer",
		Description:     "jammed",
		Category:        &category,
		Priority:        domain.TicketPriorityMedium,
		Status:          status,
		UserID:          userID,
		ConfidenceScore: &confidence,
		SubmittedAt:     at,
		ClassifiedAt:    &at,
		UpdatedAt:       at,
	}
}

func TestTechnicianRoundTrip(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	repos := store.Repos()
	ctx := context.Background()

	tech := testutil.CreateTechnician(t, repos, "mike", 2, "Hardware", "Network")

	loaded, err := repos.Technicians.GetByEmail(ctx, "MIKE@example.com")
	require.NoError(t, err)
	assert.Equal(t, tech.ID, loaded.ID)
	assert.Equal(t, []string{"Hardware", "Network"}, loaded.Skills)
	assert.Equal(t, domain.AvailabilityAvailable, loaded.AvailabilityStatus)
	assert.True(t, loaded.Active)

	_, err = repos.Technicians.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAdjustWorkloadNeverGoesNegative(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	repos := store.Repos()
	ctx := context.Background()

	tech := testutil.CreateTechnician(t, repos, "sarah", 1, "Software")

	require.NoError(t, repos.Technicians.AdjustWorkload(ctx, tech.ID, 1))
	loaded, err := repos.Technicians.GetByID(ctx, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.CurrentWorkload)

	require.NoError(t, repos.Technicians.AdjustWorkload(ctx, tech.ID, -5))
	loaded, err = repos.Technicians.GetByID(ctx, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.CurrentWorkload)

	assert.ErrorIs(t, repos.Technicians.AdjustWorkload(ctx, 404, 1), repository.ErrNotFound)
}

func TestTicketViewJoinsActiveAssignment(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	repos := store.Repos()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	user := testutil.CreateUser(t, repos, "john")
	first := testutil.CreateTechnician(t, repos, "mike", 0, "Hardware")
	second := testutil.CreateTechnician(t, repos, "james", 0, "Hardware")

	ticket := newTicket(user.ID, "TKT-1", domain.TicketStatusAssigned, now)
	require.NoError(t, repos.Tickets.Create(ctx, ticket))

	old := &domain.Assignment{TicketID: ticket.ID, TechnicianID: first.ID, AssignedBy: domain.AssignedBySystem, AssignedAt: now}
	require.NoError(t, repos.Assignments.Create(ctx, old))
	old.Active = false
	require.NoError(t, repos.Assignments.Update(ctx, old))
	current := &domain.Assignment{TicketID: ticket.ID, TechnicianID: second.ID, AssignedBy: domain.AssignedByAdmin, AssignedAt: now, Active: true}
	require.NoError(t, repos.Assignments.Create(ctx, current))

	view, err := repos.Tickets.GetView(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "john", view.UserName)
	require.NotNil(t, view.TechnicianID)
	assert.Equal(t, second.ID, *view.TechnicianID)
	require.NotNil(t, view.TechnicianName)
	assert.Equal(t, "james", *view.TechnicianName)
	require.NotNil(t, view.ConfidenceScore)
	assert.Equal(t, 82.5, *view.ConfidenceScore)
	assert.True(t, view.SubmittedAt.Equal(now))

	active, err := repos.Assignments.GetActiveByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, current.ID, active.ID)

	history, err := repos.Assignments.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestOnlyOneActiveAssignmentPerTicket(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	repos := store.Repos()
	ctx := context.Background()
	now := time.Now().UTC()

	user := testutil.CreateUser(t, repos, "john")
	tech := testutil.CreateTechnician(t, repos, "mike", 0, "Hardware")
	ticket := newTicket(user.ID, "TKT-2", domain.TicketStatusAssigned, now)
	require.NoError(t, repos.Tickets.Create(ctx, ticket))

	require.NoError(t, repos.Assignments.Create(ctx, &domain.Assignment{
		TicketID: ticket.ID, TechnicianID: tech.ID, AssignedBy: domain.AssignedBySystem, AssignedAt: now, Active: true,
	}))
	err := repos.Assignments.Create(ctx, &domain.Assignment{
		TicketID: ticket.ID, TechnicianID: tech.ID, AssignedBy: domain.AssignedByAdmin, AssignedAt: now, Active: true,
	})
	assert.Error(t, err)
}

func TestTicketListFilters(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	repos := store.Repos()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	user := testutil.CreateUser(t, repos, "john")
	other := testutil.CreateUser(t, repos, "jane")
	tech := testutil.CreateTechnician(t, repos, "mike", 0, "Hardware")

	low := newTicket(user.ID, "TKT-LOW", domain.TicketStatusAssigned, base)
	low.Priority = domain.TicketPriorityLow
	critical := newTicket(user.ID, "TKT-CRIT", domain.TicketStatusAssigned, base.Add(time.Hour))
	critical.Priority = domain.TicketPriorityCritical
	flagged := newTicket(other.ID, "TKT-FLAG", domain.TicketStatusClassified, base.Add(2*time.Hour))
	flagged.FlaggedForManualReview = true
	for _, tk := range []*domain.Ticket{low, critical, flagged} {
		require.NoError(t, repos.Tickets.Create(ctx, tk))
	}
	for _, tk := range []*domain.Ticket{low, critical} {
		require.NoError(t, repos.Assignments.Create(ctx, &domain.Assignment{
			TicketID: tk.ID, TechnicianID: tech.ID, AssignedBy: domain.AssignedBySystem, AssignedAt: base, Active: true,
		}))
	}

	mine, err := repos.Tickets.List(ctx, repository.TicketFilter{UserID: &user.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "TKT-CRIT", mine[0].Number)

	queue, err := repos.Tickets.List(ctx, repository.TicketFilter{
		TechnicianID:    &tech.ID,
		ExcludeStatuses: []domain.TicketStatus{domain.TicketStatusClosed},
		ByPriority:      true,
	})
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "TKT-CRIT", queue[0].Number)
	assert.Equal(t, "TKT-LOW", queue[1].Number)

	waiting, err := repos.Tickets.List(ctx, repository.TicketFilter{AwaitingManual: true})
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, "TKT-FLAG", waiting[0].Number)
	assert.Nil(t, waiting[0].TechnicianID)

	stats, err := repos.Tickets.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Open)
	assert.Equal(t, 1, stats.Flagged)
	assert.Equal(t, map[string]int{"Hardware": 3}, stats.ByCategory)

	counts, err := repos.Tickets.StatusCounts(ctx, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.TicketStatusAssigned])

	open, err := repos.Assignments.OpenCountsByTechnician(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{tech.ID: 2}, open)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	ctx := context.Background()
	tech := testutil.CreateTechnician(t, store.Repos(), "mike", 0, "Hardware")

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx repository.Repositories) error {
		require.NoError(t, tx.Technicians.AdjustWorkload(ctx, tech.ID, 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	loaded, err := store.Repos().Technicians.GetByID(ctx, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.CurrentWorkload)

	require.NoError(t, store.WithTx(ctx, func(tx repository.Repositories) error {
		return tx.Technicians.AdjustWorkload(ctx, tech.ID, 1)
	}))
	loaded, err = store.Repos().Technicians.GetByID(ctx, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.CurrentWorkload)
}

func TestNotificationsAreScopedToRecipient(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	repos := store.Repos()
	ctx := context.Background()
	now := time.Now().UTC()

	n := &domain.Notification{
		UserType: domain.SubjectTypeTechnician,
		UserID:   7,
		Type:     domain.NotificationTicketAssigned,
		Title:    "New ticket",
		Message:  "TKT-1 assigned",
		SentAt:   now,
	}
	require.NoError(t, repos.Notifications.Create(ctx, n))

	unread, err := repos.Notifications.CountUnread(ctx, domain.SubjectTypeTechnician, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	err = repos.Notifications.MarkRead(ctx, n.ID, domain.SubjectTypeUser, 7, now)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repos.Notifications.MarkRead(ctx, n.ID, domain.SubjectTypeTechnician, 7, now))
	list, err := repos.Notifications.ListForRecipient(ctx, domain.SubjectTypeTechnician, 7, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Read)
	assert.NotNil(t, list[0].ReadAt)
}

func TestAuditAndModelLogs(t *testing.T) {
	store := testutil.NewSQLiteStore(t)
	repos := store.Repos()
	ctx := context.Background()
	now := time.Now().UTC()

	userType := domain.SubjectTypeAdmin
	userID := int64(1)
	require.NoError(t, repos.AuditLogs.Create(ctx, &domain.AuditLog{
		LogType: domain.AuditLogin, UserType: &userType, UserID: &userID,
		Action: "login", Status: domain.AuditSuccess, CreatedAt: now,
	}))
	require.NoError(t, repos.AuditLogs.Create(ctx, &domain.AuditLog{
		LogType: domain.AuditTicketFlagged, Action: "flagged", Status: domain.AuditWarning, CreatedAt: now.Add(time.Second),
	}))
	logs, err := repos.AuditLogs.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, domain.AuditTicketFlagged, logs[0].LogType)
	assert.Nil(t, logs[0].UserType)
	require.NotNil(t, logs[1].UserType)
	assert.Equal(t, domain.SubjectTypeAdmin, *logs[1].UserType)

	_, err = repos.ModelLogs.GetActive(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repos.ModelLogs.Create(ctx, &domain.ModelLog{ModelVersion: "v1", ModelType: "lr", Active: true, TrainingDate: now}))
	require.NoError(t, repos.ModelLogs.DeactivateAll(ctx))
	require.NoError(t, repos.ModelLogs.Create(ctx, &domain.ModelLog{ModelVersion: "v2", ModelType: "lr", Active: true, TrainingDate: now}))
	active, err := repos.ModelLogs.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", active.ModelVersion)
}
