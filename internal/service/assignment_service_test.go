package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/events"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	"github.com/helpdesk-ml/helpdesk/internal/testutil"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

func TestManualAssignFlaggedTicket(t *testing.T) {
	h := newHarness(t, fixedPrediction("Software", 0.40))
	ctx := context.Background()
	user := testutil.CreateUser(t, h.repos, "reporter")
	admin := testutil.CreateAdmin(t, h.repos, "boss")
	// no matching skill and already busy: manual assignment bypasses the filter
	x := testutil.CreateTechnician(t, h.repos, "xavier", 4, "Network")

	submitted, err := h.tickets.SubmitTicket(ctx, user.ID, SubmitTicketInput{Subject: "ambiguous issue", Description: "?"})
	require.NoError(t, err)
	require.True(t, submitted.Ticket.FlaggedForManualReview)

	ticket, err := h.assignments.ManualAssign(ctx, admin.ID, submitted.Ticket.ID, x.ID, "knows the legacy app")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusAssigned, ticket.Status)
	assert.False(t, ticket.FlaggedForManualReview)

	stored := h.ticket(t, submitted.Ticket.ID)
	assert.Equal(t, domain.TicketStatusAssigned, stored.Status)
	assert.False(t, stored.FlaggedForManualReview)
	require.NotNil(t, stored.ManualAssignmentReason)
	assert.Equal(t, "knows the legacy app", *stored.ManualAssignmentReason)
	require.NotNil(t, stored.AssignedAt)

	assert.Equal(t, 5, h.technician(t, x.ID).CurrentWorkload)

	assignment, err := h.repos.Assignments.GetActiveByTicket(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, x.ID, assignment.TechnicianID)
	assert.Equal(t, domain.AssignedByAdmin, assignment.AssignedBy)
	require.NotNil(t, assignment.Notes)

	inbox := h.inboxOf(t, domain.SubjectTypeTechnician, x.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotificationManualAssignment, inbox[0].Type)
	assert.Equal(t, []string{events.TechnicianTopic(x.ID)}, h.pusher.Topics())
	assert.Len(t, h.auditOf(t, domain.AuditManualAssignment), 1)

	flagged, err := h.admin.FlaggedQueue(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, flagged)
}

func TestManualAssignReassignsTicket(t *testing.T) {
	h := newHarness(t, fixedPrediction("Hardware", 0.85))
	ctx := context.Background()
	user := testutil.CreateUser(t, h.repos, "reporter")
	admin := testutil.CreateAdmin(t, h.repos, "boss")
	first := testutil.CreateTechnician(t, h.repos, "first", 0, "Hardware")
	second := testutil.CreateTechnician(t, h.repos, "second", 2, "Hardware")

	submitted := h.submitAssigned(t, user.ID)
	require.Equal(t, first.ID, submitted.Technician.ID)
	assignedAt := h.ticket(t, submitted.Ticket.ID).AssignedAt

	_, err := h.assignments.ManualAssign(ctx, admin.ID, submitted.Ticket.ID, second.ID, "specialist")
	require.NoError(t, err)

	assert.Equal(t, 0, h.technician(t, first.ID).CurrentWorkload)
	assert.Equal(t, 3, h.technician(t, second.ID).CurrentWorkload)

	history, err := h.repos.Assignments.ListByTicket(ctx, submitted.Ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	active := 0
	for _, a := range history {
		if a.Active {
			active++
			assert.Equal(t, second.ID, a.TechnicianID)
		}
	}
	assert.Equal(t, 1, active)

	stored := h.ticket(t, submitted.Ticket.ID)
	assert.Equal(t, domain.TicketStatusAssigned, stored.Status)
	assert.True(t, stored.AssignedAt.Equal(*assignedAt))

	_, err = h.assignments.ManualAssign(ctx, admin.ID, submitted.Ticket.ID, second.ID, "again")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	assert.Equal(t, 3, h.technician(t, second.ID).CurrentWorkload)
}

func TestManualAssignRejections(t *testing.T) {
	h := newHarness(t, fixedPrediction("Hardware", 0.85))
	ctx := context.Background()
	user := testutil.CreateUser(t, h.repos, "reporter")
	admin := testutil.CreateAdmin(t, h.repos, "boss")
	tech := testutil.CreateTechnician(t, h.repos, "fixer", 0, "Hardware")
	other := testutil.CreateTechnician(t, h.repos, "other", 3, "Hardware")

	submitted := h.submitAssigned(t, user.ID)
	_, err := h.tickets.UpdateStatus(ctx, tech.ID, submitted.Ticket.ID, domain.TicketStatusInProgress, "")
	require.NoError(t, err)

	_, err = h.assignments.ManualAssign(ctx, admin.ID, submitted.Ticket.ID, other.ID, "too late")
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))

	_, err = h.assignments.ManualAssign(ctx, admin.ID, 424242, other.ID, "missing")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	assert.Equal(t, 1, h.technician(t, tech.ID).CurrentWorkload)
	assert.Equal(t, 3, h.technician(t, other.ID).CurrentWorkload)
}

func TestManualAssignWithoutReasonUsesDefault(t *testing.T) {
	h := newHarness(t, fixedPrediction("Software", 0.40))
	ctx := context.Background()
	user := testutil.CreateUser(t, h.repos, "reporter")
	admin := testutil.CreateAdmin(t, h.repos, "boss")
	x := testutil.CreateTechnician(t, h.repos, "xavier", 0, "Network")

	for _, reason := range []string{"", "  ", "<b></b>"} {
		submitted, err := h.tickets.SubmitTicket(ctx, user.ID, SubmitTicketInput{Subject: "ambiguous issue", Description: "?"})
		require.NoError(t, err)
		require.True(t, submitted.Ticket.FlaggedForManualReview)

		ticket, err := h.assignments.ManualAssign(ctx, admin.ID, submitted.Ticket.ID, x.ID, reason)
		require.NoError(t, err, "reason %q", reason)
		assert.False(t, ticket.FlaggedForManualReview)

		stored := h.ticket(t, submitted.Ticket.ID)
		assert.Equal(t, domain.TicketStatusAssigned, stored.Status)
		require.NotNil(t, stored.ManualAssignmentReason)
		assert.Equal(t, DefaultManualAssignReason, *stored.ManualAssignmentReason)
	}
	assert.Equal(t, 3, h.technician(t, x.ID).CurrentWorkload)
}

func TestManualAssignRejectsInactiveTechnician(t *testing.T) {
	h := newHarness(t, fixedPrediction("Software", 0.2))
	ctx := context.Background()
	user := testutil.CreateUser(t, h.repos, "reporter")
	admin := testutil.CreateAdmin(t, h.repos, "boss")
	retired := &domain.Technician{
		Name: "retired", Email: "retired@example.com", PasswordHash: "x", MaxWorkload: 10,
		AvailabilityStatus: domain.AvailabilityUnavailable, Active: false,
	}
	require.NoError(t, h.repos.Technicians.Create(ctx, retired))

	submitted, err := h.tickets.SubmitTicket(ctx, user.ID, SubmitTicketInput{Subject: "a", Description: "b"})
	require.NoError(t, err)

	_, err = h.assignments.ManualAssign(ctx, admin.ID, submitted.Ticket.ID, retired.ID, "only one left")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	_, err = h.repos.Assignments.GetActiveByTicket(ctx, submitted.Ticket.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSuggestionsFollowPolicyOrder(t *testing.T) {
	h := newHarness(t, fixedPrediction("Hardware", 0.3))
	ctx := context.Background()
	user := testutil.CreateUser(t, h.repos, "reporter")
	heavy := testutil.CreateTechnician(t, h.repos, "heavy", 3, "Hardware")
	light := testutil.CreateTechnician(t, h.repos, "light", 2, "Hardware")
	testutil.CreateTechnician(t, h.repos, "netonly", 0, "Network")

	submitted, err := h.tickets.SubmitTicket(ctx, user.ID, SubmitTicketInput{Subject: "printer", Description: "odd noise"})
	require.NoError(t, err)
	require.True(t, submitted.Ticket.FlaggedForManualReview)

	suggestions, err := h.assignments.Suggestions(ctx, submitted.Ticket.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, light.ID, suggestions[0].ID)
	assert.Equal(t, heavy.ID, suggestions[1].ID)
}
