package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to domain.TicketStatus
		ok       bool
	}{
		{domain.TicketStatusSubmitted, domain.TicketStatusClassified, true},
		{domain.TicketStatusClassified, domain.TicketStatusAssigned, true},
		{domain.TicketStatusAssigned, domain.TicketStatusInProgress, true},
		{domain.TicketStatusInProgress, domain.TicketStatusResolved, true},
		{domain.TicketStatusResolved, domain.TicketStatusClosed, true},
		{domain.TicketStatusClassified, domain.TicketStatusResolved, false},
		{domain.TicketStatusAssigned, domain.TicketStatusResolved, false},
		{domain.TicketStatusInProgress, domain.TicketStatusClosed, false},
		{domain.TicketStatusResolved, domain.TicketStatusResolved, false},
		{domain.TicketStatusClosed, domain.TicketStatusClassified, false},
		{domain.TicketStatusResolved, domain.TicketStatusInProgress, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestApplyWalksFullLifecycle(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{Status: domain.TicketStatusSubmitted, SubmittedAt: base}

	steps := []domain.TicketStatus{
		domain.TicketStatusClassified,
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	}
	for i, step := range steps {
		require.NoError(t, Apply(ticket, step, base.Add(time.Duration(i+1)*time.Minute)))
		assert.Equal(t, step, ticket.Status)
	}

	require.NotNil(t, ticket.ClassifiedAt)
	require.NotNil(t, ticket.ClosedAt)
	ordered := []*time.Time{ticket.ClassifiedAt, ticket.AssignedAt, ticket.InProgressAt, ticket.ResolvedAt, ticket.ClosedAt}
	prev := ticket.SubmittedAt
	for _, ts := range ordered {
		require.NotNil(t, ts)
		assert.False(t, ts.Before(prev))
		prev = *ts
	}
}

func TestApplyRejectsSkippedStage(t *testing.T) {
	now := time.Now()
	ticket := &domain.Ticket{Status: domain.TicketStatusClassified, SubmittedAt: now, ClassifiedAt: &now}

	err := Apply(ticket, domain.TicketStatusResolved, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, domain.TicketStatusClassified, transitionErr.From)
	assert.Equal(t, domain.TicketStatusResolved, transitionErr.To)

	assert.Equal(t, domain.TicketStatusClassified, ticket.Status)
	assert.Nil(t, ticket.ResolvedAt)
}

func TestApplyClampsClockSkew(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{Status: domain.TicketStatusSubmitted, SubmittedAt: base}

	require.NoError(t, Apply(ticket, domain.TicketStatusClassified, base.Add(-time.Hour)))
	assert.Equal(t, base, *ticket.ClassifiedAt)
}

func TestApplyRejectsDuplicateResolve(t *testing.T) {
	now := time.Now()
	ticket := &domain.Ticket{Status: domain.TicketStatusInProgress, SubmittedAt: now}
	require.NoError(t, Apply(ticket, domain.TicketStatusResolved, now))
	resolvedAt := *ticket.ResolvedAt

	err := Apply(ticket, domain.TicketStatusResolved, now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, resolvedAt, *ticket.ResolvedAt)
}

func TestValidateSubmission(t *testing.T) {
	assert.NoError(t, ValidateSubmission("Printer", "jammed"))
	assert.Error(t, ValidateSubmission(" ", "jammed"))
	assert.Error(t, ValidateSubmission("Printer", ""))
}
