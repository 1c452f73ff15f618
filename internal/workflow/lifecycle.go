package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
)

// ErrInvalidTransition is returned when a status change skips or reverses a stage.
var ErrInvalidTransition = errors.New("invalid ticket status transition")

// TransitionError carries the rejected edge of the state machine.
type TransitionError struct {
	From domain.TicketStatus
	To   domain.TicketStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusSubmitted:  {domain.TicketStatusClassified},
	domain.TicketStatusClassified: {domain.TicketStatusAssigned},
	domain.TicketStatusAssigned:   {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
}

// CanTransition reports whether the lifecycle permits moving from one status to another.
func CanTransition(from, to domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsKnownStatus reports whether status is part of the lifecycle.
func IsKnownStatus(status domain.TicketStatus) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// IsOpen reports whether a ticket still counts against the open queue.
func IsOpen(status domain.TicketStatus) bool {
	return status != domain.TicketStatusResolved && status != domain.TicketStatusClosed
}

// Apply moves ticket to the given status and stamps the matching timestamp.
// A timestamp is never set twice and never precedes the previous stage.
func Apply(ticket *domain.Ticket, to domain.TicketStatus, at time.Time) error {
	if ticket == nil {
		return errors.New("nil ticket")
	}
	if !CanTransition(ticket.Status, to) {
		return &TransitionError{From: ticket.Status, To: to}
	}
	stamp := stampFor(ticket, to)
	if stamp == nil {
		return &TransitionError{From: ticket.Status, To: to}
	}
	if *stamp != nil {
		return &TransitionError{From: ticket.Status, To: to}
	}
	if floor := latestStamp(ticket); floor.After(at) {
		at = floor
	}
	ts := at
	*stamp = &ts
	ticket.Status = to
	ticket.UpdatedAt = at
	return nil
}

func stampFor(ticket *domain.Ticket, status domain.TicketStatus) **time.Time {
	switch status {
	case domain.TicketStatusClassified:
		return &ticket.ClassifiedAt
	case domain.TicketStatusAssigned:
		return &ticket.AssignedAt
	case domain.TicketStatusInProgress:
		return &ticket.InProgressAt
	case domain.TicketStatusResolved:
		return &ticket.ResolvedAt
	case domain.TicketStatusClosed:
		return &ticket.ClosedAt
	}
	return nil
}

func latestStamp(ticket *domain.Ticket) time.Time {
	latest := ticket.SubmittedAt
	for _, ts := range []*time.Time{ticket.ClassifiedAt, ticket.AssignedAt, ticket.InProgressAt, ticket.ResolvedAt, ticket.ClosedAt} {
		if ts != nil && ts.After(latest) {
			latest = *ts
		}
	}
	return latest
}

// ValidateSubmission checks the guard for creating a ticket.
func ValidateSubmission(subject, description string) error {
	if isBlank(subject) {
		return errors.New("subject is required")
	}
	if isBlank(description) {
		return errors.New("description is required")
	}
	return nil
}
