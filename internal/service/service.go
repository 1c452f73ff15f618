// Package service implements the helpdesk lifecycle on top of the
// repository store, classifier gate and notification worker.
package service

import (
	"errors"
	"time"

	"github.com/helpdesk-ml/helpdesk/internal/domain"
	"github.com/helpdesk-ml/helpdesk/internal/repository"
	"github.com/helpdesk-ml/helpdesk/internal/worker"
	"github.com/helpdesk-ml/helpdesk/internal/workflow"
	apperrors "github.com/helpdesk-ml/helpdesk/pkg/errorutil"
)

// Actor identifies the account performing an operation.
type Actor struct {
	Type domain.SubjectType
	ID   int64
}

// Pusher accepts real-time deliveries. worker.NotificationWorker satisfies it.
type Pusher interface {
	Enqueue(push worker.Push) bool
}

func systemClock() time.Time { return time.Now().UTC() }

func clockOrDefault(clock func() time.Time) func() time.Time {
	if clock == nil {
		return systemClock
	}
	return clock
}

// mapError converts repository and workflow errors into domain errors.
func mapError(err error, resource string, id int64) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	var transition *workflow.TransitionError
	if errors.As(err, &transition) {
		return apperrors.NewInvalidTransition(string(transition.From), string(transition.To))
	}
	return apperrors.NewInternalError(err)
}
