package session

import (
	"context"
	"errors"

	"github.com/asistio/core/internal/models"
	"github.com/asistio/core/internal/pkg/saga"
	"github.com/asistio/core/internal/store/record"
	"go.uber.org/zap"
)

// Reconciler keeps the owner's forms-created counter consistent with the
// sessions that actually exist. There is no cross-entity transaction between
// the session collection and the user collection, so both directions run as
// a saga with explicit compensations.
type Reconciler struct {
	svc   *Service
	users record.UserStore
	log   *zap.Logger
}

func NewReconciler(svc *Service, users record.UserStore, log *zap.Logger) *Reconciler {
	return &Reconciler{svc: svc, users: users, log: log}
}

// Create issues the session and then increments the owner's counter. When
// the increment fails the just-created session is deleted again and the
// increment error surfaces: a session must not exist without its counter
// bump.
func (r *Reconciler) Create(ctx context.Context, in CreateInput, ownerID string) (*models.TrainingSession, error) {
	if ownerID == "" {
		return r.svc.Issue(ctx, in, ownerID)
	}

	var created *models.TrainingSession
	steps := []saga.Step{
		{
			Name: "create session",
			Run: func(ctx context.Context) error {
				sess, err := r.svc.Issue(ctx, in, ownerID)
				if err != nil {
					return err
				}
				created = sess
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return r.svc.cascade(ctx, created)
			},
		},
		{
			Name: "increment owner counter",
			Run: func(ctx context.Context) error {
				return r.users.AdjustFormsCreated(ctx, ownerID, +1)
			},
		},
	}

	warnings, err := r.execute(ctx, steps)
	r.logWarnings("session create", warnings)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Delete decrements the counter first (inverted order keeps the counter
// correct even when the record delete fails), then removes attendees, then
// the session itself. A failed final delete re-increments the counter; a
// failed attendee cleanup is reported as a warning and does not block.
func (r *Reconciler) Delete(ctx context.Context, id, requesterID string) ([]error, error) {
	sess, err := r.svc.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	if sess.OwnerID != "" && sess.OwnerID != requesterID {
		return nil, ErrForbidden
	}
	if sess.OwnerID == "" {
		return nil, r.svc.cascade(ctx, sess)
	}

	steps := []saga.Step{
		{
			Name: "decrement owner counter",
			Run: func(ctx context.Context) error {
				return r.users.AdjustFormsCreated(ctx, sess.OwnerID, -1)
			},
			Compensate: func(ctx context.Context) error {
				return r.users.AdjustFormsCreated(ctx, sess.OwnerID, +1)
			},
		},
		{
			Name:            "delete attendees",
			ContinueOnError: true,
			Run: func(ctx context.Context) error {
				return r.svc.removeAttendees(ctx, sess)
			},
		},
		{
			Name: "delete session record",
			Run: func(ctx context.Context) error {
				return r.svc.removeSessionRecord(ctx, sess)
			},
		},
	}

	warnings, err := r.execute(ctx, steps)
	r.logWarnings("session delete", warnings)
	return warnings, err
}

// execute runs the saga, translating a missing-user counter step into a
// plain step failure (the saga machinery already attaches context).
func (r *Reconciler) execute(ctx context.Context, steps []saga.Step) ([]error, error) {
	warnings, err := saga.Execute(ctx, steps)
	if err != nil {
		var aborted *saga.AbortedError
		if errors.As(err, &aborted) && len(aborted.CompensationErrs) > 0 {
			for _, ce := range aborted.CompensationErrs {
				r.log.Error("saga compensation failed", zap.Error(ce))
			}
		}
	}
	return warnings, err
}

func (r *Reconciler) logWarnings(op string, warnings []error) {
	for _, w := range warnings {
		r.log.Warn(op+" finished with a degraded sub-step", zap.Error(w))
	}
}
