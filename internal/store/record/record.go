// Package record persists the three record kinds the platform owns —
// training sessions, attendees, and platform users — behind backend-neutral
// interfaces. Two backends conform: a flat JSON file store and a MongoDB
// document store. Reads of absent records return (nil, nil); only real
// backend failures produce errors, wrapped with ErrUnavailable.
package record

import (
	"context"
	"errors"

	"github.com/asistio/core/internal/models"
)

var (
	// ErrNotFound is returned by Replace when the target record no longer exists.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by Create when a uniqueness invariant is violated.
	ErrConflict = errors.New("record conflicts with an existing record")
	// ErrUnavailable wraps backend I/O and serialization failures.
	ErrUnavailable = errors.New("record storage unavailable")
)

// SessionStore persists training sessions. The session token carries a
// uniqueness constraint enforced at create time.
type SessionStore interface {
	Create(ctx context.Context, s *models.TrainingSession) error
	Get(ctx context.Context, id string) (*models.TrainingSession, error)
	GetByToken(ctx context.Context, token string) (*models.TrainingSession, error)
	// List returns sessions newest first. An empty ownerID lists everything.
	List(ctx context.Context, ownerID string) ([]models.TrainingSession, error)
	Replace(ctx context.Context, s *models.TrainingSession) error
	Delete(ctx context.Context, id string) (bool, error)
}

// AttendeeStore persists registrations. The (identity number, token) pair is
// unique among all attendees; Create enforces it.
type AttendeeStore interface {
	Create(ctx context.Context, a *models.Attendee) error
	ListBySession(ctx context.Context, sessionID string) ([]models.Attendee, error)
	CountBySession(ctx context.Context, sessionID string) (int, error)
	FindByIdentityToken(ctx context.Context, identityNumber, token string) (*models.Attendee, error)
	// DeleteBySession removes every attendee of a session and returns how many
	// records were removed. Removing zero records is not an error.
	DeleteBySession(ctx context.Context, sessionID string) (int, error)
}

// UserStore persists platform users.
type UserStore interface {
	Create(ctx context.Context, u *models.PlatformUser) error
	Get(ctx context.Context, id string) (*models.PlatformUser, error)
	List(ctx context.Context) ([]models.PlatformUser, error)
	Replace(ctx context.Context, u *models.PlatformUser) error
	Delete(ctx context.Context, id string) (bool, error)
	// AdjustFormsCreated atomically adds delta to the user's forms counter.
	AdjustFormsCreated(ctx context.Context, id string, delta int) error
}

// Store bundles the three record kinds a backend serves.
type Store interface {
	Sessions() SessionStore
	Attendees() AttendeeStore
	Users() UserStore
}
