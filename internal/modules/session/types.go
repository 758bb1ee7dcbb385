package session

import (
	"context"

	"github.com/asistio/core/internal/models"
)

// CreateInput carries the caller-supplied fields of a new session. Token,
// link, QR, and expiry are derived server-side.
type CreateInput struct {
	Topic        string
	Date         string
	ActivityType string
	Facilitator  string
	Responsible  string
	Role         string
	Content      string
	StartTime    string
	EndTime      string
}

// UpdateInput is a merge-patch: nil fields stay untouched.
type UpdateInput struct {
	Topic        *string
	Date         *string
	ActivityType *string
	Facilitator  *string
	Responsible  *string
	Role         *string
	Content      *string
	StartTime    *string
	EndTime      *string
	TokenActive  *bool
}

// WithCount is a session plus its attendee count, the shape listings return.
type WithCount struct {
	models.TrainingSession
	TotalAttendees int `json:"total_attendees"`
}

// AttendeeRemover is the slice of the attendance registrar the session
// cascade consumes: count registrations and remove them (records plus
// signature objects) when a session goes away.
type AttendeeRemover interface {
	CountBySession(ctx context.Context, sessionID string) (int, error)
	RemoveBySession(ctx context.Context, s *models.TrainingSession) (int, error)
}
