package attendance

import (
	"context"

	"github.com/asistio/core/internal/models"
)

// RegisterInput carries one attendee registration.
type RegisterInput struct {
	Token          string
	IdentityNumber string
	Name           string
	Role           string
	Unit           string
	Email          string
	// Signature is the drawn signature as a data URL or raw base64 PNG.
	Signature string
	SourceIP  string
}

// TokenResolver validates a registration token and yields its session. The
// session service satisfies it.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*models.TrainingSession, error)
}

// ImageNormalizer post-processes a decoded signature before storage. The
// default keeps bytes untouched.
type ImageNormalizer interface {
	Normalize(png []byte) ([]byte, error)
}

type noopNormalizer struct{}

func (noopNormalizer) Normalize(png []byte) ([]byte, error) { return png, nil }
