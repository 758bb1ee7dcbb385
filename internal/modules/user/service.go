package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/asistio/core/internal/models"
	"github.com/asistio/core/internal/pkg/clock"
	"github.com/asistio/core/internal/store/record"
	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrInvalidRole = errors.New("invalid role")

	// ErrLastAdministrator blocks deleting the only remaining administrator
	// so the platform can never lock itself out.
	ErrLastAdministrator = errors.New("cannot remove the last administrator")
)

// Service manages platform users. Identity arrives from the external login
// flow; this service only keeps the profile, the role, and the forms-created
// counter in step.
type Service struct {
	users record.UserStore
	clock clock.Clock
	log   *zap.Logger
}

func NewService(users record.UserStore, clk clock.Clock, log *zap.Logger) *Service {
	return &Service{users: users, clock: clk, log: log}
}

// RegisterOrGet returns the stored profile for id, creating it with the
// Member role on first sight. A racing first login loses the create to the
// unique constraint and falls back to the read.
func (s *Service) RegisterOrGet(ctx context.Context, id, name string) (*models.PlatformUser, error) {
	existing, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	u := &models.PlatformUser{
		ID:       id,
		Name:     strings.TrimSpace(name),
		Role:     models.RoleMember,
		JoinedAt: s.clock.Now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, record.ErrConflict) {
			return s.users.Get(ctx, id)
		}
		return nil, err
	}
	s.log.Info("new platform user registered", zap.String("user_id", id))
	return u, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id string) (*models.PlatformUser, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// List returns all platform users.
func (s *Service) List(ctx context.Context) ([]models.PlatformUser, error) {
	return s.users.List(ctx)
}

// Role returns the role for id, defaulting to Member for identities that
// have no stored profile yet.
func (s *Service) Role(ctx context.Context, id string) (string, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if u == nil {
		return models.RoleMember, nil
	}
	return u.Role, nil
}

// UpdateRole assigns a new role to a user. Demoting the last administrator
// is refused for the same reason deleting one is.
func (s *Service) UpdateRole(ctx context.Context, id, role string) (*models.PlatformUser, error) {
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	if u.Role == models.RoleAdministrator && role != models.RoleAdministrator {
		last, err := s.isLastAdministrator(ctx, id)
		if err != nil {
			return nil, err
		}
		if last {
			return nil, ErrLastAdministrator
		}
	}

	u.Role = role
	if err := s.users.Replace(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a user profile unless they are the last administrator.
func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	if u.Role == models.RoleAdministrator {
		last, err := s.isLastAdministrator(ctx, id)
		if err != nil {
			return err
		}
		if last {
			return ErrLastAdministrator
		}
	}

	removed, err := s.users.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}

func (s *Service) isLastAdministrator(ctx context.Context, id string) (bool, error) {
	all, err := s.users.List(ctx)
	if err != nil {
		return false, err
	}
	for _, other := range all {
		if other.ID != id && other.Role == models.RoleAdministrator {
			return false, nil
		}
	}
	return true, nil
}
