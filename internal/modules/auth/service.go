// Package auth covers the small server-side slice of authentication the core
// keeps for itself: the login flow lives elsewhere, but issued tokens can be
// revoked here and the middleware consults the revocation list on every
// authenticated request.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/asistio/core/internal/pkg/authstate"
	"go.uber.org/zap"
)

const revokedPrefix = "revoked:"

// Service keeps revoked tokens in the TTL auth-state store. Entries outlive
// the longest token validity window, so an expired entry can only belong to
// a token that is itself expired.
type Service struct {
	state *authstate.Store
	log   *zap.Logger
}

func NewService(state *authstate.Store, log *zap.Logger) *Service {
	return &Service{state: state, log: log}
}

// Revoke invalidates a token for the rest of its lifetime.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.state.Put(ctx, revokedPrefix+fingerprint(token), "1")
}

// IsRevoked reports whether the token was revoked. A store failure counts as
// revoked: failing open would let a logged-out token keep working while
// Redis is down.
func (s *Service) IsRevoked(ctx context.Context, token string) bool {
	ok, err := s.state.Exists(ctx, revokedPrefix+fingerprint(token))
	if err != nil {
		s.log.Error("revocation lookup failed", zap.Error(err))
		return true
	}
	return ok
}

// fingerprint keys the store by token digest so raw credentials never land
// in Redis.
func fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
