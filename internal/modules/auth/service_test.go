package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asistio/core/internal/pkg/authstate"
	pkgredis "github.com/asistio/core/internal/pkg/redis"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(authstate.New(pkgredis.Wrap(rdb), time.Hour), zap.NewNop())
}

func TestRevokeThenCheck(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.False(t, svc.IsRevoked(ctx, "token-a"))

	require.NoError(t, svc.Revoke(ctx, "token-a"))
	require.True(t, svc.IsRevoked(ctx, "token-a"))
	require.False(t, svc.IsRevoked(ctx, "token-b"), "other tokens unaffected")
}

func TestRevocationFailsClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewService(authstate.New(pkgredis.Wrap(rdb), time.Hour), zap.NewNop())

	mr.Close()

	require.True(t, svc.IsRevoked(context.Background(), "any"),
		"store failure must not let tokens through")
}
