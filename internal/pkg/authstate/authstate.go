// Package authstate holds transient login-flow state (OAuth state nonces,
// pending identity handshakes) in a TTL-bearing key-value store. It replaces
// the process-wide maps the login layer would otherwise keep: entries expire
// on their own and survive across workers.
package authstate

import (
	"context"
	"errors"
	"time"

	pkgredis "github.com/asistio/core/internal/pkg/redis"
)

const keyPrefix = "authstate:"

// ErrNotFound is returned when a key is absent or already expired.
var ErrNotFound = errors.New("auth state not found")

// Store is a namespaced TTL key-value view over Redis.
type Store struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// New creates a store whose entries expire after ttl.
func New(client *pkgredis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{client: client, ttl: ttl}
}

// Put stores value under key with the configured TTL.
func (s *Store) Put(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, keyPrefix+key, value, s.ttl)
}

// Get returns the value for key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, keyPrefix+key)
	if err != nil {
		return "", err
	}
	if val == "" {
		return "", ErrNotFound
	}
	return val, nil
}

// Take returns the value for key and deletes it in the same call, so a state
// nonce can be redeemed at most once.
func (s *Store) Take(ctx context.Context, key string) (string, error) {
	val, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if err := s.client.Del(ctx, keyPrefix+key); err != nil {
		return "", err
	}
	return val, nil
}

// Exists reports whether key is present and unexpired.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	return s.client.Exists(ctx, keyPrefix+key)
}

// Drop removes key without reading it.
func (s *Store) Drop(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key)
}
