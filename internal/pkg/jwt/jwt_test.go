package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("sub-1", "Ana", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token)
	require.NoError(t, err)
	require.Equal(t, "sub-1", claims.Subject)
	require.Equal(t, "Ana", claims.Name)
}

func TestParseRejectsExpired(t *testing.T) {
	SetSecret("test-secret")

	token, err := Sign("sub-1", "", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token)
	require.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	SetSecret("secret-a")
	token, err := Sign("sub-1", "", time.Hour)
	require.NoError(t, err)

	SetSecret("secret-b")
	_, err = Parse(token)
	require.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	SetSecret("test-secret")
	_, err := Parse("not.a.token")
	require.Error(t, err)
}
