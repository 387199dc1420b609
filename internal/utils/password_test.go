package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-password", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotContains(t, hash, "s3cret-password")

	require.True(t, VerifyPassword(hash, "s3cret-password"))
	require.False(t, VerifyPassword(hash, "wrong-password"))
	require.False(t, VerifyPassword(hash, ""))
}

func TestPasswordHashesDiffer(t *testing.T) {
	// bcrypt salts per call, so identical inputs never share a hash.
	h1, err := HashPassword("same", bcrypt.MinCost)
	require.NoError(t, err)
	h2, err := HashPassword("same", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)
}

func TestVerifyPasswordBadHash(t *testing.T) {
	require.False(t, VerifyPassword("not-a-bcrypt-hash", "anything"))
}
