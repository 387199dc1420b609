package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-signing-key"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "EMPLOYEE", "worker@example.com", 60)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	require.WithinDuration(t, time.Now().UTC().Add(time.Hour), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), claims.UserID)
	require.Equal(t, "EMPLOYEE", claims.Role)
	require.Equal(t, "worker@example.com", claims.Email)
	require.WithinDuration(t, tok.Exp, claims.ExpiresAt, time.Second)
}

func TestParseAccessTokenExpired(t *testing.T) {
	// A negative TTL mints an already-expired but correctly signed token.
	tok, err := NewAccessToken(testSecret, 7, "ADMIN", "boss@example.com", -1)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, tok.Token)
	// Expired must be reported as expired, never as invalid.
	require.ErrorIs(t, err, ErrTokenExpired)
	require.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 7, "ADMIN", "boss@example.com", 60)
	require.NoError(t, err)

	_, err = ParseAccessToken("a-different-key", tok.Token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseAccessTokenMalformed(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b.c", "eyJhbGciOiJIUzI1NiJ9.e30."} {
		_, err := ParseAccessToken(testSecret, raw)
		require.ErrorIs(t, err, ErrTokenInvalid, raw)
	}
}

func TestParseAccessTokenRejectsNonHMAC(t *testing.T) {
	// alg=none style tokens must never validate even with a good payload.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": 42, "role": "ADMIN", "exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseAccessTokenStringSubject(t *testing.T) {
	// Some encoders emit the subject as a numeric string; both forms decode.
	claims := jwt.MapClaims{
		"sub":  "42",
		"role": "EMPLOYEE",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	got, err := ParseAccessToken(testSecret, raw)
	require.NoError(t, err)
	require.Equal(t, uint64(42), got.UserID)
}
