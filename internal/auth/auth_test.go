package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

const testSecret = "test-secret"

// signToken issues an HS256 credential for tests.
func signToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	return signed
}

// TestVerify covers valid, expired, forged and malformed credentials.
func TestVerify(t *testing.T) {
	t.Parallel()

	verifier, err := NewVerifier(testSecret)
	require.NoError(t, err)

	// Valid credential.
	raw := signToken(t, testSecret, "7", time.Now().Add(time.Hour))

	identity, err := verifier.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "7", identity.SubjectID)
	require.Equal(t, raw, identity.Token)

	// Expired.
	expired := signToken(t, testSecret, "7", time.Now().Add(-time.Hour))

	_, err = verifier.Verify(expired)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	// Wrong secret.
	forged := signToken(t, "other-secret", "7", time.Now().Add(time.Hour))

	_, err = verifier.Verify(forged)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	// Structurally broken.
	_, err = verifier.Verify("not-a-token")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)

	// Absent.
	_, err = verifier.Verify("")
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

// TestVerify_NoSubject rejects credentials without a subject claim.
func TestVerify_NoSubject(t *testing.T) {
	t.Parallel()

	verifier, err := NewVerifier(testSecret)
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	raw, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, domain.ErrUnauthenticated)
}

// TestContextRoundtrip verifies identity attachment and anonymous contexts.
func TestContextRoundtrip(t *testing.T) {
	t.Parallel()

	_, ok := FromContext(context.Background())
	require.False(t, ok)

	identity := &Identity{SubjectID: "7", Token: "raw"}
	ctx := ToContext(context.Background(), identity)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, identity, got)
}
