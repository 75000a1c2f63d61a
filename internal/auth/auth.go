package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	domain "github.com/oshokin/alarm-orchestrator/internal/domain/alarm"
)

// Identity is the verified caller attached to a request context.
type Identity struct {
	// SubjectID is the subject claim of the verified credential.
	SubjectID string
	// Token is the raw bearer credential, forwarded to the registry so it
	// can apply its own access checks.
	Token string
}

// Clone returns a copy of the identity.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}

	cloned := *i

	return &cloned
}

// Verifier validates bearer credentials against the deployment's shared secret.
// Verification is purely local; it never calls another service.
type Verifier struct {
	// secret is the HMAC key shared with the identity authority.
	secret []byte
}

// errSecretRequired is returned when a verifier is built without a secret.
var errSecretRequired = errors.New("auth secret must be provided")

// NewVerifier creates a verifier for HS256-signed credentials.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, errSecretRequired
	}

	return &Verifier{secret: []byte(secret)}, nil
}

// Verify checks the raw credential's signature and expiry and extracts the
// subject. Any structural or cryptographic failure yields ErrUnauthenticated.
func (v *Verifier) Verify(raw string) (*Identity, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: missing credential", domain.ErrUnauthenticated)
	}

	token, err := jwt.Parse(
		raw,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("%w: credential has no subject", domain.ErrUnauthenticated)
	}

	return &Identity{
		SubjectID: subject,
		Token:     raw,
	}, nil
}

// identityKey is the private context key type for the caller identity.
type identityKey struct{}

// ToContext returns a context carrying the verified identity.
func ToContext(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// FromContext extracts the verified identity from the context.
// The second return is false for anonymous (sensor-originated) requests.
func FromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}

	return identity, true
}
