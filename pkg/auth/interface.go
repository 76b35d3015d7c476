package auth

import (
	"context"
	"crypto"
	"time"
)

// Claims is the verified claim set of a bearer token.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	// Scopes is nil when the token carries no permission list at all, and
	// non-nil (possibly empty) when the list is present.
	Scopes []string
	Raw    map[string]interface{}
}

// HasScope checks if the claims contain a specific scope
func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Validator validates bearer tokens and returns their claims. Failures are
// reported as *Error.
type Validator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
}

// KeySet maps key ids to public verification keys.
type KeySet map[string]crypto.PublicKey

// KeySetProvider fetches the published signing keys of an issuer.
type KeySetProvider interface {
	Fetch(ctx context.Context, issuer string) (KeySet, error)
}

// Config contains validator configuration
type Config struct {
	JwksURL            string
	Issuer             string
	Audience           string
	Algorithms         []string
	ClockSkew          time.Duration
	HTTPTimeout        time.Duration
	KeySetTTL          time.Duration
	MinRefreshInterval time.Duration
}

type claimsKey struct{}

// ContextWithClaims stores verified claims on ctx.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by ContextWithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}
