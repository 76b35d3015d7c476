// Package authtest provides a throwaway token issuer for tests: an RSA key,
// an httptest server publishing its JWKS and OpenID configuration, and
// helpers to mint signed tokens.
package authtest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/osvaldoandrade/coffeeshop/pkg/auth"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultKID      = "test-key-1"
	DefaultAudience = "coffeeshop"
	JWKSPath        = "/.well-known/jwks.json"
)

// Issuer is a test identity provider. Its URL doubles as the issuer claim.
type Issuer struct {
	Key      *rsa.PrivateKey
	KID      string
	Audience string
	Server   *httptest.Server

	fetches atomic.Int64
}

// NewIssuer starts an issuer and registers its shutdown with t.Cleanup.
func NewIssuer(t *testing.T) *Issuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key gen: %v", err)
	}
	iss := &Issuer{Key: key, KID: DefaultKID, Audience: DefaultAudience}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                iss.URL(),
			"jwks_uri":                              iss.JWKSURL(),
			"authorization_endpoint":                iss.URL() + "/authorize",
			"token_endpoint":                        iss.URL() + "/oauth/token",
			"response_types_supported":              []string{"code"},
			"subject_types_supported":               []string{"public"},
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc(JWKSPath, func(w http.ResponseWriter, r *http.Request) {
		iss.fetches.Add(1)
		jwk := jose.JSONWebKey{Key: &iss.Key.PublicKey, KeyID: iss.KID, Algorithm: "RS256", Use: "sig"}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []jose.JSONWebKey{jwk}})
	})
	iss.Server = httptest.NewServer(mux)
	t.Cleanup(iss.Server.Close)
	return iss
}

func (i *Issuer) URL() string     { return i.Server.URL }
func (i *Issuer) JWKSURL() string { return i.Server.URL + JWKSPath }

// Fetches reports how many times the JWKS document was served.
func (i *Issuer) Fetches() int64 { return i.fetches.Load() }

// Config returns validator settings matching this issuer.
func (i *Issuer) Config() auth.Config {
	return auth.Config{
		JwksURL:     i.JWKSURL(),
		Issuer:      i.URL(),
		Audience:    i.Audience,
		ClockSkew:   time.Second,
		HTTPTimeout: 5 * time.Second,
	}
}

// Claims returns a valid claim set for subject, granting permissions. Pass
// no permissions to omit the claim entirely.
func (i *Issuer) Claims(subject string, permissions ...string) jwt.MapClaims {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": i.URL(),
		"aud": i.Audience,
		"sub": subject,
		"iat": now.Add(-10 * time.Second).Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	if len(permissions) > 0 {
		claims["permissions"] = permissions
	}
	return claims
}

// Sign signs claims with the issuer key under its kid.
func (i *Issuer) Sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	return SignWith(t, i.Key, i.KID, claims)
}

// Token mints a valid token for subject with the given permissions.
func (i *Issuer) Token(t *testing.T, subject string, permissions ...string) string {
	t.Helper()
	return i.Sign(t, i.Claims(subject, permissions...))
}

// SignWith signs claims with key using RS256, setting kid when non-empty.
func SignWith(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	s, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// StaticKeySetProvider serves a fixed key set and counts fetches.
type StaticKeySetProvider struct {
	Keys  auth.KeySet
	Err   error
	calls atomic.Int64
}

func (p *StaticKeySetProvider) Fetch(ctx context.Context, issuer string) (auth.KeySet, error) {
	p.calls.Add(1)
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Keys, nil
}

func (p *StaticKeySetProvider) Calls() int64 { return p.calls.Load() }
