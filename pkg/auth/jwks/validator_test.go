package jwks

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/osvaldoandrade/coffeeshop/pkg/auth"
	"github.com/osvaldoandrade/coffeeshop/pkg/auth/authtest"

	"github.com/golang-jwt/jwt/v5"
)

func newTestValidator(t *testing.T, iss *authtest.Issuer) auth.Validator {
	t.Helper()
	v, err := NewValidator(iss.Config())
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}
	return v
}

func expectAuthError(t *testing.T, err error, code string, status int) {
	t.Helper()
	var ae *auth.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *auth.Error, got %v", err)
	}
	if ae.Code != code || ae.Status != status {
		t.Fatalf("expected %s/%d, got %s/%d (%v)", code, status, ae.Code, ae.Status, err)
	}
}

func TestJWKSValidator(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	token := iss.Token(t, "auth0|barista", "get:drinks-detail", "post:drinks")
	claims, err := v.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}

	if claims.Subject != "auth0|barista" {
		t.Errorf("expected subject 'auth0|barista', got '%s'", claims.Subject)
	}
	if claims.Issuer != iss.URL() {
		t.Errorf("expected issuer '%s', got '%s'", iss.URL(), claims.Issuer)
	}
	if len(claims.Audience) != 1 || claims.Audience[0] != authtest.DefaultAudience {
		t.Errorf("expected audience [%s], got %v", authtest.DefaultAudience, claims.Audience)
	}
	if len(claims.Scopes) != 2 || claims.Scopes[0] != "get:drinks-detail" || claims.Scopes[1] != "post:drinks" {
		t.Errorf("unexpected scopes %v", claims.Scopes)
	}
	if claims.ExpiresAt.Before(time.Now()) {
		t.Errorf("expected future expiry, got %v", claims.ExpiresAt)
	}
}

func TestJWKSValidatorScopeClaimFallback(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	claims := iss.Claims("svc")
	claims["scope"] = "openid delete:drinks"
	got, err := v.Validate(context.Background(), iss.Sign(t, claims))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !got.HasScope("delete:drinks") {
		t.Fatalf("expected delete:drinks from scope claim, got %v", got.Scopes)
	}
}

func TestJWKSValidatorNoPermissionClaim(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	got, err := v.Validate(context.Background(), iss.Token(t, "u1"))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.Scopes != nil {
		t.Fatalf("expected nil scopes when no permission claim, got %v", got.Scopes)
	}

	claims := iss.Claims("u1")
	claims["permissions"] = []string{}
	got, err = v.Validate(context.Background(), iss.Sign(t, claims))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.Scopes == nil || len(got.Scopes) != 0 {
		t.Fatalf("expected empty non-nil scopes, got %#v", got.Scopes)
	}
}

func TestJWKSValidatorNullPermissionClaim(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	for name, value := range map[string]any{"null": nil, "number": 42, "object": map[string]any{"a": "b"}} {
		t.Run(name, func(t *testing.T) {
			claims := iss.Claims("u1")
			claims["permissions"] = value
			got, err := v.Validate(context.Background(), iss.Sign(t, claims))
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if got.Scopes != nil {
				t.Fatalf("expected nil scopes, got %#v", got.Scopes)
			}
			expectAuthError(t, auth.Authorize(got, auth.ScopePostDrinks), auth.CodeInvalidClaims, http.StatusBadRequest)
		})
	}

	claims := iss.Claims("u1")
	claims["permissions"] = nil
	claims["scope"] = "post:drinks"
	got, err := v.Validate(context.Background(), iss.Sign(t, claims))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !got.HasScope(auth.ScopePostDrinks) {
		t.Fatalf("expected scope claim to be used when permissions is null, got %v", got.Scopes)
	}
}

func TestJWKSValidatorInvalidIssuer(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	claims := iss.Claims("u1", "post:drinks")
	claims["iss"] = "https://wrong-issuer.example.com/"
	_, err := v.Validate(context.Background(), iss.Sign(t, claims))
	expectAuthError(t, err, auth.CodeInvalidClaims, http.StatusBadRequest)
}

func TestJWKSValidatorInvalidAudience(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	claims := iss.Claims("u1", "post:drinks")
	claims["aud"] = "wrong-audience"
	_, err := v.Validate(context.Background(), iss.Sign(t, claims))
	expectAuthError(t, err, auth.CodeInvalidClaims, http.StatusBadRequest)
}

func TestJWKSValidatorExpiredToken(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	claims := iss.Claims("u1", "post:drinks")
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	claims["iat"] = time.Now().Add(-2 * time.Hour).Unix()
	_, err := v.Validate(context.Background(), iss.Sign(t, claims))
	expectAuthError(t, err, auth.CodeTokenExpired, http.StatusUnauthorized)
}

func TestJWKSValidatorMissingKID(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	tok := authtest.SignWith(t, iss.Key, "", iss.Claims("u1"))
	_, err := v.Validate(context.Background(), tok)
	expectAuthError(t, err, auth.CodeInvalidHeader, http.StatusUnauthorized)
}

func TestJWKSValidatorUnknownKID(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	tok := authtest.SignWith(t, iss.Key, "rotated-away", iss.Claims("u1"))
	_, err := v.Validate(context.Background(), tok)
	expectAuthError(t, err, auth.CodeInvalidHeader, http.StatusUnauthorized)
}

func TestJWKSValidatorMalformedToken(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	_, err := v.Validate(context.Background(), "not-a-jwt")
	expectAuthError(t, err, auth.CodeInvalidHeader, http.StatusBadRequest)
}

func TestJWKSValidatorWrongSigningKey(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key gen: %v", err)
	}
	tok := authtest.SignWith(t, other, iss.KID, iss.Claims("u1", "post:drinks"))
	_, err = v.Validate(context.Background(), tok)
	expectAuthError(t, err, auth.CodeInvalidHeader, http.StatusBadRequest)
}

func TestJWKSValidatorRejectsDisallowedAlgorithm(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, iss.Claims("u1", "post:drinks"))
	tok.Header["kid"] = iss.KID
	s, err := tok.SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = v.Validate(context.Background(), s)
	expectAuthError(t, err, auth.CodeInvalidHeader, http.StatusBadRequest)
}

func TestJWKSValidatorDiscovery(t *testing.T) {
	iss := authtest.NewIssuer(t)
	cfg := iss.Config()
	cfg.JwksURL = ""
	v, err := NewValidator(cfg)
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}

	if _, err := v.Validate(context.Background(), iss.Token(t, "u1", "post:drinks")); err != nil {
		t.Fatalf("validate via discovery: %v", err)
	}
	if iss.Fetches() != 1 {
		t.Fatalf("expected one JWKS fetch, got %d", iss.Fetches())
	}
}

func TestJWKSValidatorCachesKeySet(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newTestValidator(t, iss)

	for i := 0; i < 5; i++ {
		if _, err := v.Validate(context.Background(), iss.Token(t, "u1", "post:drinks")); err != nil {
			t.Fatalf("validate %d: %v", i, err)
		}
	}
	if iss.Fetches() != 1 {
		t.Fatalf("expected key set to be fetched once, got %d", iss.Fetches())
	}
}

func TestNewValidatorRequiresIssuerAndAudience(t *testing.T) {
	if _, err := NewValidator(auth.Config{Audience: "a"}); err == nil {
		t.Fatal("expected error without issuer")
	}
	if _, err := NewValidator(auth.Config{Issuer: "https://issuer/"}); err == nil {
		t.Fatal("expected error without audience")
	}
}

func TestNewValidatorFromRegistry(t *testing.T) {
	iss := authtest.NewIssuer(t)
	raw := []byte(`{"jwksUrl":"` + iss.JWKSURL() + `","issuer":"` + iss.URL() + `","audience":"coffeeshop","clockSkewSeconds":5}`)
	v, err := auth.NewValidator(auth.ProviderConfig{Type: "jwks", Config: raw})
	if err != nil {
		t.Fatalf("registry validator: %v", err)
	}
	if _, err := v.Validate(context.Background(), iss.Token(t, "u1", "patch:drinks")); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
