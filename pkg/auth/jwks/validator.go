package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/osvaldoandrade/coffeeshop/pkg/auth"

	"github.com/golang-jwt/jwt/v5"
)

// Validator validates JWT tokens using JWKS
type Validator struct {
	issuer   string
	audience string
	keys     *CachingKeySetProvider
	parser   *jwt.Parser
}

// NewValidator creates a JWKS validator that fetches keys over HTTP.
func NewValidator(cfg auth.Config) (auth.Validator, error) {
	return New(cfg, NewHTTPKeySetProvider(cfg.JwksURL, cfg.HTTPTimeout))
}

// New creates a validator backed by the given key set provider. The provider
// is wrapped in a cache unless it already is one.
func New(cfg auth.Config, provider auth.KeySetProvider) (*Validator, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}
	if provider == nil {
		return nil, errors.New("key set provider is required")
	}
	algs := cfg.Algorithms
	if len(algs) == 0 {
		algs = []string{"RS256"}
	}

	cache, ok := provider.(*CachingKeySetProvider)
	if !ok {
		cache = NewCachingKeySetProvider(provider, cfg.KeySetTTL, cfg.MinRefreshInterval)
	}

	return &Validator{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		keys:     cache,
		parser: jwt.NewParser(
			jwt.WithValidMethods(algs),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(cfg.ClockSkew),
		),
	}, nil
}

// Validate verifies the token's signature, expiry, issuer and audience and
// returns its claims. Every failure is an *auth.Error.
func (v *Validator) Validate(ctx context.Context, tokenString string) (*auth.Claims, error) {
	unverified, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, auth.NewError(auth.CodeInvalidHeader, http.StatusBadRequest, "Unable to parse authentication token.", err)
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, auth.NewError(auth.CodeInvalidHeader, http.StatusUnauthorized, "Authorization malformed.", nil)
	}

	key, err := v.keys.Lookup(ctx, v.issuer, kid)
	if err != nil {
		return nil, auth.NewError(auth.CodeInvalidHeader, http.StatusUnauthorized, "Unable to find the appropriate key.", err)
	}

	token, err := v.parser.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, auth.NewError(auth.CodeTokenExpired, http.StatusUnauthorized, "Token expired.", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return nil, auth.NewError(auth.CodeInvalidClaims, http.StatusBadRequest, "Incorrect claims. Please, check the audience and issuer.", err)
	default:
		return nil, auth.NewError(auth.CodeInvalidHeader, http.StatusBadRequest, "Unable to parse authentication token.", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, auth.NewError(auth.CodeInvalidHeader, http.StatusBadRequest, "Unable to parse authentication token.", errors.New("unexpected claims type"))
	}

	result := &auth.Claims{
		Scopes: scopesFromClaims(claims),
		Raw:    claims,
	}
	result.Subject, _ = claims.GetSubject()
	result.Issuer, _ = claims.GetIssuer()
	if aud, err := claims.GetAudience(); err == nil {
		result.Audience = []string(aud)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		result.IssuedAt = iat.Time
	}
	return result, nil
}

// scopesFromClaims reads the permissions array, falling back to the
// space-delimited scope claim. A null claim counts as absent, and nil is
// returned when no usable claim is present.
func scopesFromClaims(claims jwt.MapClaims) []string {
	raw := claims["permissions"]
	if raw == nil {
		raw = claims["scope"]
	}
	switch v := raw.(type) {
	case string:
		return append([]string{}, strings.Fields(v)...)
	case []interface{}:
		scopes := []string{}
		for _, s := range v {
			if str, ok := s.(string); ok {
				scopes = append(scopes, str)
			}
		}
		return scopes
	default:
		return nil
	}
}

type providerConfig struct {
	JwksURL                   string   `json:"jwksUrl"`
	Issuer                    string   `json:"issuer"`
	Audience                  string   `json:"audience"`
	Algorithms                []string `json:"algorithms,omitempty"`
	ClockSkewSeconds          int      `json:"clockSkewSeconds,omitempty"`
	HTTPTimeoutSeconds        int      `json:"httpTimeoutSeconds,omitempty"`
	KeySetTTLSeconds          int      `json:"keySetTtlSeconds,omitempty"`
	MinRefreshIntervalSeconds int      `json:"minRefreshIntervalSeconds,omitempty"`
}

// NewValidatorFromJSON builds a validator from registry configuration.
func NewValidatorFromJSON(raw json.RawMessage) (auth.Validator, error) {
	var cfg providerConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return NewValidator(auth.Config{
		JwksURL:            cfg.JwksURL,
		Issuer:             cfg.Issuer,
		Audience:           cfg.Audience,
		Algorithms:         cfg.Algorithms,
		ClockSkew:          time.Duration(cfg.ClockSkewSeconds) * time.Second,
		HTTPTimeout:        time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		KeySetTTL:          time.Duration(cfg.KeySetTTLSeconds) * time.Second,
		MinRefreshInterval: time.Duration(cfg.MinRefreshIntervalSeconds) * time.Second,
	})
}

func init() {
	auth.RegisterProvider("jwks", NewValidatorFromJSON)
}
