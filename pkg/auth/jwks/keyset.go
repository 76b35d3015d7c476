package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/osvaldoandrade/coffeeshop/pkg/auth"

	"github.com/coreos/go-oidc/v3/oidc"
	jose "github.com/go-jose/go-jose/v4"
)

const maxKeySetBytes = 1 << 20

// HTTPKeySetProvider fetches a JWKS document over HTTP. When no JWKS URL is
// configured the URL is discovered from the issuer's OpenID configuration
// and remembered per issuer.
type HTTPKeySetProvider struct {
	jwksURL string
	client  *http.Client

	mu         sync.Mutex
	discovered map[string]string
}

func NewHTTPKeySetProvider(jwksURL string, timeout time.Duration) *HTTPKeySetProvider {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPKeySetProvider{
		jwksURL:    strings.TrimSpace(jwksURL),
		client:     &http.Client{Timeout: timeout},
		discovered: make(map[string]string),
	}
}

func (p *HTTPKeySetProvider) Fetch(ctx context.Context, issuer string) (auth.KeySet, error) {
	u, err := p.resolve(ctx, issuer)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build JWKS request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxKeySetBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}
	return parseKeySet(body)
}

func (p *HTTPKeySetProvider) resolve(ctx context.Context, issuer string) (string, error) {
	if p.jwksURL != "" {
		return p.jwksURL, nil
	}
	if strings.TrimSpace(issuer) == "" {
		return "", errors.New("jwks: issuer is required for discovery")
	}

	p.mu.Lock()
	u, ok := p.discovered[issuer]
	p.mu.Unlock()
	if ok {
		return u, nil
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, p.client), issuer)
	if err != nil {
		return "", fmt.Errorf("oidc discovery failed: %w", err)
	}
	var meta struct {
		JwksURI string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil {
		return "", fmt.Errorf("invalid discovery metadata: %w", err)
	}
	if meta.JwksURI == "" {
		return "", errors.New("discovery metadata has no jwks_uri")
	}

	p.mu.Lock()
	p.discovered[issuer] = meta.JwksURI
	p.mu.Unlock()
	return meta.JwksURI, nil
}

// parseKeySet keeps the public signing keys of a JWKS document. Keys that
// fail to parse are skipped so one unsupported entry does not hide the rest.
func parseKeySet(body []byte) (auth.KeySet, error) {
	var doc struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}

	keys := make(auth.KeySet, len(doc.Keys))
	for _, raw := range doc.Keys {
		var jwk jose.JSONWebKey
		if err := json.Unmarshal(raw, &jwk); err != nil {
			continue
		}
		if jwk.KeyID == "" || !jwk.IsPublic() {
			continue
		}
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		keys[jwk.KeyID] = jwk.Key
	}
	return keys, nil
}
