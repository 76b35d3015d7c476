package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/osvaldoandrade/coffeeshop/pkg/auth"
	"github.com/osvaldoandrade/coffeeshop/pkg/auth/authtest"
	"github.com/osvaldoandrade/coffeeshop/pkg/auth/jwks"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	issuer *authtest.Issuer
	router *gin.Engine
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	iss := authtest.NewIssuer(t)
	validator, err := jwks.NewValidator(iss.Config())
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware(nil))
	r.GET("/protected", RequireScope(validator, auth.ScopeGetDrinksDetail), func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		ctxClaims, ok := auth.ClaimsFromContext(c.Request.Context())
		if !ok || ctxClaims != claims {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject})
	})
	return &testEnv{issuer: iss, router: r}
}

func (e *testEnv) do(t *testing.T, header string) (*httptest.ResponseRecorder, domain.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var body domain.ErrorResponse
	if w.Code != http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
		}
	}
	return w, body
}

func TestRequireScopeAllows(t *testing.T) {
	env := setupEnv(t)
	tok := env.issuer.Token(t, "barista", auth.ScopeGetDrinksDetail)

	w, _ := env.do(t, "Bearer "+tok)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != `{"sub":"barista"}` {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestRequireScopeRejections(t *testing.T) {
	env := setupEnv(t)
	iss := env.issuer

	noPerms := iss.Token(t, "u1")
	wrongPerm := iss.Token(t, "u1", auth.ScopePostDrinks)
	badAud := iss.Claims("u1", auth.ScopeGetDrinksDetail)
	badAud["aud"] = "someone-else"

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"missing header", "", http.StatusUnauthorized, auth.CodeHeaderMissing},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusBadRequest, auth.CodeInvalidHeader},
		{"bearer without token", "Bearer", http.StatusBadRequest, auth.CodeInvalidHeader},
		{"too many parts", "Bearer a b", http.StatusBadRequest, auth.CodeInvalidHeader},
		{"garbage token", "Bearer garbage", http.StatusBadRequest, auth.CodeInvalidHeader},
		{"no permissions claim", "Bearer " + noPerms, http.StatusBadRequest, auth.CodeInvalidClaims},
		{"wrong permission", "Bearer " + wrongPerm, http.StatusForbidden, auth.CodeUnauthorized},
		{"wrong audience", "Bearer " + iss.Sign(t, badAud), http.StatusBadRequest, auth.CodeInvalidClaims},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := env.do(t, tt.header)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if body.Success || body.Error != tt.status || body.Code != tt.code || body.Message == "" {
				t.Fatalf("unexpected body %+v", body)
			}
		})
	}
}

func TestRequireScopeEmptyScopeNeedsValidToken(t *testing.T) {
	iss := authtest.NewIssuer(t)
	validator, err := jwks.NewValidator(iss.Config())
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	r := gin.New()
	r.GET("/me", RequireScope(validator, ""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+iss.Token(t, "u1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}
