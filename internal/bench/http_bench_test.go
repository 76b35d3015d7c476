package bench

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/osvaldoandrade/coffeeshop/pkg/app"
	"github.com/osvaldoandrade/coffeeshop/pkg/auth"
	"github.com/osvaldoandrade/coffeeshop/pkg/config"
)

const benchToken = "bench-barista-token"

func newBenchApp(b *testing.B, backend string) *app.Application {
	b.Helper()
	gin.SetMode(gin.ReleaseMode)

	cfg := &config.Config{
		Env:             "dev",
		LogLevel:        "error",
		LogFormat:       "json",
		AuthProvider:    "static",
		AuthStaticToken: benchToken,
		AuthStaticPermissions: []string{
			auth.ScopeGetDrinksDetail,
			auth.ScopePostDrinks,
			auth.ScopePatchDrinks,
			auth.ScopeDeleteDrinks,
		},
		PersistenceProvider: backend,
		SeedOnStart:         true,
	}
	if backend == "redis" {
		mr, err := miniredis.Run()
		if err != nil {
			b.Fatalf("miniredis start: %v", err)
		}
		b.Cleanup(mr.Close)
		cfg.RedisAddr = mr.Addr()
	}

	a, err := app.NewApplication(cfg, app.WithLogOutput(io.Discard))
	if err != nil {
		b.Fatalf("app init: %v", err)
	}
	app.SetupMappings(a)
	b.Cleanup(func() { _ = a.Close() })
	return a
}

func doJSONRequest(b *testing.B, h http.Handler, method, path, bearerToken string, body []byte) (int, []byte) {
	b.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Code, w.Body.Bytes()
}

func BenchmarkHTTP_CreateUpdateDelete(b *testing.B) {
	for _, backend := range []string{"memory", "redis"} {
		b.Run(backend, func(b *testing.B) {
			a := newBenchApp(b, backend)
			patchBody := []byte(`{"recipe":[{"name":"milk","color":"white","parts":3}]}`)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				createBody := []byte(fmt.Sprintf(`{"title":"latte-%d","recipe":[{"name":"milk","color":"white","parts":2}]}`, i))
				status, resp := doJSONRequest(b, a.Engine, http.MethodPost, "/drinks", benchToken, createBody)
				if status != http.StatusOK {
					b.Fatalf("create status %d body=%s", status, string(resp))
				}
				var created struct {
					Drinks []struct {
						ID int64 `json:"id"`
					} `json:"drinks"`
				}
				if err := json.Unmarshal(resp, &created); err != nil || len(created.Drinks) != 1 {
					b.Fatalf("create parse failed: err=%v body=%s", err, string(resp))
				}
				path := fmt.Sprintf("/drinks/%d", created.Drinks[0].ID)

				status, resp = doJSONRequest(b, a.Engine, http.MethodPatch, path, benchToken, patchBody)
				if status != http.StatusOK {
					b.Fatalf("update status %d body=%s", status, string(resp))
				}
				status, resp = doJSONRequest(b, a.Engine, http.MethodDelete, path, benchToken, nil)
				if status != http.StatusOK {
					b.Fatalf("delete status %d body=%s", status, string(resp))
				}
			}
		})
	}
}

func BenchmarkHTTP_ListMenu(b *testing.B) {
	a := newBenchApp(b, "redis")
	const prefill = 50
	for i := 0; i < prefill; i++ {
		body := []byte(fmt.Sprintf(`{"title":"drink-%d","recipe":[{"name":"water","color":"blue","parts":1}]}`, i))
		if status, resp := doJSONRequest(b, a.Engine, http.MethodPost, "/drinks", benchToken, body); status != http.StatusOK {
			b.Fatalf("prefill status %d body=%s", status, string(resp))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if status, resp := doJSONRequest(b, a.Engine, http.MethodGet, "/drinks", "", nil); status != http.StatusOK {
			b.Fatalf("list status %d body=%s", status, string(resp))
		}
	}
}

func BenchmarkService_CreateDelete(b *testing.B) {
	a := newBenchApp(b, "memory")
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		body := []byte(fmt.Sprintf(`{"title":"espresso-%d","recipe":[{"name":"coffee","color":"brown","parts":1}]}`, i))
		d, err := a.Drinks.Create(ctx, body)
		if err != nil {
			b.Fatalf("Create: %v", err)
		}
		if err := a.Drinks.Delete(ctx, d.ID); err != nil {
			b.Fatalf("Delete: %v", err)
		}
	}
}
