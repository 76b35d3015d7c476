package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/osvaldoandrade/coffeeshop/internal/services"
	"github.com/osvaldoandrade/coffeeshop/pkg/domain"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	drinks    []*domain.Drink
	err       error
	gotID     int64
	gotBody   string
	healthErr error
}

func (f *fakeService) List(context.Context) ([]*domain.Drink, error) { return f.drinks, f.err }

func (f *fakeService) Get(_ context.Context, id int64) (*domain.Drink, error) {
	f.gotID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.drinks[0], nil
}

func (f *fakeService) Create(_ context.Context, body []byte) (*domain.Drink, error) {
	f.gotBody = string(body)
	if f.err != nil {
		return nil, f.err
	}
	return f.drinks[0], nil
}

func (f *fakeService) Update(_ context.Context, id int64, body []byte) (*domain.Drink, error) {
	f.gotID, f.gotBody = id, string(body)
	if f.err != nil {
		return nil, f.err
	}
	return f.drinks[0], nil
}

func (f *fakeService) Delete(_ context.Context, id int64) error {
	f.gotID = id
	return f.err
}

func (f *fakeService) Seed(context.Context) error   { return nil }
func (f *fakeService) Health(context.Context) error { return f.healthErr }

var latte = &domain.Drink{
	ID:     3,
	Title:  "latte",
	Recipe: domain.Recipe{{Name: "milk", Color: "white", Parts: 2}, {Name: "espresso", Color: "brown", Parts: 1}},
}

func newRouter(svc services.DrinkService) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(NoRoute)
	r.NoMethod(NoMethod)
	r.GET("/drinks", NewListDrinksController(svc).Handle)
	r.GET("/drinks-detail", NewListDrinksDetailController(svc).Handle)
	r.POST("/drinks", NewCreateDrinkController(svc).Handle)
	r.PATCH("/drinks/:id", NewUpdateDrinkController(svc).Handle)
	r.DELETE("/drinks/:id", NewDeleteDrinkController(svc).Handle)
	r.GET("/healthz", NewHealthController(svc).Handle)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s %s body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, out
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, out map[string]any, status int, message string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (%s)", status, rec.Code, rec.Body.String())
	}
	if out["success"] != false {
		t.Fatalf("expected success=false, got %v", out["success"])
	}
	if got, _ := out["error"].(float64); int(got) != status {
		t.Fatalf("expected error %d, got %v", status, out["error"])
	}
	if out["message"] != message {
		t.Fatalf("expected message %q, got %v", message, out["message"])
	}
}

func TestListDrinksHidesIngredientNames(t *testing.T) {
	r := newRouter(&fakeService{drinks: []*domain.Drink{latte}})
	rec, out := do(t, r, http.MethodGet, "/drinks", "")
	if rec.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	drinks := out["drinks"].([]any)
	if len(drinks) != 1 {
		t.Fatalf("expected 1 drink, got %d", len(drinks))
	}
	recipe := drinks[0].(map[string]any)["recipe"].([]any)
	for _, ing := range recipe {
		if _, ok := ing.(map[string]any)["name"]; ok {
			t.Fatalf("short form leaked ingredient name: %v", ing)
		}
	}
}

func TestListDrinksDetailIncludesNames(t *testing.T) {
	r := newRouter(&fakeService{drinks: []*domain.Drink{latte}})
	rec, out := do(t, r, http.MethodGet, "/drinks-detail", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	first := out["drinks"].([]any)[0].(map[string]any)
	ing := first["recipe"].([]any)[0].(map[string]any)
	if ing["name"] != "milk" || first["title"] != "latte" {
		t.Fatalf("unexpected detail body %v", first)
	}
}

func TestListEmptyMenuIsEmptyArray(t *testing.T) {
	r := newRouter(&fakeService{})
	rec, _ := do(t, r, http.MethodGet, "/drinks", "")
	if !strings.Contains(rec.Body.String(), `"drinks":[]`) {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

func TestListFailureIs500(t *testing.T) {
	r := newRouter(&fakeService{err: fmt.Errorf("%w: boom", services.ErrInternal)})
	rec, out := do(t, r, http.MethodGet, "/drinks", "")
	assertError(t, rec, out, http.StatusInternalServerError, "Internal Server Error")
}

func TestCreateDrink(t *testing.T) {
	svc := &fakeService{drinks: []*domain.Drink{latte}}
	r := newRouter(svc)
	body := `{"title":"latte","recipe":[{"name":"milk","color":"white","parts":2}]}`
	rec, out := do(t, r, http.MethodPost, "/drinks", body)
	if rec.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if svc.gotBody != body {
		t.Fatalf("service got body %q", svc.gotBody)
	}
	if n := len(out["drinks"].([]any)); n != 1 {
		t.Fatalf("expected single-element drinks array, got %d", n)
	}
}

func TestCreateDrinkErrorsAre422(t *testing.T) {
	cases := map[string]error{
		"validation": fmt.Errorf("%w: title missing", services.ErrValidation),
		"storage":    fmt.Errorf("%w: duplicate", services.ErrStorage),
	}
	for name, err := range cases {
		t.Run(name, func(t *testing.T) {
			r := newRouter(&fakeService{err: err})
			rec, out := do(t, r, http.MethodPost, "/drinks", `{}`)
			assertError(t, rec, out, http.StatusUnprocessableEntity, "Not Processable")
			if strings.Contains(rec.Body.String(), "duplicate") {
				t.Fatalf("storage cause leaked into body: %s", rec.Body.String())
			}
		})
	}
}

func TestCreateDrinkBodyTooLarge(t *testing.T) {
	svc := &fakeService{drinks: []*domain.Drink{latte}}
	r := newRouter(svc)
	rec, out := do(t, r, http.MethodPost, "/drinks", strings.Repeat("x", maxBodyBytes+1))
	assertError(t, rec, out, http.StatusUnprocessableEntity, "Not Processable")
	if svc.gotBody != "" {
		t.Fatalf("service should not be called")
	}
}

func TestUpdateDrink(t *testing.T) {
	svc := &fakeService{drinks: []*domain.Drink{latte}}
	r := newRouter(svc)
	rec, out := do(t, r, http.MethodPatch, "/drinks/3", `{"title":"latte"}`)
	if rec.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if svc.gotID != 3 {
		t.Fatalf("expected id 3, got %d", svc.gotID)
	}
}

func TestUpdateDrinkErrors(t *testing.T) {
	cases := []struct {
		name    string
		path    string
		err     error
		status  int
		message string
	}{
		{"non-numeric id", "/drinks/abc", nil, http.StatusNotFound, "Resource Not Found"},
		{"zero id", "/drinks/0", nil, http.StatusNotFound, "Resource Not Found"},
		{"unknown id", "/drinks/9", fmt.Errorf("%w: 9", services.ErrNotFound), http.StatusNotFound, "Resource Not Found"},
		{"invalid body", "/drinks/3", fmt.Errorf("%w: bad", services.ErrValidation), http.StatusUnprocessableEntity, "Not Processable"},
		{"storage", "/drinks/3", fmt.Errorf("%w: clash", services.ErrStorage), http.StatusUnprocessableEntity, "Not Processable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(&fakeService{err: tc.err, drinks: []*domain.Drink{latte}})
			rec, out := do(t, r, http.MethodPatch, tc.path, `{}`)
			assertError(t, rec, out, tc.status, tc.message)
		})
	}
}

func TestUpdateDrinkBodyTooLarge(t *testing.T) {
	big := strings.Repeat("x", maxBodyBytes+1)

	r := newRouter(&fakeService{err: fmt.Errorf("%w: 9", services.ErrNotFound)})
	rec, out := do(t, r, http.MethodPatch, "/drinks/9", big)
	assertError(t, rec, out, http.StatusNotFound, "Resource Not Found")

	svc := &fakeService{drinks: []*domain.Drink{latte}}
	rec, out = do(t, newRouter(svc), http.MethodPatch, "/drinks/3", big)
	assertError(t, rec, out, http.StatusUnprocessableEntity, "Not Processable")
	if svc.gotID != 3 || svc.gotBody != "" {
		t.Fatalf("expected only an existence check for id 3, got id=%d body=%d bytes", svc.gotID, len(svc.gotBody))
	}
}

func TestDeleteDrink(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)
	rec, out := do(t, r, http.MethodDelete, "/drinks/7", "")
	if rec.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if got, _ := out["delete"].(float64); got != 7 {
		t.Fatalf("expected delete=7, got %v", out["delete"])
	}
}

func TestDeleteDrinkNotFound(t *testing.T) {
	r := newRouter(&fakeService{err: fmt.Errorf("%w: 7", services.ErrNotFound)})
	rec, out := do(t, r, http.MethodDelete, "/drinks/7", "")
	assertError(t, rec, out, http.StatusNotFound, "Resource Not Found")

	rec, out = do(t, r, http.MethodDelete, "/drinks/x", "")
	assertError(t, rec, out, http.StatusNotFound, "Resource Not Found")
}

func TestHealth(t *testing.T) {
	rec, out := do(t, newRouter(&fakeService{}), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	rec, out = do(t, newRouter(&fakeService{healthErr: errors.New("down")}), http.MethodGet, "/healthz", "")
	assertError(t, rec, out, http.StatusInternalServerError, "Internal Server Error")
}

func TestFallbackHandlers(t *testing.T) {
	r := newRouter(&fakeService{})
	rec, out := do(t, r, http.MethodGet, "/nope", "")
	assertError(t, rec, out, http.StatusNotFound, "Resource Not Found")

	rec, out = do(t, r, http.MethodPut, "/drinks", "")
	assertError(t, rec, out, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func TestRecovered(t *testing.T) {
	r := gin.New()
	r.Use(gin.CustomRecovery(Recovered))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	rec, out := do(t, r, http.MethodGet, "/panic", "")
	assertError(t, rec, out, http.StatusInternalServerError, "Internal Server Error")
}
