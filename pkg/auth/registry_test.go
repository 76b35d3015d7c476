package auth

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
)

type mockValidator struct{ subject string }

func (m *mockValidator) Validate(_ context.Context, token string) (*Claims, error) {
	if token == "valid" {
		return &Claims{Subject: m.subject, Scopes: []string{ScopePostDrinks}}, nil
	}
	return nil, NewError(CodeInvalidHeader, 401, "Unable to verify authentication token.", nil)
}

func TestRegistry(t *testing.T) {
	RegisterProvider("mock", func(config json.RawMessage) (Validator, error) {
		var cfg struct {
			Subject string `json:"subject"`
		}
		if err := json.Unmarshal(config, &cfg); err != nil {
			return nil, err
		}
		return &mockValidator{subject: cfg.Subject}, nil
	})

	providers := ListProviders()
	if !sort.StringsAreSorted(providers) {
		t.Errorf("providers not sorted: %v", providers)
	}
	found := false
	for _, p := range providers {
		if p == "mock" {
			found = true
		}
	}
	if !found {
		t.Fatalf("mock provider not found in %v", providers)
	}

	validator, err := NewValidator(ProviderConfig{Type: "mock", Config: json.RawMessage(`{"subject":"barista"}`)})
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}
	claims, err := validator.Validate(context.Background(), "valid")
	if err != nil {
		t.Fatalf("expected valid token: %v", err)
	}
	if claims.Subject != "barista" || !claims.HasScope(ScopePostDrinks) {
		t.Errorf("unexpected claims %+v", claims)
	}

	_, err = validator.Validate(context.Background(), "invalid")
	if ae := AsError(err); ae == nil || ae.Code != CodeInvalidHeader {
		t.Errorf("expected invalid_header auth error, got %v", err)
	}

	if _, err := NewValidator(ProviderConfig{Type: "mock", Config: json.RawMessage(`[`)}); err == nil {
		t.Error("expected factory error to surface")
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	_, err := NewValidator(ProviderConfig{Type: "unknown", Config: json.RawMessage(`{}`)})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}
