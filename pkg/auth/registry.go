package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownProvider is returned by NewValidator for an unregistered type.
var ErrUnknownProvider = errors.New("unknown auth provider")

// ProviderConfig selects a validator implementation and carries its
// provider-specific settings verbatim.
type ProviderConfig struct {
	Type   string          `yaml:"type" json:"type"`
	Config json.RawMessage `yaml:"config" json:"config"`
}

// ValidatorFactory builds a Validator from its raw settings.
type ValidatorFactory func(config json.RawMessage) (Validator, error)

var (
	factories   = make(map[string]ValidatorFactory)
	factoriesMu sync.RWMutex
)

// RegisterProvider makes a validator type available to NewValidator.
// Providers call it from init; a later registration replaces an earlier one.
func RegisterProvider(providerType string, factory ValidatorFactory) {
	factoriesMu.Lock()
	factories[providerType] = factory
	factoriesMu.Unlock()
}

// NewValidator builds the validator named by pc.Type.
func NewValidator(pc ProviderConfig) (Validator, error) {
	factoriesMu.RLock()
	factory, ok := factories[pc.Type]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, pc.Type)
	}

	v, err := factory(pc.Config)
	if err != nil {
		return nil, fmt.Errorf("auth provider %s: %w", pc.Type, err)
	}
	return v, nil
}

// ListProviders returns the registered provider types in sorted order.
func ListProviders() []string {
	factoriesMu.RLock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	factoriesMu.RUnlock()
	sort.Strings(names)
	return names
}
