package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrUnknownProvider is returned by NewPersistence for an unregistered type.
var ErrUnknownProvider = errors.New("unknown persistence provider")

// ProviderConfig selects a storage backend and carries its settings verbatim.
type ProviderConfig struct {
	Type   string          `yaml:"type" json:"type"`
	Config json.RawMessage `yaml:"config" json:"config"`
}

// PluginConfig is handed to a PluginFactory.
type PluginConfig struct {
	// Config holds the backend settings; never empty, "{}" at minimum.
	Config json.RawMessage

	// Logger receives plugin diagnostics; never nil.
	Logger *slog.Logger
}

type PluginFactory func(config PluginConfig) (PluginPersistence, error)

var (
	factories   = make(map[string]PluginFactory)
	factoriesMu sync.RWMutex
)

// RegisterProvider makes a backend available to NewPersistence. Backends
// call it from init.
func RegisterProvider(providerType string, factory PluginFactory) {
	factoriesMu.Lock()
	factories[providerType] = factory
	factoriesMu.Unlock()
}

// NewPersistence opens the backend named by pc.Type. pluginConfig.Config is
// replaced by pc.Config.
func NewPersistence(pc ProviderConfig, pluginConfig PluginConfig) (PluginPersistence, error) {
	factoriesMu.RLock()
	factory, ok := factories[pc.Type]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, pc.Type)
	}

	pluginConfig.Config = pc.Config
	if len(pluginConfig.Config) == 0 {
		pluginConfig.Config = json.RawMessage(`{}`)
	}
	if pluginConfig.Logger == nil {
		pluginConfig.Logger = slog.Default()
	}
	pluginConfig.Logger = pluginConfig.Logger.With("persistence", pc.Type)

	p, err := factory(pluginConfig)
	if err != nil {
		return nil, fmt.Errorf("persistence provider %s: %w", pc.Type, err)
	}
	return p, nil
}

// ListProviders returns the registered backend types in sorted order.
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
