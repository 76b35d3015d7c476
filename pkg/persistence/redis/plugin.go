package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/osvaldoandrade/coffeeshop/internal/providers"
	"github.com/osvaldoandrade/coffeeshop/internal/repository"
	"github.com/osvaldoandrade/coffeeshop/pkg/persistence"

	"github.com/go-redis/redis/v8"
)

// Config holds Redis-specific configuration
type Config struct {
	Addr      string `json:"addr"`
	Password  string `json:"password,omitempty"`
	DB        int    `json:"db,omitempty"`
	KeyPrefix string `json:"keyPrefix,omitempty"`
}

// Plugin implements PluginPersistence for Redis/KVRocks
type Plugin struct {
	client    *redis.Client
	drinkRepo repository.DrinkRepository
}

// NewPlugin creates a new Redis persistence plugin
func NewPlugin(config persistence.PluginConfig) (persistence.PluginPersistence, error) {
	var cfg Config
	if err := json.Unmarshal(config.Config, &cfg); err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		return nil, errors.New("redis persistence: addr is required")
	}

	client := providers.NewRedisProvider(cfg.Addr, cfg.Password, cfg.DB)
	return NewPluginWithClient(client, cfg.KeyPrefix), nil
}

// NewPluginWithClient wraps an existing client. Close closes the client.
func NewPluginWithClient(client *redis.Client, keyPrefix string) *Plugin {
	return &Plugin{
		client:    client,
		drinkRepo: repository.NewDrinkRepository(client, keyPrefix),
	}
}

// DrinkStorage returns the drink storage implementation
func (p *Plugin) DrinkStorage() persistence.DrinkStorage {
	return &drinkStorageAdapter{repo: p.drinkRepo}
}

// Client exposes the underlying client for health and metrics collection.
func (p *Plugin) Client() *redis.Client {
	return p.client
}

// Health checks if Redis is healthy
func (p *Plugin) Health(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases Redis connection
func (p *Plugin) Close() error {
	return p.client.Close()
}

func init() {
	persistence.RegisterProvider("redis", NewPlugin)
}
