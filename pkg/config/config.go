package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/coffeeshop/pkg/auth"
	"github.com/osvaldoandrade/coffeeshop/pkg/persistence"

	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the environment variable holding the config file path.
const ConfigPathEnv = "COFFEESHOP_CONFIG_PATH"

type Config struct {
	Port      int    `yaml:"port"`
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	AuthProvider            string   `yaml:"authProvider"`
	AuthIssuer              string   `yaml:"authIssuer"`
	AuthAudience            string   `yaml:"authAudience"`
	AuthJwksURL             string   `yaml:"authJwksUrl"`
	AuthAlgorithms          []string `yaml:"authAlgorithms"`
	// AllowedClockSkewSeconds and JwksMinRefreshSeconds accept 0; nil means
	// unset and takes the default.
	AllowedClockSkewSeconds *int     `yaml:"allowedClockSkewSeconds"`
	JwksCacheTTLSeconds     int      `yaml:"jwksCacheTtlSeconds"`
	JwksMinRefreshSeconds   *int     `yaml:"jwksMinRefreshSeconds"`
	// AuthStaticToken and AuthStaticPermissions configure the static provider.
	AuthStaticToken       string   `yaml:"authStaticToken"`
	AuthStaticPermissions []string `yaml:"authStaticPermissions"`

	PersistenceProvider string `yaml:"persistenceProvider"`
	RedisAddr           string `yaml:"redisAddr"`
	RedisPassword       string `yaml:"redisPassword"`
	RedisDB             int    `yaml:"redisDb"`
	PostgresDSN         string `yaml:"postgresDsn"`
	SeedOnStart         bool   `yaml:"seedOnStart"`

	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`

	MetricsEnabled     bool    `yaml:"metricsEnabled"`
	TracingEnabled     bool    `yaml:"tracingEnabled"`
	OTLPEndpoint       string  `yaml:"otlpEndpoint"`
	OTLPInsecure       bool    `yaml:"otlpInsecure"`
	TracingSampleRatio float64 `yaml:"tracingSampleRatio"`
}

// LoadConfig reads the YAML file at filePath, applies env overrides and
// defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

// LoadConfigOptional behaves like LoadConfig but treats an empty path or a
// missing file as an empty config.
func LoadConfigOptional(filePath string) (*Config, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath != "" {
		cfg, err := LoadConfig(filePath)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	var c Config
	c.applyEnv()
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	envInt("PORT", &c.Port)
	envString("ENV", &c.Env)
	envString("LOG_LEVEL", &c.LogLevel)
	envString("LOG_FORMAT", &c.LogFormat)
	envString("AUTH_PROVIDER", &c.AuthProvider)
	envString("AUTH_ISSUER", &c.AuthIssuer)
	envString("AUTH_AUDIENCE", &c.AuthAudience)
	envString("AUTH_JWKS_URL", &c.AuthJwksURL)
	envList("AUTH_ALGORITHMS", &c.AuthAlgorithms)
	envIntPtr("ALLOWED_CLOCK_SKEW_SECONDS", &c.AllowedClockSkewSeconds)
	envInt("JWKS_CACHE_TTL_SECONDS", &c.JwksCacheTTLSeconds)
	envIntPtr("JWKS_MIN_REFRESH_SECONDS", &c.JwksMinRefreshSeconds)
	envString("AUTH_STATIC_TOKEN", &c.AuthStaticToken)
	envList("AUTH_STATIC_PERMISSIONS", &c.AuthStaticPermissions)
	envString("PERSISTENCE_PROVIDER", &c.PersistenceProvider)
	envString("REDIS_ADDR", &c.RedisAddr)
	envString("REDIS_PASSWORD", &c.RedisPassword)
	envString("POSTGRES_DSN", &c.PostgresDSN)
	envBool("SEED_ON_START", &c.SeedOnStart)
	envList("CORS_ALLOWED_ORIGINS", &c.CORSAllowedOrigins)
	envBool("METRICS_ENABLED", &c.MetricsEnabled)
	envBool("TRACING_ENABLED", &c.TracingEnabled)
	envString("OTEL_EXPORTER_OTLP_ENDPOINT", &c.OTLPEndpoint)
	envBool("OTEL_EXPORTER_OTLP_INSECURE", &c.OTLPInsecure)
	if v := os.Getenv("TRACING_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TracingSampleRatio = f
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.AuthProvider == "" {
		c.AuthProvider = "jwks"
	}
	if len(c.AuthAlgorithms) == 0 {
		c.AuthAlgorithms = []string{"RS256"}
	}
	if c.AllowedClockSkewSeconds == nil || *c.AllowedClockSkewSeconds < 0 {
		c.AllowedClockSkewSeconds = intPtr(60)
	}
	if c.JwksCacheTTLSeconds <= 0 {
		c.JwksCacheTTLSeconds = 600
	}
	if c.JwksMinRefreshSeconds == nil || *c.JwksMinRefreshSeconds < 0 {
		c.JwksMinRefreshSeconds = intPtr(10)
	}
	if c.PersistenceProvider == "" {
		c.PersistenceProvider = "memory"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if len(c.CORSAllowedOrigins) == 0 {
		c.CORSAllowedOrigins = []string{"*"}
	}
	if c.TracingSampleRatio <= 0 || c.TracingSampleRatio > 1 {
		c.TracingSampleRatio = 1
	}
}

// IsDev reports whether the service runs in the dev environment.
func (c *Config) IsDev() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "dev")
}

func (c *Config) Validate() error {
	var errs []string
	dev := c.IsDev()

	switch c.AuthProvider {
	case "jwks":
		if c.AuthJwksURL != "" {
			u, err := url.Parse(c.AuthJwksURL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, "authJwksUrl must be a valid http(s) URL")
			}
		}
		if c.AuthIssuer == "" {
			errs = append(errs, "authIssuer is required")
		}
		if c.AuthAudience == "" {
			errs = append(errs, "authAudience is required")
		}
	case "static":
		if !dev {
			errs = append(errs, "static auth provider is only allowed in dev")
		}
		if strings.TrimSpace(c.AuthStaticToken) == "" {
			errs = append(errs, "authStaticToken is required for the static provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown authProvider %q", c.AuthProvider))
	}

	switch c.PersistenceProvider {
	case "memory":
		if !dev {
			errs = append(errs, "memory persistence is only allowed in dev")
		}
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, "redisAddr is required for the redis provider")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errs = append(errs, "postgresDsn is required for the postgres provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown persistenceProvider %q", c.PersistenceProvider))
	}

	if c.TracingEnabled && c.OTLPEndpoint == "" {
		errs = append(errs, "otlpEndpoint is required when tracing is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// AuthProviderConfig builds the validator registry config.
func (c *Config) AuthProviderConfig() (auth.ProviderConfig, error) {
	var payload any
	switch c.AuthProvider {
	case "static":
		payload = map[string]any{
			"token":       c.AuthStaticToken,
			"permissions": c.AuthStaticPermissions,
		}
	default:
		payload = map[string]any{
			"jwksUrl":                   c.AuthJwksURL,
			"issuer":                    c.AuthIssuer,
			"audience":                  c.AuthAudience,
			"algorithms":                c.AuthAlgorithms,
			"clockSkewSeconds":          intValue(c.AllowedClockSkewSeconds),
			"keySetTtlSeconds":          c.JwksCacheTTLSeconds,
			"minRefreshIntervalSeconds": intValue(c.JwksMinRefreshSeconds),
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return auth.ProviderConfig{}, fmt.Errorf("encode auth provider config: %w", err)
	}
	return auth.ProviderConfig{Type: c.AuthProvider, Config: raw}, nil
}

// PersistenceProviderConfig builds the storage registry config.
func (c *Config) PersistenceProviderConfig() (persistence.ProviderConfig, error) {
	var payload any
	switch c.PersistenceProvider {
	case "redis":
		payload = map[string]any{"addr": c.RedisAddr, "password": c.RedisPassword, "db": c.RedisDB}
	case "postgres":
		payload = map[string]any{"dsn": c.PostgresDSN}
	default:
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return persistence.ProviderConfig{}, fmt.Errorf("encode persistence provider config: %w", err)
	}
	return persistence.ProviderConfig{Type: c.PersistenceProvider, Config: raw}, nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// envIntPtr sets dst when key holds an integer, so an explicit 0 survives
// applyDefaults.
func envIntPtr(key string, dst **int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = &n
		}
	}
}

func intPtr(n int) *int { return &n }

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envList(key string, dst *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}
