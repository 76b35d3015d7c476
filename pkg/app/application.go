package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/osvaldoandrade/coffeeshop/internal/controllers"
	"github.com/osvaldoandrade/coffeeshop/internal/metrics"
	"github.com/osvaldoandrade/coffeeshop/internal/middleware"
	"github.com/osvaldoandrade/coffeeshop/internal/services"
	"github.com/osvaldoandrade/coffeeshop/pkg/auth"
	_ "github.com/osvaldoandrade/coffeeshop/pkg/auth/jwks"
	_ "github.com/osvaldoandrade/coffeeshop/pkg/auth/static"
	"github.com/osvaldoandrade/coffeeshop/pkg/config"
	"github.com/osvaldoandrade/coffeeshop/pkg/persistence"
	_ "github.com/osvaldoandrade/coffeeshop/pkg/persistence/memory"
	_ "github.com/osvaldoandrade/coffeeshop/pkg/persistence/postgres"
	redisplugin "github.com/osvaldoandrade/coffeeshop/pkg/persistence/redis"

	"github.com/gin-gonic/gin"
)

const serviceName = "coffeeshop"

type Application struct {
	Config    *config.Config
	Engine    *gin.Engine
	Drinks    services.DrinkService
	Store     persistence.PluginPersistence
	Validator auth.Validator
	Logger    *slog.Logger

	logOutput io.Writer
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithValidator replaces the validator built from config.
func WithValidator(validator auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.Validator = validator
		return nil
	}
}

// WithStore replaces the persistence plugin built from config.
func WithStore(store persistence.PluginPersistence) ApplicationOption {
	return func(app *Application) error {
		app.Store = store
		return nil
	}
}

// WithLogOutput sends application logs to w instead of stdout.
func WithLogOutput(w io.Writer) ApplicationOption {
	return func(app *Application) error {
		app.logOutput = w
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	app := &Application{Config: cfg, logOutput: os.Stdout}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	app.Logger = newLogger(cfg, app.logOutput)
	slog.SetDefault(app.Logger)

	if app.Store == nil {
		pc, err := cfg.PersistenceProviderConfig()
		if err != nil {
			return nil, err
		}
		store, err := persistence.NewPersistence(pc, persistence.PluginConfig{Logger: app.Logger})
		if err != nil {
			return nil, fmt.Errorf("init persistence: %w", err)
		}
		app.Store = store
	}
	if rp, ok := app.Store.(*redisplugin.Plugin); ok {
		metrics.RegisterRedisCollector(rp.Client())
	}
	metrics.RegisterStoreCollector(app.Store, cfg.PersistenceProvider, app.Logger)

	if app.Validator == nil {
		ac, err := cfg.AuthProviderConfig()
		if err != nil {
			return nil, err
		}
		validator, err := auth.NewValidator(ac)
		if err != nil {
			return nil, fmt.Errorf("init auth provider: %w", err)
		}
		app.Validator = validator
	}

	app.Drinks = services.NewDrinkService(app.Store, app.Logger)
	if cfg.SeedOnStart {
		if err := app.Drinks.Seed(context.Background()); err != nil {
			return nil, fmt.Errorf("seed store: %w", err)
		}
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(
		gin.CustomRecovery(controllers.Recovered),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(app.Logger),
		middleware.TracingMiddleware(serviceName),
		middleware.CORSMiddleware(cfg.CORSAllowedOrigins),
	)
	engine.NoRoute(controllers.NoRoute)
	engine.NoMethod(controllers.NoMethod)
	app.Engine = engine

	return app, nil
}

// Close releases the persistence plugin.
func (app *Application) Close() error {
	if app.Store == nil {
		return nil
	}
	return app.Store.Close()
}

// Handler returns the engine as an http.Handler.
func (app *Application) Handler() http.Handler {
	return app.Engine
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler).With("service", serviceName, "env", cfg.Env)
}
