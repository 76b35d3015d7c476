package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osvaldoandrade/coffeeshop/internal/tracing"
	"github.com/osvaldoandrade/coffeeshop/pkg/app"
	"github.com/osvaldoandrade/coffeeshop/pkg/config"
)

func main() {
	cfg, err := config.LoadConfigOptional(os.Getenv(config.ConfigPathEnv))
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR] load config:", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR] invalid config:", err)
		os.Exit(1)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR] init app:", err)
		os.Exit(1)
	}
	app.SetupMappings(application)
	logger := application.Logger

	shutdownTracing, err := tracing.Setup(context.Background(), tracing.Config{
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
		SampleRatio:  cfg.TracingSampleRatio,
	}, logger)
	if err != nil {
		logger.Error("tracing setup failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           application.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "auth", cfg.AuthProvider, "persistence", cfg.PersistenceProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("trace exporter flush", "err", err)
	}
	if err := application.Close(); err != nil {
		slog.Warn("close store", "err", err)
	}
}
