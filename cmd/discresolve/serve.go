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

	"github.com/spf13/cobra"

	"github.com/sydlexius/discresolve/internal/api"
	"github.com/sydlexius/discresolve/internal/provider"
	"github.com/sydlexius/discresolve/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes GET /api/v1/resolve?q=<text> along with health, provider
status and Prometheus metrics endpoints. Changes to the config file's logging
block are applied without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(configPath(cmd))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cfgPath string) error {
	a, err := newApp(cfgPath, nil)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck
	logger := a.logger

	if cc, ok := a.registry.Get(a.backend).(provider.CredentialChecker); ok {
		if err := cc.CheckCredentials(); err != nil {
			logger.Warn("search provider has no credential, resolve requests will fail",
				slog.String("provider", string(a.backend)))
		}
	}

	proxies, err := a.cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := api.NewRouter(api.RouterDeps{
		Resolver:             a.resolver,
		Registry:             a.registry,
		Backend:              a.backend,
		CatalogAuthenticated: a.cfg.Catalog.Token != "",
		Metrics:              a.metricsHandler(),
		RateLimitPerMinute:   a.cfg.Server.RateLimitPerMinute,
		TrustedProxies:       proxies,
		Logger:               logger,
		BasePath:             a.cfg.Server.BasePath,
	})

	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A resolution may run three searches and a catalog fetch.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfgPath != "" {
		if _, err := os.Stat(cfgPath); err == nil {
			go watcher.NewService(cfgPath, a.reloadConfig, logger).Start(ctx)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("base_path", a.cfg.Server.BasePath),
			slog.String("search_backend", string(a.backend)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
