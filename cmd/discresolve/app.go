package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sydlexius/discresolve/internal/config"
	"github.com/sydlexius/discresolve/internal/logging"
	"github.com/sydlexius/discresolve/internal/provider"
	"github.com/sydlexius/discresolve/internal/provider/discogs"
	"github.com/sydlexius/discresolve/internal/provider/duckduckgo"
	"github.com/sydlexius/discresolve/internal/provider/serpapi"
	"github.com/sydlexius/discresolve/internal/resolve"
)

// app holds the wired components shared by serve and resolve.
type app struct {
	cfg        *config.Config
	cfgPath    string
	logManager *logging.Manager
	logger     *slog.Logger
	registry   *provider.Registry
	backend    provider.ProviderName
	resolver   *resolve.Resolver
	metrics    *prometheus.Registry
}

// newApp loads configuration and wires providers, the resolver and metrics.
// logOverride adjusts the logging config before the logger is built.
func newApp(cfgPath string, logOverride func(*logging.Config)) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logOverride != nil {
		logOverride(&cfg.Logging)
	}

	logManager, logger := logging.NewManager(cfg.Logging)
	slog.SetDefault(logger)

	limiters := provider.NewRateLimiterMap()
	registry := provider.NewRegistry()

	var serp *serpapi.Adapter
	var ddg *duckduckgo.Adapter
	if cfg.Search.BaseURL != "" && cfg.Search.Backend == config.BackendSerpAPI {
		serp = serpapi.NewWithBaseURL(limiters, cfg.Search.APIKey, logger, cfg.Search.BaseURL)
	} else {
		serp = serpapi.New(limiters, cfg.Search.APIKey, logger)
	}
	serp.SetEngine(cfg.Search.Engine)
	if cfg.Search.BaseURL != "" && cfg.Search.Backend == config.BackendDuckDuckGo {
		ddg = duckduckgo.NewWithBaseURL(limiters, logger, cfg.Search.BaseURL)
	} else {
		ddg = duckduckgo.New(limiters, logger)
	}
	registry.Register(serp)
	registry.Register(ddg)

	backend := provider.ProviderName(cfg.Search.Backend)
	searcher := registry.Get(backend)
	if searcher == nil {
		logManager.Close() //nolint:errcheck
		return nil, fmt.Errorf("search backend %q not registered", backend)
	}

	var catalog *discogs.Adapter
	if cfg.Catalog.BaseURL != "" {
		catalog = discogs.NewWithBaseURL(limiters, cfg.Catalog.Token, logger, cfg.Catalog.BaseURL)
	} else {
		catalog = discogs.New(limiters, cfg.Catalog.Token, logger)
	}

	resolver := resolve.NewResolver(searcher, catalog, resolve.NewSelector(cfg.Catalog.Domain, ""), logger)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	resolver.SetMetrics(resolve.NewMetrics(promReg))

	logger.Debug("providers ready",
		slog.String("search", backend.DisplayName()),
		slog.Bool("discogs_token", cfg.Catalog.Token != ""),
		slog.String("logging", cfg.Logging.String()))

	return &app{
		cfg:        cfg,
		cfgPath:    cfgPath,
		logManager: logManager,
		logger:     logger,
		registry:   registry,
		backend:    backend,
		resolver:   resolver,
		metrics:    promReg,
	}, nil
}

// metricsHandler returns the /metrics handler, or nil when disabled.
func (a *app) metricsHandler() http.Handler {
	if !a.cfg.Metrics.Enabled {
		return nil
	}
	return promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{})
}

// reloadConfig re-reads the config file and applies its logging block.
// Other settings need a restart.
func (a *app) reloadConfig(_ context.Context) error {
	next, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	prev := a.logManager.Config()
	if a.logManager.Reconfigure(next.Logging) {
		a.logger.Info("logging reconfigured",
			slog.String("previous", prev.String()),
			slog.String("logging", next.Logging.String()))
	}
	return nil
}

func (a *app) Close() error {
	return a.logManager.Close()
}
