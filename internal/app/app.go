// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/JakeFAU/hudoc-downloader/internal/clock/system"
	"github.com/JakeFAU/hudoc-downloader/internal/config"
	"github.com/JakeFAU/hudoc-downloader/internal/dispatcher"
	"github.com/JakeFAU/hudoc-downloader/internal/feed"
	"github.com/JakeFAU/hudoc-downloader/internal/fetcher"
	collyfetcher "github.com/JakeFAU/hudoc-downloader/internal/fetcher/colly"
	uuidgen "github.com/JakeFAU/hudoc-downloader/internal/id/uuid"
	"github.com/JakeFAU/hudoc-downloader/internal/logging"
	"github.com/JakeFAU/hudoc-downloader/internal/metrics"
	"github.com/JakeFAU/hudoc-downloader/internal/subsite"
	"github.com/JakeFAU/hudoc-downloader/internal/worker"
	"github.com/JakeFAU/hudoc-downloader/internal/writer"
)

// App holds the shared services for one CLI invocation.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	registry   *prometheus.Registry
	sites      subsite.Table
	dispatcher *dispatcher.Dispatcher
}

// Option customizes App construction.
type Option func(*options)

type options struct {
	logger    *zap.Logger
	transport http.RoundTripper
}

// WithLogger uses logger instead of building one from the logging config.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTransport routes all HTTP traffic through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// New wires the downloader pipeline from cfg. It fails fast on invalid
// subsite overrides or logger configuration.
func New(cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.New(cfg.Logging.Development, cfg.Logging.Verbose)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	sites, err := cfg.Sites()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	recorder := metrics.New(registry)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	getter := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.HTTP.UserAgent,
		Timeout:     cfg.HTTP.Timeout,
		MaxBodySize: cfg.HTTP.MaxBodySize,
		Transport:   o.transport,
	})
	textFetcher := fetcher.New(getter, fetcher.Config{
		MaxAttempts:     cfg.HTTP.MaxAttempts,
		ConversionDelay: cfg.Download.ConversionDelay,
	}, recorder, logger.Named("fetcher"))
	docWriter := writer.New(writer.Config{
		OutputDir: cfg.Download.OutputDir,
		Evid:      cfg.Download.Evid,
		Markup:    cfg.Markup(),
	}, sites, uuidgen.New(), system.NewIn(loc), logger.Named("writer"))
	w := worker.New(textFetcher, docWriter, recorder, logger.Named("worker"))

	feedLogger := logger.Named("feed")
	d := dispatcher.New(
		sites,
		feed.NewParser(sites, feedLogger),
		feed.NewDownloader(getter, "", feedLogger),
		w,
		logger.Named("dispatcher"),
	)

	logger.Debug("application services initialized",
		zap.String("output_dir", cfg.Download.OutputDir),
		zap.Bool("evid", cfg.Download.Evid),
		zap.Int("threads", cfg.Download.Threads),
	)

	return &App{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		sites:      sites,
		dispatcher: d,
	}, nil
}

// GetConfig returns the configuration the app was built from.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetLogger returns the shared zap logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetDispatcher returns the batch and link orchestrator.
func (a *App) GetDispatcher() *dispatcher.Dispatcher {
	return a.dispatcher
}

// GetSites returns the effective subsite table.
func (a *App) GetSites() subsite.Table {
	return a.sites
}

// Close writes the metrics textfile when configured and flushes the logger.
func (a *App) Close() error {
	var err error
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err = metrics.WriteTextfile(path, a.registry); err != nil {
			a.logger.Warn("failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		} else {
			a.logger.Debug("wrote metrics textfile", zap.String("path", path))
		}
	}
	_ = a.logger.Sync()
	return err
}
