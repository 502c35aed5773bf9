package services

import (
	"context"
	"log/slog"

	"github.com/facualex/portalinmobiliario-etl/config"
	"github.com/facualex/portalinmobiliario-etl/metrics"
	"github.com/facualex/portalinmobiliario-etl/robots"
	"github.com/facualex/portalinmobiliario-etl/scraper"
	"github.com/facualex/portalinmobiliario-etl/storage"
)

// Runtime owns the browser and the optional store and metrics server
// behind an Orchestrator.
type Runtime struct {
	Orchestrator *Orchestrator

	browser *scraper.ChromeBrowser
	store   *storage.PostgresStore
	cancel  context.CancelFunc
	done    chan struct{}
}

// Setup starts Chrome and wires the collaborators enabled in cfg. The
// metrics server, when configured, runs until Close.
func Setup(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{done: make(chan struct{})}
	bgCtx, cancel := context.WithCancel(ctx)
	rt.cancel = cancel

	opts := Options{Logger: logger}
	if cfg.Robots.Respect {
		opts.Robots = robots.NewChecker(cfg.Robots, nil)
	}

	if cfg.Metrics.Addr != "" {
		opts.Metrics = metrics.NewRecorder()
		go func() {
			defer close(rt.done)
			if err := metrics.Serve(bgCtx, cfg.Metrics.Addr, opts.Metrics, logger); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	} else {
		close(rt.done)
	}

	if cfg.Database.Enabled {
		store, err := storage.NewPostgresStore(ctx, cfg.Database)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.store = store
		opts.Sink = store
		logger.Info("postgres connected", "host", cfg.Database.Host, "db", cfg.Database.Name)
	}

	browser, err := scraper.NewChromeBrowser(ctx, cfg.Browser, cfg.Scrape.PageLoadTimeout.Duration, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.browser = browser

	rt.Orchestrator = NewOrchestrator(cfg, browser, opts)
	return rt, nil
}

// Close releases the browser, the store and the metrics server.
func (r *Runtime) Close() {
	if r.browser != nil {
		r.browser.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
	r.cancel()
	<-r.done
}
