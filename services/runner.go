package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/facualex/portalinmobiliario-etl/config"
	"github.com/facualex/portalinmobiliario-etl/metrics"
	"github.com/facualex/portalinmobiliario-etl/models"
	"github.com/facualex/portalinmobiliario-etl/robots"
	"github.com/facualex/portalinmobiliario-etl/scraper"
	"github.com/facualex/portalinmobiliario-etl/utils"
)

// RecordSink receives the extracted records after the JSON file is written.
type RecordSink interface {
	SaveResults(ctx context.Context, results []models.ComunaResult) (int, error)
}

// Options carries the optional collaborators of an Orchestrator.
type Options struct {
	Logger  *slog.Logger
	Robots  *robots.Checker
	Metrics *metrics.Recorder
	Sink    RecordSink
}

// Orchestrator drives one browser through link collection and record
// extraction for a list of comunas. It visits one page at a time.
type Orchestrator struct {
	cfg       config.Config
	browser   scraper.Browser
	extractor *scraper.Extractor
	limiter   *rate.Limiter
	robots    *robots.Checker
	metrics   *metrics.Recorder
	sink      RecordSink
	logger    *slog.Logger
}

// RunResult summarises a finished run.
type RunResult struct {
	Links   *models.LinkIndex
	Results []models.ComunaResult
	Written int
	Saved   int
}

func NewOrchestrator(cfg config.Config, browser scraper.Browser, opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := rate.Inf
	if rps := cfg.Scrape.RequestsPerSecond; rps > 0 {
		limit = rate.Limit(rps)
	}

	extractor := scraper.NewExtractor(browser,
		cfg.Scrape.LoopBudget.Duration,
		cfg.Scrape.WaitTimeout.Duration,
		logger,
	)

	return &Orchestrator{
		cfg:       cfg,
		browser:   browser,
		extractor: extractor,
		limiter:   rate.NewLimiter(limit, 1),
		robots:    opts.Robots,
		metrics:   opts.Metrics,
		sink:      opts.Sink,
		logger:    logger,
	}
}

// Run collects links for every comuna, optionally writes them, extracts
// every record and writes the records file. Only a session failure, a
// cancelled context or a failed records write end it with an error.
func (o *Orchestrator) Run(ctx context.Context, comunas []string) (RunResult, error) {
	links, err := o.CollectAll(ctx, comunas)
	if err != nil {
		return RunResult{Links: links}, err
	}

	if o.cfg.Output.WriteLinks {
		if err := utils.WriteJSON(o.cfg.Output.LinksFile, links); err != nil {
			o.report(scraper.Wrap(scraper.KindOutput, "write links", o.cfg.Output.LinksFile, err))
		} else {
			o.logger.Info("links written", "file", o.cfg.Output.LinksFile, "links", links.Len())
		}
	}

	res, err := o.RunFromLinks(ctx, links)
	res.Links = links
	return res, err
}

// RunFromLinks extracts records for a previously collected index and
// persists them. A failed records write is returned after the sink ran.
func (o *Orchestrator) RunFromLinks(ctx context.Context, links *models.LinkIndex) (RunResult, error) {
	res := RunResult{Links: links}

	results, err := o.ExtractAll(ctx, links)
	res.Results = results
	if err != nil {
		return res, err
	}

	// a failed records file still lets the sink have its turn
	var outErr error
	written, err := utils.WriteRecords(o.cfg.Output.RecordsFile, results)
	if err != nil {
		outErr = scraper.Wrap(scraper.KindOutput, "write records", o.cfg.Output.RecordsFile, err)
		o.report(outErr)
	} else {
		res.Written = written
		o.logger.Info("records written", "file", o.cfg.Output.RecordsFile, "records", written)
	}

	if o.sink != nil {
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		saved, err := o.sink.SaveResults(dbCtx, results)
		if err != nil {
			o.report(scraper.Wrap(scraper.KindOutput, "save records", "", err))
		} else {
			res.Saved = saved
			o.logger.Info("records upserted", "rows", saved)
		}
	}
	return res, outErr
}

// CollectAll walks the search results of every comuna in order.
func (o *Orchestrator) CollectAll(ctx context.Context, comunas []string) (*models.LinkIndex, error) {
	links := models.NewLinkIndex()
	for _, comuna := range comunas {
		if err := ctx.Err(); err != nil {
			return links, err
		}
		if err := o.collectComuna(ctx, comuna, links); err != nil {
			return links, err
		}
	}
	o.logger.Info("link collection done", "comunas", len(links.Comunas()), "links", links.Len())
	return links, nil
}

// ExtractAll visits every collected link and returns one result per
// comuna, in index order.
func (o *Orchestrator) ExtractAll(ctx context.Context, links *models.LinkIndex) ([]models.ComunaResult, error) {
	comunas := links.Comunas()
	results := make([]models.ComunaResult, 0, len(comunas))
	for i, comuna := range comunas {
		result := o.extractComuna(ctx, i, comuna, links.Links(comuna))
		results = append(results, result)
		if result.Err != nil {
			return results, result.Err
		}
	}
	return results, nil
}

// wait throttles navigations to the configured request rate.
func (o *Orchestrator) wait(ctx context.Context) error {
	return o.limiter.Wait(ctx)
}

// report logs a recoverable error with its kind and counts it.
func (o *Orchestrator) report(err error, args ...any) {
	kind := scraper.KindOf(err)
	o.metrics.Error(kind.String())
	o.logger.Warn("step failed", append(args, "kind", kind.String(), "error", err)...)
}
