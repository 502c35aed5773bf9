package services

import (
	"context"
	"fmt"
	"time"

	"github.com/facualex/portalinmobiliario-etl/models"
	"github.com/facualex/portalinmobiliario-etl/scraper"
)

// collectComuna follows the search results of one comuna through the
// "Siguiente" anchors, for at most MaxPages pages. A page that fails to
// load ends the comuna; links gathered so far are kept.
func (o *Orchestrator) collectComuna(ctx context.Context, comuna string, links *models.LinkIndex) error {
	logger := o.logger.With("comuna", comuna)
	links.Ensure(comuna)

	pageURL := o.cfg.SearchURLFor(comuna)
	if !o.robots.Allowed(ctx, pageURL) {
		logger.Warn("search disallowed by robots.txt", "url", pageURL)
		return nil
	}

	maxPages := o.cfg.Scrape.MaxPages
	visited := make(map[string]struct{})
	page := 0
	for pageURL != "" && page < maxPages {
		if _, seen := visited[pageURL]; seen {
			logger.Warn("pagination points back to a visited page", "url", pageURL)
			return nil
		}
		visited[pageURL] = struct{}{}
		page++

		if err := o.wait(ctx); err != nil {
			return err
		}
		start := time.Now()
		doc, err := scraper.FetchDocument(ctx, o.browser, pageURL, scraper.SearchReadySelector)
		o.metrics.ObservePage("search", start)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if scraper.IsFatal(err) {
				return err
			}
			o.report(err, "comuna", comuna, "page", page)
			return nil
		}
		o.metrics.SearchPage(comuna)

		res := scraper.CollectLinks(doc, pageURL)
		for _, skipped := range res.Skipped {
			o.report(skipped, "comuna", comuna, "page", page)
		}
		added := 0
		for _, link := range res.Links {
			if links.Add(comuna, link) {
				added++
			}
		}
		o.metrics.Links(comuna, added)
		logger.Info("search page",
			"page", page,
			"found", len(res.Links),
			"new", added,
			"total", len(links.Links(comuna)),
		)

		pageURL = res.NextURL
	}

	if pageURL != "" {
		logger.Warn("page limit reached", "max_pages", maxPages, "next", pageURL)
	}
	return nil
}

// extractComuna visits the detail pages of one comuna inside a bounded
// loop. Pages that fail to load are logged and skipped. Err is set only
// when the loop had to stop for a session failure or cancellation.
func (o *Orchestrator) extractComuna(ctx context.Context, index int, comuna string, urls []string) models.ComunaResult {
	result := models.ComunaResult{Comuna: comuna, Index: index, Links: len(urls)}
	logger := o.logger.With("comuna", comuna)

	stopper := scraper.NewLoopStopper(o.cfg.Scrape.LinkLoopBudget.Duration)
	n := 0
	report, err := scraper.Run(ctx, stopper, urls, func(link string) error {
		n++
		logger.Debug("detail page", "progress", fmt.Sprintf("%d/%d", n, len(urls)), "url", link)

		if err := o.wait(ctx); err != nil {
			return err
		}
		start := time.Now()
		doc, err := scraper.FetchDocument(ctx, o.browser, link, scraper.DetailReadySelector)
		o.metrics.ObservePage("detail", start)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if scraper.IsFatal(err) {
				return err
			}
			o.report(err, "comuna", comuna, "url", link)
			return nil
		}

		apt := o.extractor.Extract(ctx, doc, comuna, link)
		result.Listings = append(result.Listings, models.Listing{URL: link, Apartment: apt})
		o.metrics.Record(comuna)
		return nil
	})
	result.Err = err

	if report.Expired {
		o.metrics.LoopExpired("links")
		logger.Warn("link loop budget spent",
			"budget", stopper.Budget(),
			"visited", report.Processed,
			"total", report.Total,
		)
	}
	logger.Info("comuna done", "records", len(result.Listings), "links", len(urls))
	return result
}
