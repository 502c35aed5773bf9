package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/facualex/portalinmobiliario-etl/config"
	"github.com/facualex/portalinmobiliario-etl/utils"
)

// Browser is the page-driving capability the scraper needs. One Browser
// drives one page at a time and is not safe for concurrent use.
type Browser interface {
	// Navigate loads url without waiting for the full load event, then
	// waits until ready matches an element.
	Navigate(ctx context.Context, url, ready string) error
	// HTML returns the currently rendered document markup.
	HTML(ctx context.Context) (string, error)
	// WaitVisible blocks until sel matches a visible element or timeout passes.
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	// Texts returns the trimmed text of every element matching sel.
	Texts(ctx context.Context, sel string) ([]string, error)
	// ChildTexts returns the trimmed text of each child element of the
	// first element matching sel, or nothing when sel matches nothing.
	ChildTexts(ctx context.Context, sel string) ([]string, error)
	Click(ctx context.Context, sel string) error
	ScrollIntoView(ctx context.Context, sel string) error
}

// ChromeBrowser implements Browser on a single chromedp tab.
type ChromeBrowser struct {
	tab         context.Context
	cancel      func()
	loadTimeout time.Duration
}

// NewChromeBrowser starts Chrome and opens one tab. Failures are
// KindSession errors.
func NewChromeBrowser(parent context.Context, cfg config.BrowserConfig, loadTimeout time.Duration, logger *slog.Logger) (*ChromeBrowser, error) {
	allocCtx, cancelAlloc := utils.NewAllocator(parent, cfg)

	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			logger.Warn(fmt.Sprintf(format, args...))
		}),
	)

	// the first Run launches the browser process
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, Wrap(KindSession, "start browser", "", err)
	}

	if loadTimeout <= 0 {
		loadTimeout = 30 * time.Second
	}
	return &ChromeBrowser{
		tab: tabCtx,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
		loadTimeout: loadTimeout,
	}, nil
}

// Close shuts the tab and the browser process down.
func (b *ChromeBrowser) Close() {
	b.cancel()
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (b *ChromeBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(b.tab, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (b *ChromeBrowser) Navigate(ctx context.Context, url, ready string) error {
	err := b.run(ctx, b.loadTimeout,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var res page.NavigateReturns
			if err := cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res); err != nil {
				return err
			}
			if res.ErrorText != "" {
				return errors.New(res.ErrorText)
			}
			return nil
		}),
		chromedp.WaitReady(ready, chromedp.ByQuery),
	)
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, "navigate", url, err)
	}
	return Wrap(KindNavigation, "navigate", url, err)
}

func (b *ChromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, b.loadTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", Wrap(KindNavigation, "read html", "", err)
	}
	return html, nil
}

func (b *ChromeBrowser) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	err := b.run(ctx, timeout, chromedp.WaitVisible(sel, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, "wait visible "+sel, "", err)
	}
	return Wrap(KindElement, "wait visible "+sel, "", err)
}

func (b *ChromeBrowser) Texts(ctx context.Context, sel string) ([]string, error) {
	var texts []string
	if err := b.run(ctx, b.loadTimeout, chromedp.Evaluate(textsScript(sel), &texts)); err != nil {
		return nil, Wrap(KindElement, "texts "+sel, "", err)
	}
	return texts, nil
}

func (b *ChromeBrowser) ChildTexts(ctx context.Context, sel string) ([]string, error) {
	var texts []string
	if err := b.run(ctx, b.loadTimeout, chromedp.Evaluate(childTextsScript(sel), &texts)); err != nil {
		return nil, Wrap(KindElement, "child texts "+sel, "", err)
	}
	return texts, nil
}

const elementText = `el => ((el.innerText || el.textContent || '')).trim()`

func textsScript(sel string) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(%s)`, sel, elementText)
}

// childTextsScript only looks at the first match, the same element a
// ByQuery action on sel resolves to.
func childTextsScript(sel string) string {
	return fmt.Sprintf(`(() => {
	const root = document.querySelector(%q);
	return root ? Array.from(root.children).map(%s) : [];
})()`, sel, elementText)
}

func (b *ChromeBrowser) Click(ctx context.Context, sel string) error {
	return Wrap(KindElement, "click "+sel, "", b.run(ctx, b.loadTimeout, chromedp.Click(sel, chromedp.ByQuery)))
}

func (b *ChromeBrowser) ScrollIntoView(ctx context.Context, sel string) error {
	return Wrap(KindElement, "scroll "+sel, "", b.run(ctx, b.loadTimeout, chromedp.ScrollIntoView(sel, chromedp.ByQuery)))
}
