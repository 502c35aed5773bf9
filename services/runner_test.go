package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facualex/portalinmobiliario-etl/config"
	"github.com/facualex/portalinmobiliario-etl/models"
	"github.com/facualex/portalinmobiliario-etl/robots"
	"github.com/facualex/portalinmobiliario-etl/scraper"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// siteBrowser serves canned pages keyed by URL. Unknown URLs fail to
// navigate, and the tabs region never shows up.
type siteBrowser struct {
	pages       map[string]string
	failing     map[string]scraper.Kind
	current     string
	navigations []string
	ready       []string
}

func newSiteBrowser() *siteBrowser {
	return &siteBrowser{
		pages:   map[string]string{},
		failing: map[string]scraper.Kind{},
	}
}

func (b *siteBrowser) Navigate(ctx context.Context, url, ready string) error {
	b.navigations = append(b.navigations, url)
	b.ready = append(b.ready, ready)
	if kind, ok := b.failing[url]; ok {
		return scraper.Wrap(kind, "navigate", url, errors.New("refused"))
	}
	if _, ok := b.pages[url]; !ok {
		return scraper.Wrap(scraper.KindNavigation, "navigate", url, errors.New("not found"))
	}
	b.current = url
	return nil
}

func (b *siteBrowser) HTML(ctx context.Context) (string, error) {
	return b.pages[b.current], nil
}

func (b *siteBrowser) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	return scraper.Wrap(scraper.KindTimeout, "wait visible "+sel, "", context.DeadlineExceeded)
}

func (b *siteBrowser) Texts(ctx context.Context, sel string) ([]string, error) { return nil, nil }

func (b *siteBrowser) ChildTexts(ctx context.Context, sel string) ([]string, error) {
	return nil, nil
}

func (b *siteBrowser) Click(ctx context.Context, sel string) error { return nil }

func (b *siteBrowser) ScrollIntoView(ctx context.Context, sel string) error { return nil }

type recordingSink struct {
	got []models.ComunaResult
}

func (s *recordingSink) SaveResults(ctx context.Context, results []models.ComunaResult) (int, error) {
	s.got = results
	n := 0
	for _, r := range results {
		n += len(r.Listings)
	}
	return n, nil
}

const (
	nunoaPage1 = `<html><body>
<div class="ui-search-result__wrapper"><a class="ui-search-link" href="https://portal.test/MLC-1">1</a></div>
<div class="ui-search-result__wrapper"><a class="ui-search-link" href="https://portal.test/MLC-2">2</a></div>
<a title="Siguiente" href="/nunoa?page=2">Siguiente</a>
</body></html>`

	nunoaPage2 = `<html><body>
<div class="ui-search-result__wrapper"><a class="ui-search-link" href="https://portal.test/MLC-1">1</a></div>
<div class="ui-search-result__wrapper"><span>sin enlace</span></div>
<div class="ui-search-result__wrapper"><a class="ui-search-link" href="https://portal.test/MLC-3">3</a></div>
</body></html>`

	detailMLC1 = `<html><body>
<span class="andes-money-amount__fraction">350.000</span>
<table><tbody class="andes-table__body"><tr><th>Dormitorios</th><td>2</td></tr></tbody></table>
</body></html>`

	detailMLC2 = `<html><body>
<span class="andes-money-amount__fraction">410.000</span>
<table><tbody class="andes-table__body"><tr><th>Baños</th><td>1</td></tr></tbody></table>
</body></html>`
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Scrape.SearchURL = "https://portal.test/%s"
	cfg.Scrape.RequestsPerSecond = 0
	cfg.Scrape.LinkLoopBudget = config.DurationFrom(time.Minute)
	cfg.Output.LinksFile = filepath.Join(dir, "links.json")
	cfg.Output.RecordsFile = filepath.Join(dir, "records.json")
	cfg.Output.WriteLinks = true
	return cfg
}

func testSite() *siteBrowser {
	b := newSiteBrowser()
	b.pages["https://portal.test/nunoa"] = nunoaPage1
	b.pages["https://portal.test/nunoa?page=2"] = nunoaPage2
	b.pages["https://portal.test/MLC-1"] = detailMLC1
	b.pages["https://portal.test/MLC-2"] = detailMLC2
	return b
}

func readRecords(t *testing.T, path string) []models.Apartment {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var records []models.Apartment
	require.NoError(t, json.Unmarshal(raw, &records))
	return records
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	site := testSite()
	o := NewOrchestrator(cfg, site, Options{Logger: discard})

	res, err := o.Run(context.Background(), []string{"nunoa", "maipu"})
	require.NoError(t, err)

	// maipu's search page fails, the comuna is kept with no links
	assert.Equal(t, []string{"nunoa", "maipu"}, res.Links.Comunas())
	assert.Equal(t, []string{
		"https://portal.test/MLC-1",
		"https://portal.test/MLC-2",
		"https://portal.test/MLC-3",
	}, res.Links.Links("nunoa"))
	assert.Empty(t, res.Links.Links("maipu"))

	raw, err := os.ReadFile(cfg.Output.LinksFile)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"nunoa": ["https://portal.test/MLC-1", "https://portal.test/MLC-2", "https://portal.test/MLC-3"],
		"maipu": []
	}`, string(raw))

	// MLC-3 never loads and is skipped
	assert.Equal(t, 2, res.Written)
	require.Len(t, res.Results, 2)
	assert.NoError(t, res.Results[0].Err)

	records := readRecords(t, cfg.Output.RecordsFile)
	require.Len(t, records, 2)
	assert.Equal(t, "350.000", records[0].Precio)
	assert.Equal(t, "2", records[0].Dormitorios)
	assert.Equal(t, "nunoa", records[0].Comuna)
	assert.Equal(t, "410.000", records[1].Precio)
	assert.Equal(t, "1", records[1].Banos)
}

func TestRunOverwritesRecords(t *testing.T) {
	cfg := testConfig(t)
	for i := 0; i < 2; i++ {
		o := NewOrchestrator(cfg, testSite(), Options{Logger: discard})
		_, err := o.Run(context.Background(), []string{"nunoa"})
		require.NoError(t, err)
	}
	assert.Len(t, readRecords(t, cfg.Output.RecordsFile), 2)
}

func TestCollectStopsAtMaxPages(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scrape.MaxPages = 1
	site := testSite()
	o := NewOrchestrator(cfg, site, Options{Logger: discard})

	links, err := o.CollectAll(context.Background(), []string{"nunoa"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://portal.test/nunoa"}, site.navigations)
	assert.Len(t, links.Links("nunoa"), 2)
}

func TestCollectBreaksPaginationCycle(t *testing.T) {
	cfg := testConfig(t)
	site := newSiteBrowser()
	site.pages["https://portal.test/vitacura"] = `<html><body>
<div class="ui-search-result__wrapper"><a class="ui-search-link" href="https://portal.test/MLC-9">9</a></div>
<a title="Siguiente" href="/vitacura">Siguiente</a>
</body></html>`
	o := NewOrchestrator(cfg, site, Options{Logger: discard})

	links, err := o.CollectAll(context.Background(), []string{"vitacura"})
	require.NoError(t, err)
	assert.Len(t, site.navigations, 1)
	assert.Equal(t, []string{"https://portal.test/MLC-9"}, links.Links("vitacura"))
}

func TestSessionFailureAbortsRun(t *testing.T) {
	cfg := testConfig(t)
	site := testSite()
	site.failing["https://portal.test/nunoa"] = scraper.KindSession
	o := NewOrchestrator(cfg, site, Options{Logger: discard})

	_, err := o.Run(context.Background(), []string{"nunoa", "maipu"})
	require.Error(t, err)
	assert.Equal(t, scraper.KindSession, scraper.KindOf(err))
	assert.Len(t, site.navigations, 1)

	_, statErr := os.Stat(cfg.Output.RecordsFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCancelledContextStopsRun(t *testing.T) {
	cfg := testConfig(t)
	site := testSite()
	o := NewOrchestrator(cfg, site, Options{Logger: discard})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Run(ctx, []string{"nunoa"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, site.navigations)
}

func TestLinkLoopBudgetCutsComunaShort(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scrape.LinkLoopBudget = config.DurationFrom(time.Nanosecond)
	site := testSite()
	o := NewOrchestrator(cfg, site, Options{Logger: discard})

	idx := models.NewLinkIndex()
	idx.Add("nunoa", "https://portal.test/MLC-1")
	idx.Add("nunoa", "https://portal.test/MLC-2")
	idx.Add("providencia", "https://portal.test/MLC-2")

	results, err := o.ExtractAll(context.Background(), idx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// the budget is checked after each page, so each comuna gets one
	assert.Len(t, results[0].Listings, 1)
	assert.Len(t, results[1].Listings, 1)
	assert.Equal(t, "providencia", results[1].Listings[0].Apartment.Comuna)
	assert.Equal(t, 1, results[1].Index)
}

func TestRunFromLinksSavesToSink(t *testing.T) {
	cfg := testConfig(t)
	sink := &recordingSink{}
	o := NewOrchestrator(cfg, testSite(), Options{Logger: discard, Sink: sink})

	idx := models.NewLinkIndex()
	idx.Add("nunoa", "https://portal.test/MLC-2")

	res, err := o.RunFromLinks(context.Background(), idx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)
	assert.Equal(t, 1, res.Saved)
	require.Len(t, sink.got, 1)
	assert.Equal(t, "https://portal.test/MLC-2", sink.got[0].Listings[0].URL)
}

func TestRecordsWriteFailureIsOutputError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.RecordsFile = filepath.Join(t.TempDir(), "missing", "records.json")
	o := NewOrchestrator(cfg, testSite(), Options{Logger: discard})

	_, err := o.RunFromLinks(context.Background(), models.NewLinkIndex())
	require.Error(t, err)
	assert.Equal(t, scraper.KindOutput, scraper.KindOf(err))
}

func TestRecordsWriteFailureStillSavesToSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.RecordsFile = filepath.Join(t.TempDir(), "missing", "records.json")
	sink := &recordingSink{}
	o := NewOrchestrator(cfg, testSite(), Options{Logger: discard, Sink: sink})

	idx := models.NewLinkIndex()
	idx.Add("nunoa", "https://portal.test/MLC-1")

	res, err := o.RunFromLinks(context.Background(), idx)
	require.Error(t, err)
	assert.Equal(t, scraper.KindOutput, scraper.KindOf(err))
	assert.Zero(t, res.Written)
	assert.Equal(t, 1, res.Saved)
	require.Len(t, sink.got, 1)
	require.Len(t, sink.got[0].Listings, 1)
	assert.Equal(t, "350.000", sink.got[0].Listings[0].Apartment.Precio)
}

func TestPaginationFailureKeepsEarlierPages(t *testing.T) {
	cfg := testConfig(t)
	site := testSite()
	site.failing["https://portal.test/nunoa?page=2"] = scraper.KindNavigation
	site.pages["https://portal.test/maipu"] = `<html><body>
<div class="ui-search-result__wrapper"><a class="ui-search-link" href="https://portal.test/MLC-7">7</a></div>
</body></html>`
	o := NewOrchestrator(cfg, site, Options{Logger: discard})

	links, err := o.CollectAll(context.Background(), []string{"nunoa", "maipu"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://portal.test/nunoa",
		"https://portal.test/nunoa?page=2",
		"https://portal.test/maipu",
	}, site.navigations)
	assert.Equal(t, []string{
		"https://portal.test/MLC-1",
		"https://portal.test/MLC-2",
	}, links.Links("nunoa"))
	assert.Equal(t, []string{"https://portal.test/MLC-7"}, links.Links("maipu"))
}

func TestNavigationWaitsPerPageKind(t *testing.T) {
	cfg := testConfig(t)
	site := testSite()
	o := NewOrchestrator(cfg, site, Options{Logger: discard})

	_, err := o.Run(context.Background(), []string{"nunoa"})
	require.NoError(t, err)
	require.Len(t, site.ready, 5)
	assert.Equal(t, []string{
		scraper.SearchReadySelector,
		scraper.SearchReadySelector,
		scraper.DetailReadySelector,
		scraper.DetailReadySelector,
		scraper.DetailReadySelector,
	}, site.ready)
}

func TestRobotsDisallowSkipsComuna(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Scrape.SearchURL = srv.URL + "/%s"
	checker := robots.NewChecker(config.RobotsConfig{Respect: true, UserAgent: "test"}, srv.Client())
	site := testSite()
	o := NewOrchestrator(cfg, site, Options{Logger: discard, Robots: checker})

	links, err := o.CollectAll(context.Background(), []string{"nunoa"})
	require.NoError(t, err)
	assert.Empty(t, site.navigations)
	assert.Equal(t, []string{"nunoa"}, links.Comunas())
	assert.Zero(t, links.Len())
}
