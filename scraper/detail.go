package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/facualex/portalinmobiliario-etl/models"
)

// DefaultWaitTimeout bounds explicit waits for JS-rendered elements.
const DefaultWaitTimeout = 4 * time.Second

var errIncompleteRow = errors.New("characteristics row without th/td")

// Extractor turns a listing detail page into an Apartment.
type Extractor struct {
	browser     Browser
	loopBudget  time.Duration
	waitTimeout time.Duration
	logger      *slog.Logger
}

// NewExtractor builds an extractor. browser may be nil, in which case
// only the parsed markup is used and the tab panels are skipped.
func NewExtractor(browser Browser, loopBudget, waitTimeout time.Duration, logger *slog.Logger) *Extractor {
	if loopBudget <= 0 {
		loopBudget = DefaultLoopBudget
	}
	if waitTimeout <= 0 {
		waitTimeout = DefaultWaitTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		browser:     browser,
		loopBudget:  loopBudget,
		waitTimeout: waitTimeout,
		logger:      logger,
	}
}

// Extract builds the record for one listing. It never fails: every
// lookup tolerates absence, and a broken tab step keeps whatever the
// markup already provided.
func (e *Extractor) Extract(ctx context.Context, doc *goquery.Document, comuna, pageURL string) models.Apartment {
	logger := e.logger.With("comuna", comuna, "url", pageURL)

	apt := e.ParseMarkup(ctx, doc, comuna, logger)
	if e.browser == nil {
		return apt
	}
	if err := e.applyTabs(ctx, &apt, logger); err != nil {
		logger.Warn("tab extraction aborted", "kind", KindOf(err).String(), "error", err)
	}
	return apt
}

// ParseMarkup fills comuna, price and the characteristics table.
func (e *Extractor) ParseMarkup(ctx context.Context, doc *goquery.Document, comuna string, logger *slog.Logger) models.Apartment {
	if logger == nil {
		logger = e.logger
	}
	var apt models.Apartment
	apt.SetText(models.FieldComuna, comuna)

	if price := doc.Find(PriceSelector).First(); price.Length() > 0 {
		apt.SetText(models.FieldPrecio, strings.TrimSpace(price.Text()))
	}

	table := doc.Find(CharacteristicsTableSelector).First()
	if table.Length() == 0 {
		logger.Debug("no characteristics table")
		return apt
	}

	var rows []*goquery.Selection
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		rows = append(rows, row)
	})

	report, err := Run(ctx, NewLoopStopper(e.loopBudget), rows, func(row *goquery.Selection) error {
		if err := applyRow(&apt, row); err != nil {
			logger.Debug("skipping row", "kind", KindOf(err).String(), "error", err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("characteristics table interrupted", "error", err)
	}
	if report.Expired {
		logger.Warn("characteristics table budget exhausted", "processed", report.Processed, "total", report.Total)
	}
	return apt
}

func applyRow(apt *models.Apartment, row *goquery.Selection) error {
	th := row.Find("th").First()
	td := row.Find("td").First()
	if th.Length() == 0 || td.Length() == 0 {
		return Wrap(KindElement, "characteristics row", "", errIncompleteRow)
	}
	field, ok := LookupFeature(th.Text())
	if !ok {
		return nil
	}
	value := strings.TrimSpace(td.Text())
	if field.IsFlag() {
		if value != "" && !strings.EqualFold(value, "no") {
			apt.SetFlag(field)
		}
		return nil
	}
	apt.SetText(field, value)
	return nil
}

func (e *Extractor) applyTabs(ctx context.Context, apt *models.Apartment, logger *slog.Logger) error {
	if err := e.browser.WaitVisible(ctx, TabsSelector, e.waitTimeout); err != nil {
		return err
	}
	labels, err := e.browser.ChildTexts(ctx, TabsSelector)
	if err != nil {
		return err
	}
	if err := e.browser.ScrollIntoView(ctx, TabsSelector); err != nil {
		logger.Debug("scroll into view failed", "error", err)
	}

	tabs := make([]tabButton, len(labels))
	for i, label := range labels {
		tabs[i] = tabButton{index: i, label: label}
	}

	report, err := Run(ctx, NewLoopStopper(e.loopBudget), tabs, func(t tabButton) error {
		if err := e.readTab(ctx, t, apt, logger); err != nil {
			logger.Warn("tab skipped", "tab", t.label, "kind", KindOf(err).String(), "error", err)
		}
		return nil
	})
	if report.Expired {
		logger.Warn("tab budget exhausted", "processed", report.Processed, "total", report.Total)
	}
	return err
}

type tabButton struct {
	index int
	label string
}

func (t tabButton) selector() string {
	return fmt.Sprintf("%s > :nth-child(%d)", TabsSelector, t.index+1)
}

func (e *Extractor) readTab(ctx context.Context, t tabButton, apt *models.Apartment, logger *slog.Logger) error {
	var panel string
	switch t.label {
	case AmbientesTabLabel:
		// rendered up front, possibly hidden
		panel = AmbientesPanelSelector
	case AmenitiesTabLabel:
		// only populated once the tab is active
		if err := e.browser.Click(ctx, t.selector()); err != nil {
			return err
		}
		if err := e.browser.WaitVisible(ctx, AmenitiesPanelSelector, e.waitTimeout); err != nil {
			return err
		}
		panel = AmenitiesPanelSelector
	default:
		return nil
	}

	items, err := e.browser.Texts(ctx, panel+PanelChildrenSuffix)
	if err != nil {
		return err
	}
	report, err := Run(ctx, NewLoopStopper(e.loopBudget), items, func(label string) error {
		if f, ok := LookupFeature(label); ok && f.IsFlag() {
			apt.SetFlag(f)
		}
		return nil
	})
	if report.Expired {
		logger.Warn("panel budget exhausted", "tab", t.label, "processed", report.Processed, "total", report.Total)
	}
	return err
}
