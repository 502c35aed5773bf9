package scraper

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchDocument navigates b to url, waits for ready and parses the
// rendered markup.
func FetchDocument(ctx context.Context, b Browser, url, ready string) (*goquery.Document, error) {
	if err := b.Navigate(ctx, url, ready); err != nil {
		return nil, err
	}
	html, err := b.HTML(ctx)
	if err != nil {
		return nil, Wrap(KindNavigation, "read html", url, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, Wrap(KindParse, "parse html", url, err)
	}
	return doc, nil
}
