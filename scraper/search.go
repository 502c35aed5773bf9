package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var errNoHref = errors.New("listing card has no link href")

// SearchPage is what one search results page yields.
type SearchPage struct {
	Links []string
	// Skipped holds one KindElement error per malformed card.
	Skipped []error
	// NextURL is the absolute "Siguiente" link, empty on the last page.
	NextURL string
}

// CollectLinks extracts listing URLs from a parsed search results page.
// Relative hrefs are resolved against pageURL when it is set. A card
// without a usable link is skipped and reported, never fatal.
func CollectLinks(doc *goquery.Document, pageURL string) SearchPage {
	var res SearchPage
	base, _ := url.Parse(pageURL)

	doc.Find(ListingCardSelector).Each(func(i int, card *goquery.Selection) {
		href, ok := card.Find(ListingLinkSelector).First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			res.Skipped = append(res.Skipped, Wrap(KindElement, fmt.Sprintf("card %d", i), pageURL, errNoHref))
			return
		}
		abs, err := resolve(base, href)
		if err != nil {
			res.Skipped = append(res.Skipped, Wrap(KindElement, fmt.Sprintf("card %d", i), pageURL, err))
			return
		}
		res.Links = append(res.Links, abs)
	})

	res.NextURL = NextPageURL(doc, pageURL)
	return res
}

// NextPageURL returns the target of the "Siguiente" anchor, or "".
func NextPageURL(doc *goquery.Document, pageURL string) string {
	href, ok := doc.Find(NextPageSelector).First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return ""
	}
	base, _ := url.Parse(pageURL)
	abs, err := resolve(base, href)
	if err != nil {
		return ""
	}
	return abs
}

func resolve(base *url.URL, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	if base == nil || base.Host == "" {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}
