package marketplace

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultAnchorSelector matches listing anchors on the search results page.
const DefaultAnchorSelector = `a[href*="/marketplace/item/"]`

// ParseListings extracts listing records from rendered page HTML using the
// given anchor selector. Relative hrefs are resolved against pageURL. Anchors
// that yield no id are dropped; id collisions keep the later occurrence.
func ParseListings(html, pageURL, selector string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	if selector == "" {
		selector = DefaultAnchorSelector
	}

	var base *url.URL
	if pageURL != "" {
		base, _ = url.Parse(pageURL)
	}

	var out []Listing
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		link := CanonicalLink(href)
		id := IDFromLink(link)
		if id == "" {
			return
		}
		title := strings.TrimSpace(a.AttrOr("aria-label", ""))
		if title == "" {
			title = strings.TrimSpace(a.Text())
		}
		out = append(out, Listing{ID: id, Link: link, Title: title})
	})
	return out, nil
}
