package marketplace

import (
	"fmt"
	"net/url"
	"strings"
)

// Listing is one discovered marketplace item. Listings are transient: a
// fresh set is extracted on every cycle and diffed against the ledger.
type Listing struct {
	ID    string `json:"id"`
	Link  string `json:"link"`
	Title string `json:"title"`
}

// Message renders the notification text sent for a new listing.
func (l Listing) Message() string {
	return fmt.Sprintf("*Fresh listing*\n%s\n%s", l.Title, l.Link)
}

// CanonicalLink strips query parameters and fragments from a listing URL.
func CanonicalLink(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// IDFromLink derives the stable listing identifier: the last non-empty path
// segment of the query-stripped URL. Returns "" when no segment exists.
func IDFromLink(raw string) string {
	link := CanonicalLink(raw)
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		link = u.Path
	}
	segs := strings.Split(link, "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i] != "" {
			return segs[i]
		}
	}
	return ""
}

// SearchSpec holds the parameters baked into the marketplace search URL.
type SearchSpec struct {
	BaseURL         string // e.g. https://www.facebook.com/marketplace/buenosaires/search/
	Keyword         string
	Distance        int    // km radius
	DaysSinceListed int    // recency filter
	Sort            string // e.g. DATE_DESC
}

// URL builds the target search URL once at startup from configuration.
func (s SearchSpec) URL() string {
	q := url.Values{}
	q.Set("query", s.Keyword)
	q.Set("distance", fmt.Sprintf("%d", s.Distance))
	q.Set("daysSinceListed", fmt.Sprintf("%d", s.DaysSinceListed))
	q.Set("sort", s.Sort)
	base := strings.TrimRight(s.BaseURL, "?")
	return base + "?" + q.Encode()
}
