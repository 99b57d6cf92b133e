package marketplace

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marketwatch/internal/browser"
)

// Discovery policy defaults. Page height is a cheap, engine-agnostic proxy
// for "more content may still load"; three equal reads in a row absorb
// one-off rendering hiccups without extending runtime unboundedly.
const (
	DefaultSettleDelay = 1500 * time.Millisecond
	DefaultStableReads = 3
)

// ListingSet accumulates listings keyed by id while preserving the order of
// first discovery. An id collision overwrites the record but keeps its
// original position.
type ListingSet struct {
	byID  map[string]Listing
	order []string
}

func NewListingSet() *ListingSet {
	return &ListingSet{byID: make(map[string]Listing)}
}

func (s *ListingSet) Add(l Listing) {
	if _, ok := s.byID[l.ID]; !ok {
		s.order = append(s.order, l.ID)
	}
	s.byID[l.ID] = l
}

func (s *ListingSet) Len() int { return len(s.order) }

// Listings returns the set in first-discovery order.
func (s *ListingSet) Listings() []Listing {
	out := make([]Listing, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Discoverer walks an infinite-scroll results page until it stops growing and
// returns every listing rendered along the way.
type Discoverer struct {
	Selector    string        // anchor selector, DefaultAnchorSelector when empty
	SettleDelay time.Duration // wait after each scroll for lazy content
	StableReads int           // equal height reads required to declare convergence
	MaxIters    int           // safety valve; 0 keeps the loop unbounded

	sleep func(time.Duration) // replaced in tests
}

// Discover runs the scroll-convergence loop against an already-authenticated,
// already-navigated page. Terminates when StableReads consecutive extraction
// and scroll attempts produced no height change.
func (d *Discoverer) Discover(ctx context.Context, page browser.Page) (*ListingSet, error) {
	settle := d.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	stable := d.StableReads
	if stable <= 0 {
		stable = DefaultStableReads
	}
	sleep := d.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	pageURL, err := page.Location(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page location: %w", err)
	}

	set := NewListingSet()
	lastHeight := int64(-1)
	streak := 0

	for iters := 0; streak < stable; iters++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if d.MaxIters > 0 && iters >= d.MaxIters {
			slog.Warn("discovery stopped before convergence", "iterations", iters, "listings", set.Len())
			return set, nil
		}

		html, err := page.HTML(ctx)
		if err != nil {
			return nil, fmt.Errorf("extract page html: %w", err)
		}
		items, err := ParseListings(html, pageURL, d.Selector)
		if err != nil {
			return nil, err
		}
		for _, l := range items {
			set.Add(l)
		}

		h, err := page.Height(ctx)
		if err != nil {
			return nil, fmt.Errorf("read page height: %w", err)
		}
		if h == lastHeight {
			streak++
		} else {
			streak = 0
			lastHeight = h
		}

		if err := page.ScrollForward(ctx); err != nil {
			return nil, fmt.Errorf("scroll page: %w", err)
		}
		sleep(settle)
	}

	slog.Info("discovery converged", "listings", set.Len(), "height", lastHeight)
	return set, nil
}
