package marketplace

import "testing"

const samplePage = `
<html><body>
<div>
  <a href="/marketplace/item/111?ref=feed" aria-label="iPhone 12 $400"><span>card</span></a>
  <a href="https://www.facebook.com/marketplace/item/222/"><span>iPhone 13 $650</span></a>
  <a href="/marketplace/profile/999">seller profile</a>
  <a href="/marketplace/item/111?ref=pagination" aria-label="iPhone 12 $390">dup</a>
  <a aria-label="no href"></a>
</div>
</body></html>`

func TestParseListings(t *testing.T) {
	items, err := ParseListings(samplePage, "https://www.facebook.com/marketplace/search/", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 anchors, got %d: %+v", len(items), items)
	}
	if items[0].ID != "111" || items[0].Link != "https://www.facebook.com/marketplace/item/111" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[0].Title != "iPhone 12 $400" {
		t.Fatalf("expected aria-label title, got %q", items[0].Title)
	}
	// Anchor without aria-label falls back to its text content.
	if items[1].ID != "222" || items[1].Title != "iPhone 13 $650" {
		t.Fatalf("unexpected second item: %+v", items[1])
	}
	// Duplicate id is returned as-is; dedup happens in ListingSet.
	if items[2].ID != "111" || items[2].Title != "iPhone 12 $390" {
		t.Fatalf("unexpected third item: %+v", items[2])
	}
}

func TestParseListingsCustomSelector(t *testing.T) {
	html := `<a class="card" href="/marketplace/item/5">x</a><a href="/marketplace/item/6">y</a>`
	items, err := ParseListings(html, "https://x", `a.card`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 1 || items[0].ID != "5" {
		t.Fatalf("selector not honored: %+v", items)
	}
}

func TestParseListingsEmptyDocument(t *testing.T) {
	items, err := ParseListings("", "https://x", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %+v", items)
	}
}
