package extractor

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/krw82/usedItem/internal/strategy"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadDoc(t *testing.T, path string) *goquery.Document {
	t.Helper()
	f, err := os.Open(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("open fixture %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		t.Fatalf("parse fixture %s: %v", path, err)
	}
	return doc
}

func TestExtractIsolatesBadFragments(t *testing.T) {
	doc := loadDoc(t, "../../testdata/bunjang_search.html")
	e := New(discardLogger())

	res := e.Extract(doc, strategy.NewBunjang())

	if len(res.Items) != 2 {
		t.Errorf("items = %d, want 2", len(res.Items))
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if res.SelectorMiss {
		t.Error("SelectorMiss = true, want false")
	}
}

func TestExtractSelectorMiss(t *testing.T) {
	// Markup drift: the page loads but the list selector matches nothing.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><div class="totally-new-layout"></div></body></html>`))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	e := New(discardLogger())
	res := e.Extract(doc, strategy.NewBunjang())

	if len(res.Items) != 0 || res.Skipped != 0 {
		t.Errorf("got %d items, %d skipped; want 0, 0", len(res.Items), res.Skipped)
	}
	if !res.SelectorMiss {
		t.Error("SelectorMiss = false, want true: empty-by-drift must be distinguishable from empty results")
	}
}

func TestExtractAllFragmentsValid(t *testing.T) {
	doc := loadDoc(t, "../../testdata/joongna_search.html")
	e := New(discardLogger())

	res := e.Extract(doc, strategy.NewJoongna())

	if len(res.Items) != 2 {
		t.Errorf("items = %d, want 2", len(res.Items))
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	for _, item := range res.Items {
		if item.SiteCode != "JOONGGO" {
			t.Errorf("site code = %q, want JOONGGO", item.SiteCode)
		}
	}
}

func TestSnippetBounded(t *testing.T) {
	big := `<div class="ProductsListItem">` + strings.Repeat("x", 2000) + `</div>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(big))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}

	got := snippet(doc.Find("div.ProductsListItem").First())
	if len(got) > snippetLimit {
		t.Errorf("snippet length = %d, want <= %d", len(got), snippetLimit)
	}
}
