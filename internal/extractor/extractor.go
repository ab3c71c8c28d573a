// Package extractor walks a fetched document and applies a site strategy to
// each listing fragment, isolating per-fragment failures.
package extractor

import (
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/krw82/usedItem/internal/model"
	"github.com/krw82/usedItem/internal/strategy"
)

const snippetLimit = 500

// Result is the outcome of extracting one document.
//
// SelectorMiss distinguishes "the list selector matched nothing" (a strong
// signal of site markup drift) from a genuinely empty result list.
type Result struct {
	Items        []model.ScrapedItem
	Skipped      int
	SelectorMiss bool
}

// Extractor applies site strategies to fetched documents.
type Extractor struct {
	log *slog.Logger
}

// New creates an Extractor.
func New(log *slog.Logger) *Extractor {
	return &Extractor{log: log}
}

// Extract locates all listing fragments via the strategy's selector and
// parses each one. A fragment the strategy rejects is counted and logged
// with a bounded markup snippet; it never aborts the remaining fragments.
func (e *Extractor) Extract(doc *goquery.Document, st strategy.Strategy) Result {
	fragments := doc.Find(st.ListSelector())

	if fragments.Length() == 0 {
		e.log.Warn("list selector matched no fragments",
			"site", st.SiteCode(), "selector", st.ListSelector())
		return Result{SelectorMiss: true}
	}

	var res Result
	fragments.Each(func(_ int, sel *goquery.Selection) {
		item, ok := st.ParseItem(sel)
		if !ok {
			res.Skipped++
			e.log.Warn("skipping unparsable fragment",
				"site", st.SiteCode(), "html", snippet(sel))
			return
		}
		res.Items = append(res.Items, item)
	})
	return res
}

// snippet returns a bounded chunk of a fragment's markup for skip logs.
func snippet(sel *goquery.Selection) string {
	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	if len(html) > snippetLimit {
		return html[:snippetLimit]
	}
	return html
}
