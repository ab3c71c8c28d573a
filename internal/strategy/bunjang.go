package strategy

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/krw82/usedItem/internal/model"
)

const (
	bunjangSiteCode = "BUNJANG"
	bunjangBaseURL  = "https://m.bunjang.co.kr"
)

// Bunjang scrapes the Bunjang mobile search page. Listing cards are anchors
// carrying the product id in a data-pid attribute.
type Bunjang struct{}

// NewBunjang returns the BUNJANG site strategy.
func NewBunjang() *Bunjang {
	return &Bunjang{}
}

// SiteCode implements Strategy.
func (b *Bunjang) SiteCode() string {
	return bunjangSiteCode
}

// SearchURL implements Strategy.
func (b *Bunjang) SearchURL(keyword string) (string, error) {
	encoded, err := encodeKeyword(keyword)
	if err != nil {
		return "", err
	}
	return bunjangBaseURL + "/search/products?q=" + encoded, nil
}

// ListSelector implements Strategy.
func (b *Bunjang) ListSelector() string {
	return "a[data-pid]"
}

// ParseItem implements Strategy.
func (b *Bunjang) ParseItem(sel *goquery.Selection) (model.ScrapedItem, bool) {
	sourceID := strings.TrimSpace(sel.AttrOr("data-pid", ""))
	if sourceID == "" {
		// Fall back to the product id in the href path.
		href := sel.AttrOr("href", "")
		if !strings.Contains(href, "/products/") {
			return model.ScrapedItem{}, false
		}
		sourceID = lastPathSegment(href)
	}
	if sourceID == "" {
		return model.ScrapedItem{}, false
	}

	title := strings.TrimSpace(sel.Find("div.item-title").Text())
	if title == "" {
		title = strings.TrimSpace(sel.Find("img").AttrOr("alt", ""))
	}
	if title == "" {
		return model.ScrapedItem{}, false
	}

	item := model.ScrapedItem{
		SiteCode: bunjangSiteCode,
		SourceID: sourceID,
		Title:    title,
		Price:    parsePrice(sel.Find("div.item-price").Text()),
		URL:      bunjangBaseURL + "/products/" + sourceID,
		ImageURL: strings.TrimSpace(sel.Find("img").AttrOr("src", "")),
		Location: strings.TrimSpace(sel.Find("div.item-location").Text()),
	}
	return item, true
}
