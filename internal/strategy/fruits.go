package strategy

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/krw82/usedItem/internal/model"
)

const (
	fruitsSiteCode = "FRUIT"
	fruitsBaseURL  = "https://fruitsfamily.com"
)

// Fruits scrapes the FruitsFamily search page. A listing card is a
// div.ProductsListItem wrapping an a.ProductPreview link whose path looks
// like /product/<id>/<slug>.
type Fruits struct{}

// NewFruits returns the FRUIT site strategy.
func NewFruits() *Fruits {
	return &Fruits{}
}

// SiteCode implements Strategy.
func (f *Fruits) SiteCode() string {
	return fruitsSiteCode
}

// SearchURL implements Strategy.
func (f *Fruits) SearchURL(keyword string) (string, error) {
	encoded, err := encodeKeyword(keyword)
	if err != nil {
		return "", err
	}
	return fruitsBaseURL + "/search?q=" + encoded, nil
}

// ListSelector implements Strategy.
func (f *Fruits) ListSelector() string {
	return "div.ProductsListItem"
}

// ParseItem implements Strategy.
func (f *Fruits) ParseItem(sel *goquery.Selection) (model.ScrapedItem, bool) {
	link := sel.Find("a.ProductPreview").First()
	if link.Length() == 0 {
		return model.ScrapedItem{}, false
	}
	href := link.AttrOr("href", "")
	if !strings.HasPrefix(href, "/product/") {
		return model.ScrapedItem{}, false
	}
	sourceID := fruitsSourceID(href)
	if sourceID == "" {
		return model.ScrapedItem{}, false
	}

	title := strings.TrimSpace(sel.Find("h7.ProductsListItem-title").Text())
	if title == "" {
		return model.ScrapedItem{}, false
	}

	item := model.ScrapedItem{
		SiteCode: fruitsSiteCode,
		SourceID: sourceID,
		Title:    title,
		Price:    parsePrice(sel.Find("div.ProductsListItem-price").Text()),
		URL:      fruitsBaseURL + href,
		ImageURL: strings.TrimSpace(sel.Find("img.ProductPreview-image").AttrOr("src", "")),
	}
	return item, true
}

// fruitsSourceID extracts the id segment from /product/<id>/<slug>.
func fruitsSourceID(href string) string {
	parts := strings.Split(href, "/")
	if len(parts) > 2 {
		return parts[2]
	}
	return ""
}
