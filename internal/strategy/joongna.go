package strategy

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/krw82/usedItem/internal/model"
)

const (
	joongnaSiteCode = "JOONGGO"
	joongnaBaseURL  = "https://m.joongna.com"
)

// Joongna scrapes the Joongna (중고나라) mobile search page. Listing cards are
// anchors linking to /product-detail/<id>.
type Joongna struct{}

// NewJoongna returns the JOONGGO site strategy.
func NewJoongna() *Joongna {
	return &Joongna{}
}

// SiteCode implements Strategy.
func (j *Joongna) SiteCode() string {
	return joongnaSiteCode
}

// SearchURL implements Strategy.
func (j *Joongna) SearchURL(keyword string) (string, error) {
	encoded, err := encodeKeyword(keyword)
	if err != nil {
		return "", err
	}
	return joongnaBaseURL + "/search/list?searchAttribute=content&query=" + encoded, nil
}

// ListSelector implements Strategy.
func (j *Joongna) ListSelector() string {
	return `a[href*="/product-detail/"]`
}

// ParseItem implements Strategy.
func (j *Joongna) ParseItem(sel *goquery.Selection) (model.ScrapedItem, bool) {
	href := strings.TrimSpace(sel.AttrOr("href", ""))
	if !strings.Contains(href, "/product-detail/") {
		return model.ScrapedItem{}, false
	}
	sourceID := lastPathSegment(href)
	if sourceID == "" {
		return model.ScrapedItem{}, false
	}

	itemURL := href
	if strings.HasPrefix(itemURL, "/") {
		itemURL = joongnaBaseURL + itemURL
	}

	title := strings.TrimSpace(sel.Find("span.product-title").Text())
	if title == "" {
		return model.ScrapedItem{}, false
	}

	item := model.ScrapedItem{
		SiteCode: joongnaSiteCode,
		SourceID: sourceID,
		Title:    title,
		Price:    parsePrice(sel.Find("span.product-price").Text()),
		URL:      itemURL,
		ImageURL: strings.TrimSpace(sel.Find("img").AttrOr("src", "")),
		Location: strings.TrimSpace(sel.Find("span.product-region").Text()),
	}
	return item, true
}
