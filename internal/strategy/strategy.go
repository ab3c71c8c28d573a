// Package strategy holds the per-marketplace scraping knowledge: how to build
// a search URL, where listing fragments live in the page, and how to turn one
// fragment into a ScrapedItem.
package strategy

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/krw82/usedItem/internal/model"
)

// ErrUnknownSite is returned when no strategy is registered for a site code.
var ErrUnknownSite = errors.New("unknown site code")

// ErrKeywordEncoding is returned when a keyword cannot be URL-encoded.
var ErrKeywordEncoding = errors.New("keyword not encodable")

// Strategy is the site-specific part of the pipeline. Implementations are
// pure: ParseItem never errors and never touches anything outside the given
// fragment. A fragment missing required fields yields ok == false and the
// caller skips it.
type Strategy interface {
	SiteCode() string
	SearchURL(keyword string) (string, error)
	ListSelector() string
	ParseItem(sel *goquery.Selection) (model.ScrapedItem, bool)
}

// Registry maps site codes to their strategies.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds a registry from the given strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	m := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		m[strings.ToUpper(s.SiteCode())] = s
	}
	return &Registry{strategies: m}
}

// DefaultRegistry returns a registry with every supported marketplace.
func DefaultRegistry() *Registry {
	return NewRegistry(NewBunjang(), NewJoongna(), NewFruits())
}

// Resolve returns the strategy for a site code, or ErrUnknownSite.
func (r *Registry) Resolve(siteCode string) (Strategy, error) {
	s, ok := r.strategies[strings.ToUpper(siteCode)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSite, siteCode)
	}
	return s, nil
}

// Sites returns the registered site codes.
func (r *Registry) Sites() []string {
	codes := make([]string, 0, len(r.strategies))
	for code := range r.strategies {
		codes = append(codes, code)
	}
	return codes
}

// encodeKeyword percent-encodes a keyword for use in a query string.
func encodeKeyword(keyword string) (string, error) {
	if !utf8.ValidString(keyword) {
		return "", fmt.Errorf("%w: %q", ErrKeywordEncoding, keyword)
	}
	return url.QueryEscape(keyword), nil
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// parsePrice strips currency symbols and separators ("129,000원" -> 129000).
// Returns nil when no digits remain or the number overflows.
func parsePrice(text string) *int64 {
	digits := nonDigits.ReplaceAllString(text, "")
	if digits == "" {
		return nil
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// lastPathSegment returns the final path element of a URL or path, with any
// query string removed.
func lastPathSegment(raw string) string {
	raw, _, _ = strings.Cut(raw, "?")
	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		return raw[i+1:]
	}
	return raw
}
