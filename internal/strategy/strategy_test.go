package strategy

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
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

func TestRegistryResolve(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name     string
		siteCode string
		wantCode string
		wantErr  error
	}{
		{name: "bunjang", siteCode: "BUNJANG", wantCode: "BUNJANG"},
		{name: "lowercase site code", siteCode: "joonggo", wantCode: "JOONGGO"},
		{name: "fruits", siteCode: "FRUIT", wantCode: "FRUIT"},
		{name: "unknown site", siteCode: "DAANGN", wantErr: ErrUnknownSite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := reg.Resolve(tt.siteCode)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%q) error = %v, want %v", tt.siteCode, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantCode, st.SiteCode()); diff != "" {
				t.Errorf("site code mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchURL(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		keyword  string
		want     string
	}{
		{
			name:     "bunjang ascii with space",
			strategy: NewBunjang(),
			keyword:  "iphone 13",
			want:     "https://m.bunjang.co.kr/search/products?q=iphone+13",
		},
		{
			name:     "bunjang korean",
			strategy: NewBunjang(),
			keyword:  "아이폰",
			want:     "https://m.bunjang.co.kr/search/products?q=%EC%95%84%EC%9D%B4%ED%8F%B0",
		},
		{
			name:     "joongna",
			strategy: NewJoongna(),
			keyword:  "galaxy",
			want:     "https://m.joongna.com/search/list?searchAttribute=content&query=galaxy",
		},
		{
			name:     "fruits",
			strategy: NewFruits(),
			keyword:  "coat",
			want:     "https://fruitsfamily.com/search?q=coat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.strategy.SearchURL(tt.keyword)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("url mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchURLInvalidKeyword(t *testing.T) {
	_, err := NewBunjang().SearchURL("broken\xff\xfe")
	if !errors.Is(err, ErrKeywordEncoding) {
		t.Fatalf("error = %v, want ErrKeywordEncoding", err)
	}
}

func TestParsePrice(t *testing.T) {
	ptr := func(v int64) *int64 { return &v }

	tests := []struct {
		name string
		text string
		want *int64
	}{
		{name: "korean won", text: "300,000원", want: ptr(300000)},
		{name: "plain digits", text: "1500", want: ptr(1500)},
		{name: "no digits", text: "가격문의", want: nil},
		{name: "empty", text: "", want: nil},
		{name: "mixed text", text: "특가 55,000원!", want: ptr(55000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePrice(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("price mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLastPathSegment(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "/products/230001001?q=iphone", want: "230001001"},
		{raw: "https://m.joongna.com/product-detail/87654321", want: "87654321"},
		{raw: "/products/42/", want: "42"},
		{raw: "plain", want: "plain"},
	}

	for _, tt := range tests {
		if got := lastPathSegment(tt.raw); got != tt.want {
			t.Errorf("lastPathSegment(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
