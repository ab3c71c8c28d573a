package strategy

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/krw82/usedItem/internal/model"
)

func TestJoongnaParseItem(t *testing.T) {
	doc := loadDoc(t, "../../testdata/joongna_search.html")
	st := NewJoongna()

	items, skipped := parseAll(t, st, doc)

	price := int64(450000)
	want := []model.ScrapedItem{
		{
			SiteCode: "JOONGGO",
			SourceID: "87654321",
			Title:    "갤럭시 S22 자급제",
			Price:    &price,
			URL:      "https://m.joongna.com/product-detail/87654321",
			ImageURL: "https://img.joongna.com/media/87654321.jpg",
			Location: "인천 연수구",
		},
		{
			SiteCode: "JOONGGO",
			SourceID: "87654322",
			Title:    "갤럭시 버즈2 프로 미개봉",
			Price:    nil, // "연락요망" carries no digits
			URL:      "https://m.joongna.com/product-detail/87654322",
			ImageURL: "https://img.joongna.com/media/87654322.jpg",
			Location: "대전 서구",
		},
	}

	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}
	// The third card has no title and is skipped.
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}
