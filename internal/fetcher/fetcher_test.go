package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/krw82/usedItem/internal/strategy"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error

	gotReq *http.Request
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func loadFixture(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test-only fixture loading
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return string(data)
}

func TestSearch(t *testing.T) {
	html := loadFixture(t, "../../testdata/bunjang_search.html")

	tests := []struct {
		name          string
		transport     *mockTransport
		wantFragments int
		wantErr       bool
	}{
		{
			name:          "successful fetch",
			transport:     &mockTransport{body: html, statusCode: 200},
			wantFragments: 3,
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "blocked", statusCode: 403},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
	}

	st := strategy.NewBunjang()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.transport)
			doc, err := f.Search(context.Background(), st, "iphone 13")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := doc.Find(st.ListSelector()).Length(); got != tt.wantFragments {
				t.Errorf("fragments = %d, want %d", got, tt.wantFragments)
			}
		})
	}
}

func TestSearchRequestIdentity(t *testing.T) {
	transport := &mockTransport{body: "<html></html>", statusCode: 200}
	f := New(transport)

	if _, err := f.Search(context.Background(), strategy.NewBunjang(), "iphone 13"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := transport.gotReq
	if req == nil {
		t.Fatal("no request performed")
	}
	if got := req.URL.String(); got != "https://m.bunjang.co.kr/search/products?q=iphone+13" {
		t.Errorf("url = %q", got)
	}
	if ua := req.Header.Get("User-Agent"); ua != userAgent {
		t.Errorf("user agent = %q, want browser identity", ua)
	}
	if _, ok := req.Context().Deadline(); !ok {
		t.Error("request has no deadline")
	}
}

func TestSearchKeywordEncodingError(t *testing.T) {
	transport := &mockTransport{body: "<html></html>", statusCode: 200}
	f := New(transport)

	_, err := f.Search(context.Background(), strategy.NewBunjang(), "bad\xff\xfe")
	if !errors.Is(err, strategy.ErrKeywordEncoding) {
		t.Fatalf("error = %v, want ErrKeywordEncoding", err)
	}
	if transport.gotReq != nil {
		t.Error("request performed despite encoding failure")
	}
}
