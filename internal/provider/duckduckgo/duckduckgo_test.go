package duckduckgo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/sydlexius/discresolve/internal/provider"
	"golang.org/x/time/rate"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("loading fixture %s: %v", name, err)
	}
	return data
}

func testAdapter(baseURL string) *Adapter {
	limiter := provider.NewRateLimiterMap()
	limiter.SetLimit(provider.NameDuckDuckGo, rate.Inf)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewWithBaseURL(limiter, logger, baseURL)
}

func TestSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/html/" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotQuery = r.PostFormValue("q")
		w.Header().Set("Content-Type", "text/html")
		w.Write(loadFixture(t, "results_kind_of_blue.html"))
	}))
	defer srv.Close()

	resp, err := testAdapter(srv.URL).Search(context.Background(), "Kind of Blue Miles Davis")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "Kind of Blue Miles Davis" {
		t.Errorf("expected query to be posted verbatim, got %q", gotQuery)
	}

	// The sponsored result is skipped.
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(resp.Results), resp.Results)
	}

	first := resp.Results[0]
	if first.Link != "https://www.amazon.com/Kind-Blue/dp/B000002ADT" {
		t.Errorf("expected redirect to be unwrapped, got %q", first.Link)
	}
	if first.Title != "Kind of Blue by Davis, Miles (Vinyl, 1959)" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.DisplayedLink != "www.amazon.com/Kind-Blue/dp/B000002ADT" {
		t.Errorf("unexpected displayed link %q", first.DisplayedLink)
	}

	second := resp.Results[1]
	if second.Link != "https://www.discogs.com/release/1473-Miles-Davis-Kind-Of-Blue" {
		t.Errorf("unexpected link %q", second.Link)
	}
	if len(resp.Raw) == 0 {
		t.Error("expected raw body to be retained")
	}
}

func TestSearchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="no-results">No results.</div></body></html>`))
	}))
	defer srv.Close()

	resp, err := testAdapter(srv.URL).Search(context.Background(), "zzzz")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected 0 results, got %d", len(resp.Results))
	}
}

func TestSearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`blocked`))
	}))
	defer srv.Close()

	_, err := testAdapter(srv.URL).Search(context.Background(), "Radiohead")
	var upErr *provider.ErrUpstreamSearch
	if !errors.As(err, &upErr) {
		t.Fatalf("expected ErrUpstreamSearch, got %v", err)
	}
	if upErr.Status != http.StatusForbidden || upErr.Snippet != "blocked" {
		t.Errorf("unexpected error fields: %+v", upErr)
	}
}

func TestSearchContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testAdapter(srv.URL).Search(ctx, "Radiohead"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestResolveLink(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"https://example.com/a", "https://example.com/a"},
		{"//example.com/a", "https://example.com/a"},
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.discogs.com%2Fmaster%2F5460&rut=x", "https://www.discogs.com/master/5460"},
		{"//duckduckgo.com/l/?rut=x", "https://duckduckgo.com/l/?rut=x"},
	}
	for _, tt := range tests {
		if got := resolveLink(tt.in); got != tt.want {
			t.Errorf("resolveLink(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	a := New(provider.NewRateLimiterMap(), slog.Default())
	if a.Name() != provider.NameDuckDuckGo {
		t.Errorf("expected name duckduckgo, got %s", a.Name())
	}
	if a.RequiresAuth() {
		t.Error("expected RequiresAuth to return false")
	}
}
