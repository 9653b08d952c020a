package serpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sydlexius/discresolve/internal/provider"
	"golang.org/x/time/rate"
)

const kindOfBlueResponse = `{
  "search_metadata": {"status": "Success"},
  "organic_results": [
    {"position": 1, "title": "Kind of Blue - Wikipedia", "link": "https://en.wikipedia.org/wiki/Kind_of_Blue", "displayed_link": "en.wikipedia.org › wiki › Kind_of_Blue"},
    {"position": 2, "title": "Miles Davis - Kind Of Blue | Releases | Discogs", "link": "https://www.discogs.com/master/5460-Miles-Davis-Kind-Of-Blue", "displayed_link": "www.discogs.com › master › 5460", "source": "Discogs", "thumbnail": "https://serpapi.example/thumb.jpg"}
  ]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testLimiter() *provider.RateLimiterMap {
	limiter := provider.NewRateLimiterMap()
	limiter.SetLimit(provider.NameSerpAPI, rate.Inf)
	return limiter
}

func TestSearch(t *testing.T) {
	var gotQuery, gotKey, gotEngine string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("api_key")
		gotEngine = r.URL.Query().Get("engine")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(kindOfBlueResponse))
	}))
	defer srv.Close()

	a := NewWithBaseURL(testLimiter(), "test-key", testLogger(), srv.URL)
	resp, err := a.Search(context.Background(), `site:discogs.com "Miles Davis" "Kind of Blue"`)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != `site:discogs.com "Miles Davis" "Kind of Blue"` {
		t.Errorf("query not passed verbatim: %q", gotQuery)
	}
	if gotKey != "test-key" {
		t.Errorf("expected api key test-key, got %q", gotKey)
	}
	if gotEngine != "google" {
		t.Errorf("expected engine google, got %q", gotEngine)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	second := resp.Results[1]
	if second.Link != "https://www.discogs.com/master/5460-Miles-Davis-Kind-Of-Blue" {
		t.Errorf("unexpected link %q", second.Link)
	}
	if second.Source != "Discogs" || second.Thumbnail == "" || second.DisplayedLink == "" {
		t.Errorf("optional fields not decoded: %+v", second)
	}
	if len(resp.Raw) == 0 {
		t.Error("expected raw body to be retained")
	}
}

func TestSearchOrganicAlias(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organic":[{"title":"A","link":"https://a.example","imageUrl":"https://a.example/i.jpg"}]}`))
	}))
	defer srv.Close()

	a := NewWithBaseURL(testLimiter(), "k", testLogger(), srv.URL)
	resp, err := a.Search(context.Background(), "a")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	if resp.Results[0].Thumbnail != "https://a.example/i.jpg" {
		t.Errorf("expected imageUrl to fill thumbnail, got %q", resp.Results[0].Thumbnail)
	}
}

func TestSearchMissingKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	a := NewWithBaseURL(testLimiter(), "", testLogger(), srv.URL)
	_, err := a.Search(context.Background(), "anything")
	var authErr *provider.ErrAuthRequired
	if !errors.As(err, &authErr) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if called {
		t.Error("no request should be made without an API key")
	}
	if a.CheckCredentials() == nil {
		t.Error("CheckCredentials should report the missing key")
	}
}

func TestSearchUpstreamError(t *testing.T) {
	long := strings.Repeat("x", 2000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Invalid API key.` + long + `"}`))
	}))
	defer srv.Close()

	a := NewWithBaseURL(testLimiter(), "bad", testLogger(), srv.URL)
	_, err := a.Search(context.Background(), "anything")
	var upErr *provider.ErrUpstreamSearch
	if !errors.As(err, &upErr) {
		t.Fatalf("expected ErrUpstreamSearch, got %v", err)
	}
	if upErr.Status != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", upErr.Status)
	}
	if len(upErr.Snippet) != snippetLimit {
		t.Errorf("expected %d byte snippet, got %d", snippetLimit, len(upErr.Snippet))
	}
	if !strings.HasPrefix(upErr.Snippet, `{"error":"Invalid API key.`) {
		t.Errorf("snippet should start with the body, got %q", upErr.Snippet[:40])
	}
}

func TestSearchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a := NewWithBaseURL(testLimiter(), "k", testLogger(), srv.URL)
	_, err := a.Search(context.Background(), "anything")
	var unavailable *provider.ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestSearchContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := NewWithBaseURL(testLimiter(), "k", testLogger(), srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Search(ctx, "anything"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestName(t *testing.T) {
	a := New(provider.NewRateLimiterMap(), "k", testLogger())
	if a.Name() != provider.NameSerpAPI {
		t.Errorf("expected name serpapi, got %s", a.Name())
	}
	if !a.RequiresAuth() {
		t.Error("expected RequiresAuth to return true")
	}
}
