package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sydlexius/discresolve/internal/provider"
)

const (
	defaultBaseURL = "https://serpapi.com"
	defaultEngine  = "google"
	snippetLimit   = 500
	maxBodyBytes   = 4 * 1024 * 1024
)

// Adapter implements provider.WebSearcher for the SerpApi Google endpoint.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	baseURL string
	apiKey  string
	engine  string
}

// New creates a SerpApi adapter with the default base URL.
func New(limiter *provider.RateLimiterMap, apiKey string, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, apiKey, logger, defaultBaseURL)
}

// NewWithBaseURL creates a SerpApi adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, apiKey string, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("provider", "serpapi")),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		engine:  defaultEngine,
	}
}

// SetEngine overrides the search engine parameter (default "google").
func (a *Adapter) SetEngine(engine string) {
	if engine != "" {
		a.engine = engine
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameSerpAPI }

// RequiresAuth returns whether this provider needs an API key.
func (a *Adapter) RequiresAuth() bool { return true }

// CheckCredentials reports a missing API key without making a request.
func (a *Adapter) CheckCredentials() error {
	if a.apiKey == "" {
		return &provider.ErrAuthRequired{Provider: provider.NameSerpAPI}
	}
	return nil
}

// Search runs a single query. The query text is sent as-is.
func (a *Adapter) Search(ctx context.Context, query string) (*provider.SearchResponse, error) {
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}

	if err := a.limiter.Wait(ctx, provider.NameSerpAPI); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameSerpAPI,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"engine":  {a.engine},
		"q":       {query},
		"api_key": {a.apiKey},
	}
	reqURL := a.baseURL + "/search.json?" + params.Encode()

	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	hits := resp.OrganicResults
	if len(hits) == 0 {
		hits = resp.Organic
	}
	results := make([]provider.SearchResult, 0, len(hits))
	for _, h := range hits {
		thumb := h.Thumbnail
		if thumb == "" {
			thumb = h.ImageURL
		}
		results = append(results, provider.SearchResult{
			Link:          h.Link,
			Title:         h.Title,
			Thumbnail:     thumb,
			DisplayedLink: h.DisplayedLink,
			Source:        h.Source,
		})
	}

	a.logger.Debug("search completed",
		slog.String("query", query),
		slog.Int("results", len(results)))

	return &provider.SearchResponse{Results: results, Raw: body}, nil
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", a.baseURL+"/search.json"))

	resp, err := a.client.Do(req) //nolint:gosec // URL constructed from trusted base + API params
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameSerpAPI,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameSerpAPI,
			Cause:    fmt.Errorf("reading body: %w", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &provider.ErrUpstreamSearch{
			Provider: provider.NameSerpAPI,
			Status:   resp.StatusCode,
			Snippet:  snippet(body),
		}
	}
	return body, nil
}

// snippet returns at most snippetLimit bytes of body, cut on a rune boundary.
func snippet(body []byte) string {
	if len(body) <= snippetLimit {
		return string(body)
	}
	s := string(body[:snippetLimit])
	return strings.ToValidUTF8(s, "")
}
