package duckduckgo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/sydlexius/discresolve/internal/provider"
)

const (
	htmlBaseURL  = "https://html.duckduckgo.com"
	maxResults   = 30
	maxBodyBytes = 2 * 1024 * 1024
	snippetLimit = 500
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Adapter implements provider.WebSearcher over the DuckDuckGo HTML endpoint.
// It needs no API key.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	htmlURL string
}

// New creates a DuckDuckGo search adapter with the default URL.
func New(limiter *provider.RateLimiterMap, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, logger, htmlBaseURL)
}

// NewWithBaseURL creates a DuckDuckGo adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, logger *slog.Logger, htmlURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("provider", "duckduckgo")),
		htmlURL: strings.TrimRight(htmlURL, "/"),
	}
}

// Name returns the provider identifier.
func (a *Adapter) Name() provider.ProviderName { return provider.NameDuckDuckGo }

// RequiresAuth returns false since DuckDuckGo needs no API key.
func (a *Adapter) RequiresAuth() bool { return false }

// Search posts the query to the HTML endpoint and parses the organic results.
// Sponsored results are skipped.
func (a *Adapter) Search(ctx context.Context, query string) (*provider.SearchResponse, error) {
	if err := a.limiter.Wait(ctx, provider.NameDuckDuckGo); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDuckDuckGo,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.htmlURL+"/html/", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req) //nolint:gosec // URL constructed from adapter config, not user input
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDuckDuckGo,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDuckDuckGo,
			Cause:    fmt.Errorf("reading body: %w", err),
		}
	}

	if resp.StatusCode != http.StatusOK {
		s := body
		if len(s) > snippetLimit {
			s = s[:snippetLimit]
		}
		return nil, &provider.ErrUpstreamSearch{
			Provider: provider.NameDuckDuckGo,
			Status:   resp.StatusCode,
			Snippet:  strings.ToValidUTF8(string(s), ""),
		}
	}

	results, err := parseResults(body)
	if err != nil {
		return nil, fmt.Errorf("parsing result page: %w", err)
	}

	a.logger.Debug("search completed",
		slog.String("query", query),
		slog.Int("results", len(results)))

	return &provider.SearchResponse{Results: results, Raw: body}, nil
}

// parseResults walks the result page and collects one SearchResult per
// result__a anchor, attaching the following result__url text as the
// displayed link.
func parseResults(body []byte) ([]provider.SearchResult, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var results []provider.SearchResult
	var walk func(n *html.Node, inAd bool)
	walk = func(n *html.Node, inAd bool) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode {
			if hasClass(n, classAd) {
				inAd = true
			}
			if n.Data == "a" && !inAd {
				switch {
				case hasClass(n, classResultLink):
					results = append(results, provider.SearchResult{
						Link:  resolveLink(attr(n, "href")),
						Title: strings.TrimSpace(textContent(n)),
					})
					return
				case hasClass(n, classResultURL) && len(results) > 0:
					results[len(results)-1].DisplayedLink = strings.TrimSpace(textContent(n))
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inAd)
		}
	}
	walk(doc, false)
	return results, nil
}

// resolveLink unwraps DuckDuckGo's click-through redirect and makes
// protocol-relative links absolute.
func resolveLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.Path == redirectPath {
		if target := u.Query().Get(redirectParam); target != "" {
			return target
		}
	}
	return href
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
