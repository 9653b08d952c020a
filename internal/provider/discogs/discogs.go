package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sydlexius/discresolve/internal/provider"
)

const defaultBaseURL = "https://api.discogs.com"

var (
	releasePathRegex = regexp.MustCompile(`/release/(\d+)`)
	masterPathRegex  = regexp.MustCompile(`/master/(\d+)`)
)

// Adapter fetches release and master metadata from the Discogs API.
type Adapter struct {
	client  *http.Client
	limiter *provider.RateLimiterMap
	logger  *slog.Logger
	baseURL string
	token   string
}

// New creates a Discogs adapter with the default base URL. An empty token
// makes anonymous requests.
func New(limiter *provider.RateLimiterMap, token string, logger *slog.Logger) *Adapter {
	return NewWithBaseURL(limiter, token, logger, defaultBaseURL)
}

// NewWithBaseURL creates a Discogs adapter with a custom base URL (for testing).
func NewWithBaseURL(limiter *provider.RateLimiterMap, token string, logger *slog.Logger, baseURL string) *Adapter {
	return &Adapter{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("provider", "discogs")),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// Name returns the provider name.
func (a *Adapter) Name() provider.ProviderName { return provider.NameDiscogs }

// RequiresAuth returns whether this provider needs an API key.
func (a *Adapter) RequiresAuth() bool { return false }

// ParseResourceURL extracts the resource type and numeric ID from a Discogs
// web URL. Release paths are checked before master paths.
func ParseResourceURL(canonicalURL string) (provider.ResourceType, string, bool) {
	if m := releasePathRegex.FindStringSubmatch(canonicalURL); m != nil {
		return provider.ResourceRelease, m[1], true
	}
	if m := masterPathRegex.FindStringSubmatch(canonicalURL); m != nil {
		return provider.ResourceMaster, m[1], true
	}
	return "", "", false
}

// FetchMetadata looks up the record behind a canonical Discogs URL.
// It returns nil when the URL names no release or master, or when the
// lookup fails for any reason.
func (a *Adapter) FetchMetadata(ctx context.Context, canonicalURL string) *provider.CatalogEntry {
	kind, id, ok := ParseResourceURL(canonicalURL)
	if !ok {
		a.logger.Debug("no release or master id in url", slog.String("url", canonicalURL))
		return nil
	}
	entry, err := a.GetEntry(ctx, kind, id)
	if err != nil {
		a.logger.Warn("catalog lookup failed",
			slog.String("type", string(kind)),
			slog.String("id", id),
			slog.String("error", err.Error()))
		return nil
	}
	return entry
}

// GetEntry fetches a release or master by its Discogs ID.
func (a *Adapter) GetEntry(ctx context.Context, kind provider.ResourceType, id string) (*provider.CatalogEntry, error) {
	var path string
	switch kind {
	case provider.ResourceRelease:
		path = "releases"
	case provider.ResourceMaster:
		path = "masters"
	default:
		return nil, fmt.Errorf("unknown resource type %q", kind)
	}

	if err := a.limiter.Wait(ctx, provider.NameDiscogs); err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDiscogs,
			Cause:    fmt.Errorf("rate limiter: %w", err),
		}
	}

	reqURL := fmt.Sprintf("%s/%s/%s", a.baseURL, path, url.PathEscape(id))
	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var detail ResourceDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", kind, err)
	}

	return mapEntry(kind, id, &detail), nil
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Discogs token="+a.token)
	}
	req.Header.Set("User-Agent", "discresolve/1.0")
	req.Header.Set("Accept", "application/json")

	a.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := a.client.Do(req) //nolint:gosec // URL constructed from trusted base + API params
	if err != nil {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDiscogs,
			Cause:    err,
		}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, &provider.ErrNotFound{Provider: provider.NameDiscogs, ID: reqURL}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &provider.ErrAuthRequired{Provider: provider.NameDiscogs}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &provider.ErrProviderUnavailable{
			Provider: provider.NameDiscogs,
			Cause:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
}

func mapEntry(kind provider.ResourceType, id string, d *ResourceDetail) *provider.CatalogEntry {
	entry := &provider.CatalogEntry{
		ResourceType: kind,
		ID:           id,
		Title:        d.Title,
	}
	if d.ID != 0 {
		entry.ID = strconv.Itoa(d.ID)
	}
	for _, img := range d.Images {
		entry.Images = append(entry.Images, provider.CatalogImage{
			Type:        img.Type,
			URI:         img.URI,
			URI150:      img.URI150,
			ResourceURL: img.ResourceURL,
		})
	}
	// Masters occasionally come back without images but with a thumb.
	if len(entry.Images) == 0 && d.Thumb != "" {
		entry.Images = append(entry.Images, provider.CatalogImage{Type: "primary", URI: d.Thumb})
	}
	return entry
}
