package provider

import (
	"context"
	"fmt"
	"time"
)

// AccessTier classifies a provider's access model.
type AccessTier string

// Access tier constants for classifying a provider's access model.
const (
	TierFree     AccessTier = "free"     // No key, no limit known
	TierFreeKey  AccessTier = "free_key" // Free account/sign-up required
	TierFreemium AccessTier = "freemium" // Free tier with quota, paid for more
)

// RateLimitInfo documents the known rate limits for a provider.
type RateLimitInfo struct {
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"`
	RequestsPerMonth  int     `json:"requests_per_month,omitempty"` // 0 = unknown/unlimited
}

// ProviderCapability describes a provider's access model and documented rate limits.
type ProviderCapability struct {
	Tier      AccessTier     `json:"tier"`
	HelpURL   string         `json:"help_url,omitempty"`
	RateLimit *RateLimitInfo `json:"rate_limit,omitempty"`
}

// ProviderCapabilities returns the known capability metadata for each provider.
func ProviderCapabilities() map[ProviderName]ProviderCapability {
	return map[ProviderName]ProviderCapability{
		NameSerpAPI: {
			Tier:      TierFreemium,
			HelpURL:   "https://serpapi.com/manage-api-key",
			RateLimit: &RateLimitInfo{RequestsPerSecond: 5, RequestsPerMonth: 100},
		},
		NameDuckDuckGo: {
			Tier:      TierFree,
			RateLimit: &RateLimitInfo{RequestsPerSecond: 1},
		},
		NameDiscogs: {
			Tier:      TierFreeKey,
			HelpURL:   "https://www.discogs.com/settings/developers",
			RateLimit: &RateLimitInfo{RequestsPerSecond: 1},
		},
	}
}

// ProviderName uniquely identifies an upstream provider.
type ProviderName string

// Known provider names.
const (
	NameSerpAPI    ProviderName = "serpapi"
	NameDuckDuckGo ProviderName = "duckduckgo"
	NameDiscogs    ProviderName = "discogs"
)

// AllProviderNames returns all known provider names in display order.
func AllProviderNames() []ProviderName {
	return []ProviderName{NameSerpAPI, NameDuckDuckGo, NameDiscogs}
}

// DisplayName returns a human-readable name for the provider.
func (n ProviderName) DisplayName() string {
	switch n {
	case NameSerpAPI:
		return "SerpApi"
	case NameDuckDuckGo:
		return "DuckDuckGo"
	case NameDiscogs:
		return "Discogs"
	default:
		return string(n)
	}
}

// SearchResult is one web search hit, normalized across search backends.
// Empty fields were absent in the provider response.
type SearchResult struct {
	Link          string `json:"link,omitempty"`
	Title         string `json:"title,omitempty"`
	Thumbnail     string `json:"thumbnail,omitempty"`
	DisplayedLink string `json:"displayed_link,omitempty"`
	Source        string `json:"source,omitempty"`
}

// SearchResponse is a decoded web search response. Results keep the
// provider's ranking order. Raw holds the undecoded body (JSON or HTML,
// depending on the backend) so callers can look for data the provider
// placed outside the result list.
type SearchResponse struct {
	Results []SearchResult
	Raw     []byte
}

// ResourceType is the kind of catalog record a canonical URL points at.
type ResourceType string

// Catalog resource types.
const (
	ResourceRelease ResourceType = "release"
	ResourceMaster  ResourceType = "master"
)

// CatalogImage is one image attached to a catalog record.
type CatalogImage struct {
	Type        string `json:"type,omitempty"` // "primary" or "secondary"
	URI         string `json:"uri,omitempty"`
	URI150      string `json:"uri150,omitempty"`
	ResourceURL string `json:"resource_url,omitempty"`
}

// URL returns the first non-empty URL of the image.
func (i CatalogImage) URL() string {
	for _, u := range []string{i.URI, i.URI150, i.ResourceURL} {
		if u != "" {
			return u
		}
	}
	return ""
}

// CatalogEntry is the authoritative metadata for a release or master record.
type CatalogEntry struct {
	ResourceType ResourceType   `json:"resource_type"`
	ID           string         `json:"id"`
	Title        string         `json:"title,omitempty"`
	Images       []CatalogImage `json:"images,omitempty"`
}

// CoverImage returns the URL of the primary image, falling back to the
// first image that carries any URL.
func (e *CatalogEntry) CoverImage() string {
	if e == nil {
		return ""
	}
	for _, img := range e.Images {
		if img.Type == "primary" && img.URL() != "" {
			return img.URL()
		}
	}
	for _, img := range e.Images {
		if u := img.URL(); u != "" {
			return u
		}
	}
	return ""
}

// WebSearcher is the interface web search adapters implement.
type WebSearcher interface {
	// Name returns the unique provider identifier.
	Name() ProviderName

	// RequiresAuth returns true if this provider needs an API key to function.
	RequiresAuth() bool

	// Search runs one query and returns the decoded response.
	Search(ctx context.Context, query string) (*SearchResponse, error)
}

// CredentialChecker is an optional interface for adapters that can tell,
// without touching the network, whether their credentials are configured.
type CredentialChecker interface {
	CheckCredentials() error
}

// ErrProviderUnavailable indicates a transient failure (rate-limited, timeout, server error).
type ErrProviderUnavailable struct {
	Provider   ProviderName
	Cause      error
	RetryAfter time.Duration
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Cause)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Cause }

// ErrUpstreamSearch indicates the search provider answered with a
// non-success status. Snippet is the head of the response body.
type ErrUpstreamSearch struct {
	Provider ProviderName
	Status   int
	Snippet  string
}

func (e *ErrUpstreamSearch) Error() string {
	return fmt.Sprintf("provider %s: search returned HTTP %d", e.Provider, e.Status)
}

// ErrNotFound indicates the provider has no data for the requested ID.
type ErrNotFound struct {
	Provider ProviderName
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("provider %s: %s not found", e.Provider, e.ID)
}

// ErrAuthRequired indicates the provider needs an API key but none is configured.
type ErrAuthRequired struct {
	Provider ProviderName
}

func (e *ErrAuthRequired) Error() string {
	return fmt.Sprintf("provider %s: API key not configured", e.Provider)
}
