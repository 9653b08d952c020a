package resolve

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/sydlexius/discresolve/internal/provider"
)

// Default catalog target.
const (
	DefaultDomain = "discogs.com"
	DefaultName   = "discogs"
)

// Selector picks catalog matches and hint sources out of search results for
// one target catalog domain. All methods are pure.
type Selector struct {
	domain  string
	name    string
	urlScan *regexp.Regexp
}

// NewSelector creates a Selector for the given catalog domain (e.g.
// "discogs.com") and provider-labeled source name (e.g. "discogs").
func NewSelector(domain, name string) *Selector {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		domain = DefaultDomain
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = strings.SplitN(domain, ".", 2)[0]
	}
	return &Selector{
		domain:  domain,
		name:    name,
		urlScan: regexp.MustCompile(`(?i)https?://(?:[a-z0-9-]+\.)*` + regexp.QuoteMeta(domain) + `/[^\s"'<>\\]*`),
	}
}

// Domain returns the catalog domain the selector matches.
func (s *Selector) Domain() string { return s.domain }

// SiteQuery restricts a free-text query to the catalog domain.
func (s *Selector) SiteQuery(query string) string {
	return "site:" + s.domain + " " + query
}

// HintQuery builds the quoted, domain-restricted query for a parsed hint.
// Double quotes inside the hint would break the phrase syntax and are dropped.
func (s *Selector) HintQuery(h ParsedHint) string {
	unquote := strings.NewReplacer(`"`, "")
	return fmt.Sprintf(`site:%s "%s" "%s"`, s.domain, unquote.Replace(h.Artist), unquote.Replace(h.Title))
}

// PickCatalogMatch returns the first result with a link whose link or
// displayed link contains the catalog domain, or whose source names the
// catalog. Matching is case-insensitive; provider order decides ties.
func (s *Selector) PickCatalogMatch(results []provider.SearchResult) *provider.SearchResult {
	for i := range results {
		r := &results[i]
		if r.Link == "" {
			continue
		}
		if s.linkMatches(r.Link) ||
			containsFold(r.DisplayedLink, s.domain) ||
			containsFold(r.Source, s.name) {
			res := *r
			return &res
		}
	}
	return nil
}

// PickCatalogFromAny scans the whole raw response for the first catalog URL,
// wherever the provider put it. JSON string values are decoded in body
// order so escaped slashes and ampersands read as plain text. The synthetic result carries
// only the link.
func (s *Selector) PickCatalogFromAny(raw []byte) *provider.SearchResult {
	if len(raw) == 0 {
		return nil
	}
	found := s.urlScan.FindString(serializeRaw(raw))
	found = strings.TrimRight(found, ".,;:)]}")
	if found == "" {
		return nil
	}
	return &provider.SearchResult{Link: found}
}

// PickHint returns the first result whose link is not on the catalog domain.
func (s *Selector) PickHint(results []provider.SearchResult) *provider.SearchResult {
	for i := range results {
		if !s.linkMatches(results[i].Link) {
			res := results[i]
			return &res
		}
	}
	return nil
}

func (s *Selector) linkMatches(link string) bool {
	return containsFold(link, s.domain)
}

// serializeRaw returns the response as text in body order. For valid JSON
// every string token, keys included, is decoded and written on its own line;
// anything else is treated as markup.
func serializeRaw(raw []byte) string {
	if !json.Valid(raw) {
		return html.UnescapeString(string(raw))
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if str, ok := tok.(string); ok {
			b.WriteString(str)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func containsFold(s, substr string) bool {
	if s == "" || substr == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
