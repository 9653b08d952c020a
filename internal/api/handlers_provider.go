package api

import (
	"net/http"

	"github.com/sydlexius/discresolve/internal/provider"
)

// providerStatus is one entry of GET /api/v1/providers.
type providerStatus struct {
	Name        provider.ProviderName `json:"name"`
	DisplayName string                `json:"display_name"`
	Role        string                `json:"role"`
	Active      bool                  `json:"active"`
	Configured  bool                  `json:"configured"`
	provider.ProviderCapability
}

// handleListProviders reports the registered search providers and the
// catalog, with their access model and whether credentials are in place.
func (r *Router) handleListProviders(w http.ResponseWriter, req *http.Request) {
	caps := provider.ProviderCapabilities()
	var statuses []providerStatus

	if r.registry != nil {
		for _, s := range r.registry.All() {
			configured := true
			if cc, ok := s.(provider.CredentialChecker); ok {
				configured = cc.CheckCredentials() == nil
			}
			statuses = append(statuses, providerStatus{
				Name:               s.Name(),
				DisplayName:        s.Name().DisplayName(),
				Role:               "search",
				Active:             s.Name() == r.backend,
				Configured:         configured,
				ProviderCapability: caps[s.Name()],
			})
		}
	}

	// Discogs works anonymously; configured means a token is set.
	statuses = append(statuses, providerStatus{
		Name:               provider.NameDiscogs,
		DisplayName:        provider.NameDiscogs.DisplayName(),
		Role:               "catalog",
		Active:             true,
		Configured:         r.catalogAuthenticated,
		ProviderCapability: caps[provider.NameDiscogs],
	})

	writeJSON(w, http.StatusOK, map[string]any{"providers": statuses})
}
