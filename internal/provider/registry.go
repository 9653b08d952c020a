package provider

import "sync"

// Registry holds all registered web search adapters keyed by name.
type Registry struct {
	mu        sync.RWMutex
	searchers map[ProviderName]WebSearcher
}

// NewRegistry creates an empty search provider registry.
func NewRegistry() *Registry {
	return &Registry{
		searchers: make(map[ProviderName]WebSearcher),
	}
}

// Register adds a search adapter to the registry.
func (r *Registry) Register(s WebSearcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchers[s.Name()] = s
}

// Get returns a search adapter by name, or nil if not registered.
func (r *Registry) Get(name ProviderName) WebSearcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.searchers[name]
}

// All returns all registered search adapters in a stable order.
func (r *Registry) All() []WebSearcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []WebSearcher
	for _, name := range AllProviderNames() {
		if s, ok := r.searchers[name]; ok {
			result = append(result, s)
		}
	}
	return result
}
