package llm

import (
	"fmt"
	"strings"
	"sync"
)

// ProviderFactory builds a Provider from client configuration.
type ProviderFactory func(cfg Config) (Provider, error)

// Registry maps provider names ("anthropic", "openai") to factories so
// the variant is selected by configuration, not runtime type checks.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

func (r *Registry) Register(name string, f ProviderFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(name string, cfg Config) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", name)
	}
	return f(cfg)
}
