package client

import "sync"

// Registry maps provider keys to wire clients. It is constructed by the
// caller and handed to the dispatcher; there is no process-wide registry.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

func (r *Registry) Register(provider string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[provider] = client
}

func (r *Registry) Get(provider string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[provider]
	return client, ok
}

func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	providers := make([]string, 0, len(r.clients))
	for provider := range r.clients {
		providers = append(providers, provider)
	}
	return providers
}
