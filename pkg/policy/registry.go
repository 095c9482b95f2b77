package policy

import "sync"

// Registry holds named policy instances.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]Policy)}
}

// Register adds or replaces a policy by name.
func (r *Registry) Register(p Policy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[p.Name()] = p
}

// Unregister removes a policy, returning it if present.
func (r *Registry) Unregister(name string) (Policy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.policies[name]
	if ok {
		delete(r.policies, name)
	}
	return p, ok
}

// Get returns a policy by name.
func (r *Registry) Get(name string) (Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[name]
	return p, ok
}

// Names returns every registered policy name. Order is unspecified; the
// engine's evaluation order is a separate, explicit list.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.policies))
	for n := range r.policies {
		names = append(names, n)
	}
	return names
}

// Metadata describes a registered policy for introspection endpoints.
type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ListPolicies returns metadata for every registered policy.
func (r *Registry) ListPolicies() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.policies))
	for _, p := range r.policies {
		out = append(out, Metadata{Name: p.Name(), Version: p.Version()})
	}
	return out
}

// Clear removes every registered policy, used before a hot-reload.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies = make(map[string]Policy)
}
