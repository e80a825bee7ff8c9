package chains

import (
	"fmt"
	"sync"

	"github.com/omnidex-labs/swapcore/pkg/constants"
)

// Registry manages chain adapters for the supported ecosystems.
type Registry struct {
	adapters map[constants.Ecosystem]Adapter
	mu       sync.RWMutex
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[constants.Ecosystem]Adapter),
	}
}

// Register registers a chain adapter (uses adapter.Ecosystem() as key).
// Registering a second adapter for the same ecosystem replaces the first
// (idempotent), which lets hosts swap in custom adapters for testing.
func (r *Registry) Register(adapter Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters[adapter.Ecosystem()] = adapter
	return nil
}

// Get retrieves the adapter for an ecosystem.
func (r *Registry) Get(ecosystem constants.Ecosystem) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	adapter, exists := r.adapters[ecosystem]
	if !exists {
		return nil, fmt.Errorf("no adapter registered for ecosystem: %s", ecosystem)
	}
	return adapter, nil
}

// SupportedEcosystems returns every registered ecosystem.
func (r *Registry) SupportedEcosystems() []constants.Ecosystem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ecosystems := make([]constants.Ecosystem, 0, len(r.adapters))
	for eco := range r.adapters {
		ecosystems = append(ecosystems, eco)
	}
	return ecosystems
}

// IsSupported checks whether an adapter is registered for the ecosystem.
func (r *Registry) IsSupported(ecosystem constants.Ecosystem) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.adapters[ecosystem]
	return exists
}

// Unregister removes an adapter (useful for testing).
func (r *Registry) Unregister(ecosystem constants.Ecosystem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.adapters, ecosystem)
}
