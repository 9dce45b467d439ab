// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"sort"
	"sync"

	"github.com/gogpu/splatview"
)

// RegistryEntry represents a registered presenter.
type RegistryEntry struct {
	// Name is the unique identifier for this presenter.
	Name string

	// Priority determines selection order (higher = preferred).
	// Conventional priorities:
	//   - 100: zero-copy shared images
	//   - 50: GPU texture upload
	//   - 10: bitmap copy
	Priority int

	// Presenter is the registered implementation.
	Presenter Presenter

	// Available is the cached result of the availability probe.
	Available bool
}

// globalRegistry is the default registry.
var globalRegistry = &Registry{}

// Registry manages registered presenters.
//
// Example:
//
//	reg := surface.NewRegistry()
//	reg.Register("texture", 50, surface.NewTexture(drawer), nil)
//	p := reg.Chain()
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a presenter to the global registry.
func Register(name string, priority int, p Presenter, available func() bool) {
	globalRegistry.Register(name, priority, p, available)
}

// Unregister removes a presenter from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// List returns all registered presenter names sorted by priority.
func List() []string {
	return globalRegistry.List()
}

// Default returns the global registry.
func Default() *Registry {
	return globalRegistry
}

// Register adds a presenter to this registry.
//
// available is called once, here, and its result cached. A nil probe means
// always available. Registering an existing name replaces the entry.
func (r *Registry) Register(name string, priority int, p Presenter, available func() bool) {
	ok := p != nil
	if ok && available != nil {
		ok = available()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}
	r.entries[name] = &RegistryEntry{
		Name:      name,
		Priority:  priority,
		Presenter: p,
		Available: ok,
	}
	splatview.Logger().Debug("surface: presenter registered",
		"name", name, "priority", priority, "available", ok)
}

// Unregister removes a presenter from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered presenter names sorted by priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(false)
}

// Available returns names of available presenters sorted by priority.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(true)
}

// Get returns a copy of the entry registered under name.
func (r *Registry) Get(name string) (*RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	entryCopy := *entry
	return &entryCopy, true
}

// Lookup returns the named presenter if it is available.
func (r *Registry) Lookup(name string) (Presenter, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &PresenterNotFoundError{Name: name}
	}
	if !entry.Available {
		return nil, &PresenterUnavailableError{Name: name}
	}
	return entry.Presenter, nil
}

// Chain returns a presenter trying every available presenter in priority
// order. The set is fixed when Chain is called.
func (r *Registry) Chain() *Chain {
	r.mu.RLock()
	names := r.sortedNames(true)
	ps := make([]Presenter, 0, len(names))
	for _, name := range names {
		ps = append(ps, r.entries[name].Presenter)
	}
	r.mu.RUnlock()

	return NewChain(ps...)
}

// sortedNames returns names sorted by priority (highest first), then name.
// Must be called with lock held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	if len(r.entries) == 0 {
		return nil
	}

	type entry struct {
		name     string
		priority int
	}

	entries := make([]entry, 0, len(r.entries))
	for name, e := range r.entries {
		if onlyAvailable && !e.Available {
			continue
		}
		entries = append(entries, entry{name: name, priority: e.Priority})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].name < entries[j].name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}
