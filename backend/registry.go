package backend

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/splatview"
)

// Factory creates a renderer for one driver.
type Factory func(cfg Config) (splatview.Backend, error)

// registry holds registered factories.
var (
	registryMu sync.RWMutex
	factories  = make(map[splatview.Driver]Factory)
)

// Register registers a factory for driver d.
// This is typically called from init() functions.
// A factory already registered for d is replaced.
func Register(d splatview.Driver, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[d] = f
}

// Unregister removes the factory for d.
// This is useful for testing.
func Unregister(d splatview.Driver) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, d)
}

// Available returns the registered drivers in declaration order.
func Available() []splatview.Driver {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]splatview.Driver, 0, len(factories))
	for d := range factories {
		out = append(out, d)
	}
	slices.Sort(out)
	return out
}

// IsRegistered checks if a factory is registered for d.
func IsRegistered(d splatview.Driver) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[d]
	return ok
}

// Get builds a renderer for d.
// DriverSoftwareAuto has no factory of its own; Resolve it first.
func Get(d splatview.Driver, cfg Config) (splatview.Backend, error) {
	registryMu.RLock()
	f, ok := factories[d]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotAvailable, d)
	}
	return f(cfg)
}
