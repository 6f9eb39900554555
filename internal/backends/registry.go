// Package backends hosts the registry of compilation backends and the
// built-in stub backend used for dev-time lazy builds.
package backends

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Sumatoshi-tech/bundlefang/pkg/build"
)

// Factory constructs a backend instance.
type Factory func() build.Backend

// ErrUnknownBackend reports a lookup for a name no factory registered.
var ErrUnknownBackend = errors.New("unknown backend")

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a backend factory under name. Later registrations replace
// earlier ones, so tests can swap in fakes.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[name] = factory
}

// Lookup constructs the backend registered under name.
func Lookup(name string) (build.Backend, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownBackend, name, Names())
	}

	return factory(), nil
}

// Names returns the registered backend names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
