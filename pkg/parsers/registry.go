// Package parsers holds the static parser registry that replaces the
// teacher lineage's dynamic plugin loader (original_source/pluginmgr.hpp):
// parsers are compiled in and registered by name at startup instead of
// being dlopen'd from a shared object, since out-of-process plugin
// loading is out of scope for this cache.
package parsers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flowdeck/fccache/pkg/flowcache"
)

// Factory builds a fresh flowcache.Parser instance. Parsers are
// stateless across flows (all per-flow state lives in the Extension they
// attach), so a Factory is typically a function literal with no
// captured mutable state.
type Factory func() flowcache.Parser

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register adds a named parser factory to the global registry. It
// mirrors the teacher's config-driven enablement (pkg/conf.RegisterFlags)
// but resolves by name against this in-process table instead of a
// dynamically loaded shared object.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("parsers: duplicate registration for %q", name))
	}
	registry[name] = f
}

// Names returns every registered parser name, sorted for stable CLI
// help text and config diffing.
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates the named parsers, in the order requested, for
// registration into a flowcache.ParserPipeline. An unknown name is a
// startup-fatal configuration error (spec.md §7).
func Build(names []string) ([]flowcache.Parser, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	out := make([]flowcache.Parser, 0, len(names))
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("parsers: unknown parser %q", name)
		}
		out = append(out, factory())
	}
	return out, nil
}
