// Package registry holds named schema definitions and resolves the named
// references between them.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/artpar/structure/core/convention"
	"github.com/artpar/structure/core/schema"
)

// Registry manages registered definitions by qualified name.
// It implements schema.Resolver.
type Registry struct {
	mu sync.RWMutex

	// definitions by qualified name
	defs map[string]*schema.Definition

	logger   zerolog.Logger
	observer schema.Observer
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger passed to definitions built by the registry.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithObserver sets the observer passed to definitions built by the registry.
func WithObserver(o schema.Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		defs:   make(map[string]*schema.Definition),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefinitionOptions returns the options that bind a definition to this
// registry: the registry as resolver, plus its logger and observer.
func (r *Registry) DefinitionOptions() []schema.DefinitionOption {
	opts := []schema.DefinitionOption{
		schema.WithResolver(r),
		schema.WithLogger(r.logger),
	}
	if r.observer != nil {
		opts = append(opts, schema.WithObserver(r.observer))
	}
	return opts
}

// Define builds a definition resolving references through the registry
// and registers it.
func (r *Registry) Define(name string, fn func(*schema.Builder), opts ...schema.DefinitionOption) (*schema.Definition, error) {
	def, err := schema.Define(name, fn, append(r.DefinitionOptions(), opts...)...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(def); err != nil {
		return nil, err
	}
	return def, nil
}

// Register adds a definition. Anonymous definitions and duplicate names
// are rejected.
func (r *Registry) Register(def *schema.Definition) error {
	return r.RegisterAll(def)
}

// RegisterAll adds definitions atomically. If any definition is nil or
// anonymous, or its name is already registered or repeated, nothing is
// registered.
func (r *Registry) RegisterAll(defs ...*schema.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var conflicts []string
	seen := make(map[string]bool, len(defs))
	for i, def := range defs {
		if def == nil {
			return fmt.Errorf("cannot register a nil definition (argument %d)", i)
		}
		name := def.Name()
		if name == "" {
			return fmt.Errorf("cannot register an anonymous definition")
		}
		if _, exists := r.defs[name]; exists || seen[name] {
			conflicts = append(conflicts, name)
		}
		seen[name] = true
	}
	if len(conflicts) > 0 {
		return &ConflictError{Names: conflicts}
	}

	for _, def := range defs {
		r.defs[def.Name()] = def
		r.logger.Debug().Str("schema", def.Name()).Msg("schema registered")
	}

	return nil
}

// Unregister removes a definition from the registry.
// Definitions that already resolved a reference to it keep using it.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[name]; !exists {
		return fmt.Errorf("schema %q not registered", name)
	}
	delete(r.defs, name)

	return nil
}

// Lookup returns the definition registered under the exact qualified name.
func (r *Registry) Lookup(name string) (*schema.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	return def, ok
}

// Get returns a registered definition by name. A name that is not
// registered may still match exactly one definition by its short name
// ("Order" for "shop.Order"). Otherwise the error names the nearest matches.
func (r *Registry) Get(name string) (*schema.Definition, error) {
	if def, ok := r.Lookup(name); ok {
		return def, nil
	}

	short := convention.ShortName(name)
	var exact, similar []string
	for _, n := range r.Names() {
		switch s := convention.ShortName(n); {
		case s == short && !strings.Contains(name, "."):
			exact = append(exact, n)
		case strings.EqualFold(s, short):
			similar = append(similar, n)
		}
	}
	if len(exact) == 1 {
		def, ok := r.Lookup(exact[0])
		if ok {
			return def, nil
		}
	}
	similar = append(exact, similar...)
	if len(similar) > 0 {
		return nil, fmt.Errorf("schema %q not registered (did you mean %s?)", name, strings.Join(similar, ", "))
	}
	return nil, fmt.Errorf("schema %q not registered", name)
}

// List returns all registered definitions sorted by name.
func (r *Registry) List() []*schema.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*schema.Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}

	// Sort by name for consistent ordering
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name() < defs[j].Name()
	})

	return defs
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// LoadDir parses every schema document under dir into a new registry.
// The definitions resolve references through that registry.
func LoadDir(dir string, opts ...Option) (*Registry, error) {
	r := New(opts...)

	defs, err := schema.ParseDir(dir, r.DefinitionOptions()...)
	if err != nil {
		return nil, err
	}
	if err := r.RegisterAll(defs...); err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}

	r.logger.Debug().Str("dir", dir).Int("schemas", len(defs)).Msg("schemas loaded")
	return r, nil
}

// ConflictError reports names that are already registered.
type ConflictError struct {
	Names []string
}

// Error returns the conflict error message.
func (e *ConflictError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("schema %q already registered", e.Names[0])
	}
	return fmt.Sprintf("schemas already registered:\n  - %s", strings.Join(e.Names, "\n  - "))
}
