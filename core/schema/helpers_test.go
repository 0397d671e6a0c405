package schema

import (
	"sync"
	"testing"
	"time"
)

// mapResolver is a minimal Resolver for tests.
type mapResolver struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

func newMapResolver() *mapResolver {
	return &mapResolver{defs: make(map[string]*Definition)}
}

func (m *mapResolver) Lookup(name string) (*Definition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.defs[name]
	return d, ok
}

func (m *mapResolver) add(d *Definition) *Definition {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defs[d.Name()] = d
	return d
}

// countingObserver records observer callbacks.
type countingObserver struct {
	mu       sync.Mutex
	parses   int
	failures int
	resolved []string
}

func (o *countingObserver) ParseCompleted(schema string, elapsed time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.parses++
	if err != nil {
		o.failures++
	}
}

func (o *countingObserver) ReferenceResolved(schema, name, target string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resolved = append(o.resolved, schema+"->"+target)
}

func mustDefine(t *testing.T, name string, fn func(*Builder), opts ...DefinitionOption) *Definition {
	t.Helper()
	def, err := Define(name, fn, opts...)
	if err != nil {
		t.Fatalf("Define(%q) error = %v", name, err)
	}
	return def
}

func mustParse(t *testing.T, def *Definition, data any, overrides ...map[string]any) *Record {
	t.Helper()
	rec, err := def.Parse(data, overrides...)
	if err != nil {
		t.Fatalf("%s.Parse() error = %v", def.label(), err)
	}
	return rec
}
