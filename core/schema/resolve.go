package schema

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/artpar/structure/core/convention"
)

// refSite is the resolution cache cell of one named-reference coercion site.
// The target is read without locking; a miss takes the lock, checks again
// and resolves. Failed resolutions are not cached, so a definition
// registered later is still found.
type refSite struct {
	name  string
	owner *Definition

	mu       sync.Mutex
	resolved atomic.Pointer[Definition]
}

func (s *refSite) target() (*Definition, error) {
	if t := s.resolved.Load(); t != nil {
		return t, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if t := s.resolved.Load(); t != nil {
		return t, nil
	}

	t, err := s.owner.Resolve(s.name)
	if err != nil {
		return nil, err
	}
	s.resolved.Store(t)

	s.owner.logger.Debug().
		Str("schema", s.owner.label()).
		Str("reference", s.name).
		Str("target", t.label()).
		Msg("reference resolved")
	if s.owner.observer != nil {
		s.owner.observer.ReferenceResolved(s.owner.name, s.name, t.name)
	}

	return t, nil
}

// Resolve looks name up relative to the definition's namespace: first
// inside the enclosing namespace, then one segment further out at a
// time, and finally at the root. The definition itself matches its own
// qualified name even when no resolver is set.
//
// Resolve does not cache; reference coercion sites do.
func (d *Definition) Resolve(name string) (*Definition, error) {
	candidates := convention.Candidates(name, d.namespace)

	for _, c := range candidates {
		if d.name != "" && c == d.name {
			return d, nil
		}
		if d.resolver == nil {
			continue
		}
		if target, ok := d.resolver.Lookup(c); ok && target != nil {
			return target, nil
		}
	}

	return nil, &ReferenceError{Name: name, Candidates: candidates}
}

// CheckReferences resolves every named reference of the definition,
// including array members, and reports each one that matches nothing.
// Parsing does not need this; it resolves references on first use.
func (d *Definition) CheckReferences() error {
	var errs []error
	for _, a := range d.attrs {
		t := a.Type
		for t.Kind() == KindArray {
			elem, ok := t.Elem()
			if !ok {
				break
			}
			t = elem
		}
		if t.Kind() != KindRef {
			continue
		}
		if _, err := d.Resolve(t.RefName()); err != nil {
			errs = append(errs, d.attrError(&a, err))
		}
	}
	return errors.Join(errs...)
}
