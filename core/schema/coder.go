package schema

import (
	"sort"
	"strings"
)

// Plainer is implemented by values that know their plain form.
// ToPlain uses it for custom values held by records.
type Plainer interface {
	Plain() any
}

// New constructs a record directly from attribute values, without lookup,
// coercion, defaults, rules or the after-parse hook. Keys are attribute
// names. Required attributes must be present; optional ones default to nil.
func (d *Definition) New(fields map[string]any) (*Record, error) {
	var unknown []string
	for k := range fields {
		if _, ok := d.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &AttributeError{
			Schema:    d.name,
			Attribute: unknown[0],
			Err:       errorf(ErrUnknownAttribute, "unknown keywords: %s", strings.Join(unknown, ", ")),
		}
	}

	values := make([]any, len(d.attrs))
	for i := range d.attrs {
		a := &d.attrs[i]
		v, ok := fields[a.Name]
		if !ok && !a.Optional {
			return nil, d.attrError(a, ErrMissingAttribute)
		}
		values[i] = v
	}
	return &Record{def: d, values: values}, nil
}

// Load parses data, returning nil for nil data.
func (d *Definition) Load(data map[string]any) (*Record, error) {
	if data == nil {
		return nil, nil
	}
	return d.Parse(data)
}

// Dump returns the plain map of a record, or nil for a nil record.
// It is the inverse of Load for maps keyed by attribute name.
func (d *Definition) Dump(rec *Record) map[string]any {
	if rec == nil {
		return nil
	}
	m, _ := ToPlain(rec).(map[string]any)
	return m
}

// ToPlain recursively unwraps records into maps keyed by attribute name
// and slices into []any. Values implementing Plainer are replaced by their
// plain form. Everything else is returned unchanged.
func ToPlain(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *Record:
		if x == nil {
			return nil
		}
		out := make(map[string]any, len(x.values))
		for i, a := range x.def.attrs {
			out[a.Name] = ToPlain(x.values[i])
		}
		return out
	case Plainer:
		return x.Plain()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToPlain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = ToPlain(e)
		}
		return out
	case []*Record:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToPlain(e)
		}
		return out
	}
	return v
}

// Plain returns the record's plain map. It is ToPlain for one record.
func (r *Record) Plain() any {
	return ToPlain(r)
}
