package schema

import (
	"fmt"
	"reflect"
	"time"
)

// Parse converts data into a record.
//
// data is a map with string keys, usually decoded JSON or YAML. A record
// of this definition is returned unchanged; with overrides, only the
// overridden attributes are coerced again and the rest are copied. overrides
// are keyed by attribute name and take precedence over data.
//
// For every attribute, in declaration order, the value is looked up in
// the overrides, then under the source key, then under the alternate form
// of the source key (created_at / createdAt), then the default. A missing
// value is an error unless the attribute is optional. Non-nil values are
// coerced; a nil value of a non-nullable attribute is an error.
//
// After construction the rules are checked and the after-parse hook runs.
// An error from the hook is returned as-is.
func (d *Definition) Parse(data any, overrides ...map[string]any) (*Record, error) {
	start := time.Now()
	rec, err := d.parse(data, mergeOverrides(overrides))
	if d.observer != nil {
		d.observer.ParseCompleted(d.name, time.Since(start), err)
	}
	return rec, err
}

func (d *Definition) parse(data any, overrides map[string]any) (*Record, error) {
	var base *Record
	if rec, ok := data.(*Record); ok && rec != nil {
		if rec.def == d {
			if len(overrides) == 0 {
				return rec, nil
			}
			base = rec
		} else {
			// Record fields are keyed by attribute name, not source key.
			fields := rec.Fields()
			for k, v := range overrides {
				fields[k] = v
			}
			overrides = fields
		}
		data = map[string]any{}
	}

	input, err := asInput(data)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot convert %T into %s", ErrType, data, d.label())
	}

	values := make([]any, len(d.attrs))
	for i := range d.attrs {
		a := &d.attrs[i]

		// Values of the base record are already coerced and checked.
		if base != nil {
			if _, ok := overrides[a.Name]; !ok {
				values[i] = base.values[i]
				continue
			}
		}

		v, found := d.lookup(a, input, overrides)
		if !found && !a.Optional {
			return nil, d.attrError(a, ErrMissingAttribute)
		}

		v, err := d.resolve(i, v)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	rec := &Record{def: d, values: values}

	for _, r := range d.rules {
		if err := r.check(d, rec); err != nil {
			return nil, err
		}
	}

	if d.afterParse != nil {
		if err := d.afterParse(rec); err != nil {
			return nil, err
		}
	}

	return rec, nil
}

// resolve coerces, null-checks and constrains the looked-up value of
// attribute i.
func (d *Definition) resolve(i int, v any) (any, error) {
	a := &d.attrs[i]

	if v != nil && d.coercers[i] != nil {
		c, err := d.coercers[i](v)
		if err != nil {
			return nil, d.attrError(a, err)
		}
		v = c
	}

	if isNil(v) {
		if !a.Nullable {
			return nil, d.attrError(a, ErrNullAttribute)
		}
		return nil, nil
	}

	for _, chk := range d.checks[i] {
		if err := chk(v); err != nil {
			return nil, d.attrError(a, err)
		}
	}
	return v, nil
}

func (d *Definition) lookup(a *Attribute, input, overrides map[string]any) (any, bool) {
	if v, ok := overrides[a.Name]; ok {
		return v, true
	}
	if v, ok := input[a.SourceKey]; ok {
		return v, true
	}
	if a.altKey != "" {
		if v, ok := input[a.altKey]; ok {
			return v, true
		}
	}
	if a.Default != nil {
		return cloneValue(a.Default), true
	}
	return nil, false
}

func (d *Definition) attrError(a *Attribute, err error) error {
	return &AttributeError{Schema: d.name, Attribute: a.Name, Err: err}
}

func mergeOverrides(overrides []map[string]any) map[string]any {
	switch len(overrides) {
	case 0:
		return nil
	case 1:
		return overrides[0]
	}
	merged := make(map[string]any)
	for _, o := range overrides {
		for k, v := range o {
			merged[k] = v
		}
	}
	return merged
}

// asInput normalizes supported map shapes to map[string]any.
func asInput(data any) (map[string]any, error) {
	switch m := data.(type) {
	case map[string]any:
		return m, nil
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			s, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v", k)
			}
			out[s] = v
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("nil input")
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("unsupported input %T", data)
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}

// isNil reports nil interfaces and nil pointers.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// cloneValue copies maps and slices so records never share default values.
func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	default:
		return v
	}
}
