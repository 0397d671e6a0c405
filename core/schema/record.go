package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Record is an immutable value produced by a Definition.
// It holds one value per attribute, in declaration order. Values are
// shared, not copied, so callers must not modify slices or maps they
// read from a record.
type Record struct {
	def    *Definition
	values []any
}

// Definition returns the definition that produced the record.
func (r *Record) Definition() *Definition {
	return r.def
}

// Get returns the value of the named attribute.
func (r *Record) Get(name string) any {
	i, ok := r.def.index[name]
	if !ok {
		return nil
	}
	return r.values[i]
}

// Lookup returns the value of the named attribute and whether the
// attribute exists.
func (r *Record) Lookup(name string) (any, bool) {
	i, ok := r.def.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Has reports whether the definition declares the named attribute.
func (r *Record) Has(name string) bool {
	_, ok := r.def.index[name]
	return ok
}

// Names returns attribute names in declaration order.
func (r *Record) Names() []string {
	return r.def.AttributeNames()
}

// Values returns attribute values in declaration order.
func (r *Record) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Fields returns the attribute values keyed by attribute name.
// Nested records are kept as records; see ToPlain for a fully plain map.
func (r *Record) Fields() map[string]any {
	out := make(map[string]any, len(r.values))
	for i, a := range r.def.attrs {
		out[a.Name] = r.values[i]
	}
	return out
}

// GetString returns the named attribute as a string, or "" if it is not one.
func (r *Record) GetString(name string) string {
	s, _ := r.Get(name).(string)
	return s
}

// GetInt returns the named attribute as an int64, or 0 if it is not one.
func (r *Record) GetInt(name string) int64 {
	n, _ := r.Get(name).(int64)
	return n
}

// GetFloat returns the named attribute as a float64, or 0 if it is not one.
func (r *Record) GetFloat(name string) float64 {
	f, _ := r.Get(name).(float64)
	return f
}

// GetBool returns the named attribute as a bool, or false if it is not one.
func (r *Record) GetBool(name string) bool {
	b, _ := r.Get(name).(bool)
	return b
}

// GetRecord returns the named attribute as a nested record, or nil.
func (r *Record) GetRecord(name string) *Record {
	rec, _ := r.Get(name).(*Record)
	return rec
}

// GetRecords returns the records held by an array attribute.
// Members that are not records are skipped.
func (r *Record) GetRecords(name string) []*Record {
	items, _ := r.Get(name).([]any)
	out := make([]*Record, 0, len(items))
	for _, item := range items {
		if rec, ok := item.(*Record); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Is evaluates a derived predicate such as "active?". A plain boolean
// attribute name is accepted too. Unknown predicates are false.
func (r *Record) Is(predicate string) bool {
	if name, ok := r.def.predicates[predicate]; ok {
		return r.GetBool(name)
	}
	if a, ok := r.def.Attribute(predicate); ok && a.Type.isBool() {
		return r.GetBool(predicate)
	}
	return false
}

// Equal reports whether other has the same definition and equal values.
// Nested records are compared field by field.
func (r *Record) Equal(other *Record) bool {
	if r == other {
		return true
	}
	if r == nil || other == nil || r.def != other.def {
		return false
	}
	for i := range r.values {
		if !valuesEqual(r.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case *Record:
		y, ok := b.(*Record)
		return ok && x.Equal(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !valuesEqual(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, v := range x {
			w, ok := y[k]
			if !ok || !valuesEqual(v, w) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// GoString renders the record for %#v and debugging, in declaration order.
func (r *Record) GoString() string {
	var sb strings.Builder
	sb.WriteString(r.def.label())
	sb.WriteByte('{')
	for i, a := range r.def.attrs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.Name)
		sb.WriteString(": ")
		switch v := r.values[i].(type) {
		case string:
			fmt.Fprintf(&sb, "%q", v)
		case *Record:
			sb.WriteString(v.GoString())
		default:
			fmt.Fprintf(&sb, "%v", v)
		}
	}
	sb.WriteByte('}')
	return sb.String()
}

// Format implements fmt.Formatter so %v and %s print GoString.
func (r *Record) Format(f fmt.State, verb rune) {
	if r == nil {
		fmt.Fprint(f, "<nil>")
		return
	}
	fmt.Fprint(f, r.GoString())
}

// MarshalJSON encodes the record as a JSON object with keys in
// declaration order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range r.def.attrs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
