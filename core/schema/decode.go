package schema

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/artpar/structure/core/convention"
)

// TagName is the struct tag read by Decode.
const TagName = "structure"

// Decode copies the record's values into the struct pointed to by target.
//
// A field receives the attribute named by its `structure:"name"` tag, or
// by the snake_case form of the field name when untagged. Fields tagged
// "-" and attributes without a matching field are skipped. Nested records
// decode into struct or *struct fields, or into map[string]any through
// ToPlain. Numeric values convert to any numeric field type.
func (r *Record) Decode(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: decode target must be a non-nil struct pointer, got %T", ErrType, target)
	}
	return r.decodeStruct(rv.Elem())
}

func (r *Record) decodeStruct(sv reflect.Value) error {
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}

		name := fieldAttribute(f)
		if name == "" {
			continue
		}
		v, ok := r.Lookup(name)
		if !ok {
			continue
		}

		if err := assign(sv.Field(i), v); err != nil {
			return &AttributeError{Schema: r.def.name, Attribute: name, Err: err}
		}
	}
	return nil
}

func fieldAttribute(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup(TagName)
	if !ok {
		return convention.SnakeCase(f.Name)
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return convention.SnakeCase(f.Name)
	}
	return name
}

func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	if rec, ok := v.(*Record); ok {
		switch {
		case dst.Kind() == reflect.Struct:
			return rec.decodeStruct(dst)
		case dst.Kind() == reflect.Pointer && dst.Type().Elem().Kind() == reflect.Struct:
			p := reflect.New(dst.Type().Elem())
			if err := rec.decodeStruct(p.Elem()); err != nil {
				return err
			}
			dst.Set(p)
			return nil
		}
		v = ToPlain(rec)
	}

	src := reflect.ValueOf(v)
	dt := dst.Type()

	if src.Type().AssignableTo(dt) {
		dst.Set(src)
		return nil
	}

	if items, ok := v.([]any); ok && dt.Kind() == reflect.Slice {
		out := reflect.MakeSlice(dt, len(items), len(items))
		for i, item := range items {
			if err := assign(out.Index(i), item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	}

	if dt.Kind() == reflect.Pointer {
		p := reflect.New(dt.Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}

	if isNumeric(src.Kind()) && isNumeric(dt.Kind()) {
		dst.Set(src.Convert(dt))
		return nil
	}

	if dt.Kind() == reflect.Interface && src.Type().Implements(dt) {
		dst.Set(src)
		return nil
	}

	return fmt.Errorf("%w: cannot decode %T into %s", ErrType, v, dt)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
