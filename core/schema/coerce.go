package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// coercer converts a non-nil raw value. A nil coercer passes values through.
type coercer func(value any) (any, error)

// compile turns an attribute's type or transform into its coercer.
func (d *Definition) compile(a Attribute) coercer {
	switch {
	case a.contextual != nil:
		fn := a.contextual
		return func(v any) (any, error) { return fn(v, d) }
	case a.transform != nil:
		return coercer(a.transform)
	default:
		return d.compileType(a.Type)
	}
}

func (d *Definition) compileType(t Type) coercer {
	switch t.kind {
	case "", KindAny:
		return nil
	case KindString:
		return coerceString
	case KindInt:
		return coerceInt
	case KindFloat:
		return coerceFloat
	case KindBool:
		return coerceBool
	case KindTimestamp:
		return coerceTimestamp
	case KindDuration:
		return coerceDuration
	case KindUUID:
		return coerceUUID
	case KindURL:
		return coerceURL
	case KindSelf:
		return func(v any) (any, error) { return d.Parse(v) }
	case KindNested:
		target := t.nested
		return func(v any) (any, error) { return target.Parse(v) }
	case KindRef:
		site := &refSite{name: t.ref, owner: d}
		return func(v any) (any, error) {
			target, err := site.target()
			if err != nil {
				return nil, err
			}
			return target.Parse(v)
		}
	case KindArray:
		elem := d.compileType(*t.elem)
		return func(v any) (any, error) { return coerceArray(v, elem) }
	default:
		// unreachable: Type values are only built by this package
		return nil
	}
}

// truthy is the allow-list of values that coerce to true.
// Every other value, including "false", 0 and "", coerces to false.
var truthy = map[string]struct{}{
	"1": {}, "t": {}, "T": {}, "true": {}, "TRUE": {}, "on": {}, "ON": {},
}

// CoerceBool applies the boolean allow-list to v:
// true, 1, "1", "t", "T", "true", "TRUE", "on" and "ON" are true.
func CoerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		_, ok := truthy[x]
		return ok
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 1
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 1
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 1
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 1
	}
	return false
}

func coerceBool(v any) (any, error) {
	return CoerceBool(v), nil
}

func coerceString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case json.Number:
		return x.String(), nil
	case fmt.Stringer:
		return x.String(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	}
	return fmt.Sprint(v), nil
}

func coerceInt(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, coercionFailure(v, "integer", err)
		}
		return n, nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, coercionFailure(v, "integer", err)
		}
		return floatToInt(f, v)
	case bool:
		return nil, coercionFailure(v, "integer", nil)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, coercionFailure(v, "integer", strconv.ErrRange)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return floatToInt(rv.Float(), v)
	}
	return nil, coercionFailure(v, "integer", nil)
}

func floatToInt(f float64, orig any) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, coercionFailure(orig, "integer", strconv.ErrRange)
	}
	return int64(f), nil
}

func coerceFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, coercionFailure(v, "float", err)
		}
		return f, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, coercionFailure(v, "float", err)
		}
		return f, nil
	case bool:
		return nil, coercionFailure(v, "float", nil)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32:
		return rv.Float(), nil
	}
	return nil, coercionFailure(v, "float", nil)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func coerceTimestamp(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return nil, coercionFailure(v, "timestamp", nil)
	}
	return nil, coercionFailure(v, "timestamp", nil)
}

func coerceDuration(v any) (any, error) {
	switch x := v.(type) {
	case time.Duration:
		return x, nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(x))
		if err != nil {
			return nil, coercionFailure(v, "duration", err)
		}
		return d, nil
	}
	return nil, coercionFailure(v, "duration", nil)
}

func coerceUUID(v any) (any, error) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, nil
	case string:
		id, err := uuid.Parse(strings.TrimSpace(x))
		if err != nil {
			return nil, coercionFailure(v, "uuid", err)
		}
		return id, nil
	case []byte:
		id, err := uuid.FromBytes(x)
		if err != nil {
			return nil, coercionFailure(v, "uuid", err)
		}
		return id, nil
	}
	return nil, coercionFailure(v, "uuid", nil)
}

func coerceURL(v any) (any, error) {
	switch x := v.(type) {
	case *url.URL:
		return x, nil
	case url.URL:
		return &x, nil
	case string:
		u, err := url.Parse(strings.TrimSpace(x))
		if err != nil {
			return nil, coercionFailure(v, "url", err)
		}
		return u, nil
	}
	return nil, coercionFailure(v, "url", nil)
}

// coerceArray applies elem to every member of an array-like value,
// preserving order. nil members stay nil.
func coerceArray(v any, elem coercer) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: cannot convert %T into array", ErrType, v)
	}

	out := make([]any, rv.Len())
	for i := range out {
		item := rv.Index(i).Interface()
		if item == nil || elem == nil {
			out[i] = item
			continue
		}
		c, err := elem(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

func coercionFailure(v any, target string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: cannot convert %T %v into %s: %w", ErrCoercion, v, v, target, cause)
	}
	return fmt.Errorf("%w: cannot convert %T %v into %s", ErrCoercion, v, v, target)
}
