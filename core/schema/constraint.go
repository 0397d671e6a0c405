package schema

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// ErrConstraint is returned when a coerced value violates a constraint.
var ErrConstraint = errors.New("constraint violated")

// ErrInvalidConstraint is returned at build time for malformed constraints.
var ErrInvalidConstraint = errors.New("invalid constraint")

// Constraint defines a validation rule for an attribute's coerced value.
// Constraints are checked after coercion on non-nil values only.
type Constraint struct {
	// Type is the constraint type (min, max, min_length, max_length, pattern, etc.)
	Type ConstraintType `yaml:"type" json:"type"`

	// Value is the constraint parameter (number, regex pattern, etc.)
	Value any `yaml:"value" json:"value,omitempty"`

	// Message is the custom error message (optional).
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// ConstraintType identifies the type of constraint.
type ConstraintType string

const (
	// Numeric constraints
	ConstraintMin ConstraintType = "min" // Minimum numeric value
	ConstraintMax ConstraintType = "max" // Maximum numeric value

	// Length constraints (strings count bytes, arrays count members)
	ConstraintMinLength ConstraintType = "min_length"
	ConstraintMaxLength ConstraintType = "max_length"

	// String constraints
	ConstraintPattern  ConstraintType = "pattern"   // Regex pattern match
	ConstraintNotEmpty ConstraintType = "not_empty" // String must not be empty/whitespace

	// Value must be one of a list
	ConstraintOneOf ConstraintType = "one_of"
)

// Constrain attaches constraints to an attribute.
//
//	b.Attribute("age", schema.Int, schema.Constrain(schema.Min(0), schema.Max(150)))
func Constrain(cs ...Constraint) Option {
	return optionFunc(func(c *attrConfig) { c.constraints = append(c.constraints, cs...) })
}

// Min requires a numeric value of at least n.
func Min(n float64) Constraint { return Constraint{Type: ConstraintMin, Value: n} }

// Max requires a numeric value of at most n.
func Max(n float64) Constraint { return Constraint{Type: ConstraintMax, Value: n} }

// MinLength requires a string or array of at least n.
func MinLength(n int) Constraint { return Constraint{Type: ConstraintMinLength, Value: n} }

// MaxLength requires a string or array of at most n.
func MaxLength(n int) Constraint { return Constraint{Type: ConstraintMaxLength, Value: n} }

// Pattern requires a string matching the regular expression.
func Pattern(re string) Constraint { return Constraint{Type: ConstraintPattern, Value: re} }

// NotEmpty requires a string with non-space content.
func NotEmpty() Constraint { return Constraint{Type: ConstraintNotEmpty} }

// OneOf requires a value equal (by string form) to one of values.
func OneOf(values ...any) Constraint { return Constraint{Type: ConstraintOneOf, Value: values} }

// WithMessage returns c reporting message on violation.
func (c Constraint) WithMessage(message string) Constraint {
	c.Message = message
	return c
}

// check is a compiled constraint.
type check func(value any) error

// compileConstraint validates the constraint's parameters once.
func compileConstraint(c Constraint) (check, error) {
	switch c.Type {
	case ConstraintMin, ConstraintMax:
		bound, err := toFloat64(c.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s needs a number: %v", ErrInvalidConstraint, c.Type, err)
		}
		return func(v any) error { return checkBound(c, bound, v) }, nil

	case ConstraintMinLength, ConstraintMaxLength:
		n, err := toInt(c.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s needs an integer: %v", ErrInvalidConstraint, c.Type, err)
		}
		return func(v any) error { return checkLength(c, n, v) }, nil

	case ConstraintPattern:
		pattern, ok := c.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: pattern needs a string", ErrInvalidConstraint)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %v", ErrInvalidConstraint, pattern, err)
		}
		return func(v any) error {
			str, ok := v.(string)
			if !ok || re.MatchString(str) {
				return nil
			}
			return violation(c, "does not match required pattern")
		}, nil

	case ConstraintNotEmpty:
		return func(v any) error {
			str, ok := v.(string)
			if !ok || strings.TrimSpace(str) != "" {
				return nil
			}
			return violation(c, "must not be empty")
		}, nil

	case ConstraintOneOf:
		allowed, err := toList(c.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: one_of needs a list: %v", ErrInvalidConstraint, err)
		}
		options := make([]string, len(allowed))
		for i, a := range allowed {
			options[i] = fmt.Sprintf("%v", a)
		}
		return func(v any) error {
			s := fmt.Sprintf("%v", v)
			for _, o := range options {
				if o == s {
					return nil
				}
			}
			return violation(c, "must be one of: "+strings.Join(options, ", "))
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown constraint type %q", ErrInvalidConstraint, c.Type)
	}
}

func checkBound(c Constraint, bound float64, value any) error {
	val, err := toFloat64(value)
	if err != nil {
		return nil // non-numeric values are not range-checked
	}
	if c.Type == ConstraintMin && val < bound {
		return violation(c, fmt.Sprintf("must be at least %v", bound))
	}
	if c.Type == ConstraintMax && val > bound {
		return violation(c, fmt.Sprintf("must be at most %v", bound))
	}
	return nil
}

func checkLength(c Constraint, n int, value any) error {
	var length int
	switch v := value.(type) {
	case string:
		length = len(v)
	case []any:
		length = len(v)
	default:
		return nil
	}
	if c.Type == ConstraintMinLength && length < n {
		return violation(c, fmt.Sprintf("must have length at least %d", n))
	}
	if c.Type == ConstraintMaxLength && length > n {
		return violation(c, fmt.Sprintf("must have length at most %d", n))
	}
	return nil
}

func violation(c Constraint, fallback string) error {
	msg := c.Message
	if msg == "" {
		msg = fallback
	}
	return fmt.Errorf("%w: %s: %s", ErrConstraint, c.Type, msg)
}

// toFloat64 converts various numeric types to float64.
func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", v)
	}
}

// toInt converts various types to int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("cannot convert %T to int", v)
	}
}

func toList(v any) ([]any, error) {
	if list, ok := v.([]any); ok {
		return list, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("got %T", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
