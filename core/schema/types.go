package schema

import (
	"fmt"
	"strings"
)

// Kind identifies how a raw value is interpreted.
type Kind string

const (
	// Primitive kinds
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"

	// Parseable kinds (string representations parsed into Go values)
	KindTimestamp Kind = "timestamp"
	KindDuration  Kind = "duration"
	KindUUID      Kind = "uuid"
	KindURL       Kind = "url"

	// Structural kinds
	KindAny    Kind = "any"
	KindSelf   Kind = "self"
	KindArray  Kind = "array"
	KindRef    Kind = "ref"
	KindNested Kind = "nested"
)

// Type describes how the raw value of one attribute is coerced.
// The zero Type means "no type": values pass through unchanged.
type Type struct {
	kind   Kind
	elem   *Type
	ref    string
	nested *Definition
	err    error
}

// Predeclared types.
var (
	String    = Type{kind: KindString}
	Int       = Type{kind: KindInt}
	Float     = Type{kind: KindFloat}
	Bool      = Type{kind: KindBool}
	Timestamp = Type{kind: KindTimestamp}
	Duration  = Type{kind: KindDuration}
	UUID      = Type{kind: KindUUID}
	URL       = Type{kind: KindURL}
	Any       = Type{kind: KindAny}
	Self      = Type{kind: KindSelf}
)

// ArrayOf returns an array type whose members are coerced with elem.
// Exactly one element type must be given; any other count yields an
// invalid type that fails the build.
func ArrayOf(elem ...Type) Type {
	if len(elem) != 1 {
		return invalidType(fmt.Errorf("array type needs exactly one element type, got %d", len(elem)))
	}
	if elem[0].err != nil {
		return elem[0]
	}
	e := elem[0]
	return Type{kind: KindArray, elem: &e}
}

// Ref returns a named reference to another definition.
// The name is resolved lazily, relative to the declaring definition's
// namespace, the first time a value is coerced.
func Ref(name string) Type {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalidType(fmt.Errorf("reference needs a schema name"))
	}
	return Type{kind: KindRef, ref: name}
}

// Nested returns a type that parses values with def.
func Nested(def *Definition) Type {
	if def == nil {
		return invalidType(fmt.Errorf("nested type needs a definition"))
	}
	return Type{kind: KindNested, nested: def}
}

func invalidType(err error) Type {
	return Type{err: fmt.Errorf("%w: %v", ErrInvalidType, err)}
}

// Kind returns the type's kind, or "" for the zero Type.
func (t Type) Kind() Kind {
	return t.kind
}

// Elem returns the element type of an array type.
func (t Type) Elem() (Type, bool) {
	if t.elem == nil {
		return Type{}, false
	}
	return *t.elem, true
}

// RefName returns the referenced schema name of a ref type.
func (t Type) RefName() string {
	return t.ref
}

// Definition returns the target of a nested type.
func (t Type) Definition() *Definition {
	return t.nested
}

// IsZero reports whether no type was given.
func (t Type) IsZero() bool {
	return t.kind == "" && t.err == nil
}

// Err returns the error of an invalid type specifier.
func (t Type) Err() error {
	return t.err
}

// String renders the type descriptor, e.g. "[int]" or "ref(Customer)".
func (t Type) String() string {
	switch {
	case t.err != nil:
		return "invalid"
	case t.kind == "":
		return "any"
	case t.kind == KindArray:
		return "[" + t.elem.String() + "]"
	case t.kind == KindRef:
		return "ref(" + t.ref + ")"
	case t.kind == KindNested:
		name := t.nested.Name()
		if name == "" {
			name = "anonymous"
		}
		return "nested(" + name + ")"
	default:
		return string(t.kind)
	}
}

func (t Type) isBool() bool {
	return t.kind == KindBool
}

// ParseType parses the textual type form used in schema documents.
//
//	string, int, float, bool, boolean, timestamp, duration, uuid, url, any
//	self          the enclosing definition
//	ref           a named reference; the name comes from to
//	[T]           an array of T
//
// Map shapes, empty or multi-element arrays and unknown names are
// reported as ErrInvalidType.
func ParseType(s string, to string) (Type, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return Type{}, fmt.Errorf("%w: unterminated array type %q", ErrInvalidType, s)
		}
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if inner == "" {
			return Type{}, fmt.Errorf("%w: array type %q has no element type", ErrInvalidType, s)
		}
		if strings.Contains(inner, ",") {
			return Type{}, fmt.Errorf("%w: array type %q has more than one element type", ErrInvalidType, s)
		}
		elem, err := ParseType(inner, to)
		if err != nil {
			return Type{}, err
		}
		return ArrayOf(elem), nil
	}

	switch Kind(strings.ToLower(s)) {
	case KindString:
		return String, nil
	case KindInt, "integer":
		return Int, nil
	case KindFloat, "number":
		return Float, nil
	case KindBool, "boolean":
		return Bool, nil
	case KindTimestamp, "time":
		return Timestamp, nil
	case KindDuration:
		return Duration, nil
	case KindUUID:
		return UUID, nil
	case KindURL:
		return URL, nil
	case KindAny, "":
		return Any, nil
	case KindSelf:
		return Self, nil
	case KindRef:
		if strings.TrimSpace(to) == "" {
			return Type{}, fmt.Errorf("%w: ref type requires 'to' target", ErrInvalidType)
		}
		return Ref(to), nil
	}

	if strings.HasPrefix(s, "{") {
		return Type{}, fmt.Errorf("%w: cannot specify %s as type", ErrInvalidType, s)
	}
	return Type{}, fmt.Errorf("%w: unknown type %q", ErrInvalidType, s)
}
