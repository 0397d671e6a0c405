package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Build-time errors.
var (
	ErrAmbiguousAttribute = errors.New("ambiguous attribute definition")
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrInvalidType        = errors.New("invalid type specifier")
	ErrInvalidRule        = errors.New("invalid rule")
	ErrInvalidName        = errors.New("invalid name")
)

// Parse-time errors.
var (
	ErrMissingAttribute    = errors.New("missing required attribute")
	ErrNullAttribute       = errors.New("cannot be null")
	ErrCoercion            = errors.New("coercion failed")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrType                = errors.New("type error")
	ErrUnknownAttribute    = errors.New("unknown attribute")
	ErrRuleViolation       = errors.New("rule violated")
)

// AttributeError reports a failure tied to one attribute of a definition.
// It unwraps to one of the sentinel errors above.
type AttributeError struct {
	Schema    string // qualified definition name, "" for anonymous definitions
	Attribute string
	Err       error
}

func (e *AttributeError) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("attribute %q: %v", e.Attribute, e.Err)
	}
	return fmt.Sprintf("%s: attribute %q: %v", e.Schema, e.Attribute, e.Err)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}

// ReferenceError reports a named reference that matched no definition.
type ReferenceError struct {
	Name       string
	Candidates []string
	Err        error // resolver failure, if any
}

func (e *ReferenceError) Error() string {
	msg := fmt.Sprintf("unable to resolve %q", e.Name)
	if len(e.Candidates) > 1 {
		msg += fmt.Sprintf(" (tried %s)", strings.Join(e.Candidates, ", "))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ReferenceError) Is(target error) bool {
	return target == ErrUnresolvedReference
}

func (e *ReferenceError) Unwrap() error {
	return e.Err
}

// RuleError reports a cross-attribute rule that evaluated to false.
type RuleError struct {
	Schema  string
	Expr    string
	Message string
}

func (e *RuleError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("rule %q not satisfied", e.Expr)
	}
	if e.Schema == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Schema, msg)
}

func (e *RuleError) Is(target error) bool {
	return target == ErrRuleViolation
}

// ErrorKind classifies err by its taxonomy sentinel.
// Returns "other" for errors outside the taxonomy, such as after-parse hook errors.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAttribute):
		return "missing"
	case errors.Is(err, ErrNullAttribute):
		return "null"
	case errors.Is(err, ErrUnresolvedReference):
		return "unresolved"
	case errors.Is(err, ErrType):
		return "type"
	case errors.Is(err, ErrCoercion):
		return "coercion"
	case errors.Is(err, ErrUnknownAttribute):
		return "unknown"
	case errors.Is(err, ErrRuleViolation):
		return "rule"
	case errors.Is(err, ErrConstraint):
		return "constraint"
	default:
		return "other"
	}
}

func errorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
