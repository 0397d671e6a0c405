package schema

import (
	"github.com/artpar/structure/core/convention"
)

// TransformFunc converts a raw value without any implicit context.
type TransformFunc func(value any) (any, error)

// ContextTransformFunc converts a raw value with access to the definition
// being parsed, so it can call Parse recursively.
type ContextTransformFunc func(value any, def *Definition) (any, error)

// Attribute is one declared field of a definition.
// Attributes are created by a Builder and never change afterwards.
type Attribute struct {
	// Name is unique within a definition.
	Name string

	// SourceKey is the input key the value is read from.
	// Defaults to the name.
	SourceKey string

	// Type describes the coercion. The zero Type passes values through.
	Type Type

	// Default is used when the input has no value. nil means no default.
	Default any

	// Optional attributes may be absent from the input.
	Optional bool

	// Nullable attributes may resolve to nil. Defaults to true.
	Nullable bool

	// Constraints are checked on non-nil coerced values.
	Constraints []Constraint

	// Description is carried into signature metadata.
	Description string

	transform  TransformFunc
	contextual ContextTransformFunc
	altKey     string
}

// Required reports whether the attribute must be present in the input.
func (a Attribute) Required() bool {
	return !a.Optional
}

// HasDefault reports whether a default value is declared.
func (a Attribute) HasDefault() bool {
	return a.Default != nil
}

// HasTransform reports whether a transform function replaces type coercion.
func (a Attribute) HasTransform() bool {
	return a.transform != nil || a.contextual != nil
}

// TypeString renders the attribute's type for metadata.
func (a Attribute) TypeString() string {
	switch {
	case a.contextual != nil:
		return "transform(context)"
	case a.transform != nil:
		return "transform"
	default:
		return a.Type.String()
	}
}

// Option configures an attribute declaration.
// Type values are options too, so a declaration reads
//
//	b.Attribute("age", schema.Int, schema.Default(0))
type Option interface {
	applyAttribute(*attrConfig)
}

type attrConfig struct {
	types       []Type
	transforms  int
	transform   TransformFunc
	contextual  ContextTransformFunc
	from        string
	def         any
	optional    bool
	nullable    bool
	description string
	constraints []Constraint
}

type optionFunc func(*attrConfig)

func (f optionFunc) applyAttribute(c *attrConfig) { f(c) }

func (t Type) applyAttribute(c *attrConfig) {
	c.types = append(c.types, t)
}

// From reads the attribute from a different input key.
func From(key string) Option {
	return optionFunc(func(c *attrConfig) { c.from = key })
}

// Default sets the value used when the input has no value for the attribute.
// A nil default is the same as no default.
func Default(value any) Option {
	return optionFunc(func(c *attrConfig) { c.def = value })
}

// NotNull rejects nil values, whether absent, explicit or produced by coercion.
func NotNull() Option {
	return Nullable(false)
}

// Nullable sets whether the attribute may resolve to nil.
func Nullable(ok bool) Option {
	return optionFunc(func(c *attrConfig) { c.nullable = ok })
}

// Optional allows the attribute to be absent from the input.
func Optional() Option {
	return optionFunc(func(c *attrConfig) { c.optional = true })
}

// Describe attaches a description to the attribute.
func Describe(text string) Option {
	return optionFunc(func(c *attrConfig) { c.description = text })
}

// Transform converts values with fn instead of a type.
// fn is called as-is; whatever it captured stays captured.
func Transform(fn TransformFunc) Option {
	return optionFunc(func(c *attrConfig) {
		c.transforms++
		c.transform = fn
	})
}

// TransformWithContext converts values with fn, passing the definition
// being parsed so that fn may parse nested values with it.
func TransformWithContext(fn ContextTransformFunc) Option {
	return optionFunc(func(c *attrConfig) {
		c.transforms++
		c.contextual = fn
	})
}

func newAttribute(name string, opts []Option) (Attribute, []error) {
	cfg := attrConfig{nullable: true}
	for _, opt := range opts {
		if opt != nil {
			opt.applyAttribute(&cfg)
		}
	}

	var errs []error
	if !convention.IsValidIdentifier(name) {
		errs = append(errs, ErrInvalidName)
	}

	switch {
	case len(cfg.types) > 0 && cfg.transforms > 0:
		errs = append(errs, errorf(ErrAmbiguousAttribute, "cannot specify both type and transform"))
	case len(cfg.types) > 1:
		errs = append(errs, errorf(ErrAmbiguousAttribute, "type specified %d times", len(cfg.types)))
	case cfg.transforms > 1:
		errs = append(errs, errorf(ErrAmbiguousAttribute, "transform specified %d times", cfg.transforms))
	}

	attr := Attribute{
		Name:        name,
		SourceKey:   cfg.from,
		Default:     cfg.def,
		Optional:    cfg.optional,
		Nullable:    cfg.nullable,
		Description: cfg.description,
		Constraints: cfg.constraints,
		transform:   cfg.transform,
		contextual:  cfg.contextual,
	}

	if len(cfg.types) == 1 {
		attr.Type = cfg.types[0]
		if err := attr.Type.Err(); err != nil {
			errs = append(errs, err)
		}
	}

	if attr.SourceKey == "" {
		attr.SourceKey = convention.ExternalKey(name)
	}
	attr.altKey = convention.AlternateKey(attr.SourceKey)

	return attr, errs
}
