package schema

import (
	"errors"

	"github.com/artpar/structure/core/convention"
)

// Builder accumulates attribute declarations for one definition.
// It is used only inside the function passed to Define; the resulting
// Definition keeps no reference to it.
type Builder struct {
	attrs      []Attribute
	index      map[string]int
	afterParse func(*Record) error
	rules      []ruleSpec
	errs       []error
}

type ruleSpec struct {
	expr    string
	message string
}

func newBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Attribute declares a required attribute.
//
//	b.Attribute("id", schema.String, schema.NotNull())
//	b.Attribute("created_at", schema.Timestamp, schema.From("CreatedAt"))
//	b.Attribute("price", schema.Transform(parseMoney))
func (b *Builder) Attribute(name string, opts ...Option) {
	b.add(name, opts)
}

// OptionalAttribute declares an attribute that may be absent from the input.
// Optional only waives the missing-value check: combined with NotNull, an
// absent value resolves to nil and is still rejected as null.
func (b *Builder) OptionalAttribute(name string, opts ...Option) {
	b.add(name, append(opts, Optional()))
}

// AfterParse sets a hook run on every record produced by Parse.
// Only one hook is kept: a later call replaces an earlier one.
// An error returned by the hook is returned unchanged from Parse.
func (b *Builder) AfterParse(fn func(*Record) error) {
	b.afterParse = fn
}

// Rule adds a cross-attribute check evaluated after construction.
// expr is an expr-lang boolean expression over the record's attributes;
// message is reported when it evaluates to false.
//
//	b.Rule("end >= start", "end must not precede start")
func (b *Builder) Rule(expr, message string) {
	b.rules = append(b.rules, ruleSpec{expr: expr, message: message})
}

// Include copies every attribute of def, in order, into this builder.
// Attributes declared later with the same name are duplicates.
// Self types in included attributes refer to the including definition.
func (b *Builder) Include(def *Definition) {
	if def == nil {
		return
	}
	for _, a := range def.attrs {
		b.append(a)
	}
	for _, r := range def.rules {
		b.rules = append(b.rules, ruleSpec{expr: r.expr, message: r.message})
	}
}

func (b *Builder) add(name string, opts []Option) {
	attr, errs := newAttribute(name, opts)
	for _, err := range errs {
		b.errs = append(b.errs, &AttributeError{Attribute: name, Err: err})
	}
	b.append(attr)
}

func (b *Builder) append(attr Attribute) {
	if _, exists := b.index[attr.Name]; exists {
		b.errs = append(b.errs, &AttributeError{Attribute: attr.Name, Err: ErrDuplicateAttribute})
		return
	}
	b.index[attr.Name] = len(b.attrs)
	b.attrs = append(b.attrs, attr)
}

// Define builds a definition named name from the declarations made by fn.
// name is a dot-qualified schema name ("shop.models.Order"); its leading
// segments are the namespace used to resolve relative references. An
// empty name defines an anonymous schema.
//
// All declaration errors are reported together.
func Define(name string, fn func(*Builder), opts ...DefinitionOption) (*Definition, error) {
	b := newBuilder()
	if fn != nil {
		fn(b)
	}
	return b.build(name, opts)
}

// Must returns def or panics with err. It is meant for package-level
// definitions whose declarations are fixed at compile time.
func Must(def *Definition, err error) *Definition {
	if err != nil {
		panic(err)
	}
	return def
}

func (b *Builder) build(name string, opts []DefinitionOption) (*Definition, error) {
	errs := make([]error, 0, len(b.errs))
	if name != "" && !convention.IsValidQualifiedName(name) {
		errs = append(errs, errorf(ErrInvalidName, "schema name %q is not a valid qualified name", name))
	}
	for _, err := range b.errs {
		var ae *AttributeError
		if errors.As(err, &ae) {
			ae.Schema = name
		}
		errs = append(errs, err)
	}

	d := newDefinition(name, opts)
	d.attrs = make([]Attribute, len(b.attrs))
	copy(d.attrs, b.attrs)
	d.afterParse = b.afterParse

	d.index = make(map[string]int, len(d.attrs))
	d.coercers = make([]coercer, len(d.attrs))
	d.checks = make([][]check, len(d.attrs))
	d.predicates = make(map[string]string)
	for i, a := range d.attrs {
		d.index[a.Name] = i
		d.coercers[i] = d.compile(a)
		for _, c := range a.Constraints {
			chk, err := compileConstraint(c)
			if err != nil {
				errs = append(errs, &AttributeError{Schema: name, Attribute: a.Name, Err: err})
				continue
			}
			d.checks[i] = append(d.checks[i], chk)
		}
		if a.Type.isBool() && !a.HasTransform() {
			if p := convention.PredicateName(a.Name); p != "" {
				d.predicates[p] = a.Name
			}
		}
	}

	for _, spec := range b.rules {
		r, err := compileRule(spec.expr, spec.message)
		if err != nil {
			errs = append(errs, errorf(ErrInvalidRule, "%s: %v", spec.expr, err))
			continue
		}
		d.rules = append(d.rules, r)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	d.logger.Debug().
		Str("schema", d.name).
		Int("attributes", len(d.attrs)).
		Int("rules", len(d.rules)).
		Msg("schema defined")

	return d, nil
}
