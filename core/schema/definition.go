package schema

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/structure/core/convention"
)

// Resolver looks up definitions by qualified name.
// It backs named references; registry.Registry is the usual implementation.
type Resolver interface {
	Lookup(name string) (*Definition, bool)
}

// Observer receives parse and resolution events, e.g. for metrics.
// Implementations must be safe for concurrent use.
type Observer interface {
	ParseCompleted(schema string, elapsed time.Duration, err error)
	ReferenceResolved(schema, name, target string)
}

// DefinitionOption configures a definition at build time.
type DefinitionOption func(*Definition)

// WithResolver sets the resolver used for named references.
func WithResolver(r Resolver) DefinitionOption {
	return func(d *Definition) { d.resolver = r }
}

// WithLogger sets the logger. Definitions log at debug level only.
func WithLogger(logger zerolog.Logger) DefinitionOption {
	return func(d *Definition) { d.logger = logger }
}

// WithObserver sets an observer notified after every Parse.
func WithObserver(o Observer) DefinitionOption {
	return func(d *Definition) { d.observer = o }
}

// WithDescription attaches a description carried into signature metadata.
func WithDescription(text string) DefinitionOption {
	return func(d *Definition) { d.description = text }
}

// Definition is a compiled, immutable record schema.
// It is safe for concurrent use; the only state that changes after
// Define returns is the per-reference resolution cache.
type Definition struct {
	name        string
	namespace   []string
	description string

	attrs      []Attribute
	index      map[string]int
	coercers   []coercer
	checks     [][]check
	predicates map[string]string // predicate name -> attribute name
	afterParse func(*Record) error
	rules      []*rule

	resolver Resolver
	logger   zerolog.Logger
	observer Observer
	opts     []DefinitionOption
}

func newDefinition(name string, opts []DefinitionOption) *Definition {
	d := &Definition{
		name:      name,
		namespace: convention.Namespace(name),
		logger:    zerolog.Nop(),
		opts:      opts,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the qualified name, or "" for anonymous definitions.
func (d *Definition) Name() string {
	return d.name
}

// Namespace returns the segments enclosing the definition's name.
func (d *Definition) Namespace() []string {
	out := make([]string, len(d.namespace))
	copy(out, d.namespace)
	return out
}

// Description returns the description, if any.
func (d *Definition) Description() string {
	return d.description
}

// Attributes returns the attributes in declaration order.
func (d *Definition) Attributes() []Attribute {
	out := make([]Attribute, len(d.attrs))
	copy(out, d.attrs)
	return out
}

// Attribute returns the attribute named name.
func (d *Definition) Attribute(name string) (Attribute, bool) {
	i, ok := d.index[name]
	if !ok {
		return Attribute{}, false
	}
	return d.attrs[i], true
}

// AttributeNames returns attribute names in declaration order.
func (d *Definition) AttributeNames() []string {
	names := make([]string, len(d.attrs))
	for i, a := range d.attrs {
		names[i] = a.Name
	}
	return names
}

// Predicates maps each derived predicate name ("active?") to its
// boolean attribute ("active").
func (d *Definition) Predicates() map[string]string {
	out := make(map[string]string, len(d.predicates))
	for p, a := range d.predicates {
		out[p] = a
	}
	return out
}

// HasAfterParse reports whether an after-parse hook is set.
func (d *Definition) HasAfterParse() bool {
	return d.afterParse != nil
}

// Extend defines a new schema made of d's attributes and rules followed by
// the declarations of fn. The after-parse hook is not carried over. Options
// given to d apply unless overridden by opts.
func (d *Definition) Extend(name string, fn func(*Builder), opts ...DefinitionOption) (*Definition, error) {
	b := newBuilder()
	b.Include(d)
	if fn != nil {
		fn(b)
	}
	merged := make([]DefinitionOption, 0, len(d.opts)+len(opts))
	merged = append(merged, d.opts...)
	merged = append(merged, opts...)
	return b.build(name, merged)
}

func (d *Definition) label() string {
	if d.name == "" {
		return "anonymous"
	}
	return d.name
}
