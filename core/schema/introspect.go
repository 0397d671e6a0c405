package schema

import "sort"

// Signature describes a definition for signature emitters and tooling.
type Signature struct {
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Attributes  []AttributeSignature `json:"attributes" yaml:"attributes"`
	Predicates  []string             `json:"predicates,omitempty" yaml:"predicates,omitempty"`
	Rules       []RuleSignature      `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// AttributeSignature describes one attribute.
type AttributeSignature struct {
	Name        string       `json:"name" yaml:"name"`
	SourceKey   string       `json:"source_key" yaml:"source_key"`
	Type        string       `json:"type" yaml:"type"`
	Required    bool         `json:"required" yaml:"required"`
	Nullable    bool         `json:"nullable" yaml:"nullable"`
	Default     any          `json:"default,omitempty" yaml:"default,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// RuleSignature describes a cross-attribute rule.
type RuleSignature struct {
	Expr    string `json:"expr" yaml:"expr"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Signature returns the definition's metadata. Attributes are in
// declaration order; predicates are sorted.
func (d *Definition) Signature() Signature {
	sig := Signature{
		Name:        d.name,
		Description: d.description,
		Attributes:  make([]AttributeSignature, len(d.attrs)),
	}

	for i, a := range d.attrs {
		sig.Attributes[i] = AttributeSignature{
			Name:        a.Name,
			SourceKey:   a.SourceKey,
			Type:        a.TypeString(),
			Required:    a.Required(),
			Nullable:    a.Nullable,
			Default:     a.Default,
			Description: a.Description,
			Constraints: a.Constraints,
		}
	}

	for p := range d.predicates {
		sig.Predicates = append(sig.Predicates, p)
	}
	sort.Strings(sig.Predicates)

	for _, r := range d.rules {
		sig.Rules = append(sig.Rules, RuleSignature{Expr: r.expr, Message: r.message})
	}

	return sig
}
