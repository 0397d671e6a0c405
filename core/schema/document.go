package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/artpar/structure/core/convention"
)

// Document is the YAML form of a definition.
//
//	schema: shop.Order
//	description: An order.
//	attributes:
//	  id:        { type: string, nullable: false }
//	  items:     { type: "[ref]", to: OrderItem, default: [] }
//	  note?:     { type: string, from: Note }
//	  paid:      bool
//	rules:
//	  - expr: "len(items) > 0 || !paid"
//	    message: paid orders need items
//
// Attributes keep their mapping order. A name ending in "?" is optional
// unless the attribute is boolean, where the "?" belongs to the name.
// A ref without "to" targets the attribute name in PascalCase, singular
// for arrays: "line_items: [ref]" refers to LineItem.
type Document struct {
	Schema      string         `yaml:"schema"`
	Description string         `yaml:"description,omitempty"`
	Attributes  yaml.Node      `yaml:"attributes"`
	Rules       []RuleDocument `yaml:"rules,omitempty"`
}

// AttributeDocument is one entry of a document's attributes mapping.
// A bare scalar ("paid: bool") is shorthand for {type: bool}.
type AttributeDocument struct {
	Type        string       `yaml:"type"`
	To          string       `yaml:"to,omitempty"`
	From        string       `yaml:"from,omitempty"`
	Default     any          `yaml:"default,omitempty"`
	Nullable    *bool        `yaml:"nullable,omitempty"`
	Optional    bool         `yaml:"optional,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Constraints []Constraint `yaml:"constraints,omitempty"`
}

// RuleDocument is one entry of a document's rules list.
type RuleDocument struct {
	Expr    string `yaml:"expr"`
	Message string `yaml:"message,omitempty"`
}

// ParseFile parses every schema document in a YAML file.
func ParseFile(path string, opts ...DefinitionOption) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	defs, err := ParseDocuments(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// ParseDocuments parses a YAML stream of one or more schema documents
// separated by "---".
func ParseDocuments(data []byte, opts ...DefinitionOption) ([]*Definition, error) {
	var defs []*Definition

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}

		def, err := doc.Build(opts...)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}

	return defs, nil
}

// ParseDocument parses a single schema document.
func ParseDocument(data []byte, opts ...DefinitionOption) (*Definition, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return doc.Build(opts...)
}

// ParseDir parses all schema documents from a directory, including
// subdirectories. Files are visited in lexical order.
func ParseDir(dir string, opts ...DefinitionOption) ([]*Definition, error) {
	var defs []*Definition

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(path, opts...)
			if err != nil {
				return nil, err
			}
			defs = append(defs, sub...)
			continue
		}

		if !IsDocumentFile(entry.Name()) {
			continue
		}

		fileDefs, err := ParseFile(path, opts...)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}

	return defs, nil
}

// IsDocumentFile reports whether name has a YAML extension.
func IsDocumentFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// Build compiles the document into a definition.
func (doc *Document) Build(opts ...DefinitionOption) (*Definition, error) {
	if strings.TrimSpace(doc.Schema) == "" {
		return nil, errorf(ErrInvalidName, "document has no schema name")
	}

	attrs, err := doc.attributes()
	if err != nil {
		return nil, fmt.Errorf("schema %q: %w", doc.Schema, err)
	}

	if doc.Description != "" {
		opts = append(opts, WithDescription(doc.Description))
	}

	return Define(doc.Schema, func(b *Builder) {
		for _, a := range attrs {
			b.Attribute(a.name, a.opts...)
		}
		for _, r := range doc.Rules {
			b.Rule(r.Expr, r.Message)
		}
	}, opts...)
}

type docAttribute struct {
	name string
	opts []Option
}

func (doc *Document) attributes() ([]docAttribute, error) {
	node := &doc.Attributes
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: attributes must be a mapping", node.Line)
	}

	var errs []error
	out := make([]docAttribute, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		var ad AttributeDocument
		switch val.Kind {
		case yaml.ScalarNode:
			ad.Type = val.Value
		case yaml.MappingNode:
			if err := val.Decode(&ad); err != nil {
				errs = append(errs, fmt.Errorf("line %d: attribute %q: %w", val.Line, key.Value, err))
				continue
			}
		default:
			errs = append(errs, fmt.Errorf("line %d: attribute %q must be a type name or a mapping", val.Line, key.Value))
			continue
		}

		a, err := ad.compile(key.Value)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: attribute %q: %w", key.Line, key.Value, err))
			continue
		}
		out = append(out, a)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (ad AttributeDocument) compile(key string) (docAttribute, error) {
	to := ad.To
	if to == "" {
		spec := strings.TrimSpace(ad.Type)
		if Kind(strings.ToLower(strings.Trim(spec, "[] "))) == KindRef {
			to = convention.RefTarget(key, strings.HasPrefix(spec, "["))
		}
	}

	typ, err := ParseType(ad.Type, to)
	if err != nil {
		return docAttribute{}, err
	}

	name := key
	optional := ad.Optional
	if strings.HasSuffix(key, convention.PredicateSuffix) && typ.Kind() != KindBool {
		name = strings.TrimSuffix(key, convention.PredicateSuffix)
		optional = true
	}

	opts := []Option{typ}
	if ad.From != "" {
		opts = append(opts, From(ad.From))
	}
	if ad.Default != nil {
		opts = append(opts, Default(ad.Default))
	}
	if ad.Nullable != nil {
		opts = append(opts, Nullable(*ad.Nullable))
	}
	if optional {
		opts = append(opts, Optional())
	}
	if ad.Description != "" {
		opts = append(opts, Describe(ad.Description))
	}
	if len(ad.Constraints) > 0 {
		opts = append(opts, Constrain(ad.Constraints...))
	}

	return docAttribute{name: name, opts: opts}, nil
}
