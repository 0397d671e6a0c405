/*
Package schema compiles declarative attribute lists into record schemas
and parses loosely typed input into immutable records.

# Defining a schema

	order := schema.Must(schema.Define("shop.Order", func(b *schema.Builder) {
		b.Attribute("id", schema.String, schema.NotNull())
		b.Attribute("items", schema.ArrayOf(schema.Ref("OrderItem")), schema.Default([]any{}))
		b.Attribute("placed_at", schema.Timestamp, schema.From("PlacedAt"))
		b.OptionalAttribute("note", schema.String)
		b.Rule("len(items) <= 100", "too many items")
	}, schema.WithResolver(reg)))

	rec, err := order.Parse(map[string]any{"id": 7, "PlacedAt": "2024-05-01"})

# Types

  - String, Int, Float, Bool: primitives. Bool uses a truthy allow-list
    (true, 1, "1", "t", "T", "true", "TRUE", "on", "ON"); anything else is false.
  - Timestamp, Duration, UUID, URL: parsed from their string forms.
  - Any: values pass through unchanged.
  - Self: the enclosing definition.
  - ArrayOf(T): every member coerced with T.
  - Ref(name): a definition resolved lazily by name, relative to the
    declaring definition's namespace.
  - Nested(def): a definition held directly.

Transform and TransformWithContext replace the type with a function.

# Lookup

For each attribute, in declaration order, the parser takes the first of:
an override, the source key, the alternate form of the source key
(snake_case or camelCase), the default. Missing required attributes, nil
values of non-nullable attributes, coercion failures, constraint
violations and unresolved references are reported as *AttributeError
wrapping one of the package's sentinel errors.

# Documents

Schemas can also be written as YAML documents and loaded with
ParseDocument, ParseFile or ParseDir. See Document for the format.
*/
package schema
