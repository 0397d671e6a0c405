package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSignature(t *testing.T) {
	def := mustDefine(t, "shop.Order", func(b *Builder) {
		b.Attribute("id", String, NotNull(), Describe("Order id."))
		b.Attribute("items", ArrayOf(Ref("Item")), Default([]any{}))
		b.OptionalAttribute("placed_at", Timestamp, From("PlacedAt"))
		b.Attribute("paid", Bool)
		b.Attribute("archived", Bool)
		b.Attribute("total", Transform(func(v any) (any, error) { return v, nil }), Constrain(Min(0)))
		b.Rule("total >= 0", "negative total")
	}, WithDescription("An order."))

	sig := def.Signature()

	assert.Equal(t, "shop.Order", sig.Name)
	assert.Equal(t, "An order.", sig.Description)
	assert.Equal(t, []string{"archived?", "paid?"}, sig.Predicates)
	assert.Equal(t, []RuleSignature{{Expr: "total >= 0", Message: "negative total"}}, sig.Rules)

	require.Len(t, sig.Attributes, 6)
	assert.Equal(t, AttributeSignature{
		Name: "id", SourceKey: "id", Type: "string", Required: true, Nullable: false, Description: "Order id.",
	}, sig.Attributes[0])
	assert.Equal(t, "[ref(Item)]", sig.Attributes[1].Type)
	assert.Equal(t, []any{}, sig.Attributes[1].Default)
	assert.Equal(t, "PlacedAt", sig.Attributes[2].SourceKey)
	assert.False(t, sig.Attributes[2].Required)
	assert.Equal(t, "transform", sig.Attributes[5].Type)
	assert.Equal(t, []Constraint{Min(0)}, sig.Attributes[5].Constraints)
}

func TestSignature_Encoding(t *testing.T) {
	def := mustDefine(t, "Tag", func(b *Builder) {
		b.Attribute("label", String)
	})

	out, err := json.Marshal(def.Signature())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "Tag",
		"attributes": [{"name": "label", "source_key": "label", "type": "string", "required": true, "nullable": true}]
	}`, string(out))

	y, err := yaml.Marshal(def.Signature())
	require.NoError(t, err)
	assert.Contains(t, string(y), "source_key: label")
	assert.NotContains(t, string(y), "predicates")
}
