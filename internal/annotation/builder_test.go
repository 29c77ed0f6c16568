package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

func TestBuilder_SetupReturnsNewInstance(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	base := Property(schema.String).WithEditorProps(map[string]any{"rows": 1})

	// --- Act ---
	extended := base.Setup(Options{
		Name:        "Custom",
		EditorProps: map[string]any{"rows": 4, "autoFocus": true},
	})

	// --- Assert ---
	// The original builder is untouched by the Setup call.
	original := base.Build("field")
	require.Equal(t, "Field", original.Name)
	require.Equal(t, 1, original.EditorProps["rows"])
	_, hasAutoFocus := original.EditorProps["autoFocus"]
	assert.False(t, hasAutoFocus, "base builder must not see options merged into the copy")

	// The copy carries both the inherited and the merged options.
	merged := extended.Build("field")
	assert.Equal(t, "Custom", merged.Name)
	assert.Equal(t, 4, merged.EditorProps["rows"])
	assert.Equal(t, true, merged.EditorProps["autoFocus"])
}

func TestBuilder_ChainDoesNotMutateIntermediates(t *testing.T) {
	t.Parallel()

	base := Property(schema.Number)
	required := base.Required()
	valued := required.Valued()

	assert.False(t, base.Build("a").Required)
	assert.True(t, required.Build("a").Required)
	assert.False(t, required.Build("a").Valued)
	assert.True(t, valued.Build("a").Valued)
	assert.Equal(t, BindingTwoWay, valued.Build("a").Binding)
}

func TestBuilder_NameDerivation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"firstName":    "First Name",
		"first_name":   "First Name",
		"value":        "Value",
		"maxItemCount": "Max Item Count",
	}
	for key, want := range cases {
		assert.Equal(t, want, Property(schema.String).Build(key).Name, "key %q", key)
	}

	named := Property(schema.String).Named("Label Override").Build("firstName")
	assert.Equal(t, "Label Override", named.Name)
}

func TestBuilder_DefaultEditors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, EditorNumber, Property(schema.Number).Build("n").Editor)
	assert.Equal(t, EditorCheckbox, Property(schema.Boolean).Build("b").Editor)
	assert.Equal(t, EditorInput, Property(schema.String).Build("s").Editor)
	assert.Equal(t, EditorDate, Property(schema.Date).Build("d").Editor)
}

func TestOneOfBuilder_CarriesChoices(t *testing.T) {
	t.Parallel()

	b := OneOf(
		Choice{Value: cty.StringVal("s"), Label: "Small"},
		Choice{Value: cty.StringVal("l"), Label: "Large"},
	).RadioButtons().Default(cty.StringVal("s"))

	a := b.Build("size")

	require.Equal(t, schema.Enum, a.Type)
	assert.Equal(t, EditorOneOf, a.Editor)
	assert.Equal(t, cty.StringVal("s"), a.Default)
	assert.Equal(t, true, a.EditorProps["radioButtons"])
	choices, ok := a.EditorProps["choices"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, choices, 2)
	assert.Equal(t, "Small", choices[0]["label"])
}

func TestNodeBuilder_BuildsContainerAnnotation(t *testing.T) {
	t.Parallel()

	n := Node().
		InsertWhen(func(childType string) bool { return childType != "modal" }).
		DefaultEditor("layout")

	a := n.Build("children")

	assert.Equal(t, KindContainer, a.Kind)
	assert.Equal(t, "layout", a.DefaultEditor)
	require.NotNil(t, a.InsertPredicate)
	assert.True(t, a.InsertPredicate("input"))
	assert.False(t, a.InsertPredicate("modal"))
}
