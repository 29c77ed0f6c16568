package definer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/formweave/internal/annotation"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

func TestBuild_SingleValuedProperty(t *testing.T) {
	t.Parallel()

	def := Define("input", KindComponent).
		Props(
			annotation.Property(schema.String).Valued().Build("text"),
			annotation.Property(schema.String).Build("placeholder"),
		).
		Build(context.Background())

	assert.Equal(t, "text", def.Model.Valued)
	assert.Equal(t, schema.String, def.Model.ValueType)
	assert.Empty(t, def.Warnings)
}

func TestBuild_DuplicateValuedFirstWinsWithWarning(t *testing.T) {
	t.Parallel()

	def := Define("broken", KindComponent).
		Props(
			annotation.Property(schema.String).Valued().Build("first"),
			annotation.Property(schema.Number).Valued().Build("second"),
		).
		Build(context.Background())

	assert.Equal(t, "first", def.Model.Valued)
	require.Len(t, def.Warnings, 1)
	assert.Contains(t, def.Warnings[0], "second")
}

func TestBuild_FallsBackToPropertyNamedValue(t *testing.T) {
	t.Parallel()

	def := Define("checkbox", KindComponent).
		Props(
			annotation.Property(schema.Boolean).Build("value"),
			annotation.Property(schema.String).Build("label"),
		).
		Build(context.Background())

	assert.Equal(t, "value", def.Model.Valued)
	assert.Equal(t, schema.Boolean, def.Model.ValueType)
}

func TestBuild_ReadOnlyDisabledAndDefaults(t *testing.T) {
	t.Parallel()

	def := Define("input", KindComponent).
		Props(
			annotation.Property(schema.String).Valued().Build("text"),
			annotation.Property(schema.Boolean).ReadOnly().Default(cty.False).Build("locked"),
			annotation.Property(schema.Boolean).Disabled().Build("inactive"),
		).
		CSS(annotation.Style().Default(cty.StringVal("100%")).Build("width")).
		Build(context.Background())

	assert.Equal(t, "locked", def.Model.ReadOnlyProp)
	assert.Equal(t, "inactive", def.Model.DisabledProp)
	assert.Equal(t, cty.False, def.Model.DefaultProps["locked"])
	assert.Equal(t, "100%", def.Model.CSS["width"])
	assert.Equal(t, annotation.BindingTwoWay, def.Model.PropsBindingTypes["text"])
}

func TestBuild_FeaturesAndRoles(t *testing.T) {
	t.Parallel()

	def := Define("dialog", KindContainer).
		WithRole("modal").
		HideFromPalette().
		Build(context.Background())

	assert.True(t, def.Model.HasRole("modal"))
	assert.False(t, def.Model.HasRole("tooltip"))
	assert.True(t, def.Model.HasFeature(FeatureHideFromPalette))
}

func TestDefinePreset_CarriesSubtreeAsInitialJSON(t *testing.T) {
	t.Parallel()

	subtree := &formstore.Component{
		Key: "address", Type: "group",
		Children: []*formstore.Component{
			{Key: "street", Type: "input"},
			{Key: "city", Type: "input"},
		},
	}

	def := DefinePreset(context.Background(), "addressBlock", subtree)

	require.NotNil(t, def.Meta.InitialJSON)
	assert.Equal(t, "presets", def.Category)
	assert.Len(t, def.Meta.InitialJSON.Children, 2)
	// The preset holds its own copy of the subtree.
	subtree.Children[0].Key = "mutated"
	assert.Equal(t, "street", def.Meta.InitialJSON.Children[0].Key)
}
