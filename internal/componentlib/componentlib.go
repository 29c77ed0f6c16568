// Package componentlib ships the reference component set: enough input,
// container and auxiliary components to register a working palette, drive
// the engine's tests and serve as the pattern for host-defined libraries.
// The library registers through the registry.Library contract.
package componentlib

import (
	"context"

	"github.com/vk/formweave/internal/annotation"
	"github.com/vk/formweave/internal/definer"
	"github.com/vk/formweave/internal/registry"
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Palette category names used by the reference set.
const (
	CategoryInputs     = "inputs"
	CategoryContainers = "containers"
	CategoryAuxiliary  = "auxiliary"
)

// Library is the reference component library.
type Library struct{}

// New returns the reference library.
func New() *Library { return &Library{} }

// Register defines every reference component into the registry.
func (l *Library) Register(r *registry.Registry) {
	ctx := context.Background()
	for _, def := range []definer.Definition{
		l.label(ctx),
		l.input(ctx),
		l.number(ctx),
		l.checkbox(ctx),
		l.selectBox(ctx),
		l.textarea(ctx),
		l.group(ctx),
		l.repeater(ctx),
		l.template(ctx),
		l.modal(ctx),
		l.tooltip(ctx),
		l.errorMessage(ctx),
	} {
		r.Register(def)
	}
}

// dataKeyProp is the shared declaration of the data binding key every
// valued component carries.
var dataKeyProp = annotation.Property(schema.String).
	Named("Data Key").
	WithEditorProps(map[string]any{"placeholder": "defaults to the component key"})

func (l *Library) label(ctx context.Context) definer.Definition {
	return definer.Define("label", definer.KindComponent).
		Category(CategoryInputs).
		Props(
			annotation.Property(schema.String).Localizable().Calculable().Build("text"),
		).
		Build(ctx)
}

func (l *Library) input(ctx context.Context) definer.Definition {
	return definer.Define("input", definer.KindComponent).
		Category(CategoryInputs).
		Props(
			annotation.Property(schema.String).Valued().Calculable().Default(cty.StringVal("")).Build("value"),
			annotation.Property(schema.String).Localizable().Build("label"),
			annotation.Property(schema.String).Localizable().Build("placeholder"),
			annotation.Property(schema.Boolean).ReadOnly().Default(cty.False).Build("readOnly"),
			annotation.Property(schema.Boolean).Disabled().Default(cty.False).Build("disabled"),
			dataKeyProp.Build("dataKey"),
		).
		Actions(
			annotation.Event().Build("change"),
			annotation.Event().Build("blur"),
		).
		CSS(
			annotation.Style().Default(cty.StringVal("inherit")).Build("color"),
		).
		Build(ctx)
}

func (l *Library) number(ctx context.Context) definer.Definition {
	return definer.Define("number", definer.KindComponent).
		Category(CategoryInputs).
		Props(
			annotation.Property(schema.Number).Valued().Calculable().Build("value"),
			annotation.Property(schema.String).Localizable().Build("label"),
			annotation.Property(schema.Number).Build("step"),
			annotation.Property(schema.Boolean).Disabled().Default(cty.False).Build("disabled"),
			dataKeyProp.Build("dataKey"),
		).
		Build(ctx)
}

func (l *Library) checkbox(ctx context.Context) definer.Definition {
	return definer.Define("checkbox", definer.KindComponent).
		Category(CategoryInputs).
		Props(
			annotation.Property(schema.Boolean).Valued().Calculable().Default(cty.False).Build("value"),
			annotation.Property(schema.String).Localizable().Build("label"),
			dataKeyProp.Build("dataKey"),
		).
		Build(ctx)
}

func (l *Library) selectBox(ctx context.Context) definer.Definition {
	return definer.Define("select", definer.KindComponent).
		Category(CategoryInputs).
		Props(
			annotation.Property(schema.Enum).Valued().Calculable().Build("value"),
			annotation.Property(schema.String).Localizable().Build("label"),
			annotation.OneOf().Build("options"),
			dataKeyProp.Build("dataKey"),
		).
		Build(ctx)
}

func (l *Library) textarea(ctx context.Context) definer.Definition {
	return definer.Define("textarea", definer.KindComponent).
		Category(CategoryInputs).
		Props(
			annotation.Property(schema.String).Valued().Default(cty.StringVal("")).Build("value"),
			annotation.Property(schema.String).Localizable().Build("label"),
			annotation.Property(schema.Number).Default(cty.NumberIntVal(3)).Build("rows"),
			dataKeyProp.Build("dataKey"),
		).
		Build(ctx)
}

func (l *Library) group(ctx context.Context) definer.Definition {
	return definer.Define("group", definer.KindContainer).
		Category(CategoryContainers).
		Props(
			annotation.Property(schema.String).Localizable().Build("title"),
		).
		Containers(
			annotation.Node().Build("children"),
		).
		Build(ctx)
}

func (l *Library) repeater(ctx context.Context) definer.Definition {
	return definer.Define("repeater", definer.KindRepeater).
		Category(CategoryContainers).
		Props(
			annotation.Property(schema.Array).Valued().Calculable().Build("value"),
			dataKeyProp.Build("dataKey"),
		).
		Containers(
			annotation.Node().Build("item"),
		).
		Build(ctx)
}

func (l *Library) template(ctx context.Context) definer.Definition {
	return definer.Define("template", definer.KindTemplate).
		Category(CategoryContainers).
		Props(
			annotation.Property(schema.Object).Valued().Build("value"),
			annotation.Property(schema.String).Build("form"),
			dataKeyProp.Build("dataKey"),
		).
		Build(ctx)
}

func (l *Library) modal(ctx context.Context) definer.Definition {
	return definer.Define("modal", definer.KindContainer).
		Category(CategoryAuxiliary).
		WithRole("modal").
		HideFromPalette().
		Props(
			annotation.Property(schema.String).Localizable().Build("title"),
			annotation.Property(schema.Boolean).Default(cty.False).Build("open"),
		).
		Containers(
			annotation.Node().Build("children"),
		).
		Build(ctx)
}

func (l *Library) tooltip(ctx context.Context) definer.Definition {
	return definer.Define("tooltip", definer.KindComponent).
		Category(CategoryAuxiliary).
		WithRole("tooltip").
		HideFromPalette().
		WithoutStyles().
		Props(
			annotation.Property(schema.String).Localizable().Build("text"),
		).
		Build(ctx)
}

func (l *Library) errorMessage(ctx context.Context) definer.Definition {
	return definer.Define("error-message", definer.KindComponent).
		Category(CategoryAuxiliary).
		WithRole("error-message").
		HideFromPalette().
		WithoutStyles().
		DisableRemove().
		Props(
			annotation.Property(schema.String).Build("text"),
		).
		Build(ctx)
}
