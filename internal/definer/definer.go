// Package definer combines a component implementation with its annotations
// into the two registration artifacts: Model, the runtime rendering
// contract, and Meta, the design-time metadata contract. Define starts a
// fluent declaration whose only side-effecting step is the terminal Build.
package definer

import (
	"context"

	"github.com/vk/formweave/internal/annotation"
	"github.com/vk/formweave/internal/ctxlog"
	"github.com/vk/formweave/internal/formstore"
	"github.com/vk/formweave/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Kind classifies a component's structural role in the tree.
type Kind string

const (
	KindComponent Kind = "component"
	KindContainer Kind = "container"
	KindTemplate  Kind = "template"
	KindRepeater  Kind = "repeater"
)

// Well-known feature roles. Features are an open string-keyed bag; these
// constants only name the roles the engine itself consults.
const (
	FeatureRole            = "role"
	FeatureHideFromPalette = "hideFromPalette"
	FeatureDisableRemove   = "disableRemove"
	FeatureWithoutStyles   = "withoutStyles"
)

// Model is the runtime rendering contract for one component type.
type Model struct {
	Type              string
	Kind              Kind
	Valued            string
	ValueType         schema.Type
	DefaultProps      map[string]cty.Value
	CSS               map[string]string
	WrapperCSS        map[string]string
	ReadOnlyProp      string
	DisabledProp      string
	PropsBindingTypes map[string]annotation.BindingType
	Features          map[string][]string
}

// HasRole reports whether the model declares the given feature role.
func (m *Model) HasRole(role string) bool {
	for _, r := range m.Features[FeatureRole] {
		if r == role {
			return true
		}
	}
	return false
}

// HasFeature reports whether the feature flag is present at all.
func (m *Model) HasFeature(name string) bool {
	_, ok := m.Features[name]
	return ok
}

// Meta is the design-time metadata contract for one component type.
type Meta struct {
	Properties       []*annotation.Annotation
	CSS              []*annotation.StyleAnnotation
	WrapperCSS       []*annotation.StyleAnnotation
	Modules          []*annotation.Annotation
	Containers       []*annotation.ContainerAnnotation
	Events           []*annotation.EventAnnotation
	InitialJSON      *formstore.Component
	InsertRestriction func(parentType string) bool
}

// Definition is the result of a terminal Build call.
type Definition struct {
	Model    *Model
	Meta     *Meta
	Category string
	Warnings []string
}

// Definer is the mutable draft accumulated by the fluent declaration calls.
// Unlike annotation builders it mutates in place; a Definer is a one-shot
// declaration, not a shareable template.
type Definer struct {
	typ        string
	kind       Kind
	category   string
	props      []*annotation.Annotation
	css        []*annotation.StyleAnnotation
	wrapperCSS []*annotation.StyleAnnotation
	modules    []*annotation.Annotation
	containers []*annotation.ContainerAnnotation
	events     []*annotation.EventAnnotation
	features   map[string][]string
	initial    *formstore.Component
	insert     func(parentType string) bool
}

// Define starts a component declaration for the given unique type key.
func Define(componentType string, kind Kind) *Definer {
	return &Definer{typ: componentType, kind: kind, features: map[string][]string{}}
}

// Props appends property annotations.
func (d *Definer) Props(annots ...*annotation.Annotation) *Definer {
	d.props = append(d.props, annots...)
	return d
}

// CSS appends style slot annotations.
func (d *Definer) CSS(annots ...*annotation.StyleAnnotation) *Definer {
	d.css = append(d.css, annots...)
	return d
}

// WrapperCSS appends wrapper style slot annotations.
func (d *Definer) WrapperCSS(annots ...*annotation.StyleAnnotation) *Definer {
	d.wrapperCSS = append(d.wrapperCSS, annots...)
	return d
}

// Modules appends module-level annotations.
func (d *Definer) Modules(annots ...*annotation.Annotation) *Definer {
	d.modules = append(d.modules, annots...)
	return d
}

// Containers appends child-content slot annotations.
func (d *Definer) Containers(annots ...*annotation.ContainerAnnotation) *Definer {
	d.containers = append(d.containers, annots...)
	return d
}

// Actions appends event annotations the component can fire.
func (d *Definer) Actions(annots ...*annotation.EventAnnotation) *Definer {
	d.events = append(d.events, annots...)
	return d
}

// Category assigns the palette category.
func (d *Definer) Category(name string) *Definer {
	d.category = name
	return d
}

// WithFeature records a feature flag value. Whether multiple values are
// allowed is declared on the feature itself at registration time.
func (d *Definer) WithFeature(name string, values ...string) *Definer {
	d.features[name] = append(d.features[name], values...)
	return d
}

// WithRole tags the component with a structural role (modal, tooltip,
// error-message, ...).
func (d *Definer) WithRole(role string) *Definer {
	return d.WithFeature(FeatureRole, role)
}

// HideFromPalette keeps the component out of the design palette.
func (d *Definer) HideFromPalette() *Definer {
	return d.WithFeature(FeatureHideFromPalette)
}

// DisableRemove forbids removing instances on the design surface.
func (d *Definer) DisableRemove() *Definer {
	return d.WithFeature(FeatureDisableRemove)
}

// WithoutStyles suppresses the style editor for the component.
func (d *Definer) WithoutStyles() *Definer {
	return d.WithFeature(FeatureWithoutStyles)
}

// InitialJSON sets the default serialized instance inserted from the palette.
func (d *Definer) InitialJSON(c *formstore.Component) *Definer {
	d.initial = c
	return d
}

// InsertRestriction limits which parent types may contain the component.
func (d *Definer) InsertRestriction(pred func(parentType string) bool) *Definer {
	d.insert = pred
	return d
}

// Build derives the Model and Meta from the accumulated draft. Derivation
// never fails; authoring inconsistencies are reported as warnings because a
// component library with a sloppy declaration must still register.
func (d *Definer) Build(ctx context.Context) Definition {
	logger := ctxlog.FromContext(ctx)
	var warnings []string

	model := &Model{
		Type:              d.typ,
		Kind:              d.kind,
		DefaultProps:      map[string]cty.Value{},
		CSS:               map[string]string{},
		WrapperCSS:        map[string]string{},
		PropsBindingTypes: map[string]annotation.BindingType{},
		Features:          d.features,
	}

	var valuedCandidate *annotation.Annotation
	for _, a := range d.props {
		if a.Default != cty.NilVal {
			model.DefaultProps[a.Key] = a.Default
		}
		if a.Binding != annotation.BindingNone {
			model.PropsBindingTypes[a.Key] = a.Binding
		}
		if a.Valued {
			if valuedCandidate != nil {
				warning := "component " + d.typ + ": multiple valued properties, keeping " + valuedCandidate.Key + ", ignoring " + a.Key
				warnings = append(warnings, warning)
				logger.Warn("Multiple valued properties declared; first one wins.",
					"component", d.typ, "kept", valuedCandidate.Key, "ignored", a.Key)
				continue
			}
			valuedCandidate = a
		}
		if model.ReadOnlyProp == "" && a.ReadOnly {
			model.ReadOnlyProp = a.Key
		}
		if model.DisabledProp == "" && a.Disabled {
			model.DisabledProp = a.Key
		}
	}
	// With nothing marked valued, a property keyed "value" is the binding.
	if valuedCandidate == nil {
		for _, a := range d.props {
			if a.Key == "value" {
				valuedCandidate = a
				break
			}
		}
	}
	if valuedCandidate != nil {
		model.Valued = valuedCandidate.Key
		model.ValueType = valuedCandidate.Type
	}

	for _, s := range d.css {
		if s.Default != cty.NilVal && s.Default.Type() == cty.String {
			model.CSS[s.Key] = s.Default.AsString()
		}
	}
	for _, s := range d.wrapperCSS {
		if s.Default != cty.NilVal && s.Default.Type() == cty.String {
			model.WrapperCSS[s.Key] = s.Default.AsString()
		}
	}

	meta := &Meta{
		Properties:        d.props,
		CSS:               d.css,
		WrapperCSS:        d.wrapperCSS,
		Modules:           d.modules,
		Containers:        d.containers,
		Events:            d.events,
		InitialJSON:       d.initial,
		InsertRestriction: d.insert,
	}

	return Definition{Model: model, Meta: meta, Category: d.category, Warnings: warnings}
}

// DefinePreset packages a pre-built component subtree as a zero-render
// placeholder component whose initial JSON is the serialized subtree. This
// is how users save reusable "templates of components" into the palette.
func DefinePreset(ctx context.Context, name string, subtree *formstore.Component) Definition {
	return Define(name, KindComponent).
		Category("presets").
		InitialJSON(subtree.Clone()).
		Build(ctx)
}
